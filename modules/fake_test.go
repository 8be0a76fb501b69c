package modules

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"baseintel/pkg/dextools"
)

// fakeFetcher serves canned fragments keyed by endpoint and id.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []string
}

type fakeResponse struct {
	data map[string]any
	err  error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{responses: make(map[string]fakeResponse)}
}

func fakeKey(id string, ep dextools.Endpoint) string {
	return ep.String() + " " + id
}

func (f *fakeFetcher) ok(id string, ep dextools.Endpoint, data string) *fakeFetcher {
	f.responses[fakeKey(id, ep)] = fakeResponse{data: mustData(data)}
	return f
}

func (f *fakeFetcher) fail(id string, ep dextools.Endpoint, err error) *fakeFetcher {
	f.responses[fakeKey(id, ep)] = fakeResponse{err: err}
	return f
}

func (f *fakeFetcher) Fetch(ctx context.Context, id string, ep dextools.Endpoint) (dextools.Fragment, error) {
	key := fakeKey(id, ep)
	f.mu.Lock()
	f.calls = append(f.calls, key)
	resp, ok := f.responses[key]
	f.mu.Unlock()

	if !ok {
		return dextools.Fragment{}, &dextools.HTTPError{Endpoint: ep, ID: id, StatusCode: 404}
	}
	if resp.err != nil {
		return dextools.Fragment{}, resp.err
	}
	return dextools.Fragment{Endpoint: ep, ID: id, Data: resp.data}, nil
}

func (f *fakeFetcher) called(id string, ep dextools.Endpoint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == fakeKey(id, ep) {
			n++
		}
	}
	return n
}

// mustData decodes a JSON object the way the dextools client does.
func mustData(s string) map[string]any {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		panic(err)
	}
	return m
}

func aggregateOf(fragments map[dextools.Endpoint]string) *Aggregate {
	agg := newAggregate(testToken)
	for ep, data := range fragments {
		agg.Fragments[ep] = dextools.Fragment{Endpoint: ep, ID: testToken, Data: mustData(data)}
	}
	return agg
}

const (
	testToken = "0x4ed4e862860bed51a9570b96d89af5e1b0efefed"
	testPool  = "0xc9034c3e7f58003e6ae0c8438e7c8f4598d5acaa"

	infoJSON   = `{"name":"Degen","symbol":"DEGEN","socialInfo":{"website":"https://degen.tips","twitter":"https://x.com/degentokenbase","telegram":"degentokenbase"}}`
	priceJSON  = `{"price":0.0125,"price1h":0.0100,"price6h":"0.0125","price24h":0.025}`
	marketJSON = `{"mcap":1234567.89,"holders":45678}`
	auditJSON  = `{"isOpenSource":"yes","isHoneypot":"no","isMintable":false,"isProxy":"no","slippageModifiable":"no","isBlacklisted":"no","sellTax":{"min":0,"max":0.05,"status":"ok"},"buyTax":{"min":0,"max":0.03},"isContractRenounced":true,"isPotentiallyScam":"no","updatedAt":"2024-05-01T00:00:00Z"}`
	locksJSON  = `{"locks":[{"amount":5},{"amount":3}]}`
	poolsJSON  = `{"results":[{"address":"` + testPool + `"},{"address":"0x0000000000000000000000000000000000000002"}]}`
	poolPxJSON = `{"price":0.0126}`
)

// healthyFetcher answers every endpoint with a well-formed payload.
func healthyFetcher() *fakeFetcher {
	return newFakeFetcher().
		ok(testToken, dextools.TokenInfo, infoJSON).
		ok(testToken, dextools.TokenPrice, priceJSON).
		ok(testToken, dextools.TokenMarket, marketJSON).
		ok(testToken, dextools.TokenAudit, auditJSON).
		ok(testToken, dextools.TokenLocks, locksJSON).
		ok(testToken, dextools.TokenPools, poolsJSON).
		ok(testPool, dextools.PoolPrice, poolPxJSON)
}
