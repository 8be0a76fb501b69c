package modules

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baseintel/pkg/dextools"
	"baseintel/pkg/metrics"
)

func newTestOrchestrator(f Fetcher) *Orchestrator {
	return NewOrchestrator(f, time.Second, zerolog.Nop(), nil)
}

func TestGather_AllSucceed(t *testing.T) {
	f := healthyFetcher()
	agg, err := newTestOrchestrator(f).Gather(context.Background(), testToken)
	require.NoError(t, err)

	assert.Equal(t, testToken, agg.Token)
	for _, ep := range tokenEndpoints {
		_, ok := agg.Get(ep)
		assert.True(t, ok, "missing %s", ep)
		assert.Equal(t, 1, f.called(testToken, ep), "%s called once", ep)
	}
	pool, ok := agg.Get(dextools.PoolPrice)
	require.True(t, ok)
	assert.Equal(t, testPool, pool.ID)
	_, ok = agg.Get(dextools.TokenPools)
	assert.False(t, ok, "pool list is not part of the aggregate")
}

func TestGather_PartialFailure(t *testing.T) {
	f := healthyFetcher().
		fail(testToken, dextools.TokenAudit, &dextools.NetworkError{Endpoint: dextools.TokenAudit, ID: testToken, Err: errors.New("connection refused")}).
		fail(testToken, dextools.TokenLocks, &dextools.SchemaError{Endpoint: dextools.TokenLocks, ID: testToken, Reason: "missing"})

	agg, err := newTestOrchestrator(f).Gather(context.Background(), testToken)
	require.NoError(t, err)

	_, ok := agg.Get(dextools.TokenAudit)
	assert.False(t, ok)
	_, ok = agg.Get(dextools.TokenLocks)
	assert.False(t, ok)
	_, ok = agg.Get(dextools.TokenInfo)
	assert.True(t, ok)
	_, ok = agg.Get(dextools.PoolPrice)
	assert.True(t, ok)
	assert.Len(t, agg.Fragments, 4)
}

func TestGather_AllFail(t *testing.T) {
	f := newFakeFetcher() // every call is a 404

	agg, err := newTestOrchestrator(f).Gather(context.Background(), testToken)
	assert.Nil(t, agg)
	assert.ErrorIs(t, err, ErrAllEndpointsFailed)
	assert.Equal(t, 1, f.called(testToken, dextools.TokenPools), "pool resolution is still attempted")
}

func TestGather_OnlyPoolPriceSucceeds(t *testing.T) {
	f := newFakeFetcher().
		ok(testToken, dextools.TokenPools, poolsJSON).
		ok(testPool, dextools.PoolPrice, poolPxJSON)

	agg, err := newTestOrchestrator(f).Gather(context.Background(), testToken)
	require.NoError(t, err)
	assert.Len(t, agg.Fragments, 1)

	rec := Normalize(agg)
	assertDecimal(t, "0.0126", rec.PoolPrice)
	assert.False(t, rec.Price.Valid)
}

func TestGather_NoPoolStillSucceeds(t *testing.T) {
	f := healthyFetcher().ok(testToken, dextools.TokenPools, `{"results":[]}`)

	agg, err := newTestOrchestrator(f).Gather(context.Background(), testToken)
	require.NoError(t, err)

	_, ok := agg.Get(dextools.PoolPrice)
	assert.False(t, ok)
	assert.False(t, Normalize(agg).PoolPrice.Valid)
}

func TestResolvePool(t *testing.T) {
	t.Run("first listed pool wins", func(t *testing.T) {
		f := newFakeFetcher().
			ok(testToken, dextools.TokenPools, `{"results":[{"address":"P1"},{"address":"P2"}]}`).
			ok("P1", dextools.PoolPrice, `{"price":1}`).
			ok("P2", dextools.PoolPrice, `{"price":2}`)

		frag, err := newTestOrchestrator(f).ResolvePool(context.Background(), testToken)
		require.NoError(t, err)
		assert.Equal(t, "P1", frag.ID)
		assert.Equal(t, 1, f.called("P1", dextools.PoolPrice))
		assert.Equal(t, 0, f.called("P2", dextools.PoolPrice))
	})

	t.Run("empty list", func(t *testing.T) {
		f := newFakeFetcher().ok(testToken, dextools.TokenPools, `{"results":[]}`)
		_, err := newTestOrchestrator(f).ResolvePool(context.Background(), testToken)
		assert.ErrorIs(t, err, ErrNoPoolFound)
	})

	t.Run("missing results", func(t *testing.T) {
		f := newFakeFetcher().ok(testToken, dextools.TokenPools, `{"page":0}`)
		_, err := newTestOrchestrator(f).ResolvePool(context.Background(), testToken)
		assert.ErrorIs(t, err, ErrNoPoolFound)
	})

	t.Run("first pool without address", func(t *testing.T) {
		f := newFakeFetcher().
			ok(testToken, dextools.TokenPools, `{"results":[{"exchange":"uniswap"},{"address":"P2"}]}`)
		_, err := newTestOrchestrator(f).ResolvePool(context.Background(), testToken)
		assert.ErrorIs(t, err, ErrNoPoolFound)
		assert.Equal(t, 0, f.called("P2", dextools.PoolPrice))
	})

	t.Run("pools fetch failed", func(t *testing.T) {
		f := newFakeFetcher().fail(testToken, dextools.TokenPools, &dextools.HTTPError{StatusCode: 500})
		_, err := newTestOrchestrator(f).ResolvePool(context.Background(), testToken)
		assert.ErrorIs(t, err, ErrNoPoolFound)
	})

	t.Run("pool price failed", func(t *testing.T) {
		f := newFakeFetcher().
			ok(testToken, dextools.TokenPools, `{"results":[{"address":"P1"}]}`).
			fail("P1", dextools.PoolPrice, &dextools.HTTPError{Endpoint: dextools.PoolPrice, StatusCode: 503})

		_, err := newTestOrchestrator(f).ResolvePool(context.Background(), testToken)
		var httpErr *dextools.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, 503, httpErr.StatusCode)
		assert.NotErrorIs(t, err, ErrNoPoolFound)
	})
}

// blockingFetcher counts concurrent calls and blocks token endpoints until
// all of them are in flight.
type blockingFetcher struct {
	*fakeFetcher
	inFlight atomic.Int32
	peak     atomic.Int32
	barrier  chan struct{}
	arrived  atomic.Int32
	overlap  atomic.Bool
}

func (b *blockingFetcher) Fetch(ctx context.Context, id string, ep dextools.Endpoint) (dextools.Fragment, error) {
	n := b.inFlight.Add(1)
	defer b.inFlight.Add(-1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if ep.Scope == dextools.ScopeToken && ep != dextools.TokenPools {
		if b.arrived.Add(1) == int32(len(tokenEndpoints)) {
			close(b.barrier)
		}
		select {
		case <-b.barrier:
		case <-ctx.Done():
			return dextools.Fragment{}, &dextools.NetworkError{Endpoint: ep, ID: id, Err: ctx.Err()}
		}
	}
	if ep == dextools.TokenPools && n != 1 {
		b.overlap.Store(true)
	}
	return b.fakeFetcher.Fetch(ctx, id, ep)
}

func TestGather_BatchRunsConcurrently(t *testing.T) {
	f := &blockingFetcher{fakeFetcher: healthyFetcher(), barrier: make(chan struct{})}

	agg, err := newTestOrchestrator(f).Gather(context.Background(), testToken)
	require.NoError(t, err)

	assert.Equal(t, int32(len(tokenEndpoints)), f.peak.Load())
	assert.False(t, f.overlap.Load(), "pool resolution overlaps the batch")
	assert.Len(t, agg.Fragments, len(tokenEndpoints)+1)
}

// slowFetcher never answers until the context is done.
type slowFetcher struct {
	*fakeFetcher
	slow dextools.Endpoint
}

func (s *slowFetcher) Fetch(ctx context.Context, id string, ep dextools.Endpoint) (dextools.Fragment, error) {
	if ep == s.slow {
		<-ctx.Done()
		return dextools.Fragment{}, &dextools.NetworkError{Endpoint: ep, ID: id, Err: ctx.Err()}
	}
	return s.fakeFetcher.Fetch(ctx, id, ep)
}

func TestGather_OverallDeadline(t *testing.T) {
	f := &slowFetcher{fakeFetcher: healthyFetcher(), slow: dextools.TokenAudit}
	o := NewOrchestrator(f, 100*time.Millisecond, zerolog.Nop(), nil)

	start := time.Now()
	agg, err := o.Gather(context.Background(), testToken)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Less(t, elapsed, 2*time.Second)
	_, ok := agg.Get(dextools.TokenAudit)
	assert.False(t, ok)
	_, ok = agg.Get(dextools.TokenInfo)
	assert.True(t, ok)
}

func TestGather_CancelledContext(t *testing.T) {
	f := &slowFetcher{fakeFetcher: newFakeFetcher(), slow: dextools.TokenInfo}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestOrchestrator(f).Gather(ctx, testToken)
	assert.ErrorIs(t, err, ErrAllEndpointsFailed)
}

func TestGather_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics("test", reg)
	f := healthyFetcher().fail(testToken, dextools.TokenAudit, &dextools.NetworkError{Endpoint: dextools.TokenAudit, Err: errors.New("timeout")})

	_, err := NewOrchestrator(f, time.Second, zerolog.Nop(), m).Gather(context.Background(), testToken)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("token/audit", metrics.OutcomeNetwork)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("token/price", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("pool/price", metrics.OutcomeOK)))
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, metrics.OutcomeOK, outcomeOf(nil))
	assert.Equal(t, metrics.OutcomeNetwork, outcomeOf(&dextools.NetworkError{Err: context.Canceled}))
	assert.Equal(t, metrics.OutcomeHTTP, outcomeOf(&dextools.HTTPError{StatusCode: 500}))
	assert.Equal(t, metrics.OutcomeSchema, outcomeOf(&dextools.SchemaError{Reason: "x"}))
	assert.Equal(t, metrics.OutcomeOther, outcomeOf(errors.New("boom")))
}
