package modules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"baseintel/pkg/dextools"
	"baseintel/pkg/metrics"
)

var (
	// ErrNoPoolFound is returned when a token has no listed pool or the
	// pool list could not be fetched.
	ErrNoPoolFound = errors.New("no pool found")

	// ErrAllEndpointsFailed is returned when not a single fragment was
	// collected for a token.
	ErrAllEndpointsFailed = errors.New("all endpoints failed")
)

// DefaultGatherTimeout bounds one Gather call, pool resolution included.
const DefaultGatherTimeout = 25 * time.Second

// Fetcher performs one upstream call. *dextools.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, id string, ep dextools.Endpoint) (dextools.Fragment, error)
}

// tokenEndpoints are fetched concurrently for every token.
var tokenEndpoints = []dextools.Endpoint{
	dextools.TokenInfo,
	dextools.TokenPrice,
	dextools.TokenMarket,
	dextools.TokenAudit,
	dextools.TokenLocks,
}

// Aggregate holds the fragments collected for one token. Endpoints that
// failed have no entry.
type Aggregate struct {
	Token     string
	Fragments map[dextools.Endpoint]dextools.Fragment
}

func newAggregate(token string) *Aggregate {
	return &Aggregate{
		Token:     token,
		Fragments: make(map[dextools.Endpoint]dextools.Fragment, len(tokenEndpoints)+1),
	}
}

// Get returns the fragment for ep, if it was collected.
func (a *Aggregate) Get(ep dextools.Endpoint) (dextools.Fragment, bool) {
	f, ok := a.Fragments[ep]
	return f, ok
}

// Orchestrator fans out the token-level fetches and resolves the pool price.
type Orchestrator struct {
	fetcher Fetcher
	timeout time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewOrchestrator creates an orchestrator. A zero timeout disables the
// overall deadline.
func NewOrchestrator(fetcher Fetcher, timeout time.Duration, logger zerolog.Logger, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		fetcher: fetcher,
		timeout: timeout,
		logger:  logger.With().Str("component", "orchestrator").Logger(),
		metrics: m,
	}
}

type fetchResult struct {
	ep   dextools.Endpoint
	frag dextools.Fragment
	err  error
}

// Gather fetches all token endpoints in parallel, waits for every one of
// them, then resolves the pool price. Individual failures only leave gaps;
// ErrAllEndpointsFailed is returned when nothing at all was collected.
func (o *Orchestrator) Gather(ctx context.Context, tokenID string) (*Aggregate, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	// Each goroutine owns one slot; the merge below runs after Wait.
	results := make([]fetchResult, len(tokenEndpoints))
	var g errgroup.Group
	for i, ep := range tokenEndpoints {
		g.Go(func() error {
			results[i] = o.fetch(ctx, tokenID, ep)
			return nil
		})
	}
	_ = g.Wait()

	agg := newAggregate(tokenID)
	for _, r := range results {
		if r.err != nil {
			continue
		}
		agg.Fragments[r.ep] = r.frag
	}

	pool, err := o.ResolvePool(ctx, tokenID)
	switch {
	case err == nil:
		agg.Fragments[dextools.PoolPrice] = pool
	case errors.Is(err, ErrNoPoolFound):
		o.logger.Info().Str("token", tokenID).Err(err).Msg("pool price unavailable")
	default:
		o.logger.Warn().Str("token", tokenID).Err(err).Msg("pool price fetch failed")
	}

	if len(agg.Fragments) == 0 {
		return nil, fmt.Errorf("gather %s: %w", tokenID, ErrAllEndpointsFailed)
	}

	o.logger.Debug().
		Str("token", tokenID).
		Int("fragments", len(agg.Fragments)).
		Msg("gather complete")

	return agg, nil
}

// ResolvePool lists the token's pools, picks the first one listed and
// fetches its price.
func (o *Orchestrator) ResolvePool(ctx context.Context, tokenID string) (dextools.Fragment, error) {
	pools := o.fetch(ctx, tokenID, dextools.TokenPools)
	if pools.err != nil {
		return dextools.Fragment{}, fmt.Errorf("%w: %v", ErrNoPoolFound, pools.err)
	}

	address, ok := firstPoolAddress(pools.frag.Data)
	if !ok {
		return dextools.Fragment{}, fmt.Errorf("token %s: %w", tokenID, ErrNoPoolFound)
	}
	o.logger.Debug().Str("token", tokenID).Str("pool", address).Msg("pool selected")

	price := o.fetch(ctx, address, dextools.PoolPrice)
	if price.err != nil {
		return dextools.Fragment{}, price.err
	}
	return price.frag, nil
}

func (o *Orchestrator) fetch(ctx context.Context, id string, ep dextools.Endpoint) fetchResult {
	start := time.Now()
	frag, err := o.fetcher.Fetch(ctx, id, ep)
	o.metrics.ObserveUpstream(ep.String(), outcomeOf(err), time.Since(start))

	if err != nil {
		o.logger.Warn().
			Str("endpoint", ep.String()).
			Str("id", id).
			Err(err).
			Msg("endpoint failed")
	}
	return fetchResult{ep: ep, frag: frag, err: err}
}

// firstPoolAddress returns results[0].address without any ranking.
func firstPoolAddress(data map[string]any) (string, bool) {
	v, ok := lookup(data, "results")
	if !ok {
		return "", false
	}
	pools, ok := v.([]any)
	if !ok || len(pools) == 0 {
		return "", false
	}
	first, ok := pools[0].(map[string]any)
	if !ok {
		return "", false
	}
	address := textAt(first, "address")
	return address.String, address.Valid
}

func outcomeOf(err error) string {
	var (
		netErr    *dextools.NetworkError
		httpErr   *dextools.HTTPError
		schemaErr *dextools.SchemaError
	)
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &netErr):
		return metrics.OutcomeNetwork
	case errors.As(err, &httpErr):
		return metrics.OutcomeHTTP
	case errors.As(err, &schemaErr):
		return metrics.OutcomeSchema
	default:
		return metrics.OutcomeOther
	}
}
