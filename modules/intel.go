package modules

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"baseintel/pkg/metrics"
)

// ErrInvalidTokenID is returned for identifiers that are not EVM addresses.
var ErrInvalidTokenID = errors.New("invalid token address")

const intelUsage = "Usage: intel [token_address]. Example: intel 0x4200000000000000000000000000000000000006"

// Report is the rendered answer to one intel query.
type Report struct {
	Token string
	Text  string
	Links []ActionLink
}

// Service answers intel queries: gather, normalize, render.
type Service struct {
	orchestrator *Orchestrator
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	started      time.Time

	inFlight atomic.Int64
	served   atomic.Int64
	failed   atomic.Int64
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	gatherTimeout time.Duration
	logger        zerolog.Logger
	metrics       *metrics.Metrics
}

// WithGatherTimeout sets the overall deadline of one gather.
func WithGatherTimeout(d time.Duration) ServiceOption {
	return func(c *serviceConfig) {
		c.gatherTimeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

// NewService creates a Service on top of fetcher.
func NewService(fetcher Fetcher, opts ...ServiceOption) *Service {
	cfg := serviceConfig{
		gatherTimeout: DefaultGatherTimeout,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Service{
		orchestrator: NewOrchestrator(fetcher, cfg.gatherTimeout, cfg.logger, cfg.metrics),
		logger:       cfg.logger.With().Str("component", "intel").Logger(),
		metrics:      cfg.metrics,
		started:      time.Now(),
	}
}

// ParseTokenID validates a token address and returns it in lowercase
// 0x-prefixed form.
func ParseTokenID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTokenID, s)
	}
	return strings.ToLower(common.HexToAddress(s).Hex()), nil
}

// Report produces the intel report for a token. Only ErrInvalidTokenID and
// ErrAllEndpointsFailed are returned; any other upstream failure degrades
// the report instead.
func (s *Service) Report(ctx context.Context, rawTokenID string) (Report, error) {
	tokenID, err := ParseTokenID(rawTokenID)
	if err != nil {
		return Report{}, err
	}

	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	start := time.Now()

	agg, err := s.orchestrator.Gather(ctx, tokenID)
	if err != nil {
		s.failed.Add(1)
		s.metrics.ObserveReport(metrics.ResultFailed, time.Since(start))
		s.logger.Error().Str("token", tokenID).Err(err).Msg("no data for token")
		return Report{}, err
	}

	rec := Normalize(agg)
	text, links := Render(rec, tokenID)

	s.served.Add(1)
	s.metrics.ObserveReport(metrics.ResultOK, time.Since(start))
	s.logger.Info().
		Str("token", tokenID).
		Int("fragments", len(agg.Fragments)).
		Dur("took", time.Since(start)).
		Msg("report rendered")

	return Report{Token: tokenID, Text: text, Links: links}, nil
}

// ActiveReports returns the number of reports being built right now.
func (s *Service) ActiveReports() int {
	return int(s.inFlight.Load())
}

// ReportsServed returns the number of reports rendered since start.
func (s *Service) ReportsServed() int64 {
	return s.served.Load()
}

// ReportsFailed returns the number of queries that ended without a report.
func (s *Service) ReportsFailed() int64 {
	return s.failed.Load()
}

// Uptime returns the time since the service was created.
func (s *Service) Uptime() time.Duration {
	return time.Since(s.started)
}

// RunIntel is the command entry used by the agent.
func RunIntel(ctx context.Context, svc *Service, args []string) (string, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return intelUsage, nil
	}

	rep, err := svc.Report(ctx, args[0])
	switch {
	case errors.Is(err, ErrInvalidTokenID):
		return fmt.Sprintf("Invalid token address %q.\n%s", strings.TrimSpace(args[0]), intelUsage), nil
	case errors.Is(err, ErrAllEndpointsFailed):
		return fmt.Sprintf("Could not fetch any data for %s right now. Please try again later.", strings.TrimSpace(args[0])), nil
	case err != nil:
		return "", err
	}

	return rep.Text + "\n" + FormatActionLinks(rep.Links), nil
}
