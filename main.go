// main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/TeneoProtocolAI/teneo-agent-sdk/pkg/agent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"baseintel/modules"
	"baseintel/pkg/config"
	"baseintel/pkg/dextools"
	"baseintel/pkg/health"
	"baseintel/pkg/metrics"
	"baseintel/pkg/version"
)

const (
	agentName        = "Base Token Intel"
	agentDescription = "Base Token Intel builds a one-shot intelligence report for any Base token: market data, holders, locks, pool price and contract audit."
	commandList      = "intel [token_address], help"
)

var capabilities = []string{
	"token-intel",
	"market-data",
	"contract-audit",
	"liquidity-locks",
	"pool-price",
}

// IntelAgent routes chat commands to the report service.
type IntelAgent struct {
	service *modules.Service
	logger  zerolog.Logger
}

func (a *IntelAgent) ProcessTask(ctx context.Context, task string) (string, error) {
	a.logger.Debug().Str("task", task).Msg("processing task")

	task = strings.TrimSpace(task)
	task = strings.TrimPrefix(task, "/")
	parts := strings.Fields(task)
	if len(parts) == 0 {
		return "No command provided. Available commands: " + commandList, nil
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "intel", "scan":
		return modules.RunIntel(ctx, a.service, args)
	case "help":
		return "Available commands: " + commandList, nil
	default:
		return fmt.Sprintf("Unknown command '%s'. Available commands: %s", cmd, commandList), nil
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.LogLevel)
	logger.Info().Str("version", version.GetFullVersionString()).Str("chain", cfg.Chain).Msg("starting")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("", reg)

	client := dextools.NewClient(cfg.APIKey,
		dextools.WithBaseURL(cfg.BaseURL),
		dextools.WithChain(cfg.Chain),
		dextools.WithRequestTimeout(cfg.RequestTimeout),
		dextools.WithLogger(logger),
	)
	service := modules.NewService(client,
		modules.WithGatherTimeout(cfg.GatherTimeout),
		modules.WithLogger(logger),
		modules.WithMetrics(m),
	)

	healthServer := health.NewServer(cfg.HealthPort, &health.AgentInfo{
		Name:         agentName,
		Version:      version.Version(),
		Chain:        cfg.Chain,
		Capabilities: capabilities,
		Description:  agentDescription,
	}, service, reg, logger)
	go func() {
		if err := healthServer.Start(); err != nil {
			logger.Error().Err(err).Msg("health server stopped")
		}
	}()

	agentConfig := agent.DefaultConfig()
	agentConfig.Name = agentName
	agentConfig.Description = agentDescription
	agentConfig.Capabilities = capabilities
	agentConfig.PrivateKey = cfg.PrivateKey
	agentConfig.NFTTokenID = cfg.NFTTokenID
	agentConfig.OwnerAddress = cfg.OwnerAddress
	agentConfig.RateLimitPerMinute = cfg.RateLimitPerMinute

	enhancedAgent, err := agent.NewEnhancedAgent(&agent.EnhancedAgentConfig{
		Config:       agentConfig,
		AgentHandler: &IntelAgent{service: service, logger: logger},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("agent.NewEnhancedAgent")
	}

	logger.Info().Msg("starting agent")
	go enhancedAgent.Run()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthServer.Stop(ctx); err != nil {
		logger.Warn().Err(err).Msg("health server shutdown")
	}
}
