package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hellovoter/hellovoter/internal/platform/config"
	"github.com/hellovoter/hellovoter/internal/platform/otel"
)

const defaultOTelShutdownTimeout = 5 * time.Second

// Command identifiers for startup telemetry and CLI naming consistency.
const (
	CommandJoin         = "join"
	CommandCampaigns    = "campaigns"
	CommandToken        = "token"
	CommandStatus       = "status"
	CommandImportLegacy = "import-legacy"
	CommandInvite       = "invite"
)

// RunOptions controls shared entrypoint behavior for commands.
type RunOptions struct {
	// ShutdownTimeout sets the timeout used when stopping telemetry.
	ShutdownTimeout time.Duration
	// Logger receives telemetry shutdown failures. Nil discards them.
	Logger *zap.Logger
}

// ParseConfig loads environment defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// RunWithTelemetry configures tracing and executes a command body.
func RunWithTelemetry(ctx context.Context, command string, settings otel.Settings, run func(context.Context) error) error {
	return RunWithTelemetryAndOptions(ctx, command, settings, RunOptions{}, run)
}

// RunWithTelemetryAndOptions configures tracing and executes a command body.
func RunWithTelemetryAndOptions(ctx context.Context, command string, settings otel.Settings, options RunOptions, run func(context.Context) error) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return fmt.Errorf("command name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	shutdown, err := otel.Setup(ctx, "hellovoter-"+command, settings)
	if err != nil {
		return err
	}
	defer func() {
		shutdownTimeout := options.ShutdownTimeout
		if shutdownTimeout <= 0 {
			shutdownTimeout = defaultOTelShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("otel shutdown", zap.String("command", command), zap.Error(err))
		}
	}()
	return run(ctx)
}
