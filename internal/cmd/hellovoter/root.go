// Package hellovoter implements the hellovoter command line client.
package hellovoter

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hellovoter/hellovoter/internal/platform/logging"
	"github.com/hellovoter/hellovoter/internal/services/canvass/app"
	"github.com/hellovoter/hellovoter/internal/services/canvass/domain"
	"github.com/hellovoter/hellovoter/internal/services/canvass/messages"
)

// ExitError carries a non-zero process status for a result that was
// already reported to the user.
type ExitError struct {
	Code   int
	Reason string
}

func (e *ExitError) Error() string {
	return e.Reason
}

// Exit statuses of the join command.
const (
	ExitInvalidTarget  = 2
	ExitUnauthorized   = 3
	ExitBlocked        = 4
	ExitOutOfHours     = 5
	ExitNetworkFailure = 6
)

// cli carries the state shared by all subcommands of one invocation.
type cli struct {
	cfg    Config
	out    io.Writer
	errOut io.Writer
}

// NewRootCommand builds the hellovoter command tree over cfg.
func NewRootCommand(cfg Config, out io.Writer, errOut io.Writer) *cobra.Command {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	c := &cli{cfg: cfg, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "hellovoter",
		Short:         "Join canvassing campaigns from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfg.DBPath, "db", c.cfg.DBPath, "path to the local sqlite store")
	flags.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&c.cfg.Locale, "locale", c.cfg.Locale, "language for messages (en-US, es)")

	root.AddCommand(
		c.joinCommand(),
		c.campaignsCommand(),
		c.tokenCommand(),
		c.statusCommand(),
		c.importLegacyCommand(),
		c.inviteCommand(),
	)
	return root
}

func (c *cli) logger() (*zap.Logger, error) {
	logger, err := logging.New(c.cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

func (c *cli) presenter() *messages.Presenter {
	return messages.NewPresenter(c.cfg.Locale)
}

// withRuntime opens the runtime for one command body and closes it after.
func (c *cli) withRuntime(ctx context.Context, onProgress func(domain.ProgressState), run func(context.Context, *app.Runtime) error) error {
	logger, err := c.logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	device, err := app.LoadDevice(c.cfg.DeviceFile)
	if err != nil {
		return err
	}
	rt, err := app.Open(app.Options{
		DBPath:          c.cfg.DBPath,
		BaseURL:         c.cfg.BaseURL,
		HTTPTimeout:     c.cfg.HTTPTimeout,
		RetryDelay:      c.cfg.RetryDelay,
		MaxAttempts:     c.cfg.MaxAttempts,
		ProgressPeriod:  c.cfg.ProgressPeriod,
		OutOfHoursGrace: c.cfg.OutOfHoursGrace,
		DeviceInfo:      device,
		OnProgress:      onProgress,
		Logger:          logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("close runtime", zap.Error(err))
		}
	}()
	return run(ctx, rt)
}
