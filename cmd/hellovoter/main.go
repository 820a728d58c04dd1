// Package main starts the hellovoter command line client.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/hellovoter/hellovoter/internal/cmd/hellovoter"
	"github.com/hellovoter/hellovoter/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := hellovoter.LoadConfig()
	if err != nil {
		config.Exitf("hellovoter: %v", err)
	}
	if err := hellovoter.NewRootCommand(cfg, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		stop()
		var exitErr *hellovoter.ExitError
		if errors.As(err, &exitErr) {
			config.ExitCode(exitErr.Code, "")
		}
		config.Exitf("hellovoter: %v", err)
	}
}
