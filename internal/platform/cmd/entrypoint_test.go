package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/hellovoter/hellovoter/internal/platform/otel"
)

type testConfig struct {
	Server string `env:"CMD_TEST_SERVER" envDefault:"gotv-ca.ourvoiceusa.org"`
	Mode   string `env:"CMD_TEST_MODE" envDefault:"join"`
}

func TestParseConfigReadsEnv(t *testing.T) {
	t.Setenv("HELLOVOTER_CMD_TEST_SERVER", "localhost:8080")

	cfg := testConfig{}
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	if cfg.Server != "localhost:8080" {
		t.Fatalf("server = %q, want %q", cfg.Server, "localhost:8080")
	}
	if cfg.Mode != "join" {
		t.Fatalf("mode = %q, want default %q", cfg.Mode, "join")
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected parse config to reject nil target")
	}
}

func TestRunWithTelemetryValidatesInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), " ", otel.Settings{}, func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected error for empty command")
	}
	if err := RunWithTelemetry(context.Background(), CommandJoin, otel.Settings{}, nil); err == nil {
		t.Fatal("expected error for nil run")
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	want := errors.New("boom")
	err := RunWithTelemetry(context.Background(), CommandJoin, otel.Settings{}, func(context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
