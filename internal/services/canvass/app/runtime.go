package app

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/hellovoter/hellovoter/internal/platform/logging"
	"github.com/hellovoter/hellovoter/internal/platform/timeouts"
	"github.com/hellovoter/hellovoter/internal/services/canvass/admission"
	"github.com/hellovoter/hellovoter/internal/services/canvass/assignment"
	"github.com/hellovoter/hellovoter/internal/services/canvass/cache"
	"github.com/hellovoter/hellovoter/internal/services/canvass/credential"
	"github.com/hellovoter/hellovoter/internal/services/canvass/discovery"
	"github.com/hellovoter/hellovoter/internal/services/canvass/domain"
	"github.com/hellovoter/hellovoter/internal/services/canvass/progress"
	"github.com/hellovoter/hellovoter/internal/services/canvass/storage/sqlite"
	"github.com/hellovoter/hellovoter/internal/services/canvass/transport"
)

// Options configures a Runtime. Zero durations take the protocol defaults.
type Options struct {
	DBPath          string
	BaseURL         string
	HTTPTimeout     time.Duration
	RetryDelay      time.Duration
	MaxAttempts     int
	ProgressPeriod  time.Duration
	OutOfHoursGrace time.Duration
	DeviceInfo      map[string]any
	// OnProgress observes the capacity wait indicator.
	OnProgress func(domain.ProgressState)
	Clock      clockwork.Clock
	Logger     *zap.Logger
}

// Runtime holds the wired client. Close releases the store.
type Runtime struct {
	Store       *sqlite.Store
	Cache       *cache.Cache
	Credentials *credential.Gate
	Client      *transport.Client
	Progress    *progress.Simulator
	Protocol    *admission.Protocol
	Discovery   *discovery.Service
}

// Open wires a runtime over the sqlite store at opts.DBPath.
func Open(opts Options) (*Runtime, error) {
	if opts.DBPath == "" {
		return nil, errors.New("db path is required")
	}
	if dir := filepath.Dir(opts.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	store, err := sqlite.Open(opts.DBPath)
	if err != nil {
		return nil, err
	}

	logger := logging.OrNop(opts.Logger)
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	httpTimeout := opts.HTTPTimeout
	if httpTimeout <= 0 {
		httpTimeout = timeouts.HTTPRequest
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = timeouts.RetryDelay
	}
	grace := opts.OutOfHoursGrace
	if grace <= 0 {
		grace = timeouts.OutOfHoursGrace
	}

	campaigns := cache.New(store, logger.Named("cache"))
	gate := credential.NewGate(store, clock, logger.Named("credential"))
	client := transport.NewClient(transport.Options{
		HTTPClient: &http.Client{Timeout: httpTimeout},
		BaseURL:    opts.BaseURL,
	})
	simulator := progress.New(progress.Config{
		Clock:   clock,
		Period:  opts.ProgressPeriod,
		Observe: opts.OnProgress,
	})
	protocol := admission.New(admission.Config{
		Handshaker:      client,
		Credentials:     gate,
		Campaigns:       campaigns,
		Assignments:     assignment.NewFetcher(client, logger.Named("assignment")),
		Progress:        simulator,
		Clock:           clock,
		Backoff:         backoff.NewConstantBackOff(retryDelay),
		MaxAttempts:     opts.MaxAttempts,
		OutOfHoursGrace: grace,
		DeviceInfo:      opts.DeviceInfo,
		Logger:          logger.Named("admission"),
	})

	return &Runtime{
		Store:       store,
		Cache:       campaigns,
		Credentials: gate,
		Client:      client,
		Progress:    simulator,
		Protocol:    protocol,
		Discovery:   discovery.NewService(store, client, gate, campaigns, logger.Named("discovery")),
	}, nil
}

// Close stops the simulator and closes the store.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	r.Progress.Stop()
	return r.Store.Close()
}
