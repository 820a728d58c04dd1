// Package progress drives the simulated "still working" indicator shown
// while a campaign server reports it is at capacity.
package progress

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hellovoter/hellovoter/internal/platform/timeouts"
	"github.com/hellovoter/hellovoter/internal/services/canvass/domain"
)

// Config controls a Simulator. Zero fields take the package defaults.
type Config struct {
	Clock    clockwork.Clock
	Period   time.Duration
	MaxTicks int
	// Observe receives every state change from the ticker goroutine.
	Observe func(domain.ProgressState)
}

// Simulator advances a bounded counter on a fixed period. The counter says
// nothing about the real queue; it only shows the client is alive.
type Simulator struct {
	clock    clockwork.Clock
	period   time.Duration
	maxTicks int
	observe  func(domain.ProgressState)

	// lifecycle serializes Start and Stop; mu guards state and is the only
	// lock the ticker goroutine takes.
	lifecycle sync.Mutex
	mu        sync.Mutex
	state     domain.ProgressState
	stop      chan struct{}
	done      chan struct{}
}

// New builds an idle simulator.
func New(cfg Config) *Simulator {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Period <= 0 {
		cfg.Period = timeouts.ProgressPeriod
	}
	if cfg.MaxTicks <= 0 {
		cfg.MaxTicks = timeouts.ProgressMaxTicks
	}
	return &Simulator{
		clock:    cfg.Clock,
		period:   cfg.Period,
		maxTicks: cfg.MaxTicks,
		observe:  cfg.Observe,
		state:    domain.ProgressState{MaxTicks: cfg.MaxTicks},
	}
}

// Start resets the counter to zero and begins ticking. A running ticker is
// stopped first.
func (s *Simulator) Start() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.halt()

	stop := make(chan struct{})
	done := make(chan struct{})
	s.mu.Lock()
	s.state = domain.ProgressState{MaxTicks: s.maxTicks, Active: true}
	s.stop, s.done = stop, done
	s.mu.Unlock()

	ticker := s.clock.NewTicker(s.period)
	go s.run(ticker, stop, done)
}

// Stop cancels the pending tick and waits for the ticker goroutine to exit.
// The last counter value is kept. Stop is idempotent.
func (s *Simulator) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.halt()
}

// Tick advances the counter by one, saturating at the maximum. It is a
// no-op while the simulator is stopped.
func (s *Simulator) Tick() domain.ProgressState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Active && s.state.Tick < s.state.MaxTicks {
		s.state.Tick++
	}
	return s.state
}

// State returns a snapshot of the counter.
func (s *Simulator) State() domain.ProgressState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Simulator) halt() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.state.Active = false
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (s *Simulator) run(ticker clockwork.Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			state := s.Tick()
			if s.observe != nil {
				s.observe(state)
			}
			if state.Saturated() {
				return
			}
		}
	}
}
