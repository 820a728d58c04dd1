package progress

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hellovoter/hellovoter/internal/services/canvass/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const period = 666 * time.Millisecond

func newObserved(t *testing.T, maxTicks int) (*Simulator, *clockwork.FakeClock, chan domain.ProgressState) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	seen := make(chan domain.ProgressState, 256)
	sim := New(Config{
		Clock:    clock,
		Period:   period,
		MaxTicks: maxTicks,
		Observe:  func(state domain.ProgressState) { seen <- state },
	})
	t.Cleanup(sim.Stop)
	return sim, clock, seen
}

func waitTicker(t *testing.T, clock *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
}

func nextState(t *testing.T, seen <-chan domain.ProgressState) domain.ProgressState {
	t.Helper()
	select {
	case state := <-seen:
		return state
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
		return domain.ProgressState{}
	}
}

func TestSimulatorTicksOnPeriod(t *testing.T) {
	sim, clock, seen := newObserved(t, 100)
	sim.Start()
	require.Equal(t, domain.ProgressState{MaxTicks: 100, Active: true}, sim.State())
	waitTicker(t, clock)

	for want := 1; want <= 3; want++ {
		clock.Advance(period)
		state := nextState(t, seen)
		require.Equal(t, want, state.Tick)
	}
	require.Equal(t, 3, sim.State().Tick)
}

func TestSimulatorSaturates(t *testing.T) {
	sim, clock, seen := newObserved(t, 2)
	sim.Start()
	waitTicker(t, clock)

	clock.Advance(period)
	nextState(t, seen)
	clock.Advance(period)
	state := nextState(t, seen)
	require.True(t, state.Saturated())

	require.Equal(t, 2, sim.Tick().Tick)
	require.Equal(t, 1.0, sim.State().Fraction())
}

func TestSimulatorStopIsIdempotent(t *testing.T) {
	sim, clock, seen := newObserved(t, 100)
	sim.Start()
	waitTicker(t, clock)
	clock.Advance(period)
	nextState(t, seen)

	sim.Stop()
	sim.Stop()

	state := sim.State()
	require.False(t, state.Active)
	require.Equal(t, 1, state.Tick)

	clock.Advance(period)
	require.Equal(t, 1, sim.Tick().Tick)
}

func TestSimulatorRestartResetsCounter(t *testing.T) {
	sim, clock, seen := newObserved(t, 100)
	sim.Start()
	waitTicker(t, clock)
	clock.Advance(period)
	clock.Advance(period)
	nextState(t, seen)

	sim.Start()
	require.Equal(t, 0, sim.State().Tick)
	require.True(t, sim.State().Active)
}

func TestNewAppliesDefaults(t *testing.T) {
	sim := New(Config{})
	require.Equal(t, 100, sim.State().MaxTicks)
	require.Equal(t, period, sim.period)
	sim.Stop()
}
