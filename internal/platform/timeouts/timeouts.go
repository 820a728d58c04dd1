// Package timeouts defines shared timing constants for the admission client.
// Keeping them in one place makes the protocol pacing discoverable.
package timeouts

import "time"

// HTTPRequest caps a single handshake or form request.
const HTTPRequest = 30 * time.Second

// RetryDelay spaces admission attempts after a capacity or transient status.
const RetryDelay = 12345 * time.Millisecond

// ProgressPeriod is the interval between simulated progress ticks.
const ProgressPeriod = 666 * time.Millisecond

// OutOfHoursGrace delays surfacing an out-of-hours result after a successful
// handshake so a UI does not flicker between states.
const OutOfHoursGrace = 600 * time.Millisecond

// ProgressMaxTicks bounds the simulated progress indicator. It also sets the
// admission budget: one attempt per ten ticks.
const ProgressMaxTicks = 100
