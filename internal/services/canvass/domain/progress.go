package domain

// ProgressState is the simulated "still working" indicator shown while the
// server reports it is at capacity. It carries no information about the
// real queue position.
type ProgressState struct {
	Tick     int
	MaxTicks int
	Active   bool
}

// Saturated reports whether the indicator ran out of ticks and should be
// shown as indeterminate.
func (p ProgressState) Saturated() bool {
	return p.MaxTicks > 0 && p.Tick >= p.MaxTicks
}

// Fraction returns Tick/MaxTicks in [0,1].
func (p ProgressState) Fraction() float64 {
	if p.MaxTicks <= 0 {
		return 0
	}
	if p.Tick >= p.MaxTicks {
		return 1
	}
	return float64(p.Tick) / float64(p.MaxTicks)
}
