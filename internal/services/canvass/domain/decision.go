package domain

// DecisionKind tags what the admission loop does with one handshake status.
type DecisionKind int

const (
	// DecisionProceed ends the loop successfully (200).
	DecisionProceed DecisionKind = iota
	// DecisionRetry spends the run's single transient-error allowance and
	// retries after the delay.
	DecisionRetry
	// DecisionRetryExcused retries after the delay without touching the
	// transient allowance (capacity, 418).
	DecisionRetryExcused
	// DecisionTerminalUnauthorized discards the credential and stops (401).
	DecisionTerminalUnauthorized
	// DecisionTerminalBusiness stops with the status preserved for display.
	DecisionTerminalBusiness
	// DecisionExhaust stops as a network failure: a second transient error.
	DecisionExhaust
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionProceed:
		return "proceed"
	case DecisionRetry:
		return "retry"
	case DecisionRetryExcused:
		return "retry_excused"
	case DecisionTerminalUnauthorized:
		return "terminal_unauthorized"
	case DecisionTerminalBusiness:
		return "terminal_business"
	case DecisionExhaust:
		return "exhaust"
	default:
		return "unknown"
	}
}

// Decision is the classification of one handshake status.
type Decision struct {
	Kind   DecisionKind
	Status int
}

// Terminal reports whether the loop stops on this decision.
func (d Decision) Terminal() bool {
	switch d.Kind {
	case DecisionRetry, DecisionRetryExcused:
		return false
	default:
		return true
	}
}

// RetryState tracks the admission loop's budget within one run.
type RetryState struct {
	Attempt                  int
	MaxAttempts              int
	SkippedOneTransientError bool
}

// NewRetryState returns a fresh budget of maxAttempts.
func NewRetryState(maxAttempts int) RetryState {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryState{MaxAttempts: maxAttempts}
}

// Begin records the start of one more attempt. It returns false when the
// budget is spent, leaving Attempt at MaxAttempts.
func (s *RetryState) Begin() bool {
	if s.Attempt >= s.MaxAttempts {
		return false
	}
	s.Attempt++
	return true
}

// Classify maps a handshake status to a decision and updates the transient
// allowance. It is the only place status semantics live.
func (s *RetryState) Classify(status int) Decision {
	switch {
	case status == StatusOK:
		return Decision{Kind: DecisionProceed, Status: status}
	case status == StatusUnauthorized:
		return Decision{Kind: DecisionTerminalUnauthorized, Status: status}
	case status == StatusAtCapacity:
		return Decision{Kind: DecisionRetryExcused, Status: status}
	case status >= StatusTransientMinimum:
		if s.SkippedOneTransientError {
			return Decision{Kind: DecisionExhaust, Status: status}
		}
		s.SkippedOneTransientError = true
		return Decision{Kind: DecisionRetry, Status: status}
	default:
		return Decision{Kind: DecisionTerminalBusiness, Status: status}
	}
}
