package domain

// OutcomeKind tags the single result of an admission run.
type OutcomeKind int

const (
	OutcomeAdmitted OutcomeKind = iota
	OutcomeAwaitingAssignment
	// OutcomeCapacity is the non-terminal waiting state; a run never
	// returns it but presenters render it while the loop waits.
	OutcomeCapacity
	OutcomeUnauthorized
	OutcomeBlocked
	OutcomeOutOfHours
	OutcomeNetworkFailure
	OutcomeInvalidTarget
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAdmitted:
		return "admitted"
	case OutcomeAwaitingAssignment:
		return "awaiting_assignment"
	case OutcomeCapacity:
		return "capacity"
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeOutOfHours:
		return "out_of_hours"
	case OutcomeNetworkFailure:
		return "network_failure"
	case OutcomeInvalidTarget:
		return "invalid_target"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of one admission run.
//
// Forms and IsAdministrator are set for OutcomeAdmitted. Code carries the
// server status for OutcomeBlocked and, when one was seen, for
// OutcomeNetworkFailure. Err explains invalid targets and fetch failures.
type Outcome struct {
	Kind            OutcomeKind
	Target          ResolvedTarget
	Forms           []Form
	IsAdministrator bool
	Code            int
	Attempts        int
	Err             error
}

// Joined reports whether the server accepted the volunteer, with or
// without assignments.
func (o Outcome) Joined() bool {
	return o.Kind == OutcomeAdmitted || o.Kind == OutcomeAwaitingAssignment
}
