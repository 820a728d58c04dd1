// Package messages renders admission results as user-facing text.
package messages

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hellovoter/hellovoter/internal/platform/i18n/catalog"
	"github.com/hellovoter/hellovoter/internal/services/canvass/domain"
)

var (
	supported = catalog.Default().Tags()
	matcher   = language.NewMatcher(supported)
)

// Presenter formats outcomes in one locale.
type Presenter struct {
	printer *message.Printer
}

// NewPresenter picks the closest supported locale to the requested one
// (for example "es-MX" or "en"), defaulting to the base locale.
func NewPresenter(locale string) *Presenter {
	_, index := language.MatchStrings(matcher, locale)
	return &Presenter{printer: message.NewPrinter(supported[index])}
}

// Outcome describes the result of an admission run.
func (p *Presenter) Outcome(outcome domain.Outcome) string {
	campaign := outcome.Target.Host
	if outcome.Target.OrgID != "" {
		campaign = outcome.Target.OrgID
	}
	switch outcome.Kind {
	case domain.OutcomeAdmitted:
		if outcome.IsAdministrator {
			return p.printer.Sprintf("outcome.admitted_admin", campaign, len(outcome.Forms))
		}
		return p.printer.Sprintf("outcome.admitted", campaign, len(outcome.Forms))
	case domain.OutcomeAwaitingAssignment:
		return p.printer.Sprintf("outcome.awaiting_assignment", campaign)
	case domain.OutcomeUnauthorized:
		return p.printer.Sprintf("outcome.unauthorized")
	case domain.OutcomeBlocked:
		return p.Blocked(outcome.Code)
	case domain.OutcomeOutOfHours:
		return p.printer.Sprintf("outcome.out_of_hours")
	case domain.OutcomeNetworkFailure:
		if outcome.Code != 0 {
			return p.printer.Sprintf("outcome.network_failure_status", outcome.Code)
		}
		return p.printer.Sprintf("outcome.network_failure")
	case domain.OutcomeInvalidTarget:
		return p.printer.Sprintf("outcome.invalid_target")
	default:
		return outcome.Kind.String()
	}
}

// Blocked describes a business-rule status from the campaign server.
func (p *Presenter) Blocked(code int) string {
	switch code {
	case domain.StatusQuotaExceeded:
		return p.printer.Sprintf("blocked.402")
	case domain.StatusLockedOut:
		return p.printer.Sprintf("blocked.403")
	case domain.StatusOutOfHours:
		return p.printer.Sprintf("blocked.409")
	case domain.StatusSuspended:
		return p.printer.Sprintf("blocked.410")
	case domain.StatusOverCapacity:
		return p.printer.Sprintf("blocked.420")
	case domain.StatusGeoRestricted:
		return p.printer.Sprintf("blocked.451")
	default:
		return p.printer.Sprintf("blocked.other", code)
	}
}

// Progress describes the capacity wait indicator. A saturated indicator is
// shown without a percentage.
func (p *Presenter) Progress(state domain.ProgressState) string {
	if state.Saturated() {
		return p.printer.Sprintf("outcome.capacity_indeterminate")
	}
	return p.printer.Sprintf("outcome.capacity", int(state.Fraction()*100))
}
