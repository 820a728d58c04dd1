package messages

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hellovoter/hellovoter/internal/services/canvass/domain"
)

func TestOutcomeEnglish(t *testing.T) {
	p := NewPresenter("en-US")
	target := domain.ResolvedTarget{Host: "gotv-ca.ourvoiceusa.org", OrgID: "CA42"}

	cases := []struct {
		outcome domain.Outcome
		want    string
	}{
		{
			outcome: domain.Outcome{Kind: domain.OutcomeAdmitted, Target: target, Forms: []domain.Form{{ID: "a"}, {ID: "b"}}},
			want:    "Joined CA42. 2 assignment(s) ready.",
		},
		{
			outcome: domain.Outcome{Kind: domain.OutcomeAwaitingAssignment, Target: domain.ResolvedTarget{Host: "canvass.example.org"}},
			want:    "Joined canvass.example.org. No assignments are ready yet; check back later.",
		},
		{
			outcome: domain.Outcome{Kind: domain.OutcomeBlocked, Code: 451},
			want:    "This app is only intended to be used in the USA.",
		},
		{
			outcome: domain.Outcome{Kind: domain.OutcomeBlocked, Code: 499},
			want:    "The campaign server refused the request (499). Please try again.",
		},
		{
			outcome: domain.Outcome{Kind: domain.OutcomeNetworkFailure, Code: 502},
			want:    "The campaign server had a problem (502). Please try again later.",
		},
		{
			outcome: domain.Outcome{Kind: domain.OutcomeNetworkFailure},
			want:    "Could not reach the campaign server. Please try again later.",
		},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, p.Outcome(tc.outcome))
	}
}

func TestPresenterMatchesRegionalLocale(t *testing.T) {
	p := NewPresenter("es-MX")
	require.Equal(t, "Ese código de organización o servidor no es válido.",
		p.Outcome(domain.Outcome{Kind: domain.OutcomeInvalidTarget}))
}

func TestPresenterFallsBackToEnglish(t *testing.T) {
	p := NewPresenter("de-DE")
	require.Equal(t, "That organization code or server is not valid.",
		p.Outcome(domain.Outcome{Kind: domain.OutcomeInvalidTarget}))
}

func TestProgress(t *testing.T) {
	p := NewPresenter("en")
	require.Equal(t, "The campaign server is busy. Waiting for a spot (25%)...",
		p.Progress(domain.ProgressState{Tick: 25, MaxTicks: 100, Active: true}))
	require.Equal(t, "The campaign server is busy. Still waiting for a spot...",
		p.Progress(domain.ProgressState{Tick: 100, MaxTicks: 100, Active: true}))
}
