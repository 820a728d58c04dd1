package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func form(t *testing.T, raw string) Form {
	t.Helper()
	var f Form
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	return f
}

func TestMergeEntryReplacesEmptyForms(t *testing.T) {
	f1 := form(t, `{"id":"f1","name":"Door knock"}`)
	list := []CampaignEntry{{HostAddress: "gotv-ca.example", OrgID: "CA0001", Forms: []Form{}}}

	got := MergeEntry(list, CampaignEntry{HostAddress: "gotv-ca.example", OrgID: "CA0001", Forms: []Form{f1}})

	want := []CampaignEntry{{HostAddress: "gotv-ca.example", OrgID: "CA0001", Forms: []Form{f1}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merged entries mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeEntryKeepsFormsWhenIncomingEmpty(t *testing.T) {
	f1 := form(t, `{"id":"f1"}`)
	list := []CampaignEntry{{HostAddress: "canvass.example.org", Forms: []Form{f1}}}

	got := MergeEntry(list, CampaignEntry{HostAddress: "canvass.example.org"})

	require.Len(t, got, 1)
	require.Equal(t, []string{"f1"}, FormIDs(got[0].Forms))
}

func TestMergeEntryMatchesByOrgWhenBothHaveOne(t *testing.T) {
	list := []CampaignEntry{{HostAddress: "gotv-ca.ourvoiceusa.org", OrgID: "CA0001"}}

	got := MergeEntry(list, CampaignEntry{HostAddress: "gotv-ca.ourvoiceusa.org", OrgID: "CA0002"})

	require.Len(t, got, 2, "same host but different orgs are different campaigns")
}

func TestMergeEntryMatchesOrgCaseInsensitively(t *testing.T) {
	f1 := form(t, `{"id":"f1"}`)
	list := []CampaignEntry{{HostAddress: "gotv-ca.ourvoiceusa.org", OrgID: "ca42"}}

	got := MergeEntry(list, CampaignEntry{HostAddress: "gotv-ca.ourvoiceusa.org", OrgID: "CA42", Forms: []Form{f1}})

	require.Len(t, got, 1)
	require.Equal(t, []string{"f1"}, FormIDs(got[0].Forms))
}

func TestMergeEntryFallsBackToHost(t *testing.T) {
	list := []CampaignEntry{{HostAddress: "gotv-ca.ourvoiceusa.org", OrgID: "CA0001"}}
	f2 := form(t, `{"id":2}`)

	got := MergeEntry(list, CampaignEntry{HostAddress: "gotv-ca.ourvoiceusa.org", Forms: []Form{f2}})

	require.Len(t, got, 1)
	require.Equal(t, "CA0001", got[0].OrgID)
	require.Equal(t, []string{"2"}, FormIDs(got[0].Forms))
}

func TestMergeEntryDoesNotMutateInput(t *testing.T) {
	f1 := form(t, `{"id":"f1"}`)
	list := []CampaignEntry{{HostAddress: "a.example"}}

	_ = MergeEntry(list, CampaignEntry{HostAddress: "a.example", Forms: []Form{f1}})

	require.Empty(t, list[0].Forms)
}

func TestMergeEntryIsIdempotent(t *testing.T) {
	entry := CampaignEntry{HostAddress: "a.example", OrgID: "AA1", Forms: []Form{form(t, `{"id":"f1"}`)}}
	once := MergeEntry(nil, entry)
	twice := MergeEntry(once, entry)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("second merge changed list (-once +twice):\n%s", diff)
	}
}

func TestFormRoundTripKeepsDefinition(t *testing.T) {
	raw := `{"id":"f1","questions":{"q1":{"type":"String"}}}`
	f := form(t, raw)

	out, err := json.Marshal(f)
	require.NoError(t, err)
	require.JSONEq(t, raw, string(out))
}

func TestFormReferenceMarshalsID(t *testing.T) {
	out, err := json.Marshal(Form{ID: "f9"})
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"f9"}`, string(out))
}

func TestFormRejectsMissingID(t *testing.T) {
	var f Form
	require.Error(t, json.Unmarshal([]byte(`{"name":"x"}`), &f))
	require.Error(t, json.Unmarshal([]byte(`["f1"]`), &f))
}
