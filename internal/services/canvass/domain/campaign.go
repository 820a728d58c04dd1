package domain

import "strings"

// CampaignEntry is one remembered campaign in the local cache.
type CampaignEntry struct {
	HostAddress string `json:"server"`
	OrgID       string `json:"orgId,omitempty"`
	Forms       []Form `json:"forms,omitempty"`
}

// EntryFor builds the cache entry for a resolved target.
func EntryFor(target ResolvedTarget, forms []Form) CampaignEntry {
	return CampaignEntry{HostAddress: target.Host, OrgID: target.OrgID, Forms: forms}
}

// SameCampaign reports whether two entries name the same campaign: by
// organization id (case-insensitively) when both carry one, otherwise by host.
func (e CampaignEntry) SameCampaign(other CampaignEntry) bool {
	if e.OrgID != "" && other.OrgID != "" {
		return strings.EqualFold(e.OrgID, other.OrgID)
	}
	return e.HostAddress == other.HostAddress
}

// MergeEntry folds incoming into list and returns the new list; list is not
// modified. Matching entries take incoming's forms only when that list is
// non-empty, so a merge never drops cached forms. Unmatched entries append.
func MergeEntry(list []CampaignEntry, incoming CampaignEntry) []CampaignEntry {
	merged := make([]CampaignEntry, 0, len(list)+1)
	found := false
	for _, existing := range list {
		if existing.SameCampaign(incoming) {
			found = true
			if len(incoming.Forms) > 0 {
				existing.Forms = append([]Form(nil), incoming.Forms...)
			}
		}
		merged = append(merged, existing)
	}
	if !found {
		merged = append(merged, incoming)
	}
	return merged
}
