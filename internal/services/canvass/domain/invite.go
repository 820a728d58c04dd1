package domain

import (
	"net/url"
	"strings"

	apperrors "github.com/hellovoter/hellovoter/internal/platform/errors"
)

// ParseInvite extracts a campaign target from an invite link or QR payload.
// The query may sit in the URL proper or after a "#/invite?" fragment.
func ParseInvite(raw string) (CampaignTarget, error) {
	raw = strings.TrimSpace(raw)
	idx := strings.LastIndex(raw, "?")
	if idx == -1 {
		return CampaignTarget{}, apperrors.New(apperrors.CodeInviteInvalid, "invite has no query")
	}
	values, err := url.ParseQuery(raw[idx+1:])
	if err != nil {
		return CampaignTarget{}, apperrors.Wrap(apperrors.CodeInviteInvalid, "parse invite query", err)
	}
	target := CampaignTarget{
		HostAddress: strings.TrimSpace(values.Get("server")),
		OrgID:       strings.TrimSpace(values.Get("orgId")),
		InviteCode:  strings.TrimSpace(values.Get("inviteCode")),
	}
	if target.HostAddress == "" && target.OrgID == "" {
		return CampaignTarget{}, apperrors.New(apperrors.CodeInviteInvalid, "invite names neither an organization nor a server")
	}
	return target, nil
}
