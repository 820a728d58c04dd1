package domain

import (
	"net"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/idna"

	apperrors "github.com/hellovoter/hellovoter/internal/platform/errors"
)

// RegionalHostSuffix completes the host derived from an organization code.
const RegionalHostSuffix = ".ourvoiceusa.org"

var orgCodePattern = regexp.MustCompile(`^[0-9A-Za-z]{2,}$`)

// CampaignTarget names the campaign a volunteer wants to join, as entered or
// scanned. OrgID wins over HostAddress when both are present.
type CampaignTarget struct {
	HostAddress string `json:"server,omitempty"`
	OrgID       string `json:"orgId,omitempty"`
	InviteCode  string `json:"inviteCode,omitempty"`
}

// ResolvedTarget is a target reduced to one concrete host. OrgID is empty
// for plain-server campaigns.
type ResolvedTarget struct {
	Host       string
	OrgID      string
	InviteCode string
}

// Resolve maps a target onto a concrete host without touching the network.
//
// An alphanumeric OrgID selects the regional host from its first two
// characters. An OrgID containing a dot is a hostname typed into the org
// field: it becomes the host and the OrgID is dropped. Anything else is
// rejected with CodeTargetInvalid.
func Resolve(target CampaignTarget) (ResolvedTarget, error) {
	orgID := strings.TrimSpace(target.OrgID)
	invite := strings.TrimSpace(target.InviteCode)

	switch {
	case orgID != "" && orgCodePattern.MatchString(orgID):
		return ResolvedTarget{
			Host:       RegionalHost(orgID[:2]),
			OrgID:      strings.ToUpper(orgID),
			InviteCode: invite,
		}, nil
	case orgID != "" && strings.Contains(orgID, "."):
		host, err := NormalizeHost(orgID)
		if err != nil {
			return ResolvedTarget{}, err
		}
		return ResolvedTarget{Host: host, InviteCode: invite}, nil
	case orgID != "":
		return ResolvedTarget{}, apperrors.WithMetadata(apperrors.CodeTargetInvalid,
			"organization id is neither a code nor a hostname", map[string]string{"orgId": orgID})
	}

	if strings.TrimSpace(target.HostAddress) == "" {
		return ResolvedTarget{}, apperrors.New(apperrors.CodeTargetInvalid, "server or organization id is required")
	}
	host, err := NormalizeHost(target.HostAddress)
	if err != nil {
		return ResolvedTarget{}, err
	}
	return ResolvedTarget{Host: host, InviteCode: invite}, nil
}

// RegionalHost returns the campaign host serving a two-letter region.
func RegionalHost(region string) string {
	return "gotv-" + strings.ToLower(strings.TrimSpace(region)) + RegionalHostSuffix
}

// NormalizeHost lowercases a host[:port] and checks it is a valid
// (possibly internationalized) DNS name or IP address with an optional
// numeric port. URLs and paths are rejected.
func NormalizeHost(raw string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", apperrors.New(apperrors.CodeTargetInvalid, "host is required")
	}
	if strings.Contains(value, "/") {
		return "", apperrors.WithMetadata(apperrors.CodeTargetInvalid, "host must not be a url or path",
			map[string]string{"host": raw})
	}
	name, port := value, ""
	if h, p, err := net.SplitHostPort(value); err == nil {
		if _, err := strconv.ParseUint(p, 10, 16); err != nil {
			return "", apperrors.WrapWithMetadata(apperrors.CodeTargetInvalid, "invalid port",
				map[string]string{"host": raw}, err)
		}
		name, port = h, p
	}
	if name == "" {
		return "", apperrors.WithMetadata(apperrors.CodeTargetInvalid, "host is required",
			map[string]string{"host": raw})
	}
	if net.ParseIP(name) == nil {
		ascii, err := idna.Lookup.ToASCII(name)
		if err != nil {
			return "", apperrors.WrapWithMetadata(apperrors.CodeTargetInvalid, "invalid host",
				map[string]string{"host": raw}, err)
		}
		name = ascii
	}
	if port != "" {
		return net.JoinHostPort(name, port), nil
	}
	return name, nil
}

// APIBase returns the path prefix of the campaign API for an organization.
func APIBase(orgID string) string {
	if orgID == "" {
		return "/HelloVoterHQ/api/v1"
	}
	return "/HelloVoterHQ/" + orgID + "/api/v1"
}

// UsesPlainHTTP reports whether host is a local development server, which
// listens without TLS on port 8080.
func UsesPlainHTTP(host string) bool {
	_, port, err := net.SplitHostPort(host)
	return err == nil && port == "8080"
}
