// Package discovery finds campaigns the volunteer should see without typing
// an invite: their own organization, forms saved by older app versions and
// an invite link left pending by the launcher.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	apperrors "github.com/hellovoter/hellovoter/internal/platform/errors"
	"github.com/hellovoter/hellovoter/internal/platform/logging"
	"github.com/hellovoter/hellovoter/internal/services/canvass/domain"
	"github.com/hellovoter/hellovoter/internal/services/canvass/storage"
	"github.com/hellovoter/hellovoter/internal/services/canvass/transport"
)

var regionPattern = regexp.MustCompile(`^[A-Za-z]{2}$`)

// StatusClient looks up the volunteer's own organization.
type StatusClient interface {
	OrgStatus(ctx context.Context, region string, token string) (transport.OrgStatus, error)
}

// Tokens exposes the stored credential.
type Tokens interface {
	Token(ctx context.Context) (string, error)
	Discard(ctx context.Context) error
}

// Campaigns records discovered campaigns.
type Campaigns interface {
	Merge(ctx context.Context, entry domain.CampaignEntry) error
}

// Service runs the discovery steps.
type Service struct {
	store     storage.KVStore
	status    StatusClient
	tokens    Tokens
	campaigns Campaigns
	logger    *zap.Logger
}

// NewService builds a discovery service.
func NewService(store storage.KVStore, status StatusClient, tokens Tokens, campaigns Campaigns, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		status:    status,
		tokens:    tokens,
		campaigns: campaigns,
		logger:    logging.OrNop(logger),
	}
}

// OwnOrg is the result of an own-organization poll.
type OwnOrg struct {
	Status int
	// Entry is set when the volunteer owns an organization in the region.
	Entry *domain.CampaignEntry
	// CredentialDiscarded reports that the server rejected the credential.
	CredentialDiscarded bool
	// Blocked reports a business status the volunteer should be shown.
	Blocked bool
}

// PollOwnOrg asks the regional host for the volunteer's own organization
// and records it when one exists.
func (s *Service) PollOwnOrg(ctx context.Context, region string) (OwnOrg, error) {
	region = strings.TrimSpace(region)
	if !regionPattern.MatchString(region) {
		return OwnOrg{}, apperrors.WithMetadata(apperrors.CodeTargetInvalid, "region must be a two-letter state code",
			map[string]string{"region": region})
	}
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return OwnOrg{}, err
	}
	answer, err := s.status.OrgStatus(ctx, region, token)
	if err != nil {
		return OwnOrg{}, fmt.Errorf("poll own organization: %w", err)
	}

	result := OwnOrg{Status: answer.Status}
	switch {
	case answer.Status == http.StatusOK:
		if answer.OrgID == "" {
			return result, nil
		}
		entry := domain.CampaignEntry{HostAddress: domain.RegionalHost(region), OrgID: strings.ToUpper(answer.OrgID)}
		if err := s.campaigns.Merge(ctx, entry); err != nil {
			return OwnOrg{}, fmt.Errorf("record own organization: %w", err)
		}
		s.logger.Info("own organization recorded", zap.String("host", entry.HostAddress), zap.String("org_id", entry.OrgID))
		result.Entry = &entry
	case answer.Status == http.StatusBadRequest || answer.Status == http.StatusUnauthorized:
		if err := s.tokens.Discard(ctx); err != nil {
			return OwnOrg{}, err
		}
		result.CredentialDiscarded = true
	case answer.Status < domain.StatusTransientMinimum:
		result.Blocked = true
	default:
		s.logger.Warn("own organization lookup unavailable", zap.Int("status", answer.Status))
	}
	return result, nil
}

// LegacySkip is a legacy form that could not be imported.
type LegacySkip struct {
	Index   int
	Backend string
}

// LegacyReport summarizes an import of legacy forms.
type LegacyReport struct {
	Imported []domain.CampaignEntry
	Skipped  []LegacySkip
}

// ImportLegacy merges server-backed forms saved by older versions into the
// campaign cache. Other backends need a manual conversion and are reported.
func (s *Service) ImportLegacy(ctx context.Context) (LegacyReport, error) {
	raw, err := s.store.Get(ctx, storage.KeyLegacy)
	if errors.Is(err, storage.ErrNotFound) {
		return LegacyReport{}, nil
	}
	if err != nil {
		return LegacyReport{}, fmt.Errorf("load legacy forms: %w", err)
	}
	parsed := gjson.ParseBytes(raw)
	if !gjson.ValidBytes(raw) || !(parsed.IsArray() || parsed.IsObject()) {
		return LegacyReport{}, apperrors.New(apperrors.CodeStoreCorrupt, "legacy forms are not a json collection")
	}

	var report LegacyReport
	index := 0
	var failure error
	parsed.ForEach(func(_, item gjson.Result) bool {
		defer func() { index++ }()
		if !item.IsObject() {
			return true
		}
		backend := item.Get("backend").String()
		server := strings.TrimSpace(item.Get("server").String())
		if backend != "server" || server == "" {
			report.Skipped = append(report.Skipped, LegacySkip{Index: index, Backend: backend})
			return true
		}
		host, err := domain.NormalizeHost(server)
		if err != nil {
			report.Skipped = append(report.Skipped, LegacySkip{Index: index, Backend: backend})
			return true
		}
		entry := domain.CampaignEntry{HostAddress: host, OrgID: strings.ToUpper(strings.TrimSpace(item.Get("orgId").String()))}
		if err := s.campaigns.Merge(ctx, entry); err != nil {
			failure = fmt.Errorf("import legacy form %d: %w", index, err)
			return false
		}
		report.Imported = append(report.Imported, entry)
		return true
	})
	if failure != nil {
		return LegacyReport{}, failure
	}
	s.logger.Info("legacy forms imported", zap.Int("imported", len(report.Imported)), zap.Int("skipped", len(report.Skipped)))
	return report, nil
}

// SavePendingInvite stores an invite link for the next join.
func (s *Service) SavePendingInvite(ctx context.Context, link string) error {
	if _, err := domain.ParseInvite(link); err != nil {
		return err
	}
	if err := s.store.Put(ctx, storage.KeyInviteURL, []byte(strings.TrimSpace(link))); err != nil {
		return fmt.Errorf("save pending invite: %w", err)
	}
	return nil
}

// TakePendingInvite consumes the stored invite link. The record is deleted
// even when the link no longer parses.
func (s *Service) TakePendingInvite(ctx context.Context) (domain.CampaignTarget, bool, error) {
	raw, err := s.store.Get(ctx, storage.KeyInviteURL)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.CampaignTarget{}, false, nil
	}
	if err != nil {
		return domain.CampaignTarget{}, false, fmt.Errorf("load pending invite: %w", err)
	}
	if err := s.store.Delete(ctx, storage.KeyInviteURL); err != nil {
		return domain.CampaignTarget{}, false, fmt.Errorf("consume pending invite: %w", err)
	}
	target, err := domain.ParseInvite(string(raw))
	if err != nil {
		return domain.CampaignTarget{}, false, err
	}
	return target, true, nil
}
