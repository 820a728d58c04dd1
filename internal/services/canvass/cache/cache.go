// Package cache keeps the locally persisted list of campaigns the volunteer
// has joined.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hellovoter/hellovoter/internal/platform/logging"
	"github.com/hellovoter/hellovoter/internal/services/canvass/domain"
	"github.com/hellovoter/hellovoter/internal/services/canvass/storage"
)

// Cache is the campaign list stored under storage.KeyCampaigns. Merges are
// serialized within the process so concurrent runs cannot lose updates.
type Cache struct {
	store  storage.KVStore
	logger *zap.Logger
	mu     sync.Mutex
}

// New returns a cache over store.
func New(store storage.KVStore, logger *zap.Logger) *Cache {
	return &Cache{store: store, logger: logging.OrNop(logger)}
}

// List returns the cached campaigns. A missing or malformed record reads as
// an empty list.
func (c *Cache) List(ctx context.Context) ([]domain.CampaignEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Merge folds entry into the cached list (see domain.MergeEntry) and
// writes the whole list back in one Put.
func (c *Cache) Merge(ctx context.Context, entry domain.CampaignEntry) error {
	if entry.HostAddress == "" && entry.OrgID == "" {
		return fmt.Errorf("campaign entry needs a server or an organization id")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.load(ctx)
	if err != nil {
		return err
	}
	merged := domain.MergeEntry(list, entry)
	payload, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("marshal campaigns: %w", err)
	}
	if err := c.store.Put(ctx, storage.KeyCampaigns, payload); err != nil {
		return fmt.Errorf("persist campaigns: %w", err)
	}
	c.logger.Debug("campaign cached",
		zap.String("host", entry.HostAddress),
		zap.String("org_id", entry.OrgID),
		zap.Int("forms", len(entry.Forms)),
		zap.Int("campaigns", len(merged)),
	)
	return nil
}

func (c *Cache) load(ctx context.Context) ([]domain.CampaignEntry, error) {
	raw, err := c.store.Get(ctx, storage.KeyCampaigns)
	if errors.Is(err, storage.ErrNotFound) {
		return []domain.CampaignEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load campaigns: %w", err)
	}
	var list []domain.CampaignEntry
	if err := json.Unmarshal(raw, &list); err != nil || list == nil {
		if err != nil {
			c.logger.Warn("discarding malformed campaign cache", zap.Error(err))
		}
		return []domain.CampaignEntry{}, nil
	}
	return list, nil
}
