// Package assignment materializes the forms a handshake references.
package assignment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hellovoter/hellovoter/internal/platform/logging"
	"github.com/hellovoter/hellovoter/internal/services/canvass/domain"
)

// FormGetter retrieves one form definition.
type FormGetter interface {
	GetForm(ctx context.Context, target domain.ResolvedTarget, token string, formID string) (domain.Form, error)
}

// Fetcher retrieves forms sequentially, one request per distinct id.
type Fetcher struct {
	getter FormGetter
	logger *zap.Logger
}

// NewFetcher returns a fetcher over getter.
func NewFetcher(getter FormGetter, logger *zap.Logger) *Fetcher {
	return &Fetcher{getter: getter, logger: logging.OrNop(logger)}
}

// Fetch returns the definitions of refs in first-seen order. Any failure
// fails the whole fetch.
func (f *Fetcher) Fetch(ctx context.Context, target domain.ResolvedTarget, refs []domain.Form, token string) ([]domain.Form, error) {
	seen := make(map[string]struct{}, len(refs))
	forms := make([]domain.Form, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref.ID]; ok {
			continue
		}
		seen[ref.ID] = struct{}{}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		form, err := f.getter.GetForm(ctx, target, token, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch form %s: %w", ref.ID, err)
		}
		f.logger.Debug("form fetched", zap.String("host", target.Host), zap.String("form_id", ref.ID))
		forms = append(forms, form)
	}
	return forms, nil
}
