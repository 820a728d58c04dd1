// Package credential decodes the volunteer's bearer token and decides when
// it must be thrown away.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	apperrors "github.com/hellovoter/hellovoter/internal/platform/errors"
	"github.com/hellovoter/hellovoter/internal/platform/logging"
	"github.com/hellovoter/hellovoter/internal/services/canvass/storage"
)

// Claims are the decoded fields the client relies on. The client cannot
// verify signatures; the campaign server does that on every request.
type Claims struct {
	Subject   string
	Audience  []string
	ExpiresAt time.Time
}

// Credential is a stored token together with its decoded claims.
type Credential struct {
	Token  string
	Claims Claims
}

// tokenClaims is the claims shape issued by the login service: the user id
// travels in "id", with the registered "sub" as a fallback.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
}

// Decode parses token without verifying its signature.
func Decode(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, apperrors.New(apperrors.CodeCredentialMissing, "credential is required")
	}
	var parsed tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &parsed); err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeCredentialMalformed, "decode credential", err)
	}
	claims := Claims{
		Subject:  strings.TrimSpace(parsed.UserID),
		Audience: []string(parsed.Audience),
	}
	if claims.Subject == "" {
		claims.Subject = strings.TrimSpace(parsed.Subject)
	}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Time.UTC()
	}
	return claims, nil
}

// Check validates claims for use against host at now.
func Check(claims Claims, host string, now time.Time) error {
	if claims.Subject == "" {
		return apperrors.New(apperrors.CodeCredentialSubjectMissing, "credential has no user id")
	}
	if !audienceContains(claims.Audience, host) {
		return apperrors.WithMetadata(apperrors.CodeCredentialAudienceMismatch, "credential audience mismatch",
			map[string]string{"host": host, "audience": strings.Join(claims.Audience, ",")})
	}
	if !claims.ExpiresAt.IsZero() && !claims.ExpiresAt.After(now.UTC()) {
		return apperrors.New(apperrors.CodeCredentialExpired, "credential is expired")
	}
	return nil
}

// IsCredentialError reports whether err means the stored credential is
// unusable, as opposed to a storage failure.
func IsCredentialError(err error) bool {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeCredentialMissing,
		apperrors.CodeCredentialMalformed,
		apperrors.CodeCredentialSubjectMissing,
		apperrors.CodeCredentialAudienceMismatch,
		apperrors.CodeCredentialExpired:
		return true
	default:
		return false
	}
}

func audienceContains(aud []string, host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return false
	}
	for _, item := range aud {
		if strings.ToLower(strings.TrimSpace(item)) == host {
			return true
		}
	}
	return false
}

// Gate owns the persisted credential under storage.KeyCredential.
type Gate struct {
	store  storage.KVStore
	clock  clockwork.Clock
	logger *zap.Logger
	mu     sync.Mutex
}

// NewGate returns a gate over store. A nil clock uses the real clock.
func NewGate(store storage.KVStore, clock clockwork.Clock, logger *zap.Logger) *Gate {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Gate{store: store, clock: clock, logger: logging.OrNop(logger)}
}

// Token returns the stored token, or "" when none is stored.
func (g *Gate) Token(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	raw, err := g.store.Get(ctx, storage.KeyCredential)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// Obtain loads the stored credential and validates it for host. Unusable
// credentials return an error for which IsCredentialError is true; the
// caller decides whether to Discard.
func (g *Gate) Obtain(ctx context.Context, host string) (Credential, error) {
	token, err := g.Token(ctx)
	if err != nil {
		return Credential{}, err
	}
	claims, err := Decode(token)
	if err != nil {
		return Credential{}, err
	}
	if err := Check(claims, host, g.clock.Now()); err != nil {
		return Credential{}, err
	}
	return Credential{Token: token, Claims: claims}, nil
}

// Save stores token after checking that it decodes.
func (g *Gate) Save(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if _, err := Decode(token); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.store.Put(ctx, storage.KeyCredential, []byte(token)); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

// Discard deletes the stored credential.
func (g *Gate) Discard(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.store.Delete(ctx, storage.KeyCredential); err != nil {
		return fmt.Errorf("discard credential: %w", err)
	}
	g.logger.Info("credential discarded")
	return nil
}
