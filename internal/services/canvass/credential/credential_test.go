package credential

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hellovoter/hellovoter/internal/platform/errors"
	"github.com/hellovoter/hellovoter/internal/services/canvass/storage"
	"github.com/hellovoter/hellovoter/internal/services/canvass/storage/sqlite"
)

const host = "gotv-ca.ourvoiceusa.org"

var now = time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestDecodeReadsIDAndAudience(t *testing.T) {
	claims, err := Decode(sign(t, jwt.MapClaims{"id": "user-1", "aud": host, "exp": now.Add(time.Hour).Unix()}))
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, []string{host}, claims.Audience)
	require.Equal(t, now.Add(time.Hour), claims.ExpiresAt)
}

func TestDecodeFallsBackToSub(t *testing.T) {
	claims, err := Decode(sign(t, jwt.MapClaims{"sub": "user-2", "aud": []string{"a", host}}))
	require.NoError(t, err)
	require.Equal(t, "user-2", claims.Subject)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("of the one ring")
	require.Equal(t, apperrors.CodeCredentialMalformed, apperrors.CodeOf(err))

	_, err = Decode("")
	require.Equal(t, apperrors.CodeCredentialMissing, apperrors.CodeOf(err))
}

func TestCheck(t *testing.T) {
	cases := []struct {
		name   string
		claims Claims
		want   apperrors.Code
	}{
		{name: "valid", claims: Claims{Subject: "u", Audience: []string{host}}},
		{name: "audience case insensitive", claims: Claims{Subject: "u", Audience: []string{"GOTV-CA.ourvoiceusa.org"}}},
		{name: "no subject", claims: Claims{Audience: []string{host}}, want: apperrors.CodeCredentialSubjectMissing},
		{name: "no audience", claims: Claims{Subject: "u"}, want: apperrors.CodeCredentialAudienceMismatch},
		{name: "other audience", claims: Claims{Subject: "u", Audience: []string{"gotv-tx.ourvoiceusa.org"}}, want: apperrors.CodeCredentialAudienceMismatch},
		{name: "expired", claims: Claims{Subject: "u", Audience: []string{host}, ExpiresAt: now}, want: apperrors.CodeCredentialExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(tc.claims, host, now)
			if tc.want == "" {
				require.NoError(t, err)
				return
			}
			require.Equal(t, tc.want, apperrors.CodeOf(err))
			require.True(t, IsCredentialError(err))
		})
	}
}

func TestGateObtain(t *testing.T) {
	store := openTempStore(t)
	gate := NewGate(store, clockwork.NewFakeClockAt(now), nil)
	ctx := context.Background()

	_, err := gate.Obtain(ctx, host)
	require.Equal(t, apperrors.CodeCredentialMissing, apperrors.CodeOf(err))

	token := sign(t, jwt.MapClaims{"id": "user-1", "aud": host})
	require.NoError(t, gate.Save(ctx, token))

	cred, err := gate.Obtain(ctx, host)
	require.NoError(t, err)
	require.Equal(t, token, cred.Token)
	require.Equal(t, "user-1", cred.Claims.Subject)

	_, err = gate.Obtain(ctx, "gotv-tx.ourvoiceusa.org")
	require.True(t, IsCredentialError(err))
}

func TestGateSaveRejectsUndecodable(t *testing.T) {
	gate := NewGate(openTempStore(t), nil, nil)
	require.Error(t, gate.Save(context.Background(), "not-a-jwt"))
}

func TestGateDiscardDeletesRecord(t *testing.T) {
	store := openTempStore(t)
	gate := NewGate(store, nil, nil)
	ctx := context.Background()
	require.NoError(t, gate.Save(ctx, sign(t, jwt.MapClaims{"id": "u", "aud": host})))

	require.NoError(t, gate.Discard(ctx))

	_, err := store.Get(ctx, storage.KeyCredential)
	require.True(t, errors.Is(err, storage.ErrNotFound))
	token, err := gate.Token(ctx)
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestIsCredentialErrorIgnoresStorageFailures(t *testing.T) {
	require.False(t, IsCredentialError(errors.New("disk gone")))
}

func openTempStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "credential.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}
