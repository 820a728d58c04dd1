// Package storage defines the local key-value persistence used by the
// admission client and the keys it owns.
package storage

import (
	"context"
	"errors"
)

// Keys of the records the client persists.
const (
	KeyCampaigns  = "HV_SERVERS"
	KeyCredential = "HV_JWT"
	KeyLegacy     = "HV_OLDFORMS"
	KeyInviteURL  = "HV_INVITE_URL"
)

// ErrNotFound is returned by Get for absent keys.
var ErrNotFound = errors.New("record not found")

// KVStore persists opaque values by key. Put replaces the whole value
// atomically; readers never observe a partial write.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
