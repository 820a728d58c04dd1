package cache

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellovoter/hellovoter/internal/services/canvass/domain"
	"github.com/hellovoter/hellovoter/internal/services/canvass/storage"
	"github.com/hellovoter/hellovoter/internal/services/canvass/storage/sqlite"
)

func TestListEmptyWhenAbsent(t *testing.T) {
	c := New(openTempStore(t), nil)

	list, err := c.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestListEmptyWhenMalformed(t *testing.T) {
	for _, raw := range []string{"not json", "null", `{"server":"x"}`} {
		store := openTempStore(t)
		require.NoError(t, store.Put(context.Background(), storage.KeyCampaigns, []byte(raw)))

		list, err := New(store, nil).List(context.Background())
		require.NoError(t, err, raw)
		require.Empty(t, list, raw)
	}
}

func TestMergeReplacesEmptyForms(t *testing.T) {
	store := openTempStore(t)
	c := New(store, nil)
	ctx := context.Background()

	require.NoError(t, c.Merge(ctx, domain.CampaignEntry{HostAddress: "gotv-ca.example", OrgID: "CA0001", Forms: []domain.Form{}}))
	f1 := mustForm(t, `{"id":"f1","title":"Survey"}`)
	require.NoError(t, c.Merge(ctx, domain.CampaignEntry{HostAddress: "gotv-ca.example", OrgID: "CA0001", Forms: []domain.Form{f1}}))

	list, err := c.List(ctx)
	require.NoError(t, err)
	want := []domain.CampaignEntry{{HostAddress: "gotv-ca.example", OrgID: "CA0001", Forms: []domain.Form{f1}}}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Fatalf("cached campaigns mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeOverMalformedStartsFresh(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, storage.KeyCampaigns, []byte("{{{")))

	c := New(store, nil)
	require.NoError(t, c.Merge(ctx, domain.CampaignEntry{HostAddress: "a.example"}))

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestMergeRejectsAnonymousEntry(t *testing.T) {
	c := New(openTempStore(t), nil)
	require.Error(t, c.Merge(context.Background(), domain.CampaignEntry{}))
}

func TestMergePersistsUsingWireNames(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	require.NoError(t, New(store, nil).Merge(ctx, domain.CampaignEntry{HostAddress: "gotv-tx.ourvoiceusa.org", OrgID: "TX1"}))

	raw, err := store.Get(ctx, storage.KeyCampaigns)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, "gotv-tx.ourvoiceusa.org", decoded[0]["server"])
	require.Equal(t, "TX1", decoded[0]["orgId"])
}

func TestConcurrentMergesDoNotLoseUpdates(t *testing.T) {
	c := New(openTempStore(t), nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	hosts := []string{"a.example", "b.example", "c.example", "d.example", "e.example"}
	for _, host := range hosts {
		wg.Add(1)
		go func(host string) {
			defer wg.Done()
			assert.NoError(t, c.Merge(ctx, domain.CampaignEntry{HostAddress: host}))
		}(host)
	}
	wg.Wait()

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, len(hosts))
}

func TestMergePropagatesStoreFailure(t *testing.T) {
	c := New(failingStore{}, nil)
	err := c.Merge(context.Background(), domain.CampaignEntry{HostAddress: "a.example"})
	require.Error(t, err)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk gone") }
func (failingStore) Put(context.Context, string, []byte) error { return errors.New("disk gone") }
func (failingStore) Delete(context.Context, string) error { return errors.New("disk gone") }

func mustForm(t *testing.T, raw string) domain.Form {
	t.Helper()
	var f domain.Form
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	return f
}

func openTempStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}
