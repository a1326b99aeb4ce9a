package catalog

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/athebyme/gomarket-storefront/internal/domain/models"
)

type mapStore struct {
	slots map[string]models.Filters
	err   error
}

func newMapStore() *mapStore {
	return &mapStore{slots: make(map[string]models.Filters)}
}

func (s *mapStore) Load(_ context.Context, sessionID string) (models.Filters, bool, error) {
	if s.err != nil {
		return models.Filters{}, false, s.err
	}
	f, ok := s.slots[sessionID]
	return f, ok, nil
}

func (s *mapStore) Save(_ context.Context, sessionID string, filters models.Filters) error {
	if s.err != nil {
		return s.err
	}
	s.slots[sessionID] = filters
	return nil
}

func (s *mapStore) Clear(_ context.Context, sessionID string) error {
	if s.err != nil {
		return s.err
	}
	delete(s.slots, sessionID)
	return nil
}

func TestPersistence_RoundTrip(t *testing.T) {
	ctx := context.Background()

	rapid.Check(t, func(t *rapid.T) {
		store := newMapStore()
		filters := drawFilters(t)
		if filters.IsEmpty() {
			filters.InStock = true
		}
		q := models.CatalogQuery{Filters: filters}

		if err := SyncFilters(ctx, store, "s1", q); err != nil {
			t.Fatal(err)
		}
		restored, ok, err := RestoreQuery(ctx, store, "s1", url.Values{})
		if err != nil || !ok {
			t.Fatalf("restore: ok=%v err=%v", ok, err)
		}
		if want := filters.ToQuery().Encode(); restored.Encode() != want {
			t.Fatalf("restored %q, want %q", restored.Encode(), want)
		}
	})
}

func TestRestoreQuery_URLWins(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	require.NoError(t, store.Save(ctx, "s1", models.Filters{Brands: []string{"Knauf"}}))

	restored, ok, err := RestoreQuery(ctx, store, "s1", url.Values{"sort": {"name"}})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, restored)

	restored, ok, err = RestoreQuery(ctx, store, "s1", url.Values{"viewport": {"mobile"}, "page": {"4"}})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Knauf", restored.Get("brand"))
	assert.Equal(t, "mobile", restored.Get("viewport"))
	assert.Empty(t, restored.Get("page"))

	_, ok, err = RestoreQuery(ctx, store, "other", url.Values{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSyncFilters(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	filters := models.Filters{Categories: []string{"gips"}}

	require.NoError(t, SyncFilters(ctx, store, "s1", models.CatalogQuery{Filters: filters}))
	assert.Contains(t, store.slots, "s1")

	require.NoError(t, SyncFilters(ctx, store, "s1", models.CatalogQuery{Filters: filters, Search: "клей"}))
	assert.NotContains(t, store.slots, "s1")

	require.NoError(t, SyncFilters(ctx, store, "s1", models.CatalogQuery{Filters: filters}))
	require.NoError(t, SyncFilters(ctx, store, "s1", models.CatalogQuery{}))
	assert.NotContains(t, store.slots, "s1")

	store.err = errors.New("boom")
	assert.Error(t, SyncFilters(ctx, store, "s1", models.CatalogQuery{Filters: filters}))
	_, _, err := RestoreQuery(ctx, store, "s1", url.Values{})
	assert.Error(t, err)
}
