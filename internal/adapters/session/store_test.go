package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athebyme/gomarket-storefront/internal/adapters/cache"
	"github.com/athebyme/gomarket-storefront/internal/domain/catalog"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/internal/utils"
)

func sampleFilters() models.Filters {
	min := 150.0
	return models.Filters{
		Categories: []string{"tsement", "gips"},
		Brands:     []string{"Knauf"},
		PriceMin:   &min,
		InStock:    true,
	}
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisFilterStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := cache.NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { c.Close() })
	return NewRedisFilterStore(c, ttl), mr
}

func TestFilterStores(t *testing.T) {
	stores := map[string]func(t *testing.T) catalog.FilterStore{
		StoreMemory: func(t *testing.T) catalog.FilterStore { return NewMemoryFilterStore(time.Minute) },
		StoreRedis: func(t *testing.T) catalog.FilterStore {
			s, _ := newRedisStore(t, time.Minute)
			return s
		},
	}

	for name, build := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := build(t)

			_, found, err := store.Load(ctx, "s1")
			require.NoError(t, err)
			assert.False(t, found)

			filters := sampleFilters()
			require.NoError(t, store.Save(ctx, "s1", filters))

			got, found, err := store.Load(ctx, "s1")
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, filters.ToQuery(), got.ToQuery())
			assert.Equal(t, filters.Normalize(), got)

			_, found, err = store.Load(ctx, "s2")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, store.Clear(ctx, "s1"))
			_, found, err = store.Load(ctx, "s1")
			require.NoError(t, err)
			assert.False(t, found)

			assert.ErrorIs(t, store.Save(ctx, " ", filters), utils.ErrEmptySession)
		})
	}
}

func TestRedisFilterStore_KeyAndTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, 30*time.Minute)

	require.NoError(t, store.Save(ctx, "abc", sampleFilters()))
	assert.True(t, mr.Exists("catalog:filters:abc"))
	assert.Equal(t, 30*time.Minute, mr.TTL("catalog:filters:abc"))

	mr.FastForward(31 * time.Minute)
	_, found, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisFilterStore_CorruptedSlot(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	require.NoError(t, mr.Set("catalog:filters:s1", "{not json"))

	_, _, err := store.Load(context.Background(), "s1")
	assert.Error(t, err)
}

func TestMemoryFilterStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryFilterStore(time.Minute)
	filters := sampleFilters()
	require.NoError(t, store.Save(ctx, "s1", filters))

	got, _, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	got.Brands[0] = "Volma"
	*got.PriceMin = 1

	again, _, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Knauf"}, again.Brands)
	assert.Equal(t, 150.0, *again.PriceMin)
}

func TestNewFilterStore(t *testing.T) {
	s, err := NewFilterStore(StoreMemory, nil, time.Minute)
	require.NoError(t, err)
	assert.IsType(t, &MemoryFilterStore{}, s)

	_, err = NewFilterStore(StoreRedis, nil, time.Minute)
	assert.Error(t, err)

	_, err = NewFilterStore("etcd", nil, time.Minute)
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(time.Minute, 100)

	_, found := r.Get("s1")
	assert.False(t, found)

	rec := r.GetOrCreate("s1")
	assert.Same(t, rec, r.GetOrCreate("s1"))
	got, found := r.Get("s1")
	require.True(t, found)
	assert.Same(t, rec, got)
	assert.Equal(t, 1, r.Len())

	r.Forget("s1")
	_, found = r.Get("s1")
	assert.False(t, found)
}

func TestRegistry_GaugeFollowsRecreatedSessions(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_active_sessions"})
	r := newRegistry(20*time.Millisecond, 0, 100, gauge)

	r.GetOrCreate("s1")
	r.GetOrCreate("s2")
	assert.Equal(t, 2.0, testutil.ToFloat64(gauge))

	time.Sleep(40 * time.Millisecond)
	_, found := r.Get("s1")
	require.False(t, found)

	// истекшая запись еще лежит в кэше и перезаписывается новой
	r.GetOrCreate("s1")
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, float64(r.Len()), testutil.ToFloat64(gauge))

	r.Forget("s1")
	r.Forget("s2")
	assert.Equal(t, 0.0, testutil.ToFloat64(gauge))
}
