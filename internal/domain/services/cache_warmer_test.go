package services

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athebyme/gomarket-storefront/internal/adapters/logger"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
)

type recordingRefresher struct {
	mu     sync.Mutex
	params []url.Values
	fail   func(url.Values) bool
}

func (r *recordingRefresher) Refresh(_ context.Context, params url.Values) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params = append(r.params, params)
	if r.fail != nil && r.fail(params) {
		return errors.New("upstream down")
	}
	return nil
}

func TestCacheWarmer_WarmsFirstPagesPerViewport(t *testing.T) {
	refresher := &recordingRefresher{}
	warmer := NewCacheWarmer(refresher, logger.NewNopLogger(), CacheWarmerOptions{Pages: 2, Concurrency: 3})

	report, err := warmer.Warm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, WarmReport{Requested: 6, Warmed: 6}, report)

	seen := map[string]bool{}
	for _, p := range refresher.params {
		seen[p.Get("limit")+"/"+p.Get("page")] = true
		assert.Empty(t, p.Get("search"))
	}
	assert.Equal(t, map[string]bool{
		"8/1": true, "8/2": true, // mobile
		"6/1": true, "6/2": true, // tablet
		"9/1": true, "9/2": true, // desktop
	}, seen)
}

func TestCacheWarmer_CountsFailures(t *testing.T) {
	refresher := &recordingRefresher{fail: func(p url.Values) bool { return p.Get("page") == "2" }}
	warmer := NewCacheWarmer(refresher, logger.NewNopLogger(), CacheWarmerOptions{
		Pages:     2,
		Viewports: []models.ViewportClass{models.ViewportDesktop},
		Sorts:     []models.SortKey{models.SortDefault, models.SortPriceAsc},
	})

	report, err := warmer.Warm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, WarmReport{Requested: 4, Warmed: 2, Failed: 2}, report)
}

func TestCacheWarmer_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	refresher := &recordingRefresher{}
	report, err := NewCacheWarmer(refresher, logger.NewNopLogger(), CacheWarmerOptions{}).Warm(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.Warmed)
	assert.Empty(t, refresher.params)
}

type purgingRefresher struct {
	recordingRefresher
	cancel context.CancelFunc
	events []string
	err    error
}

func (r *purgingRefresher) Invalidate(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "invalidate")
	return r.err
}

func (r *purgingRefresher) Refresh(ctx context.Context, params url.Values) error {
	r.mu.Lock()
	r.events = append(r.events, "refresh")
	r.mu.Unlock()
	r.cancel()
	return r.recordingRefresher.Refresh(ctx, params)
}

func TestCacheWarmer_RunPurgesBeforeFirstCycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	refresher := &purgingRefresher{cancel: cancel}
	warmer := NewCacheWarmer(refresher, logger.NewNopLogger(), CacheWarmerOptions{
		Viewports:    []models.ViewportClass{models.ViewportDesktop},
		PurgeOnStart: true,
	})

	warmer.Run(ctx, time.Hour)

	assert.Equal(t, []string{"invalidate", "refresh"}, refresher.events)
}

func TestCacheWarmer_Purge(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, NewCacheWarmer(&recordingRefresher{}, logger.NewNopLogger(), CacheWarmerOptions{}).Purge(ctx))

	failing := &purgingRefresher{err: errors.New("redis down")}
	err := NewCacheWarmer(failing, logger.NewNopLogger(), CacheWarmerOptions{}).Purge(ctx)
	assert.ErrorContains(t, err, "redis down")
	assert.Equal(t, []string{"invalidate"}, failing.events)
}
