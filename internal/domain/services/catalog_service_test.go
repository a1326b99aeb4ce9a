package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athebyme/gomarket-storefront/internal/adapters/logger"
	"github.com/athebyme/gomarket-storefront/internal/adapters/session"
	"github.com/athebyme/gomarket-storefront/internal/domain/catalog"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/internal/utils"
)

type sourceFunc func(ctx context.Context, params url.Values) ([]byte, error)

func (f sourceFunc) FetchProducts(ctx context.Context, params url.Values) ([]byte, error) {
	return f(ctx, params)
}

// recordingSource запоминает параметры каждого запроса
type recordingSource struct {
	mu     sync.Mutex
	calls  []url.Values
	handle sourceFunc
}

func (s *recordingSource) FetchProducts(ctx context.Context, params url.Values) ([]byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, params)
	s.mu.Unlock()
	return s.handle(ctx, params)
}

func (s *recordingSource) Calls() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.calls...)
}

// pagedCatalog отдает total товаров страницами в форме {data: {products, pagination}}
func pagedCatalog(total int) sourceFunc {
	return func(_ context.Context, params url.Values) ([]byte, error) {
		page, _ := strconv.Atoi(params.Get("page"))
		limit, _ := strconv.Atoi(params.Get("limit"))
		if page < 1 {
			page = 1
		}
		pages := (total + limit - 1) / limit
		products := make([]map[string]interface{}, 0, limit)
		for i := (page - 1) * limit; i < page*limit && i < total; i++ {
			products = append(products, map[string]interface{}{"id": i + 1, "name": fmt.Sprintf("Товар %d", i+1)})
		}
		return json.Marshal(map[string]interface{}{
			"data": map[string]interface{}{
				"products":   products,
				"pagination": map[string]int{"currentPage": page, "totalPages": pages, "totalItems": total},
			},
		})
	}
}

func newTestService(source sourceFunc) (*CatalogService, *recordingSource, catalog.FilterStore) {
	rec := &recordingSource{handle: source}
	store := session.NewMemoryFilterStore(time.Minute)
	svc := NewCatalogService(rec, store, session.NewRegistry(time.Minute, 0), logger.NewNopLogger(), CatalogOptions{})
	return svc, rec, store
}

func productIDs(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID())
	}
	return out
}

func TestCatalogService_SearchFallback(t *testing.T) {
	// Бэкенд ищет только по названию, а "цемент" встречается лишь в описаниях
	wide := `{"products": [
		{"id": "a", "name": "Смесь М150", "description": "Пескобетон на основе цемента"},
		{"id": "b", "name": "Кирпич", "description": "Облицовочный"},
		{"id": "c", "name": "М500 Д0", "description": "Портландцемент ЦЕМ I 42,5Н"},
		{"id": "d", "name": "Гипс", "brand": {"name": "Knauf"}}
	], "pagination": {"currentPage": 1, "totalPages": 1, "totalItems": 4}}`

	svc, src, _ := newTestService(func(_ context.Context, params url.Values) ([]byte, error) {
		if params.Get("search") != "" {
			return []byte(`{"data": {"products": [], "pagination": {"currentPage": 1, "totalPages": 0, "totalItems": 0}}}`), nil
		}
		return []byte(wide), nil
	})

	result, err := svc.Query(context.Background(), models.CatalogQuery{Search: "цемент", Page: 1, Viewport: models.ViewportDesktop})
	require.NoError(t, err)

	assert.Equal(t, catalog.FallbackApplied, result.Fallback)
	assert.Equal(t, []string{"a", "c"}, productIDs(result.Products))
	assert.Equal(t, models.Pagination{CurrentPage: 1, TotalPages: 1, TotalItems: 2}, result.Pagination)

	calls := src.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "цемент", calls[0].Get("q"))
	assert.Empty(t, calls[1].Get("search"))
	assert.Empty(t, calls[1].Get("q"))
	assert.Equal(t, "500", calls[1].Get("limit"))
	assert.Equal(t, "1", calls[1].Get("page"))
}

func TestCatalogService_SearchFallbackFailure(t *testing.T) {
	svc, _, _ := newTestService(func(_ context.Context, params url.Values) ([]byte, error) {
		if params.Get("search") != "" {
			return []byte(`[]`), nil
		}
		return nil, utils.ErrUpstreamUnavailable
	})

	result, err := svc.Query(context.Background(), models.CatalogQuery{Search: "цемент", Page: 1})
	require.NoError(t, err)
	assert.Equal(t, catalog.FallbackFailed, result.Fallback)
	assert.NotNil(t, result.Products)
	assert.Empty(t, result.Products)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "search fallback failed")
}

func TestCatalogService_NoFallbackWithoutSearch(t *testing.T) {
	svc, src, _ := newTestService(func(context.Context, url.Values) ([]byte, error) {
		return []byte(`{"products": []}`), nil
	})

	result, err := svc.Query(context.Background(), models.CatalogQuery{Page: 3})
	require.NoError(t, err)
	assert.Equal(t, catalog.FallbackNone, result.Fallback)
	assert.Equal(t, models.Pagination{CurrentPage: 3, TotalPages: 1, TotalItems: 0}, result.Pagination)
	assert.Len(t, src.Calls(), 1)
}

func TestCatalogService_PrimaryFailurePropagates(t *testing.T) {
	svc, _, _ := newTestService(func(context.Context, url.Values) ([]byte, error) {
		return nil, &utils.StatusError{StatusCode: 500}
	})

	_, err := svc.Query(context.Background(), models.CatalogQuery{Page: 1})
	assert.ErrorIs(t, err, utils.ErrUpstreamBadStatus)

	_, err = svc.Browse(context.Background(), "s1", models.CatalogQuery{Page: 1, Viewport: models.ViewportMobile})
	assert.ErrorIs(t, err, utils.ErrUpstreamBadStatus)
	_, err = svc.LoadMore(context.Background(), "s1")
	assert.ErrorIs(t, err, utils.ErrBrowseNotFound)
}

func TestCatalogService_ClientFilterApplied(t *testing.T) {
	svc, _, _ := newTestService(func(context.Context, url.Values) ([]byte, error) {
		return []byte(`[
			{"id": 1, "isNewProduct": true, "availability": "in_stock"},
			{"id": 2, "isNewProduct": false, "availability": "in_stock"},
			{"id": 3, "availability": "out_of_stock"}
		]`), nil
	})

	result, err := svc.Query(context.Background(), models.CatalogQuery{
		Page:    1,
		Filters: models.Filters{IsNew: true, InStock: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, productIDs(result.Products))
	assert.Equal(t, catalog.EnvelopeBareList, result.Envelope)
}

func TestCatalogService_MobileLoadMore(t *testing.T) {
	ctx := context.Background()
	svc, src, _ := newTestService(pagedCatalog(24))
	q := models.CatalogQuery{Page: 1, Viewport: models.ViewportMobile}

	view, err := svc.Browse(ctx, "s1", q)
	require.NoError(t, err)
	require.Len(t, view.Products, 8)
	assert.Equal(t, 3, view.Pagination.TotalPages)
	assert.True(t, view.HasMore)
	assert.Equal(t, catalog.WindowAccumulate, view.Policy)

	view, err = svc.LoadMore(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, view.Products, 16)
	assert.Equal(t, 2, view.Page)
	assert.Equal(t, "2", src.Calls()[1].Get("page"))
	assert.Equal(t, "8", src.Calls()[1].Get("limit"))

	view, err = svc.LoadMore(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, view.Products, 24)
	assert.False(t, view.HasMore)

	_, err = svc.LoadMore(ctx, "s1")
	assert.ErrorIs(t, err, utils.ErrNoMorePages)
}

func TestCatalogService_DesktopPageJump(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(pagedCatalog(40))

	_, err := svc.Browse(ctx, "s1", models.CatalogQuery{Page: 1, Viewport: models.ViewportDesktop})
	require.NoError(t, err)

	view, err := svc.Browse(ctx, "s1", models.CatalogQuery{Page: 3, Viewport: models.ViewportDesktop})
	require.NoError(t, err)
	assert.Equal(t, []string{"19", "20", "21", "22", "23", "24", "25", "26", "27"}, productIDs(view.Products))
	assert.False(t, view.HasMore)

	_, err = svc.LoadMore(ctx, "s1")
	assert.ErrorIs(t, err, utils.ErrNotAccumulating)
}

func TestCatalogService_StaleBrowseDiscarded(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{})

	svc, _, _ := newTestService(func(_ context.Context, params url.Values) ([]byte, error) {
		if params.Get("brand") == "Slow" {
			close(started)
			<-release
		}
		return []byte(`[{"id": "` + params.Get("brand") + `"}]`), nil
	})

	var slowErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, slowErr = svc.Browse(ctx, "s1", models.CatalogQuery{Page: 1, Filters: models.Filters{Brands: []string{"Slow"}}})
	}()
	<-started

	view, err := svc.Browse(ctx, "s1", models.CatalogQuery{Page: 1, Filters: models.Filters{Brands: []string{"Fast"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Fast"}, productIDs(view.Products))

	close(release)
	<-done
	assert.ErrorIs(t, slowErr, utils.ErrStaleResult)
}

func TestCatalogService_FilterPersistence(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newTestService(pagedCatalog(5))
	min := 100.0
	filters := models.Filters{Categories: []string{"tsement"}, PriceMin: &min}

	_, err := svc.Browse(ctx, "s1", models.CatalogQuery{Page: 1, Filters: filters})
	require.NoError(t, err)

	saved, found, err := svc.PersistedFilters(ctx, "s1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, filters.ToQuery(), saved.ToQuery())

	restored, ok, err := svc.Restore(ctx, "s1", url.Values{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filters.ToQuery(), restored)

	_, ok, err = svc.Restore(ctx, "s1", url.Values{"brand": {"Knauf"}})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Browse(ctx, "s1", models.CatalogQuery{Page: 1, Filters: filters, Search: "клей"})
	require.NoError(t, err)
	_, found, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Save(ctx, "s1", filters))
	require.NoError(t, svc.ClearFilters(ctx, "s1"))
	_, found, err = svc.PersistedFilters(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, found)

	assert.ErrorIs(t, svc.ClearFilters(ctx, ""), utils.ErrEmptySession)
}

func TestCatalogService_EmptySession(t *testing.T) {
	svc, _, _ := newTestService(pagedCatalog(1))

	_, err := svc.Browse(context.Background(), "", models.CatalogQuery{})
	assert.True(t, errors.Is(err, utils.ErrEmptySession))

	_, ok, err := svc.Restore(context.Background(), "", url.Values{})
	assert.NoError(t, err)
	assert.False(t, ok)
}
