package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/athebyme/gomarket-storefront/internal/domain/models"
)

// FilterStore хранилище сохраненных фильтров, привязанное к сессии каталога
type FilterStore interface {
	// Load возвращает сохраненные фильтры. found=false, если слот пуст
	Load(ctx context.Context, sessionID string) (filters models.Filters, found bool, err error)
	Save(ctx context.Context, sessionID string, filters models.Filters) error
	Clear(ctx context.Context, sessionID string) error
}

// SyncFilters обновляет слот после смены запроса: пустые фильтры и новый
// поисковый запрос очищают его, иначе фильтры сохраняются
func SyncFilters(ctx context.Context, store FilterStore, sessionID string, q models.CatalogQuery) error {
	filters := q.Filters.Normalize()
	if filters.IsEmpty() || strings.TrimSpace(q.Search) != "" {
		if err := store.Clear(ctx, sessionID); err != nil {
			return fmt.Errorf("clear saved filters: %w", err)
		}
		return nil
	}
	if err := store.Save(ctx, sessionID, filters); err != nil {
		return fmt.Errorf("save filters: %w", err)
	}
	return nil
}

// RestoreQuery строит параметры URL из сохраненных фильтров. Слот читается,
// только если в values нет ни одного параметра каталога: адрес важнее.
// Прочие параметры (например, viewport) переносятся как есть
func RestoreQuery(ctx context.Context, store FilterStore, sessionID string, values url.Values) (url.Values, bool, error) {
	if models.HasCatalogParams(values) {
		return nil, false, nil
	}

	filters, found, err := store.Load(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("load saved filters: %w", err)
	}
	if !found || filters.IsEmpty() {
		return nil, false, nil
	}

	restored := filters.ToQuery()
	for key, vals := range values {
		if key == "page" {
			continue
		}
		restored[key] = append([]string(nil), vals...)
	}
	return restored, true, nil
}
