// Package session хранилища состояния сессии каталога: сохраненные фильтры
// и состояние просмотра
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/athebyme/gomarket-storefront/internal/domain/catalog"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/internal/metrics"
	"github.com/athebyme/gomarket-storefront/internal/utils"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

// Виды хранилищ фильтров
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// FiltersKeyPrefix префикс ключей сохраненных фильтров в Redis
const FiltersKeyPrefix = "catalog:filters:"

// NewFilterStore выбирает хранилище по имени из конфигурации.
// Для redis нужен подключенный кэш
func NewFilterStore(kind string, redis interfaces.CachePort, ttl time.Duration) (catalog.FilterStore, error) {
	switch kind {
	case StoreRedis:
		if redis == nil {
			return nil, errors.New("хранилище фильтров redis требует подключения к Redis")
		}
		return NewRedisFilterStore(redis, ttl), nil
	case StoreMemory, "":
		return NewMemoryFilterStore(ttl), nil
	default:
		return nil, fmt.Errorf("неизвестное хранилище фильтров: %q", kind)
	}
}

// RedisFilterStore хранит фильтры JSON-строкой под ключом catalog:filters:{session}
type RedisFilterStore struct {
	cache interfaces.CachePort
	ttl   time.Duration
}

var _ catalog.FilterStore = (*RedisFilterStore)(nil)

func NewRedisFilterStore(cache interfaces.CachePort, ttl time.Duration) *RedisFilterStore {
	return &RedisFilterStore{cache: cache, ttl: ttl}
}

func (s *RedisFilterStore) Load(ctx context.Context, sessionID string) (models.Filters, bool, error) {
	key, err := filtersKey(sessionID)
	if err != nil {
		return models.Filters{}, false, err
	}

	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, utils.ErrCacheMiss) {
			observe(StoreRedis, "load", "miss")
			return models.Filters{}, false, nil
		}
		observe(StoreRedis, "load", "error")
		return models.Filters{}, false, fmt.Errorf("чтение фильтров из Redis: %w", err)
	}

	var filters models.Filters
	if err := json.Unmarshal(raw, &filters); err != nil {
		observe(StoreRedis, "load", "error")
		return models.Filters{}, false, fmt.Errorf("разбор сохраненных фильтров: %w", err)
	}
	observe(StoreRedis, "load", "hit")
	return filters.Normalize(), true, nil
}

func (s *RedisFilterStore) Save(ctx context.Context, sessionID string, filters models.Filters) error {
	key, err := filtersKey(sessionID)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(filters.Normalize())
	if err != nil {
		return fmt.Errorf("сериализация фильтров: %w", err)
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		observe(StoreRedis, "save", "error")
		return fmt.Errorf("запись фильтров в Redis: %w", err)
	}
	observe(StoreRedis, "save", "ok")
	return nil
}

func (s *RedisFilterStore) Clear(ctx context.Context, sessionID string) error {
	key, err := filtersKey(sessionID)
	if err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		observe(StoreRedis, "clear", "error")
		return fmt.Errorf("удаление фильтров из Redis: %w", err)
	}
	observe(StoreRedis, "clear", "ok")
	return nil
}

// MemoryFilterStore хранит фильтры в памяти процесса с истечением по TTL
type MemoryFilterStore struct {
	items *cache.Cache
}

var _ catalog.FilterStore = (*MemoryFilterStore)(nil)

func NewMemoryFilterStore(ttl time.Duration) *MemoryFilterStore {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &MemoryFilterStore{items: cache.New(ttl, 10*time.Minute)}
}

func (s *MemoryFilterStore) Load(_ context.Context, sessionID string) (models.Filters, bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return models.Filters{}, false, utils.ErrEmptySession
	}
	v, found := s.items.Get(sessionID)
	if !found {
		observe(StoreMemory, "load", "miss")
		return models.Filters{}, false, nil
	}
	observe(StoreMemory, "load", "hit")
	return cloneFilters(v.(models.Filters)), true, nil
}

func (s *MemoryFilterStore) Save(_ context.Context, sessionID string, filters models.Filters) error {
	if strings.TrimSpace(sessionID) == "" {
		return utils.ErrEmptySession
	}
	s.items.SetDefault(sessionID, cloneFilters(filters.Normalize()))
	observe(StoreMemory, "save", "ok")
	return nil
}

func (s *MemoryFilterStore) Clear(_ context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return utils.ErrEmptySession
	}
	s.items.Delete(sessionID)
	observe(StoreMemory, "clear", "ok")
	return nil
}

func filtersKey(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", utils.ErrEmptySession
	}
	return FiltersKeyPrefix + sessionID, nil
}

// cloneFilters копия без общих срезов и указателей
func cloneFilters(f models.Filters) models.Filters {
	out := f
	out.Categories = append([]string(nil), f.Categories...)
	out.Brands = append([]string(nil), f.Brands...)
	out.PriceMin = cloneFloat(f.PriceMin)
	out.PriceMax = cloneFloat(f.PriceMax)
	out.Rating = cloneFloat(f.Rating)
	return out.Normalize()
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func observe(store, operation, status string) {
	metrics.FilterStoreOperations.WithLabelValues(store, operation, status).Inc()
}
