package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/athebyme/gomarket-storefront/internal/metrics"
	"github.com/athebyme/gomarket-storefront/internal/utils"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

// ProductsKeyPrefix префикс ключей закэшированных ответов Product API
const ProductsKeyPrefix = "catalog:products:"

const defaultFetchTimeout = 30 * time.Second

// CachedProductSource кэширует ответы внешнего API по набору параметров.
// Одинаковые одновременные промахи выполняют один запрос к источнику.
// Ошибки кэша запрос не роняют: они логируются и считаются в метриках.
// Общий запрос к источнику не зависит от отмены контекста вызвавшего его
// клиента и ограничен собственным таймаутом fetchTimeout
type CachedProductSource struct {
	source       interfaces.ProductSourcePort
	cache        interfaces.CachePort
	ttl          time.Duration
	fetchTimeout time.Duration
	logger       interfaces.LoggerPort
	group        singleflight.Group
}

var _ interfaces.ProductSourcePort = (*CachedProductSource)(nil)

func NewCachedProductSource(source interfaces.ProductSourcePort, cache interfaces.CachePort, ttl, fetchTimeout time.Duration, logger interfaces.LoggerPort) *CachedProductSource {
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	return &CachedProductSource{
		source:       source,
		cache:        cache,
		ttl:          ttl,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

func (s *CachedProductSource) FetchProducts(ctx context.Context, params url.Values) ([]byte, error) {
	key := ProductsKey(params)

	cached, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		metrics.CacheOperations.WithLabelValues("get", "hit").Inc()
		return cached, nil
	case errors.Is(err, utils.ErrCacheMiss):
		metrics.CacheOperations.WithLabelValues("get", "miss").Inc()
	default:
		metrics.CacheOperations.WithLabelValues("get", "error").Inc()
		s.logger.WarnWithContext(ctx, "Ошибка чтения кэша каталога",
			interfaces.LogField{Key: "key", Value: key},
			interfaces.LogField{Key: "error", Value: err.Error()},
		)
	}

	ch := s.group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		body, err := s.source.FetchProducts(fetchCtx, params)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(fetchCtx, key, body, s.ttl); err != nil {
			metrics.CacheOperations.WithLabelValues("set", "error").Inc()
			s.logger.WarnWithContext(ctx, "Ошибка записи в кэш каталога",
				interfaces.LogField{Key: "key", Value: key},
				interfaces.LogField{Key: "error", Value: err.Error()},
			)
		} else {
			metrics.CacheOperations.WithLabelValues("set", "ok").Inc()
		}
		return body, nil
	})

	select {
	case <-ctx.Done():
		// запрос продолжается для остальных ожидающих, этот клиент уходит
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			metrics.CacheOperations.WithLabelValues("get", "coalesced").Inc()
		}
		return res.Val.([]byte), nil
	}
}

// Refresh запрашивает источник в обход кэша и перезаписывает ответ.
// В отличие от FetchProducts ошибка записи в кэш возвращается
func (s *CachedProductSource) Refresh(ctx context.Context, params url.Values) error {
	body, err := s.source.FetchProducts(ctx, params)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, ProductsKey(params), body, s.ttl); err != nil {
		metrics.CacheOperations.WithLabelValues("set", "error").Inc()
		return fmt.Errorf("запись прогретого ответа: %w", err)
	}
	metrics.CacheOperations.WithLabelValues("set", "ok").Inc()
	return nil
}

// Invalidate удаляет все закэшированные ответы
func (s *CachedProductSource) Invalidate(ctx context.Context) error {
	return s.cache.DeleteByPattern(ctx, ProductsKeyPrefix+"*")
}

// ProductsKey ключ кэша для набора параметров. Encode сортирует ключи,
// поэтому порядок добавления параметров на ключ не влияет
func ProductsKey(params url.Values) string {
	sum := sha1.Sum([]byte(params.Encode()))
	return ProductsKeyPrefix + hex.EncodeToString(sum[:])
}
