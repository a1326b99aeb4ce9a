package interfaces

import (
	"context"
	"time"
)

// CachePort определяет интерфейс для работы с системой кэширования.
// Используется кэшем ответов каталога и хранилищем сохранённых фильтров.
type CachePort interface {
	// Get получает значение из кэша по ключу.
	// Если значение не найдено, возвращает utils.ErrCacheMiss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кэше с указанным сроком действия.
	// Если expiration равно 0, срок действия не устанавливается
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error

	// Delete удаляет значение из кэша по ключу
	Delete(ctx context.Context, key string) error

	// DeleteByPattern удаляет все значения, соответствующие шаблону,
	// например "catalog:products:*"
	DeleteByPattern(ctx context.Context, pattern string) error

	// Ping проверяет доступность кэша
	Ping(ctx context.Context) error

	Close() error
}
