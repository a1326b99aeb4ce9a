package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/athebyme/gomarket-storefront/internal/utils"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

// RedisOptions параметры подключения к Redis
type RedisOptions struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type RedisCache struct {
	client *redis.Client
}

var _ interfaces.CachePort = (*RedisCache)(nil)

// NewRedisCache подключается к Redis и проверяет соединение
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     orDefault(opts.PoolSize, 10),
		MinIdleConns: orDefault(opts.MinIdleConns, 5),
		MaxRetries:   orDefault(opts.MaxRetries, 3),
		DialTimeout:  orDefaultDuration(opts.DialTimeout, 3*time.Second),
		ReadTimeout:  orDefaultDuration(opts.ReadTimeout, 2*time.Second),
		WriteTimeout: orDefaultDuration(opts.WriteTimeout, 2*time.Second),
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// NewRedisCacheFromClient оборачивает готовый клиент
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, utils.ErrCacheMiss
		}
		return nil, err
	}
	return val, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisCache) DeleteByPattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 100 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("ошибка при удалении ключей кэша: %w", err)
			}
			keys = keys[:0]
		}
	}

	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("ошибка при удалении оставшихся ключей кэша: %w", err)
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("ошибка при сканировании ключей по шаблону: %w", err)
	}

	return nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orDefaultDuration(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}
