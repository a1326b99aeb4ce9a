package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/athebyme/gomarket-storefront/config"
	"github.com/athebyme/gomarket-storefront/internal/adapters/cache"
	"github.com/athebyme/gomarket-storefront/internal/adapters/logger"
	"github.com/athebyme/gomarket-storefront/internal/adapters/productapi"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/internal/domain/services"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

// Воркер прогрева кэша: периодически перезапрашивает первые страницы каталога
// без фильтров и кладет ответы в Redis, откуда их читает API
func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, err := logger.NewZapLogger(cfg.LogLevel, cfg.ENV == "production")
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	log.Info("Инициализация воркера",
		interfaces.LogField{Key: "app_name", Value: cfg.AppName + "-worker"},
		interfaces.LogField{Key: "version", Value: cfg.Version},
		interfaces.LogField{Key: "env", Value: cfg.ENV},
	)

	if !cfg.Redis.Enabled || cfg.Redis.DefaultExpiration <= 0 {
		log.Fatal("Прогрев кэша требует redis.enabled=true и положительный redis.defaultExpiration")
	}

	// Запускаем HTTP сервер для метрик если они включены
	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("OK"))
			})

			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			log.Info("Запуск HTTP сервера для метрик",
				interfaces.LogField{Key: "addr", Value: addr})

			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Error("Ошибка запуска HTTP сервера для метрик",
					interfaces.LogField{Key: "error", Value: err.Error()})
			}
		}()
	}

	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	cacheClient, err := cache.NewRedisCache(connectCtx, cache.RedisOptions{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.ConnectTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	connectCancel()
	if err != nil {
		log.Fatal("Ошибка инициализации кэша",
			interfaces.LogField{Key: "error", Value: err.Error()})
	}
	defer cacheClient.Close()
	log.Info("Кэш инициализирован")

	client, err := productapi.NewClient(productapi.Options{
		BaseURL:       cfg.Upstream.BaseURL,
		ProductsPath:  cfg.Upstream.ProductsPath,
		Timeout:       cfg.Upstream.Timeout,
		RateLimit:     cfg.Upstream.RateLimit,
		RateBurst:     cfg.Upstream.RateBurst,
		MaxRetries:    cfg.Resilience.MaxRetries,
		RetryWaitTime: cfg.Resilience.RetryWaitTime,
		MaxRetryWait:  cfg.Resilience.MaxRetryWait,
	}, log)
	if err != nil {
		log.Fatal("Ошибка инициализации клиента Product API",
			interfaces.LogField{Key: "error", Value: err.Error()})
	}

	source := cache.NewCachedProductSource(client, cacheClient, cfg.Redis.DefaultExpiration, cfg.Server.RequestTimeout, log)

	sorts := make([]models.SortKey, 0, len(cfg.Warmer.Sorts))
	for _, s := range cfg.Warmer.Sorts {
		sorts = append(sorts, models.ParseSortKey(s))
	}
	warmer := services.NewCacheWarmer(source, log, services.CacheWarmerOptions{
		Pages:        cfg.Warmer.Pages,
		Concurrency:  cfg.Warmer.Concurrency,
		Sorts:        sorts,
		PurgeOnStart: cfg.Warmer.PurgeOnStart,
	})

	interval := cfg.Warmer.Interval
	if interval <= 0 || interval >= cfg.Redis.DefaultExpiration {
		// Ответы должны обновляться раньше, чем истечет их TTL
		interval = cfg.Redis.DefaultExpiration * 3 / 4
	}

	// Каналы для сигналов и завершения
	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		warmer.Run(ctx, interval)
	}()

	go func() {
		<-quit
		log.Info("Получен сигнал завершения, выполняется graceful shutdown...")
		cancel()
		wg.Wait()
		close(done)
	}()

	log.Info("Воркер запущен",
		interfaces.LogField{Key: "interval", Value: interval.String()},
		interfaces.LogField{Key: "pages", Value: cfg.Warmer.Pages},
	)
	<-done
	log.Info("Воркер корректно завершил работу")
}
