package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/athebyme/gomarket-storefront/config"
	"github.com/athebyme/gomarket-storefront/internal/adapters/cache"
	"github.com/athebyme/gomarket-storefront/internal/adapters/logger"
	"github.com/athebyme/gomarket-storefront/internal/adapters/productapi"
	"github.com/athebyme/gomarket-storefront/internal/adapters/session"
	"github.com/athebyme/gomarket-storefront/internal/api"
	"github.com/athebyme/gomarket-storefront/internal/domain/services"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

// @title        Storefront Catalog API
// @version      1.0
// @description  BFF каталога витрины поверх внешнего Product API
// @BasePath     /api/v1
func main() {
	configName := flag.String("config", "", "имя файла конфигурации без расширения")
	flag.Parse()

	cfg, err := config.Load(*configName)
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
	log.Info("Инициализация сервиса",
		interfaces.LogField{Key: "app_name", Value: cfg.AppName},
		interfaces.LogField{Key: "version", Value: cfg.Version},
		interfaces.LogField{Key: "env", Value: cfg.ENV},
	)

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
		log.Fatal("Ошибка инициализации клиента Product API", interfaces.LogField{Key: "error", Value: err.Error()})
	}
	log.Info("Клиент Product API инициализирован", interfaces.LogField{Key: "base_url", Value: cfg.Upstream.BaseURL})

	var source interfaces.ProductSourcePort = client
	var redisCache *cache.RedisCache

	if cfg.Redis.Enabled {
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		redisCache, err = cache.NewRedisCache(connectCtx, cache.RedisOptions{
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
			log.Fatal("Ошибка подключения к Redis", interfaces.LogField{Key: "error", Value: err.Error()})
		}
		log.Info("Кэш инициализирован")

		if cfg.Redis.DefaultExpiration > 0 {
			source = cache.NewCachedProductSource(client, redisCache, cfg.Redis.DefaultExpiration, cfg.Server.RequestTimeout, log)
			log.Info("Ответы каталога кэшируются",
				interfaces.LogField{Key: "ttl", Value: cfg.Redis.DefaultExpiration.String()})
		}
	}

	var sessionCache interfaces.CachePort
	if redisCache != nil {
		sessionCache = redisCache
	}
	filterStore, err := session.NewFilterStore(cfg.Session.Store, sessionCache, cfg.Session.TTL)
	if err != nil {
		log.Fatal("Ошибка инициализации хранилища фильтров", interfaces.LogField{Key: "error", Value: err.Error()})
	}
	log.Info("Хранилище фильтров инициализировано", interfaces.LogField{Key: "store", Value: cfg.Session.Store})

	views := session.NewRegistry(cfg.Session.TTL, cfg.Catalog.MaxAccumulated)

	catalogService := services.NewCatalogService(source, filterStore, views, log, services.CatalogOptions{
		FallbackPageSize: cfg.Catalog.FallbackPageSize,
	})
	log.Info("Сервис каталога инициализирован")

	router := api.SetupRouter(catalogService, log, api.RouterConfig{
		CORSAllowedOrigins: cfg.Security.CORSAllowOrigins,
		RequestTimeout:     cfg.Server.RequestTimeout,
		RateLimit:          cfg.Server.RateLimit,
		RateBurst:          cfg.Server.RateBurst,
		SessionTTL:         cfg.Session.TTL,
		MetricsEnabled:     cfg.Metrics.Enabled,
		MetricsEndpoint:    cfg.Metrics.Endpoint,
	})
	log.Info("Маршрутизатор настроен")

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Сервер запущен", interfaces.LogField{Key: "address", Value: server.Addr})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Ошибка запуска сервера", interfaces.LogField{Key: "error", Value: err.Error()})
		}
	}()

	go func() {
		<-quit
		log.Info("Получен сигнал завершения, выполняется graceful shutdown...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Ошибка при graceful shutdown", interfaces.LogField{Key: "error", Value: err.Error()})
		}
		log.Info("HTTP сервер остановлен")

		if redisCache != nil {
			if err := redisCache.Close(); err != nil {
				log.Error("Ошибка при закрытии Redis", interfaces.LogField{Key: "error", Value: err.Error()})
			}
		}

		close(done)
	}()

	<-done
	log.Info("Сервер корректно завершил работу")
}
