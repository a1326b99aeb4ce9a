package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config содержит все настройки сервиса витрины
type Config struct {
	AppName  string
	Version  string
	LogLevel string
	ENV      string

	Server struct {
		Host            string
		Port            int
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
		RequestTimeout  time.Duration // таймаут обработки одного запроса
		RateLimit       float64       // входящих запросов в секунду на IP
		RateBurst       int
	}

	Redis struct {
		Enabled           bool
		Host              string
		Port              int
		Password          string
		DB                int
		PoolSize          int
		MinIdleConns      int
		ConnectTimeout    time.Duration
		ReadTimeout       time.Duration
		WriteTimeout      time.Duration
		MaxRetries        int
		DefaultExpiration time.Duration // срок жизни закэшированных ответов каталога
	}

	// Upstream описывает внешний Product API
	Upstream struct {
		BaseURL      string
		ProductsPath string
		Timeout      time.Duration
		RateLimit    float64 // запросов в секунду к внешнему API
		RateBurst    int
	}

	Catalog struct {
		FallbackPageSize int // размер страницы для повторного запроса без поиска
		MaxAccumulated   int // предел накопленного списка для "показать ещё"
	}

	Session struct {
		Store string        // redis | memory
		TTL   time.Duration // срок жизни сохранённых фильтров и состояния просмотра
	}

	Metrics struct {
		Enabled  bool
		Endpoint string
		Port     int // порт /metrics воркера прогрева
	}

	// Warmer прогрев кэша первых страниц каталога (cmd/worker)
	Warmer struct {
		Interval     time.Duration
		Pages        int
		Concurrency  int
		Sorts        []string
		PurgeOnStart bool // сбросить закэшированные ответы при старте воркера
	}

	Security struct {
		CORSAllowOrigins []string
	}

	Resilience struct {
		MaxRetries    int           // максимальное число повторов при 429/503
		RetryWaitTime time.Duration // базовое время ожидания между повторами
		MaxRetryWait  time.Duration // верхняя граница ожидания, в т.ч. для Retry-After
	}
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	v := viper.New()

	configFile := "config"
	if configPath != "" {
		configFile = configPath
	}

	v.SetConfigName(configFile)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
		// Файла нет: работаем на значениях по умолчанию и переменных окружения
	}

	setDefaults(v)
	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка десериализации конфигурации: %w", err)
	}

	cfg.ENV = v.GetString("env")
	if cfg.ENV == "" {
		cfg.ENV = "development"
		if envVar := os.Getenv("APP_ENV"); envVar != "" {
			cfg.ENV = envVar
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет значения, без которых сервис не сможет работать
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return errors.New("upstream.baseURL не задан")
	}
	if c.Catalog.FallbackPageSize < 1 {
		return fmt.Errorf("catalog.fallbackPageSize должен быть положительным: %d", c.Catalog.FallbackPageSize)
	}
	switch c.Session.Store {
	case "redis":
		if !c.Redis.Enabled {
			return errors.New("session.store=redis требует redis.enabled=true")
		}
	case "memory":
	default:
		return fmt.Errorf("неизвестное хранилище сессий: %q", c.Session.Store)
	}
	return nil
}

// setDefaults устанавливает значения по умолчанию
func setDefaults(v *viper.Viper) {
	v.SetDefault("appName", "storefront-catalog")
	v.SetDefault("version", "1.0.0")
	v.SetDefault("logLevel", "info")
	v.SetDefault("env", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "30s")
	v.SetDefault("server.shutdownTimeout", "5s")
	v.SetDefault("server.requestTimeout", "25s")
	v.SetDefault("server.rateLimit", 20)
	v.SetDefault("server.rateBurst", 40)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.minIdleConns", 2)
	v.SetDefault("redis.connectTimeout", "1s")
	v.SetDefault("redis.readTimeout", "1s")
	v.SetDefault("redis.writeTimeout", "1s")
	v.SetDefault("redis.maxRetries", 3)
	v.SetDefault("redis.defaultExpiration", "1m")

	v.SetDefault("upstream.baseURL", "http://localhost:8090")
	v.SetDefault("upstream.productsPath", "/api/products")
	v.SetDefault("upstream.timeout", "10s")
	v.SetDefault("upstream.rateLimit", 50)
	v.SetDefault("upstream.rateBurst", 10)

	v.SetDefault("catalog.fallbackPageSize", 500)
	v.SetDefault("catalog.maxAccumulated", 480)

	v.SetDefault("session.store", "memory")
	v.SetDefault("session.ttl", "30m")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.endpoint", "/metrics")
	v.SetDefault("metrics.port", 9091)

	v.SetDefault("warmer.interval", "45s")
	v.SetDefault("warmer.pages", 2)
	v.SetDefault("warmer.concurrency", 4)
	v.SetDefault("warmer.sorts", []string{"default"})
	v.SetDefault("warmer.purgeOnStart", false)

	v.SetDefault("security.corsAllowOrigins", []string{"*"})

	v.SetDefault("resilience.maxRetries", 3)
	v.SetDefault("resilience.retryWaitTime", "300ms")
	v.SetDefault("resilience.maxRetryWait", "5s")
}

// bindEnvVariables привязывает переменные окружения к конфигурации
func bindEnvVariables(v *viper.Viper) {
	_ = v.BindEnv("appName", "APP_NAME")
	_ = v.BindEnv("version", "APP_VERSION")
	_ = v.BindEnv("logLevel", "LOG_LEVEL")
	_ = v.BindEnv("env", "APP_ENV")

	_ = v.BindEnv("server.host", "SERVER_HOST")
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.readTimeout", "SERVER_READ_TIMEOUT")
	_ = v.BindEnv("server.writeTimeout", "SERVER_WRITE_TIMEOUT")
	_ = v.BindEnv("server.shutdownTimeout", "SERVER_SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("server.requestTimeout", "SERVER_REQUEST_TIMEOUT")
	_ = v.BindEnv("server.rateLimit", "SERVER_RATE_LIMIT")
	_ = v.BindEnv("server.rateBurst", "SERVER_RATE_BURST")

	_ = v.BindEnv("redis.enabled", "REDIS_ENABLED")
	_ = v.BindEnv("redis.host", "REDIS_HOST")
	_ = v.BindEnv("redis.port", "REDIS_PORT")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("redis.poolSize", "REDIS_POOL_SIZE")
	_ = v.BindEnv("redis.defaultExpiration", "REDIS_DEFAULT_EXPIRATION")

	_ = v.BindEnv("upstream.baseURL", "UPSTREAM_BASE_URL")
	_ = v.BindEnv("upstream.productsPath", "UPSTREAM_PRODUCTS_PATH")
	_ = v.BindEnv("upstream.timeout", "UPSTREAM_TIMEOUT")
	_ = v.BindEnv("upstream.rateLimit", "UPSTREAM_RATE_LIMIT")
	_ = v.BindEnv("upstream.rateBurst", "UPSTREAM_RATE_BURST")

	_ = v.BindEnv("catalog.fallbackPageSize", "CATALOG_FALLBACK_PAGE_SIZE")
	_ = v.BindEnv("catalog.maxAccumulated", "CATALOG_MAX_ACCUMULATED")

	_ = v.BindEnv("session.store", "SESSION_STORE")
	_ = v.BindEnv("session.ttl", "SESSION_TTL")

	_ = v.BindEnv("metrics.enabled", "METRICS_ENABLED")
	_ = v.BindEnv("metrics.endpoint", "METRICS_ENDPOINT")
	_ = v.BindEnv("metrics.port", "METRICS_PORT")

	_ = v.BindEnv("warmer.interval", "WARMER_INTERVAL")
	_ = v.BindEnv("warmer.pages", "WARMER_PAGES")
	_ = v.BindEnv("warmer.concurrency", "WARMER_CONCURRENCY")
	_ = v.BindEnv("warmer.purgeOnStart", "WARMER_PURGE_ON_START")

	_ = v.BindEnv("security.corsAllowOrigins", "CORS_ALLOW_ORIGINS")

	_ = v.BindEnv("resilience.maxRetries", "RESILIENCE_MAX_RETRIES")
	_ = v.BindEnv("resilience.retryWaitTime", "RESILIENCE_RETRY_WAIT_TIME")
	_ = v.BindEnv("resilience.maxRetryWait", "RESILIENCE_MAX_RETRY_WAIT")
}
