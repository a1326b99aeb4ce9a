// Package metrics метрики Prometheus сервиса витрины
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP
var (
	HTTPDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_durations_seconds",
		Help:    "Длительность HTTP запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method", "status"})

	RequestsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Общее количество HTTP запросов",
	}, []string{"path", "method", "status"})

	ActiveRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "http_active_requests",
		Help: "Количество активных HTTP запросов",
	})
)

// Кэш и хранилища
var (
	CacheOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_operations_total",
		Help: "Количество операций с кэшем",
	}, []string{"operation", "status"})

	FilterStoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_filter_store_operations_total",
		Help: "Операции с сохранёнными фильтрами",
	}, []string{"store", "operation", "status"})
)

// Внешний Product API и конвейер каталога
var (
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_upstream_requests_total",
		Help: "Запросы к внешнему Product API по коду ответа",
	}, []string{"status"})

	UpstreamDurations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_upstream_duration_seconds",
		Help:    "Длительность запросов к внешнему Product API",
		Buckets: prometheus.DefBuckets,
	})

	UpstreamRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_upstream_retries_total",
		Help: "Повторные запросы после 429/503",
	})

	SearchFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_search_fallbacks_total",
		Help: "Откаты поиска на локальное сопоставление",
	}, []string{"status"})

	StaleResults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_stale_results_total",
		Help: "Отброшенные ответы устаревших запросов",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_active_sessions",
		Help: "Сессии каталога с активным состоянием просмотра",
	})
)

// Прогрев кэша
var (
	WarmupRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_warmup_requests_total",
		Help: "Запросы прогрева кэша каталога",
	}, []string{"viewport", "status"})

	WarmupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_warmup_cycle_duration_seconds",
		Help:    "Длительность цикла прогрева кэша",
		Buckets: prometheus.DefBuckets,
	})

	WarmupActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_warmup_active_goroutines",
		Help: "Количество активных горутин прогрева",
	})
)
