package session

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/athebyme/gomarket-storefront/internal/domain/catalog"
	"github.com/athebyme/gomarket-storefront/internal/metrics"
)

// Registry состояния просмотра по сессиям. Неактивная сессия вытесняется по TTL.
// Gauge активных сессий выставляется по числу записей, а не инкрементами:
// go-cache не вызывает OnEvicted при перезаписи истекшей, но еще не вычищенной записи
type Registry struct {
	mu             sync.Mutex
	views          *cache.Cache
	maxAccumulated int
	gauge          prometheus.Gauge
}

func NewRegistry(ttl time.Duration, maxAccumulated int) *Registry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return newRegistry(ttl, ttl/2, maxAccumulated, metrics.ActiveSessions)
}

// newRegistry с нулевым cleanup истекшие записи не вычищаются фоном
func newRegistry(ttl, cleanup time.Duration, maxAccumulated int, gauge prometheus.Gauge) *Registry {
	r := &Registry{
		views:          cache.New(ttl, cleanup),
		maxAccumulated: maxAccumulated,
		gauge:          gauge,
	}
	// go-cache вызывает обработчик вне своей блокировки
	r.views.OnEvicted(func(string, interface{}) { r.syncGauge() })
	return r
}

func (r *Registry) syncGauge() {
	r.gauge.Set(float64(r.views.ItemCount()))
}

// Get существующий просмотр сессии. Обращение продлевает его жизнь
func (r *Registry) Get(sessionID string) (*catalog.Reconciler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, found := r.views.Get(sessionID)
	if !found {
		return nil, false
	}
	rec := v.(*catalog.Reconciler)
	r.views.SetDefault(sessionID, rec)
	return rec, true
}

// GetOrCreate просмотр сессии, при отсутствии создается новый в Idle
func (r *Registry) GetOrCreate(sessionID string) *catalog.Reconciler {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, found := r.views.Get(sessionID); found {
		rec := v.(*catalog.Reconciler)
		r.views.SetDefault(sessionID, rec)
		return rec
	}

	rec := catalog.NewReconciler(r.maxAccumulated)
	r.views.SetDefault(sessionID, rec)
	r.syncGauge()
	return rec
}

// Forget удаляет просмотр сессии
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views.Delete(sessionID)
}

// Len число хранимых сессий, включая истекшие до ближайшей очистки
func (r *Registry) Len() int {
	return r.views.ItemCount()
}
