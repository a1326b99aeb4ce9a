package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/athebyme/gomarket-storefront/internal/domain/catalog"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/internal/metrics"
	"github.com/athebyme/gomarket-storefront/internal/utils"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

const tracerName = "github.com/athebyme/gomarket-storefront/catalog"

// DefaultFallbackPageSize размер страницы повторного запроса при пустом поиске
const DefaultFallbackPageSize = 500

// CatalogServiceInterface операции каталога витрины
type CatalogServiceInterface interface {
	// Query выполняет конвейер для одной страницы без состояния сессии
	Query(ctx context.Context, q models.CatalogQuery) (*CatalogResult, error)
	// Browse навигация в просмотре сессии: новая страница заменяет список
	Browse(ctx context.Context, sessionID string, q models.CatalogQuery) (*View, error)
	// LoadMore дописывает следующую страницу в накопительном просмотре
	LoadMore(ctx context.Context, sessionID string) (*View, error)
	// Restore параметры URL из сохраненных фильтров, если адрес их не задает
	Restore(ctx context.Context, sessionID string, values url.Values) (url.Values, bool, error)
	PersistedFilters(ctx context.Context, sessionID string) (models.Filters, bool, error)
	ClearFilters(ctx context.Context, sessionID string) error
}

// ViewRegistry хранит состояние просмотра по сессиям
type ViewRegistry interface {
	Get(sessionID string) (*catalog.Reconciler, bool)
	GetOrCreate(sessionID string) *catalog.Reconciler
}

// CatalogResult результат конвейера для одной страницы
type CatalogResult struct {
	Query      models.CatalogQuery    `json:"query"`
	Products   []models.Product       `json:"products"`
	Pagination models.Pagination      `json:"pagination"`
	Envelope   catalog.EnvelopeKind   `json:"envelope"`
	Fallback   catalog.FallbackStatus `json:"fallback"`
	Warnings   []string               `json:"warnings,omitempty"`
}

// Page страница в виде, который принимает Reconciler
func (r *CatalogResult) Page() models.ProductPage {
	return models.ProductPage{Products: r.Products, Pagination: r.Pagination}
}

// View состояние просмотра сессии после навигации или подгрузки
type View struct {
	Query      models.CatalogQuery    `json:"query"`
	Phase      catalog.Phase          `json:"phase"`
	Policy     catalog.WindowPolicy   `json:"policy"`
	Page       int                    `json:"page"`
	Products   []models.Product       `json:"products"`
	Pagination models.Pagination      `json:"pagination"`
	HasMore    bool                   `json:"hasMore"`
	Truncated  bool                   `json:"truncated,omitempty"`
	Fallback   catalog.FallbackStatus `json:"fallback"`
	Warnings   []string               `json:"warnings,omitempty"`
}

// CatalogOptions настройки конвейера
type CatalogOptions struct {
	FallbackPageSize int
}

// CatalogService конвейер каталога: кодирование запроса, внешний API,
// нормализация, откат поиска и клиентская фильтрация
type CatalogService struct {
	source  interfaces.ProductSourcePort
	filters catalog.FilterStore
	views   ViewRegistry
	logger  interfaces.LoggerPort
	tracer  trace.Tracer

	fallbackPageSize int
}

var _ CatalogServiceInterface = (*CatalogService)(nil)

// NewCatalogService создает сервис каталога
func NewCatalogService(
	source interfaces.ProductSourcePort,
	filters catalog.FilterStore,
	views ViewRegistry,
	logger interfaces.LoggerPort,
	opts CatalogOptions,
) *CatalogService {
	pageSize := opts.FallbackPageSize
	if pageSize < 1 {
		pageSize = DefaultFallbackPageSize
	}
	return &CatalogService{
		source:           source,
		filters:          filters,
		views:            views,
		logger:           logger,
		tracer:           otel.Tracer(tracerName),
		fallbackPageSize: pageSize,
	}
}

// Query выполняет конвейер для одной страницы
func (s *CatalogService) Query(ctx context.Context, q models.CatalogQuery) (*CatalogResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	return s.run(ctx, q)
}

// Browse начинает навигацию в просмотре сессии и синхронизирует сохраненные фильтры
func (s *CatalogService) Browse(ctx context.Context, sessionID string, q models.CatalogQuery) (*View, error) {
	if sessionID == "" {
		return nil, utils.ErrEmptySession
	}

	if err := catalog.SyncFilters(ctx, s.filters, sessionID, q); err != nil {
		// Просмотр работает и без сохранения фильтров
		s.logger.WarnWithContext(ctx, "Не удалось синхронизировать сохранённые фильтры",
			interfaces.LogField{Key: "session_id", Value: sessionID},
			interfaces.LogField{Key: "error", Value: err.Error()},
		)
	}

	rec := s.views.GetOrCreate(sessionID)
	return s.settle(ctx, rec, rec.Begin(q))
}

// LoadMore подгружает следующую страницу для мобильного и планшетного просмотра
func (s *CatalogService) LoadMore(ctx context.Context, sessionID string) (*View, error) {
	if sessionID == "" {
		return nil, utils.ErrEmptySession
	}

	rec, ok := s.views.Get(sessionID)
	if !ok {
		return nil, utils.ErrBrowseNotFound
	}

	ticket, err := rec.NextPage()
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, rec, ticket)
}

// Restore восстанавливает параметры URL из сохраненных фильтров
func (s *CatalogService) Restore(ctx context.Context, sessionID string, values url.Values) (url.Values, bool, error) {
	if sessionID == "" {
		return nil, false, nil
	}
	return catalog.RestoreQuery(ctx, s.filters, sessionID, values)
}

// PersistedFilters сохраненные фильтры сессии
func (s *CatalogService) PersistedFilters(ctx context.Context, sessionID string) (models.Filters, bool, error) {
	if sessionID == "" {
		return models.Filters{}, false, utils.ErrEmptySession
	}
	return s.filters.Load(ctx, sessionID)
}

// ClearFilters очищает сохраненные фильтры сессии
func (s *CatalogService) ClearFilters(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return utils.ErrEmptySession
	}
	return s.filters.Clear(ctx, sessionID)
}

func (s *CatalogService) settle(ctx context.Context, rec *catalog.Reconciler, ticket catalog.Ticket) (*View, error) {
	result, err := s.run(ctx, ticket.Query)
	if err != nil {
		if failErr := rec.Fail(ticket); errors.Is(failErr, utils.ErrStaleResult) {
			metrics.StaleResults.Inc()
		}
		return nil, err
	}

	snapshot, err := rec.Settle(ticket, result.Page())
	if err != nil {
		if errors.Is(err, utils.ErrStaleResult) {
			metrics.StaleResults.Inc()
			s.logger.DebugWithContext(ctx, "Отброшен ответ устаревшего запроса",
				interfaces.LogField{Key: "page", Value: ticket.Page},
				interfaces.LogField{Key: "generation", Value: ticket.Generation},
			)
		}
		return nil, err
	}

	return &View{
		Query:      ticket.Query,
		Phase:      snapshot.Phase,
		Policy:     snapshot.Policy,
		Page:       snapshot.Page,
		Products:   snapshot.Products,
		Pagination: snapshot.Pagination,
		HasMore:    snapshot.HasMore(),
		Truncated:  snapshot.Truncated,
		Fallback:   result.Fallback,
		Warnings:   result.Warnings,
	}, nil
}

func (s *CatalogService) run(ctx context.Context, q models.CatalogQuery) (*CatalogResult, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Query", trace.WithAttributes(
		attribute.Int("catalog.page", q.Page),
		attribute.String("catalog.viewport", string(q.Viewport)),
		attribute.Bool("catalog.search", q.Search != ""),
	))
	defer span.End()

	body, err := s.source.FetchProducts(ctx, catalog.EncodeParams(q, q.PageSize()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "primary fetch")
		return nil, fmt.Errorf("запрос каталога: %w", err)
	}

	envelope := catalog.DetectEnvelope(body).Kind
	if envelope == catalog.EnvelopeUnknown {
		s.logger.WarnWithContext(ctx, "Нераспознанная форма ответа Product API",
			interfaces.LogField{Key: "size", Value: len(body)},
		)
	}
	page := catalog.Normalize(body, q.Page)

	result := &CatalogResult{
		Query:    q,
		Envelope: envelope,
		Fallback: catalog.FallbackNone,
	}

	if catalog.NeedsFallback(q.Search, page) {
		page, result.Fallback, result.Warnings = s.searchFallback(ctx, q)
		span.SetAttributes(attribute.String("catalog.fallback", string(result.Fallback)))
	}

	result.Products = catalog.ApplyFilters(page.Products, q.Filters)
	result.Pagination = page.Pagination
	if result.Fallback == catalog.FallbackApplied {
		result.Pagination = models.SinglePage(len(result.Products))
	}
	return result, nil
}

// searchFallback повторяет запрос без поискового слова и ищет совпадения локально.
// Ошибка повторного запроса не повторяется и не роняет конвейер: результат
// явно помечается как неудачный, список пуст
func (s *CatalogService) searchFallback(ctx context.Context, q models.CatalogQuery) (models.ProductPage, catalog.FallbackStatus, []string) {
	ctx, span := s.tracer.Start(ctx, "catalog.SearchFallback", trace.WithAttributes(
		attribute.Int("catalog.fallback_page_size", s.fallbackPageSize),
	))
	defer span.End()

	body, err := s.source.FetchProducts(ctx, catalog.FallbackParams(q, s.fallbackPageSize))
	if err != nil {
		metrics.SearchFallbacks.WithLabelValues(string(catalog.FallbackFailed)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "fallback fetch")
		s.logger.ErrorWithContext(ctx, "Откат поиска не удался",
			interfaces.LogField{Key: "search", Value: q.Search},
			interfaces.LogField{Key: "error", Value: err.Error()},
		)
		empty := models.ProductPage{Products: []models.Product{}, Pagination: models.SinglePage(0)}
		return empty, catalog.FallbackFailed, []string{"search fallback failed: " + err.Error()}
	}

	wide := catalog.Normalize(body, 1)
	local := catalog.SearchLocally(wide.Products, q.Search)
	metrics.SearchFallbacks.WithLabelValues(string(catalog.FallbackApplied)).Inc()
	s.logger.InfoWithContext(ctx, "Поиск выполнен локально по широкой выборке",
		interfaces.LogField{Key: "search", Value: q.Search},
		interfaces.LogField{Key: "scanned", Value: len(wide.Products)},
		interfaces.LogField{Key: "matched", Value: len(local.Products)},
	)
	return local, catalog.FallbackApplied, nil
}
