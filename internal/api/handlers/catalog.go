package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/athebyme/gomarket-storefront/internal/api/middleware"
	"github.com/athebyme/gomarket-storefront/internal/domain/catalog"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/internal/domain/services"
	"github.com/athebyme/gomarket-storefront/internal/utils"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

// CatalogHandler обработчик запросов каталога витрины
type CatalogHandler struct {
	catalogService services.CatalogServiceInterface
	logger         interfaces.LoggerPort
}

// NewCatalogHandler создает новый обработчик каталога
func NewCatalogHandler(catalogService services.CatalogServiceInterface, logger interfaces.LoggerPort) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// errorResponse представляет структуру ответа с ошибкой
type errorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// response представляет структуру успешного ответа
type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// productsMeta метаданные ответа списка товаров
type productsMeta struct {
	Query      models.CatalogQuery    `json:"query"`
	Pagination models.Pagination      `json:"pagination"`
	Envelope   catalog.EnvelopeKind   `json:"envelope"`
	Fallback   catalog.FallbackStatus `json:"fallback"`
	Warnings   []string               `json:"warnings,omitempty"`
}

// filtersData сохраненные фильтры сессии
type filtersData struct {
	Filters models.Filters `json:"filters"`
	Query   string         `json:"query"`
}

// ListProducts godoc
// @Summary      Страница каталога
// @Description  Выполняет конвейер каталога для одной страницы без состояния сессии
// @Tags         catalog
// @Produce      json
// @Param        search    query  string  false  "Поисковая строка (алиас q)"
// @Param        category  query  []string false "Категории" collectionFormat(multi)
// @Param        brand     query  []string false "Бренды" collectionFormat(multi)
// @Param        priceMin  query  number  false  "Нижняя граница цены"
// @Param        priceMax  query  number  false  "Верхняя граница цены"
// @Param        sort      query  string  false  "default | price-asc | price-desc | name"
// @Param        page      query  int     false  "Номер страницы"
// @Param        viewport  query  string  false  "mobile | tablet | desktop"
// @Success      200  {object}  response
// @Failure      400  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /catalog/products [get]
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	result, err := h.catalogService.Query(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err, "Ошибка получения каталога")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response{
		Success: true,
		Data:    result.Products,
		Meta: productsMeta{
			Query:      result.Query,
			Pagination: result.Pagination,
			Envelope:   result.Envelope,
			Fallback:   result.Fallback,
			Warnings:   result.Warnings,
		},
	})
}

// GetView godoc
// @Summary      Просмотр каталога в сессии
// @Description  Без параметров каталога восстанавливает сохраненные фильтры редиректом 302.
// @Description  На десктопе страница заменяет список, на мобильных и планшетах начинает накопление
// @Tags         catalog
// @Produce      json
// @Param        X-Catalog-Session  header  string  false  "Идентификатор сессии каталога"
// @Param        page      query  int     false  "Номер страницы"
// @Param        viewport  query  string  false  "mobile | tablet | desktop"
// @Param        width     query  int     false  "Ширина окна в CSS-пикселях"
// @Success      200  {object}  response
// @Success      302  "Редирект на адрес с восстановленными фильтрами"
// @Failure      400  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /catalog/view [get]
func (h *CatalogHandler) GetView(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())

	restored, ok, err := h.catalogService.Restore(r.Context(), sessionID, r.URL.Query())
	if err != nil {
		// Без сохраненных фильтров каталог все равно показывается
		h.logger.WarnWithContext(r.Context(), "Не удалось восстановить фильтры",
			interfaces.LogField{Key: "error", Value: err.Error()})
	}
	if ok {
		target := *r.URL
		target.RawQuery = restored.Encode()
		http.Redirect(w, r, target.RequestURI(), http.StatusFound)
		return
	}

	q, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	view, err := h.catalogService.Browse(r.Context(), sessionID, q)
	if err != nil {
		h.writeError(w, r, err, "Ошибка получения каталога")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response{Success: true, Data: view})
}

// LoadMore godoc
// @Summary      Показать ещё
// @Description  Дописывает следующую страницу в накопительный просмотр сессии
// @Tags         catalog
// @Produce      json
// @Param        X-Catalog-Session  header  string  false  "Идентификатор сессии каталога"
// @Success      200  {object}  response
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /catalog/view/more [post]
func (h *CatalogHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	view, err := h.catalogService.LoadMore(r.Context(), middleware.SessionID(r.Context()))
	if err != nil {
		h.writeError(w, r, err, "Ошибка подгрузки каталога")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response{Success: true, Data: view})
}

// GetFilters godoc
// @Summary      Сохраненные фильтры
// @Tags         filters
// @Produce      json
// @Param        X-Catalog-Session  header  string  false  "Идентификатор сессии каталога"
// @Success      200  {object}  response
// @Failure      404  {object}  errorResponse
// @Router       /catalog/filters [get]
func (h *CatalogHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	filters, found, err := h.catalogService.PersistedFilters(r.Context(), middleware.SessionID(r.Context()))
	if err != nil {
		h.writeError(w, r, err, "Ошибка чтения сохранённых фильтров")
		return
	}
	if !found {
		h.writeError(w, r, utils.ErrNoSavedFilters, "Сохранённых фильтров нет")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response{
		Success: true,
		Data:    filtersData{Filters: filters, Query: filters.ToQuery().Encode()},
	})
}

// DeleteFilters godoc
// @Summary      Очистить сохраненные фильтры
// @Tags         filters
// @Param        X-Catalog-Session  header  string  false  "Идентификатор сессии каталога"
// @Success      204
// @Router       /catalog/filters [delete]
func (h *CatalogHandler) DeleteFilters(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogService.ClearFilters(r.Context(), middleware.SessionID(r.Context())); err != nil {
		h.writeError(w, r, err, "Ошибка очистки сохранённых фильтров")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) parseQuery(w http.ResponseWriter, r *http.Request) (models.CatalogQuery, bool) {
	viewport, err := ResolveViewport(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{
			Error:   "bad_request",
			Code:    http.StatusBadRequest,
			Message: "viewport должен быть mobile, tablet или desktop",
		})
		return models.CatalogQuery{}, false
	}
	return models.ParseCatalogQuery(r.URL.Query(), viewport), true
}

// writeError переводит ошибку сервиса в HTTP-ответ
func (h *CatalogHandler) writeError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status, code := classifyError(err)

	fields := []interface{}{
		interfaces.LogField{Key: "error", Value: err.Error()},
		interfaces.LogField{Key: "status", Value: status},
	}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorWithContext(r.Context(), message, fields...)
	} else {
		h.logger.DebugWithContext(r.Context(), message, fields...)
	}

	render.Status(r, status)
	render.JSON(w, r, errorResponse{
		Error:   code,
		Code:    status,
		Message: message + ": " + err.Error(),
	})
}

// statusClientClosedRequest клиент закрыл соединение до ответа (код nginx)
const statusClientClosedRequest = 499

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, utils.ErrEmptySession),
		errors.Is(err, utils.ErrInvalidViewport):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, utils.ErrBrowseNotFound),
		errors.Is(err, utils.ErrNoSavedFilters):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, utils.ErrStaleResult),
		errors.Is(err, utils.ErrNoMorePages),
		errors.Is(err, utils.ErrNotAccumulating),
		errors.Is(err, utils.ErrWindowFull),
		errors.Is(err, utils.ErrFetchInProgress):
		return http.StatusConflict, "conflict"
	case errors.Is(err, utils.ErrUpstreamUnavailable),
		errors.Is(err, utils.ErrUpstreamBadStatus):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, "client_closed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
