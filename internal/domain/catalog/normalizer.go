package catalog

import (
	"bytes"
	"encoding/json"

	"github.com/athebyme/gomarket-storefront/internal/domain/models"
)

// EnvelopeKind форма ответа внешнего API
type EnvelopeKind string

const (
	EnvelopeBareList EnvelopeKind = "bare_list" // [ {...}, ... ]
	EnvelopeNested   EnvelopeKind = "data"      // { "data": { "products": [...], "pagination": {...} } }
	EnvelopeFlat     EnvelopeKind = "products"  // { "products": [...], "pagination": {...} }
	EnvelopeUnknown  EnvelopeKind = "unknown"
)

// Envelope распознанный ответ: вариант формы и сырые части, которые он несет
type Envelope struct {
	Kind       EnvelopeKind
	Products   json.RawMessage
	Pagination json.RawMessage
}

// shapePredicate распознает одну форму ответа
type shapePredicate func(payload json.RawMessage) (Envelope, bool)

// shapes проверяются по порядку, побеждает первая подошедшая форма
var shapes = []shapePredicate{
	bareListShape,
	nestedDataShape,
	flatProductsShape,
}

// DetectEnvelope определяет форму ответа. Никогда не паникует, для
// нераспознанного или битого JSON возвращает EnvelopeUnknown
func DetectEnvelope(payload []byte) Envelope {
	trimmed := bytes.TrimSpace(payload)
	for _, shape := range shapes {
		if env, ok := shape(trimmed); ok {
			return env
		}
	}

	// Форма не распознана, но пагинация верхнего уровня могла прийти
	env := Envelope{Kind: EnvelopeUnknown}
	if obj, ok := models.RawObject(trimmed); ok {
		env.Pagination = pickPagination(obj)
	}
	return env
}

func bareListShape(payload json.RawMessage) (Envelope, bool) {
	if !isArray(payload) {
		return Envelope{}, false
	}
	return Envelope{Kind: EnvelopeBareList, Products: payload}, true
}

func nestedDataShape(payload json.RawMessage) (Envelope, bool) {
	obj, ok := models.RawObject(payload)
	if !ok {
		return Envelope{}, false
	}
	data, ok := obj["data"]
	if !ok {
		return Envelope{}, false
	}
	inner, ok := models.RawObject(data)
	if !ok {
		return Envelope{}, false
	}
	products, ok := inner["products"]
	if !ok || !isArray(products) {
		return Envelope{}, false
	}

	pagination := inner["pagination"]
	if !isObject(pagination) {
		pagination = obj["pagination"]
	}
	return Envelope{Kind: EnvelopeNested, Products: products, Pagination: onlyObject(pagination)}, true
}

func flatProductsShape(payload json.RawMessage) (Envelope, bool) {
	obj, ok := models.RawObject(payload)
	if !ok {
		return Envelope{}, false
	}
	products, ok := obj["products"]
	if !ok || !isArray(products) {
		return Envelope{}, false
	}
	return Envelope{Kind: EnvelopeFlat, Products: products, Pagination: pickPagination(obj)}, true
}

// pickPagination ищет описание пагинации: сначала data.pagination, затем pagination
func pickPagination(obj map[string]json.RawMessage) json.RawMessage {
	if data, ok := obj["data"]; ok {
		if inner, ok := models.RawObject(data); ok && isObject(inner["pagination"]) {
			return inner["pagination"]
		}
	}
	return onlyObject(obj["pagination"])
}

// Normalize извлекает список товаров и пагинацию из ответа любой
// поддерживаемой формы. Гарантии: не паникует, Products не nil,
// пагинация всегда заполнена (при отсутствии синтезируется для requestedPage)
func Normalize(payload []byte, requestedPage int) models.ProductPage {
	env := DetectEnvelope(payload)
	return models.ProductPage{
		Products:   decodeProducts(env.Products),
		Pagination: decodePagination(env.Pagination, requestedPage),
	}
}

// decodeProducts разбирает массив товаров, пропуская элементы, не являющиеся объектами
func decodeProducts(raw json.RawMessage) []models.Product {
	products := make([]models.Product, 0)
	if len(raw) == 0 {
		return products
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return products
	}

	for _, item := range items {
		fields, ok := models.RawObject(item)
		if !ok {
			continue
		}
		products = append(products, models.NewProduct(fields))
	}
	return products
}

// Имена полей пагинации в порядке предпочтения
var (
	currentPageFields = []string{"currentPage", "current_page", "page"}
	totalPagesFields  = []string{"totalPages", "total_pages", "pages"}
	totalItemsFields  = []string{"totalItems", "total_items", "total", "totalCount"}
)

func decodePagination(raw json.RawMessage, requestedPage int) models.Pagination {
	fallback := models.FallbackPagination(requestedPage)

	obj, ok := models.RawObject(raw)
	if !ok {
		return fallback
	}

	current, ok := firstInt(obj, currentPageFields)
	if !ok || current < 1 {
		current = fallback.CurrentPage
	}
	totalPages, ok := firstInt(obj, totalPagesFields)
	if !ok || totalPages < 0 {
		totalPages = fallback.TotalPages
	}
	totalItems, ok := firstInt(obj, totalItemsFields)
	if !ok || totalItems < 0 {
		totalItems = fallback.TotalItems
	}

	return models.Pagination{CurrentPage: current, TotalPages: totalPages, TotalItems: totalItems}
}

func firstInt(obj map[string]json.RawMessage, keys []string) (int, bool) {
	for _, key := range keys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		if n, ok := models.RawNumber(raw); ok {
			return int(n), true
		}
	}
	return 0, false
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '[' && json.Valid(trimmed)
}

func isObject(raw json.RawMessage) bool {
	_, ok := models.RawObject(raw)
	return ok
}

func onlyObject(raw json.RawMessage) json.RawMessage {
	if isObject(raw) {
		return raw
	}
	return nil
}
