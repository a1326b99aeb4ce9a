package models

import (
	"net/url"
	"strconv"
	"strings"
)

// SortKey ключ сортировки каталога в терминах витрины
type SortKey string

const (
	SortDefault   SortKey = "default"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortName      SortKey = "name"
)

// ParseSortKey неизвестные значения превращает в SortDefault
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.TrimSpace(s)) {
	case SortPriceAsc:
		return SortPriceAsc
	case SortPriceDesc:
		return SortPriceDesc
	case SortName:
		return SortName
	default:
		return SortDefault
	}
}

// UpstreamValue значение параметра sort для внешнего API.
// Для SortDefault параметр не передается
func (s SortKey) UpstreamValue() (string, bool) {
	switch s {
	case SortPriceAsc:
		return "price_asc", true
	case SortPriceDesc:
		return "price_desc", true
	case SortName:
		return "name", true
	default:
		return "", false
	}
}

// ViewportClass грубая классификация ширины экрана
type ViewportClass string

const (
	ViewportMobile  ViewportClass = "mobile"
	ViewportTablet  ViewportClass = "tablet"
	ViewportDesktop ViewportClass = "desktop"
)

// Брейкпоинты в CSS-пикселях
const (
	TabletMinWidth  = 768
	DesktopMinWidth = 1024
)

// ParseViewport разбирает явное имя класса
func ParseViewport(s string) (ViewportClass, bool) {
	switch ViewportClass(strings.ToLower(strings.TrimSpace(s))) {
	case ViewportMobile:
		return ViewportMobile, true
	case ViewportTablet:
		return ViewportTablet, true
	case ViewportDesktop:
		return ViewportDesktop, true
	default:
		return "", false
	}
}

// ClassifyWidth определяет класс по ширине окна
func ClassifyWidth(width int) ViewportClass {
	switch {
	case width < TabletMinWidth:
		return ViewportMobile
	case width < DesktopMinWidth:
		return ViewportTablet
	default:
		return ViewportDesktop
	}
}

// PageSize размер страницы каталога для класса экрана
func (v ViewportClass) PageSize() int {
	switch v {
	case ViewportMobile:
		return 8
	case ViewportTablet:
		return 6
	default:
		return 9
	}
}

// Accumulates сообщает, что на этом классе экрана страницы дописываются
// кнопкой "показать ещё", а не заменяют друг друга
func (v ViewportClass) Accumulates() bool {
	return v == ViewportMobile || v == ViewportTablet
}

// CatalogQuery полное состояние запроса каталога со стороны витрины
type CatalogQuery struct {
	Filters  Filters       `json:"filters"`
	Search   string        `json:"search,omitempty"`
	Sort     SortKey       `json:"sort"`
	Page     int           `json:"page"` // с 1
	Viewport ViewportClass `json:"viewport"`
}

// ParseCatalogQuery читает запрос из параметров URL. Некорректная страница
// заменяется первой, класс экрана задается вызывающим
func ParseCatalogQuery(values url.Values, viewport ViewportClass) CatalogQuery {
	search := strings.TrimSpace(values.Get(ParamSearch))
	if search == "" {
		search = strings.TrimSpace(values.Get(ParamSearchQ))
	}

	page, err := strconv.Atoi(values.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	if viewport == "" {
		viewport = ViewportDesktop
	}

	return CatalogQuery{
		Filters:  ParseFilters(values),
		Search:   search,
		Sort:     ParseSortKey(values.Get(ParamSort)),
		Page:     page,
		Viewport: viewport,
	}
}

// PageSize размер страницы, производный от класса экрана
func (q CatalogQuery) PageSize() int {
	return q.Viewport.PageSize()
}

// Key ключ запроса без номера страницы. Смена ключа сбрасывает
// накопленный список. Класс экрана входит в ключ, поэтому переход
// между мобильной и десктопной раскладкой начинает просмотр заново
func (q CatalogQuery) Key() string {
	values := q.Filters.ToQuery()
	if q.Search != "" {
		values.Set(ParamSearch, q.Search)
	}
	if q.Sort != "" && q.Sort != SortDefault {
		values.Set(ParamSort, string(q.Sort))
	}
	values.Set("viewport", string(q.Viewport))
	return values.Encode()
}

// ToQuery параметры URL витрины для этого запроса (без страницы и класса экрана)
func (q CatalogQuery) ToQuery() url.Values {
	values := q.Filters.ToQuery()
	if q.Search != "" {
		values.Set(ParamSearch, q.Search)
	}
	if q.Sort != "" && q.Sort != SortDefault {
		values.Set(ParamSort, string(q.Sort))
	}
	return values
}
