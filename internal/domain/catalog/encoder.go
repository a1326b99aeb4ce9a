// Package catalog содержит конвейер каталога витрины: кодирование запроса
// во внешний API, нормализацию ответа, клиентскую фильтрацию, поиск с
// откатом и согласование пагинации.
package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/athebyme/gomarket-storefront/internal/domain/models"
)

// Алиасы параметров внешнего API. Соглашение об именах у бэкенда неизвестно,
// поэтому одно логическое значение отправляется под всеми ключами сразу
var (
	CategoryKeys     = []string{"category", "categorySlug", "categoryId"}
	CategoryArrayKey = "categories"
	BrandKeys        = []string{"brand", "brandName"}
	BrandArrayKey    = "brands"
	PriceMinKeys     = []string{"priceMin", "minPrice", "price_min"}
	PriceMaxKeys     = []string{"priceMax", "maxPrice", "price_max"}
	RatingKeys       = []string{"rating", "minRating"}
	InStockKeys      = []string{"inStock", "in_stock"}
	OnSaleKeys       = []string{"onSale", "isOnSale", "on_sale"}
	IsNewKeys        = []string{"isNew", "isNewProduct", "is_new"}
	SearchKeys       = []string{"search", "q"}
	PageKey          = "page"
	PageSizeKeys     = []string{"limit", "pageSize"}
	SortParamKey     = "sort"
	AvailabilityKey  = "availability"
)

// EncodeParams кодирует состояние каталога в параметры внешнего API.
// Неустановленные значения пропускаются целиком: пустых строк и "undefined" в результате нет
func EncodeParams(q models.CatalogQuery, pageSize int) url.Values {
	bag := url.Values{}
	f := q.Filters.Normalize()

	if len(f.Categories) > 0 {
		setAll(bag, CategoryKeys, strings.Join(f.Categories, ","))
		bag[CategoryArrayKey] = append([]string(nil), f.Categories...)
	}
	if len(f.Brands) > 0 {
		setAll(bag, BrandKeys, strings.Join(f.Brands, ","))
		bag[BrandArrayKey] = append([]string(nil), f.Brands...)
	}
	if f.PriceMin != nil {
		setAll(bag, PriceMinKeys, models.FormatNumber(*f.PriceMin))
	}
	if f.PriceMax != nil {
		setAll(bag, PriceMaxKeys, models.FormatNumber(*f.PriceMax))
	}
	if f.Rating != nil {
		setAll(bag, RatingKeys, models.FormatNumber(*f.Rating))
	}
	if f.InStock {
		setAll(bag, InStockKeys, "true")
		bag.Set(AvailabilityKey, models.AvailabilityInStock)
	}
	if f.OnSale {
		setAll(bag, OnSaleKeys, "true")
	}
	if f.IsNew {
		setAll(bag, IsNewKeys, "true")
	}

	if search := strings.TrimSpace(q.Search); search != "" {
		setAll(bag, SearchKeys, search)
	}

	if sort, ok := q.Sort.UpstreamValue(); ok {
		bag.Set(SortParamKey, sort)
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	bag.Set(PageKey, strconv.Itoa(page))
	if pageSize > 0 {
		setAll(bag, PageSizeKeys, strconv.Itoa(pageSize))
	}

	return bag
}

// FallbackParams параметры повторного запроса при пустом поиске:
// без поискового слова, первая страница, увеличенный размер страницы
func FallbackParams(q models.CatalogQuery, pageSize int) url.Values {
	q.Search = ""
	q.Page = 1
	return EncodeParams(q, pageSize)
}

func setAll(bag url.Values, keys []string, value string) {
	for _, key := range keys {
		bag.Set(key, value)
	}
}
