package catalog

import (
	"strings"

	"github.com/athebyme/gomarket-storefront/internal/domain/models"
)

// FallbackStatus исход откатного поиска
type FallbackStatus string

const (
	FallbackNone    FallbackStatus = "none"    // откат не понадобился
	FallbackApplied FallbackStatus = "applied" // повторный запрос выполнен, совпадения отобраны локально
	FallbackFailed  FallbackStatus = "failed"  // повторный запрос не удался, список пуст
)

// NeedsFallback сообщает, что поиск ничего не дал и нужен повторный запрос без поискового слова
func NeedsFallback(search string, page models.ProductPage) bool {
	return strings.TrimSpace(search) != "" && len(page.Products) == 0
}

// MatchSearch регистронезависимое вхождение term в name, slug, description
// или название бренда товара. Пустой term подходит любому товару
func MatchSearch(p models.Product, term string) bool {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return true
	}
	for _, field := range SearchFields(p) {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// SearchLocally отбирает совпадения из широкой выборки и схлопывает
// пагинацию в одну синтетическую страницу
func SearchLocally(products []models.Product, term string) models.ProductPage {
	matches := make([]models.Product, 0)
	for _, p := range products {
		if MatchSearch(p, term) {
			matches = append(matches, p)
		}
	}
	return models.ProductPage{
		Products:   matches,
		Pagination: models.SinglePage(len(matches)),
	}
}
