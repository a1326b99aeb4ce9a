package catalog

import (
	"strings"

	"github.com/athebyme/gomarket-storefront/internal/domain/models"
)

// Predicate условие клиентской фильтрации
type Predicate func(p models.Product) bool

// Predicates собирает условия для установленных полей фильтра.
// Неустановленные поля условий не дают.
//
// Категория, бренд, новинка и распродажа пропускают товар, у которого
// соответствующего значения нет вовсе: страховочный фильтр не должен
// обнулять выдачу бэкенда из-за того, что в ответе нет необязательного поля.
// Наличие на складе проверяется всегда, цена только числовая
func Predicates(f models.Filters) []Predicate {
	f = f.Normalize()
	var preds []Predicate

	if len(f.Categories) > 0 {
		set := foldSet(f.Categories)
		preds = append(preds, func(p models.Product) bool {
			category, ok := ResolveCategory(p)
			if !ok {
				return true
			}
			_, selected := set[strings.ToLower(category)]
			return selected
		})
	}

	if len(f.Brands) > 0 {
		set := foldSet(f.Brands)
		preds = append(preds, func(p models.Product) bool {
			brand, ok := ResolveBrand(p)
			if !ok {
				return true
			}
			_, selected := set[strings.ToLower(brand)]
			return selected
		})
	}

	if f.IsNew {
		preds = append(preds, func(p models.Product) bool {
			isNew, present := ResolveNewFlag(p)
			return !present || isNew
		})
	}

	if f.OnSale {
		preds = append(preds, func(p models.Product) bool {
			onSale, present := ResolveSaleFlag(p)
			return !present || onSale
		})
	}

	if f.InStock {
		preds = append(preds, func(p models.Product) bool {
			availability, _ := p.String("availability")
			return availability == models.AvailabilityInStock
		})
	}

	// Границы проверяются независимо друг от друга, поэтому при
	// priceMin > priceMax не проходит ни один товар с числовой ценой
	if f.PriceMin != nil {
		min := *f.PriceMin
		preds = append(preds, func(p models.Product) bool {
			price, ok := NumericPrice(p)
			return !ok || price >= min
		})
	}

	if f.PriceMax != nil {
		max := *f.PriceMax
		preds = append(preds, func(p models.Product) bool {
			price, ok := NumericPrice(p)
			return !ok || price <= max
		})
	}

	return preds
}

// ApplyFilters повторно применяет фильтры к уже полученной странице.
// Порядок товаров сохраняется, результат никогда не nil
func ApplyFilters(products []models.Product, f models.Filters) []models.Product {
	preds := Predicates(f)
	out := make([]models.Product, 0, len(products))

next:
	for _, p := range products {
		for _, pred := range preds {
			if !pred(p) {
				continue next
			}
		}
		out = append(out, p)
	}
	return out
}

func foldSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}
