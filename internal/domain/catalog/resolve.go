package catalog

import (
	"encoding/json"
	"strings"

	"github.com/athebyme/gomarket-storefront/internal/domain/models"
)

// Поля, под которыми внешний API присылает неоднозначные значения.
// Порядок задает приоритет
var (
	categoryObjectFields = []string{"slug", "id", "name"}
	brandObjectFields    = []string{"name", "title", "label"}
	newFlagFields        = []string{"isNewProduct", "isNew", "is_new", "new"}
	saleFlagFields       = []string{"isOnSale", "onSale", "is_on_sale"}
)

// ResolveCategory значение категории товара: сама строка или slug/id/name
// вложенного объекта. Пустая строка и ok=false, если значения нет
func ResolveCategory(p models.Product) (string, bool) {
	raw, ok := p.Raw("category")
	if !ok {
		return "", false
	}
	return resolveStringOrObject(raw, categoryObjectFields)
}

// ResolveBrand название бренда: строка или name/title/label объекта.
// Если поля brand нет, используется плоское brandName
func ResolveBrand(p models.Product) (string, bool) {
	if raw, ok := p.Raw("brand"); ok {
		if v, ok := resolveStringOrObject(raw, brandObjectFields); ok {
			return v, true
		}
	}
	if v, ok := p.String("brandName"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), true
	}
	return "", false
}

// ResolveNewFlag признак новинки. present=false, если товар не несет ни одного
// из известных полей; иначе isNew истинно только для значения ровно true
func ResolveNewFlag(p models.Product) (isNew bool, present bool) {
	for _, field := range newFlagFields {
		if !p.Has(field) {
			continue
		}
		v, isBool := p.Bool(field)
		return isBool && v, true
	}
	return false, false
}

// ResolveSaleFlag признак распродажи. Поле oldPrice учитывается только когда
// оно истинно (ненулевая цена); флаги isOnSale/onSale/is_on_sale считаются
// присутствующими в любом ненулевом значении, но дают распродажу только при true
func ResolveSaleFlag(p models.Product) (onSale bool, present bool) {
	if p.Truthy("oldPrice") {
		return true, true
	}
	for _, field := range saleFlagFields {
		if !p.Has(field) {
			continue
		}
		v, isBool := p.Bool(field)
		return isBool && v, true
	}
	return false, false
}

// NumericPrice цена товара, если она числовая
func NumericPrice(p models.Product) (float64, bool) {
	return p.Number("price")
}

// SearchFields текстовые поля, по которым ищет откат поиска
func SearchFields(p models.Product) []string {
	fields := make([]string, 0, 4)
	for _, key := range []string{"name", "slug", "description"} {
		if v, ok := p.String(key); ok && v != "" {
			fields = append(fields, v)
		}
	}
	if brand, ok := ResolveBrand(p); ok {
		fields = append(fields, brand)
	}
	return fields
}

func resolveStringOrObject(raw json.RawMessage, objectFields []string) (string, bool) {
	if s, ok := models.RawString(raw); ok {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	obj, ok := models.RawObject(raw)
	if !ok {
		return "", false
	}
	for _, field := range objectFields {
		v, ok := obj[field]
		if !ok {
			continue
		}
		if s := strings.TrimSpace(models.RawScalar(v)); s != "" {
			return s, true
		}
	}
	return "", false
}
