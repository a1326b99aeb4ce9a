package models

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Имена параметров URL, в которых витрина хранит фильтры
const (
	ParamCategory = "category"
	ParamBrand    = "brand"
	ParamPriceMin = "priceMin"
	ParamPriceMax = "priceMax"
	ParamRating   = "rating"
	ParamInStock  = "inStock"
	ParamOnSale   = "onSale"
	ParamIsNew    = "isNew"
	ParamSearch   = "search"
	ParamSearchQ  = "q"
	ParamSort     = "sort"
)

// catalogParams параметры, наличие которых означает, что URL уже задает состояние каталога
var catalogParams = []string{
	ParamCategory, "categories", ParamBrand, "brands",
	ParamPriceMin, ParamPriceMax, ParamRating,
	ParamInStock, ParamOnSale, ParamIsNew,
	ParamSearch, ParamSearchQ, ParamSort,
}

// Filters набор выбранных пользователем критериев сужения каталога.
// Категории и бренды хранятся как отсортированные множества без дублей.
// PriceMin <= PriceMax не проверяется: перевернутые границы отсекают все товары с числовой ценой
type Filters struct {
	Categories []string `json:"categories,omitempty"`
	Brands     []string `json:"brands,omitempty"`
	PriceMin   *float64 `json:"priceMin,omitempty"`
	PriceMax   *float64 `json:"priceMax,omitempty"`
	Rating     *float64 `json:"rating,omitempty"`
	InStock    bool     `json:"inStock,omitempty"`
	OnSale     bool     `json:"onSale,omitempty"`
	IsNew      bool     `json:"isNew,omitempty"`
}

// IsEmpty сообщает, что ни один фильтр не выбран
func (f Filters) IsEmpty() bool {
	return len(f.Categories) == 0 &&
		len(f.Brands) == 0 &&
		f.PriceMin == nil &&
		f.PriceMax == nil &&
		f.Rating == nil &&
		!f.InStock && !f.OnSale && !f.IsNew
}

// Normalize приводит множества к каноническому виду
func (f Filters) Normalize() Filters {
	f.Categories = normalizeSet(f.Categories)
	f.Brands = normalizeSet(f.Brands)
	return f
}

// ToQuery кодирует фильтры в параметры URL витрины.
// Результат детерминирован: ParseFilters(f.ToQuery()) == f.Normalize()
func (f Filters) ToQuery() url.Values {
	f = f.Normalize()
	values := url.Values{}

	for _, c := range f.Categories {
		values.Add(ParamCategory, c)
	}
	for _, b := range f.Brands {
		values.Add(ParamBrand, b)
	}
	if f.PriceMin != nil {
		values.Set(ParamPriceMin, FormatNumber(*f.PriceMin))
	}
	if f.PriceMax != nil {
		values.Set(ParamPriceMax, FormatNumber(*f.PriceMax))
	}
	if f.Rating != nil {
		values.Set(ParamRating, FormatNumber(*f.Rating))
	}
	if f.InStock {
		values.Set(ParamInStock, "true")
	}
	if f.OnSale {
		values.Set(ParamOnSale, "true")
	}
	if f.IsNew {
		values.Set(ParamIsNew, "true")
	}

	return values
}

// ParseFilters читает фильтры из параметров URL.
// Повторяющиеся category и brand берутся как есть, значение может содержать запятую.
// Списки через запятую понимаются только в categories и brands.
// Нечисловые границы цены и рейтинга игнорируются
func ParseFilters(values url.Values) Filters {
	f := Filters{
		Categories: append(splitList(values["categories"]), values[ParamCategory]...),
		Brands:     append(splitList(values["brands"]), values[ParamBrand]...),
		PriceMin:   parseNumber(values.Get(ParamPriceMin)),
		PriceMax:   parseNumber(values.Get(ParamPriceMax)),
		Rating:     parseNumber(values.Get(ParamRating)),
		InStock:    parseFlag(values.Get(ParamInStock)),
		OnSale:     parseFlag(values.Get(ParamOnSale)),
		IsNew:      parseFlag(values.Get(ParamIsNew)),
	}
	return f.Normalize()
}

// HasCatalogParams сообщает, что URL уже несет состояние каталога и
// сохраненные фильтры восстанавливать не нужно
func HasCatalogParams(values url.Values) bool {
	for _, key := range catalogParams {
		for _, v := range values[key] {
			if strings.TrimSpace(v) != "" {
				return true
			}
		}
	}
	return false
}

// FormatNumber печатает число без лишних нулей: 100, 99.5
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func normalizeSet(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

func parseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
