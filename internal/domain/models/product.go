package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// Availability значения поля availability во внешнем API
const (
	AvailabilityInStock    = "in_stock"
	AvailabilityOutOfStock = "out_of_stock"
	AvailabilityPreOrder   = "pre_order"
)

var errProductNotObject = errors.New("product payload is not a JSON object")

// Product товар внешнего Product API. Форма полей в разных ответах
// различается (brand строкой или объектом, флаги под разными именами),
// поэтому товар хранится как исходный JSON-объект и отдается клиенту без изменений.
// Неоднозначные поля разбираются резолверами пакета catalog
type Product struct {
	fields map[string]json.RawMessage
}

// NewProduct создает товар из уже разобранного JSON-объекта
func NewProduct(fields map[string]json.RawMessage) Product {
	return Product{fields: fields}
}

// ProductFromMap удобный конструктор для тестов и демо-данных
func ProductFromMap(m map[string]interface{}) (Product, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return Product{}, err
	}
	var p Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// MarshalJSON отдает исходный объект товара
func (p Product) MarshalJSON() ([]byte, error) {
	if p.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.fields)
}

// UnmarshalJSON принимает только JSON-объекты
func (p *Product) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errProductNotObject
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return err
	}
	p.fields = fields
	return nil
}

// Has сообщает, что поле присутствует и не равно null
func (p Product) Has(key string) bool {
	raw, ok := p.fields[key]
	return ok && !isNull(raw)
}

// Raw возвращает исходное значение поля
func (p Product) Raw(key string) (json.RawMessage, bool) {
	raw, ok := p.fields[key]
	if !ok || isNull(raw) {
		return nil, false
	}
	return raw, true
}

// String возвращает значение поля, если это JSON-строка
func (p Product) String(key string) (string, bool) {
	raw, ok := p.Raw(key)
	if !ok {
		return "", false
	}
	return RawString(raw)
}

// Number возвращает значение поля, если это JSON-число
func (p Product) Number(key string) (float64, bool) {
	raw, ok := p.Raw(key)
	if !ok {
		return 0, false
	}
	return RawNumber(raw)
}

// Bool возвращает значение поля, если это JSON-boolean
func (p Product) Bool(key string) (bool, bool) {
	raw, ok := p.Raw(key)
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}

// Truthy вычисляет истинность поля по правилам JavaScript:
// отсутствие, null, false, 0 и пустая строка ложны, все остальное истинно
func (p Product) Truthy(key string) bool {
	raw, ok := p.Raw(key)
	if !ok {
		return false
	}
	if s, ok := RawString(raw); ok {
		return s != ""
	}
	if n, ok := RawNumber(raw); ok {
		return n != 0
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	return true
}

// ID идентификатор товара строкой (в API встречаются и строки, и числа)
func (p Product) ID() string {
	raw, ok := p.Raw("id")
	if !ok {
		return ""
	}
	return RawScalar(raw)
}

// RawString разбирает JSON-строку
func RawString(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}

// RawNumber разбирает JSON-число. Строки вида "100" числом не считаются
func RawNumber(raw json.RawMessage) (float64, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0, false
	}
	if c := trimmed[0]; c != '-' && (c < '0' || c > '9') {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return 0, false
	}
	return n, true
}

// RawObject разбирает JSON-объект
func RawObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	obj := make(map[string]json.RawMessage)
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// RawScalar печатает строку или число как строку; прочие значения дают ""
func RawScalar(raw json.RawMessage) string {
	if s, ok := RawString(raw); ok {
		return s
	}
	if n, ok := RawNumber(raw); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
