package interfaces

import (
	"context"
	"net/url"
)

// ProductSourcePort источник ответов внешнего Product API.
// Возвращает тело ответа как есть, разбор формы выполняет нормализатор каталога
type ProductSourcePort interface {
	FetchProducts(ctx context.Context, params url.Values) ([]byte, error)
}
