package utils

// Pagination страница выборки по смещению
type Pagination struct {
	Page       int  `json:"page"`        // Номер страницы (начиная с 1)
	PageSize   int  `json:"page_size"`   // Размер страницы
	TotalItems int  `json:"total_items"` // Общее количество элементов
	TotalPages int  `json:"total_pages"` // Общее количество страниц
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// DefaultPageSize размер страницы, если клиент его не передал
const DefaultPageSize = 10

// NewPagination создает страницу; некорректные значения заменяются первой страницей
// и размером по умолчанию
func NewPagination(page, pageSize int) *Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Pagination{Page: page, PageSize: pageSize}
}

// SetTotal устанавливает общее количество элементов и пересчитывает зависимые поля
func (p *Pagination) SetTotal(totalItems int) {
	if totalItems < 0 {
		totalItems = 0
	}
	p.TotalItems = totalItems
	p.TotalPages = (totalItems + p.PageSize - 1) / p.PageSize
	p.HasNext = p.Page < p.TotalPages
	p.HasPrev = p.Page > 1
}

// GetOffset смещение первого элемента страницы
func (p *Pagination) GetOffset() int {
	return (p.Page - 1) * p.PageSize
}

// GetLimit размер страницы
func (p *Pagination) GetLimit() int {
	return p.PageSize
}

// Bounds границы страницы в срезе длины n: items[start:end].
// За последней страницей start == end
func (p *Pagination) Bounds(n int) (start, end int) {
	start = p.GetOffset()
	if start > n {
		start = n
	}
	end = start + p.GetLimit()
	if end > n {
		end = n
	}
	return start, end
}
