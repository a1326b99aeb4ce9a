package models

// Pagination описание страницы, полученной из внешнего API
type Pagination struct {
	CurrentPage int `json:"currentPage"` // с 1
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
}

// FallbackPagination синтетическое описание, когда API его не прислал
func FallbackPagination(requestedPage int) Pagination {
	if requestedPage < 1 {
		requestedPage = 1
	}
	return Pagination{CurrentPage: requestedPage, TotalPages: 1, TotalItems: 0}
}

// SinglePage описание единственной страницы из n элементов
func SinglePage(n int) Pagination {
	return Pagination{CurrentPage: 1, TotalPages: 1, TotalItems: n}
}

// HasMore есть ли страницы после текущей
func (p Pagination) HasMore() bool {
	return p.CurrentPage < p.TotalPages
}

// ProductPage нормализованный ответ внешнего API: список товаров и пагинация.
// Products никогда не равен nil
type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}
