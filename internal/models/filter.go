package models

import "math"

const (
	// DefaultPageLimit — размер страницы по умолчанию.
	DefaultPageLimit = 10
	// MaxPageLimit — максимальный размер страницы.
	MaxPageLimit = 100
	// MaxPage ограничивает номер страницы, чтобы смещение не переполняло int32.
	MaxPage = math.MaxInt32 / MaxPageLimit
)

// Page описывает запрошенную страницу списка.
type Page struct {
	Page  int
	Limit int
}

// NewPage нормализует параметры пагинации.
func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Page: page, Limit: limit}
}

// Offset возвращает смещение для SQL-запроса.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination — метаданные страницы в ответе.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// NewPagination считает количество страниц для total записей.
func NewPagination(p Page, total int) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{Total: total, Page: p.Page, Limit: p.Limit, Pages: pages}
}
