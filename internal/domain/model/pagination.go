package model

import "errors"

const (
	DefaultPage  = 1
	DefaultLimit = 50
)

var (
	ErrInvalidPage  = errors.New("page must be a positive integer")
	ErrInvalidLimit = errors.New("limit must be a positive integer")
)

// Page selects a 1-based window of a listing.
type Page struct {
	Number int
	Limit  int
}

// NewPage validates a page request.
func NewPage(number, limit int) (Page, error) {
	if number < 1 {
		return Page{}, ErrInvalidPage
	}
	if limit < 1 {
		return Page{}, ErrInvalidLimit
	}
	return Page{Number: number, Limit: limit}, nil
}

// Pagination describes the window returned alongside a page of records.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Paginate slices records for p. A page past the end yields an empty slice.
func Paginate(records []VideoRecord, p Page) ([]VideoRecord, Pagination) {
	total := len(records)
	totalPages := total / p.Limit
	if total%p.Limit != 0 {
		totalPages++
	}
	info := Pagination{
		Page:       p.Number,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
	}

	if p.Number > totalPages {
		return []VideoRecord{}, info
	}
	start := (p.Number - 1) * p.Limit
	end := total
	if remaining := total - start; remaining > p.Limit {
		end = start + p.Limit
	}
	return records[start:end], info
}
