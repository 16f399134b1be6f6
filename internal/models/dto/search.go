package dto

import "strings"

// PageSizeOptions are the page sizes list endpoints accept.
var PageSizeOptions = []int{5, 10, 25, 50, 100}

const (
	DefaultPageSize = 10
	SortAsc         = "asc"
	SortDesc        = "desc"
)

// SearchRequest carries the paging and sorting fields shared by every list endpoint.
type SearchRequest struct {
	SearchTerm    string `json:"searchTerm,omitempty"`
	Page          int    `json:"page"`
	PageSize      int    `json:"pageSize"`
	SortBy        string `json:"sortBy,omitempty"`
	SortDirection string `json:"sortDirection,omitempty"`
}

// Normalize clamps paging to valid values and restricts SortBy to sortable.
// The first sortable column is the default.
func (r *SearchRequest) Normalize(sortable ...string) {
	r.SearchTerm = strings.TrimSpace(r.SearchTerm)
	if r.Page < 1 {
		r.Page = 1
	}
	if !validPageSize(r.PageSize) {
		r.PageSize = DefaultPageSize
	}
	r.SortDirection = strings.ToLower(strings.TrimSpace(r.SortDirection))
	if r.SortDirection != SortDesc {
		r.SortDirection = SortAsc
	}
	r.SortBy = matchColumn(r.SortBy, sortable)
}

// Offset returns the number of rows preceding the requested page.
func (r SearchRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

func validPageSize(size int) bool {
	for _, opt := range PageSizeOptions {
		if opt == size {
			return true
		}
	}
	return false
}

func matchColumn(column string, sortable []string) string {
	if len(sortable) == 0 {
		return ""
	}
	column = strings.TrimSpace(column)
	for _, s := range sortable {
		if strings.EqualFold(s, column) {
			return s
		}
	}
	return sortable[0]
}

type ClientSearchRequest struct {
	SearchRequest
	City     string `json:"city,omitempty"`
	IsActive *bool  `json:"isActive,omitempty"`
}

// ClientSortColumns are the fields a client list may be ordered by.
var ClientSortColumns = []string{"name", "code", "city", "createdAt"}

type CreateClientRequest struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	City  string `json:"city"`
}
