package respond

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// TokenExpiredHeader is set to "true" on 401 responses caused by an expired
// token. The API writes it and the client reads it.
const TokenExpiredHeader = "Token-Expired"

// Envelope is the standard API response wrapper used across handlers.
type Envelope[T any] struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      *T        `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Page is the data payload of every list endpoint.
type Page[T any] struct {
	Items           []T  `json:"items"`
	Page            int  `json:"page"`
	PageSize        int  `json:"pageSize"`
	TotalCount      int  `json:"totalCount"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// NewPage computes the pagination metadata for one page of a result set.
func NewPage[T any](items []T, page, pageSize, totalCount int) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = (totalCount + pageSize - 1) / pageSize
	}
	return Page[T]{
		Items:           items,
		Page:            page,
		PageSize:        pageSize,
		TotalCount:      totalCount,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

// Consistent reports whether the metadata obeys the paging invariants.
func (p Page[T]) Consistent() bool {
	if p.PageSize <= 0 || p.Page < 1 {
		return false
	}
	want := (p.TotalCount + p.PageSize - 1) / p.PageSize
	return p.TotalPages == want &&
		p.HasNextPage == (p.Page < p.TotalPages) &&
		p.HasPreviousPage == (p.Page > 1)
}

var now = time.Now

// JSON writes a success response using the common envelope.
func JSON[T any](w http.ResponseWriter, status int, message string, data T) {
	write(w, status, Envelope[T]{Success: true, Message: message, Data: &data, Timestamp: now().UTC()})
}

// OK writes a success response carrying no data.
func OK(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope[struct{}]{Success: true, Message: message, Timestamp: now().UTC()})
}

// Error writes a failure response; data is always absent and message is never empty.
func Error(w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	write(w, status, Envelope[struct{}]{Success: false, Message: message, Timestamp: now().UTC()})
}

// Raw writes payload as-is, for endpoints with their own response shape.
func Raw(w http.ResponseWriter, status int, payload any) {
	write(w, status, payload)
}

func write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("respond: encode payload failed")
	}
}
