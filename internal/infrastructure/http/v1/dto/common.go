// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"strings"
	"time"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
)

// DayLayout is the date format of query parameters.
const DayLayout = "2006-01-02"

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Parsing helpers ---

// ParseID parses a UUID field, reporting the field name on failure.
func ParseID(field, raw string) (id.ID, error) {
	v, err := id.Parse(strings.TrimSpace(raw))
	if err != nil {
		return id.ID{}, apperror.NewValidation("invalid " + field).WithDetail("field", field)
	}
	return v, nil
}

// ParseOptionalID parses an optional UUID field; empty or nil yields nil.
func ParseOptionalID(field string, raw *string) (*id.ID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	v, err := ParseID(field, *raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ParseDay parses a YYYY-MM-DD or RFC 3339 value. A plain day becomes its first
// instant, or its last one when endOfDay is set. An empty value yields the zero time.
func ParseDay(field, raw string, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(DayLayout, raw)
	if err != nil {
		return time.Time{}, apperror.NewValidation("invalid date").
			WithDetail("field", field).
			WithDetail("expected", DayLayout)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
