package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cargo-logistics-service/internal/domain"
)

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type ListResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewList maps one page of domain values to its response shape.
func NewList[D, T any](p domain.Page[D], conv func(D) T) ListResponse[T] {
	out := make([]T, 0, len(p.Items))
	for _, it := range p.Items {
		out = append(out, conv(it))
	}
	return ListResponse[T]{
		Data: out,
		Pagination: Pagination{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      p.Total,
			TotalPages: p.TotalPages(),
		},
	}
}

// Map converts a slice without pagination.
func Map[D, T any](in []D, conv func(D) T) []T {
	out := make([]T, 0, len(in))
	for _, it := range in {
		out = append(out, conv(it))
	}
	return out
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Date is a calendar date. It accepts YYYY-MM-DD or RFC 3339 and always
// encodes as YYYY-MM-DD.
type Date struct{ time.Time }

const dateLayout = "2006-01-02"

func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return domain.DateOnly(t), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

// Ptr returns nil for a missing or zero date.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func (d *Date) Value() time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}

func NewDate(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return &Date{*t}
}
