// Package paging turns raw page/size/sort query parameters into a validated
// Spec and carries paged results back to handlers.
package paging

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
)

const (
	DefaultPage = 0
	DefaultSize = 10
	MaxSize     = 100
)

var (
	ErrInvalidPage          = fmt.Errorf("%w: page must be a non-negative integer", apperr.ErrValidation)
	ErrInvalidSize          = fmt.Errorf("%w: size must be an integer between 0 and %d", apperr.ErrValidation, MaxSize)
	ErrInvalidSortField     = fmt.Errorf("%w: unknown sort field", apperr.ErrValidation)
	ErrInvalidSortDirection = fmt.Errorf("%w: sort direction must be asc or desc", apperr.ErrValidation)
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Spec is a normalized paging request. Page is zero-based.
type Spec struct {
	Page      int
	Size      int
	SortField string
	Direction Direction
}

func (s Spec) Offset() int {
	return s.Page * s.Size
}

// Params renders the spec back into query values that Parse accepts.
func (s Spec) Params() (page, size, sortField, sortDirection string) {
	return strconv.Itoa(s.Page), strconv.Itoa(s.Size), s.SortField, string(s.Direction)
}

// Fields is the sort whitelist of one entity: attribute name to storage column.
type Fields struct {
	Primary string
	Columns map[string]string
}

// Parse validates the raw values. Empty values take the defaults: page 0,
// size 10, primary attribute, ascending.
func (f Fields) Parse(page, size, sortField, sortDirection string) (Spec, error) {
	spec := Spec{
		Page:      DefaultPage,
		Size:      DefaultSize,
		SortField: f.Primary,
		Direction: Asc,
	}

	if page = strings.TrimSpace(page); page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 0 {
			return Spec{}, ErrInvalidPage
		}
		spec.Page = n
	}

	if size = strings.TrimSpace(size); size != "" {
		n, err := strconv.Atoi(size)
		if err != nil || n < 0 || n > MaxSize {
			return Spec{}, ErrInvalidSize
		}
		spec.Size = n
	}

	// Offset must stay representable for the storage layers.
	if spec.Size > 0 && spec.Page > math.MaxInt/spec.Size {
		return Spec{}, ErrInvalidPage
	}

	if sortField = strings.TrimSpace(sortField); sortField != "" {
		if _, ok := f.Columns[sortField]; !ok {
			return Spec{}, fmt.Errorf("%w: %q", ErrInvalidSortField, sortField)
		}
		spec.SortField = sortField
	}

	if sortDirection = strings.TrimSpace(sortDirection); sortDirection != "" {
		switch Direction(strings.ToLower(sortDirection)) {
		case Asc:
			spec.Direction = Asc
		case Desc:
			spec.Direction = Desc
		default:
			return Spec{}, fmt.Errorf("%w: %q", ErrInvalidSortDirection, sortDirection)
		}
	}

	return spec, nil
}

// OrderBy renders an ORDER BY expression from whitelisted columns only. The
// primary column is appended as a tie-breaker so pages are stable.
func (f Fields) OrderBy(s Spec) string {
	col, ok := f.Columns[s.SortField]
	if !ok {
		col = f.Columns[f.Primary]
	}
	dir := "ASC"
	if s.Direction == Desc {
		dir = "DESC"
	}

	primary := f.Columns[f.Primary]
	if primary == "" || primary == col {
		return col + " " + dir
	}
	return col + " " + dir + ", " + primary + " ASC"
}

// Page is one slice of a larger ordered collection.
type Page[T any] struct {
	Items         []T   `json:"content"`
	PageNumber    int   `json:"pageNumber"`
	PageSize      int   `json:"pageSize"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

func NewPage[T any](items []T, spec Spec, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if spec.Size > 0 {
		totalPages = int((total + int64(spec.Size) - 1) / int64(spec.Size))
	}
	return Page[T]{
		Items:         items,
		PageNumber:    spec.Page,
		PageSize:      spec.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}

// Map converts the items of a page, keeping its numbering.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, len(p.Items))
	for i, item := range p.Items {
		out[i] = fn(item)
	}
	return Page[U]{
		Items:         out,
		PageNumber:    p.PageNumber,
		PageSize:      p.PageSize,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
	}
}
