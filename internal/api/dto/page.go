package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spec-kit/library-console/internal/domain"
)

type listShape int

const (
	shapeBareArray listShape = iota + 1
	shapeEnvelope
)

// envelope is the paginated list shape.
type envelope[R any] struct {
	Items []R  `json:"items"`
	Total *int `json:"total"`
	Page  *int `json:"page"`
	Limit *int `json:"limit"`
	Pages *int `json:"pages"`
}

// listBody is the decoded list response: exactly one of bare or env is set,
// as recorded by shape.
type listBody[R any] struct {
	shape listShape
	bare  []R
	env   envelope[R]
}

func (l *listBody[R]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		l.shape = shapeBareArray
		l.bare = nil
		return nil
	case b[0] == '[':
		l.shape = shapeBareArray
		return json.Unmarshal(b, &l.bare)
	case b[0] == '{':
		l.shape = shapeEnvelope
		return json.Unmarshal(b, &l.env)
	default:
		return fmt.Errorf("dto: unexpected list body %.32q", string(b))
	}
}

// DecodePage decodes a list response that is either a bare array or a
// {items,total,page,limit,pages} envelope and maps every raw item.
// For a bare array only Items is set; envelope counters pass through unchanged.
func DecodePage[R, T any](raw []byte, mapFn func(R) T) (domain.Page[T], error) {
	var body listBody[R]
	if err := json.Unmarshal(raw, &body); err != nil {
		return domain.Page[T]{}, fmt.Errorf("decode list: %w", err)
	}

	var page domain.Page[T]
	src := body.bare
	if body.shape == shapeEnvelope {
		src = body.env.Items
		page.Total = body.env.Total
		page.Page = body.env.Page
		page.Limit = body.env.Limit
		page.Pages = body.env.Pages
	}
	page.Items = make([]T, 0, len(src))
	for _, item := range src {
		page.Items = append(page.Items, mapFn(item))
	}
	return page, nil
}
