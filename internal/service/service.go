package service

import (
	"context"
	"net/url"

	"github.com/spec-kit/library-console/internal/api/dto"
	"github.com/spec-kit/library-console/internal/client"
)

// API is the subset of the JSON client the services use.
type API interface {
	Get(ctx context.Context, path string, query client.Params, out any) error
	GetRaw(ctx context.Context, path string, query client.Params) ([]byte, error)
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Dependencies bundles what every resource service needs.
type Dependencies struct {
	API    API
	Mapper dto.Mapper
}

// ListFilters are the common list query parameters.
type ListFilters struct {
	Query  string
	Page   int
	Limit  int
	SortBy string
	Order  string
}

func (f ListFilters) params() client.Params {
	p := client.Params{"q": f.Query, "sortBy": f.SortBy, "order": f.Order}
	if f.Page > 0 {
		p["page"] = f.Page
	}
	if f.Limit > 0 {
		p["limit"] = f.Limit
	}
	return p
}

func resource(parts ...string) string {
	out := ""
	for _, p := range parts {
		out += "/" + url.PathEscape(p)
	}
	return out
}
