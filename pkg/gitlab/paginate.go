package gitlab

import (
	"context"
	"fmt"
	"iter"
	"net/http"

	"github.com/xanzy/go-gitlab"
)

// Strategy decides when a paginated listing is exhausted. GitLab endpoints are not consistent
// about which signal they provide, so callers pick one per endpoint.
type Strategy int

const (
	// ShortPage stops after a page with fewer records than the page size, or after the last
	// page reported by X-Total-Pages.
	ShortPage Strategy = iota
	// NextPageHeader stops when the response carries no X-Next-Page value.
	NextPageHeader
)

func (s Strategy) String() string {
	if s == NextPageHeader {
		return "next-page-header"
	}
	return "short-page"
}

// Query holds the optional filters shared by list endpoints.
type Query struct {
	Search           string `url:"search,omitempty"`
	OrderBy          string `url:"order_by,omitempty"`
	Sort             string `url:"sort,omitempty"`
	State            string `url:"state,omitempty"`
	Archived         *bool  `url:"archived,omitempty"`
	Statistics       bool   `url:"statistics,omitempty"`
	IncludeSubgroups bool   `url:"include_subgroups,omitempty"`
}

type pageQuery struct {
	Query
	Page    int `url:"page,omitempty"`
	PerPage int `url:"per_page,omitempty"`
}

// Fetcher lists every record of a collection endpoint page by page.
type Fetcher[T any] struct {
	api      *gitlab.Client
	path     string
	perPage  int
	strategy Strategy
	query    Query
	options  []gitlab.RequestOptionFunc
}

// NewFetcher creates a fetcher for path, relative to the API base.
func NewFetcher[T any](api *gitlab.Client, path string, perPage int, strategy Strategy) *Fetcher[T] {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &Fetcher[T]{api: api, path: path, perPage: perPage, strategy: strategy}
}

// WithQuery sets the list filters.
func (f *Fetcher[T]) WithQuery(q Query) *Fetcher[T] {
	f.query = q
	return f
}

// WithOptions adds request options such as gitlab.WithSudo.
func (f *Fetcher[T]) WithOptions(options ...gitlab.RequestOptionFunc) *Fetcher[T] {
	f.options = append(f.options, options...)
	return f
}

// Records yields every record, requesting pages lazily. Each range starts again from page 1.
// A failed request ends the sequence with the error returned by the client.
func (f *Fetcher[T]) Records(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		page := 1
		for {
			items, resp, err := f.fetchPage(ctx, page)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}

			next, ok := f.nextPage(page, len(items), resp)
			if !ok {
				return
			}
			page = next
		}
	}
}

// All collects every record.
func (f *Fetcher[T]) All(ctx context.Context) ([]T, error) {
	var ret []T
	for item, err := range f.Records(ctx) {
		if err != nil {
			return ret, err
		}
		ret = append(ret, item)
	}
	return ret, nil
}

func (f *Fetcher[T]) fetchPage(ctx context.Context, page int) ([]T, *gitlab.Response, error) {
	opt := &pageQuery{Query: f.query, Page: page, PerPage: f.perPage}
	options := append([]gitlab.RequestOptionFunc{gitlab.WithContext(ctx)}, f.options...)

	req, err := f.api.NewRequest(http.MethodGet, f.path, opt, options)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request for %s: %w", f.path, err)
	}

	var items []T
	resp, err := f.api.Do(req, &items)
	if err != nil {
		return nil, resp, fmt.Errorf("failed to list %s (page %d): %w", f.path, page, err)
	}
	return items, resp, nil
}

func (f *Fetcher[T]) nextPage(page, count int, resp *gitlab.Response) (int, bool) {
	switch f.strategy {
	case NextPageHeader:
		if resp == nil || resp.NextPage == 0 {
			return 0, false
		}
		return resp.NextPage, true
	default:
		if count < f.perPage {
			return 0, false
		}
		if resp != nil && resp.TotalPages > 0 && page >= resp.TotalPages {
			return 0, false
		}
		return page + 1, true
	}
}
