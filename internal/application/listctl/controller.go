// Package listctl drives the paginated, filterable lists of the console.
//
// A Controller owns the list query (page, per-page, backend filters and a local
// search), issues fetches for it, and keeps the last successful page. Fetches run
// outside the lock; a sequence number taken when a refresh starts is compared when
// it completes, so only the most recently issued refresh may change state.
package listctl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"reportconsole/internal/application/listutil"
)

var (
	// ErrSuperseded is returned by Refresh when a newer refresh was issued while it was in flight.
	// The controller state is unchanged.
	ErrSuperseded = errors.New("list refresh superseded by a newer request")

	// ErrInvalidPerPage is returned by SetPerPage for values outside listutil.PerPageOptions.
	ErrInvalidPerPage = fmt.Errorf("per page must be one of %v", listutil.PerPageOptions)
)

// Status is the lifecycle state of a controller.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusErrored:
		return "errored"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Query is the parameter set a fetch is issued for.
type Query struct {
	Page    int
	PerPage int
	Filters map[string]string
	Search  string // applied locally, never sent to the backend
}

// Filter returns the value of a backend filter, or "" when unset.
func (q Query) Filter(field string) string {
	return q.Filters[field]
}

func (q Query) clone() Query {
	out := q
	out.Filters = make(map[string]string, len(q.Filters))
	for k, v := range q.Filters {
		out.Filters[k] = v
	}
	return out
}

// Page is one fetched page plus the pagination metadata reported for it.
type Page[T any] struct {
	Items        []T
	Page         int
	PerPage      int
	TotalPages   int
	TotalRecords int
	HasNext      bool
	HasPrev      bool
}

// Fetcher loads the page described by q.
type Fetcher[T any] func(ctx context.Context, q Query) (Page[T], error)

// FetchAll loads every row; the controller pages them itself.
type FetchAll[T any] func(ctx context.Context, q Query) ([]T, error)

// Matcher reports whether item matches a non-empty local search.
type Matcher[T any] func(item T, search string) bool

// Controller drives one list. It is safe for concurrent use.
type Controller[T any] struct {
	mu     sync.Mutex
	load   func(ctx context.Context, q Query) (Page[T], []T, error)
	match  Matcher[T]
	query  Query
	page   Page[T]
	rows   []T // rows the local search runs over: the page items, or every row when client-paged
	client bool
	meta   bool // a page has been loaded at least once
	status Status
	err    error
	seq    uint64
}

// NewServerPaged creates a controller for a backend that pages and reports metadata.
// PRE: fetch is non-nil; perPage is one of listutil.PerPageOptions
// POST: Status is Idle, Query is {Page: 1, PerPage: perPage}
func NewServerPaged[T any](fetch Fetcher[T], match Matcher[T], perPage int) *Controller[T] {
	c := newController[T](match, perPage)
	c.load = func(ctx context.Context, q Query) (Page[T], []T, error) {
		p, err := fetch(ctx, q)
		if err != nil {
			return Page[T]{}, nil, err
		}
		return p, p.Items, nil
	}
	return c
}

// NewClientPaged creates a controller for a backend that returns every row at once.
// Pagination metadata is computed locally from the row count.
// PRE: fetchAll is non-nil; perPage is one of listutil.PerPageOptions
// POST: Status is Idle, Query is {Page: 1, PerPage: perPage}
func NewClientPaged[T any](fetchAll FetchAll[T], match Matcher[T], perPage int) *Controller[T] {
	c := newController[T](match, perPage)
	c.client = true
	c.load = func(ctx context.Context, q Query) (Page[T], []T, error) {
		all, err := fetchAll(ctx, q)
		if err != nil {
			return Page[T]{}, nil, err
		}
		return Paginate(all, q.Page, q.PerPage), all, nil
	}
	return c
}

func newController[T any](match Matcher[T], perPage int) *Controller[T] {
	if !listutil.IsValidPerPage(perPage) {
		perPage = listutil.DefaultPerPage
	}
	return &Controller[T]{
		match: match,
		query: Query{Page: 1, PerPage: perPage, Filters: map[string]string{}},
	}
}

// Paginate slices rows into the page-th page of perPage rows and computes its metadata.
// PRE: perPage > 0
// POST: Page is clamped to [1, TotalPages]; TotalPages >= 1
func Paginate[T any](rows []T, page, perPage int) Page[T] {
	info := listutil.NewPageInfo(page, perPage, len(rows))
	return Page[T]{
		Items:        rows[info.Offset():info.EndRow()],
		Page:         info.Page,
		PerPage:      info.PerPage,
		TotalPages:   info.TotalPages,
		TotalRecords: info.Total,
		HasNext:      info.HasNext(),
		HasPrev:      info.HasPrev(),
	}
}

// SetFilter sets a backend filter and returns to page 1. An empty value removes the filter.
// POST: Query().Page == 1
func (c *Controller[T]) SetFilter(field, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value = strings.TrimSpace(value)
	if value == "" {
		delete(c.query.Filters, field)
	} else {
		c.query.Filters[field] = value
	}
	c.query.Page = 1
}

// SetSearch sets the local search and returns to page 1.
// POST: Query().Page == 1
func (c *Controller[T]) SetSearch(search string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Search = strings.TrimSpace(search)
	c.query.Page = 1
}

// SetPerPage changes the page size and returns to page 1.
// PRE: n is one of listutil.PerPageOptions
// POST: Query().PerPage == n and Query().Page == 1; on error the query is unchanged
func (c *Controller[T]) SetPerPage(n int) error {
	if !listutil.IsValidPerPage(n) {
		return ErrInvalidPerPage
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.PerPage = n
	c.query.Page = 1
	return nil
}

// GoToPage moves to page p if it lies within the known page count and reports whether it did.
// Before any page has loaded only page 1 is accepted.
// POST: Query().Page == p when true; the query is unchanged when false
func (c *Controller[T]) GoToPage(p int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p < 1 || p > c.totalPagesLocked() {
		return false
	}
	c.query.Page = p
	return true
}

// totalPagesLocked returns the page bound GoToPage enforces.
func (c *Controller[T]) totalPagesLocked() int {
	if !c.meta {
		return 1
	}
	if c.searchingLocked() {
		return listutil.NewPageInfo(1, c.query.PerPage, len(c.filteredLocked())).TotalPages
	}
	if c.client {
		return listutil.NewPageInfo(1, c.query.PerPage, len(c.rows)).TotalPages
	}
	return max(c.page.TotalPages, 1)
}

// Refresh fetches the page for the current query.
// On success the stored page is replaced; on failure the previous page is kept and
// the error is retained until the next successful refresh. A refresh that completes
// after a newer one was started returns ErrSuperseded and changes nothing.
// POST: Status is Loaded or Errored unless superseded
func (c *Controller[T]) Refresh(ctx context.Context) (Page[T], error) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	q := c.query.clone()
	c.status = StatusLoading
	c.mu.Unlock()

	page, rows, err := c.load(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return Page[T]{}, ErrSuperseded
	}
	if err != nil {
		c.status = StatusErrored
		c.err = err
		return c.page, err
	}
	c.page = page
	c.rows = rows
	c.meta = true
	c.status = StatusLoaded
	c.err = nil
	return page, nil
}

// Query returns a copy of the current query.
func (c *Controller[T]) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query.clone()
}

// Status returns the lifecycle state and the error retained by the last failed refresh.
func (c *Controller[T]) Status() (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.err
}

// Page returns the last successfully fetched page.
func (c *Controller[T]) Page() Page[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// Rows returns the rows the local search runs over: the current page, or every
// row when client-paged.
func (c *Controller[T]) Rows() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.rows...)
}

func (c *Controller[T]) searchingLocked() bool {
	return c.match != nil && c.query.Search != ""
}

func (c *Controller[T]) filteredLocked() []T {
	var out []T
	for _, item := range c.rows {
		if c.match(item, c.query.Search) {
			out = append(out, item)
		}
	}
	return out
}
