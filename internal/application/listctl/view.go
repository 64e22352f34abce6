package listctl

import (
	"net/url"
	"strconv"

	"reportconsole/internal/application/listutil"
)

// View is what a list screen renders.
type View[T any] struct {
	Items     []T
	Info      listutil.PageInfo
	Query     Query
	Status    Status
	Err       error
	Searching bool
}

// View returns the rows to render and the pagination to display.
// With a local search active the pagination counts only the matching rows
// (ceil(matches / PerPage)) and ignores the backend's totals.
func (c *Controller[T]) View() View[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View[T]{
		Query:     c.query.clone(),
		Status:    c.status,
		Err:       c.err,
		Searching: c.searchingLocked(),
	}
	switch {
	case v.Searching:
		filtered := c.filteredLocked()
		v.Info = listutil.NewPageInfo(c.query.Page, c.query.PerPage, len(filtered))
		v.Items = filtered[v.Info.Offset():v.Info.EndRow()]
	case c.client:
		p := Paginate(c.rows, c.query.Page, c.query.PerPage)
		v.Items = p.Items
		v.Info = listutil.PageInfo{Page: p.Page, PerPage: p.PerPage, Total: p.TotalRecords, TotalPages: p.TotalPages}
	default:
		v.Items = c.page.Items
		v.Info = listutil.PageInfo{
			Page:       max(c.page.Page, 1),
			PerPage:    c.query.PerPage,
			Total:      c.page.TotalRecords,
			TotalPages: max(c.page.TotalPages, 1),
		}
	}
	return v
}

// ApplyValues applies list parameters decoded from a URL, changing only what differs
// from the current query. Keys absent from q leave the matching setting alone; a
// present but empty filter clears it. The page parameter is honoured only when no
// other setting changed, since any such change returns the list to page 1.
// PRE: filterKeys names the backend filters this list accepts
// POST: Returns true if any filter, the search or the page size changed
func (c *Controller[T]) ApplyValues(q url.Values, filterKeys []string) bool {
	cur := c.Query()
	pp := listutil.ParsePageParams(q, cur.PerPage)
	fp := listutil.ParseFilterParams(q, filterKeys)
	changed := false

	for _, key := range filterKeys {
		if q.Has(key) && fp.Filters[key] != cur.Filter(key) {
			c.SetFilter(key, fp.Filters[key])
			changed = true
		}
	}
	if q.Has("per_page") && pp.PerPage != cur.PerPage {
		if c.SetPerPage(pp.PerPage) == nil {
			changed = true
		}
	}
	if q.Has("q") && fp.Search != cur.Search {
		c.SetSearch(fp.Search)
		changed = true
	}
	if !changed && q.Has("page") {
		c.GoToPage(pp.Page)
	}
	return changed
}

// Values encodes the query as URL parameters for pagination links.
func (q Query) Values() url.Values {
	v := url.Values{}
	for key, val := range q.Filters {
		v.Set(key, val)
	}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	v.Set("per_page", strconv.Itoa(q.PerPage))
	v.Set("page", strconv.Itoa(q.Page))
	return v
}

// PageURL returns the query string for page p of the same list.
func (q Query) PageURL(p int) string {
	v := q.Values()
	v.Set("page", strconv.Itoa(p))
	return "?" + v.Encode()
}
