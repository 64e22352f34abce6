// Package lists keeps the list controllers of each console session.
package lists

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"reportconsole/internal/adapters/backend"
	"reportconsole/internal/application/listctl"
	"reportconsole/internal/domain/directory"
	"reportconsole/internal/domain/service"
)

// Page sizes and filter keys per list.
const (
	HistoryPerPage = 10
	AdminPerPage   = 5

	FilterYear  = "year"
	FilterMonth = "month"
)

// HistoryFilters are the backend filters the history list accepts.
var HistoryFilters = []string{FilterYear, FilterMonth}

// Source is the part of the backend the lists read from.
type Source interface {
	History(ctx context.Context, p backend.HistoryParams) (backend.HistoryPage, error)
	Users(ctx context.Context) ([]directory.User, error)
	Departments(ctx context.Context) ([]directory.Department, error)
}

// Set holds the lists one session works with.
type Set struct {
	History     *listctl.Controller[service.Record]
	Users       *listctl.Controller[directory.User]
	Departments *listctl.Controller[directory.Department]

	mu       sync.Mutex
	adminTab string
}

// SwitchAdminTab records tab as the active admin tab and reports whether it differs
// from the previous one.
func (s *Set) SwitchAdminTab(tab string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.adminTab != tab
	s.adminTab = tab
	return changed
}

// NewSet creates a fresh set of idle lists reading from src.
func NewSet(src Source) *Set {
	return &Set{
		History:     listctl.NewServerPaged(historyFetcher(src), MatchRecord, HistoryPerPage),
		Users:       listctl.NewClientPaged(usersFetcher(src), directory.User.MatchesName, AdminPerPage),
		Departments: listctl.NewClientPaged(departmentsFetcher(src), directory.Department.MatchesName, AdminPerPage),
	}
}

// Registry maps session ids to their list sets.
// INVARIANT: a dropped session id never sees its old list state again
type Registry struct {
	src  Source
	now  func() time.Time
	mu   sync.Mutex
	sets map[string]*entry
}

type entry struct {
	set  *Set
	seen time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(src Source) *Registry {
	return &Registry{src: src, now: time.Now, sets: make(map[string]*entry)}
}

// For returns the list set of session id, creating it on first use.
func (r *Registry) For(id string) *Set {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sets[id]
	if !ok {
		e = &entry{set: NewSet(r.src)}
		r.sets[id] = e
	}
	e.seen = r.now()
	return e.set
}

// Drop forgets the list set of session id. It is registered as a session end listener.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sets, id)
}

// Evict drops every set not used within idle and returns how many were dropped.
// Sessions that expire without ever returning are only cleaned up here.
// PRE: idle is at least the session TTL, so no live session loses its lists
// POST: No remaining set was last used more than idle ago
func (r *Registry) Evict(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.sets {
		if e.seen.Before(cutoff) {
			delete(r.sets, id)
			n++
		}
	}
	return n
}

// Len returns the number of sessions with list state.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sets)
}

// MatchRecord matches a service record by month name, year or count.
func MatchRecord(rec service.Record, search string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	return strings.Contains(strings.ToLower(service.MonthName(rec.Month)), search) ||
		strconv.Itoa(rec.Year) == search ||
		strconv.Itoa(rec.ServiceCount) == search
}

func historyFetcher(src Source) listctl.Fetcher[service.Record] {
	return func(ctx context.Context, q listctl.Query) (listctl.Page[service.Record], error) {
		year, _ := strconv.Atoi(q.Filter(FilterYear))
		month, _ := strconv.Atoi(q.Filter(FilterMonth))
		hp, err := src.History(ctx, backend.HistoryParams{Page: q.Page, PerPage: q.PerPage, Year: year, Month: month})
		if err != nil {
			return listctl.Page[service.Record]{}, err
		}
		return listctl.Page[service.Record]{
			Items:        hp.Records,
			Page:         hp.Pagination.Page,
			PerPage:      hp.Pagination.PerPage,
			TotalPages:   hp.Pagination.TotalPages,
			TotalRecords: hp.Pagination.TotalRecords,
			HasNext:      hp.Pagination.HasNext,
			HasPrev:      hp.Pagination.HasPrev,
		}, nil
	}
}

func usersFetcher(src Source) listctl.FetchAll[directory.User] {
	return func(ctx context.Context, _ listctl.Query) ([]directory.User, error) {
		return src.Users(ctx)
	}
}

func departmentsFetcher(src Source) listctl.FetchAll[directory.Department] {
	return func(ctx context.Context, _ listctl.Query) ([]directory.Department, error) {
		return src.Departments(ctx)
	}
}
