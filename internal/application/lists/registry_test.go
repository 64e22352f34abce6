package lists

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportconsole/internal/adapters/backend"
	"reportconsole/internal/application/listctl"
	"reportconsole/internal/domain/directory"
	"reportconsole/internal/domain/service"
)

type fakeSource struct {
	lastHistory backend.HistoryParams
	records     []service.Record
	users       []directory.User
	depts       []directory.Department
	err         error
}

func (f *fakeSource) History(_ context.Context, p backend.HistoryParams) (backend.HistoryPage, error) {
	f.lastHistory = p
	if f.err != nil {
		return backend.HistoryPage{}, f.err
	}
	p2 := listctl.Paginate(f.records, p.Page, p.PerPage)
	return backend.HistoryPage{
		Records: p2.Items,
		Pagination: backend.Pagination{
			Page: p2.Page, PerPage: p2.PerPage, TotalPages: p2.TotalPages, TotalRecords: p2.TotalRecords,
			HasNext: p2.HasNext, HasPrev: p2.HasPrev,
		},
	}, nil
}

func (f *fakeSource) Users(context.Context) ([]directory.User, error) { return f.users, f.err }

func (f *fakeSource) Departments(context.Context) ([]directory.Department, error) {
	return f.depts, f.err
}

func seededSource() *fakeSource {
	src := &fakeSource{}
	for m := 1; m <= 12; m++ {
		src.records = append(src.records, service.Record{ID: m, Month: m, Year: 2024, ServiceCount: m * 10})
	}
	names := []string{"Ana", "Ben", "Cara", "Dan", "Eve", "Finn", "Gus"}
	for i, n := range names {
		src.users = append(src.users, directory.User{ID: i + 1, FirstName: n, LastName: "Smith"})
	}
	src.users[2].LastName = "Jones"
	src.depts = []directory.Department{{ID: 1, Name: "Planning"}, {ID: 2, Name: "Finance"}}
	return src
}

func TestRegistry_ForAndDrop(t *testing.T) {
	r := NewRegistry(seededSource())
	a := r.For("a")
	assert.Same(t, a, r.For("a"))
	assert.NotSame(t, a, r.For("b"))
	assert.Equal(t, 2, r.Len())

	a.Users.SetSearch("ana")
	r.Drop("a")
	assert.Equal(t, 1, r.Len())
	fresh := r.For("a")
	assert.NotSame(t, a, fresh)
	assert.Empty(t, fresh.Users.Query().Search, "dropped state must not come back")
	r.Drop("missing")
}

func TestRegistry_EvictIdle(t *testing.T) {
	now := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	r := NewRegistry(seededSource())
	r.now = func() time.Time { return now }

	r.For("stale")
	now = now.Add(20 * time.Hour)
	r.For("fresh")
	now = now.Add(5 * time.Hour)

	assert.Equal(t, 1, r.Evict(24*time.Hour))
	assert.Equal(t, 1, r.Len())
	r.For("fresh")
	assert.Zero(t, r.Evict(24*time.Hour), "use refreshes the idle clock")
	assert.Equal(t, 1, r.Len())
}

func TestNewSet_Defaults(t *testing.T) {
	s := NewSet(seededSource())
	assert.Equal(t, HistoryPerPage, s.History.Query().PerPage)
	assert.Equal(t, AdminPerPage, s.Users.Query().PerPage)
	assert.Equal(t, AdminPerPage, s.Departments.Query().PerPage)
}

func TestHistory_FiltersReachBackend(t *testing.T) {
	src := seededSource()
	s := NewSet(src)
	ctx := context.Background()

	s.History.SetFilter(FilterYear, "2024")
	s.History.SetFilter(FilterMonth, "3")
	_, err := s.History.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, backend.HistoryParams{Page: 1, PerPage: 10, Year: 2024, Month: 3}, src.lastHistory)

	s.History.SetFilter(FilterMonth, "")
	require.True(t, s.History.GoToPage(2))
	_, err = s.History.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, backend.HistoryParams{Page: 2, PerPage: 10, Year: 2024}, src.lastHistory)

	v := s.History.View()
	assert.Len(t, v.Items, 2)
	assert.Equal(t, 2, v.Info.TotalPages)
}

func TestUsers_SearchAcrossAllRows(t *testing.T) {
	s := NewSet(seededSource())
	ctx := context.Background()
	_, err := s.Users.Refresh(ctx)
	require.NoError(t, err)

	v := s.Users.View()
	assert.Len(t, v.Items, 5)
	assert.Equal(t, 2, v.Info.TotalPages)

	s.Users.SetSearch("SMITH")
	v = s.Users.View()
	assert.Len(t, v.Items, 5)
	assert.Equal(t, 6, v.Info.Total)
	assert.Equal(t, 2, v.Info.TotalPages, "ceil(6/5)")

	s.Users.SetSearch("cara jones")
	v = s.Users.View()
	require.Len(t, v.Items, 1)
	assert.Equal(t, 3, v.Items[0].ID)
}

func TestDepartments_ApplyValues(t *testing.T) {
	s := NewSet(seededSource())
	_, err := s.Departments.Refresh(context.Background())
	require.NoError(t, err)

	changed := s.Departments.ApplyValues(url.Values{"q": {"fin"}}, nil)
	assert.True(t, changed)
	v := s.Departments.View()
	require.Len(t, v.Items, 1)
	assert.Equal(t, "Finance", v.Items[0].Name)
}

func TestRefresh_BackendError(t *testing.T) {
	src := seededSource()
	s := NewSet(src)
	src.err = &backend.ServerError{Status: 500, Message: "boom"}

	_, err := s.Users.Refresh(context.Background())
	var se *backend.ServerError
	assert.True(t, errors.As(err, &se))
	status, got := s.Users.Status()
	assert.Equal(t, listctl.StatusErrored, status)
	assert.Equal(t, err, got)
}

func TestMatchRecord(t *testing.T) {
	rec := service.Record{Month: 3, Year: 2024, ServiceCount: 57}
	for _, q := range []string{"mar", "MARCH", "2024", "57", " march "} {
		assert.True(t, MatchRecord(rec, q), fmt.Sprintf("query %q", q))
	}
	for _, q := range []string{"april", "2023", "5"} {
		assert.False(t, MatchRecord(rec, q), fmt.Sprintf("query %q", q))
	}
}
