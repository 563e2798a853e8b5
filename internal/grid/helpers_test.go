package grid_test

import (
	"sync"
	"time"

	"github.com/JonMunkholm/fuelgrid/internal/grid"
)

type person struct {
	ID   int
	Name string
	Age  int
}

func people() []person {
	return []person{
		{ID: 1, Name: "John", Age: 30},
		{ID: 2, Name: "Jane", Age: 25},
		{ID: 3, Name: "Bob", Age: 40},
	}
}

func personColumns() []grid.Column[person] {
	return []grid.Column[person]{
		grid.NewColumn("id", "ID", func(p person) any { return p.ID },
			grid.WithType[person](grid.FieldNumeric)),
		grid.NewColumn("name", "Name", func(p person) any { return p.Name }),
		grid.NewColumn("age", "Age", func(p person) any { return p.Age },
			grid.WithType[person](grid.FieldNumeric)),
	}
}

func personKey(p person) int { return p.ID }

func names(rows []person) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func manyPeople(n int) []person {
	out := make([]person, n)
	for i := range out {
		out[i] = person{ID: i + 1, Name: "Person", Age: 20 + i%50}
	}
	return out
}

// fakeClock hands out timers that only fire when told to.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) grid.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, delay: d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Active counts timers that are neither stopped nor fired.
func (c *fakeClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// FireAll runs every active timer.
func (c *fakeClock) FireAll() {
	c.mu.Lock()
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

// recorder captures server-side emissions.
type recorder struct {
	mu         sync.Mutex
	sorting    []grid.Sorting
	pagination []grid.Pagination
	global     []string
	columns    [][]grid.ColumnFilter
	queries    []grid.Query
}

func (r *recorder) config(debounce time.Duration, total int) *grid.ServerSideConfig {
	return &grid.ServerSideConfig{
		Enabled:        true,
		TotalRows:      total,
		FilterDebounce: debounce,
		OnSortingChange: func(s grid.Sorting) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.sorting = append(r.sorting, s)
		},
		OnPaginationChange: func(p grid.Pagination) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.pagination = append(r.pagination, p)
		},
		OnGlobalFilterChange: func(s string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.global = append(r.global, s)
		},
		OnColumnFiltersChange: func(f []grid.ColumnFilter) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.columns = append(r.columns, f)
		},
		OnQueryChange: func(q grid.Query) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.queries = append(r.queries, q)
		},
	}
}
