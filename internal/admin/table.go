package admin

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// PageSize is the number of rows per table page.
const PageSize = 10

// DateLayout is the layout of the date column.
const DateLayout = "2006-01-02"

// Column indexes of the applications table.
const (
	ColID = iota
	ColName
	ColStatus
	ColDate
	numColumns
)

// Columns are the table headers.
var Columns = [numColumns]string{"Application ID", "Applicant", "Status", "Date"}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Row is a table row.
type Row struct {
	ID     string
	Name   string
	Status Status
	Date   string
}

// Cells returns the row's cell texts in column order.
func (r Row) Cells() []string {
	return []string{r.ID, r.Name, r.Status.Label(), r.Date}
}

func rowOf(rec Record) Row {
	return Row{
		ID:     rec.ID,
		Name:   rec.Name,
		Status: rec.Status,
		Date:   rec.Submitted.Format(DateLayout),
	}
}

// Page is one rendered page of the table.
type Page struct {
	Rows    []Row
	Number  int
	Total   int
	Matches int
}

// Label returns "Page x of y".
func (p Page) Label() string {
	return fmt.Sprintf("Page %d of %d", p.Number, p.Total)
}

// Paginated reports whether pager controls are shown.
func (p Page) Paginated() bool {
	return p.Matches > PageSize
}

func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.Total }

// Table is the interactive view state of the applications table.
type Table struct {
	source func() []Record

	sortCol  int
	sortDir  Direction
	search   string
	status   Status
	from, to time.Time
	page     int
	active   string
	checked  map[string]bool
	mu       sync.Mutex
}

// NewTable creates a table over source, unsorted and unfiltered.
func NewTable(source func() []Record) *Table {
	return &Table{
		source:  source,
		sortCol: -1,
		page:    1,
		checked: make(map[string]bool),
	}
}

// Sort toggles sorting on col: a column already sorted ascending flips
// to descending, anything else sorts ascending.
func (t *Table) Sort(col int) Direction {
	t.mu.Lock()
	defer t.mu.Unlock()

	if col < 0 || col >= numColumns {
		return t.sortDir
	}
	if t.sortCol == col && t.sortDir == Asc {
		t.sortDir = Desc
	} else {
		t.sortDir = Asc
	}
	t.sortCol = col
	return t.sortDir
}

// SortState returns the sorted column (-1 if none) and direction.
func (t *Table) SortState() (int, Direction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sortCol, t.sortDir
}

// Search sets the free-text filter and returns to page 1.
func (t *Table) Search(term string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.search = strings.ToLower(strings.TrimSpace(term))
	t.page = 1
}

// FilterStatus restricts rows to status; "" shows all.
func (t *Table) FilterStatus(status Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
	t.page = 1
}

// FilterDates restricts rows to submissions within [from, to]. Zero
// bounds are open.
func (t *Table) FilterDates(from, to time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.from, t.to = from, to
	t.page = 1
}

// Filters returns the current search term and status filter.
func (t *Table) Filters() (string, Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.search, t.status
}

// GoToPage moves to page n when it exists.
func (t *Table) GoToPage(n int) bool {
	total := t.pages(len(t.Rows()))

	t.mu.Lock()
	defer t.mu.Unlock()
	if n < 1 || n > total {
		return false
	}
	t.page = n
	return true
}

// Select highlights a single row.
func (t *Table) Select(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = id
}

// Active returns the highlighted row id.
func (t *Table) Active() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Check ticks or unticks the checkbox of a row.
func (t *Table) Check(id string, on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if on {
		t.checked[id] = true
	} else {
		delete(t.checked, id)
	}
}

// CheckAll ticks every row matching the current filters.
func (t *Table) CheckAll() {
	rows := t.Rows()
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range rows {
		t.checked[r.ID] = true
	}
}

// UncheckAll clears every checkbox.
func (t *Table) UncheckAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checked = make(map[string]bool)
}

// IsChecked reports whether a row is ticked.
func (t *Table) IsChecked(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.checked[id]
}

// Selected returns the ticked rows in table order.
func (t *Table) Selected() []Row {
	var out []Row
	for _, r := range t.Rows() {
		if t.IsChecked(r.ID) {
			out = append(out, r)
		}
	}
	return out
}

// Rows returns every row that matches the filters, sorted.
func (t *Table) Rows() []Row {
	t.mu.Lock()
	search, status := t.search, t.status
	from, to := t.from, t.to
	col, dir := t.sortCol, t.sortDir
	t.mu.Unlock()

	var rows []Row
	for _, rec := range t.source() {
		if status != "" && rec.Status != status {
			continue
		}
		if !from.IsZero() && rec.Submitted.Before(from) {
			continue
		}
		if !to.IsZero() && rec.Submitted.After(to) {
			continue
		}
		row := rowOf(rec)
		if search != "" && !strings.Contains(strings.ToLower(strings.Join(row.Cells(), " ")), search) {
			continue
		}
		rows = append(rows, row)
	}

	if col >= 0 {
		sort.SliceStable(rows, func(i, j int) bool {
			c := Compare(rows[i].Cells()[col], rows[j].Cells()[col])
			if dir == Desc {
				return c > 0
			}
			return c < 0
		})
	}
	return rows
}

// View returns the current page. The page is clamped when filters have
// shrunk the result.
func (t *Table) View() Page {
	rows := t.Rows()
	total := t.pages(len(rows))

	t.mu.Lock()
	if t.page > total {
		t.page = total
	}
	n := t.page
	t.mu.Unlock()

	start := (n - 1) * PageSize
	end := start + PageSize
	if end > len(rows) {
		end = len(rows)
	}
	return Page{Rows: rows[start:end], Number: n, Total: total, Matches: len(rows)}
}

func (t *Table) pages(n int) int {
	if n == 0 {
		return 1
	}
	return (n + PageSize - 1) / PageSize
}

var nonNumeric = regexp.MustCompile(`[^\d.-]`)

// Compare orders two cell texts: numerically when both carry a number,
// otherwise (or on a numeric tie) as case-insensitive strings.
func Compare(a, b string) int {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)

	an, aErr := numericValue(a)
	bn, bErr := numericValue(b)
	if aErr == nil && bErr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
	}

	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// numericValue reads the number a cell starts with once any non-numeric
// prefix is dropped, so "NMTP-1718-ab" reads as 1718 and "2025-01-03" as
// 2025.
func numericValue(s string) (float64, error) {
	i := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if i < 0 {
		return 0, strconv.ErrSyntax
	}
	if i > 0 && s[i-1] == '-' && (i == 1 || s[i-2] == ' ') {
		i--
	}
	s = nonNumeric.ReplaceAllString(s[i:], "")

	for end := len(s); end > 0; end-- {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return f, nil
		}
	}
	return 0, strconv.ErrSyntax
}
