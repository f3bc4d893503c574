package admin

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, n int) *Registry {
	t.Helper()
	reg := NewRegistry()
	statuses := []Status{StatusPending, StatusApproved, StatusRejected, StatusReview}
	for i := 0; i < n; i++ {
		require.NoError(t, reg.Add(Record{
			ID:        fmt.Sprintf("NMTP-%03d", i+1),
			Name:      fmt.Sprintf("Applicant %02d", i+1),
			Status:    statuses[i%len(statuses)],
			Submitted: base.AddDate(0, 0, i),
			Device:    fmt.Sprintf("dev-%d", i%2),
		}))
	}
	return reg
}

func TestRegistry(t *testing.T) {
	reg := seed(t, 3)

	assert.ErrorIs(t, reg.Add(Record{ID: "NMTP-001"}), ErrDuplicate)
	assert.ErrorIs(t, reg.Add(Record{}), ErrMissingID)

	require.NoError(t, reg.Add(Record{ID: "NMTP-100", Device: "dev-0", Submitted: base.AddDate(1, 0, 0)}))
	rec, err := reg.Get("NMTP-100")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, rec.Status)

	require.NoError(t, reg.SetStatus("NMTP-100", StatusApproved))
	assert.ErrorIs(t, reg.SetStatus("NMTP-100", "archived"), ErrInvalidStatus)
	assert.ErrorIs(t, reg.SetStatus("nope", StatusApproved), ErrNotFound)

	mine := reg.ByDevice("dev-0")
	require.Len(t, mine, 3)
	assert.Equal(t, "NMTP-100", mine[0].ID, "newest first")
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("Under Review")
	require.NoError(t, err)
	assert.Equal(t, StatusReview, st)

	_, err = ParseStatus("lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCompare(t *testing.T) {
	assert.Negative(t, Compare("9", "10"))
	assert.Positive(t, Compare("R 1,500", "R 900"))
	assert.Negative(t, Compare("2025-01-03", "2025-02-01"))
	assert.Negative(t, Compare("NMTP-9-aa", "NMTP-10-aa"))
	assert.Negative(t, Compare("alpha", "Beta"))
	assert.Zero(t, Compare("same", "same"))
}

func TestTable_SortToggle(t *testing.T) {
	reg := seed(t, 5)
	table := NewTable(reg.List)

	assert.Equal(t, Asc, table.Sort(ColName))
	rows := table.Rows()
	assert.Equal(t, "Applicant 01", rows[0].Name)

	assert.Equal(t, Desc, table.Sort(ColName))
	rows = table.Rows()
	assert.Equal(t, "Applicant 05", rows[0].Name)

	assert.Equal(t, Asc, table.Sort(ColName))
	assert.Equal(t, Asc, table.Sort(ColDate), "new column starts ascending")
	col, dir := table.SortState()
	assert.Equal(t, ColDate, col)
	assert.Equal(t, Asc, dir)
}

func TestTable_Filters(t *testing.T) {
	reg := seed(t, 8)
	table := NewTable(reg.List)

	table.FilterStatus(StatusApproved)
	for _, r := range table.Rows() {
		assert.Equal(t, StatusApproved, r.Status)
	}
	assert.Len(t, table.Rows(), 2)

	table.FilterStatus("")
	table.Search("applicant 07")
	rows := table.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "NMTP-007", rows[0].ID)

	table.Search("under review")
	assert.Len(t, table.Rows(), 2, "search matches the status label")

	table.Search("")
	table.FilterDates(base.AddDate(0, 0, 2), base.AddDate(0, 0, 4))
	assert.Len(t, table.Rows(), 3)
}

func TestTable_Pagination(t *testing.T) {
	small := NewTable(seed(t, 10).List)
	assert.False(t, small.View().Paginated(), "ten rows fit one page")

	table := NewTable(seed(t, 23).List)
	page := table.View()
	assert.True(t, page.Paginated())
	assert.Equal(t, "Page 1 of 3", page.Label())
	assert.Len(t, page.Rows, PageSize)
	assert.False(t, page.HasPrev())

	assert.True(t, table.GoToPage(3))
	page = table.View()
	assert.Len(t, page.Rows, 3)
	assert.False(t, page.HasNext())

	assert.False(t, table.GoToPage(4))
	assert.False(t, table.GoToPage(0))

	table.FilterStatus(StatusPending)
	assert.Equal(t, 1, table.View().Number, "filtering returns to page 1")
}

func TestTable_Selection(t *testing.T) {
	table := NewTable(seed(t, 4).List)

	table.Select("NMTP-002")
	table.Select("NMTP-003")
	assert.Equal(t, "NMTP-003", table.Active(), "single row highlight")

	table.Check("NMTP-001", true)
	table.Check("NMTP-004", true)
	sel := table.Selected()
	require.Len(t, sel, 2)
	assert.Equal(t, "NMTP-001", sel[0].ID)

	table.CheckAll()
	assert.Len(t, table.Selected(), 4)
	table.UncheckAll()
	assert.Empty(t, table.Selected())
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	err := ExportCSV(&buf, []Row{
		{ID: "NMTP-1", Name: "Mokoena, Thabo", Status: StatusPending, Date: "2025-03-01"},
	})
	require.NoError(t, err)
	assert.Equal(t, "id,name,status,date\nNMTP-1,\"Mokoena, Thabo\",pending,2025-03-01\n", buf.String())
}

func TestParseAction(t *testing.T) {
	k, err := ParseAction("Export Data")
	require.NoError(t, err)
	assert.Equal(t, ActionExport, k)

	k, err = ParseAction("  send   bulk message ")
	require.NoError(t, err)
	assert.Equal(t, ActionBulkMessage, k)

	_, err = ParseAction("Launch Rockets")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestDispatcher(t *testing.T) {
	reg := seed(t, 4)
	table := NewTable(reg.List)
	d := NewDefaultDispatcher(reg, table, func() time.Time { return base })
	ctx := context.Background()

	out, err := d.Dispatch(ctx, Action{Kind: ActionReview, Target: "NMTP-001"})
	require.NoError(t, err)
	assert.Contains(t, out.Notice, "NMTP-001")
	rec, _ := reg.Get("NMTP-001")
	assert.Equal(t, StatusReview, rec.Status, "opening a pending application moves it to review")

	_, err = d.Dispatch(ctx, Action{Kind: ActionMessage, Target: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	table.Check("NMTP-002", true)
	out, err = d.Dispatch(ctx, Action{Kind: ActionExport})
	require.NoError(t, err)
	require.NotNil(t, out.Download)
	assert.Equal(t, "applications-20250301.csv", out.Download.Filename)
	assert.Contains(t, string(out.Download.Data), "NMTP-002")
	assert.NotContains(t, string(out.Download.Data), "NMTP-003")

	out, err = d.Dispatch(ctx, Action{Kind: ActionReport})
	require.NoError(t, err)
	assert.Contains(t, out.Notice, "4 applications")

	_, err = d.Dispatch(ctx, Action{Kind: "launch"})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestSeedDemo(t *testing.T) {
	reg := NewRegistry()
	n := SeedDemo(reg, base)

	assert.Equal(t, len(demoApplicants), n)
	assert.Equal(t, n, reg.Len())
	assert.Zero(t, SeedDemo(reg, base), "seeding twice adds nothing")

	for _, rec := range reg.List() {
		assert.True(t, rec.Submitted.Before(base), "%s should be submitted before now", rec.ID)
		assert.Empty(t, rec.Device)
	}
	assert.Greater(t, NewTable(reg.List).View().Total, 1)
}
