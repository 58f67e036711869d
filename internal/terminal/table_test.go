package terminal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taopiaopiao/boxoffice/internal/actions"
	"github.com/taopiaopiao/boxoffice/internal/listview"
	"github.com/taopiaopiao/boxoffice/internal/shared"
)

func sampleTable() listview.Table {
	onSale := actions.Badge{Label: "On sale", Class: "badge-success"}
	return listview.Table{
		Columns: []listview.Column{{Label: "ID"}, {Label: "Name"}, {Label: "Status"}},
		Rows: []listview.RowView{
			{
				ID:    1,
				Cells: []listview.Cell{{Text: "1"}, {Text: "Jay Chou Carnival", Sub: "Shanghai"}, {Badge: &onSale}},
				Actions: []actions.Action{
					{Kind: actions.KindView, Label: "View"},
					{Kind: actions.KindConfirm, Label: "Retract", Target: "off_sale"},
				},
			},
			{
				ID:    2,
				Cells: []listview.Cell{{Text: "2"}, {Text: "Cats"}},
			},
		},
		Pagination: shared.NewPagination(1, 2, 5),
	}
}

func TestTableRendersRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf).Table(sampleTable()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Name")
	assert.Contains(t, lines[0], "Actions")
	assert.Contains(t, lines[1], "Jay Chou Carnival (Shanghai)")
	assert.Contains(t, lines[1], "On sale")
	assert.Contains(t, lines[1], "View / Retract")
	assert.Contains(t, lines[2], "Cats")
	assert.Equal(t, "Showing 1-2 of 5 · page 1 of 3", strings.TrimSpace(lines[3]))
}

func TestTableTruncatesWideCells(t *testing.T) {
	var buf bytes.Buffer
	table := sampleTable()
	table.Rows = table.Rows[1:]
	table.Rows[0].Cells[1].Text = "An exceptionally long musical title"
	require.NoError(t, New(&buf).WithMaxCell(10).Table(table))

	assert.Contains(t, buf.String(), "An except…")
	assert.NotContains(t, buf.String(), "exceptionally")
}

func TestTableEmptyAndError(t *testing.T) {
	var buf bytes.Buffer
	empty := listview.Table{Columns: []listview.Column{{Label: "ID"}}, Empty: true, EmptyText: "No data"}
	require.NoError(t, New(&buf).Table(empty))
	assert.Contains(t, buf.String(), "No data")
	assert.Contains(t, buf.String(), "No records")

	buf.Reset()
	failed := listview.Table{Columns: []listview.Column{{Label: "ID"}}, Error: "network error, please check your connection"}
	require.NoError(t, New(&buf).Table(failed))
	assert.Contains(t, buf.String(), "error: network error, please check your connection")
	assert.NotContains(t, buf.String(), "No records")
}

func TestCellText(t *testing.T) {
	badge := actions.Badge{Label: "Draft"}
	assert.Equal(t, "Draft", cellText(listview.Cell{Text: "ignored", Badge: &badge}))
	assert.Equal(t, "a b", cellText(listview.Cell{Text: "a\nb"}))
}
