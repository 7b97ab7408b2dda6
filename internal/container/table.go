package container

import (
	"github.com/klevvr/go-crypto-history/internal/models"
)

// Table is the per-pair 2-D stage between a raw history and the container:
// rows follow the time index, columns are named. Cells are nil where no value
// exists (padded rows, unset fields).
type Table struct {
	Columns []string
	Index   []int
	Cells   [][]*string // rows × columns
}

// FromHistory converts a raw history into a table with one row per kline and
// the full exchange-native column set.
func FromHistory(history models.RawHistory) *Table {
	t := &Table{
		Columns: models.RawColumns(),
		Index:   make([]int, len(history)),
		Cells:   make([][]*string, len(history)),
	}
	for i := range history {
		t.Index[i] = i
		values := history[i].CellValues()
		row := make([]*string, len(values))
		for j := range values {
			v := values[j]
			row[j] = &v
		}
		t.Cells[i] = row
	}
	return t
}

// Rows returns the current row count.
func (t *Table) Rows() int {
	return len(t.Cells)
}

// PadRows extends the table with trailing all-nil rows until it has expected
// rows. New index positions continue contiguously from the last existing
// index value. Tables already at or above the expected depth are left
// unchanged; truncation never happens here.
func (t *Table) PadRows(expected int) {
	rowsToAdd := expected - t.Rows()
	if rowsToAdd <= 0 {
		return
	}

	next := 0
	if len(t.Index) > 0 {
		next = t.Index[len(t.Index)-1] + 1
	}
	for i := 0; i < rowsToAdd; i++ {
		t.Index = append(t.Index, next+i)
		t.Cells = append(t.Cells, make([]*string, len(t.Columns)))
	}
}

// DropColumnsExcept removes every column whose name is not in keep.
func (t *Table) DropColumnsExcept(keep []string) {
	keepSet := make(map[string]struct{}, len(keep))
	for _, name := range keep {
		keepSet[name] = struct{}{}
	}

	var kept []int
	for j, name := range t.Columns {
		if _, ok := keepSet[name]; ok {
			kept = append(kept, j)
		}
	}

	columns := make([]string, len(kept))
	for i, j := range kept {
		columns[i] = t.Columns[j]
	}
	for r, row := range t.Cells {
		filtered := make([]*string, len(kept))
		for i, j := range kept {
			filtered[i] = row[j]
		}
		t.Cells[r] = filtered
	}
	t.Columns = columns
}

// AppendConstantColumn adds a column holding the same value in every row.
func (t *Table) AppendConstantColumn(name, value string) {
	t.Columns = append(t.Columns, name)
	for r := range t.Cells {
		v := value
		t.Cells[r] = append(t.Cells[r], &v)
	}
}

// Column returns the cell slice for a named column.
func (t *Table) Column(name string) ([]*string, bool) {
	for j, col := range t.Columns {
		if col != name {
			continue
		}
		values := make([]*string, t.Rows())
		for r := range t.Cells {
			values[r] = t.Cells[r][j]
		}
		return values, true
	}
	return nil, false
}
