package column

import (
	"fmt"
)

// Table is an ordered collection of equal-length columns. Columns are
// independent; no storage is shared between them.
type Table struct {
	Cols   []*Column
	RowCnt int
}

func (t *Table) ColumnCount() int {
	if t == nil {
		return 0
	}
	return len(t.Cols)
}

func (t *Table) Card() int {
	return t.RowCnt
}

// CheckValid asserts the table-wide invariants before any pipeline
// stage runs.
func (t *Table) CheckValid() error {
	for i, col := range t.Cols {
		if err := col.CheckValid(t.RowCnt); err != nil {
			return fmt.Errorf("table column %d: %w", i, err)
		}
	}
	return nil
}

func (t *Table) Types() []string {
	ret := make([]string, t.ColumnCount())
	for i, col := range t.Cols {
		ret[i] = col.Typ.String()
	}
	return ret
}
