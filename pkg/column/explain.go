package column

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// ExplainSchema renders the table layout as a tree, for diagnostics.
func (t *Table) ExplainSchema() string {
	root := treeprint.NewWithRoot(fmt.Sprintf("table rows=%d cols=%d", t.Card(), t.ColumnCount()))
	for i, col := range t.Cols {
		name := col.Name
		if name == "" {
			name = fmt.Sprintf("col%d", i)
		}
		branch := root.AddBranch(fmt.Sprintf("%s %s", name, col.Typ.String()))
		if col.Nullable() {
			branch.AddNode(fmt.Sprintf("nullable null_count=%d", col.NullCnt))
		} else {
			branch.AddNode("all valid")
		}
		if col.Dict != nil {
			branch.AddNode(fmt.Sprintf("dictionary size=%d", col.Dict.Len()))
		}
	}
	return root.String()
}
