package compact

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/compaction/pkg/column"
	"github.com/daviszhen/compaction/pkg/common"
	"github.com/daviszhen/compaction/pkg/util"
)

func intColumn(n int, nullAt func(i int) bool) *column.Column {
	vals := make([]int64, n)
	for i := range vals {
		vals[i] = int64(i)
	}
	return column.NewFixedColumn[int64](common.BigintType(), vals, nullAt)
}

func Test_compactEvenRows(t *testing.T) {
	vals := []int32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	tab := &column.Table{
		Cols:   []*column.Column{column.NewFixedColumn[int32](common.IntegerType(), vals, nil)},
		RowCnt: len(vals),
	}
	pred := Bound(func(i int) bool { return i%2 == 0 }, tab.Card())

	res, err := Compact(context.Background(), tab, pred, nil)
	require.NoError(t, err)
	require.Equal(t, 5, res.Card())
	data := column.GetSlice[int32](res.Cols[0])
	assert.Equal(t, []int32{0, 2, 4, 6, 8}, data[:5])
	assert.False(t, res.Cols[0].Nullable())
	assert.Equal(t, 0, res.Cols[0].NullCnt)
}

func Test_compactAllPassKeepsNulls(t *testing.T) {
	n := 8
	tab := &column.Table{
		Cols:   []*column.Column{intColumn(n, func(i int) bool { return i == 1 || i == 3 })},
		RowCnt: n,
	}
	pred := Bound(func(i int) bool { return true }, n)

	res, err := Compact(context.Background(), tab, pred, nil)
	require.NoError(t, err)
	require.Equal(t, n, res.Card())
	data := column.GetSlice[int64](res.Cols[0])
	for i := 0; i < n; i++ {
		assert.Equal(t, int64(i), data[i])
		assert.Equal(t, tab.Cols[0].RowIsValid(i), res.Cols[0].RowIsValid(i))
	}
	assert.Equal(t, 2, res.Cols[0].NullCnt)
}

func Test_compactNonePass(t *testing.T) {
	tab := &column.Table{
		Cols: []*column.Column{
			intColumn(6, nil),
			column.NewVarcharColumn([]string{"a", "b", "c", "d", "e", "f"}, nil),
		},
		RowCnt: 6,
	}
	pred := Bound(func(i int) bool { return false }, 6)

	res, err := Compact(context.Background(), tab, pred, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Card())
	require.Equal(t, 2, res.ColumnCount())
	assert.True(t, res.Cols[0].Typ.Equal(common.BigintType()))
	assert.True(t, res.Cols[1].Typ.Equal(common.VarcharType()))
}

func Test_compactTwoColumns(t *testing.T) {
	n := 16
	strs := make([]string, n)
	for i := range strs {
		strs[i] = fmt.Sprintf("row-%02d", i)
	}
	tab := &column.Table{
		Cols: []*column.Column{
			intColumn(n, nil),
			column.NewVarcharColumn(strs, nil),
		},
		RowCnt: n,
	}
	pred := Bound(func(i int) bool { return i%2 == 0 }, n)

	res, err := Compact(context.Background(), tab, pred, nil)
	require.NoError(t, err)
	require.Equal(t, 8, res.Card())
	data := column.GetSlice[int64](res.Cols[0])
	for j := 0; j < 8; j++ {
		assert.Equal(t, int64(2*j), data[j])
		assert.Equal(t, fmt.Sprintf("row-%02d", 2*j), res.Cols[1].GetString(j))
	}
}

func Test_compactBlockBoundary(t *testing.T) {
	// one full block plus a single straggler row in the next
	n := BlockRows + 1
	tab := &column.Table{
		Cols:   []*column.Column{intColumn(n, nil)},
		RowCnt: n,
	}
	pred := Bound(func(i int) bool { return i == 0 || i == BlockRows }, n)

	res, err := Compact(context.Background(), tab, pred, nil)
	require.NoError(t, err)
	require.Equal(t, 2, res.Card())
	data := column.GetSlice[int64](res.Cols[0])
	assert.Equal(t, int64(0), data[0])
	assert.Equal(t, int64(BlockRows), data[1])
}

func Test_compactMatchesReference(t *testing.T) {
	n := 2*BlockRows + 37
	nullAt := func(i int) bool { return i%7 == 0 }
	keep := func(i int) bool { return i%3 == 0 }
	tab := &column.Table{
		Cols:   []*column.Column{intColumn(n, nullAt)},
		RowCnt: n,
	}

	res, err := Compact(context.Background(), tab, Bound(keep, n), nil)
	require.NoError(t, err)

	var wantVals []int64
	var wantValid []bool
	for i := 0; i < n; i++ {
		if keep(i) {
			wantVals = append(wantVals, int64(i))
			wantValid = append(wantValid, !nullAt(i))
		}
	}
	require.Equal(t, len(wantVals), res.Card())
	data := column.GetSlice[int64](res.Cols[0])
	nulls := 0
	for j := range wantVals {
		assert.Equal(t, wantVals[j], data[j])
		assert.Equal(t, wantValid[j], res.Cols[0].RowIsValid(j))
		if !wantValid[j] {
			nulls++
		}
	}
	assert.Equal(t, nulls, res.Cols[0].NullCnt)
	// the cached count agrees with a recount from the mask
	assert.Equal(t, res.Card()-res.Cols[0].Mask.CountValid(res.Card()),
		res.Cols[0].NullCnt)
}

func Test_compactVarcharWithNulls(t *testing.T) {
	n := 70
	strs := make([]string, n)
	for i := range strs {
		strs[i] = fmt.Sprintf("%0*d", i%9+1, i)
	}
	nullAt := func(i int) bool { return i%11 == 0 }
	keep := func(i int) bool { return i%4 != 1 }
	tab := &column.Table{
		Cols:   []*column.Column{column.NewVarcharColumn(strs, nullAt)},
		RowCnt: n,
	}

	res, err := Compact(context.Background(), tab, Bound(keep, n), nil)
	require.NoError(t, err)

	col := res.Cols[0]
	j := 0
	nulls := 0
	for i := 0; i < n; i++ {
		if !keep(i) {
			continue
		}
		assert.Equal(t, strs[i], col.GetString(j))
		assert.Equal(t, !nullAt(i), col.RowIsValid(j))
		if nullAt(i) {
			nulls++
		}
		j++
	}
	assert.Equal(t, j, res.Card())
	assert.Equal(t, nulls, col.NullCnt)
	// closing offset covers exactly the copied heap
	assert.Equal(t, uint32(len(col.Bytes)), col.Offsets[res.Card()])
}

func Test_compactDictResync(t *testing.T) {
	vals := []string{"red", "blue", "green", "red", "blue", "green", "red", "amber"}
	tab := &column.Table{
		Cols:   []*column.Column{column.NewDictColumn(vals, nil)},
		RowCnt: len(vals),
	}
	// drops every green and the lone amber
	keep := func(i int) bool { return vals[i] == "red" || vals[i] == "blue" }

	res, err := Compact(context.Background(), tab, Bound(keep, len(vals)), nil)
	require.NoError(t, err)
	require.Equal(t, 5, res.Card())

	dict := res.Cols[0].Dict
	require.NotNil(t, dict)
	assert.NotSame(t, tab.Cols[0].Dict, dict)
	assert.Equal(t, 2, dict.Len())
	codes := column.GetSlice[int32](res.Cols[0])
	want := []string{"red", "blue", "red", "blue", "red"}
	for j, w := range want {
		assert.Equal(t, w, dict.Value(codes[j]))
	}
	// source dictionary is untouched
	assert.Equal(t, 4, tab.Cols[0].Dict.Len())
}

func Test_compactScratchReleased(t *testing.T) {
	n := BlockRows + 100
	tab := &column.Table{
		Cols:   []*column.Column{intColumn(n, func(i int) bool { return i%5 == 0 })},
		RowCnt: n,
	}
	alloc := util.NewTrackingAllocator(nil, 0)

	res, err := Compact(context.Background(), tab,
		Bound(func(i int) bool { return i%2 == 0 }, n), &Options{Alloc: alloc})
	require.NoError(t, err)
	assert.Greater(t, alloc.LiveBytes(), 0)

	// everything still live belongs to the result
	column.Release(res, alloc)
	assert.Equal(t, 0, alloc.LiveBytes())
}

func Test_compactAllocFailure(t *testing.T) {
	n := 100
	tab := &column.Table{
		Cols:   []*column.Column{column.NewFixedColumn[int32](common.IntegerType(), make([]int32, n), nil)},
		RowCnt: n,
	}
	// scratch fits, the destination column does not
	alloc := util.NewTrackingAllocator(nil, 64)

	res, err := Compact(context.Background(), tab,
		Bound(func(i int) bool { return i%2 == 0 }, n), &Options{Alloc: alloc})
	assert.Error(t, err)
	assert.Nil(t, res)
	// no partial result leaks out of a failed run
	assert.Equal(t, 0, alloc.LiveBytes())
}

func Test_compactEmptyTable(t *testing.T) {
	tab := &column.Table{
		Cols:   []*column.Column{{Typ: common.IntegerType(), Mask: &util.Bitmap{}}},
		RowCnt: 0,
	}
	res, err := Compact(context.Background(), tab,
		Bound(func(i int) bool { return true }, 0), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Card())
	assert.Equal(t, 1, res.ColumnCount())
}
