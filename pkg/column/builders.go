package column

import (
	"github.com/daviszhen/compaction/pkg/common"
	"github.com/daviszhen/compaction/pkg/util"
)

// Builders for fully materialized columns; used by the loader and
// tests. nullAt may be nil for an all-valid column.

func NewFixedColumn[T any](typ common.LType, vals []T, nullAt func(i int) bool) *Column {
	col, err := NewColumn(typ, len(vals), util.GAlloc)
	util.AssertFunc(err == nil)
	slice := GetSlice[T](col)
	copy(slice, vals)
	applyNulls(col, len(vals), nullAt)
	return col
}

func NewVarcharColumn(vals []string, nullAt func(i int) bool) *Column {
	col, err := NewColumn(common.VarcharType(), len(vals), util.GAlloc)
	util.AssertFunc(err == nil)
	total := 0
	for _, v := range vals {
		total += len(v)
	}
	col.Bytes = make([]byte, total)
	off := uint32(0)
	for i, v := range vals {
		col.Offsets[i] = off
		copy(col.Bytes[off:], v)
		off += uint32(len(v))
	}
	col.Offsets[len(vals)] = off
	applyNulls(col, len(vals), nullAt)
	return col
}

func applyNulls(col *Column, rowCnt int, nullAt func(i int) bool) {
	if nullAt == nil {
		return
	}
	for i := 0; i < rowCnt; i++ {
		if nullAt(i) {
			col.Mask.SetInvalid(uint64(i), rowCnt)
		}
	}
	if col.Mask.IsMaskSet() {
		col.RecountNulls(rowCnt)
	}
}

// NewDictColumn encodes vals into codes over a fresh dictionary.
func NewDictColumn(vals []string, nullAt func(i int) bool) *Column {
	dict := NewDictionary(nil)
	codes := make([]int32, len(vals))
	for i, v := range vals {
		codes[i] = dict.Insert(v)
	}
	col := NewFixedColumn[int32](common.IntegerType(), codes, nullAt)
	col.Dict = dict
	return col
}
