package column

import (
	"github.com/huandu/go-clone"

	"github.com/daviszhen/compaction/pkg/common"
	"github.com/daviszhen/compaction/pkg/util"
)

// AllocateLike builds an uninitialized table with the same schema as
// src and newRowCnt rows. When initValidity is set, every column that
// is nullable in src gets a fresh all-valid mask sized for the new
// row count; otherwise output columns start without a mask. Varchar
// columns get their offsets buffer only; the byte heap is sized by
// the caller once the selected byte total is known.
func AllocateLike(src *Table, newRowCnt int, initValidity bool, alloc util.BytesAllocator) (*Table, error) {
	dst := &Table{RowCnt: newRowCnt}
	for _, srcCol := range src.Cols {
		dstCol, err := NewColumn(cloneType(srcCol.Typ), newRowCnt, alloc)
		if err != nil {
			releaseTable(dst, alloc)
			return nil, err
		}
		dstCol.Name = srcCol.Name
		dstCol.Dict = srcCol.Dict
		if initValidity && srcCol.Nullable() {
			dstCol.Mask.Init(newRowCnt)
		}
		dst.Cols = append(dst.Cols, dstCol)
	}
	return dst, nil
}

// EmptyLike returns a zero-row table with src's schema.
func EmptyLike(src *Table) *Table {
	dst := &Table{RowCnt: 0}
	for _, srcCol := range src.Cols {
		dst.Cols = append(dst.Cols, &Column{
			Name: srcCol.Name,
			Typ:  cloneType(srcCol.Typ),
			Mask: &util.Bitmap{},
			Dict: srcCol.Dict,
		})
	}
	return dst
}

// CopyTable deep-copies src, data, validity words and null counts
// included. Used by the all-rows-pass fast path, where the input is
// already byte-for-byte the desired output.
func CopyTable(src *Table, alloc util.BytesAllocator) (*Table, error) {
	dst := &Table{RowCnt: src.RowCnt}
	for _, srcCol := range src.Cols {
		dstCol, err := NewColumn(cloneType(srcCol.Typ), src.RowCnt, alloc)
		if err != nil {
			releaseTable(dst, alloc)
			return nil, err
		}
		dstCol.Name = srcCol.Name
		if srcCol.IsVarlen() {
			copy(dstCol.Offsets, srcCol.Offsets[:src.RowCnt+1])
			bytesBuf, err := alloc.Alloc(len(srcCol.Bytes))
			if err != nil {
				releaseTable(dst, alloc)
				return nil, err
			}
			copy(bytesBuf, srcCol.Bytes)
			dstCol.Bytes = bytesBuf
		} else {
			copy(dstCol.Data, srcCol.Data)
		}
		if srcCol.Nullable() {
			dstCol.Mask.CopyFrom(srcCol.Mask, src.RowCnt)
		}
		dstCol.NullCnt = srcCol.NullCnt
		dstCol.Dict = srcCol.Dict
		dst.Cols = append(dst.Cols, dstCol)
	}
	return dst, nil
}

func cloneType(typ common.LType) common.LType {
	return clone.Clone(typ).(common.LType)
}

// Release returns a table's buffers to the allocator. Only for
// tables that failed mid-construction or whose ownership was never
// handed to a caller.
func Release(t *Table, alloc util.BytesAllocator) {
	releaseTable(t, alloc)
}

func releaseTable(t *Table, alloc util.BytesAllocator) {
	for _, col := range t.Cols {
		alloc.Free(col.Data)
		alloc.Free(col.offRaw)
		alloc.Free(col.Bytes)
	}
	t.Cols = nil
}
