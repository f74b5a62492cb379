package column

import (
	"fmt"

	"github.com/daviszhen/compaction/pkg/common"
	"github.com/daviszhen/compaction/pkg/util"
)

// Column is one table attribute for all rows. Fixed-width elements
// live in Data and are reinterpreted with GetSlice. Varchar elements
// live in an Offsets (+1 entry) / Bytes pair: element i spans
// Bytes[Offsets[i]:Offsets[i+1]]. A nil Mask means every row is
// valid. NullCnt caches the number of unset mask bits in [0, rowCnt).
type Column struct {
	Name    string
	Typ     common.LType
	Data    []byte
	Offsets []uint32
	Bytes   []byte
	Mask    *util.Bitmap
	NullCnt int

	// Dict is set on dictionary-encoded columns; Data then holds
	// int32 codes into it.
	Dict *Dictionary

	// raw offsets allocation, kept so the allocator can reclaim it
	offRaw []byte
}

func NewColumn(typ common.LType, rowCnt int, alloc util.BytesAllocator) (*Column, error) {
	col := &Column{
		Typ:  typ,
		Mask: &util.Bitmap{},
	}
	if typ.GetInternalType().IsVarlen() {
		offData, err := alloc.Alloc((rowCnt + 1) * common.Int32Size)
		if err != nil {
			return nil, err
		}
		col.offRaw = offData
		col.Offsets = util.ToSlice[uint32](offData, common.Int32Size)
		return col, nil
	}
	sz := typ.GetInternalType().Size()
	if sz > 0 && rowCnt > 0 {
		data, err := alloc.Alloc(sz * rowCnt)
		if err != nil {
			return nil, err
		}
		col.Data = data
	}
	return col, nil
}

// GetSlice reinterprets a fixed-width column's buffer as typed
// elements.
func GetSlice[T any](col *Column) []T {
	util.AssertFunc(!col.Typ.GetInternalType().IsVarlen())
	pSize := col.Typ.GetInternalType().Size()
	return util.ToSlice[T](col.Data, pSize)
}

func (col *Column) IsVarlen() bool {
	return col.Typ.GetInternalType().IsVarlen()
}

func (col *Column) Nullable() bool {
	return col.Mask.IsMaskSet()
}

// GetString returns element i of a varchar column. The returned
// string shares no storage with the column.
func (col *Column) GetString(i int) string {
	util.AssertFunc(col.IsVarlen())
	return string(col.Bytes[col.Offsets[i]:col.Offsets[i+1]])
}

func (col *Column) RowIsValid(i int) bool {
	return col.Mask.RowIsValid(uint64(i))
}

// RecountNulls recomputes NullCnt from the mask.
func (col *Column) RecountNulls(rowCnt int) {
	col.NullCnt = rowCnt - col.Mask.CountValid(rowCnt)
}

// CheckValid asserts the column invariants against the declared row
// count. Violations are precondition failures, not recoverable
// errors.
func (col *Column) CheckValid(rowCnt int) error {
	if col.IsVarlen() {
		if rowCnt > 0 && len(col.Offsets) < rowCnt+1 {
			return fmt.Errorf("column %q: offsets buffer too small: %d < %d",
				col.Name, len(col.Offsets), rowCnt+1)
		}
		return nil
	}
	sz := col.Typ.GetInternalType().Size()
	if rowCnt > 0 && col.Data == nil {
		return fmt.Errorf("column %q: nonzero row count with nil data buffer", col.Name)
	}
	if len(col.Data) < sz*rowCnt {
		return fmt.Errorf("column %q: data buffer too small: %d < %d",
			col.Name, len(col.Data), sz*rowCnt)
	}
	return nil
}
