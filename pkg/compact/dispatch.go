package compact

import (
	"fmt"
	"sync/atomic"

	"github.com/daviszhen/compaction/pkg/column"
	"github.com/daviszhen/compaction/pkg/common"
)

// dispatchScatter maps the column's runtime type tag to its
// compile-time scatter specialization. The enumeration is closed; an
// unknown tag is a programming error, not a runtime condition.
func dispatchScatter(st *state, src, dst *column.Column, byteOffs []int32,
	nullCnt *atomic.Int64, q *Queue) {
	switch src.Typ.GetInternalType() {
	case common.BOOL:
		scatterFixed[bool](st, src, dst, nullCnt, q)
	case common.INT32:
		scatterFixed[int32](st, src, dst, nullCnt, q)
	case common.INT64:
		scatterFixed[int64](st, src, dst, nullCnt, q)
	case common.UINT64:
		scatterFixed[uint64](st, src, dst, nullCnt, q)
	case common.FLOAT:
		scatterFixed[float32](st, src, dst, nullCnt, q)
	case common.DOUBLE:
		scatterFixed[float64](st, src, dst, nullCnt, q)
	case common.DATE:
		scatterFixed[common.Date](st, src, dst, nullCnt, q)
	case common.DECIMAL:
		scatterFixed[common.Decimal](st, src, dst, nullCnt, q)
	case common.VARCHAR:
		scatterVarchar(st, src, dst, byteOffs, nullCnt, q)
	default:
		panic(fmt.Sprintf("usp %d", src.Typ.GetInternalType()))
	}
}
