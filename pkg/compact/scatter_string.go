package compact

import (
	"sync/atomic"

	"github.com/daviszhen/compaction/pkg/column"
)

// Varchar compaction is the same selection decision as the
// fixed-width scatter but a different output representation: a
// transformed offsets array for the selected rows plus an elementwise
// byte copy at the new offsets. Two passes: derive per-block selected
// byte totals (bytes needed per row if selected, else 0), scan them
// into per-block byte offsets, then copy.

// countSelectedBytes issues one task per block filling
// byteCnts[b] with the number of heap bytes block b's selected rows
// occupy.
func countSelectedBytes(st *state, src *column.Column, byteCnts []int32, q *Queue) {
	offsets := src.Offsets
	for b := 0; b < st.nblocks; b++ {
		block := b
		q.Submit(func() error {
			var sum int32
			base := block * BlockRows
			for i := 0; i < BlockRows; i++ {
				idx := base + i
				if st.pred(idx) {
					sum += int32(offsets[idx+1] - offsets[idx])
				}
			}
			byteCnts[block] = sum
			return nil
		})
	}
}

// scatterVarchar issues per-block tasks writing the selected rows'
// new offsets and copying their byte ranges. byteOffs is the
// exclusive scan of the per-block byte counts.
func scatterVarchar(st *state, src, dst *column.Column, byteOffs []int32,
	nullCnt *atomic.Int64, q *Queue) {
	nullable := src.Nullable()
	for b := 0; b < st.nblocks; b++ {
		block := b
		q.Submit(func() error {
			scatterVarcharBlock(st, src, dst, int(byteOffs[block]), nullable, nullCnt, block)
			return nil
		})
	}
}

func scatterVarcharBlock(st *state, src, dst *column.Column, byteOff int,
	nullable bool, nullCnt *atomic.Int64, block int) {
	writeOff := int(st.blockOffs[block])
	base := block * BlockRows
	var bitScratch [BlockSize + LaneGroupWidth]bool
	for t := 0; t < PerLaneRows; t++ {
		tileStart := base + t*BlockSize
		slot := 0
		for i := 0; i < BlockSize; i++ {
			idx := tileStart + i
			if !st.pred(idx) {
				continue
			}
			lo, hi := src.Offsets[idx], src.Offsets[idx+1]
			dst.Offsets[writeOff+slot] = uint32(byteOff)
			copy(dst.Bytes[byteOff:byteOff+int(hi-lo)], src.Bytes[lo:hi])
			byteOff += int(hi - lo)
			if nullable {
				bitScratch[slot] = src.Mask.RowIsValid(uint64(idx))
			}
			slot++
		}
		if nullable {
			valid := writeValidityRun(dst.Mask, writeOff, bitScratch[:], slot)
			nullCnt.Add(int64(slot - valid))
		}
		writeOff += slot
	}
}
