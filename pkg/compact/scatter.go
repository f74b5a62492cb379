package compact

import (
	"math/bits"
	"sync/atomic"

	"github.com/daviszhen/compaction/pkg/column"
	"github.com/daviszhen/compaction/pkg/util"
)

// state carries one invocation's pipeline artifacts: block metadata
// from the count/scan stages and the resolved output size. Scratch
// only; released before Compact returns.
type state struct {
	pred       Predicate
	n          int
	nblocks    int
	blockCnts  []int32
	blockOffs  []int32
	outputSize int
}

// writeValidityRun packs cnt staged validity bits into dst beginning
// at destination row dstStart and returns the number of valid bits.
// Interior words are fully owned by this run and stored directly. The
// first and last words may be shared with neighboring runs whenever
// the run boundaries are not word-aligned; those are merged with an
// atomic OR, which is safe because merging only ever sets bits, so
// concurrent merges compose in any order.
func writeValidityRun(dst *util.Bitmap, dstStart int, staged []bool, cnt int) int {
	if cnt == 0 {
		return 0
	}
	valid := 0
	firstWord := dstStart / LaneGroupWidth
	lastWord := (dstStart + cnt - 1) / LaneGroupWidth
	for w := firstWord; w <= lastWord; w++ {
		wordStart := w * LaneGroupWidth
		var word uint32
		for pos := 0; pos < LaneGroupWidth; pos++ {
			si := wordStart + pos - dstStart
			if si >= 0 && si < cnt && staged[si] {
				word |= 1 << uint(pos)
			}
		}
		valid += bits.OnesCount32(word)
		owned := wordStart >= dstStart && wordStart+LaneGroupWidth <= dstStart+cnt
		if owned {
			dst.SetEntry(uint64(w), word)
		} else {
			dst.OrEntry(uint64(w), word)
		}
	}
	return valid
}

// scatterFixed issues one task per block that places the selected
// rows of a fixed-width column into dst in input order. nullCnt
// accumulates the column's null contribution across all blocks.
func scatterFixed[T any](st *state, src, dst *column.Column, nullCnt *atomic.Int64, q *Queue) {
	srcSlice := column.GetSlice[T](src)
	dstSlice := column.GetSlice[T](dst)
	nullable := src.Nullable()
	for b := 0; b < st.nblocks; b++ {
		block := b
		q.Submit(func() error {
			if nullable {
				scatterFixedBlockNull[T](st, srcSlice, dstSlice, src.Mask, dst.Mask, nullCnt, block)
			} else {
				scatterFixedBlock[T](st, srcSlice, dstSlice, block)
			}
			return nil
		})
	}
}

// scatterFixedBlock is the non-nullable specialization: no validity
// staging, no atomics, just staged values and contiguous writes.
func scatterFixedBlock[T any](st *state, srcSlice, dstSlice []T, block int) {
	writeOff := int(st.blockOffs[block])
	base := block * BlockRows
	var vals [BlockSize]T
	for t := 0; t < PerLaneRows; t++ {
		tileStart := base + t*BlockSize
		// intra-block exclusive scan of the predicate: slot is the
		// running pass count, so each selected row lands at its local
		// slot in input order.
		slot := 0
		for i := 0; i < BlockSize; i++ {
			idx := tileStart + i
			if st.pred(idx) {
				vals[slot] = srcSlice[idx]
				slot++
			}
		}
		// one contiguous write from scratch, not per-row scattered
		// stores
		copy(dstSlice[writeOff:writeOff+slot], vals[:slot])
		writeOff += slot
	}
}

func scatterFixedBlockNull[T any](st *state, srcSlice, dstSlice []T,
	srcMask, dstMask *util.Bitmap, nullCnt *atomic.Int64, block int) {
	writeOff := int(st.blockOffs[block])
	base := block * BlockRows
	var vals [BlockSize]T
	// sized one lane-group width past the tile to absorb misalignment
	// between the destination offset and the word width
	var bitScratch [BlockSize + LaneGroupWidth]bool
	for t := 0; t < PerLaneRows; t++ {
		tileStart := base + t*BlockSize
		slot := 0
		for i := 0; i < BlockSize; i++ {
			idx := tileStart + i
			if st.pred(idx) {
				vals[slot] = srcSlice[idx]
				bitScratch[slot] = srcMask.RowIsValid(uint64(idx))
				slot++
			}
		}
		copy(dstSlice[writeOff:writeOff+slot], vals[:slot])
		valid := writeValidityRun(dstMask, writeOff, bitScratch[:], slot)
		nullCnt.Add(int64(slot - valid))
		writeOff += slot
	}
}
