package compact

import (
	"math/bits"
)

// countBlocks fills blockCounts[b] with the number of rows in block b
// that satisfy the predicate. Each block reduces per lane group: the
// group's predicate results form a ballot word, popcounted and summed
// across the block. The predicate is evaluated exactly once per row;
// indices past n are presented and must answer false.
func countBlocks(pred Predicate, blockCounts []int32, q *Queue) {
	nb := len(blockCounts)
	for b := 0; b < nb; b++ {
		blockCounts[b] = 0
		block := b
		q.Submit(func() error {
			blockCounts[block] = blockPassCount(pred, block*BlockRows)
			return nil
		})
	}
}

func blockPassCount(pred Predicate, start int) int32 {
	cnt := 0
	for g := 0; g < BlockRows; g += LaneGroupWidth {
		ballot := laneGroupBallot(pred, start+g)
		cnt += bits.OnesCount32(ballot)
	}
	return int32(cnt)
}

// laneGroupBallot evaluates one lane group's predicates into a packed
// word, bit i for row start+i.
func laneGroupBallot(pred Predicate, start int) uint32 {
	var ballot uint32
	for lane := 0; lane < LaneGroupWidth; lane++ {
		if pred(start + lane) {
			ballot |= 1 << uint(lane)
		}
	}
	return ballot
}
