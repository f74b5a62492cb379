package compact

import (
	"github.com/daviszhen/compaction/pkg/util"
)

// Predicate reports whether the row at idx is selected. It must be
// pure, callable concurrently from many workers, and must return
// false for idx >= row count: block sizing over-provisions to
// block-size multiples, so out-of-range indices are always presented.
// That obligation belongs to the caller and is not re-validated here.
type Predicate func(idx int) bool

const (
	// BlockSize lanes per block, PerLaneRows rows per lane: one block
	// covers BlockRows rows and is the unit of parallel work.
	BlockSize   = 256
	PerLaneRows = 4
	BlockRows   = BlockSize * PerLaneRows

	// LaneGroupWidth is the lock-step sub-group whose ballot builds
	// one packed validity word.
	LaneGroupWidth = util.ValidityWordWidth
)

func numBlocks(n int) int {
	return util.CeilDiv(n, BlockRows)
}

// Bound wraps pred so that indices at or beyond n are rejected,
// satisfying the out-of-range contract for predicates that do not
// handle it themselves.
func Bound(pred func(idx int) bool, n int) Predicate {
	return func(idx int) bool {
		return idx < n && pred(idx)
	}
}
