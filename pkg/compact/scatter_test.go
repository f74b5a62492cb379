package compact

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daviszhen/compaction/pkg/util"
)

func Test_exclusiveScan(t *testing.T) {
	counts := []int32{3, 0, 5, 2}
	offsets := make([]int32, 4)
	exclusiveScan(counts, offsets)
	assert.Equal(t, []int32{0, 3, 3, 8}, offsets)
	assert.Equal(t, 10, resolveOutputSize(counts, offsets))
}

func Test_writeValidityRunAligned(t *testing.T) {
	dst := &util.Bitmap{}
	dst.SetAllInvalid(96)

	staged := make([]bool, 64)
	for i := range staged {
		staged[i] = i%2 == 0
	}
	// word-aligned run fully owns its two words
	valid := writeValidityRun(dst, 32, staged, 64)
	assert.Equal(t, 32, valid)
	for i := 0; i < 64; i++ {
		assert.Equal(t, i%2 == 0, dst.RowIsValid(uint64(32+i)))
	}
	// words outside the run are untouched
	assert.Equal(t, uint32(0), dst.GetEntry(0))
}

func Test_writeValidityRunMisaligned(t *testing.T) {
	dst := &util.Bitmap{}
	dst.SetAllInvalid(100)

	staged := make([]bool, 30)
	for i := range staged {
		staged[i] = true
	}
	// run straddles the word boundary at 32: both touched words are
	// shared, neither is owned
	valid := writeValidityRun(dst, 10, staged, 30)
	assert.Equal(t, 30, valid)
	for i := 0; i < 100; i++ {
		assert.Equal(t, i >= 10 && i < 40, dst.RowIsValid(uint64(i)))
	}
}

func Test_writeValidityRunsCompose(t *testing.T) {
	dst := &util.Bitmap{}
	dst.SetAllInvalid(64)

	allTrue := func(n int) []bool {
		s := make([]bool, n)
		for i := range s {
			s[i] = true
		}
		return s
	}
	// two adjacent runs share the word holding rows 32..63; the merges
	// must not clobber each other
	assert.Equal(t, 40, writeValidityRun(dst, 0, allTrue(40), 40))
	assert.Equal(t, 24, writeValidityRun(dst, 40, allTrue(24), 24))
	assert.Equal(t, 64, dst.CountValid(64))
}

func Test_writeValidityRunAlignmentSweep(t *testing.T) {
	// every destination alignment mod 32 for a run spanning multiple
	// words
	for start := 0; start < 2*LaneGroupWidth; start++ {
		dst := &util.Bitmap{}
		dst.SetAllInvalid(160)
		staged := make([]bool, 50)
		for i := range staged {
			staged[i] = i%3 != 0
		}
		valid := writeValidityRun(dst, start, staged, 50)
		want := 0
		for i := 0; i < 160; i++ {
			si := i - start
			exp := si >= 0 && si < 50 && staged[si]
			assert.Equal(t, exp, dst.RowIsValid(uint64(i)), "start=%d row=%d", start, i)
			if exp {
				want++
			}
		}
		assert.Equal(t, want, valid, "start=%d", start)
	}
}

func Test_writeValidityRunEmpty(t *testing.T) {
	dst := &util.Bitmap{}
	dst.SetAllInvalid(32)
	assert.Equal(t, 0, writeValidityRun(dst, 7, nil, 0))
	assert.Equal(t, 0, dst.CountValid(32))
}

func Test_bound(t *testing.T) {
	pred := Bound(func(i int) bool { return true }, 5)
	assert.True(t, pred(4))
	assert.False(t, pred(5))
	assert.False(t, pred(BlockRows))
}

func Test_blockPassCount(t *testing.T) {
	pred := Bound(func(i int) bool { return i%2 == 0 }, BlockRows)
	assert.Equal(t, int32(BlockRows/2), blockPassCount(pred, 0))
	// the second block is entirely past n and counts nothing
	assert.Equal(t, int32(0), blockPassCount(pred, BlockRows))
}
