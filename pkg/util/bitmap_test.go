package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_bitmapBasics(t *testing.T) {
	bm := &Bitmap{}
	assert.True(t, bm.AllValid())
	assert.True(t, bm.RowIsValid(0))
	assert.True(t, bm.RowIsValid(1000))

	bm.Init(100)
	assert.Equal(t, EntryCount(100), len(bm.Words))
	for i := 0; i < 100; i++ {
		assert.True(t, bm.RowIsValid(uint64(i)))
	}

	bm.SetInvalidUnsafe(3)
	bm.SetInvalidUnsafe(64)
	assert.False(t, bm.RowIsValid(3))
	assert.False(t, bm.RowIsValid(64))
	assert.True(t, bm.RowIsValid(4))

	bm.SetValidUnsafe(3)
	assert.True(t, bm.RowIsValid(3))
}

func Test_bitmapSetInvalidAllocatesLazily(t *testing.T) {
	bm := &Bitmap{}
	bm.SetInvalid(5, 40)
	assert.True(t, bm.IsMaskSet())
	assert.False(t, bm.RowIsValid(5))
	// other rows stay valid after the lazy init
	for i := 0; i < 40; i++ {
		if i == 5 {
			continue
		}
		assert.True(t, bm.RowIsValid(uint64(i)))
	}
}

func Test_bitmapCountValid(t *testing.T) {
	bm := &Bitmap{}
	assert.Equal(t, 77, bm.CountValid(77))

	bm.Init(77)
	assert.Equal(t, 77, bm.CountValid(77))

	bm.SetInvalidUnsafe(0)
	bm.SetInvalidUnsafe(31)
	bm.SetInvalidUnsafe(32)
	bm.SetInvalidUnsafe(76)
	assert.Equal(t, 73, bm.CountValid(77))

	// bits past cnt in the last word never contribute
	bm2 := &Bitmap{}
	bm2.Init(64)
	assert.Equal(t, 33, bm2.CountValid(33))
}

func Test_bitmapSetAll(t *testing.T) {
	bm := &Bitmap{}
	bm.SetAllInvalid(70)
	assert.Equal(t, 0, bm.CountValid(70))

	bm.SetAllValid(70)
	assert.Equal(t, 70, bm.CountValid(70))

	// word-aligned count
	bm2 := &Bitmap{}
	bm2.SetAllInvalid(64)
	assert.Equal(t, 0, bm2.CountValid(64))
	bm2.SetAllValid(64)
	assert.Equal(t, 64, bm2.CountValid(64))
}

func Test_bitmapOrEntryConcurrent(t *testing.T) {
	bm := &Bitmap{}
	bm.SetAllInvalid(32)

	// concurrent set-only merges compose regardless of order
	var wg sync.WaitGroup
	for bit := 0; bit < 32; bit++ {
		wg.Add(1)
		go func(b int) {
			defer wg.Done()
			bm.OrEntry(0, 1<<uint(b))
		}(bit)
	}
	wg.Wait()
	assert.Equal(t, AllValidWord, bm.GetEntry(0))
	assert.Equal(t, 32, bm.CountValid(32))
}

func Test_bitmapCopyFrom(t *testing.T) {
	src := &Bitmap{}
	src.Init(40)
	src.SetInvalidUnsafe(7)

	dst := &Bitmap{}
	dst.CopyFrom(src, 40)
	assert.False(t, dst.RowIsValid(7))
	assert.True(t, dst.RowIsValid(8))

	// copying an all-valid mask keeps the implicit representation
	dst2 := &Bitmap{}
	dst2.CopyFrom(&Bitmap{}, 40)
	assert.False(t, dst2.IsMaskSet())
}
