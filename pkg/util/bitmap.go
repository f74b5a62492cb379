package util

import (
	"math/bits"
	"sync/atomic"
)

const (
	// ValidityWordWidth is the number of rows covered by one packed
	// validity word.
	ValidityWordWidth = 32

	AllValidWord = uint32(0xFFFFFFFF)
)

// Bitmap is a packed validity mask. One bit per row, grouped into
// uint32 words. A nil Words slice means every row is valid.
type Bitmap struct {
	Words []uint32
}

func (bm *Bitmap) Data() []uint32 {
	return bm.Words
}

func (bm *Bitmap) Invalid() bool {
	return len(bm.Words) == 0
}

func (bm *Bitmap) AllValid() bool {
	return bm.Invalid()
}

func (bm *Bitmap) IsMaskSet() bool {
	return bm.Words != nil
}

func EntryCount(cnt int) int {
	return (cnt + ValidityWordWidth - 1) / ValidityWordWidth
}

func GetEntryIndex(idx uint64) (uint64, uint64) {
	return idx / ValidityWordWidth, idx % ValidityWordWidth
}

func EntryIsSet(e uint32, pos uint64) bool {
	return e&(1<<pos) != 0
}

func NoneValidInEntry(e uint32) bool {
	return e == 0
}

func AllValidInEntry(e uint32) bool {
	return e == AllValidWord
}

func (bm *Bitmap) Init(count int) {
	cnt := EntryCount(count)
	bm.Words = make([]uint32, cnt)
	for i := range bm.Words {
		bm.Words[i] = AllValidWord
	}
}

func (bm *Bitmap) Reset() {
	bm.Words = nil
}

func (bm *Bitmap) ShareWith(other *Bitmap) {
	bm.Words = other.Words
}

func (bm *Bitmap) GetEntry(eIdx uint64) uint32 {
	if bm.Invalid() {
		return AllValidWord
	}
	return bm.Words[eIdx]
}

func (bm *Bitmap) SetEntry(eIdx uint64, e uint32) {
	bm.Words[eIdx] = e
}

// OrEntry merges bits into a word with an atomic OR. Safe for words
// whose destination range is shared by neighboring writers: merging
// only ever sets bits.
func (bm *Bitmap) OrEntry(eIdx uint64, e uint32) {
	// atomic.OrUint32 requires Go 1.23; emulate it with a CAS loop so the
	// module builds with the local Go 1.21 toolchain.
	for {
		old := atomic.LoadUint32(&bm.Words[eIdx])
		if atomic.CompareAndSwapUint32(&bm.Words[eIdx], old, old|e) {
			return
		}
	}
}

func (bm *Bitmap) RowIsValidUnsafe(idx uint64) bool {
	eIdx, pos := GetEntryIndex(idx)
	return EntryIsSet(bm.GetEntry(eIdx), pos)
}

func (bm *Bitmap) RowIsValid(idx uint64) bool {
	if bm.Invalid() {
		return true
	}
	return bm.RowIsValidUnsafe(idx)
}

func (bm *Bitmap) SetValidUnsafe(ridx uint64) {
	eIdx, pos := GetEntryIndex(ridx)
	bm.Words[eIdx] |= 1 << pos
}

func (bm *Bitmap) SetValid(ridx uint64) {
	if bm.Invalid() {
		return
	}
	bm.SetValidUnsafe(ridx)
}

func (bm *Bitmap) SetInvalidUnsafe(ridx uint64) {
	eIdx, pos := GetEntryIndex(ridx)
	bm.Words[eIdx] &= ^(uint32(1) << pos)
}

func (bm *Bitmap) SetInvalid(ridx uint64, rowCount int) {
	if bm.Invalid() {
		bm.Init(rowCount)
	}
	bm.SetInvalidUnsafe(ridx)
}

func (bm *Bitmap) Set(ridx uint64, valid bool, rowCount int) {
	if valid {
		bm.SetValid(ridx)
	} else {
		bm.SetInvalid(ridx, rowCount)
	}
}

func (bm *Bitmap) PrepareSpace(cnt int) {
	if bm.Invalid() {
		bm.Init(cnt)
	}
}

func (bm *Bitmap) SetAllValid(cnt int) {
	bm.PrepareSpace(cnt)
	if cnt == 0 {
		return
	}
	lastEidx := EntryCount(cnt) - 1
	for i := 0; i < lastEidx; i++ {
		bm.Words[i] = AllValidWord
	}
	lastBits := cnt % ValidityWordWidth
	if lastBits == 0 {
		bm.Words[lastEidx] = AllValidWord
	} else {
		bm.Words[lastEidx] = ^(AllValidWord << lastBits)
	}
}

func (bm *Bitmap) SetAllInvalid(cnt int) {
	bm.PrepareSpace(cnt)
	if cnt == 0 {
		return
	}
	lastEidx := EntryCount(cnt) - 1
	for i := 0; i < lastEidx; i++ {
		bm.Words[i] = 0
	}
	lastBits := cnt % ValidityWordWidth
	if lastBits == 0 {
		bm.Words[lastEidx] = 0
	} else {
		bm.Words[lastEidx] = AllValidWord << lastBits
	}
}

// CountValid returns the number of set bits within [0, cnt). Bits past
// cnt in the last word do not contribute.
func (bm *Bitmap) CountValid(cnt int) int {
	if bm.AllValid() || cnt == 0 {
		return cnt
	}
	valid := 0
	lastEidx := EntryCount(cnt) - 1
	for i := 0; i < lastEidx; i++ {
		valid += bits.OnesCount32(bm.Words[i])
	}
	lastBits := cnt % ValidityWordWidth
	last := bm.Words[lastEidx]
	if lastBits != 0 {
		last &= ^(AllValidWord << lastBits)
	}
	valid += bits.OnesCount32(last)
	return valid
}

func (bm *Bitmap) CopyFrom(other *Bitmap, count int) {
	if other.AllValid() {
		bm.Words = nil
	} else {
		eCnt := EntryCount(count)
		bm.Words = make([]uint32, eCnt)
		copy(bm.Words, other.Words[:eCnt])
	}
}

func (bm *Bitmap) Resize(old int, new int) {
	if new <= old {
		return
	}
	if bm.Words != nil {
		ncnt := EntryCount(new)
		ocnt := EntryCount(old)
		newData := make([]uint32, ncnt)
		copy(newData, bm.Words)
		for i := ocnt; i < ncnt; i++ {
			newData[i] = AllValidWord
		}
		bm.Words = newData
	} else {
		bm.Init(new)
	}
}

func (bm *Bitmap) Combine(other *Bitmap, count int) {
	if other.AllValid() {
		return
	}
	if bm.AllValid() {
		bm.ShareWith(other)
		return
	}
	oldData := bm.Words
	bm.Init(count)
	eCnt := EntryCount(count)
	for i := 0; i < eCnt; i++ {
		bm.Words[i] = oldData[i] & other.Words[i]
	}
}
