package column

import (
	"github.com/tidwall/btree"

	"github.com/daviszhen/compaction/pkg/util"
)

type dictItem struct {
	value string
	code  int32
}

func dictItemLess(a, b dictItem) bool {
	return a.value < b.value
}

// Dictionary holds the distinct values of a dictionary-encoded
// column. values is code-ordered; index maps value to code for
// lookups and dedup during construction.
type Dictionary struct {
	values []string
	index  *btree.BTreeG[dictItem]
}

func NewDictionary(values []string) *Dictionary {
	dict := &Dictionary{
		index: btree.NewBTreeG[dictItem](dictItemLess),
	}
	for _, v := range values {
		dict.Insert(v)
	}
	return dict
}

// Insert adds a value if absent and returns its code.
func (dict *Dictionary) Insert(v string) int32 {
	if item, has := dict.index.Get(dictItem{value: v}); has {
		return item.code
	}
	code := int32(len(dict.values))
	dict.values = append(dict.values, v)
	dict.index.Set(dictItem{value: v, code: code})
	return code
}

func (dict *Dictionary) Code(v string) (int32, bool) {
	item, has := dict.index.Get(dictItem{value: v})
	if !has {
		return 0, false
	}
	return item.code, true
}

func (dict *Dictionary) Value(code int32) string {
	return dict.values[code]
}

func (dict *Dictionary) Len() int {
	return len(dict.values)
}

// ResyncDict rebuilds a consistent dictionary for a compacted codes
// column: values no longer referenced by any surviving row are
// dropped and the codes remapped. Skipping this after a filter leaves
// dangling category references.
func ResyncDict(col *Column, rowCnt int) {
	util.AssertFunc(col.Dict != nil)
	old := col.Dict
	codes := GetSlice[int32](col)

	used := make([]bool, old.Len())
	for i := 0; i < rowCnt; i++ {
		if !col.RowIsValid(i) {
			continue
		}
		used[codes[i]] = true
	}

	remap := make([]int32, old.Len())
	next := &Dictionary{
		index: btree.NewBTreeG[dictItem](dictItemLess),
	}
	for oldCode, u := range used {
		if !u {
			remap[oldCode] = -1
			continue
		}
		remap[oldCode] = next.Insert(old.values[oldCode])
	}

	for i := 0; i < rowCnt; i++ {
		if !col.RowIsValid(i) {
			continue
		}
		codes[i] = remap[codes[i]]
	}
	col.Dict = next
}
