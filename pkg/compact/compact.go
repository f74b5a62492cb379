// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package compact

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/daviszhen/compaction/pkg/column"
	"github.com/daviszhen/compaction/pkg/common"
	"github.com/daviszhen/compaction/pkg/util"
)

type Options struct {
	// Alloc provides scratch and destination buffers. Defaults to
	// util.GAlloc.
	Alloc util.BytesAllocator
	// Workers bounds the execution queue. Defaults to GOMAXPROCS.
	Workers int
}

func (opts *Options) alloc() util.BytesAllocator {
	if opts == nil || opts.Alloc == nil {
		return util.GAlloc
	}
	return opts.Alloc
}

func (opts *Options) workers() int {
	if opts == nil {
		return 0
	}
	return opts.Workers
}

// Compact produces a new table holding exactly the rows of t for
// which pred holds, in input order, with each column's validity mask
// and null count recomputed for the selection. The input table is not
// modified. Either a complete table is returned or an error and no
// observable result; no partially scattered table ever escapes.
//
// Pipeline: Count -> Scan -> Resolve(sync) -> Allocate -> Scatter.
// One-shot, no retries; block workers share state only through the
// scan-derived offsets, boundary validity words (atomic OR) and the
// per-column null counters (atomic add).
func Compact(ctx context.Context, t *column.Table, pred Predicate, opts *Options) (*column.Table, error) {
	if t.Card() == 0 || t.ColumnCount() == 0 {
		return column.EmptyLike(t), nil
	}
	if err := t.CheckValid(); err != nil {
		util.Error("compact precondition failed", zap.Error(err))
		return nil, err
	}

	alloc := opts.alloc()
	n := t.Card()
	nb := numBlocks(n)

	blockCnts, cntRaw, err := allocInt32(alloc, nb)
	if err != nil {
		return nil, err
	}
	defer alloc.Free(cntRaw)
	blockOffs, offRaw, err := allocInt32(alloc, nb)
	if err != nil {
		return nil, err
	}
	defer alloc.Free(offRaw)

	st := &state{
		pred:      pred,
		n:         n,
		nblocks:   nb,
		blockCnts: blockCnts,
		blockOffs: blockOffs,
	}

	// pass-count stage; Wait is the pipeline's single mandatory host
	// synchronization, after which the output size is resolvable
	q := NewQueue(ctx, opts.workers())
	countBlocks(st.pred, st.blockCnts, q)
	if err := q.Wait(); err != nil {
		return nil, err
	}
	exclusiveScan(st.blockCnts, st.blockOffs)
	st.outputSize = resolveOutputSize(st.blockCnts, st.blockOffs)

	switch st.outputSize {
	case n:
		// every row passes: the input already equals the desired
		// output, validity included
		return column.CopyTable(t, alloc)
	case 0:
		return column.EmptyLike(t), nil
	}

	dst, err := column.AllocateLike(t, st.outputSize, false, alloc)
	if err != nil {
		return nil, err
	}

	byteOffs, err := prepareVarcharHeaps(ctx, st, t, dst, alloc, opts.workers())
	if err != nil {
		column.Release(dst, alloc)
		return nil, err
	}

	nullCnts := make([]atomic.Int64, t.ColumnCount())
	scatterQ := NewQueue(ctx, opts.workers())
	for i, srcCol := range t.Cols {
		dstCol := dst.Cols[i]
		if srcCol.Nullable() {
			dstCol.Mask.SetAllInvalid(st.outputSize)
		}
		dispatchScatter(st, srcCol, dstCol, byteOffs[i], &nullCnts[i], scatterQ)
	}
	if err := scatterQ.Wait(); err != nil {
		column.Release(dst, alloc)
		return nil, err
	}

	for i, dstCol := range dst.Cols {
		if t.Cols[i].Nullable() {
			dstCol.NullCnt = int(nullCnts[i].Load())
		}
		if dstCol.Dict != nil {
			column.ResyncDict(dstCol, st.outputSize)
		}
	}
	return dst, nil
}

// prepareVarcharHeaps runs the byte-count pre-pass for every varchar
// column, sizes each destination heap and writes the closing offset.
// Returns the per-column block byte offsets (nil for fixed-width
// columns).
func prepareVarcharHeaps(ctx context.Context, st *state, t, dst *column.Table,
	alloc util.BytesAllocator, workers int) ([][]int32, error) {
	byteOffs := make([][]int32, t.ColumnCount())
	byteCnts := make([][]int32, t.ColumnCount())
	hasVarchar := false
	for i, srcCol := range t.Cols {
		if srcCol.Typ.GetInternalType() != common.VARCHAR {
			continue
		}
		hasVarchar = true
		byteCnts[i] = make([]int32, st.nblocks)
		byteOffs[i] = make([]int32, st.nblocks)
	}
	if !hasVarchar {
		return byteOffs, nil
	}

	q := NewQueue(ctx, workers)
	for i, srcCol := range t.Cols {
		if byteCnts[i] == nil {
			continue
		}
		countSelectedBytes(st, srcCol, byteCnts[i], q)
	}
	if err := q.Wait(); err != nil {
		return nil, err
	}

	for i := range t.Cols {
		if byteCnts[i] == nil {
			continue
		}
		exclusiveScan(byteCnts[i], byteOffs[i])
		totalBytes := resolveOutputSize(byteCnts[i], byteOffs[i])
		heap, err := alloc.Alloc(totalBytes)
		if err != nil {
			return nil, err
		}
		dst.Cols[i].Bytes = heap
		dst.Cols[i].Offsets[st.outputSize] = uint32(totalBytes)
	}
	return byteOffs, nil
}

func allocInt32(alloc util.BytesAllocator, n int) ([]int32, []byte, error) {
	raw, err := alloc.Alloc(n * common.Int32Size)
	if err != nil {
		return nil, nil, err
	}
	return util.ToSlice[int32](raw, common.Int32Size), raw, nil
}
