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

package loader

import (
	"errors"
	"fmt"
	"io"

	pqLocal "github.com/xitongsys/parquet-go-source/local"
	pqReader "github.com/xitongsys/parquet-go/reader"

	"github.com/daviszhen/compaction/pkg/column"
	"github.com/daviszhen/compaction/pkg/common"
)

// ColumnSpec names one parquet column to materialize: its position in
// the file's schema and the table type it maps to.
type ColumnSpec struct {
	Name  string
	Typ   common.LType
	Index int64
}

// ReadParquet materializes the requested columns of a parquet file
// into a table. maxRows <= 0 reads the whole file. Null parquet
// values become unset validity bits.
func ReadParquet(path string, specs []ColumnSpec, maxRows int) (*column.Table, error) {
	pqFile, err := pqLocal.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer pqFile.Close()

	pr, err := pqReader.NewParquetColumnReader(pqFile, 1)
	if err != nil {
		return nil, err
	}
	defer pr.ReadStop()

	total := int(pr.GetNumRows())
	if maxRows > 0 && maxRows < total {
		total = maxRows
	}

	t := &column.Table{RowCnt: total}
	for _, spec := range specs {
		values, err := readColumnValues(pr, spec.Index, total)
		if err != nil {
			return nil, err
		}
		if len(values) != total {
			return nil, fmt.Errorf("column %q: %d values, want %d", spec.Name, len(values), total)
		}
		col, err := buildColumn(spec, values)
		if err != nil {
			return nil, err
		}
		t.Cols = append(t.Cols, col)
	}
	return t, nil
}

func readColumnValues(pr *pqReader.ParquetReader, idx int64, total int) ([]any, error) {
	values, _, _, err := pr.ReadColumnByIndex(idx, int64(total))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return values, nil
}

func buildColumn(spec ColumnSpec, values []any) (*column.Column, error) {
	n := len(values)
	nullAt := func(i int) bool {
		return values[i] == nil
	}
	hasNull := false
	for i := 0; i < n; i++ {
		if values[i] == nil {
			hasNull = true
			break
		}
	}
	if !hasNull {
		nullAt = nil
	}

	var col *column.Column
	switch spec.Typ.Id {
	case common.LTID_INTEGER:
		vals := make([]int32, n)
		for i, v := range values {
			if v == nil {
				continue
			}
			iv, err := toInt64(v)
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", spec.Name, i, err)
			}
			vals[i] = int32(iv)
		}
		col = column.NewFixedColumn[int32](spec.Typ, vals, nullAt)
	case common.LTID_BIGINT:
		vals := make([]int64, n)
		for i, v := range values {
			if v == nil {
				continue
			}
			iv, err := toInt64(v)
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", spec.Name, i, err)
			}
			vals[i] = iv
		}
		col = column.NewFixedColumn[int64](spec.Typ, vals, nullAt)
	case common.LTID_DOUBLE:
		vals := make([]float64, n)
		for i, v := range values {
			if v == nil {
				continue
			}
			switch fv := v.(type) {
			case float64:
				vals[i] = fv
			case float32:
				vals[i] = float64(fv)
			default:
				return nil, fmt.Errorf("column %q row %d: unexpected value type %T", spec.Name, i, v)
			}
		}
		col = column.NewFixedColumn[float64](spec.Typ, vals, nullAt)
	case common.LTID_DATE:
		vals := make([]common.Date, n)
		for i, v := range values {
			if v == nil {
				continue
			}
			days, ok := v.(int32)
			if !ok {
				return nil, fmt.Errorf("column %q row %d: unexpected value type %T", spec.Name, i, v)
			}
			vals[i] = common.DateFromUnixDays(days)
		}
		col = column.NewFixedColumn[common.Date](spec.Typ, vals, nullAt)
	case common.LTID_VARCHAR:
		vals := make([]string, n)
		for i, v := range values {
			if v == nil {
				continue
			}
			sv, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("column %q row %d: unexpected value type %T", spec.Name, i, v)
			}
			vals[i] = sv
		}
		col = column.NewVarcharColumn(vals, nullAt)
	default:
		return nil, fmt.Errorf("column %q: unsupported type %s", spec.Name, spec.Typ.String())
	}
	col.Name = spec.Name
	return col, nil
}

func toInt64(v any) (int64, error) {
	switch iv := v.(type) {
	case int32:
		return int64(iv), nil
	case int64:
		return iv, nil
	default:
		return 0, fmt.Errorf("unexpected value type %T", v)
	}
}
