package common

import (
	"fmt"
	"unsafe"
)

type PhyType int

const (
	NA      PhyType = 0
	BOOL    PhyType = 1
	INT32   PhyType = 7
	UINT64  PhyType = 8
	INT64   PhyType = 9
	FLOAT   PhyType = 11
	DOUBLE  PhyType = 12
	VARCHAR PhyType = 200
	DATE    PhyType = 207
	DECIMAL PhyType = 209

	INVALID PhyType = 255
)

var pTypeToStr = map[PhyType]string{
	NA:      "NA",
	BOOL:    "BOOL",
	INT32:   "INT32",
	UINT64:  "UINT64",
	INT64:   "INT64",
	FLOAT:   "FLOAT",
	DOUBLE:  "DOUBLE",
	VARCHAR: "VARCHAR",
	DATE:    "DATE",
	DECIMAL: "DECIMAL",
	INVALID: "INVALID",
}

var (
	BoolSize    = int(unsafe.Sizeof(true))
	Int32Size   = int(unsafe.Sizeof(int32(0)))
	Int64Size   = int(unsafe.Sizeof(int64(0)))
	Uint64Size  = int(unsafe.Sizeof(uint64(0)))
	Float32Size = int(unsafe.Sizeof(float32(0)))
	Float64Size = int(unsafe.Sizeof(float64(0)))
	DateSize    = int(unsafe.Sizeof(Date{}))
	DecimalSize = int(unsafe.Sizeof(Decimal{}))
)

func (pt PhyType) String() string {
	if s, has := pTypeToStr[pt]; has {
		return s
	}
	panic(fmt.Sprintf("usp %d", pt))
}

// Size is the fixed element width in bytes. VARCHAR has no fixed
// width; its elements live in an offsets+bytes pair.
func (pt PhyType) Size() int {
	switch pt {
	case BOOL:
		return BoolSize
	case INT32:
		return Int32Size
	case INT64:
		return Int64Size
	case UINT64:
		return Uint64Size
	case FLOAT:
		return Float32Size
	case DOUBLE:
		return Float64Size
	case DATE:
		return DateSize
	case DECIMAL:
		return DecimalSize
	case VARCHAR:
		return 0
	default:
		panic(fmt.Sprintf("usp %d", pt))
	}
}

func (pt PhyType) IsVarlen() bool {
	return pt == VARCHAR
}
