package schema

import "fmt"

// DataTypeKind is the canonical, dialect-neutral type a column/domain/
// sequence can hold after normalization (§4.1 "Data types").
type DataTypeKind int

const (
	TypeUnknown DataTypeKind = iota
	TypeSmallInt
	TypeInteger
	TypeBigInt
	TypeBoolean
	TypeVarchar
	TypeChar
	TypeText
	TypeNumeric
	TypeReal
	TypeDoublePrecision
	TypeDate
	TypeTime
	TypeTimestamp
	TypeTimestampTZ
	TypeUUID
	TypeJSON
	TypeJSONB
	TypeBytea
	// TypeCustom carries a dialect-specific type name (e.g. "geometry",
	// "inet") that has no canonical cross-dialect representation. The
	// name is lowercased and whitespace-collapsed by the normalizer.
	TypeCustom
)

// DataType is a canonical column/domain/sequence type. Length and Scale
// are nil unless the kind carries that parameter (Varchar/Char length,
// Numeric precision+scale).
type DataType struct {
	Kind       DataTypeKind
	Length     *int
	Scale      *int
	CustomName string
}

func IntPtr(v int) *int { return &v }

// Equal implements structural equality for I4 strict comparisons.
func (d DataType) Equal(o DataType) bool {
	if d.Kind != o.Kind {
		return false
	}
	if !intPtrEqual(d.Length, o.Length) {
		return false
	}
	if !intPtrEqual(d.Scale, o.Scale) {
		return false
	}
	return d.CustomName == o.CustomName
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (d DataType) String() string {
	switch d.Kind {
	case TypeVarchar:
		if d.Length != nil {
			return fmt.Sprintf("varchar(%d)", *d.Length)
		}
		return "varchar"
	case TypeChar:
		if d.Length != nil {
			return fmt.Sprintf("char(%d)", *d.Length)
		}
		return "char"
	case TypeNumeric:
		if d.Length != nil && d.Scale != nil {
			return fmt.Sprintf("numeric(%d,%d)", *d.Length, *d.Scale)
		}
		if d.Length != nil {
			return fmt.Sprintf("numeric(%d)", *d.Length)
		}
		return "numeric"
	case TypeCustom:
		return d.CustomName
	default:
		return kindNames[d.Kind]
	}
}

var kindNames = map[DataTypeKind]string{
	TypeUnknown:         "unknown",
	TypeSmallInt:        "smallint",
	TypeInteger:         "integer",
	TypeBigInt:          "bigint",
	TypeBoolean:         "boolean",
	TypeText:            "text",
	TypeReal:            "real",
	TypeDoublePrecision: "double precision",
	TypeDate:            "date",
	TypeTime:            "time",
	TypeTimestamp:       "timestamp",
	TypeTimestampTZ:     "timestamp with time zone",
	TypeUUID:            "uuid",
	TypeJSON:            "json",
	TypeJSONB:           "jsonb",
	TypeBytea:           "bytea",
}
