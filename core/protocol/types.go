package protocol

import (
	"fmt"
	"strings"
)

// TypeKind enumerates structural type descriptors.
type TypeKind int

const (
	TypeAny TypeKind = iota
	TypeNothing
	TypeBool
	TypeInt
	TypeFloat
	TypeNumber
	TypeString
	TypeBinary
	TypeDate
	TypeDuration
	TypeFileSize
	TypeRange
	TypeList
	TypeRecord
	TypeTable
	TypeClosure
	TypeBlock
	TypeError
	TypeCustom
	TypeByteStream
	TypeCellPath
)

var typeKindNames = map[TypeKind]string{
	TypeAny:        "any",
	TypeNothing:    "nothing",
	TypeBool:       "bool",
	TypeInt:        "int",
	TypeFloat:      "float",
	TypeNumber:     "number",
	TypeString:     "string",
	TypeBinary:     "binary",
	TypeDate:       "date",
	TypeDuration:   "duration",
	TypeFileSize:   "filesize",
	TypeRange:      "range",
	TypeList:       "list",
	TypeRecord:     "record",
	TypeTable:      "table",
	TypeClosure:    "closure",
	TypeBlock:      "block",
	TypeError:      "error",
	TypeCustom:     "custom",
	TypeByteStream: "bytestream",
	TypeCellPath:   "cell-path",
}

// Type is a structural type descriptor used to match pipeline input and
// output against signatures. Types are comparable with ==.
type Type struct {
	Kind TypeKind
	// Elem is the element kind of a list.
	Elem TypeKind
	// Name is the type name of a custom value. Empty matches every custom.
	Name string
}

var (
	AnyType        = Type{Kind: TypeAny}
	NothingType    = Type{Kind: TypeNothing}
	BoolType       = Type{Kind: TypeBool}
	IntType        = Type{Kind: TypeInt}
	FloatType      = Type{Kind: TypeFloat}
	NumberType     = Type{Kind: TypeNumber}
	StringType     = Type{Kind: TypeString}
	BinaryType     = Type{Kind: TypeBinary}
	DateType       = Type{Kind: TypeDate}
	DurationType   = Type{Kind: TypeDuration}
	FileSizeType   = Type{Kind: TypeFileSize}
	RangeType      = Type{Kind: TypeRange}
	RecordType     = Type{Kind: TypeRecord}
	TableType      = Type{Kind: TypeTable}
	ClosureType    = Type{Kind: TypeClosure}
	BlockType      = Type{Kind: TypeBlock}
	ErrorType      = Type{Kind: TypeError}
	ByteStreamType = Type{Kind: TypeByteStream}
	CellPathType   = Type{Kind: TypeCellPath}
)

// ListOf creates a list type.
func ListOf(elem TypeKind) Type {
	return Type{Kind: TypeList, Elem: elem}
}

// CustomType creates a type for a named custom value.
func CustomType(name string) Type {
	return Type{Kind: TypeCustom, Name: name}
}

func (t Type) String() string {
	switch t.Kind {
	case TypeList:
		return fmt.Sprintf("list<%s>", typeKindNames[t.Elem])
	case TypeCustom:
		if t.Name == "" {
			return "custom"
		}
		return t.Name
	default:
		return typeKindNames[t.Kind]
	}
}

// IsSubtype returns true if a value of type t can be used where other is
// expected.
func (t Type) IsSubtype(other Type) bool {
	if other.Kind == TypeAny || t == other {
		return true
	}

	switch t.Kind {
	case TypeInt, TypeFloat:
		return other.Kind == TypeNumber
	case TypeByteStream:
		// Byte streams are decoded on demand.
		return other.Kind == TypeString || other.Kind == TypeBinary
	case TypeTable:
		return other.Kind == TypeList && (other.Elem == TypeAny || other.Elem == TypeRecord)
	case TypeList:
		switch other.Kind {
		case TypeList:
			return elemSubtype(t.Elem, other.Elem)
		case TypeTable:
			return t.Elem == TypeRecord
		}
	case TypeRange:
		return other.Kind == TypeList && elemSubtype(TypeInt, other.Elem)
	case TypeCustom:
		return other.Kind == TypeCustom && other.Name == ""
	}
	return false
}

// Compatible is the looser check used when matching pipeline data against
// declared inputs. Beyond IsSubtype it accepts data whose type is only
// known to be any, and lists of unknown elements where a more precise list
// or table is declared; the element types are checked when they're used.
func (t Type) Compatible(other Type) bool {
	if t.Kind == TypeAny || t.IsSubtype(other) {
		return true
	}
	if t.Kind == TypeList && t.Elem == TypeAny {
		return other.Kind == TypeList || other.Kind == TypeTable
	}
	return false
}

func elemSubtype(a, b TypeKind) bool {
	return Type{Kind: a}.IsSubtype(Type{Kind: b})
}

// ParseType reads the textual form produced by Type.String.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "list<") && strings.HasSuffix(s, ">") {
		elem, err := ParseType(s[len("list<") : len(s)-1])
		if err != nil {
			return Type{}, err
		}
		return ListOf(elem.Kind), nil
	}
	for k, name := range typeKindNames {
		if name == s {
			if k == TypeList {
				return ListOf(TypeAny), nil
			}
			return Type{Kind: k}, nil
		}
	}
	return Type{}, fmt.Errorf("unknown type %q", s)
}

// TypeOf returns the structural type of a value.
func TypeOf(v Value) Type {
	switch val := v.(type) {
	case nil, Nothing:
		return NothingType
	case Bool:
		return BoolType
	case Int:
		return IntType
	case Float:
		return FloatType
	case String:
		return StringType
	case Binary:
		return BinaryType
	case Date:
		return DateType
	case Duration:
		return DurationType
	case FileSize:
		return FileSizeType
	case Range:
		return RangeType
	case Record:
		return RecordType
	case Closure:
		return ClosureType
	case Error:
		return ErrorType
	case Custom:
		return CustomType(val.Val.TypeName())
	case List:
		return listType(val.Vals)
	}
	return AnyType
}

func listType(vals []Value) Type {
	if len(vals) == 0 {
		return ListOf(TypeAny)
	}
	first := TypeOf(vals[0]).Kind
	for _, v := range vals[1:] {
		if TypeOf(v).Kind != first {
			return ListOf(TypeAny)
		}
	}
	switch first {
	case TypeRecord:
		return TableType
	case TypeList, TypeTable, TypeCustom:
		// Only one level of element type is tracked.
		return ListOf(TypeAny)
	}
	return ListOf(first)
}

// TypeOfData returns the type a pipeline carrier presents to a command
// without consuming it.
func TypeOfData(pd PipelineData) Type {
	switch data := pd.(type) {
	case nil, Empty:
		return NothingType
	case ValueData:
		return TypeOf(data.Val)
	case *ListStream:
		return ListOf(TypeAny)
	case *ByteStream:
		return ByteStreamType
	}
	return AnyType
}
