package model

import (
	"fmt"
	"math/big"
	"time"
)

// Category groups data types by their wire representation.
type Category int

const (
	CategoryString Category = iota
	CategoryChar
	CategoryBoolean
	CategoryByte
	CategoryShort
	CategoryInt
	CategoryLong
	CategoryFloat
	CategoryDouble
	CategoryBigInteger
	CategoryBigDecimal
	CategoryBytes
	CategoryDate
	CategoryEnum
	CategoryCustom
)

var categoryNames = map[Category]string{
	CategoryString:     "string",
	CategoryChar:       "char",
	CategoryBoolean:    "boolean",
	CategoryByte:       "byte",
	CategoryShort:      "short",
	CategoryInt:        "int",
	CategoryLong:       "long",
	CategoryFloat:      "float",
	CategoryDouble:     "double",
	CategoryBigInteger: "bigInteger",
	CategoryBigDecimal: "bigDecimal",
	CategoryBytes:      "bytes",
	CategoryDate:       "date",
	CategoryEnum:       "enum",
	CategoryCustom:     "custom",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// ParseCategory is the inverse of Category.String.
func ParseCategory(name string) (Category, error) {
	for c, n := range categoryNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown data type category %q", name)
}

// IsNumeric reports whether values of the category are written as JSON numbers.
func (c Category) IsNumeric() bool {
	switch c {
	case CategoryByte, CategoryShort, CategoryInt, CategoryLong,
		CategoryFloat, CategoryDouble, CategoryBigInteger, CategoryBigDecimal:
		return true
	default:
		return false
	}
}

// Converter translates the values of a custom data type to and from text.
type Converter interface {
	ConvertToString(value any) (string, error)
	CreateFromString(text string) (any, error)
}

// ConverterFuncs adapts a pair of functions to Converter.
type ConverterFuncs struct {
	ToString   func(value any) (string, error)
	FromString func(text string) (any, error)
}

func (c ConverterFuncs) ConvertToString(value any) (string, error) {
	return c.ToString(value)
}

func (c ConverterFuncs) CreateFromString(text string) (any, error) {
	return c.FromString(text)
}

// EnumLiteral is one named value of an enumeration data type.
type EnumLiteral struct {
	Name    string `json:"name"`
	Value   int    `json:"value,omitempty"`
	Literal string `json:"literal,omitempty"`
}

func (l EnumLiteral) String() string {
	if l.Literal != "" {
		return l.Literal
	}
	return l.Name
}

// DataType describes the values an attribute can hold.
//
// Go representations per category:
//
//	string      string
//	char        rune
//	boolean     bool
//	byte        int8
//	short       int16
//	int         int32
//	long        int64
//	float       float32
//	double      float64
//	bigInteger  *big.Int
//	bigDecimal  *big.Rat (finite decimal expansion)
//	bytes       []byte
//	date        time.Time
//	enum        EnumLiteral
//	custom      whatever the Converter produces
type DataType struct {
	Name      string
	Category  Category
	Literals  []EnumLiteral
	Converter Converter

	namespace *Namespace
}

// Namespace returns the namespace that declares the data type, if any.
func (d *DataType) Namespace() *Namespace {
	return d.namespace
}

func (d *DataType) String() string {
	return d.Name
}

// Literal looks up an enumeration literal by name.
func (d *DataType) Literal(name string) (EnumLiteral, bool) {
	for _, l := range d.Literals {
		if l.Name == name {
			return l, true
		}
	}
	return EnumLiteral{}, false
}

// ZeroValue returns the value reported for an unset single-valued attribute
// without explicit default.
func (d *DataType) ZeroValue() any {
	switch d.Category {
	case CategoryBoolean:
		return false
	case CategoryChar:
		return rune(0)
	case CategoryByte:
		return int8(0)
	case CategoryShort:
		return int16(0)
	case CategoryInt:
		return int32(0)
	case CategoryLong:
		return int64(0)
	case CategoryFloat:
		return float32(0)
	case CategoryDouble:
		return float64(0)
	default:
		return nil
	}
}

// Accepts reports whether v has the Go representation of the category.
func (d *DataType) Accepts(v any) bool {
	if v == nil {
		return true
	}
	switch d.Category {
	case CategoryString:
		_, ok := v.(string)
		return ok
	case CategoryChar:
		_, ok := v.(rune)
		return ok
	case CategoryBoolean:
		_, ok := v.(bool)
		return ok
	case CategoryByte:
		_, ok := v.(int8)
		return ok
	case CategoryShort:
		_, ok := v.(int16)
		return ok
	case CategoryInt:
		_, ok := v.(int32)
		return ok
	case CategoryLong:
		_, ok := v.(int64)
		return ok
	case CategoryFloat:
		_, ok := v.(float32)
		return ok
	case CategoryDouble:
		_, ok := v.(float64)
		return ok
	case CategoryBigInteger:
		_, ok := v.(*big.Int)
		return ok
	case CategoryBigDecimal:
		_, ok := v.(*big.Rat)
		return ok
	case CategoryBytes:
		_, ok := v.([]byte)
		return ok
	case CategoryDate:
		_, ok := v.(time.Time)
		return ok
	case CategoryEnum:
		l, ok := v.(EnumLiteral)
		if !ok {
			return false
		}
		_, declared := d.Literal(l.Name)
		return declared
	default:
		return true
	}
}

// Built-in data types. They belong to the meta namespace.
var (
	StringType     = &DataType{Name: "String", Category: CategoryString}
	CharType       = &DataType{Name: "Char", Category: CategoryChar}
	BooleanType    = &DataType{Name: "Boolean", Category: CategoryBoolean}
	ByteType       = &DataType{Name: "Byte", Category: CategoryByte}
	ShortType      = &DataType{Name: "Short", Category: CategoryShort}
	IntType        = &DataType{Name: "Int", Category: CategoryInt}
	LongType       = &DataType{Name: "Long", Category: CategoryLong}
	FloatType      = &DataType{Name: "Float", Category: CategoryFloat}
	DoubleType     = &DataType{Name: "Double", Category: CategoryDouble}
	BigIntegerType = &DataType{Name: "BigInteger", Category: CategoryBigInteger}
	BigDecimalType = &DataType{Name: "BigDecimal", Category: CategoryBigDecimal}
	BytesType      = &DataType{Name: "Bytes", Category: CategoryBytes}
	DateType       = &DataType{Name: "Date", Category: CategoryDate}
)

// BuiltinDataTypes lists the predefined data types in declaration order.
func BuiltinDataTypes() []*DataType {
	return []*DataType{
		StringType, CharType, BooleanType, ByteType, ShortType, IntType, LongType,
		FloatType, DoubleType, BigIntegerType, BigDecimalType, BytesType, DateType,
	}
}
