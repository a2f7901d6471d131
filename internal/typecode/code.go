// Package typecode classifies field value types into the codes the mapping
// layer dispatches on.
package typecode

import "relmap/internal/common"

// Code identifies the value type of a field, key or element.
type Code int

const (
	Object Code = iota
	Boolean
	Byte
	Char
	Double
	Float
	Int
	Long
	Short
	String
	Number
	Array
	Collection
	Map
	Date
	PC
	BooleanObj
	ByteObj
	CharObj
	DoubleObj
	FloatObj
	IntObj
	LongObj
	ShortObj
	BigDecimal
	BigInteger
	Locale
	PCUntyped
	Calendar
	OID
	InputStream
	InputReader
	Enum
	LocalDate
	LocalTime
	LocalDateTime
)

var names = [...]string{
	Boolean:       "boolean",
	Byte:          "byte",
	Char:          "char",
	Double:        "double",
	Float:         "float",
	Int:           "int",
	Long:          "long",
	Short:         "short",
	Object:        "object",
	String:        "string",
	Number:        "number",
	Array:         "array",
	Collection:    "collection",
	Map:           "map",
	Date:          "date",
	PC:            "pc",
	BooleanObj:    "boolean-obj",
	ByteObj:       "byte-obj",
	CharObj:       "char-obj",
	DoubleObj:     "double-obj",
	FloatObj:      "float-obj",
	IntObj:        "int-obj",
	LongObj:       "long-obj",
	ShortObj:      "short-obj",
	BigDecimal:    "big-decimal",
	BigInteger:    "big-integer",
	Locale:        "locale",
	PCUntyped:     "pc-untyped",
	Calendar:      "calendar",
	OID:           "oid",
	InputStream:   "input-stream",
	InputReader:   "input-reader",
	Enum:          "enum",
	LocalDate:     "local-date",
	LocalTime:     "local-time",
	LocalDateTime: "local-date-time",
}

// String returns the code's name.
func (c Code) String() string {
	if c < 0 || int(c) >= len(names) {
		return common.UnknownStr
	}

	return names[c]
}

// Parse maps a code name back to its Code.
func Parse(s string) (Code, bool) {
	for i, n := range names {
		if n == s {
			return Code(i), true
		}
	}

	return Object, false
}

// IsPrimitive reports whether c is a non-nullable scalar.
func (c Code) IsPrimitive() bool {
	switch c {
	case Boolean, Byte, Char, Double, Float, Int, Long, Short:
		return true
	default:
		return false
	}
}

// IsInteger reports whether c holds whole numbers.
func (c Code) IsInteger() bool {
	switch c {
	case Byte, Short, Int, Long, ByteObj, ShortObj, IntObj, LongObj, BigInteger:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether c is any number type.
func (c Code) IsNumeric() bool {
	switch c {
	case Double, Float, DoubleObj, FloatObj, BigDecimal, Number:
		return true
	default:
		return c.IsInteger()
	}
}

// IsTemporal reports whether c is a date or time type.
func (c Code) IsTemporal() bool {
	switch c {
	case Date, Calendar, LocalDate, LocalTime, LocalDateTime:
		return true
	default:
		return false
	}
}

// IsContainer reports whether c holds several values.
func (c Code) IsContainer() bool {
	return c == Array || c == Collection || c == Map
}

// Boxed returns the nullable counterpart of a primitive code.
func (c Code) Boxed() Code {
	switch c {
	case Boolean:
		return BooleanObj
	case Byte:
		return ByteObj
	case Char:
		return CharObj
	case Double:
		return DoubleObj
	case Float:
		return FloatObj
	case Int:
		return IntObj
	case Long:
		return LongObj
	case Short:
		return ShortObj
	default:
		return c
	}
}

// Unboxed returns the primitive counterpart of a nullable scalar code.
func (c Code) Unboxed() Code {
	switch c {
	case BooleanObj:
		return Boolean
	case ByteObj:
		return Byte
	case CharObj:
		return Char
	case DoubleObj:
		return Double
	case FloatObj:
		return Float
	case IntObj:
		return Int
	case LongObj:
		return Long
	case ShortObj:
		return Short
	default:
		return c
	}
}
