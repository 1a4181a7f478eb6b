package model

import (
	"errors"
	"fmt"
	"strings"
)

// Width is the size in bytes of the value being searched.
type Width uint32

// Supported widths.
const (
	Width8  Width = 1
	Width16 Width = 2
	Width32 Width = 4
)

// Interpretation selects how the raw bytes of a value are read.
type Interpretation int

const (
	// Integer reads the bytes as an unsigned big-endian integer.
	Integer Interpretation = iota

	// Float reads the bytes as a big-endian IEEE-754 single. Width32 only.
	Float
)

// String returns the name of the interpretation.
func (i Interpretation) String() string {
	if i == Float {
		return "float"
	}
	return "integer"
}

// Errors returned when validating value types and numeral bases.
var (
	// ErrInvalidWidth is returned for widths other than 1, 2 or 4.
	ErrInvalidWidth = errors.New("invalid value width: must be 1, 2 or 4 bytes")

	// ErrFloatWidth is returned when Float is paired with a width other than 4.
	ErrFloatWidth = errors.New("float interpretation requires a 4-byte width")

	// ErrUnknownValueType is returned by ParseValueType.
	ErrUnknownValueType = errors.New("unknown value type")

	// ErrUnknownBase is returned by ParseBase.
	ErrUnknownBase = errors.New("unknown numeral base")
)

// ValueType pairs a width with an interpretation.
type ValueType struct {
	Width          Width
	Interpretation Interpretation
}

// Common value types, in the order the emulator's cheat search lists them.
var (
	Byte   = ValueType{Width: Width8, Interpretation: Integer}
	Short  = ValueType{Width: Width16, Interpretation: Integer}
	Word   = ValueType{Width: Width32, Interpretation: Integer}
	Single = ValueType{Width: Width32, Interpretation: Float}
)

// Validate checks the width and the width/interpretation pairing.
func (vt ValueType) Validate() error {
	switch vt.Width {
	case Width8, Width16, Width32:
	default:
		return fmt.Errorf("%w: %d", ErrInvalidWidth, vt.Width)
	}
	if vt.Interpretation == Float && vt.Width != Width32 {
		return ErrFloatWidth
	}
	return nil
}

// IsFloat reports whether the type is a 32-bit float.
func (vt ValueType) IsFloat() bool {
	return vt.Interpretation == Float
}

// Size returns the width as a byte count.
func (vt ValueType) Size() uint32 {
	return uint32(vt.Width)
}

// String returns the label used by the console and reports.
func (vt ValueType) String() string {
	if vt.IsFloat() {
		return "float"
	}
	return fmt.Sprintf("%d-bit", vt.Width*8)
}

// ParseValueType converts operator input such as "8", "16-bit", "int" or
// "float" into a ValueType.
func ParseValueType(s string) (ValueType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "8", "8-bit", "8bit", "byte", "u8":
		return Byte, nil
	case "16", "16-bit", "16bit", "short", "u16":
		return Short, nil
	case "32", "32-bit", "32bit", "int", "word", "u32":
		return Word, nil
	case "float", "f32", "single":
		return Single, nil
	default:
		return ValueType{}, fmt.Errorf("%w: %q", ErrUnknownValueType, s)
	}
}

// Base is the numeral base used for integer literals.
type Base int

// Supported numeral bases.
const (
	Decimal     Base = 10
	Hexadecimal Base = 16
	Octal       Base = 8
)

// String returns the short name of the base.
func (b Base) String() string {
	switch b {
	case Hexadecimal:
		return "hex"
	case Octal:
		return "oct"
	default:
		return "dec"
	}
}

// ParseBase converts "dec", "hex" or "oct" (or the full words) into a Base.
func ParseBase(s string) (Base, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dec", "decimal", "10":
		return Decimal, nil
	case "hex", "hexadecimal", "16":
		return Hexadecimal, nil
	case "oct", "octal", "8":
		return Octal, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBase, s)
	}
}
