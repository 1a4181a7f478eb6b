package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nao1215/cheatscan/internal/model"
)

// Value is a decoded value.
type Value struct {
	// Type is the value type the bytes were decoded with.
	Type model.ValueType

	// Uint is the unsigned integer reading of the bytes.
	Uint uint32

	// Float is the IEEE-754 reading of the bytes. Zero unless Type is 32-bit.
	Float float32
}

// Encode parses literal and returns its in-memory big-endian layout.
//
// Integer literals are read in base; a "0x" prefix is accepted in
// hexadecimal. Float literals use decimal float syntax regardless of base.
// Literals that do not fit the width are rejected.
func Encode(literal string, vt model.ValueType, base model.Base) ([]byte, error) {
	if err := vt.Validate(); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(literal)
	if text == "" {
		return nil, fmt.Errorf("%w: empty value", ErrInvalidLiteral)
	}

	if vt.IsFloat() {
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a float", ErrInvalidLiteral, literal)
		}
		return EncodeFloat(float32(f)), nil
	}

	if base == model.Hexadecimal {
		text = trimHexPrefix(text)
	}
	v, err := strconv.ParseUint(text, int(base), int(vt.Width)*8)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a %s %s value", ErrInvalidLiteral, literal, vt, base)
	}
	return EncodeUint(uint32(v), vt.Width), nil
}

// EncodeUint lays v out most significant byte first in width bytes.
// Bits above the width are dropped.
func EncodeUint(v uint32, width model.Width) []byte {
	b := make([]byte, width)
	switch width {
	case model.Width8:
		b[0] = byte(v)
	case model.Width16:
		binary.BigEndian.PutUint16(b, uint16(v))
	default:
		binary.BigEndian.PutUint32(b, v)
	}
	return b
}

// EncodeFloat lays f out as big-endian IEEE-754 bits.
func EncodeFloat(f float32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, math.Float32bits(f))
	return b
}

// Decode reads b, which must hold exactly vt.Width bytes.
func Decode(b []byte, vt model.ValueType) Value {
	v := Value{Type: vt, Uint: DecodeUint(b)}
	if vt.Width == model.Width32 {
		v.Float = math.Float32frombits(v.Uint)
	}
	return v
}

// DecodeUint reads a 1, 2 or 4 byte big-endian unsigned integer.
func DecodeUint(b []byte) uint32 {
	switch len(b) {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(binary.BigEndian.Uint16(b))
	case 4:
		return binary.BigEndian.Uint32(b)
	default:
		var v uint32
		for _, c := range b {
			v = v<<8 | uint32(c)
		}
		return v
	}
}

// CompareOrdering orders a against b byte by byte.
// Both slices must share the same width.
func CompareOrdering(a, b []byte) model.Ordering {
	switch c := bytes.Compare(a, b); {
	case c < 0:
		return model.Less
	case c > 0:
		return model.Greater
	default:
		return model.Equal
	}
}

// FormatHex renders b as lowercase hex zero-padded to 2*len(b) digits.
func FormatHex(b []byte) string {
	return fmt.Sprintf("%0*x", len(b)*2, DecodeUint(b))
}

// FormatDecimal renders b as an unsigned decimal.
func FormatDecimal(b []byte) string {
	return strconv.FormatUint(uint64(DecodeUint(b)), 10)
}

// FormatFloat renders a 4-byte b as a float with 6 significant digits.
func FormatFloat(b []byte) string {
	f := math.Float32frombits(DecodeUint(b))
	return strconv.FormatFloat(float64(f), 'g', 6, 32)
}

// FormatAddress renders an absolute address as 8 hex digits.
func FormatAddress(addr uint32) string {
	return fmt.Sprintf("%08x", addr)
}

// ParseAddress reads a hex address with an optional "0x" or "$" prefix.
func ParseAddress(s string) (uint32, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = trimHexPrefix(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

func trimHexPrefix(s string) string {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
