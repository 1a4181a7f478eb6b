package model

import (
	"errors"
	"fmt"
	"strings"
)

// Ordering is the result of comparing live bytes against a reference.
// The values double as bits of an operator's accept mask.
type Ordering uint8

const (
	// Equal means the live value equals the reference.
	Equal Ordering = 1 << iota

	// Greater means the live value orders after the reference.
	Greater

	// Less means the live value orders before the reference.
	Less
)

// String returns a short symbol for the ordering.
func (o Ordering) String() string {
	switch o {
	case Equal:
		return "="
	case Greater:
		return ">"
	case Less:
		return "<"
	default:
		return "?"
	}
}

// Operator is the comparison applied by a refine pass.
type Operator int

// Operators, in the order the emulator's cheat search lists them.
const (
	// Unknown accepts every candidate and only refreshes references.
	Unknown Operator = iota
	NotEqual
	EqualTo
	GreaterThan
	LessThan
)

// ErrUnknownOperator is returned by ParseOperator.
var ErrUnknownOperator = errors.New("unknown comparison operator")

// acceptMasks maps each operator to the orderings it keeps.
var acceptMasks = [...]Ordering{
	Unknown:     Equal | Greater | Less,
	NotEqual:    Greater | Less,
	EqualTo:     Equal,
	GreaterThan: Greater,
	LessThan:    Less,
}

// Accepts reports whether a candidate with the given ordering survives.
func (op Operator) Accepts(o Ordering) bool {
	if op < Unknown || int(op) >= len(acceptMasks) {
		return false
	}
	return acceptMasks[op]&o != 0
}

// String returns the operator name.
func (op Operator) String() string {
	switch op {
	case Unknown:
		return "unknown"
	case NotEqual:
		return "not-equal"
	case EqualTo:
		return "equal"
	case GreaterThan:
		return "greater-than"
	case LessThan:
		return "less-than"
	default:
		return fmt.Sprintf("operator(%d)", int(op))
	}
}

// ParseOperator converts operator input into an Operator.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unknown", "any", "?", "u":
		return Unknown, nil
	case "ne", "!=", "<>", "not-equal", "changed":
		return NotEqual, nil
	case "eq", "=", "==", "equal", "unchanged":
		return EqualTo, nil
	case "gt", ">", "greater", "greater-than", "increased":
		return GreaterThan, nil
	case "lt", "<", "less", "less-than", "decreased":
		return LessThan, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOperator, s)
	}
}

// Comparison describes one refine pass.
type Comparison struct {
	Operator Operator

	// Constant is the encoded user value. Empty means each candidate is
	// compared against its own previous reference.
	Constant []byte
}

// UsesPrevious reports whether the pass compares against stored references.
func (c Comparison) UsesPrevious() bool {
	return len(c.Constant) == 0
}

// CompareToPrevious builds a comparison against stored references.
func CompareToPrevious(op Operator) Comparison {
	return Comparison{Operator: op}
}

// CompareToConstant builds a comparison against an encoded constant.
func CompareToConstant(op Operator, constant []byte) Comparison {
	return Comparison{Operator: op, Constant: constant}
}
