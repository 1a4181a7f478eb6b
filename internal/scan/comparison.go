package scan

import (
	"fmt"
	"strings"

	"github.com/nao1215/cheatscan/internal/codec"
	"github.com/nao1215/cheatscan/internal/model"
)

// ParseComparison reads a refine expression such as "eq 100", "> 0x10" or
// "changed". A missing value compares each candidate to its previous
// reference. The value may follow the operator without a space ("<5").
func ParseComparison(expr string, vt model.ValueType, base model.Base) (model.Comparison, error) {
	opText, literal := splitExpression(strings.TrimSpace(expr))

	op, err := model.ParseOperator(opText)
	if err != nil {
		return model.Comparison{}, err
	}
	if literal == "" {
		return model.CompareToPrevious(op), nil
	}

	constant, err := codec.Encode(literal, vt, base)
	if err != nil {
		return model.Comparison{}, fmt.Errorf("failed to parse comparison value: %w", err)
	}
	return model.CompareToConstant(op, constant), nil
}

// splitExpression separates the operator from the literal.
func splitExpression(expr string) (string, string) {
	if op, rest, ok := strings.Cut(expr, " "); ok {
		return op, strings.TrimSpace(rest)
	}
	n := strings.IndexFunc(expr, func(r rune) bool {
		return !strings.ContainsRune("<>=!", r)
	})
	if n <= 0 {
		return expr, ""
	}
	return expr[:n], expr[n:]
}
