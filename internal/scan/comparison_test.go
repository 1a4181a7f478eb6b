package scan

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/cheatscan/internal/codec"
	"github.com/nao1215/cheatscan/internal/model"
)

// TestParseComparison tests refine expression parsing.
func TestParseComparison(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr string
		vt   model.ValueType
		base model.Base
		want model.Comparison
	}{
		{
			name: "equal constant",
			expr: "eq 100",
			vt:   model.Word,
			base: model.Decimal,
			want: model.CompareToConstant(model.EqualTo, []byte{0x00, 0x00, 0x00, 0x64}),
		},
		{
			name: "symbol without space",
			expr: "<0x10",
			vt:   model.Short,
			base: model.Hexadecimal,
			want: model.CompareToConstant(model.LessThan, []byte{0x00, 0x10}),
		},
		{
			name: "previous value",
			expr: "changed",
			vt:   model.Byte,
			base: model.Decimal,
			want: model.CompareToPrevious(model.NotEqual),
		},
		{
			name: "symbol only",
			expr: ">",
			vt:   model.Byte,
			base: model.Decimal,
			want: model.CompareToPrevious(model.GreaterThan),
		},
		{
			name: "float",
			expr: "= 3.14",
			vt:   model.Single,
			base: model.Hexadecimal,
			want: model.CompareToConstant(model.EqualTo, []byte{0x40, 0x48, 0xf5, 0xc3}),
		},
		{
			name: "unknown with padding",
			expr: "  unknown  ",
			vt:   model.Word,
			base: model.Decimal,
			want: model.CompareToPrevious(model.Unknown),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseComparison(tt.expr, tt.vt, tt.base)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("comparison mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("unknown operator", func(t *testing.T) {
		t.Parallel()

		_, err := ParseComparison("about 5", model.Word, model.Decimal)
		if !errors.Is(err, model.ErrUnknownOperator) {
			t.Errorf("expected ErrUnknownOperator, got %v", err)
		}
	})

	t.Run("overflowing literal", func(t *testing.T) {
		t.Parallel()

		_, err := ParseComparison("eq 256", model.Byte, model.Decimal)
		if !errors.Is(err, codec.ErrInvalidLiteral) {
			t.Errorf("expected ErrInvalidLiteral, got %v", err)
		}
	})
}
