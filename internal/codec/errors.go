package codec

import "errors"

// ErrInvalidLiteral is returned when a literal cannot be parsed in the
// requested interpretation and base, or does not fit the value width.
var ErrInvalidLiteral = errors.New("invalid literal")
