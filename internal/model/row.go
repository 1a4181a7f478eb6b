package model

// Unavailable is rendered in every value column of a row whose address
// cannot currently be read.
const Unavailable = "---"

// DefaultDisplayCap is the maximum number of rows rendered per decode.
const DefaultDisplayCap = 4096

// Row is one decoded candidate ready for display.
type Row struct {
	// Index is the position of the candidate in the candidate set.
	Index int `json:"index"`

	// Address is the absolute address as 8 hex digits.
	Address string `json:"address"`

	// Hex is the live value zero-padded to twice the width.
	Hex string `json:"hex"`

	// Decimal is the live value as an unsigned decimal.
	Decimal string `json:"decimal"`

	// Float is the live value as a float; empty unless the width is 4.
	Float string `json:"float,omitempty"`

	// Available is false when the row renders the Unavailable sentinel.
	Available bool `json:"available"`
}

// Result is the output of one decode call.
type Result struct {
	// Rows are the rendered rows, at most the display cap.
	Rows []Row `json:"rows"`

	// Survivors is the true number of candidates in the set.
	Survivors int `json:"survivors"`

	// First is the candidate index of Rows[0].
	First int `json:"first"`

	// Displayable is the number of candidates that fit under the display cap.
	Displayable int `json:"displayable"`

	// Type is the value type the rows were decoded with.
	Type string `json:"type"`
}

// Capped reports whether the candidate set exceeds what can be displayed.
func (r *Result) Capped() bool {
	return r.Survivors > r.Displayable
}

// Empty reports whether there are no survivors.
func (r *Result) Empty() bool {
	return r.Survivors == 0
}
