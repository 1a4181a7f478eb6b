package model

// Candidate is an offset still considered a possible match.
type Candidate struct {
	// Offset is relative to the region base.
	Offset uint32

	// Reference holds the value captured by the most recent successful pass.
	// Only the first Width bytes are meaningful.
	Reference [4]byte
}

// NewCandidate captures the first len(b) bytes of b (at most 4) as reference.
func NewCandidate(offset uint32, b []byte) Candidate {
	c := Candidate{Offset: offset}
	copy(c.Reference[:], b)
	return c
}

// Ref returns the meaningful reference bytes for the given width.
func (c *Candidate) Ref(width Width) []byte {
	return c.Reference[:width]
}

// Rebase overwrites the reference with fresh live bytes.
func (c *Candidate) Rebase(b []byte) {
	copy(c.Reference[:], b)
}
