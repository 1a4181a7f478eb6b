package engine

import "context"

// Quiesced runs work immediately on the caller's goroutine.
// Use it only for targets whose memory nothing else writes, such as a
// loaded dump file.
type Quiesced struct{}

// RunSync runs fn and returns nil, unless ctx is already done.
func (Quiesced) RunSync(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn()
	return nil
}
