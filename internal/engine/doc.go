// Package engine provides the execution loop that owns a target's memory.
//
// The loop runs on a single goroutine. It alternates between advancing the
// target by one quantum (the step function) and running work submitted with
// RunSync. Anything that reads or writes a region buffer must go through
// RunSync so it never overlaps with a step:
//
//	loop := engine.New(engine.WithStep(mirror.Step), engine.WithQuantum(16*time.Millisecond))
//	if err := loop.Start(ctx); err != nil {
//	    return err
//	}
//	defer loop.Stop()
//
//	err := loop.RunSync(ctx, func() {
//	    // the step function is not running here
//	})
package engine
