package internal

import (
	"context"
	"fmt"
	"time"
)

// WatchOptions control the repeat cadence of watch mode.
type WatchOptions struct {
	Interval time.Duration
	Jitter   time.Duration
}

// RunWatch repeats the comparison against one target until the context is
// cancelled, sleeping a jittered interval between rounds. Connection
// errors do not stop the loop; the target may simply be down for a round.
// The exit code of the last completed round is returned.
func (d *Driver) RunWatch(ctx context.Context, target TargetConfig, opts WatchOptions) int {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	jitter := minDur(opts.Jitter, opts.Interval)

	last := ExitConnError
	for round := 1; ; round++ {
		// Probes are bounded by the per-socket timeout; ctx only governs
		// the sleep between rounds. An interrupt landing mid-probe must
		// not turn a healthy round into a connection error.
		code, err := d.RunComparison(context.Background(), target)
		if err != nil {
			fmt.Fprintf(d.Err, "probe failed: %v\n", err)
			code = ExitConnError
		}
		last = code
		fmt.Fprintf(d.Out, "-- round %d: exit %d --\n", round, code)

		t := time.NewTimer(applyJitter(opts.Interval, jitter))
		select {
		case <-ctx.Done():
			t.Stop()
			return last
		case <-t.C:
		}
	}
}
