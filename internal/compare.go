package internal

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Process exit codes. Comparison outcomes and the connection-error code
// are distinct; usage errors live far away so they can never collide with
// an outcome.
const (
	ExitOK          = 0 // baseline and extensions variant both upgrade
	ExitFail        = 1 // neither variant upgrades (or single probe failed)
	ExitConnError   = 2 // TCP connect/send/receive failure, incl. timeout
	ExitExtRejected = 3 // baseline upgrades, extensions variant rejected
	ExitOnlyExtOK   = 4 // only the extensions variant upgrades (anomalous)
	ExitUsage       = 64
)

const (
	LabelNoExt   = "no-ext"
	LabelWithExt = "with-ext"
)

// Driver runs probes sequentially and renders their results. Out receives
// the per-probe lines, Err the failure diagnostics; both are injectable
// for tests.
type Driver struct {
	Prober    *Prober
	Out       io.Writer
	Err       io.Writer
	Verbose   bool
	Telemetry *Telemetry
}

func (d *Driver) printResult(r *ProbeResult) {
	fmt.Fprintf(d.Out, "[%s] %s\n", r.Label, r.StatusLine)
	if d.Verbose && r.HeaderBlock != "" {
		fmt.Fprintln(d.Out, r.HeaderBlock)
		fmt.Fprintln(d.Out, "---")
	}
}

func (d *Driver) runProbe(ctx context.Context, cfg ProbeConfig) (*ProbeResult, error) {
	start := time.Now()
	res, err := d.Prober.Probe(ctx, cfg)
	d.Telemetry.ObserveProbe(cfg.Label, time.Since(start), res, err)
	return res, err
}

// RunSingle executes one probe and returns its exit code.
func (d *Driver) RunSingle(ctx context.Context, target TargetConfig, includeExtensions bool) (int, error) {
	label := LabelNoExt
	if includeExtensions {
		label = LabelWithExt
	}
	res, err := d.runProbe(ctx, target.probeConfig(includeExtensions, label))
	if err != nil {
		return ExitConnError, err
	}
	d.printResult(res)
	if res.OK {
		return ExitOK, nil
	}
	return ExitFail, nil
}

// RunComparison executes the no-ext/with-ext pair against one target,
// strictly sequentially on independent connections. A connection failure
// in either probe aborts the remainder; nothing is printed in that case.
func (d *Driver) RunComparison(ctx context.Context, target TargetConfig) (int, error) {
	noExt, err := d.runProbe(ctx, target.probeConfig(false, LabelNoExt))
	if err != nil {
		return ExitConnError, err
	}
	withExt, err := d.runProbe(ctx, target.probeConfig(true, LabelWithExt))
	if err != nil {
		return ExitConnError, err
	}
	d.printResult(noExt)
	d.printResult(withExt)
	return CompareExitCode(noExt.OK, withExt.OK), nil
}

// CompareExitCode maps the comparison outcome pair to a process exit code.
func CompareExitCode(noExtOK, withExtOK bool) int {
	switch {
	case noExtOK && withExtOK:
		return ExitOK
	case noExtOK:
		return ExitExtRejected
	case withExtOK:
		return ExitOnlyExtOK
	default:
		return ExitFail
	}
}

// RunBatch compares every configured target in turn and returns the worst
// exit code across targets. Connection failures are reported per target
// and do not abort the remaining targets.
func (d *Driver) RunBatch(ctx context.Context, cfg *Config) int {
	worst := ExitOK
	for _, t := range cfg.Targets {
		fmt.Fprintf(d.Out, "== %s ==\n", t.Name)
		code, err := d.RunComparison(ctx, t)
		if err != nil {
			fmt.Fprintf(d.Err, "probe failed: %v\n", err)
			code = ExitConnError
		}
		worst = worseExit(worst, code)
	}
	return worst
}

// Severity order for aggregating batch outcomes: a connection error beats
// a double failure beats the anomalous case beats an extensions rejection.
var exitSeverity = map[int]int{
	ExitOK:          0,
	ExitExtRejected: 1,
	ExitOnlyExtOK:   2,
	ExitFail:        3,
	ExitConnError:   4,
}

func worseExit(a, b int) int {
	if exitSeverity[b] > exitSeverity[a] {
		return b
	}
	return a
}
