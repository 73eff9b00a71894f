// Package wsprobe provides a small public surface for reusing this
// repository as a library. The implementation lives in internal/ and may
// change without notice.
package wsprobe

import (
	"context"

	"wsprobe-cli/internal"
)

// --- Config ---

type Config = internal.Config

type TargetConfig = internal.TargetConfig

type ProbeConfig = internal.ProbeConfig

type WatchOptions = internal.WatchOptions

type ServerOptions = internal.ServerOptions

const (
	DefaultHost    = internal.DefaultHost
	DefaultPort    = internal.DefaultPort
	DefaultPath    = internal.DefaultPath
	DefaultTimeout = internal.DefaultTimeout
)

// LoadConfig loads the YAML target list.
// Note: internal.LoadConfig returns a pointer.
func LoadConfig(path string) (*Config, error) { return internal.LoadConfig(path) }

// ValidatePort rejects ports outside 1..65535.
func ValidatePort(port int) error { return internal.ValidatePort(port) }

// --- Core runtime ---

type Prober = internal.Prober

type ProbeResult = internal.ProbeResult

type Driver = internal.Driver

type Telemetry = internal.Telemetry

type DialCheckResult = internal.DialCheckResult

const (
	ExitOK          = internal.ExitOK
	ExitFail        = internal.ExitFail
	ExitConnError   = internal.ExitConnError
	ExitExtRejected = internal.ExitExtRejected
	ExitOnlyExtOK   = internal.ExitOnlyExtOK
	ExitUsage       = internal.ExitUsage
)

func NewProber() *Prober { return internal.NewProber() }

func NewTelemetry() *Telemetry { return internal.NewTelemetry() }

// CompareExitCode maps the no-ext/with-ext outcome pair to an exit code.
func CompareExitCode(noExtOK, withExtOK bool) int {
	return internal.CompareExitCode(noExtOK, withExtOK)
}

// DialCheck performs a library-level upgrade with compression offered.
func DialCheck(ctx context.Context, target TargetConfig) DialCheckResult {
	return internal.DialCheck(ctx, target)
}

// --- Test server ---

// RunServer serves the local upgrade endpoint until context cancellation.
func RunServer(ctx context.Context, addr string, opts ServerOptions) error {
	return internal.RunServer(ctx, addr, opts)
}

// StartMetricsServer serves /metrics on the provided address until context
// cancellation.
func StartMetricsServer(ctx context.Context, addr string, t *Telemetry) error {
	return internal.StartMetricsServer(ctx, addr, t)
}
