package internal

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"
)

func TestRunWatch_RunsOneRoundThenStops(t *testing.T) {
	target := startScriptedServer(t, func(_ string, c net.Conn) {
		_, _ = c.Write([]byte(respSwitching))
	})

	// Cancelled before the call: the round still runs its probes to
	// completion, only the inter-round sleep is skipped.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	code := newTestDriver(&out).RunWatch(ctx, target, WatchOptions{Interval: 10 * time.Millisecond})
	if code != ExitOK {
		t.Fatalf("exit code: %d", code)
	}
	if !strings.Contains(out.String(), "[no-ext] HTTP/1.1 101 Switching Protocols") {
		t.Fatalf("round 1 probes should succeed despite cancellation: %q", out.String())
	}
	if !strings.Contains(out.String(), "-- round 1: exit 0 --") {
		t.Fatalf("missing round trailer: %q", out.String())
	}
	if strings.Contains(out.String(), "round 2") {
		t.Fatalf("should stop after one round: %q", out.String())
	}
}

func TestRunWatch_ContinuesPastConnError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	target := TargetConfig{
		Host: "127.0.0.1", Port: ln.Addr().(*net.TCPAddr).Port,
		Path: "/", Timeout: 200 * time.Millisecond,
	}
	_ = ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out, errw bytes.Buffer
	d := newTestDriver(&out)
	d.Err = &errw
	code := d.RunWatch(ctx, target, WatchOptions{Interval: 10 * time.Millisecond})
	if code != ExitConnError {
		t.Fatalf("exit code: %d", code)
	}
	if !strings.Contains(errw.String(), "probe failed:") {
		t.Fatalf("missing failure diagnostic: %q", errw.String())
	}
	if !strings.Contains(out.String(), "-- round 1: exit 2 --") {
		t.Fatalf("missing round trailer: %q", out.String())
	}
}
