package internal

import (
	"context"
	"fmt"
	"io"

	"github.com/gorilla/websocket"
)

// DialCheckResult reports a library-level dial against the same endpoint
// the raw probe hit.
type DialCheckResult struct {
	Status     string // HTTP status of the handshake response, if one arrived
	Negotiated string // Sec-WebSocket-Extensions the server selected
	Err        error
}

// DialCheck performs one real upgrade with compression offered, as a
// second opinion next to the raw probe. The connection is closed right
// after the handshake; no data frames are exchanged. Informational only,
// it never influences the process exit code.
func DialCheck(ctx context.Context, target TargetConfig) DialCheckResult {
	d := &websocket.Dialer{
		HandshakeTimeout:  target.Timeout,
		EnableCompression: true,
	}
	url := fmt.Sprintf("ws://%s:%d%s", target.Host, target.Port, target.Path)

	conn, resp, err := d.DialContext(ctx, url, nil)
	res := DialCheckResult{Err: err}
	if resp != nil {
		res.Status = resp.Status
		res.Negotiated = resp.Header.Get("Sec-WebSocket-Extensions")
		if err != nil && resp.Body != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
	}
	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}
	return res
}

// ReportDialCheck prints the dial-check outcome in the probe line format.
func (d *Driver) ReportDialCheck(res DialCheckResult) {
	switch {
	case res.Err != nil && res.Status != "":
		fmt.Fprintf(d.Out, "[dial-check] rejected: %s\n", res.Status)
	case res.Err != nil:
		fmt.Fprintf(d.Out, "[dial-check] failed: %v\n", res.Err)
	case res.Negotiated != "":
		fmt.Fprintf(d.Out, "[dial-check] upgraded, extensions: %s\n", res.Negotiated)
	default:
		fmt.Fprintf(d.Out, "[dial-check] upgraded, no extensions negotiated\n")
	}
}
