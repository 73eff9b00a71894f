package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	// Upper bound on the single handshake response read. Only the status
	// line is required for classification; anything past the header block
	// is ignored.
	responseBufSize = 8192

	// NoResponse is the sentinel status line for a connection that was
	// accepted but closed without writing any bytes.
	NoResponse = "<no response>"

	statusPrefix101 = "HTTP/1.1 101"
)

// ProbeConfig describes one handshake probe. Constructed per invocation,
// never mutated.
type ProbeConfig struct {
	Host              string
	Port              int
	Path              string
	Timeout           time.Duration
	IncludeExtensions bool
	Label             string
}

func (c ProbeConfig) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ProbeResult is the outcome of one probe. OK is true iff the status line
// begins with "HTTP/1.1 101".
type ProbeResult struct {
	Label       string
	StatusLine  string
	HeaderBlock string
	OK          bool
}

// Prober issues raw upgrade handshakes over plain TCP. Entropy feeds the
// Sec-WebSocket-Key and defaults to crypto/rand; Dial can be swapped in
// tests. The zero value is ready to use.
type Prober struct {
	Entropy io.Reader
	Dial    func(ctx context.Context, network, addr string, timeout time.Duration) (net.Conn, error)
}

func NewProber() *Prober { return &Prober{} }

func (p *Prober) dialConn(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
	if p.Dial != nil {
		return p.Dial(ctx, "tcp", addr, timeout)
	}
	d := &net.Dialer{Timeout: timeout}
	return d.DialContext(ctx, "tcp", addr)
}

// Probe runs one connect-send-receive-classify cycle. The configured
// timeout bounds both the connect and the read; there are no retries.
// A connection that closes without writing anything yields a failed
// result, not an error.
func (p *Prober) Probe(ctx context.Context, cfg ProbeConfig) (*ProbeResult, error) {
	key, err := generateKey(p.Entropy)
	if err != nil {
		return nil, fmt.Errorf("handshake key: %w", err)
	}
	req := buildHandshake(cfg, key)

	conn, err := p.dialConn(ctx, cfg.addr(), cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.addr(), err)
	}
	defer conn.Close()

	if cfg.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(cfg.Timeout))
	}
	if _, err := conn.Write([]byte(req)); err != nil {
		return nil, fmt.Errorf("send %s: %w", cfg.addr(), err)
	}

	// Single bounded read; the response is never drained further. The
	// status line always arrives first, so truncation only affects the
	// header block.
	buf := make([]byte, responseBufSize)
	n, err := conn.Read(buf)
	if n == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("recv %s: %w", cfg.addr(), err)
		}
		return &ProbeResult{Label: cfg.Label, StatusLine: NoResponse, OK: false}, nil
	}

	headerBlock, statusLine := parseResponse(buf[:n])
	return &ProbeResult{
		Label:       cfg.Label,
		StatusLine:  statusLine,
		HeaderBlock: headerBlock,
		OK:          strings.HasPrefix(statusLine, statusPrefix101),
	}, nil
}
