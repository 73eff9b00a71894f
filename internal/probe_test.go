package internal

import (
	"bytes"
	"context"
	"encoding/base64"
	"net"
	"strings"
	"testing"
	"time"
)

const (
	respSwitching = "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=\r\n\r\n"
	respBadRequest = "HTTP/1.1 400 Bad Request\r\nContent-Length: 0\r\n\r\n"
)

// startScriptedServer runs a loopback TCP server that reads one request
// and hands it to respond together with the connection.
func startScriptedServer(t *testing.T, respond func(req string, c net.Conn)) TargetConfig {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				respond(readRequest(c), c)
			}(c)
		}
	}()
	return TargetConfig{
		Name:    "scripted",
		Host:    "127.0.0.1",
		Port:    ln.Addr().(*net.TCPAddr).Port,
		Path:    "/",
		Timeout: 2 * time.Second,
	}
}

func readRequest(c net.Conn) string {
	buf := make([]byte, 4096)
	var req []byte
	for {
		n, err := c.Read(buf)
		req = append(req, buf[:n]...)
		if err != nil || bytes.Contains(req, []byte("\r\n\r\n")) {
			return string(req)
		}
	}
}

func TestProbe_Upgrade101(t *testing.T) {
	target := startScriptedServer(t, func(_ string, c net.Conn) {
		_, _ = c.Write([]byte(respSwitching))
	})
	res, err := NewProber().Probe(context.Background(), target.probeConfig(false, LabelNoExt))
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected ok, got %+v", res)
	}
	if res.StatusLine != "HTTP/1.1 101 Switching Protocols" {
		t.Fatalf("status line: %q", res.StatusLine)
	}
}

func TestProbe_Rejected400(t *testing.T) {
	target := startScriptedServer(t, func(_ string, c net.Conn) {
		_, _ = c.Write([]byte(respBadRequest))
	})
	res, err := NewProber().Probe(context.Background(), target.probeConfig(false, LabelNoExt))
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if res.OK {
		t.Fatalf("expected not ok, got %+v", res)
	}
	if res.StatusLine != "HTTP/1.1 400 Bad Request" {
		t.Fatalf("status line: %q", res.StatusLine)
	}
}

func TestProbe_EmptyResponse(t *testing.T) {
	target := startScriptedServer(t, func(_ string, _ net.Conn) {
		// close without writing anything
	})
	res, err := NewProber().Probe(context.Background(), target.probeConfig(false, LabelNoExt))
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if res.OK || res.StatusLine != NoResponse || res.HeaderBlock != "" {
		t.Fatalf("expected no-response sentinel, got %+v", res)
	}
}

func TestProbe_PartialResponseNoTerminator(t *testing.T) {
	partial := "HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket"
	target := startScriptedServer(t, func(_ string, c net.Conn) {
		_, _ = c.Write([]byte(partial))
	})
	res, err := NewProber().Probe(context.Background(), target.probeConfig(false, LabelNoExt))
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if res.HeaderBlock != partial {
		t.Fatalf("header block: %q", res.HeaderBlock)
	}
	if res.StatusLine != "HTTP/1.1 101 Switching Protocols" || !res.OK {
		t.Fatalf("status line: %q ok=%v", res.StatusLine, res.OK)
	}
}

func TestProbe_TimeoutBounded(t *testing.T) {
	target := startScriptedServer(t, func(_ string, c net.Conn) {
		time.Sleep(500 * time.Millisecond)
		_, _ = c.Write([]byte(respSwitching))
	})
	target.Timeout = 100 * time.Millisecond

	start := time.Now()
	_, err := NewProber().Probe(context.Background(), target.probeConfig(false, LabelNoExt))
	elapsed := time.Since(start)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed > 450*time.Millisecond {
		t.Fatalf("probe did not respect timeout: %v", elapsed)
	}
}

func TestProbe_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	cfg := ProbeConfig{Host: "127.0.0.1", Port: port, Path: "/", Timeout: time.Second, Label: LabelNoExt}
	if _, err := NewProber().Probe(context.Background(), cfg); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestProbe_RequestShape(t *testing.T) {
	reqs := make(chan string, 2)
	target := startScriptedServer(t, func(req string, c net.Conn) {
		reqs <- req
		_, _ = c.Write([]byte(respSwitching))
	})
	target.Path = "/ws"

	p := &Prober{Entropy: bytes.NewReader(make([]byte, 32))}
	if _, err := p.Probe(context.Background(), target.probeConfig(false, LabelNoExt)); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if _, err := p.Probe(context.Background(), target.probeConfig(true, LabelWithExt)); err != nil {
		t.Fatalf("probe: %v", err)
	}

	plain, withExt := <-reqs, <-reqs
	if !strings.HasPrefix(plain, "GET /ws HTTP/1.1\r\n") {
		t.Fatalf("request line: %q", plain)
	}
	// 16 zero bytes, base64
	wantKey := base64.StdEncoding.EncodeToString(make([]byte, 16))
	if !strings.Contains(plain, "Sec-WebSocket-Key: "+wantKey+"\r\n") {
		t.Fatalf("missing deterministic key: %q", plain)
	}
	if strings.Contains(plain, "Sec-WebSocket-Extensions") {
		t.Fatalf("plain probe must not offer extensions: %q", plain)
	}
	if !strings.Contains(withExt, "Sec-WebSocket-Extensions: permessage-deflate; client_max_window_bits\r\n") {
		t.Fatalf("extensions offer missing or wrong: %q", withExt)
	}
	if !strings.HasSuffix(plain, "\r\n\r\n") || !strings.HasSuffix(withExt, "\r\n\r\n") {
		t.Fatal("request not terminated with blank line")
	}
}
