package internal

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// extensionsOffer is the exact Sec-WebSocket-Extensions value sent when a
// probe offers permessage-deflate.
const extensionsOffer = "permessage-deflate; client_max_window_bits"

// generateKey produces the Sec-WebSocket-Key value: 16 random bytes,
// base64-encoded. The server's Sec-WebSocket-Accept is deliberately never
// validated against it; the probe only classifies the status line.
func generateKey(entropy io.Reader) (string, error) {
	if entropy == nil {
		entropy = rand.Reader
	}
	var nonce [16]byte
	if _, err := io.ReadFull(entropy, nonce[:]); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(nonce[:]), nil
}

// buildHandshake renders the upgrade request. Header order is fixed so the
// wire bytes are reproducible under a fixed key.
func buildHandshake(cfg ProbeConfig, key string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "GET %s HTTP/1.1\r\n", cfg.Path)
	fmt.Fprintf(&b, "Host: %s:%d\r\n", cfg.Host, cfg.Port)
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	fmt.Fprintf(&b, "Sec-WebSocket-Key: %s\r\n", key)
	b.WriteString("Sec-WebSocket-Version: 13\r\n")
	if cfg.IncludeExtensions {
		fmt.Fprintf(&b, "Sec-WebSocket-Extensions: %s\r\n", extensionsOffer)
	}
	b.WriteString("\r\n")
	return b.String()
}
