package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// ServerOptions configure the local upgrade endpoint used to exercise the
// prober against known server behavior.
type ServerOptions struct {
	// RejectExtensions refuses any handshake offering
	// Sec-WebSocket-Extensions, simulating a server without
	// permessage-deflate support.
	RejectExtensions bool
	// Echo keeps the connection after the upgrade and echoes frames back.
	Echo bool
}

// UpgradeHandler returns the HTTP handler backing the test server.
func UpgradeHandler(opts ServerOptions) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if opts.RejectExtensions && r.Header.Get("Sec-WebSocket-Extensions") != "" {
			http.Error(w, "extensions not supported", http.StatusBadRequest)
			return
		}
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			CompressionMode: websocket.CompressionNoContextTakeover,
		})
		if err != nil {
			return
		}
		if !opts.Echo {
			_ = c.Close(websocket.StatusNormalClosure, "bye")
			return
		}
		echoLoop(r.Context(), c)
	})
}

func echoLoop(ctx context.Context, c *websocket.Conn) {
	defer c.Close(websocket.StatusInternalError, "")
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			return
		}
		if err := c.Write(ctx, typ, data); err != nil {
			return
		}
	}
}

// RunServer serves the upgrade endpoint on addr until ctx cancellation.
func RunServer(ctx context.Context, addr string, opts ServerOptions) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	log.Printf("upgrade endpoint listening on %s", ln.Addr())

	srv := &http.Server{Handler: UpgradeHandler(opts)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	err = srv.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
