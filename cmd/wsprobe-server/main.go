package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wsprobe-cli/pkg/wsprobe"

	"github.com/spf13/cobra"
)

var (
	listenAddr string
	rejectExt  bool
	echo       bool
)

var rootCmd = &cobra.Command{
	Use:   "wsprobe-server",
	Short: "Local WebSocket upgrade endpoint for exercising wsprobe",
	Long: `Runs a plain-HTTP WebSocket endpoint with controllable handshake
behavior, so wsprobe can be pointed at a server whose responses are known
in advance. With --reject-extensions the endpoint answers any handshake
carrying Sec-WebSocket-Extensions with 400 instead of upgrading.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upgrade endpoint until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return wsprobe.RunServer(ctx, listenAddr, wsprobe.ServerOptions{
			RejectExtensions: rejectExt,
			Echo:             echo,
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "127.0.0.1:8080", "listen address")
	serveCmd.Flags().BoolVar(&rejectExt, "reject-extensions", false, "reject handshakes offering Sec-WebSocket-Extensions")
	serveCmd.Flags().BoolVar(&echo, "echo", false, "echo frames back after the upgrade")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
