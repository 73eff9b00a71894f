package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wsprobe-cli/pkg/wsprobe"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("wsprobe", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		host        = fs.String("host", wsprobe.DefaultHost, "target host")
		port        = fs.Int("port", wsprobe.DefaultPort, "target port (1..65535)")
		path        = fs.String("path", wsprobe.DefaultPath, "websocket request path")
		timeout     = fs.Float64("timeout", 5.0, "socket timeout in seconds")
		single      = fs.Bool("single", false, "run a single probe instead of the no-ext/with-ext comparison")
		extensions  = fs.Bool("extensions", false, "with -single, offer Sec-WebSocket-Extensions")
		verbose     = fs.Bool("verbose", false, "print the full response header block per probe")
		cfgPath     = fs.String("config", "", "YAML target list for batch comparison")
		watch       = fs.Bool("watch", false, "repeat the comparison until interrupted")
		interval    = fs.Duration("interval", 5*time.Second, "interval between watch rounds")
		jitter      = fs.Duration("jitter", 200*time.Millisecond, "random shift applied to the watch interval")
		metricsAddr = fs.String("metrics", "", "metrics listen address for watch mode, e.g. :9100")
		dialCheck   = fs.Bool("dial-check", false, "additionally perform a library-level upgrade with compression offered")
	)
	if err := fs.Parse(args); err != nil {
		return wsprobe.ExitUsage
	}
	if err := wsprobe.ValidatePort(*port); err != nil {
		fmt.Fprintf(stderr, "wsprobe: %v\n", err)
		return wsprobe.ExitUsage
	}
	if *timeout <= 0 {
		fmt.Fprintln(stderr, "wsprobe: -timeout must be positive")
		return wsprobe.ExitUsage
	}

	target := wsprobe.TargetConfig{
		Host:    *host,
		Port:    *port,
		Path:    *path,
		Timeout: time.Duration(*timeout * float64(time.Second)),
	}
	driver := &wsprobe.Driver{
		Prober:  wsprobe.NewProber(),
		Out:     stdout,
		Err:     stderr,
		Verbose: *verbose,
	}
	ctx := context.Background()

	switch {
	case *cfgPath != "":
		cfg, err := wsprobe.LoadConfig(*cfgPath)
		if err != nil {
			fmt.Fprintf(stderr, "wsprobe: config: %v\n", err)
			return wsprobe.ExitUsage
		}
		return driver.RunBatch(ctx, cfg)

	case *watch:
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if *metricsAddr != "" {
			driver.Telemetry = wsprobe.NewTelemetry()
			go func() {
				if err := wsprobe.StartMetricsServer(ctx, *metricsAddr, driver.Telemetry); err != nil {
					log.Printf("metrics server stopped: %v", err)
				}
			}()
			log.Printf("metrics listening on %s", *metricsAddr)
		}
		return driver.RunWatch(ctx, target, wsprobe.WatchOptions{
			Interval: *interval,
			Jitter:   *jitter,
		})

	case *single:
		code, err := driver.RunSingle(ctx, target, *extensions)
		if err != nil {
			fmt.Fprintf(stderr, "probe failed: %v\n", err)
			return wsprobe.ExitConnError
		}
		if *dialCheck {
			driver.ReportDialCheck(wsprobe.DialCheck(ctx, target))
		}
		return code

	default:
		code, err := driver.RunComparison(ctx, target)
		if err != nil {
			fmt.Fprintf(stderr, "probe failed: %v\n", err)
			return wsprobe.ExitConnError
		}
		if *dialCheck {
			driver.ReportDialCheck(wsprobe.DialCheck(ctx, target))
		}
		return code
	}
}
