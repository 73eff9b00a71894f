package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Telemetry accumulates per-label probe counters for watch mode and
// renders them in Prometheus text exposition format. Plain maps behind one
// mutex; the cardinality here never justifies a client library. A nil
// *Telemetry is a no-op, so one-shot runs pay nothing.
type Telemetry struct {
	mu sync.RWMutex

	probesTotal   map[string]uint64
	failuresTotal map[string]uint64
	durationSum   map[string]float64
	durationCount map[string]uint64
	lastOK        map[string]float64
}

func NewTelemetry() *Telemetry {
	return &Telemetry{
		probesTotal:   make(map[string]uint64),
		failuresTotal: make(map[string]uint64),
		durationSum:   make(map[string]float64),
		durationCount: make(map[string]uint64),
		lastOK:        make(map[string]float64),
	}
}

// ObserveProbe records one probe execution, successful or not.
func (t *Telemetry) ObserveProbe(label string, d time.Duration, res *ProbeResult, err error) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	k := fmt.Sprintf("probe=%s", label)
	t.probesTotal[k]++
	t.durationSum[k] += d.Seconds()
	t.durationCount[k]++
	switch {
	case err != nil:
		t.failuresTotal[fmt.Sprintf("probe=%s,reason=%s", label, failureReason(err))]++
		t.lastOK[k] = 0
	case res.OK:
		t.lastOK[k] = 1
	default:
		t.failuresTotal[fmt.Sprintf("probe=%s,reason=handshake", label)]++
		t.lastOK[k] = 0
	}
}

func failureReason(err error) string {
	if err == nil {
		return "unknown"
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "timeout") || strings.Contains(e, "deadline"):
		return "timeout"
	case strings.Contains(e, "refused"):
		return "refused"
	case strings.Contains(e, "dns") || strings.Contains(e, "no such host"):
		return "dns"
	default:
		return "other"
	}
}

// Handler serves the current counters at /metrics content type.
func (t *Telemetry) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		t.mu.RLock()
		defer t.mu.RUnlock()
		writeCounterVec(w, "wsprobe_probes_total", t.probesTotal)
		writeCounterVec(w, "wsprobe_failures_total", t.failuresTotal)
		writeGaugeVec(w, "wsprobe_last_ok", t.lastOK)
		writeSummaryAsCountAndSum(w, "wsprobe_handshake_duration_seconds", t.durationCount, t.durationSum)
	}
}

// StartMetricsServer serves /metrics on addr until context cancellation.
func StartMetricsServer(ctx context.Context, addr string, t *Telemetry) error {
	if strings.TrimSpace(addr) == "" {
		return errors.New("empty metrics address")
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", t.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func writeCounterVec(w http.ResponseWriter, name string, data map[string]uint64) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s{%s} %d\n", name, toPromLabels(k), data[k])
	}
}

func writeGaugeVec(w http.ResponseWriter, name string, data map[string]float64) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s{%s} %.0f\n", name, toPromLabels(k), data[k])
	}
}

func writeSummaryAsCountAndSum(w http.ResponseWriter, name string, counts map[string]uint64, sums map[string]float64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		labels := toPromLabels(k)
		fmt.Fprintf(w, "%s_count{%s} %d\n", name, labels, counts[k])
		fmt.Fprintf(w, "%s_sum{%s} %f\n", name, labels, sums[k])
	}
}

func toPromLabels(s string) string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		parts[i] = fmt.Sprintf("%s=\"%s\"", kv[0], escapeLabelValue(kv[1]))
	}
	return strings.Join(parts, ",")
}

// escapeLabelValue follows the text exposition rules: backslash first so
// the other escapes stay unambiguous.
func escapeLabelValue(v string) string {
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "\"", "\\\"")
	v = strings.ReplaceAll(v, "\n", "\\n")
	return v
}
