package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/bryanwahyu/scriptlens/internal/domain/ai"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	RequestsSuccess    uint64
	RequestsFailed     uint64
	AICallsTotal       uint64
	AICallsRunning     uint64
	AICallsFailed      uint64
	AIQuotaExceeded    uint64
	AILatencyMillis    uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

// AICallStarted marks an outbound AI call as running
func AICallStarted() {
	atomic.AddUint64(&globalMetrics.AICallsTotal, 1)
	atomic.AddUint64(&globalMetrics.AICallsRunning, 1)
}

// AICallFinished records the outcome of an outbound AI call
func AICallFinished(d time.Duration, failed, quota bool) {
	atomic.AddUint64(&globalMetrics.AICallsRunning, ^uint64(0))
	atomic.AddUint64(&globalMetrics.AILatencyMillis, uint64(d.Milliseconds()))
	if failed {
		atomic.AddUint64(&globalMetrics.AICallsFailed, 1)
	}
	if quota {
		atomic.AddUint64(&globalMetrics.AIQuotaExceeded, 1)
	}
}

// GetMetrics returns current metrics
func GetMetrics() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	calls := atomic.LoadUint64(&globalMetrics.AICallsTotal)
	running := atomic.LoadUint64(&globalMetrics.AICallsRunning)
	var avg float64
	if done := calls - running; done > 0 {
		avg = float64(atomic.LoadUint64(&globalMetrics.AILatencyMillis)) / float64(done)
	}

	return map[string]interface{}{
		"requests_total":       atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"requests_in_progress": atomic.LoadUint64(&globalMetrics.RequestsInProgress),
		"requests_success":     atomic.LoadUint64(&globalMetrics.RequestsSuccess),
		"requests_failed":      atomic.LoadUint64(&globalMetrics.RequestsFailed),
		"ai_calls_total":       calls,
		"ai_calls_running":     running,
		"ai_calls_failed":      atomic.LoadUint64(&globalMetrics.AICallsFailed),
		"ai_quota_exceeded":    atomic.LoadUint64(&globalMetrics.AIQuotaExceeded),
		"ai_avg_latency_ms":    avg,
		"uptime_seconds":       time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes":       m.Alloc,
			"total_alloc_bytes": m.TotalAlloc,
			"sys_bytes":         m.Sys,
			"num_gc":            m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
		atomic.AddUint64(&globalMetrics.RequestsInProgress, 1)
		defer atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0))

		wrapped := wrapWriter(w)
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			atomic.AddUint64(&globalMetrics.RequestsSuccess, 1)
		} else {
			atomic.AddUint64(&globalMetrics.RequestsFailed, 1)
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(GetMetrics())
}

// AIObserver feeds AI call outcomes into the global metrics.
type AIObserver struct{}

func (AIObserver) Started(ai.Task) { AICallStarted() }

func (AIObserver) Finished(_ ai.Task, d time.Duration, err error) {
	AICallFinished(d, err != nil, errors.Is(err, ai.ErrQuotaExceeded))
}
