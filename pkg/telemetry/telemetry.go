package telemetry

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"feedbackrelay/pkg/logger"
)

// Low-overhead request and relay telemetry. Collectors are registered on
// the default prometheus registry and exposed on /metrics; slow requests
// additionally get a lightweight log line.

var slowThreshold = 200 * time.Millisecond

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedbackrelay_http_requests_total",
		Help: "HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedbackrelay_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	hubEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedbackrelay_hub_events_total",
		Help: "Live-protocol events consumed by the hub, by event name.",
	}, []string{"event"})

	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feedbackrelay_hub_connected_clients",
		Help: "Currently connected websocket clients.",
	})

	messagesStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedbackrelay_messages_stored_total",
		Help: "Messages appended to the backing store.",
	})

	saveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedbackrelay_store_save_failures_total",
		Help: "Failed full-document writes of the backing file.",
	})

	retentionDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedbackrelay_retention_messages_deleted_total",
		Help: "Messages removed by retention sweeps.",
	})
)

// ObserveHubEvent counts one consumed live-protocol event.
func ObserveHubEvent(event string) { hubEvents.WithLabelValues(event).Inc() }

// ClientConnected / ClientDisconnected track the connected-clients gauge.
func ClientConnected()    { connectedClients.Inc() }
func ClientDisconnected() { connectedClients.Dec() }

// MessageStored counts one appended message.
func MessageStored() { messagesStored.Inc() }

// SaveFailed counts one failed backing-file write.
func SaveFailed() { saveFailures.Inc() }

// RetentionDeleted counts messages removed by a retention sweep.
func RetentionDeleted(n int) { retentionDeleted.Add(float64(n)) }

// SetSlowThreshold sets the duration above which requests get a log line.
func SetSlowThreshold(d time.Duration) {
	if d > 0 {
		slowThreshold = d
	}
}

// Middleware wraps the provided handler and records request counts,
// latency, and slow-request log lines.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)

		dur := time.Since(start)
		httpRequests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(srw.status)).Inc()
		httpDuration.WithLabelValues(r.Method, r.URL.Path).Observe(dur.Seconds())
		if dur > slowThreshold {
			logger.Warn("slow_request", "method", r.Method, "path", r.URL.Path, "duration_ms", dur.Milliseconds(), "status", srw.status)
		}
	})
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack delegates to the underlying writer so the websocket upgrade on
// /ws keeps working behind this middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}
