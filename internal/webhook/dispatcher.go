// Package webhook delivers showlog events to one configured external HTTP
// endpoint. Delivery is strictly best-effort: nothing in this package returns
// a Go error to its callers, and a failed delivery never affects the storage
// mutation that triggered it.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"droneops/showlog/internal/constants"
	"droneops/showlog/internal/logging"
	"droneops/showlog/internal/metrics"

	"github.com/patrickmn/go-cache"
)

const (
	defaultTimeout = 10 * time.Second
	maxTimeout     = 60 * time.Second

	// skipLogWindow bounds how often an identical skip reason is logged.
	skipLogWindow = 5 * time.Minute
)

// Verification states.
const (
	StateDisabled = "disabled"
	StateOK       = "ok"
	StateError    = "error"
)

// Error codes returned in Result and Status.
const (
	CodeDisabled = "disabled"
	CodeTimeout  = "timeout"
	CodeNetwork  = "network_error"
	CodeHTTP     = "http_error"
	CodeEncode   = "encode_error"
)

// Config is one outbound webhook configuration. Headers may carry a custom
// Authorization value, which takes precedence over the secret.
type Config struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Secret    string            `json:"secret"`
	Headers   map[string]string `json:"headers"`
	TimeoutMs int               `json:"timeoutMs"`
}

// Enabled reports whether the configuration points anywhere.
func (c Config) Enabled() bool {
	return c.URL != ""
}

// Normalize fills defaults and clamps the timeout to at most 60 seconds.
func (c *Config) Normalize() {
	c.URL = strings.TrimSpace(c.URL)
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	if c.Method == "" {
		c.Method = http.MethodPost
	}
	if c.TimeoutMs <= 0 {
		c.TimeoutMs = int(defaultTimeout / time.Millisecond)
	}
	if c.TimeoutMs > int(maxTimeout/time.Millisecond) {
		c.TimeoutMs = int(maxTimeout / time.Millisecond)
	}
}

func (c Config) timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Status is the process-wide verification snapshot, refreshed by the
// handshake and by every dispatch attempt.
type Status struct {
	State      string `json:"state"` // disabled | ok | error
	HTTPStatus int    `json:"httpStatus,omitempty"`
	Method     string `json:"method,omitempty"`
	LatencyMs  int64  `json:"latencyMs,omitempty"`
	Message    string `json:"message,omitempty"`
	ErrorCode  string `json:"errorCode,omitempty"`
	CheckedAt  int64  `json:"checkedAt,omitempty"`
}

// Result is the structured outcome of one dispatch call. Success is false
// only when at least one delivery failed or was skipped; Dispatched counts
// deliveries that went through.
type Result struct {
	Success    bool   `json:"success"`
	Dispatched int    `json:"dispatched"`
	Error      string `json:"error,omitempty"`
	Status     int    `json:"status,omitempty"`
	ErrorCode  string `json:"errorCode,omitempty"`
}

// Dispatcher holds the active webhook configuration and performs deliveries.
type Dispatcher struct {
	mu      sync.RWMutex
	cfg     Config
	status  Status
	client  *http.Client
	skips   *cache.Cache
	metrics *metrics.Registry
}

// NewDispatcher creates a dispatcher with no endpoint configured.
func NewDispatcher(m *metrics.Registry) *Dispatcher {
	return &Dispatcher{
		status:  Status{State: StateDisabled},
		client:  &http.Client{Timeout: defaultTimeout},
		skips:   cache.New(skipLogWindow, 2*skipLogWindow),
		metrics: m,
	}
}

// SetConfig normalizes and installs a new configuration, then immediately
// verifies the endpoint with a handshake. The resulting status snapshot is
// returned.
func (d *Dispatcher) SetConfig(ctx context.Context, cfg Config) Status {
	cfg.Normalize()

	d.mu.Lock()
	d.cfg = cfg
	d.client = &http.Client{Timeout: cfg.timeout()}
	if !cfg.Enabled() {
		d.status = Status{State: StateDisabled, CheckedAt: time.Now().UnixMilli()}
		st := d.status
		d.mu.Unlock()
		logging.Info("webhook disabled", "reason", "no url configured")
		return st
	}
	d.mu.Unlock()

	st := d.handshake(ctx)

	d.mu.Lock()
	d.status = st
	d.mu.Unlock()

	logging.Info("webhook configured",
		"url", cfg.URL,
		"method", cfg.Method,
		"state", st.State,
		"http_status", st.HTTPStatus,
	)
	return st
}

// Status returns the current verification snapshot.
func (d *Dispatcher) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

func (d *Dispatcher) config() Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

func (d *Dispatcher) setStatus(st Status) {
	d.mu.Lock()
	d.status = st
	d.mu.Unlock()
}

// logSkipOnce logs the given skip reason at most once per window.
func (d *Dispatcher) logSkipOnce(reason string) {
	if _, found := d.skips.Get(reason); found {
		return
	}
	d.skips.SetDefault(reason, true)
	logging.Warn("webhook dispatch skipped", "reason", reason)
}

func (d *Dispatcher) skipResult(event, reason string) Result {
	d.logSkipOnce(reason)
	d.metrics.WebhookDispatchTotal.WithLabelValues(event, "skipped").Inc()
	return Result{Success: false, Error: reason, ErrorCode: CodeDisabled}
}

// send delivers one JSON payload. It never returns an error; failures are
// folded into the Result and the status snapshot.
func (d *Dispatcher) send(ctx context.Context, event string, payload any) Result {
	cfg := d.config()
	if !cfg.Enabled() {
		return d.skipResult(event, constants.MsgWebhookDisabled)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		d.metrics.WebhookDispatchTotal.WithLabelValues(event, "failure").Inc()
		return Result{Success: false, Error: err.Error(), ErrorCode: CodeEncode}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, cfg.Method, cfg.URL, bytes.NewReader(body))
	if err != nil {
		d.metrics.WebhookDispatchTotal.WithLabelValues(event, "failure").Inc()
		return Result{Success: false, Error: err.Error(), ErrorCode: CodeNetwork}
	}
	req.Header.Set("Content-Type", "application/json")
	applyHeaders(req, cfg)

	start := time.Now()
	resp, err := d.client.Do(req)
	latency := time.Since(start)
	checked := time.Now().UnixMilli()

	if err != nil {
		code := CodeNetwork
		if isTimeout(err) {
			code = CodeTimeout
		}
		d.setStatus(Status{
			State: StateError, LatencyMs: latency.Milliseconds(),
			Message: err.Error(), ErrorCode: code, CheckedAt: checked,
		})
		d.metrics.WebhookDispatchTotal.WithLabelValues(event, "failure").Inc()
		logging.Warn("webhook delivery failed", "event", event, "error", err.Error())
		return Result{Success: false, Error: err.Error(), ErrorCode: code}
	}
	defer resp.Body.Close()

	d.metrics.WebhookLatency.WithLabelValues(event).Observe(latency.Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		msg := "webhook endpoint returned " + resp.Status
		d.setStatus(Status{
			State: StateError, HTTPStatus: resp.StatusCode,
			LatencyMs: latency.Milliseconds(), Message: msg,
			ErrorCode: CodeHTTP, CheckedAt: checked,
		})
		d.metrics.WebhookDispatchTotal.WithLabelValues(event, "failure").Inc()
		logging.Warn("webhook delivery rejected", "event", event, "status", resp.StatusCode)
		return Result{Success: false, Error: msg, Status: resp.StatusCode, ErrorCode: CodeHTTP}
	}

	d.setStatus(Status{
		State: StateOK, HTTPStatus: resp.StatusCode, Method: cfg.Method,
		LatencyMs: latency.Milliseconds(), CheckedAt: checked,
	})
	d.metrics.WebhookDispatchTotal.WithLabelValues(event, "success").Inc()
	return Result{Success: true, Dispatched: 1, Status: resp.StatusCode}
}

// applyHeaders sets the configured extra headers. A caller-supplied
// Authorization header wins; otherwise a bearer token is synthesized from
// the secret.
func applyHeaders(req *http.Request, cfg Config) {
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Authorization") == "" && cfg.Secret != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Secret)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Timeout()
	}
	return false
}
