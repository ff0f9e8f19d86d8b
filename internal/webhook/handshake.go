package webhook

import (
	"context"
	"net/http"
	"time"
)

// handshakeMethods are probed in order. HEAD and OPTIONS are non-mutating;
// GET is the last resort for endpoints that reject both.
var handshakeMethods = []string{http.MethodHead, http.MethodOptions, http.MethodGet}

// handshake classifies endpoint reachability without mutating receiver
// state. Any status in [200,400) or an auth challenge (401/403) counts as
// reachable; 405/501 means "try the next method".
func (d *Dispatcher) handshake(ctx context.Context) Status {
	cfg := d.config()
	if !cfg.Enabled() {
		return Status{State: StateDisabled, CheckedAt: time.Now().UnixMilli()}
	}

	last := Status{State: StateError, CheckedAt: time.Now().UnixMilli()}
	for _, method := range handshakeMethods {
		st, retry := d.probe(ctx, cfg, method)
		if !retry {
			return st
		}
		last = st
	}
	return last
}

// probe issues one handshake request. retry is true when the next method
// should be attempted.
func (d *Dispatcher) probe(ctx context.Context, cfg Config, method string) (Status, bool) {
	ctx, cancel := context.WithTimeout(ctx, cfg.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, nil)
	if err != nil {
		return Status{
			State: StateError, Method: method, Message: err.Error(),
			ErrorCode: CodeNetwork, CheckedAt: time.Now().UnixMilli(),
		}, false
	}
	applyHeaders(req, cfg)

	start := time.Now()
	resp, err := d.client.Do(req)
	latency := time.Since(start).Milliseconds()
	checked := time.Now().UnixMilli()

	if err != nil {
		code := CodeNetwork
		if isTimeout(err) {
			code = CodeTimeout
		}
		d.metrics.WebhookHandshakeTotal.WithLabelValues(method, "failure").Inc()
		// Connection-level failures will not improve with another verb,
		// but the remaining methods are still tried for parity with
		// endpoints that drop unsupported verbs outright.
		return Status{
			State: StateError, Method: method, LatencyMs: latency,
			Message: err.Error(), ErrorCode: code, CheckedAt: checked,
		}, true
	}
	defer resp.Body.Close()

	reachable := (resp.StatusCode >= 200 && resp.StatusCode < 400) ||
		resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusForbidden

	if reachable {
		d.metrics.WebhookHandshakeTotal.WithLabelValues(method, "success").Inc()
		return Status{
			State: StateOK, HTTPStatus: resp.StatusCode, Method: method,
			LatencyMs: latency, CheckedAt: checked,
		}, false
	}

	d.metrics.WebhookHandshakeTotal.WithLabelValues(method, "failure").Inc()
	st := Status{
		State: StateError, HTTPStatus: resp.StatusCode, Method: method,
		LatencyMs: latency, Message: "handshake returned " + resp.Status,
		ErrorCode: CodeHTTP, CheckedAt: checked,
	}

	// Method-not-supported answers are not a verdict on the endpoint.
	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		return st, true
	}
	return st, false
}
