package evalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/promptscore/internal/evaluation"
)

const (
	// DefaultTimeout bounds each individual attempt.
	DefaultTimeout = 180 * time.Second

	maxResponseBytes = 32 << 20
)

// DefaultBackoff is the per-attempt delay schedule. Its length is the
// attempt budget; the delay for the final attempt is never slept.
var DefaultBackoff = []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second}

// Logger is the logging capability the client needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Client posts JSON requests to the evaluation service with bounded retries.
type Client struct {
	endpoint  string
	http      *http.Client
	timeout   time.Duration
	backoff   []time.Duration
	log       Logger
	userAgent string
	hook      func(Transition)
	sleep     func(context.Context, time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBackoff replaces the delay schedule, and with it the attempt budget.
func WithBackoff(schedule []time.Duration) Option {
	return func(c *Client) { c.backoff = append([]time.Duration(nil), schedule...) }
}

// WithLogger sets the logger for retry warnings. Without one the logger is
// taken from the request context.
func WithLogger(l Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithStateHook registers a callback invoked on every state transition.
func WithStateHook(fn func(Transition)) Option {
	return func(c *Client) { c.hook = fn }
}

// New creates a client for the given endpoint URL.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     http.DefaultClient,
		timeout:  DefaultTimeout,
		backoff:  DefaultBackoff,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Evaluate posts req and validates the response shape. A response with a
// non-success status or without results is a terminal error.
func (c *Client) Evaluate(ctx context.Context, req evaluation.Request) (*evaluation.Response, error) {
	var resp evaluation.Response
	if err := c.Do(ctx, req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Do posts body as JSON and decodes the response into out. 4xx responses
// and unclassified errors fail immediately; 5xx responses and transient
// network errors are retried following the backoff schedule.
func (c *Client) Do(ctx context.Context, body any, out any) (err error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	ctx, span := tracer().Start(ctx, "evalclient.Do",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("url.full", c.endpoint)))
	m := &machine{hook: c.hook}
	defer func() {
		span.SetAttributes(attribute.Int("attempts", m.attempt+1))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	attempts := len(c.backoff)
	for m.attempt = 0; m.attempt < attempts; m.attempt++ {
		m.to(PhaseAttempting, 0, nil)

		aerr := c.attempt(ctx, payload, out)
		if ctx.Err() != nil {
			aerr = ctx.Err()
		}
		attemptsTotal.WithLabelValues(outcome(aerr)).Inc()

		if aerr == nil {
			m.to(PhaseSucceeded, 0, nil)
			return nil
		}
		if ctx.Err() != nil || !IsRetryable(aerr) {
			m.to(PhaseFailed, 0, aerr)
			return aerr
		}
		if m.attempt == attempts-1 {
			m.to(PhaseFailed, 0, aerr)
			return fmt.Errorf("evaluation request failed after %d attempts: %w", attempts, aerr)
		}

		delay := c.backoff[m.attempt]
		c.logger(ctx).Warn("evaluation request failed, retrying",
			"attempt", m.attempt+1,
			"max_attempts", attempts,
			"delay", delay,
			"error", aerr.Error())
		m.to(PhaseRetrying, delay, aerr)
		if serr := c.sleep(ctx, delay); serr != nil {
			m.to(PhaseFailed, 0, serr)
			return serr
		}
	}

	m.to(PhaseFailed, 0, ErrRetriesExhausted)
	return ErrRetriesExhausted
}

// attempt performs one POST under its own timeout. The timer is released
// before returning.
func (c *Client) attempt(ctx context.Context, payload []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return classifyTransport(fmt.Errorf("reading response: %w", err))
	}

	if err := responseError(resp.StatusCode, data); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response (HTTP %d): %w", resp.StatusCode, err)
	}
	return nil
}

func (c *Client) logger(ctx context.Context) Logger {
	if c.log != nil {
		return c.log
	}
	return clog.FromContext(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
