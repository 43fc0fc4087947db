package kite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	gwerrors "zerodha-roast/internal/errors"
	"zerodha-roast/internal/logging"
)

// Observer receives one notification per upstream call. Endpoint is the route
// template (e.g. "/orders/{order_id}"), never the concrete path.
type Observer interface {
	ObserveUpstream(method, endpoint string, status int, outcome string, duration time.Duration)
}

// Call outcomes reported to the Observer.
const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeUnreachable = "unreachable"
)

// Client is a stateless Kite Connect REST client. Credentials travel with each
// call; the client itself holds none, so one Client serves every caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
	observer   Observer
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root (sandboxes, tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-call timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithObserver installs a call observer, typically the metrics collector.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient creates a Kite client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the common Kite JSON response wrapper.
type envelope struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	ErrorType string          `json:"error_type"`
}

// request describes one upstream call.
type request struct {
	method   string
	path     string
	endpoint string // route template for logs and metrics
	auth     *Auth
	query    url.Values
	form     url.Values
}

func (c *Client) loggerFor(ctx context.Context) zerolog.Logger {
	if l := logging.FromContext(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return c.logger
}

func (c *Client) newRequest(ctx context.Context, req request) (*http.Request, error) {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.form != nil {
		body = strings.NewReader(req.form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("X-Kite-Version", APIVersion)
	if req.auth != nil {
		httpReq.Header.Set("Authorization", req.auth.header())
	}
	if req.form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return httpReq, nil
}

// send performs the HTTP exchange and returns the status and full body.
// Any failure here is a transport failure.
func (c *Client) send(ctx context.Context, req request) (int, []byte, error) {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return 0, nil, gwerrors.NewUnreachable(req.method, req.endpoint, 0, err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, gwerrors.NewUnreachable(req.method, req.endpoint, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, gwerrors.NewUnreachable(req.method, req.endpoint, resp.StatusCode, err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) finish(ctx context.Context, req request, status int, start time.Time, err error) {
	duration := time.Since(start)
	logging.LogAPICall(c.loggerFor(ctx), req.method, req.endpoint, status, duration, err)
	if c.observer != nil {
		c.observer.ObserveUpstream(req.method, req.endpoint, status, outcomeOf(err), duration)
	}
}

func outcomeOf(err error) string {
	switch gwerrors.KindOf(err) {
	case "":
		return OutcomeSuccess
	case gwerrors.KindUpstreamRejected:
		return OutcomeRejected
	default:
		return OutcomeUnreachable
	}
}

// doJSON performs a JSON endpoint call and decodes the envelope's data into out.
func (c *Client) doJSON(ctx context.Context, req request, out interface{}) (err error) {
	start := time.Now()
	var status int
	defer func() { c.finish(ctx, req, status, start, err) }()

	status, body, err := c.send(ctx, req)
	if err != nil {
		return err
	}

	data, err := decodeEnvelope(req, status, body)
	if err != nil {
		return err
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return gwerrors.NewUnreachable(req.method, req.endpoint, status,
			fmt.Errorf("%w: %v", gwerrors.ErrMalformedPayload, err))
	}
	return nil
}

// decodeEnvelope classifies a JSON body. A body that is not a Kite envelope
// means the broker (or something in front of it) is not answering properly.
func decodeEnvelope(req request, status int, body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Status == "" {
		cause := gwerrors.ErrMalformedPayload
		if err != nil {
			cause = fmt.Errorf("%w: %v", gwerrors.ErrMalformedPayload, err)
		}
		return nil, gwerrors.NewUnreachable(req.method, req.endpoint, status, cause)
	}
	if env.Status != "success" {
		return nil, gwerrors.NewRejected(req.method, req.endpoint, status, env.Message, env.ErrorType)
	}
	return env.Data, nil
}

// doCSV fetches a text table. A JSON body is decoded as an error envelope.
func (c *Client) doCSV(ctx context.Context, req request) (body []byte, err error) {
	start := time.Now()
	var status int
	defer func() { c.finish(ctx, req, status, start, err) }()

	status, body, err = c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '<') {
		if _, envErr := decodeEnvelope(req, status, trimmed); envErr != nil {
			return nil, envErr
		}
		return nil, gwerrors.NewUnreachable(req.method, req.endpoint, status, gwerrors.ErrMalformedPayload)
	}
	if status < 200 || status >= 300 {
		return nil, gwerrors.NewUnreachable(req.method, req.endpoint, status, nil)
	}
	return body, nil
}
