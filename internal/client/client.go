// Package client is the API client of the portal: a bearer-token
// interceptor, envelope-checking decoders and one service per API area.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/hongminglow/erp-portal/internal/guard"
	"github.com/hongminglow/erp-portal/internal/http/respond"
)

const maxBodyBytes = 10 << 20

// Client sends JSON requests to {apiUrl} through an AuthTransport.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

type options struct {
	timeout time.Duration
	base    http.RoundTripper
	logger  zerolog.Logger
}

// Option configures a Client.
type Option func(*options)

// WithTimeout bounds every request; zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithBaseTransport sets the transport the interceptor delegates to.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds a client for apiURL. nav receives the login redirect on 401 and may be nil.
func New(apiURL string, sessions SessionStore, nav guard.Navigator, opts ...Option) *Client {
	o := options{timeout: 30 * time.Second, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Client{
		baseURL: strings.TrimRight(apiURL, "/"),
		logger:  o.logger,
		http: &http.Client{
			Timeout: o.timeout,
			Transport: &AuthTransport{
				Base:      o.base,
				Sessions:  sessions,
				Navigator: nav,
				Logger:    o.logger,
			},
		},
	}
}

// call performs one request and decodes the body into out after checking the
// envelope shape. dataPath names the field that must be present on success; empty skips the check.
func (c *Client) call(ctx context.Context, method, path string, body any, dataPath string, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := checkEnvelope(resp.StatusCode, raw, dataPath); err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("api call failed")
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return nil
}

// checkEnvelope validates the {success, message, ...} shape before anything touches the payload.
func checkEnvelope(status int, raw []byte, dataPath string) error {
	ok2xx := status >= 200 && status < 300
	if len(bytes.TrimSpace(raw)) == 0 || !gjson.ValidBytes(raw) {
		if !ok2xx {
			return &APIError{Status: status}
		}
		return fmt.Errorf("%w: body is not JSON", ErrMalformedEnvelope)
	}

	success := gjson.GetBytes(raw, "success")
	message := gjson.GetBytes(raw, "message")
	msg := ""
	if message.Type == gjson.String {
		msg = strings.TrimSpace(message.Str)
	}

	if success.Type != gjson.True && success.Type != gjson.False {
		if !ok2xx {
			return &APIError{Status: status, Message: msg}
		}
		return fmt.Errorf("%w: missing success flag", ErrMalformedEnvelope)
	}
	if !success.Bool() || !ok2xx {
		if msg == "" && ok2xx {
			return fmt.Errorf("%w: failure without message", ErrMalformedEnvelope)
		}
		return &APIError{Status: status, Message: msg}
	}

	if dataPath != "" {
		data := gjson.GetBytes(raw, dataPath)
		if !data.Exists() || data.Type == gjson.Null {
			return fmt.Errorf("%w: %q", ErrMissingData, dataPath)
		}
	}
	return nil
}

// getData performs a call whose envelope must carry data and returns that data.
func getData[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var env respond.Envelope[T]
	if err := c.call(ctx, method, path, body, "data", &env); err != nil {
		var zero T
		return zero, err
	}
	return *env.Data, nil
}
