package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"github.com/sethvargo/go-retry"
)

const maxResponseBytes = 1 << 20

var errServerStatus = errors.New("server error status")

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// HTTPClient overrides the transport; its Jar is replaced when nil.
	HTTPClient *http.Client
	Logger     logging.Logger
}

// HTTPClient talks JSON to the journal backend.
type HTTPClient struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	http       *http.Client
	log        logging.Logger
}

func NewHTTPClient(o Options) (*HTTPClient, error) {
	if o.BaseURL == "" {
		return nil, errors.New("api base url is empty")
	}

	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		hc.Jar = jar
	}

	log := o.Logger
	if log == nil {
		log = logging.NewNop()
	}

	delay := o.RetryDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}

	return &HTTPClient{
		baseURL:    strings.TrimRight(o.BaseURL, "/"),
		timeout:    o.Timeout,
		maxRetries: max(o.MaxRetries, 0),
		retryDelay: delay,
		http:       hc,
		log:        log,
	}, nil
}

func (c *HTTPClient) PostJSON(ctx context.Context, path string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, payload)
}

func (c *HTTPClient) GetJSON(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload []byte) (*Response, error) {
	b := retry.WithMaxRetries(uint64(c.maxRetries), retry.NewExponential(c.retryDelay))

	var (
		last    *Response
		attempt int
	)
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		resp, err := c.once(ctx, method, path, payload)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn(ctx, "request failed", "method", method, "path", path, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		last = resp
		if resp.Status >= 500 {
			c.log.Warn(ctx, "server error", "method", method, "path", path, "attempt", attempt, "status", resp.Status)
			return retry.RetryableError(errServerStatus)
		}
		return nil
	})

	// a per-request timeout also surfaces as DeadlineExceeded; only the
	// caller's own context is passed through unwrapped
	switch {
	case err == nil, errors.Is(err, errServerStatus):
		return last, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func (c *HTTPClient) once(ctx context.Context, method, path string, payload []byte) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	resp := &Response{
		OK:     res.StatusCode >= 200 && res.StatusCode < 300,
		Status: res.StatusCode,
	}
	if json.Valid(raw) {
		resp.JSON = raw
	}
	return resp, nil
}
