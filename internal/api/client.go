// Package api executes authenticated requests against the remote wellness service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 8 << 20

// TokenSource supplies the current session credential, or "" when unauthenticated.
type TokenSource interface {
	Get(ctx context.Context) string
}

type anonymous struct{}

func (anonymous) Get(context.Context) string { return "" }

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64
	RateBurst  int
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	cookies    *cookiejar.Jar
	timeout    time.Duration
	session    TokenSource
	limiter    *rate.Limiter
	log        logrus.FieldLogger
}

// Request describes one call. Method defaults to GET.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
}

func NewClient(opts Options, session TokenSource) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{}
	if opts.HTTPClient != nil {
		copied := *opts.HTTPClient
		httpClient = &copied
	}
	httpClient.Jar = recordingJar{jar}
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	if session == nil {
		session = anonymous{}
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		cookies:    jar,
		timeout:    opts.Timeout,
		session:    session,
		limiter:    limiter,
		log:        log.WithField("component", "api"),
	}, nil
}

// Do executes req and decodes a non-empty JSON response into out (which may be nil).
// It never retries.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &TransportError{Method: method, Path: req.Path, Err: err}
		}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.endpoint(req), body)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if token := c.session.Get(ctx); token != "" {
		httpReq.Header.Set("Cookie", token)
	}
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	log := c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       req.Path,
		"request_id": requestID,
	})
	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.WithError(err).Warn("request timed out")
			return &RequestError{Status: StatusTimeout, Message: "Request timed out", Err: err}
		}
		log.WithError(err).Warn("request failed")
		return &TransportError{Method: method, Path: req.Path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &RequestError{Status: StatusTimeout, Message: "Request timed out", Err: err}
		}
		return &TransportError{Method: method, Path: req.Path, Err: err}
	}
	log = log.WithFields(logrus.Fields{"status": resp.StatusCode, "elapsed": time.Since(started)})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(resp.StatusCode, raw)
		log.WithField("message", msg).Info("request rejected")
		return &RequestError{Status: resp.StatusCode, Message: msg}
	}
	log.Debug("request ok")

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &DecodeError{Status: resp.StatusCode, Err: err}
	}
	return nil
}

// SessionCookie renders the cookies the service has set for the base URL as a Cookie header value.
func (c *Client) SessionCookie() string {
	cookies := c.cookies.Cookies(c.baseURL)
	parts := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	return strings.Join(parts, "; ")
}

// recordingJar keeps the cookies the service sets but never attaches them to requests.
// The TokenSource is the only source of the Cookie header.
type recordingJar struct {
	*cookiejar.Jar
}

func (recordingJar) Cookies(*url.URL) []*http.Cookie { return nil }

func (c *Client) endpoint(req Request) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + req.Path
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}
	return u.String()
}

func call[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var out T
	if err := c.Do(ctx, req, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
