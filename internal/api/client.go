// Package api is the HTTP boundary to the MindDock backend. It is stateless:
// every method either returns backend data or fails.
package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/minddock/minddock/internal/configuration"
	"github.com/minddock/minddock/internal/debug"
)

const (
	contentTypeJSON = "application/json"
	requestIDHeader = "X-Request-ID"
	// maxResponseSize caps a response body. Larger bodies fail rather than truncate.
	maxResponseSize = 64 << 20
)

// Options configures a Client.
type Options struct {
	// BaseURL of the versioned API, e.g. http://localhost:8000/api/v1.
	BaseURL string
	// Timeout applied to each request. Zero disables it.
	Timeout        time.Duration
	CircuitBreaker *configuration.CircuitBreakerConfig
	// HTTPClient defaults to a fresh http.Client.
	HTTPClient *http.Client
}

// Client talks to the MindDock REST API.
type Client struct {
	baseURL    *url.URL
	timeout    time.Duration
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	maxBody    int64
	log        zerolog.Logger
}

// NewFromConfig builds a Client from the parsed configuration.
func NewFromConfig(config *configuration.Config) (*Client, error) {
	return New(Options{
		BaseURL:        config.APIBaseURL,
		Timeout:        config.Timeout(),
		CircuitBreaker: config.CircuitBreaker,
	})
}

// New instantiates and returns a Client.
func New(opts Options) (*Client, error) {
	baseURL, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing base url")
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", opts.BaseURL)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	breakerConfig := opts.CircuitBreaker
	if breakerConfig == nil {
		breakerConfig = configuration.Default().CircuitBreaker
	}
	client := &Client{
		baseURL:    baseURL,
		timeout:    opts.Timeout,
		httpClient: httpClient,
		maxBody:    maxResponseSize,
		log:        debug.Component("api"),
	}
	client.breaker = newCircuitBreaker(breakerConfig, client.log)
	return client, nil
}

// newCircuitBreaker trips when the failure ratio crosses the threshold.
// Only transport errors and 5xx responses count as failures.
func newCircuitBreaker(config *configuration.CircuitBreakerConfig, log zerolog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "minddock-api",
		MaxRequests: config.MaxRequests,
		Interval:    time.Duration(config.Interval) * time.Second,
		Timeout:     time.Duration(config.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *Error
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < http.StatusInternalServerError
			}
			return false
		},
	})
}

// request describes one round trip.
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

// response is a successful round trip.
type response struct {
	body        []byte
	contentType string
}

// endpoint resolves an escaped path against the versioned base url.
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.RawPath = c.baseURL.EscapedPath() + path
	unescaped, err := url.PathUnescape(u.RawPath)
	if err != nil {
		unescaped = u.RawPath
	}
	u.Path = unescaped
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// doJSON sends an optional JSON body and decodes the JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	req := &request{method: method, path: path, query: query}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "marshaling request")
		}
		req.body = body
		req.contentType = contentTypeJSON
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return errors.Wrap(err, "unmarshaling response")
	}
	return nil
}

// do runs a request through the circuit breaker.
func (c *Client) do(ctx context.Context, req *request) (*response, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &Error{StatusCode: http.StatusServiceUnavailable, Status: "backend temporarily unavailable"}
		}
		return nil, err
	}
	return result.(*response), nil
}

func (c *Client) roundTrip(ctx context.Context, req *request) (*response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpRequest, err := http.NewRequestWithContext(ctx, req.method, c.endpoint(req.path, req.query), body)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	if req.contentType != "" {
		httpRequest.Header.Set("Content-Type", req.contentType)
	}
	httpRequest.Header.Set("Accept", contentTypeJSON)
	requestID := uuid.NewString()
	httpRequest.Header.Set(requestIDHeader, requestID)

	start := time.Now()
	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		c.log.Debug().Err(err).Str("request_id", requestID).Str("method", req.method).Str("path", req.path).Msg("request failed")
		return nil, errors.Wrapf(err, "%s %s", req.method, req.path)
	}
	defer httpResponse.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(httpResponse.Body, c.maxBody+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading response body")
	}
	if int64(len(responseBody)) > c.maxBody {
		c.log.Warn().Str("request_id", requestID).Str("path", req.path).Int64("limit", c.maxBody).Msg("response too large")
		return nil, errors.Errorf("%s %s: response exceeds %d bytes", req.method, req.path, c.maxBody)
	}

	c.log.Debug().
		Str("request_id", requestID).
		Str("method", req.method).
		Str("path", req.path).
		Int("status", httpResponse.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request completed")

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode >= 300 {
		return nil, newError(httpResponse, responseBody)
	}
	return &response{body: responseBody, contentType: httpResponse.Header.Get("Content-Type")}, nil
}
