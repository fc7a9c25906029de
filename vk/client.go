// Package vk talks to the VK HTTP API and converts its wire format into
// the shared timeline model.
package vk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

const apiURL = "https://api.vk.com/"

// The provider reports an expired or otherwise invalid access token with
// this error code.
const authErrorCode = 5

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vkrss_api_requests_total",
		Help: "The total number of VK API requests",
	}, []string{"method"})

	apiErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vkrss_api_errors_total",
		Help: "The total number of failed VK API requests",
	}, []string{"method"})

	apiRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vkrss_api_request_duration_seconds",
		Help:    "Duration of VK API requests",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // Start at 50ms, double each bucket, 10 buckets
	})
)

// ApiError is an error returned by the provider inside a successful HTTP
// response.
type ApiError struct {
	Code int
	Msg  string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("the server returned an error: %s", e.Msg)
}

// IsAuthError reports whether err means the access token was rejected.
func IsAuthError(err error) bool {
	var apiErr *ApiError
	return errors.As(err, &apiErr) && apiErr.Code == authErrorCode
}

// Client is a VK API client. It performs exactly one upstream request per
// call, with no retries: a failure surfaces immediately.
type Client struct {
	http    *http.Client
	baseURL string
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: apiURL,
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub
// server.
func NewClientWithBaseURL(timeout time.Duration, baseURL string) *Client {
	client := NewClient(timeout)
	client.baseURL = baseURL
	return client
}

// Newsfeed fetches the raw newsfeed response for the given access token.
func (c *Client) Newsfeed(ctx context.Context, accessToken string) (json.RawMessage, error) {
	return c.Call(ctx, accessToken, "newsfeed.get", url.Values{
		"max_photos": {"10"},
	})
}

// Call invokes the given API method and returns the raw response payload.
// Provider-reported failures come back as *ApiError.
func (c *Client) Call(ctx context.Context, accessToken string, method string, params url.Values) (json.RawMessage, error) {
	if params == nil {
		params = url.Values{}
	}
	if params.Get("access_token") == "" {
		params.Set("access_token", accessToken)
	}
	if params.Get("language") == "" {
		params.Set("language", "0")
	}

	requestURL := c.baseURL + "method/" + method + "?" + params.Encode()

	log.WithFields(log.Fields{
		"method": method,
	}).Debug("Sending VK API request")

	apiRequests.WithLabelValues(method).Inc()
	start := time.Now()

	body, err := c.do(ctx, requestURL)
	apiRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		apiErrors.WithLabelValues(method).Inc()
		return nil, fmt.Errorf("failed to process %s VK API request: %w", method, err)
	}

	var envelope struct {
		Response json.RawMessage `json:"response"`
		Error    *struct {
			Code int    `json:"error_code"`
			Msg  string `json:"error_msg"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		apiErrors.WithLabelValues(method).Inc()
		return nil, fmt.Errorf("failed to process %s VK API request: error while parsing the server's response: %w", method, err)
	}

	if envelope.Error != nil || envelope.Response == nil {
		apiErrors.WithLabelValues(method).Inc()

		code := 1
		msg := "Unknown error"
		if envelope.Error != nil {
			code = envelope.Error.Code
			if envelope.Error.Msg != "" {
				msg = envelope.Error.Msg
			}
		}
		return nil, &ApiError{Code: code, Msg: msg}
	}

	return envelope.Response, nil
}

func (c *Client) do(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", "ru,en")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		return nil, fmt.Errorf("the server returned a response without Content-Type header")
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/json" {
		return nil, fmt.Errorf("the server returned a response with an invalid Content-Type (%s)", contentType)
	}

	return io.ReadAll(resp.Body)
}
