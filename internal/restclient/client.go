package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"sdr-automation-go/internal/logger"
)

const defaultMaxElapsed = 12 * time.Second

// APIError is returned for any non-2xx response.
type APIError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status=%d body=%s", e.Method, e.URL, e.Status, e.Body)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client is a small JSON-over-HTTP helper shared by the vendor clients.
// Network errors and 5xx are retried with exponential backoff; 4xx is final.
// A 5xx on POST or PATCH is final unless RetryUnsafe is set, since the
// server may already have applied the write.
type Client struct {
	BaseURL     string
	HTTP        *http.Client
	MaxElapsed  time.Duration
	ContentType string
	RetryUnsafe bool
	Log         *logger.Logger
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func New(baseURL string, httpClient *http.Client, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logger.New()
	}
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		HTTP:        httpClient,
		MaxElapsed:  defaultMaxElapsed,
		ContentType: "application/json",
		Log:         log,
	}
}

// Do sends body (JSON-encoded when non-nil) and decodes the response into out
// when out is non-nil and the response has a body.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.MaxElapsed

	var lastErr error
	op := func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", c.ContentType)
		}
		req.Header.Set("Accept", c.ContentType)

		resp, err := c.HTTP.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			c.Log.WithError(err).WithField("url", target).Warn("request failed")
			return err
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 300 {
			lastErr = &APIError{Method: method, URL: target, Status: resp.StatusCode, Body: string(respBody)}
			if resp.StatusCode >= 500 && (c.RetryUnsafe || idempotent(method)) {
				return lastErr
			}
			return backoff.Permanent(lastErr)
		}

		if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
			lastErr = nil
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, string(respBody))
			return backoff.Permanent(lastErr)
		}
		lastErr = nil
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr != nil {
			return lastErr
		}
		return err
	}
	return nil
}
