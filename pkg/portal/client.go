package portal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	mirrorerrors "coursemirror/pkg/errors"
	"coursemirror/pkg/logger"
	"coursemirror/pkg/ratelimit"

	"golang.org/x/net/html/charset"
)

// maxPageSize bounds how much of a listing page is read into memory
const maxPageSize = 16 << 20

// Session performs requests as a logged-in portal user. *http.Client
// carrying the login cookies satisfies it.
type Session interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues GET requests against the portal through a session
type Client struct {
	session Session
	headers map[string]string
	limiter ratelimit.Limiter
	logger  logger.Logger
}

// Document is a fetched HTML page decoded to UTF-8
type Document struct {
	// URL is the final location after redirects.
	URL  *url.URL
	Body io.Reader
}

// NewClient creates a new portal client
func NewClient(session Session, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	return &Client{
		session: session,
		headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "tr-TR,tr;q=0.9,en-US;q=0.8,en;q=0.7",
		},
		limiter: limiter,
		logger:  log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHeaders sets multiple headers at once
func (c *Client) SetHeaders(headers map[string]string) {
	for key, value := range headers {
		c.headers[key] = value
	}
}

// Get performs a GET request and returns the response when its status is
// 2xx. Any other status is returned as a typed error with the body closed.
// The caller must close the body of a successful response.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, mirrorerrors.Wrap(mirrorerrors.ErrorTypeNetwork, rawURL, "failed to create request", err)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}

	if err := c.checkResponseStatus(resp, rawURL); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return resp, nil
}

// GetDocument fetches an HTML page and decodes it to UTF-8 using the
// charset announced by the response or sniffed from the content.
func (c *Client) GetDocument(ctx context.Context, rawURL string) (*Document, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, mirrorerrors.Wrap(mirrorerrors.ErrorTypeNetwork, rawURL, "failed to read response body", err)
	}

	decoded, err := charset.NewReader(bytes.NewReader(body), resp.Header.Get("Content-Type"))
	if err != nil {
		c.logger.WarnWithFields("unknown page charset, reading raw bytes", map[string]interface{}{
			"url":   rawURL,
			"error": err.Error(),
		})
		decoded = bytes.NewReader(body)
	}

	var final *url.URL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL
	} else if final, err = url.Parse(rawURL); err != nil {
		return nil, mirrorerrors.Wrap(mirrorerrors.ErrorTypeParsing, rawURL, "invalid page URL", err)
	}

	return &Document{URL: final, Body: decoded}, nil
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.session.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, mirrorerrors.Wrap(mirrorerrors.ErrorTypeNetwork, req.URL.String(), "request failed", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// checkResponseStatus maps a non-2xx status to a typed error
func (c *Client) checkResponseStatus(resp *http.Response, rawURL string) error {
	err := mirrorerrors.FromStatus(resp.StatusCode, rawURL)
	if err == nil {
		return nil
	}

	if err.Type == mirrorerrors.ErrorTypeAuth {
		c.logger.WarnWithFields("portal rejected the session", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    rawURL,
		})
		err.Message = fmt.Sprintf("%s; the session may have expired", err.Message)
	}
	return err
}
