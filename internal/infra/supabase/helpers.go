package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/boddenberg/org-finance-bfa-go/internal/infra/resilience"
)

// ============================================================
// HTTP helpers for GET, POST, PATCH, DELETE
// ============================================================

// statusError is a non-2xx PostgREST response.
type statusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("supabase %s %s returned %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// newRequest builds an authenticated PostgREST request.
func (c *Client) newRequest(ctx context.Context, method, path string, data map[string]any, prefer string) (*http.Request, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)

	var body io.Reader
	if data != nil {
		jsonBody, err := json.Marshal(data)
		if err != nil {
			return nil, resilience.Permanent(err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, resilience.Permanent(err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
	return req, nil
}

// do sends req and returns the body of a 2xx response. 4xx responses other
// than 408 and 429 are permanent.
func (c *Client) do(req *http.Request, path string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", req.Method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("method", req.Method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", req.Method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		se := &statusError{Method: req.Method, Path: path, Status: resp.StatusCode, Body: string(body)}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
			resp.StatusCode != http.StatusRequestTimeout && resp.StatusCode != http.StatusTooManyRequests {
			return nil, resilience.Permanent(se)
		}
		return nil, se
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", req.Method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return body, nil
}

// doRequest executes an authenticated GET-style request.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	req, err := c.newRequest(ctx, method, path, nil, "")
	if err != nil {
		return nil, err
	}
	return c.do(req, path)
}

func (c *Client) doPost(ctx context.Context, table string, data map[string]any) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodPost, table, data, "return=representation")
	if err != nil {
		return nil, err
	}
	return c.do(req, table)
}

// doPatch returns the updated rows; an empty array means nothing matched.
func (c *Client) doPatch(ctx context.Context, path string, data map[string]any) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodPatch, path, data, "return=representation")
	if err != nil {
		return nil, err
	}
	return c.do(req, path)
}

// doDelete returns the deleted rows; an empty array means nothing matched.
func (c *Client) doDelete(ctx context.Context, path string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil, "return=representation")
	if err != nil {
		return nil, err
	}
	return c.do(req, path)
}

func readBody(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
