package agent

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
)

// HTTPClient talks to the agent service over JSON/HTTP.
type HTTPClient struct {
	http *http.Client
	base string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		http: &http.Client{Timeout: timeout},
		base: strings.TrimSuffix(baseURL, "/"),
	}
}

func (c *HTTPClient) ResolveDomain(ctx context.Context) (string, error) {
	var out struct {
		Domain string `json:"domain"`
	}
	if err := c.do(ctx, http.MethodGet, "/domain", nil, &out); err != nil {
		return "", fmt.Errorf("agent ResolveDomain: %w", err)
	}
	return out.Domain, nil
}

func (c *HTTPClient) OpenSession(ctx context.Context, creds Credentials, owner, productCode string) (string, error) {
	body := map[string]any{
		"agent_id":        creds.AgentID,
		"consumer_key":    creds.ConsumerKey,
		"consumer_secret": creds.ConsumerSecret,
		"campaign_id":     owner,
		"product_code":    nullable(productCode),
	}
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/sessions", body, &out); err != nil {
		return "", fmt.Errorf("agent OpenSession: %w", err)
	}
	if out.SessionID == "" {
		return "", fmt.Errorf("agent OpenSession: empty session id")
	}
	return out.SessionID, nil
}

func (c *HTTPClient) Recommend(ctx context.Context, sessionID, message string, creds Credentials) (string, error) {
	body := map[string]any{
		"message":         message,
		"consumer_key":    creds.ConsumerKey,
		"consumer_secret": creds.ConsumerSecret,
	}
	var out struct {
		Response string `json:"response"`
	}
	path := "/sessions/" + url.PathEscape(sessionID) + "/messages"
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return "", fmt.Errorf("agent Recommend: %w", err)
	}
	return out.Response, nil
}

func (c *HTTPClient) CloseSession(ctx context.Context, sessionID string, creds Credentials) error {
	body := map[string]any{
		"consumer_key":    creds.ConsumerKey,
		"consumer_secret": creds.ConsumerSecret,
	}
	if err := c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(sessionID), body, nil); err != nil {
		return fmt.Errorf("agent CloseSession: %w", err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var rd io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return err
		}
		rd = &buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: %s", resp.Status, string(b))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
