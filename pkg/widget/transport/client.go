package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"botsy-widget-be/pkg/widget/transcript"
)

// Config is the display-only tenant settings view the widget polls.
type Config struct {
	BotName      string `json:"bot_name"`
	Greeting     string `json:"greeting"`
	PrimaryColor string `json:"primary_color"`
	Position     string `json:"position"`
	Size         string `json:"size"`
	Animation    string `json:"animation"`
	LogoURL      string `json:"logo_url"`
	IsEnabled    bool   `json:"is_enabled"`
}

// ChatReply is the chat-reply endpoint response. The manual/escalated pair
// gates whether the controller appends anything from this response.
type ChatReply struct {
	Reply        string `json:"reply"`
	IsManualMode bool   `json:"is_manual_mode"`
	Escalated    bool   `json:"escalated"`
}

// History is the full server log plus the manual-mode flag.
type History struct {
	Messages     []transcript.ServerMessage `json:"messages"`
	IsManualMode bool                       `json:"is_manual_mode"`
}

// Client is the widget's view of the backend. All methods are safe to call
// from the controller's single logical thread.
type Client interface {
	FetchConfig(ctx context.Context, tenantId string) (*Config, error)
	SendChat(ctx context.Context, tenantId, sessionId, message string) (*ChatReply, error)
	FetchHistory(ctx context.Context, tenantId, sessionId string) (*History, error)
	RequestEmailSummary(ctx context.Context, tenantId, sessionId, email string) error
}

// envelope mirrors the backend's {success, message, data} response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string) Client {
	return &httpClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *httpClient) FetchConfig(ctx context.Context, tenantId string) (*Config, error) {
	var cfg Config
	path := fmt.Sprintf("/api/widget/v1/config/%s", url.PathEscape(tenantId))
	if err := c.get(ctx, path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *httpClient) SendChat(ctx context.Context, tenantId, sessionId, message string) (*ChatReply, error) {
	var reply ChatReply
	body := map[string]string{
		"tenant_id":  tenantId,
		"session_id": sessionId,
		"message":    message,
	}
	if err := c.post(ctx, "/api/widget/v1/chat", body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *httpClient) FetchHistory(ctx context.Context, tenantId, sessionId string) (*History, error) {
	var history History
	path := fmt.Sprintf("/api/widget/v1/history/%s/%s", url.PathEscape(tenantId), url.PathEscape(sessionId))
	if err := c.get(ctx, path, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

func (c *httpClient) RequestEmailSummary(ctx context.Context, tenantId, sessionId, email string) error {
	body := map[string]string{
		"tenant_id":  tenantId,
		"session_id": sessionId,
		"email":      email,
	}
	return c.post(ctx, "/api/widget/v1/summary", body, nil)
}

func (c *httpClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *httpClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *httpClient) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		return fmt.Errorf("unmarshal envelope: status %d: %w", resp.StatusCode, err)
	}
	if !env.Success {
		return fmt.Errorf("server error: %s", env.Message)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	return nil
}
