// Package mikrotik implements protocol.Router against the RouterOS v7 REST API
// of the user-manager package, which holds the PPPoE subscriber accounts.
package mikrotik

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/netwirefiber/autodisconnect/pkg/protocol"
)

const (
	printPath      = "/rest/user-manager/user/print"
	enablePath     = "/rest/user-manager/user/enable"
	disablePath    = "/rest/user-manager/user/disable"
	maxBodyBytes   = 1 << 20
	defaultTimeout = 15 * time.Second
)

var ErrRequestFailed = errors.New("router request failed")

type Config struct {
	BaseURL  string        `validate:"required,url"`
	Username string        `validate:"required"`
	Password string        `validate:"required"`
	Timeout  time.Duration `validate:"gte=0"`
}

type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid router config: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("module", "mikrotik"),
	}, nil
}

// FindAccount returns the raw JSON array RouterOS prints for the user named username.
func (c *Client) FindAccount(ctx context.Context, username string) ([]byte, error) {
	return c.post(ctx, printPath, map[string]any{
		".query": []string{"name=" + username},
	})
}

func (c *Client) SetAccountEnabled(ctx context.Context, accountID string, enabled bool) error {
	path := disablePath
	if enabled {
		path = enablePath
	}

	_, err := c.post(ctx, path, map[string]any{".id": accountID})

	return err
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode router request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrRequestFailed, err)
	}

	c.logger.DebugContext(ctx, "Router call", "path", path, "status", resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, protocol.ErrNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, routerMessage(raw))
	}

	return raw, nil
}

// routerMessage extracts the "detail" or "message" RouterOS attaches to errors.
func routerMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}

	if json.Unmarshal(raw, &body) != nil {
		return strings.TrimSpace(string(raw))
	}

	if body.Detail != "" {
		return body.Detail
	}

	return body.Message
}
