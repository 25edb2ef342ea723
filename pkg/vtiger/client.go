// Package vtiger implements protocol.RecordStore on top of the VTAP REST records API.
package vtiger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/netwirefiber/autodisconnect/pkg/models"
	"github.com/netwirefiber/autodisconnect/pkg/protocol"
)

const (
	recordsPath    = "/records"
	maxBodyBytes   = 4 << 20
	defaultTimeout = 30 * time.Second
)

var (
	ErrRequestFailed = errors.New("record store request failed")
	ErrBadEnvelope   = errors.New("unexpected record store response")
)

type Config struct {
	BaseURL   string        `validate:"required,url"`
	Username  string        `validate:"required"`
	AccessKey string        `validate:"required"`
	Timeout   time.Duration `validate:"gte=0"`
}

// Client talks to the CRM records API. Webservice ids ("171x5") are reduced
// to their record id on the wire.
type Client struct {
	baseURL    string
	username   string
	accessKey  string
	httpClient *http.Client
	logger     *slog.Logger
}

type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) notFound() bool {
	if e == nil {
		return false
	}

	return strings.Contains(strings.ToUpper(e.Code), "NOT_FOUND") ||
		strings.Contains(strings.ToLower(e.Message), "not found") ||
		strings.Contains(strings.ToLower(e.Message), "does not exist")
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid record store config: %w", err)
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
		accessKey:  cfg.AccessKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("module", "vtiger"),
	}, nil
}

func (c *Client) Get(ctx context.Context, module, id string) (models.Record, error) {
	query := url.Values{}
	query.Set("module", module)
	query.Set("id", models.RecordID(id))

	result, err := c.do(ctx, http.MethodGet, query, nil)
	if err != nil {
		return nil, err
	}

	var record models.Record

	err = decode(result, &record)
	if err != nil {
		return nil, fmt.Errorf("%w: record %s/%s: %w", ErrBadEnvelope, module, id, err)
	}

	return record, nil
}

func (c *Client) Put(ctx context.Context, module, id string, fields map[string]any) error {
	body := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		body[k] = v
	}

	body["module"] = module
	body["id"] = models.RecordID(id)

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode record update: %w", err)
	}

	_, err = c.do(ctx, http.MethodPut, nil, payload)

	return err
}

// Query returns the records matching filter. A result that is not an array is an error.
func (c *Client) Query(ctx context.Context, module string, filter models.Filter) ([]models.Record, error) {
	q, err := filter.Query()
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("module", module)
	query.Set("q", q)

	if filter.ListID != 0 {
		query.Set("filterid", strconv.Itoa(filter.ListID))
	}

	result, err := c.do(ctx, http.MethodGet, query, nil)
	if err != nil {
		return nil, err
	}

	var records []models.Record

	err = decode(result, &records)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: expected an array: %w", ErrBadEnvelope, module, err)
	}

	return records, nil
}

func (c *Client) do(ctx context.Context, method string, query url.Values, body []byte) (json.RawMessage, error) {
	endpoint := c.baseURL + recordsPath
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.username, c.accessKey)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrRequestFailed, err)
	}

	c.logger.DebugContext(ctx, "Record store call", "method", method, "status", resp.StatusCode)

	if resp.StatusCode == http.StatusNotFound {
		return nil, protocol.ErrNotFound
	}

	var env envelope

	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusBadRequest {
		if decodeErr == nil && env.Error.notFound() {
			return nil, protocol.ErrNotFound
		}

		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadEnvelope, decodeErr)
	}

	if !env.Success {
		if env.Error.notFound() {
			return nil, protocol.ErrNotFound
		}

		if env.Error != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrRequestFailed, env.Error.Code, env.Error.Message)
		}

		return nil, fmt.Errorf("%w: success=false", ErrRequestFailed)
	}

	return env.Result, nil
}

func decode(raw json.RawMessage, target any) error {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return errors.New("empty result")
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	return decoder.Decode(target)
}
