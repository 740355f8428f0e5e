// Package chatbackend talks to the upstream recipe-suggestion service,
// which answers a chat turn with a stream of NDJSON events
package chatbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alchemorsel/fridgechef/internal/infrastructure/config"
	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
	"github.com/alchemorsel/fridgechef/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	chatPath        = "/chat"
	pingTimeout     = 5 * time.Second
	maxErrorPreview = 512
)

// Client implements outbound.ChatBackend over HTTP
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a new chat backend client
func NewClient(cfg config.ChatConfig, logger *zap.Logger) *Client {
	logger = logger.Named("chat-backend")
	logger.Info("Chat backend client initialized",
		zap.String("base_url", cfg.BackendURL),
		zap.Duration("timeout", cfg.Timeout))

	return &Client{
		baseURL: strings.TrimRight(cfg.BackendURL, "/"),
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

var _ outbound.ChatBackend = (*Client)(nil)

// Stream posts the turn and returns the NDJSON body. The caller closes it.
// A non-2xx answer is reported before any body is handed out.
func (c *Client) Stream(ctx context.Context, req outbound.ChatRequest) (io.ReadCloser, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errors.NewExternalServiceError("chat backend", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorPreview))
		resp.Body.Close()
		c.logger.Warn("Chat backend rejected turn",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", preview))
		return nil, errors.NewAppError(
			errors.CodeExternalServiceError,
			fmt.Sprintf("Chat backend error: %d", resp.StatusCode),
			string(preview),
		).WithMetadata("upstream_status", resp.StatusCode)
	}

	return resp.Body, nil
}

// Ping checks that the backend answers HTTP at all. It exposes no health
// route, so any response counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create ping request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("chat backend unreachable: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorPreview))
	resp.Body.Close()

	c.logger.Debug("Chat backend ping passed", zap.Int("status", resp.StatusCode))
	return nil
}
