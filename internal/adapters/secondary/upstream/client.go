package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fieldops/workorder-agent/internal/core/domain"
	apperrors "github.com/fieldops/workorder-agent/internal/core/errors"
	"github.com/fieldops/workorder-agent/internal/core/ports"
)

// Config holds the upstream API client's settings.
type Config struct {
	// BaseURL is the server root, e.g. "https://api.example.com".
	BaseURL string

	// Token is the bearer token attached to every request.
	Token string

	// RequestTimeout bounds each request.
	RequestTimeout time.Duration

	// RequestsPerSecond / Burst throttle refetch traffic. A storm of
	// invalidations must not translate into a storm of upstream requests.
	RequestsPerSecond float64
	Burst             int
}

// Client fetches work-order data from the upstream REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ ports.UpstreamClient = (*Client)(nil)

// NewClient creates a new upstream API client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  logger.With("component", "upstream_client"),
	}
}

// ListWorkOrders fetches the work orders for a project.
func (c *Client) ListWorkOrders(ctx context.Context, projectID int64) ([]domain.WorkOrder, error) {
	path := fmt.Sprintf("/api/v1/projects/%d/work-orders", projectID)

	var orders []domain.WorkOrder
	if err := c.getJSON(ctx, path, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetWorkOrder fetches a single work order.
func (c *Client) GetWorkOrder(ctx context.Context, projectID, workOrderID int64) (*domain.WorkOrder, error) {
	path := fmt.Sprintf("/api/v1/projects/%d/work-orders/%d", projectID, workOrderID)

	var order domain.WorkOrder
	if err := c.getJSON(ctx, path, &order); err != nil {
		return nil, err
	}
	if err := order.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUpstream, err)
	}
	return &order, nil
}

// ListProjectFiles fetches the files attached anywhere in a project.
func (c *Client) ListProjectFiles(ctx context.Context, projectID int64) ([]domain.ProjectFile, error) {
	path := fmt.Sprintf("/api/v1/projects/%d/files", projectID)

	var files []domain.ProjectFile
	if err := c.getJSON(ctx, path, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// ListWorkOrderFiles fetches the files attached to one work order.
func (c *Client) ListWorkOrderFiles(ctx context.Context, projectID, workOrderID int64) ([]domain.ProjectFile, error) {
	path := fmt.Sprintf("/api/v1/projects/%d/work-orders/%d/files", projectID, workOrderID)

	var files []domain.ProjectFile
	if err := c.getJSON(ctx, path, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// getJSON performs one rate-limited GET and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed", "path", path, "error", err)
		return fmt.Errorf("%w: %w", apperrors.ErrUpstream, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("upstream request",
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decoding response for %s: %w", apperrors.ErrUpstream, path, err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return c.notFoundError(path)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.ErrUnauthorized
	default:
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s returned status %d", apperrors.ErrUpstream, path, resp.StatusCode)
	}
}

// notFoundError picks the sentinel matching the resource the path names.
func (c *Client) notFoundError(path string) error {
	if strings.Contains(path, "/work-orders/") {
		return apperrors.ErrWorkOrderNotFound
	}
	return apperrors.ErrProjectNotFound
}
