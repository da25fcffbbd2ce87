// Package generator calls the external content generation service that
// turns a campaign brief into publishable post content.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/blogforge/distributor/internal/logger"
	"github.com/blogforge/distributor/internal/models"
)

// ErrGenerationFailed indicates the generation service rejected the brief or
// returned an unusable response.
var ErrGenerationFailed = errors.New("content generation failed")

// Generator produces post content from a campaign brief.
type Generator interface {
	Generate(ctx context.Context, spec *models.CampaignSpec) (*models.GeneratedContent, error)
}

// Client is an HTTP Generator.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates a generation client. A zero timeout disables the client
// side deadline and leaves cancellation to the caller's context.
func NewClient(baseURL, apiKey string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// Generate submits the brief and decodes the generated content.
func (c *Client) Generate(ctx context.Context, spec *models.CampaignSpec) (*models.GeneratedContent, error) {
	body, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal campaign brief: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call generation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Error("Generation service returned an error",
			logger.Int("status", resp.StatusCode),
			logger.String("body", string(payload)),
		)
		return nil, fmt.Errorf("%w: status %d", ErrGenerationFailed, resp.StatusCode)
	}

	var content models.GeneratedContent
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return nil, fmt.Errorf("decode generated content: %w", err)
	}
	if content.BodyHTML == "" {
		return nil, fmt.Errorf("%w: empty body", ErrGenerationFailed)
	}

	c.logger.Info("Generated campaign content",
		logger.String("keyword", spec.Identity.PrimaryKeyword),
		logger.Duration("took", time.Since(start)),
	)
	return &content, nil
}
