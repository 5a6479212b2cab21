// Package render is the HTTP client for the external media-rendering service
// that compiles a team's submitted clips into a highlight video.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/huntworks/cityhunt/internal/engine"
)

// Client implements engine.Renderer against the renderer's REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) ListRenderJobs(ctx context.Context, eventID string) ([]engine.RenderJob, error) {
	url := fmt.Sprintf("%s/events/%s/jobs", c.baseURL, eventID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing render jobs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing render jobs: unexpected status %d", resp.StatusCode)
	}

	var jobs []engine.RenderJob
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return nil, fmt.Errorf("decoding render jobs: %w", err)
	}
	return jobs, nil
}

func (c *Client) CreateRenderJob(ctx context.Context, eventID, teamID, templateID string, clips []string) error {
	body, err := json.Marshal(map[string]any{
		"teamId":     teamID,
		"templateId": templateID,
		"clips":      clips,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/events/%s/jobs", c.baseURL, eventID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("creating render job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("creating render job: unexpected status %d", resp.StatusCode)
	}
	return nil
}
