package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/somaedu/adapt/internal/domain/types"
)

// client is a thin JSON wrapper over the engine's session endpoints.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(cfg *Config) *client {
	return &client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *client) post(ctx context.Context, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encoding request for %s: %w", path, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return nil
}

func (c *client) startSession(ctx context.Context, subjectID int64, studentID string, maxItems int) (types.StartResult, error) {
	var out types.StartResult
	err := c.post(ctx, "/session/start", map[string]any{
		"subject_id": subjectID,
		"student_id": studentID,
		"max_items":  maxItems,
	}, &out)
	return out, err
}

func (c *client) answer(ctx context.Context, sessionID string, subjectID, itemID, optionID int64, rawValue float64) (types.StepResult, error) {
	var out types.StepResult
	err := c.post(ctx, "/session/"+sessionID+"/answer", map[string]any{
		"subject_id": subjectID,
		"item_id":    itemID,
		"option_id":  optionID,
		"raw_value":  rawValue,
	}, &out)
	return out, err
}

func (c *client) end(ctx context.Context, sessionID string) error {
	return c.post(ctx, "/session/"+sessionID+"/end", nil, nil)
}

func (c *client) checkHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("building health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}
