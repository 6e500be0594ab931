package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"studybuddy/internal/domain"
	"studybuddy/internal/extract"
	"studybuddy/internal/port"
)

type recorder struct {
	endpoint    string
	serviceRole string
	client      *http.Client
}

// NewRecorder creates a UsageRecorder that inserts rows through Supabase's REST API.
func NewRecorder(baseURL, serviceRole, table string) port.UsageRecorder {
	return NewRecorderWithClient(baseURL, serviceRole, table, &http.Client{})
}

// NewRecorderWithClient is NewRecorder with an explicit HTTP client.
func NewRecorderWithClient(baseURL, serviceRole, table string, client *http.Client) port.UsageRecorder {
	if table == "" {
		table = "ai_usage"
	}
	return &recorder{
		endpoint:    fmt.Sprintf("%s/rest/v1/%s", baseURL, table),
		serviceRole: serviceRole,
		client:      client,
	}
}

func (r *recorder) Record(ctx context.Context, rec domain.UsageRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("supabase.Record marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("supabase.Record request: %w", err)
	}
	req.Header.Set("apikey", r.serviceRole)
	req.Header.Set("Authorization", "Bearer "+r.serviceRole)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase.Record: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("supabase.Record: status %d: %s", resp.StatusCode, extract.Truncate(string(msg), 500))
	}
	return nil
}
