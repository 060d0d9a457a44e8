package opencode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client talks to one external runtime server at BaseURL. It keeps two
// distinct http.Client instances: a short-timeout one for health checks
// and session bookkeeping, and a long-timeout one dedicated to prompt
// dispatch, because a prompt turn can legitimately run for the engine's
// full hard deadline.
type Client struct {
	BaseURL string

	shortClient  *http.Client
	promptClient *http.Client
}

const (
	// HealthCheckTimeout is the flat timeout spec §4.4 step 2 / §5 mandate
	// for external SDK health and session-listing calls.
	HealthCheckTimeout = 5 * time.Second

	// PromptTimeout is the hard deadline spec §4.4 step 5 mandates for a
	// single promptSession dispatch.
	PromptTimeout = 120 * time.Second
)

func New(baseURL string) *Client {
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		shortClient:  &http.Client{Timeout: HealthCheckTimeout},
		promptClient: &http.Client{Timeout: PromptTimeout},
	}
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// Health confirms the server is reachable, the "listSessions style call"
// spec §4.4 step 2 calls for.
func (c *Client) Health(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()
	if _, err := c.ListSessions(ctx); err != nil {
		return HealthStatus{Healthy: false, Error: err.Error()}
	}
	return HealthStatus{Healthy: true}
}

// ListSessions lists every session currently open on this server — used
// both by the invocation engine's health check and by the liveness
// detector's ghost test (spec §4.5: "list sessions on that server").
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/session"), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.shortClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list sessions: unexpected status %d", resp.StatusCode)
	}
	var sessions []Session
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		return nil, fmt.Errorf("list sessions: decode: %w", err)
	}
	return sessions, nil
}

// CreateSession allocates a fresh session on the external runtime. The
// invocation engine must call this for a *dedicated invocation session*,
// never reusing the agent's interactive TUI session (spec §4.4 step 3 /
// §9 "Dedicated invocation sessions").
func (c *Client) CreateSession(ctx context.Context, directory string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	body, _ := json.Marshal(map[string]string{"directory": directory})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/session"), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.shortClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("create session: unexpected status %d", resp.StatusCode)
	}
	var sess Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, fmt.Errorf("create session: decode: %w", err)
	}
	return &sess, nil
}

// PromptSession dispatches a prompt to an existing session, with the
// PromptTimeout hard deadline spec §4.4 step 5 mandates independent of
// the caller's own deadline.
func (c *Client) PromptSession(ctx context.Context, sessionID, prompt string) (*PromptResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, PromptTimeout)
	defer cancel()

	body, _ := json.Marshal(map[string]string{"prompt": prompt})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/session/"+sessionID+"/prompt"), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.promptClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prompt session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("prompt session: unexpected status %d", resp.StatusCode)
	}
	var out PromptResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("prompt session: decode: %w", err)
	}
	out.SessionID = sessionID
	return &out, nil
}

// ExtractText concatenates non-ignored text parts in order, trimming
// outer whitespace, per spec §4.4 step 6.
func ExtractText(resp *PromptResponse) string {
	var b strings.Builder
	for _, p := range resp.Parts {
		if p.Kind != PartKindText || p.Ignored {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}
