package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const logActionPath = "/api/v1/log_action"

// Receipt is the ledger's proof that an event was durably recorded.
type Receipt struct {
	SealID string `json:"seal_id"`
	TxID   string `json:"tx_id"`
	Status string `json:"status"`
}

// Submitter delivers audit events to the ledger. *Client submits
// synchronously; *AsyncSubmitter enqueues for detached delivery.
type Submitter interface {
	Submit(ctx context.Context, event Event) (*Receipt, error)
}

// SubmitObserver receives the outcome of submission attempts and drops.
type SubmitObserver interface {
	OnSubmit(ctx context.Context, event Event, receipt *Receipt, err error)
	OnDrop(ctx context.Context, event Event, reason string)
}

// Client submits audit events over HTTP. One pooled transport is reused
// across calls; safe for concurrent use.
type Client struct {
	config   Config
	client   *http.Client
	observer SubmitObserver
}

// NewClient creates a ledger client. Missing config values fall back to the
// reference defaults (localhost ledger, default-agent, 30s timeout).
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// WithObserver attaches a submit observer. Must be called before use.
func (c *Client) WithObserver(obs SubmitObserver) *Client {
	c.observer = obs
	return c
}

// AgentID returns the caller-assigned agent identifier.
func (c *Client) AgentID() string {
	return c.config.AgentID
}

// Submit sends a single event to the ledger. Exactly one attempt: no retry,
// no dedup. The event's agent id defaults to the client's when unset.
func (c *Client) Submit(ctx context.Context, event Event) (*Receipt, error) {
	receipt, err := c.submit(ctx, event)
	if c.observer != nil {
		c.observer.OnSubmit(ctx, event, receipt, err)
	}
	return receipt, err
}

func (c *Client) submit(ctx context.Context, event Event) (*Receipt, error) {
	if event.AgentID == "" {
		event.AgentID = c.config.AgentID
	}
	event.Payload = TruncatePayload(event.Payload)

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode audit event: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + logActionPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build ledger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "submit", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &SovereigntyRejectedError{Body: strings.TrimSpace(string(body))}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &LedgerError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, &LedgerError{StatusCode: resp.StatusCode, Body: fmt.Sprintf("decode receipt: %v", err)}
	}
	return &receipt, nil
}

// Close releases idle connections. Safe to call even if no requests were
// ever sent, and safe to call more than once.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
