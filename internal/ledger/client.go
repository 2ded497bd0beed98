// Package ledger talks to the spreadsheet-backed expense ledger through its
// Apps Script webhook. The webhook owns all ledger state, including running
// totals; this package never computes or caches them locally.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"expensebot/internal/config"
	"expensebot/internal/log"
)

// ConnectivityError means the webhook could not be reached at all
// (timeout, refused connection, DNS failure).
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("ledger %s: request failed: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// HTTPError means the webhook answered with a non-200 status.
type HTTPError struct {
	Op     string
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("ledger %s: http status %d", e.Op, e.Status)
}

// BackendError means the webhook answered 200 but reported an
// application-level failure. Text is the backend's message, verbatim.
type BackendError struct {
	Op   string
	Text string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("ledger %s: %s", e.Op, e.Text)
}

// Client is a narrow HTTP façade over the single webhook endpoint. It holds
// no mutable state; every call builds its own request, so concurrent use
// from multiple event handlers is safe.
type Client struct {
	webAppURL     string
	spreadsheetID string
	httpClient    *http.Client
	logTimeout    time.Duration
	actionTimeout time.Duration
	probeTimeout  time.Duration
	logger        *log.Logger
}

// NewClient builds a webhook client from the process configuration.
func NewClient(cfg config.Config, logger *log.Logger) (*Client, error) {
	if cfg.WebAppURL == "" {
		return nil, errors.New("webhook URL is required")
	}
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet ID is required")
	}
	return &Client{
		webAppURL:     cfg.WebAppURL,
		spreadsheetID: cfg.SpreadsheetID,
		httpClient:    &http.Client{},
		logTimeout:    cfg.LogTimeout,
		actionTimeout: cfg.ActionTimeout,
		probeTimeout:  cfg.ProbeTimeout,
		logger:        logger.WithComponent(log.ComponentLedger),
	}, nil
}

// SpreadsheetID returns the identifier of the backing spreadsheet, used for
// building user-facing sheet links.
func (c *Client) SpreadsheetID() string { return c.spreadsheetID }

// LogResult is the backend's answer to a logged expense.
type LogResult struct {
	Message      string
	RunningTotal decimal.Decimal
}

type logResponse struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	RunningTotal decimal.Decimal `json:"runningTotal"`
	Error        string          `json:"error"`
}

// LogExpense appends one expense row. The returned running total is whatever
// the backend computed; append-only bookkeeping lives server-side so
// concurrent loggers cannot race each other here.
func (c *Client) LogExpense(ctx context.Context, amount decimal.Decimal, category string) (LogResult, error) {
	payload := struct {
		Amount   float64 `json:"amount"`
		Category string  `json:"category"`
	}{Amount: amount.InexactFloat64(), Category: category}

	body, err := c.post(ctx, "log_expense", payload, c.logTimeout)
	if err != nil {
		return LogResult{}, err
	}

	var resp logResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return LogResult{}, fmt.Errorf("ledger log_expense: decode response: %w", err)
	}
	if !resp.Success {
		return LogResult{}, &BackendError{Op: "log_expense", Text: backendText(resp.Error, resp.Message)}
	}

	c.logger.InfoContext(ctx, "Expense logged",
		log.FieldAmount, amount.StringFixed(2),
		log.FieldCategory, category,
		log.FieldTotal, resp.RunningTotal.StringFixed(2))

	msg := resp.Message
	if msg == "" {
		msg = "Expense logged successfully"
	}
	return LogResult{Message: msg, RunningTotal: resp.RunningTotal}, nil
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Call invokes a named backend operation with the {action, ...params}
// payload convention and decodes the full response into out (which may be
// nil). A backend-reported failure surfaces the backend's text verbatim.
func (c *Client) Call(ctx context.Context, action string, params map[string]any, out any) error {
	payload := map[string]any{"action": action}
	for k, v := range params {
		payload[k] = v
	}

	body, err := c.post(ctx, action, payload, c.actionTimeout)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("ledger %s: decode response: %w", action, err)
	}
	if !env.Success {
		return &BackendError{Op: action, Text: backendText(env.Error, env.Message)}
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("ledger %s: decode response: %w", action, err)
		}
	}

	c.logger.DebugContext(ctx, "Action completed", log.FieldAction, action)
	return nil
}

// TestConnection probes the webhook with a GET request. Any 200 answer means
// connected.
func (c *Client) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.webAppURL, nil)
	if err != nil {
		return fmt.Errorf("ledger probe: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectivityError{Op: "probe", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &HTTPError{Op: "probe", Status: resp.StatusCode}
	}
	return nil
}

// IsConnected is the liveness gate used before every write or analysis-data
// operation.
func (c *Client) IsConnected(ctx context.Context) bool {
	if err := c.TestConnection(ctx); err != nil {
		c.logger.WarnContext(ctx, "Webhook connection check failed", log.FieldError, err)
		return false
	}
	return true
}

func (c *Client) post(ctx context.Context, op string, payload any, timeout time.Duration) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ledger %s: marshal payload: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webAppURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ledger %s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectivityError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectivityError{Op: op, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "Webhook returned error status",
			log.FieldAction, op, log.FieldStatus, resp.StatusCode)
		return nil, &HTTPError{Op: op, Status: resp.StatusCode}
	}
	return body, nil
}

func backendText(errText, message string) string {
	if errText != "" {
		return errText
	}
	if message != "" {
		return message
	}
	return "unknown error"
}
