package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"expensebot/internal/config"
	"expensebot/internal/log"
)

func testClient(t *testing.T, url string) *Client {
	t.Helper()
	cfg := config.Config{
		WebAppURL:     url,
		SpreadsheetID: "test-sheet",
		LogTimeout:    2 * time.Second,
		ActionTimeout: 2 * time.Second,
		ProbeTimeout:  time.Second,
		AmountCeiling: decimal.NewFromInt(1_000_000),
	}
	c, err := NewClient(cfg, log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClient_RequiresConfig(t *testing.T) {
	logger := log.New(log.DefaultConfig())
	if _, err := NewClient(config.Config{SpreadsheetID: "x"}, logger); err == nil {
		t.Error("expected error for missing webhook URL")
	}
	if _, err := NewClient(config.Config{WebAppURL: "http://x"}, logger); err == nil {
		t.Error("expected error for missing spreadsheet ID")
	}
}

func TestClient_LogExpense(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Amount   float64 `json:"amount"`
			Category string  `json:"category"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload.Amount != 6.6 || payload.Category != "food" {
			t.Errorf("unexpected payload: %+v", payload)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":      true,
			"message":      "Expense logged",
			"runningTotal": 42.6,
		})
	}))
	defer srv.Close()

	got, err := testClient(t, srv.URL).LogExpense(context.Background(), decimal.RequireFromString("6.60"), "food")
	if err != nil {
		t.Fatalf("LogExpense: %v", err)
	}
	if !got.RunningTotal.Equal(decimal.RequireFromString("42.6")) {
		t.Errorf("running total = %s, want 42.6", got.RunningTotal)
	}
	if got.Message != "Expense logged" {
		t.Errorf("message = %q", got.Message)
	}
}

func TestClient_LogExpense_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "Sheet row limit reached",
		})
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).LogExpense(context.Background(), decimal.NewFromInt(5), "food")
	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if backendErr.Text != "Sheet row limit reached" {
		t.Errorf("backend text not surfaced verbatim: %q", backendErr.Text)
	}
}

func TestClient_LogExpense_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).LogExpense(context.Background(), decimal.NewFromInt(5), "food")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Status != http.StatusInternalServerError {
		t.Errorf("status = %d", httpErr.Status)
	}
}

func TestClient_LogExpense_ConnectivityError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections from now on

	_, err := testClient(t, srv.URL).LogExpense(context.Background(), decimal.NewFromInt(5), "food")
	var connErr *ConnectivityError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectivityError, got %v", err)
	}
}

func TestClient_Call_UnknownAction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["action"] != "frobnicate" {
			t.Errorf("action = %v", payload["action"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "Unknown action: frobnicate",
		})
	}))
	defer srv.Close()

	err := testClient(t, srv.URL).Call(context.Background(), "frobnicate", map[string]any{"x": 1}, nil)
	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if backendErr.Text != "Unknown action: frobnicate" {
		t.Errorf("backend message not surfaced verbatim: %q", backendErr.Text)
	}
}

func TestClient_TestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("probe must be GET, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if err := c.TestConnection(context.Background()); err != nil {
		t.Errorf("TestConnection: %v", err)
	}
	if !c.IsConnected(context.Background()) {
		t.Error("IsConnected should be true")
	}
}

func TestClient_TestConnection_Down(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	var httpErr *HTTPError
	if err := c.TestConnection(context.Background()); !errors.As(err, &httpErr) {
		t.Errorf("expected HTTPError from probe, got %v", err)
	}
	if c.IsConnected(context.Background()) {
		t.Error("IsConnected should be false on non-200 probe")
	}
}
