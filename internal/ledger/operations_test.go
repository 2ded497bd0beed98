package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"expensebot/internal/config"
	"expensebot/internal/core"
	"expensebot/internal/log"
)

func testOperations(t *testing.T, url string) *Operations {
	t.Helper()
	logger := log.New(log.DefaultConfig())
	cfg := config.Config{
		WebAppURL:     url,
		SpreadsheetID: "test-sheet",
		LogTimeout:    2 * time.Second,
		ActionTimeout: 2 * time.Second,
		ProbeTimeout:  time.Second,
	}
	client, err := NewClient(cfg, logger)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewOperations(client, decimal.NewFromInt(1_000_000), logger)
}

// mockLedger emulates the backend's append-only running-total bookkeeping:
// every logged entry's total is the previous total plus its amount.
func mockLedger(t *testing.T) (*httptest.Server, *decimal.Decimal) {
	t.Helper()
	total := decimal.Zero
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Amount float64 `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode: %v", err)
		}
		total = total.Add(decimal.NewFromFloat(payload.Amount))
		f, _ := total.Float64()
		json.NewEncoder(w).Encode(map[string]any{
			"success":      true,
			"message":      "Expense logged",
			"runningTotal": f,
		})
	}))
	return srv, &total
}

func TestOperations_LogExpense_RunningTotalRoundTrip(t *testing.T) {
	srv, _ := mockLedger(t)
	defer srv.Close()
	ops := testOperations(t, srv.URL)
	ctx := context.Background()

	amounts := []string{"6.60", "9.70", "15.30"}
	previous := decimal.Zero
	for _, a := range amounts {
		amount := decimal.RequireFromString(a)
		msg, total, err := ops.LogExpense(ctx, amount, "food")
		if err != nil {
			t.Fatalf("LogExpense(%s): %v", a, err)
		}
		if !total.Sub(previous).Equal(amount) {
			t.Errorf("running total increased by %s, want %s", total.Sub(previous), amount)
		}
		if !strings.Contains(msg, "$"+amount.StringFixed(2)) {
			t.Errorf("message %q missing amount", msg)
		}
		if !strings.Contains(msg, "Running total: $"+total.StringFixed(2)) {
			t.Errorf("message %q missing running total", msg)
		}
		previous = total
	}
}

func TestOperations_LogExpense_DefensiveValidation(t *testing.T) {
	// No server needed: validation must fail before any network call.
	ops := testOperations(t, "http://127.0.0.1:0")
	ctx := context.Background()

	if _, _, err := ops.LogExpense(ctx, decimal.NewFromInt(-5), "food"); !errors.Is(err, core.ErrNonPositiveAmount) {
		t.Errorf("negative amount: got %v", err)
	}
	if _, _, err := ops.LogExpense(ctx, decimal.NewFromInt(5), "  "); !errors.Is(err, core.ErrMissingCategory) {
		t.Errorf("blank category: got %v", err)
	}
	if _, _, err := ops.LogExpense(ctx, decimal.RequireFromString("1000000.01"), "rent"); !errors.Is(err, core.ErrAmountTooLarge) {
		t.Errorf("over ceiling: got %v", err)
	}
}

func TestOperations_MonthlyStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["action"] != "getMonthlyStats" {
			t.Errorf("action = %v", payload["action"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"message": "September: $120.50 across 14 expenses",
			"stats":   map[string]any{"total": 120.5},
		})
	}))
	defer srv.Close()
	ops := testOperations(t, srv.URL)

	msg, err := ops.MonthlyStats(context.Background(), "current")
	if err != nil {
		t.Fatalf("MonthlyStats: %v", err)
	}
	if msg != "September: $120.50 across 14 expenses" {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestOperations_MonthlyStats_SpecificMonthSkipsBackend(t *testing.T) {
	// A specific month never reaches the webhook; guidance is produced
	// locally, so a dead endpoint must not matter.
	ops := testOperations(t, "http://127.0.0.1:0")

	msg, err := ops.MonthlyStats(context.Background(), "2024-08")
	if err != nil {
		t.Fatalf("MonthlyStats: %v", err)
	}
	if !strings.Contains(msg, "2024-08") {
		t.Errorf("guidance should name the month: %q", msg)
	}
}

func TestOperations_ExpensesForAnalysis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["action"] != "getExpenseDataForAnalysis" || payload["period"] != "monthly" {
			t.Errorf("unexpected payload: %v", payload)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"date": "2024-01-15", "amount": 12.5, "description": "matcha latte", "category": "Food"},
				{"date": "2024-01-16", "amount": 8.75, "description": "coffee", "category": "Food"},
			},
		})
	}))
	defer srv.Close()
	ops := testOperations(t, srv.URL)

	rows, err := ops.ExpensesForAnalysis(context.Background(), core.Monthly)
	if err != nil {
		t.Fatalf("ExpensesForAnalysis: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Description != "matcha latte" || rows[0].Amount != 12.5 {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
}

func TestOperations_LogAnalysis(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "logged"})
	}))
	defer srv.Close()
	ops := testOperations(t, srv.URL)

	summary := AnalysisSummary{
		Date:              "2024-01-20",
		Time:              "10:30:00",
		Period:            "monthly",
		TotalExpenses:     81.25,
		TotalTransactions: 4,
		CategoriesCount:   2,
	}
	if err := ops.LogAnalysis(context.Background(), summary); err != nil {
		t.Fatalf("LogAnalysis: %v", err)
	}
	if received["action"] != "logAIAnalysis" {
		t.Errorf("action = %v", received["action"])
	}
	data, ok := received["analysisData"].(map[string]any)
	if !ok {
		t.Fatalf("analysisData missing: %v", received)
	}
	if data["period"] != "monthly" {
		t.Errorf("period = %v", data["period"])
	}
}

func TestClampRecentLimit(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 1}, {-3, 1}, {1, 1}, {5, 5}, {20, 20}, {21, 20}, {100, 20},
	}
	for _, tc := range cases {
		if got := ClampRecentLimit(tc.in); got != tc.want {
			t.Errorf("ClampRecentLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestOperations_RecentExpenses(t *testing.T) {
	ops := testOperations(t, "http://127.0.0.1:0")
	msg := ops.RecentExpenses(7)
	if !strings.Contains(msg, "last 7 expenses") {
		t.Errorf("message missing limit: %q", msg)
	}
	if !strings.Contains(msg, "docs.google.com/spreadsheets/d/test-sheet") {
		t.Errorf("message missing sheet link: %q", msg)
	}
}

func TestSummarizeAnalysis(t *testing.T) {
	result := core.AnalysisResult{
		Period:            core.Annual,
		TotalExpenses:     81.25,
		TotalTransactions: 4,
		Categories:        []core.ExpenseCategory{{Name: "Food"}, {Name: "Transport"}},
		Insights:          []string{"a", "b", "c"},
		Recommendations:   []string{"d"},
		AnalysisDate:      "2024-06-01 12:00:00",
	}
	now := time.Date(2024, 6, 1, 12, 34, 56, 0, time.UTC)

	s := SummarizeAnalysis(result, now)

	if s.Date != "2024-06-01" || s.Time != "12:34:56" {
		t.Errorf("timestamp = %s %s", s.Date, s.Time)
	}
	if s.Period != "annual" || s.TotalExpenses != 81.25 || s.TotalTransactions != 4 {
		t.Errorf("summary = %+v", s)
	}
	if s.CategoriesCount != 2 || s.InsightsCount != 3 || s.RecommendationsCount != 1 {
		t.Errorf("counts = %d %d %d", s.CategoriesCount, s.InsightsCount, s.RecommendationsCount)
	}
	if s.AnalysisDate != result.AnalysisDate {
		t.Errorf("AnalysisDate = %q", s.AnalysisDate)
	}
}
