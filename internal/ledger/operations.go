package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"expensebot/internal/core"
	"expensebot/internal/log"
)

// Operations translates parsed input and analysis results into webhook calls
// and back into user-facing strings. It validates inputs a second time
// before every write; the parser already checked them, but the facade does
// not trust its callers.
type Operations struct {
	client  *Client
	ceiling decimal.Decimal
	logger  *log.Logger
}

// NewOperations builds the facade over an existing webhook client.
func NewOperations(client *Client, ceiling decimal.Decimal, logger *log.Logger) *Operations {
	return &Operations{
		client:  client,
		ceiling: ceiling,
		logger:  logger.WithComponent(log.ComponentLedger),
	}
}

// LogExpense validates and logs one expense, returning the user-facing
// confirmation and the backend's running total.
func (o *Operations) LogExpense(ctx context.Context, amount decimal.Decimal, category string) (string, decimal.Decimal, error) {
	if err := core.ValidateAmount(amount, o.ceiling); err != nil {
		return "", decimal.Zero, err
	}
	if err := core.ValidateCategory(category); err != nil {
		return "", decimal.Zero, err
	}

	result, err := o.client.LogExpense(ctx, amount, category)
	if err != nil {
		o.logger.ErrorContext(ctx, "Failed to log expense",
			log.FieldAmount, amount.StringFixed(2),
			log.FieldCategory, category,
			log.FieldError, err)
		return "", decimal.Zero, err
	}

	msg := fmt.Sprintf("✅ Logged $%s for %s. Running total: $%s",
		amount.StringFixed(2), category, result.RunningTotal.StringFixed(2))
	return msg, result.RunningTotal, nil
}

// CurrentTotal points the user at the sheet's running-total column. The
// backend maintains the cumulative total on every row; there is no separate
// query for it.
func (o *Operations) CurrentTotal() string {
	return "💰 Check your Google Sheet for the current running total. Each expense row shows the cumulative total."
}

type statsResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Stats   map[string]any `json:"stats"`
}

// MonthlyStats returns statistics text for the requested month. "current"
// and "annual" ask the backend; any other month argument (including none)
// yields guidance pointing at the sheet itself.
func (o *Operations) MonthlyStats(ctx context.Context, month string) (string, error) {
	month = strings.TrimSpace(month)

	if month != "current" && month != "annual" {
		return sheetStatsGuidance(month), nil
	}

	var resp statsResponse
	if err := o.client.Call(ctx, "getMonthlyStats", map[string]any{"month": month}, &resp); err != nil {
		return "", err
	}
	if resp.Message == "" {
		return "Statistics retrieved successfully", nil
	}
	return resp.Message, nil
}

// RecentExpenses describes where the most recent entries live. The limit is
// clamped to 1..20 with a default of 5.
func (o *Operations) RecentExpenses(limit int) string {
	limit = ClampRecentLimit(limit)

	var b strings.Builder
	b.WriteString("📝 *Recent Expenses*\n\n")
	fmt.Fprintf(&b, "📋 Check your Google Sheet for the last %d expenses.\n", limit)
	b.WriteString("The most recent expenses appear at the bottom of the sheet.\n\n")
	b.WriteString("🔗 Access your sheet:\n")
	b.WriteString(o.SheetURL())
	return b.String()
}

// ClampRecentLimit normalizes a recent-expenses count into the allowed
// range; non-positive and oversized values snap to the bounds.
func ClampRecentLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > 20 {
		return 20
	}
	return limit
}

// DefaultRecentLimit is used when the user gives no count.
const DefaultRecentLimit = 5

// ExpenseRow is one raw ledger entry as exported for analysis.
type ExpenseRow struct {
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
}

type analysisDataResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    []ExpenseRow `json:"data"`
}

// ExpensesForAnalysis exports the raw rows the staged analyzer works on.
func (o *Operations) ExpensesForAnalysis(ctx context.Context, period core.Period) ([]ExpenseRow, error) {
	var resp analysisDataResponse
	if err := o.client.Call(ctx, "getExpenseDataForAnalysis", map[string]any{"period": string(period)}, &resp); err != nil {
		return nil, err
	}
	o.logger.InfoContext(ctx, "Retrieved expense data for analysis",
		log.FieldPeriod, string(period), "rows", len(resp.Data))
	return resp.Data, nil
}

// AnalysisSummary is the row logged back to the ledger after a completed
// analysis run.
type AnalysisSummary struct {
	Date                 string  `json:"date"`
	Time                 string  `json:"time"`
	Period               string  `json:"period"`
	TotalExpenses        float64 `json:"total_expenses"`
	TotalTransactions    int     `json:"total_transactions"`
	CategoriesCount      int     `json:"categories_count"`
	InsightsCount        int     `json:"insights_count"`
	RecommendationsCount int     `json:"recommendations_count"`
	AnalysisDate         string  `json:"analysis_date"`
}

// SummarizeAnalysis condenses a finished analysis into the row shape the
// backend expects.
func SummarizeAnalysis(result core.AnalysisResult, now time.Time) AnalysisSummary {
	return AnalysisSummary{
		Date:                 now.Format("2006-01-02"),
		Time:                 now.Format("15:04:05"),
		Period:               string(result.Period),
		TotalExpenses:        result.TotalExpenses,
		TotalTransactions:    result.TotalTransactions,
		CategoriesCount:      len(result.Categories),
		InsightsCount:        len(result.Insights),
		RecommendationsCount: len(result.Recommendations),
		AnalysisDate:         result.AnalysisDate,
	}
}

// LogAnalysis records an analysis summary row on the backend.
func (o *Operations) LogAnalysis(ctx context.Context, summary AnalysisSummary) error {
	return o.client.Call(ctx, "logAIAnalysis", map[string]any{"analysisData": summary}, nil)
}

// IsConnected gates every ledger-touching operation; callers must
// short-circuit to a fixed service-unavailable message when it fails.
func (o *Operations) IsConnected(ctx context.Context) bool {
	return o.client.IsConnected(ctx)
}

// SheetURL returns the link to the backing spreadsheet.
func (o *Operations) SheetURL() string {
	return "https://docs.google.com/spreadsheets/d/" + o.client.SpreadsheetID() + "/edit"
}

func sheetStatsGuidance(month string) string {
	var b strings.Builder
	if month != "" {
		fmt.Fprintf(&b, "📊 *%s Statistics*\n\n", month)
		b.WriteString("📋 View your Google Sheet for detailed statistics:\n")
		b.WriteString("• Total expenses and amounts\n")
		b.WriteString("• Category breakdowns\n")
		b.WriteString("• Monthly trends\n")
		b.WriteString("• Running totals")
	} else {
		b.WriteString("📊 *All Time Statistics*\n\n")
		b.WriteString("📋 View your Google Sheet for complete statistics:\n")
		b.WriteString("• All expenses with dates and times\n")
		b.WriteString("• Running totals for each entry\n")
		b.WriteString("• Category breakdowns\n")
		b.WriteString("• Spending patterns over time")
	}
	return b.String()
}
