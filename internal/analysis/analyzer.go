// Package analysis runs a three-stage language-model pipeline over ledger
// data: categorize expenses, extract per-category patterns, then generate
// insights and recommendations. Each stage's structured output seeds the
// next stage's prompt.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expensebot/internal/core"
	"expensebot/internal/ledger"
	"expensebot/internal/log"
)

// Chatter is the one model capability the pipeline needs.
type Chatter interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// DataSource provides the raw expense rows an analysis runs over.
type DataSource interface {
	ExpensesForAnalysis(ctx context.Context, period core.Period) ([]ledger.ExpenseRow, error)
}

// Analyzer holds the pipeline's collaborators. It keeps no state between
// runs; every Analyze call is independent.
type Analyzer struct {
	chat   Chatter
	data   DataSource
	logger *log.Logger
	now    func() time.Time
}

// New builds an analyzer over a model client and a ledger data source.
func New(chat Chatter, data DataSource, logger *log.Logger) *Analyzer {
	return &Analyzer{
		chat:   chat,
		data:   data,
		logger: logger.WithComponent(log.ComponentAnalysis),
		now:    time.Now,
	}
}

// Analyze runs the full pipeline for one period. On failure the returned
// error is a *StageError naming the stage that broke; no partial result is
// ever returned.
func (a *Analyzer) Analyze(ctx context.Context, period core.Period) (core.AnalysisResult, error) {
	if !period.Valid() {
		return core.AnalysisResult{}, &StageError{
			Stage: StageExtractData,
			Err:   fmt.Errorf("unknown period %q", period),
		}
	}

	a.logger.InfoContext(ctx, "Starting expense analysis", log.FieldPeriod, string(period))

	rows, err := a.data.ExpensesForAnalysis(ctx, period)
	if err != nil {
		return core.AnalysisResult{}, &StageError{Stage: StageExtractData, Err: err}
	}
	if len(rows) == 0 {
		a.logger.WarnContext(ctx, "No expense data found, using sample data", log.FieldPeriod, string(period))
		rows = sampleRows(period)
	}

	a.logger.InfoContext(ctx, "Stage 1: categorizing expenses", "rows", len(rows))
	categories, err := a.categorize(ctx, rows)
	if err != nil {
		return core.AnalysisResult{}, &StageError{Stage: StageCategorize, Err: err}
	}

	a.logger.InfoContext(ctx, "Stage 2: analyzing patterns", "categories", len(categories))
	categories, err = a.analyzePatterns(ctx, categories)
	if err != nil {
		return core.AnalysisResult{}, &StageError{Stage: StagePatterns, Err: err}
	}

	var totalAmount float64
	var totalCount int
	for _, c := range categories {
		totalAmount += c.TotalAmount
		totalCount += c.Count
	}

	a.logger.InfoContext(ctx, "Stage 3: generating insights")
	insights, recommendations, err := a.generateInsights(ctx, categories, totalAmount, totalCount)
	if err != nil {
		return core.AnalysisResult{}, &StageError{Stage: StageInsights, Err: err}
	}

	result := core.AnalysisResult{
		Period:            period,
		TotalExpenses:     totalAmount,
		TotalTransactions: totalCount,
		Categories:        categories,
		Insights:          insights,
		Recommendations:   recommendations,
		AnalysisDate:      a.now().Format("2006-01-02 15:04:05"),
	}
	// Totals are computed from the categories, so this holds by
	// construction; check anyway to catch future regressions.
	if err := result.Validate(); err != nil {
		return core.AnalysisResult{}, &StageError{Stage: StageInsights, Err: err}
	}

	a.logger.InfoContext(ctx, "Completed analysis",
		log.FieldPeriod, string(period),
		"categories", len(result.Categories),
		"insights", len(result.Insights))
	return result, nil
}

// categorize is stage 1. Its outcome gates the whole pipeline: a model call
// or parse failure here fails the run.
func (a *Analyzer) categorize(ctx context.Context, rows []ledger.ExpenseRow) ([]core.ExpenseCategory, error) {
	reply, err := a.chat.Chat(ctx, categorizationPrompt(rows))
	if err != nil {
		return nil, fmt.Errorf("model call: %w", err)
	}

	var payload categoriesPayload
	if err := decodeEmbedded(reply, &payload); err != nil {
		return nil, err
	}
	if payload.Categories == nil {
		return nil, &ResponseError{Raw: reply, Err: ErrMalformedResponse}
	}

	categories := make([]core.ExpenseCategory, 0, len(*payload.Categories))
	for _, c := range *payload.Categories {
		name := c.Name
		if name == "" {
			name = "Unknown"
		}
		descriptions := c.Descriptions
		if descriptions == nil {
			descriptions = []string{}
		}
		patterns := c.Patterns
		if patterns == nil {
			patterns = []string{}
		}
		categories = append(categories, core.ExpenseCategory{
			Name:         name,
			TotalAmount:  float64(c.TotalAmount),
			Count:        int(c.Count),
			Descriptions: descriptions,
			Patterns:     patterns,
		})
	}
	return categories, nil
}

// analyzePatterns is stage 2. Single-transaction categories are skipped (the
// model has nothing to find in one data point). A parse failure for one
// category empties that category's patterns and moves on; only a failed
// model call aborts the stage.
func (a *Analyzer) analyzePatterns(ctx context.Context, categories []core.ExpenseCategory) ([]core.ExpenseCategory, error) {
	for i := range categories {
		if categories[i].Count <= 1 {
			continue
		}

		reply, err := a.chat.Chat(ctx, patternPrompt(categories[i]))
		if err != nil {
			return nil, fmt.Errorf("model call for category %q: %w", categories[i].Name, err)
		}

		var payload patternsPayload
		if err := decodeEmbedded(reply, &payload); err != nil {
			a.logger.WarnContext(ctx, "Pattern response unparseable, keeping category without patterns",
				log.FieldCategory, categories[i].Name, log.FieldError, err)
			categories[i].Patterns = []string{}
			continue
		}
		patterns := payload.Patterns
		if patterns == nil {
			patterns = []string{}
		}
		categories[i].Patterns = patterns
	}
	return categories, nil
}

// generateInsights is stage 3. A parse failure degrades to zero insights and
// recommendations; the pipeline still completes.
func (a *Analyzer) generateInsights(ctx context.Context, categories []core.ExpenseCategory, totalAmount float64, totalCount int) ([]string, []string, error) {
	reply, err := a.chat.Chat(ctx, insightsPrompt(categories, totalAmount, totalCount))
	if err != nil {
		return nil, nil, fmt.Errorf("model call: %w", err)
	}

	var payload insightsPayload
	if err := decodeEmbedded(reply, &payload); err != nil {
		a.logger.WarnContext(ctx, "Insights response unparseable, reporting none", log.FieldError, err)
		return []string{}, []string{}, nil
	}
	insights := payload.Insights
	if insights == nil {
		insights = []string{}
	}
	recommendations := payload.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}
	return insights, recommendations, nil
}

// FailedStage extracts the stage name from an Analyze error, or "" when the
// error is not a pipeline failure.
func FailedStage(err error) Stage {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}

// sampleRows stands in when the ledger has no data for a period, so a fresh
// install can still demonstrate the pipeline.
func sampleRows(period core.Period) []ledger.ExpenseRow {
	if period == core.Monthly {
		return []ledger.ExpenseRow{
			{Date: "2024-01-15", Amount: 12.50, Description: "matcha latte", Category: "Food"},
			{Date: "2024-01-16", Amount: 8.75, Description: "coffee", Category: "Food"},
			{Date: "2024-01-17", Amount: 15.00, Description: "matcha latte", Category: "Food"},
			{Date: "2024-01-18", Amount: 22.50, Description: "lunch", Category: "Food"},
			{Date: "2024-01-19", Amount: 9.99, Description: "matcha latte", Category: "Food"},
		}
	}
	return []ledger.ExpenseRow{
		{Date: "2024-01-15", Amount: 12.50, Description: "matcha latte", Category: "Food"},
		{Date: "2024-02-20", Amount: 45.00, Description: "gas", Category: "Transportation"},
		{Date: "2024-03-10", Amount: 8.75, Description: "coffee", Category: "Food"},
		{Date: "2024-04-05", Amount: 120.00, Description: "shopping", Category: "Shopping"},
		{Date: "2024-05-12", Amount: 15.00, Description: "matcha latte", Category: "Food"},
	}
}
