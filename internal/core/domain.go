package core

import (
	"errors"
	"fmt"
	"math"
)

// Period selects the window an analysis covers.
type Period string

const (
	Monthly Period = "monthly"
	Annual  Period = "annual"
)

// Valid reports whether p is a known analysis period.
func (p Period) Valid() bool {
	return p == Monthly || p == Annual
}

// ExpenseCategory is a categorized expense group built during analysis.
// It lives only for the duration of one analysis run.
type ExpenseCategory struct {
	Name         string
	TotalAmount  float64
	Count        int
	Descriptions []string
	Patterns     []string
}

// AnalysisResult is the complete outcome of one staged analysis run. It is
// rendered to text immediately after construction and then discarded.
type AnalysisResult struct {
	Period            Period
	TotalExpenses     float64
	TotalTransactions int
	Categories        []ExpenseCategory
	Insights          []string
	Recommendations   []string
	AnalysisDate      string
}

var ErrTotalsMismatch = errors.New("analysis totals do not match category sums")

// Validate checks the result invariant: the grand totals must equal the sums
// over the categories.
func (r AnalysisResult) Validate() error {
	var sumAmount float64
	var sumCount int
	for _, c := range r.Categories {
		sumAmount += c.TotalAmount
		sumCount += c.Count
	}
	if math.Abs(sumAmount-r.TotalExpenses) > 0.005 {
		return fmt.Errorf("%w: total %.2f vs sum %.2f", ErrTotalsMismatch, r.TotalExpenses, sumAmount)
	}
	if sumCount != r.TotalTransactions {
		return fmt.Errorf("%w: transactions %d vs sum %d", ErrTotalsMismatch, r.TotalTransactions, sumCount)
	}
	return nil
}
