package core

import (
	"errors"
	"testing"
)

func TestPeriodValid(t *testing.T) {
	if !Monthly.Valid() || !Annual.Valid() {
		t.Error("known periods must be valid")
	}
	if Period("weekly").Valid() {
		t.Error("unknown period must be invalid")
	}
}

func TestAnalysisResult_Validate(t *testing.T) {
	categories := []ExpenseCategory{
		{Name: "Food", TotalAmount: 36.25, Count: 3},
		{Name: "Transportation", TotalAmount: 45.00, Count: 1},
	}

	ok := AnalysisResult{
		Period:            Monthly,
		TotalExpenses:     81.25,
		TotalTransactions: 4,
		Categories:        categories,
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid result rejected: %v", err)
	}

	badAmount := ok
	badAmount.TotalExpenses = 99.99
	if err := badAmount.Validate(); !errors.Is(err, ErrTotalsMismatch) {
		t.Errorf("amount mismatch: got %v", err)
	}

	badCount := ok
	badCount.TotalTransactions = 7
	if err := badCount.Validate(); !errors.Is(err, ErrTotalsMismatch) {
		t.Errorf("count mismatch: got %v", err)
	}
}

func TestAnalysisResult_ValidateEmpty(t *testing.T) {
	empty := AnalysisResult{Period: Annual}
	if err := empty.Validate(); err != nil {
		t.Fatalf("empty result should satisfy the invariant: %v", err)
	}
}
