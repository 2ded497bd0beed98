package core

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Typed parse failures, in the order the checks run. The first failing check
// wins; callers map each to user-facing guidance.
var (
	ErrEmptyMessage      = errors.New("message is empty")
	ErrInvalidFormat     = errors.New("invalid format, expected: amount category (e.g. 6.60 food)")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNonPositiveAmount = errors.New("amount must be greater than 0")
	ErrAmountTooLarge    = errors.New("amount is too high")
	ErrMissingCategory   = errors.New("missing expense description")
	ErrCategoryTooLong   = errors.New("description too long (max 100 characters)")
	ErrUnsafeCategory    = errors.New("description contains invalid content")
)

const maxCategoryLength = 100

// Matches "6.60 food", "6,60 coffee at starbucks", "125 gas". The comma is a
// decimal separator, never a thousands separator. A leading minus is matched
// so a negative amount fails the positivity check with a precise message
// instead of a generic format error.
var expensePattern = regexp.MustCompile(`^(-?\d+(?:[.,]\d+)?)\s+(.+)$`)

// The category ends up in a spreadsheet cell and in chat replies; markup
// fragments are rejected outright rather than escaped.
var unsafePattern = regexp.MustCompile(`(?i)<script|javascript:|data:|vbscript:|onload=|onerror=|onclick=|<iframe|<object|<embed`)

// ParsedExpense is the successful outcome of parsing one free-text message.
type ParsedExpense struct {
	Amount   decimal.Decimal
	Category string
}

// ParseExpenseMessage extracts an amount and category from a free-text line.
// Pure function: no I/O, same input always yields the same result.
func ParseExpenseMessage(text string, ceiling decimal.Decimal) (ParsedExpense, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ParsedExpense{}, ErrEmptyMessage
	}

	m := expensePattern.FindStringSubmatch(text)
	if m == nil {
		return ParsedExpense{}, ErrInvalidFormat
	}

	amountStr := strings.ReplaceAll(m[1], ",", ".")
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return ParsedExpense{}, ErrInvalidAmount
	}

	if !amount.IsPositive() {
		return ParsedExpense{}, ErrNonPositiveAmount
	}
	if amount.GreaterThan(ceiling) {
		return ParsedExpense{}, ErrAmountTooLarge
	}

	category := strings.TrimSpace(SanitizeText(m[2]))
	if category == "" {
		return ParsedExpense{}, ErrMissingCategory
	}
	if len(category) > maxCategoryLength {
		return ParsedExpense{}, ErrCategoryTooLong
	}
	if unsafePattern.MatchString(category) {
		return ParsedExpense{}, ErrUnsafeCategory
	}

	return ParsedExpense{Amount: amount, Category: category}, nil
}

// ValidateAmount re-checks an already parsed amount. The ledger facade runs
// this again before every write.
func ValidateAmount(amount, ceiling decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if amount.GreaterThan(ceiling) {
		return ErrAmountTooLarge
	}
	if amount.Exponent() < -2 {
		// More than two fractional digits never comes out of the parser,
		// but programmatic callers could construct one.
		return ErrInvalidAmount
	}
	return nil
}

// ValidateCategory re-checks an already parsed category.
func ValidateCategory(category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return ErrMissingCategory
	}
	if len(category) > maxCategoryLength {
		return ErrCategoryTooLong
	}
	if unsafePattern.MatchString(category) {
		return ErrUnsafeCategory
	}
	return nil
}

// SanitizeText strips control characters from user input, keeping the text
// otherwise untouched (case preserved).
func SanitizeText(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 {
			return -1
		}
		return r
	}, s)
}

// SuggestedCategories returns the category hints shown to users after a
// failed parse or a successful log.
func SuggestedCategories() []string {
	return []string{
		"food", "coffee", "groceries", "gas", "transport", "entertainment",
		"shopping", "utilities", "rent", "insurance", "health", "other",
	}
}
