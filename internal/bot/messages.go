package bot

import (
	"errors"
	"strings"

	"expensebot/internal/core"
	"expensebot/internal/ledger"
)

const welcomeMessage = `🤖 Welcome to the Expense Logging Bot!

📝 *How to use:*
Simply send me a message in this format:
• ` + "`6.60 food`" + `
• ` + "`9.70 coffee at starbucks`" + `
• ` + "`15.30 groceries`" + `
• ` + "`125.00 gas`" + `

💡 *Available commands:*
/start - Show this message
/help - Show usage examples
/total - Show total expenses
/stats - Show spending statistics
/recent - Show recent expenses
/monthly_report - Monthly report with options
/annual_report - Annual report with options
/analyze_monthly - AI-powered monthly analysis
/analyze_annual - AI-powered annual analysis

💰 I'll automatically log your expenses to Google Sheets and track your total spending!`

const helpMessage = `📚 *Usage Examples:*

*Basic format:* ` + "`amount category`" + `
• ` + "`6.60 food`" + `
• ` + "`9.70 coffee`" + `
• ` + "`15.30 groceries`" + `

*With description:* ` + "`amount description`" + `
• ` + "`9.70 coffee at starbucks`" + `
• ` + "`25.50 lunch with colleagues`" + `

*Commands:*
• /total - Show total expenses
• /stats - Show spending statistics
• ` + "`/stats 2024-08`" + ` - Show stats for a specific month
• /recent - Show recent expenses
• /monthly_report - Monthly report with button options
• /annual_report - Annual report with button options
• /analyze_monthly - AI-powered monthly analysis
• /analyze_annual - AI-powered annual analysis

🤖 *AI Analysis:*
• Staged processing: categorize, find patterns, generate insights
• Runs on a local model via Ollama, your data never leaves your machine
• AI analysis requires Ollama to be running locally

💡 *Tips:*
• Amounts can use dots or commas: 6.60 or 6,60
• Running totals are calculated automatically`

const (
	ledgerUnavailableMessage   = "❌ Error connecting to Google Sheets. Please try again later."
	analyzerUnavailableMessage = "❌ Failed to initialize AI analyzer. Please ensure Ollama is running locally."
	unknownOptionMessage       = "❌ Unknown option selected."

	invalidFormatMessage   = "❌ Invalid format. Please use: `amount category` (e.g., `6.60 food`)"
	invalidAmountMessage   = "❌ Invalid amount. Please enter a valid number."
	nonPositiveMessage     = "❌ Amount must be greater than 0."
	amountTooLargeMessage  = "❌ Amount seems too high. Please check and try again."
	missingCategoryMessage = "❌ Please provide a description for your expense."
	categoryTooLongMessage = "❌ Description is too long. Please keep it under 100 characters."
	unsafeCategoryMessage  = "❌ Description contains invalid content."
)

// parseErrorMessage maps a parser error to the text shown to the user.
func parseErrorMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyMessage), errors.Is(err, core.ErrInvalidFormat):
		return invalidFormatMessage
	case errors.Is(err, core.ErrInvalidAmount):
		return invalidAmountMessage
	case errors.Is(err, core.ErrNonPositiveAmount):
		return nonPositiveMessage
	case errors.Is(err, core.ErrAmountTooLarge):
		return amountTooLargeMessage
	case errors.Is(err, core.ErrMissingCategory):
		return missingCategoryMessage
	case errors.Is(err, core.ErrCategoryTooLong):
		return categoryTooLongMessage
	case errors.Is(err, core.ErrUnsafeCategory):
		return unsafeCategoryMessage
	default:
		return invalidFormatMessage
	}
}

// logFailureMessage maps a failed ledger write to user-facing text. Backend
// text is surfaced as-is; transport failures get the generic connection
// message.
func logFailureMessage(err error) string {
	var backendErr *ledger.BackendError
	if errors.As(err, &backendErr) {
		return "❌ " + backendErr.Text
	}
	for _, sentinel := range []error{
		core.ErrInvalidAmount, core.ErrNonPositiveAmount, core.ErrAmountTooLarge,
		core.ErrMissingCategory, core.ErrCategoryTooLong,
	} {
		if errors.Is(err, sentinel) {
			return parseErrorMessage(err)
		}
	}
	return ledgerUnavailableMessage
}

func categorySuggestions() string {
	return "💡 *Suggested categories:* " + strings.Join(core.SuggestedCategories(), ", ")
}

func analysisIntro(title string) string {
	return "🔍 *Starting " + title + " AI Analysis*\n\n" +
		"This will take a few moments as the AI processes your data in stages:\n" +
		"1️⃣ Categorizing expenses\n" +
		"2️⃣ Analyzing patterns\n" +
		"3️⃣ Generating insights\n\n" +
		"⏳ Please wait..."
}

func analysisFailedMessage(err error) string {
	return "❌ Error during AI analysis: " + err.Error() + "\n\nPlease ensure Ollama is running and try again."
}

func reportOptionsMessage(title string) string {
	return "📅 *" + title + " Report Options*\n\nChoose how you'd like to view your " +
		strings.ToLower(title) + " expenses:"
}
