package analysis

import (
	"fmt"
	"strings"

	"expensebot/internal/core"
)

// FormatReport renders an analysis result as a chat-ready Markdown message.
// Sections backed by an empty list are left out entirely rather than shown
// with a "none" placeholder.
func FormatReport(result core.AnalysisResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🤖 *AI Expense Analysis Report*\n\n")
	fmt.Fprintf(&b, "📅 Period: %s\n", titleCase(string(result.Period)))
	fmt.Fprintf(&b, "💰 Total Expenses: $%.2f\n", result.TotalExpenses)
	fmt.Fprintf(&b, "🧾 Transactions: %d\n", result.TotalTransactions)
	fmt.Fprintf(&b, "🕐 Generated: %s\n", result.AnalysisDate)

	if len(result.Categories) > 0 {
		b.WriteString("\n📊 *Category Breakdown:*\n")
		for _, cat := range result.Categories {
			fmt.Fprintf(&b, "• %s: $%.2f (%d transactions)\n", cat.Name, cat.TotalAmount, cat.Count)
			for _, p := range cat.Patterns {
				fmt.Fprintf(&b, "    ◦ %s\n", p)
			}
		}
	}

	if len(result.Insights) > 0 {
		b.WriteString("\n💡 *Key Insights:*\n")
		for _, insight := range result.Insights {
			fmt.Fprintf(&b, "• %s\n", insight)
		}
	}

	if len(result.Recommendations) > 0 {
		b.WriteString("\n🎯 *Recommendations:*\n")
		for _, rec := range result.Recommendations {
			fmt.Fprintf(&b, "• %s\n", rec)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
