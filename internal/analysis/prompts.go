package analysis

import (
	"fmt"
	"strings"

	"expensebot/internal/core"
	"expensebot/internal/ledger"
)

func categorizationPrompt(rows []ledger.ExpenseRow) string {
	var b strings.Builder
	b.WriteString("You are an expert financial analyst. Analyze the following expenses and categorize them into logical groups.\n\n")
	b.WriteString("Expense Data:\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "$%.2f - %s\n", r.Amount, r.Description)
	}
	b.WriteString("\nInstructions:\n")
	b.WriteString("1. Group similar expenses into categories (e.g., Food, Transportation, Entertainment, etc.)\n")
	b.WriteString("2. Look for common themes in descriptions\n")
	b.WriteString("3. Consider amounts when grouping\n")
	b.WriteString("4. Return your response in this exact JSON format:\n\n")
	b.WriteString(`{
    "categories": [
        {
            "name": "Category Name",
            "total_amount": 0.00,
            "count": 0,
            "descriptions": ["desc1", "desc2"],
            "patterns": []
        }
    ]
}`)
	b.WriteString("\n\nBe specific with category names and ensure all expenses are categorized.\n")
	return b.String()
}

func patternPrompt(cat core.ExpenseCategory) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the spending patterns in the %q category.\n\n", cat.Name)
	fmt.Fprintf(&b, "Category: %s\n", cat.Name)
	fmt.Fprintf(&b, "Total Amount: $%.2f\n", cat.TotalAmount)
	fmt.Fprintf(&b, "Transaction Count: %d\n", cat.Count)
	fmt.Fprintf(&b, "Descriptions: %s\n", strings.Join(cat.Descriptions, ", "))
	b.WriteString("\nInstructions:\n")
	b.WriteString("1. Identify recurring patterns (e.g., \"matcha 20 times\")\n")
	b.WriteString("2. Look for frequency patterns\n")
	b.WriteString("3. Identify spending habits\n")
	b.WriteString("4. Return your response in this exact JSON format:\n\n")
	b.WriteString(`{
    "patterns": [
        "Pattern description 1",
        "Pattern description 2"
    ]
}`)
	b.WriteString("\n\nFocus on actionable insights about spending behavior.\n")
	return b.String()
}

func insightsPrompt(categories []core.ExpenseCategory, totalAmount float64, totalCount int) string {
	var b strings.Builder
	b.WriteString("Generate financial insights and recommendations based on this expense analysis.\n\n")
	b.WriteString("Summary:\n")
	fmt.Fprintf(&b, "- Total Expenses: $%.2f\n", totalAmount)
	fmt.Fprintf(&b, "- Total Transactions: %d\n", totalCount)
	fmt.Fprintf(&b, "- Categories: %d\n", len(categories))
	b.WriteString("\nCategory Breakdown:\n")
	for _, cat := range categories {
		fmt.Fprintf(&b, "- %s: $%.2f (%d transactions)\n", cat.Name, cat.TotalAmount, cat.Count)
	}
	b.WriteString("\nInstructions:\n")
	b.WriteString("1. Identify key spending patterns\n")
	b.WriteString("2. Highlight areas of concern\n")
	b.WriteString("3. Provide actionable recommendations\n")
	b.WriteString("4. Return your response in this exact JSON format:\n\n")
	b.WriteString(`{
    "insights": [
        "Insight 1",
        "Insight 2"
    ],
    "recommendations": [
        "Recommendation 1",
        "Recommendation 2"
    ]
}`)
	b.WriteString("\n\nBe specific and actionable with your insights.\n")
	return b.String()
}
