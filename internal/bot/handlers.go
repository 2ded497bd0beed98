// Package bot is the Telegram surface: commands, inline-keyboard callbacks,
// and free-text expense logging. Every reply is built here; the heavy lifting
// lives in the ledger and analysis packages.
package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"expensebot/internal/core"
	"expensebot/internal/ledger"
	"expensebot/internal/log"
)

// LedgerOps is what the handlers need from the expense ledger.
type LedgerOps interface {
	LogExpense(ctx context.Context, amount decimal.Decimal, category string) (string, decimal.Decimal, error)
	CurrentTotal() string
	MonthlyStats(ctx context.Context, month string) (string, error)
	RecentExpenses(limit int) string
	LogAnalysis(ctx context.Context, summary ledger.AnalysisSummary) error
	IsConnected(ctx context.Context) bool
}

// Analyzer runs one full analysis for a period.
type Analyzer interface {
	Analyze(ctx context.Context, period core.Period) (core.AnalysisResult, error)
}

// AnalyzerFactory builds the analyzer on first use. Construction is deferred
// so the bot starts and serves expense logging even when Ollama is down; the
// factory is where the model endpoint gets probed.
type AnalyzerFactory func(ctx context.Context) (Analyzer, error)

// Reporter renders a finished analysis into a chat message.
type Reporter func(core.AnalysisResult) string

// Sender is the slice of the Telegram API the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handlers routes updates to typed methods. One instance serves all chats.
type Handlers struct {
	api      Sender
	ops      LedgerOps
	analyzer *analyzerHolder
	report   Reporter
	summary  func(core.AnalysisResult) ledger.AnalysisSummary
	ceiling  decimal.Decimal
	logger   *log.Logger
}

// Options carries everything New needs beyond the API itself.
type Options struct {
	Ops       LedgerOps
	Factory   AnalyzerFactory
	Report    Reporter
	Summarize func(core.AnalysisResult) ledger.AnalysisSummary
	Ceiling   decimal.Decimal
	Logger    *log.Logger
}

func New(api Sender, opts Options) *Handlers {
	return &Handlers{
		api:      api,
		ops:      opts.Ops,
		analyzer: &analyzerHolder{factory: opts.Factory},
		report:   opts.Report,
		summary:  opts.Summarize,
		ceiling:  opts.Ceiling,
		logger:   opts.Logger.WithComponent(log.ComponentBot),
	}
}

// Run consumes the updates channel until ctx is cancelled or the channel
// closes. Handling is sequential; Telegram updates for a single bot arrive
// in order and the ledger serializes writes anyway.
func (h *Handlers) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	h.logger.InfoContext(ctx, "Bot update loop started")
	for {
		select {
		case <-ctx.Done():
			h.logger.InfoContext(ctx, "Bot update loop stopping")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate dispatches a single update. Exported so the update loop and
// tests share one entry point.
func (h *Handlers) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		h.handleCommand(ctx, update.Message)
	case update.Message != nil && update.Message.Text != "":
		h.handleText(ctx, update.Message)
	}
}

func (h *Handlers) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	cmd := msg.Command()
	h.logger.InfoContext(ctx, "Handling command",
		log.FieldCommand, cmd, log.FieldUserID, msg.From.ID, log.FieldChatID, chatID)

	switch cmd {
	case "start":
		h.replyMarkdown(chatID, welcomeMessage)
	case "help":
		h.replyMarkdown(chatID, helpMessage)
	case "total":
		h.handleTotal(ctx, chatID)
	case "stats":
		h.handleStats(ctx, chatID, msg.CommandArguments())
	case "recent":
		h.handleRecent(ctx, chatID, msg.CommandArguments())
	case "analyze_monthly":
		h.handleAnalyze(ctx, chatID, core.Monthly)
	case "analyze_annual":
		h.handleAnalyze(ctx, chatID, core.Annual)
	case "monthly_report":
		h.handleReportOptions(ctx, chatID, core.Monthly)
	case "annual_report":
		h.handleReportOptions(ctx, chatID, core.Annual)
	default:
		h.reply(chatID, "❓ Unknown command. Send /help for usage.")
	}
}

func (h *Handlers) handleTotal(ctx context.Context, chatID int64) {
	if !h.ops.IsConnected(ctx) {
		h.reply(chatID, ledgerUnavailableMessage)
		return
	}
	h.reply(chatID, h.ops.CurrentTotal())
}

func (h *Handlers) handleStats(ctx context.Context, chatID int64, args string) {
	if !h.ops.IsConnected(ctx) {
		h.reply(chatID, ledgerUnavailableMessage)
		return
	}
	text, err := h.ops.MonthlyStats(ctx, strings.TrimSpace(args))
	if err != nil {
		h.logger.ErrorContext(ctx, "Stats lookup failed", log.FieldError, err)
		h.reply(chatID, "❌ Error getting statistics. Please try again.")
		return
	}
	h.replyMarkdown(chatID, text)
}

func (h *Handlers) handleRecent(ctx context.Context, chatID int64, args string) {
	if !h.ops.IsConnected(ctx) {
		h.reply(chatID, ledgerUnavailableMessage)
		return
	}
	limit := ledger.DefaultRecentLimit
	if s := strings.TrimSpace(args); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = ledger.ClampRecentLimit(n)
		}
	}
	h.replyMarkdown(chatID, h.ops.RecentExpenses(limit))
}

// handleAnalyze serves /analyze_monthly and /analyze_annual. The finished
// report goes to the chat and a summary row goes back to the ledger.
func (h *Handlers) handleAnalyze(ctx context.Context, chatID int64, period core.Period) {
	if !h.ops.IsConnected(ctx) {
		h.reply(chatID, ledgerUnavailableMessage)
		return
	}
	h.runAnalysis(ctx, period, func(text string) {
		h.replyMarkdown(chatID, text)
	})
}

func (h *Handlers) handleReportOptions(ctx context.Context, chatID int64, period core.Period) {
	if !h.ops.IsConnected(ctx) {
		h.reply(chatID, ledgerUnavailableMessage)
		return
	}
	title := periodTitle(period)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Simple Total", string(period)+"_simple"),
			tgbotapi.NewInlineKeyboardButtonData("🤖 AI Analysis", string(period)+"_ai"),
		),
	)
	msg := tgbotapi.NewMessage(chatID, reportOptionsMessage(title))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = keyboard
	if _, err := h.api.Send(msg); err != nil {
		h.logger.ErrorContext(ctx, "Failed to send report options", log.FieldError, err)
	}
}

func (h *Handlers) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Acknowledge first so the button stops spinning even if the work below
	// takes a while.
	if _, err := h.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		h.logger.WarnContext(ctx, "Failed to answer callback query", log.FieldError, err)
	}

	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	h.logger.InfoContext(ctx, "Handling callback",
		log.FieldAction, query.Data, log.FieldUserID, query.From.ID, log.FieldChatID, chatID)

	edit := func(text string) {
		e := tgbotapi.NewEditMessageText(chatID, messageID, text)
		e.ParseMode = tgbotapi.ModeMarkdown
		if _, err := h.api.Send(e); err != nil {
			h.logger.ErrorContext(ctx, "Failed to edit message", log.FieldError, err)
		}
	}

	switch query.Data {
	case "monthly_simple":
		h.simpleReport(ctx, core.Monthly, edit)
	case "annual_simple":
		h.simpleReport(ctx, core.Annual, edit)
	case "monthly_ai":
		h.runAnalysis(ctx, core.Monthly, edit)
	case "annual_ai":
		h.runAnalysis(ctx, core.Annual, edit)
	default:
		edit(unknownOptionMessage)
	}
}

// simpleReport answers the "_simple" buttons with server-side period totals.
// Monthly and annual go through the same path with a different backend key.
func (h *Handlers) simpleReport(ctx context.Context, period core.Period, send func(string)) {
	key := "current"
	if period == core.Annual {
		key = "annual"
	}
	stats, err := h.ops.MonthlyStats(ctx, key)
	if err != nil {
		h.logger.ErrorContext(ctx, "Simple report failed",
			log.FieldPeriod, string(period), log.FieldError, err)
		send("❌ Error generating " + strings.ToLower(periodTitle(period)) + " report. Please try again.")
		return
	}
	send("📊 *" + periodTitle(period) + " Report - Simple Total*\n\n" + stats)
}

// runAnalysis is the shared AI path for commands and buttons: lazily build
// the analyzer, show the staged-progress intro, run the pipeline, deliver the
// report, and record a summary row in the ledger.
func (h *Handlers) runAnalysis(ctx context.Context, period core.Period, send func(string)) {
	analyzer, err := h.analyzer.get(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Analyzer unavailable", log.FieldError, err)
		send(analyzerUnavailableMessage)
		return
	}

	send(analysisIntro(periodTitle(period)))

	result, err := analyzer.Analyze(ctx, period)
	if err != nil {
		h.logger.ErrorContext(ctx, "Analysis failed",
			log.FieldPeriod, string(period), log.FieldError, err)
		send(analysisFailedMessage(err))
		return
	}

	if err := h.ops.LogAnalysis(ctx, h.summary(result)); err != nil {
		// The user still gets the report; only the audit row is lost.
		h.logger.WarnContext(ctx, "Failed to record analysis summary",
			log.FieldPeriod, string(period), log.FieldError, err)
	}

	send(h.report(result))
}

// handleText treats any non-command message as an expense to log.
func (h *Handlers) handleText(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if !h.ops.IsConnected(ctx) {
		h.reply(chatID, ledgerUnavailableMessage)
		return
	}

	parsed, err := core.ParseExpenseMessage(msg.Text, h.ceiling)
	if err != nil {
		h.logger.WarnContext(ctx, "Unparseable expense message",
			log.FieldUserID, msg.From.ID, log.FieldError, err)
		h.replyMarkdown(chatID, parseErrorMessage(err)+"\n\n"+categorySuggestions())
		return
	}

	text, total, err := h.ops.LogExpense(ctx, parsed.Amount, parsed.Category)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to log expense",
			log.FieldUserID, msg.From.ID,
			log.FieldAmount, parsed.Amount.String(),
			log.FieldCategory, parsed.Category,
			log.FieldError, err)
		h.reply(chatID, logFailureMessage(err))
		return
	}

	h.logger.InfoContext(ctx, "Expense logged",
		log.FieldUserID, msg.From.ID,
		log.FieldAmount, parsed.Amount.String(),
		log.FieldCategory, parsed.Category,
		log.FieldTotal, total.String())
	h.reply(chatID, text)
	h.replyMarkdown(chatID, categorySuggestions())
}

func (h *Handlers) reply(chatID int64, text string) {
	if _, err := h.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.logger.Error("Failed to send message", log.FieldChatID, chatID, log.FieldError, err)
	}
}

func (h *Handlers) replyMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := h.api.Send(msg); err != nil {
		h.logger.Error("Failed to send message", log.FieldChatID, chatID, log.FieldError, err)
	}
}

func periodTitle(period core.Period) string {
	if period == core.Annual {
		return "Annual"
	}
	return "Monthly"
}
