package log

// Common field names for structured logging.
const (
	FieldComponent = "component"
	FieldError     = "error"
	FieldUserID    = "user_id"
	FieldChatID    = "chat_id"
	FieldCommand   = "command"
	FieldAmount    = "amount"
	FieldCategory  = "category"
	FieldTotal     = "running_total"
	FieldAction    = "action"
	FieldPeriod    = "period"
	FieldStage     = "stage"
	FieldModel     = "model"
	FieldStatus    = "status_code"
	FieldDuration  = "duration_ms"
)

// Components defines standard component names.
const (
	ComponentApp      = "app"
	ComponentBot      = "bot"
	ComponentLedger   = "ledger"
	ComponentLLM      = "llm"
	ComponentAnalysis = "analysis"
)
