package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldParticipant = "participant_id"
	FieldChat        = "chat_id"
	FieldState       = "state"
	FieldCommand     = "command"
	FieldExpenseID   = "expense_id"
	FieldAmountCents = "amount_cents"
	FieldCategory    = "category"
	FieldPerson      = "person"
	FieldDate        = "date"
	FieldDeleted     = "deleted"
	FieldError       = "error"
)

// Components defines standard component names
const (
	ComponentApp    = "app"
	ComponentBot    = "bot"
	ComponentIntake = "intake"
	ComponentReport = "report"
	ComponentWorker = "worker"
)
