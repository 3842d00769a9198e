package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldCorrelationID = "correlation_id"
	FieldChatID        = "chat_id"
	FieldCommand       = "command"
	FieldIntent        = "intent"
	FieldSchema        = "schema"
	FieldPeriod        = "period"
	FieldDuration      = "duration_ms"
	FieldAttempt       = "attempt"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldErrorKind     = "error_kind"
	FieldOperation     = "operation"
	FieldDate          = "date"
	FieldConcept       = "concept"
	FieldDescription   = "description"
	FieldAmount        = "amount"
	FieldCategory      = "category"
	FieldEventID       = "event_id"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentBot        = "bot"
	ComponentExtraction = "extraction"
	ComponentRecorder   = "recorder"
	ComponentReport     = "report"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentSheets     = "sheets"
	ComponentBackend    = "backend"
)

// Operations defines standard operation names
const (
	OpRecord   = "record"
	OpReport   = "report"
	OpExtract  = "extract"
	OpAppend   = "append"
	OpPublish  = "publish"
	OpMirror   = "mirror"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(date, concept, amount, category string) LogFields {
	f[FieldDate] = date
	f[FieldConcept] = concept
	f[FieldAmount] = amount
	f[FieldCategory] = category
	return f
}

// WithIncome adds income-related fields
func (f LogFields) WithIncome(date, description, amount string) LogFields {
	f[FieldDate] = date
	f[FieldDescription] = description
	f[FieldAmount] = amount
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
