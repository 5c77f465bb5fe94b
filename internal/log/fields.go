package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldMonth      = "month"
	FieldDay        = "day"
	FieldCategory   = "category"
	FieldAmount     = "amount"
	FieldMode       = "mode"
	FieldCacheKey   = "cache_key"
	FieldAttempt    = "attempt"
	FieldMaxRetries = "max_retries"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentExpense = "expense"
	ComponentStore   = "store"
	ComponentCache   = "cache"
	ComponentSheets  = "sheets"
	ComponentAMQP    = "amqp"
	ComponentJournal = "journal"
)

// Operations defines standard operation names
const (
	OpRead       = "read"
	OpWrite      = "write"
	OpRefresh    = "refresh"
	OpSubmit     = "submit"
	OpRollback   = "rollback"
	OpInvalidate = "invalidate"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)
