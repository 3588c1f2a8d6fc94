package logger

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
	FieldUserID     = "user_id"
	FieldSessionID  = "session_id"
	FieldHousehold  = "household_id"
	FieldInvoiceID  = "invoice_id"
	FieldFeeID      = "fee_id"
	FieldAmount     = "amount"
	FieldCount      = "count"
)

// Components
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentDB       = "database"
	ComponentBilling  = "billing"
	ComponentReminder = "reminder"
	ComponentEvents   = "events"
	ComponentAuth     = "auth"
)

// Operations
const (
	OpGenerate = "generate_invoices"
	OpPost     = "post_transaction"
	OpCascade  = "delete_session"
	OpBulk     = "set_invoice_amounts"
	OpRemind   = "send_reminders"
	OpStartup  = "startup"
)
