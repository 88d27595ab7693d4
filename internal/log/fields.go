package log

// Shared field names so log lines stay greppable across packages.
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldError         = "error"
	FieldOwner         = "owner"
	FieldAccountID     = "account_id"
	FieldTransactionID = "transaction_id"
	FieldBudgetID      = "budget_id"
	FieldGoalID        = "goal_id"
	FieldRecurringID   = "recurring_id"
	FieldCategory      = "category"
	FieldAmount        = "amount"
	FieldCurrency      = "currency"
	FieldEventID       = "event_id"
)

// Component names for Setup.
const (
	ComponentAPI             = "api"
	ComponentRecurringWorker = "recurring-worker"
	ComponentStatementWorker = "statement-worker"
)
