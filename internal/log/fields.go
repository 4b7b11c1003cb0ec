package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldErrorKind  = "error_kind"
	FieldUserID     = "user_id"
	FieldUsername   = "username"
	FieldCategoryID = "category_id"
	FieldExpenseID  = "expense_id"
	FieldGoalID     = "goal_id"
	FieldTable      = "table"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldPeriod     = "period"
	FieldAmount     = "amount"
	FieldCount      = "count"
	FieldDuration   = "duration_ms"
	FieldDBPath     = "db_path"
	FieldRunID      = "run_id"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentStorage    = "storage"
	ComponentRepository = "repository"
	ComponentLive       = "live"
	ComponentWorker     = "worker"
	ComponentAuth       = "auth"
	ComponentSummary    = "summary"
	ComponentSession    = "session"
	ComponentCLI        = "cli"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSum      = "sum"
	OpReplace  = "replace"
	OpRegister = "register"
	OpLogin    = "login"
	OpWatch    = "watch"
	OpValidate = "validate"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorKind adds the failure kind reported to callers
func (f LogFields) WithErrorKind(kind string) LogFields {
	if kind != "" {
		f[FieldErrorKind] = kind
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithUser adds the acting user
func (f LogFields) WithUser(userID int64) LogFields {
	if userID != 0 {
		f[FieldUserID] = userID
	}
	return f
}

// With adds an arbitrary field
func (f LogFields) With(key string, value any) LogFields {
	f[key] = value
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
