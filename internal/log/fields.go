package log

import (
	"sort"

	"homeledger/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldMonth     = "month"
	FieldOwner     = "owner"
	FieldCategory  = "category"
	FieldEntityID  = "entity_id"
	FieldEventKind = "event_kind"
	FieldAmount    = "amount"
	FieldRows      = "rows"
	FieldSheet     = "sheet"
	FieldSheetsRef = "sheets_ref"
	FieldDuration  = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentCLI     = "cli"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpImport   = "import"
	OpExport   = "export"
	OpClose    = "close_month"
	OpAppend   = "append"
	OpSync     = "sync"
	OpPublish  = "publish"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

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

func (f LogFields) WithMonth(m core.Month) LogFields {
	if m != "" {
		f[FieldMonth] = string(m)
	}
	return f
}

// WithTransaction adds the identifying fields of a ledger entry.
func (f LogFields) WithTransaction(t core.Transaction) LogFields {
	f[FieldEntityID] = t.ID
	f[FieldOwner] = t.OwnerID
	f[FieldCategory] = t.CategoryID
	f[FieldAmount] = t.Amount
	f[FieldMonth] = string(t.Date.Period())
	return f
}

func (f LogFields) WithRows(n int) LogFields {
	f[FieldRows] = n
	return f
}

func (f LogFields) WithEvent(e core.Event) LogFields {
	f[FieldEventKind] = string(e.Kind)
	if e.EntityID != "" {
		f[FieldEntityID] = e.EntityID
	}
	return f.WithMonth(e.Month)
}

// ToSlice converts LogFields to key/value pairs for slog, sorted by key.
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
