package core

import "time"

type EventKind string

const (
	EventTransactionCreated   EventKind = "transaction.created"
	EventTransactionDeleted   EventKind = "transaction.deleted"
	EventTransactionsImported EventKind = "transactions.imported"
	EventMonthClosed          EventKind = "month.closed"
)

// Event is a notification emitted after a successful ledger write.
type Event struct {
	Kind       EventKind `json:"kind"`
	EntityID   string    `json:"entity_id,omitempty"`
	Month      Month     `json:"month,omitempty"`
	Count      int       `json:"count,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// LedgerRow is a transaction flattened for export, with owner and category
// rendered by name.
type LedgerRow struct {
	Date        string  `json:"txn_date"`
	Owner       string  `json:"owner"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}
