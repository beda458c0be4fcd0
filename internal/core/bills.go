package core

type BillStatus string

const (
	BillPaid     BillStatus = "paid"
	BillOverdue  BillStatus = "overdue"
	BillDueToday BillStatus = "due"
	BillUpcoming BillStatus = "upcoming"
	// BillUndated is reported for unpaid bills without a due day.
	BillUndated BillStatus = "undated"
)

// BillDue is one active bill with its payment row for a month.
type BillDue struct {
	Bill      Bill        `json:"bill"`
	OwnerName string      `json:"owner_name"`
	Payment   BillPayment `json:"payment"`
	DueDate   Date        `json:"due_date"` // zero when the bill has no due day
	Status    BillStatus  `json:"status"`
}

// AccountPosition pairs an active account with its snapshot for a month and
// the most recent snapshot before it. Either snapshot may be missing.
type AccountPosition struct {
	Account   Account          `json:"account"`
	OwnerName string           `json:"owner_name"`
	Current   *AccountSnapshot `json:"current,omitempty"`
	Previous  *AccountSnapshot `json:"previous,omitempty"`
}
