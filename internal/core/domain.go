package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	SystemKeyShared  = "shared"
	SystemKeyPerson1 = "person_1"
	SystemKeyPerson2 = "person_2"
)

const (
	CreditCard AccountType = "CREDIT_CARD"
	Loan       AccountType = "LOAN"
)

const (
	monthLayout = "2006-01"
	dateLayout  = "2006-01-02"
)

type (
	AccountType string

	// Month is a billing period rendered as YYYY-MM.
	Month string

	Date struct {
		time.Time
	}

	Owner struct {
		ID          string    `json:"id"`
		SystemKey   string    `json:"system_key"`
		DisplayName string    `json:"display_name"`
		SortOrder   int       `json:"sort_order"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	Category struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Active    bool      `json:"active"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	Bill struct {
		ID            string    `json:"id"`
		OwnerID       string    `json:"owner_id"`
		Name          string    `json:"name"`
		DueDay        *int      `json:"due_day,omitempty"`
		DefaultAmount *float64  `json:"default_amount,omitempty"`
		Active        bool      `json:"active"`
		CreatedAt     time.Time `json:"created_at"`
		UpdatedAt     time.Time `json:"updated_at"`
	}

	Account struct {
		ID           string      `json:"id"`
		OwnerID      string      `json:"owner_id"`
		Name         string      `json:"name"`
		Type         AccountType `json:"type"`
		APR          *float64    `json:"apr,omitempty"`
		CreditLimit  *float64    `json:"credit_limit,omitempty"`
		StartBalance *float64    `json:"start_balance,omitempty"`
		Active       bool        `json:"active"`
		CreatedAt    time.Time   `json:"created_at"`
		UpdatedAt    time.Time   `json:"updated_at"`
	}

	Transaction struct {
		ID          string     `json:"id"`
		Date        Date       `json:"date"`
		OwnerID     string     `json:"owner_id"`
		CategoryID  string     `json:"category_id"`
		Description string     `json:"description"`
		Amount      float64    `json:"amount"`
		CreatedAt   time.Time  `json:"created_at"`
		UpdatedAt   time.Time  `json:"updated_at"`
		DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	}

	AccountSnapshot struct {
		ID        string    `json:"id"`
		AccountID string    `json:"account_id"`
		Month     Month     `json:"month"`
		Balance   float64   `json:"balance"`
		Payment   float64   `json:"payment"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	Income struct {
		ID        string    `json:"id"`
		OwnerID   string    `json:"owner_id"`
		Month     Month     `json:"month"`
		Amount    float64   `json:"amount"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	Budget struct {
		ID            string    `json:"id"`
		Month         Month     `json:"month"`
		OwnerID       string    `json:"owner_id"`
		CategoryID    string    `json:"category_id"`
		PlannedAmount float64   `json:"planned_amount"`
		CreatedAt     time.Time `json:"created_at"`
		UpdatedAt     time.Time `json:"updated_at"`
	}

	BillPayment struct {
		ID         string    `json:"id"`
		BillID     string    `json:"bill_id"`
		Month      Month     `json:"month"`
		Paid       bool      `json:"paid"`
		PaidAmount *float64  `json:"paid_amount,omitempty"`
		PaidDate   Date      `json:"paid_date,omitempty"` // zero when unknown
		Note       string    `json:"note,omitempty"`
		CreatedAt  time.Time `json:"created_at"`
		UpdatedAt  time.Time `json:"updated_at"`
	}

	MonthClosing struct {
		ID        string    `json:"id"`
		Month     Month     `json:"month"`
		ClosedAt  time.Time `json:"closed_at"`
		Note      string    `json:"note,omitempty"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month (want YYYY-MM)")
	ErrInvalidDate        = errors.New("invalid date (want YYYY-MM-DD)")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyName          = errors.New("name cannot be empty")
	ErrEmptyID            = errors.New("id cannot be empty")
	ErrInvalidDueDay      = errors.New("due day must be 1..31")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrLoanCreditLimit    = errors.New("loans do not carry a credit limit")
	ErrInvalidSystemKey   = errors.New("invalid owner system key")
)

// DefaultOwners is the fixed owner vocabulary seeded on first setup.
func DefaultOwners() []Owner {
	return []Owner{
		{SystemKey: SystemKeyShared, DisplayName: "Shared", SortOrder: 0},
		{SystemKey: SystemKeyPerson1, DisplayName: "Person 1", SortOrder: 1},
		{SystemKey: SystemKeyPerson2, DisplayName: "Person 2", SortOrder: 2},
	}
}

// ParseMonth trims and validates a YYYY-MM period.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if len(s) != 7 || s[4] != '-' {
		return "", ErrInvalidMonth
	}
	if _, err := time.Parse(monthLayout, s); err != nil {
		return "", ErrInvalidMonth
	}
	return Month(s), nil
}

// MonthOf returns the period containing t.
func MonthOf(t time.Time) Month {
	return Month(t.Format(monthLayout))
}

func (m Month) Validate() error {
	_, err := ParseMonth(string(m))
	return err
}

func (m Month) String() string {
	return string(m)
}

// Start returns the first day of the month in UTC.
func (m Month) Start() (time.Time, error) {
	t, err := time.Parse(monthLayout, string(m))
	if err != nil {
		return time.Time{}, ErrInvalidMonth
	}
	return t, nil
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	start, err := m.Start()
	if err != nil {
		return 0
	}
	return start.AddDate(0, 1, -1).Day()
}

// ParseDate parses an ISO YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MarshalJSON renders the date as "YYYY-MM-DD", or null when zero.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Period returns the month the date falls in.
func (d Date) Period() Month {
	return MonthOf(d.Time)
}

func (t AccountType) Validate() error {
	switch t {
	case CreditCard, Loan:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAccountType, string(t))
	}
}

func (o Owner) Validate() error {
	if strings.TrimSpace(o.SystemKey) == "" {
		return ErrInvalidSystemKey
	}
	if strings.TrimSpace(o.DisplayName) == "" {
		return ErrEmptyName
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (b Bill) Validate() error {
	if strings.TrimSpace(b.OwnerID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if b.DueDay != nil && (*b.DueDay < 1 || *b.DueDay > 31) {
		return ErrInvalidDueDay
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.OwnerID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if err := a.Type.Validate(); err != nil {
		return err
	}
	if a.Type == Loan && a.CreditLimit != nil {
		return ErrLoanCreditLimit
	}
	return nil
}

// IsDeleted reports whether the transaction was soft deleted.
func (t Transaction) IsDeleted() bool {
	return t.DeletedAt != nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return ErrInvalidDate
	}
	if strings.TrimSpace(t.OwnerID) == "" || strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyID
	}
	if t.Amount == 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (s AccountSnapshot) Validate() error {
	if strings.TrimSpace(s.AccountID) == "" {
		return ErrEmptyID
	}
	return s.Month.Validate()
}

func (i Income) Validate() error {
	if strings.TrimSpace(i.OwnerID) == "" {
		return ErrEmptyID
	}
	return i.Month.Validate()
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.OwnerID) == "" || strings.TrimSpace(b.CategoryID) == "" {
		return ErrEmptyID
	}
	if b.PlannedAmount < 0 {
		return ErrInvalidAmount
	}
	return b.Month.Validate()
}

func (p BillPayment) Validate() error {
	if strings.TrimSpace(p.BillID) == "" {
		return ErrEmptyID
	}
	return p.Month.Validate()
}
