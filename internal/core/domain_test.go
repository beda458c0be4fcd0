package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestParseMonth(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-03", true},
		{" 2024-12 ", true},
		{"2024-13", false},
		{"2024-3", false},
		{"202403", false},
		{"2024-03-01", false},
		{"", false},
	}
	for _, tc := range cases {
		m, err := ParseMonth(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Len(t, m.String(), 7)
		} else {
			assert.ErrorIs(t, err, ErrInvalidMonth, tc.in)
		}
	}
}

func TestMonthDays(t *testing.T) {
	assert.Equal(t, 29, Month("2024-02").Days())
	assert.Equal(t, 28, Month("2023-02").Days())
	assert.Equal(t, 31, Month("2024-01").Days())
	assert.Equal(t, 0, Month("bogus").Days())
}

func TestDatePeriod(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, Month("2024-03"), d.Period())
	assert.Equal(t, "2024-03-15", d.String())
	assert.Equal(t, "", Date{}.String())

	_, err = ParseDate("15/03/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestBillValidate(t *testing.T) {
	good := Bill{OwnerID: "o1", Name: "Rent", DueDay: intPtr(1), DefaultAmount: floatPtr(1500)}
	require.NoError(t, good.Validate())

	noDue := Bill{OwnerID: "o1", Name: "Streaming"}
	require.NoError(t, noDue.Validate())

	assert.ErrorIs(t, Bill{OwnerID: "o1", Name: " "}.Validate(), ErrEmptyName)
	assert.ErrorIs(t, Bill{OwnerID: "o1", Name: "Rent", DueDay: intPtr(0)}.Validate(), ErrInvalidDueDay)
	assert.ErrorIs(t, Bill{OwnerID: "o1", Name: "Rent", DueDay: intPtr(32)}.Validate(), ErrInvalidDueDay)
	assert.ErrorIs(t, Bill{Name: "Rent"}.Validate(), ErrEmptyID)
}

func TestAccountValidate(t *testing.T) {
	card := Account{OwnerID: "o1", Name: "Visa", Type: CreditCard, CreditLimit: floatPtr(5000)}
	require.NoError(t, card.Validate())

	loan := Account{OwnerID: "o1", Name: "Car", Type: Loan, APR: floatPtr(6.9)}
	require.NoError(t, loan.Validate())

	loan.CreditLimit = floatPtr(1000)
	assert.ErrorIs(t, loan.Validate(), ErrLoanCreditLimit)

	assert.ErrorIs(t, Account{OwnerID: "o1", Name: "X", Type: "CHECKING"}.Validate(), ErrInvalidAccountType)
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{Date: NewDate(2024, 1, 5), OwnerID: "o1", CategoryID: "c1", Amount: 12.5}
	require.NoError(t, good.Validate())

	refund := good
	refund.Amount = -12.5
	require.NoError(t, refund.Validate(), "signed amounts are allowed")

	zero := good
	zero.Amount = 0
	assert.ErrorIs(t, zero.Validate(), ErrInvalidAmount)

	noDate := good
	noDate.Date = Date{}
	assert.ErrorIs(t, noDate.Validate(), ErrInvalidDate)

	long := good
	long.Description = strings.Repeat("é", 150) + strings.Repeat("x", 300)
	require.NoError(t, long.Validate(), "descriptions are free text")

	assert.False(t, good.IsDeleted())
	now := time.Now()
	good.DeletedAt = &now
	assert.True(t, good.IsDeleted())
}

func TestConstraintErrorMatching(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed: owners.system_key")
	err := fmt.Errorf("create owner: %w", &ConstraintError{Kind: ConstraintUnique, Table: "owners", Err: cause})

	assert.ErrorIs(t, err, ErrUniqueViolation)
	assert.NotErrorIs(t, err, ErrReferenceViolation)
	assert.ErrorIs(t, err, cause)

	var ce *ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "owners", ce.Table)

	ref := &ConstraintError{Kind: ConstraintReference, Table: "owners"}
	assert.ErrorIs(t, ref, ErrReferenceViolation)
	assert.Contains(t, ref.Error(), "referential integrity violation on owners")
}

func TestMonthClosedError(t *testing.T) {
	err := fmt.Errorf("import: %w", &MonthClosedError{Months: []Month{"2024-01"}})
	assert.ErrorIs(t, err, ErrMonthClosed)
	assert.Contains(t, err.Error(), "2024-01")
}

func TestNewIDUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		id := NewID()
		require.Len(t, id, 36)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		Date Date `json:"date"`
	}

	data, err := json.Marshal(wrapper{Date: NewDate(2024, 3, 9)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-03-09"}`, string(data))

	data, err = json.Marshal(wrapper{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":null}`, string(data))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-02-29"}`), &w))
	assert.Equal(t, "2024-02-29", w.Date.String())

	require.NoError(t, json.Unmarshal([]byte(`{"date":null}`), &w))
	assert.True(t, w.Date.IsEmpty())

	assert.ErrorIs(t, json.Unmarshal([]byte(`{"date":"2024-02-30"}`), &w), ErrInvalidDate)
}
