package services

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"homeledger/internal/cache"
	"homeledger/internal/core"
	"homeledger/internal/log"
	"homeledger/internal/storage"
)

var testNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.Event
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, e core.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) kinds() []core.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.EventKind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}

type testLedger struct {
	*LedgerService
	pub  *recordingPublisher
	logs *bytes.Buffer
}

func newTestLedger(t *testing.T, opts ...Option) *testLedger {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)

	pub := &recordingPublisher{}
	var logs bytes.Buffer
	base := []Option{
		WithPublisher(pub),
		WithClock(func() time.Time { return testNow }),
		WithClosedMonthCache(cache.NewClosedMonths(16, time.Hour)),
		WithLogger(log.New(log.Config{Component: log.ComponentLedger, Output: &logs})),
	}
	svc := NewLedgerService(repo, append(base, opts...)...)
	t.Cleanup(func() { svc.Close() })

	_, err = svc.SeedOwners(context.Background())
	require.NoError(t, err)
	return &testLedger{LedgerService: svc, pub: pub, logs: &logs}
}

func (l *testLedger) owner(t *testing.T, key string) core.Owner {
	t.Helper()
	o, err := l.ResolveOwner(context.Background(), key)
	require.NoError(t, err)
	return o
}

func (l *testLedger) category(t *testing.T, name string) core.Category {
	t.Helper()
	c, err := l.GetOrCreateCategory(context.Background(), name)
	require.NoError(t, err)
	return c
}

func (l *testLedger) addTxn(t *testing.T, ownerID, categoryID string, date core.Date, amount float64, desc string) core.Transaction {
	t.Helper()
	txn, err := l.AddTransaction(context.Background(), TransactionInput{
		Date: date, OwnerID: ownerID, CategoryID: categoryID, Amount: amount, Description: desc,
	})
	require.NoError(t, err)
	return txn
}

var errBrokerDown = errors.New("broker down")

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
