package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"homeledger/internal/cache"
	"homeledger/internal/core"
	"homeledger/internal/log"
	"homeledger/internal/storage"
)

// EventPublisher delivers ledger events to other processes.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event core.Event) error
}

// LedgerService orchestrates ledger operations across SQLite and AMQP.
type LedgerService struct {
	storage        *storage.SQLiteRepository
	publisher      EventPublisher
	closedMonths   *cache.ClosedMonths
	enforceClosing bool
	now            func() time.Time
	logger         *log.Logger
}

type Option func(*LedgerService)

// WithPublisher enables event publishing after successful writes.
func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithClock overrides the time source used for audit stamps and bill status.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func WithClosedMonthCache(c *cache.ClosedMonths) Option {
	return func(s *LedgerService) { s.closedMonths = c }
}

// WithClosingEnforcement toggles rejection of writes into closed months.
// When disabled, closings are advisory and writes go through.
func WithClosingEnforcement(enabled bool) Option {
	return func(s *LedgerService) { s.enforceClosing = enabled }
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) { s.logger = l }
}

func NewLedgerService(repo *storage.SQLiteRepository, opts ...Option) *LedgerService {
	s := &LedgerService{
		storage:        repo,
		enforceClosing: true,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(log.Config{Component: log.ComponentLedger})
	}
	return s
}

type allowClosedKey struct{}

// AllowClosedMonth marks ctx as confirmed for writes into closed months.
func AllowClosedMonth(ctx context.Context) context.Context {
	return context.WithValue(ctx, allowClosedKey{}, true)
}

func closedMonthAllowed(ctx context.Context) bool {
	allowed, _ := ctx.Value(allowClosedKey{}).(bool)
	return allowed
}

func (s *LedgerService) stamp() time.Time {
	return s.now().UTC()
}

// ensureOpen rejects writes touching closed months unless enforcement is off
// or ctx carries AllowClosedMonth.
func (s *LedgerService) ensureOpen(ctx context.Context, months ...core.Month) error {
	if !s.enforceClosing || closedMonthAllowed(ctx) {
		return nil
	}
	seen := make(map[core.Month]bool, len(months))
	var closed []core.Month
	for _, m := range months {
		if seen[m] {
			continue
		}
		seen[m] = true
		isClosed, err := s.IsMonthClosed(ctx, m)
		if err != nil {
			return err
		}
		if isClosed {
			closed = append(closed, m)
		}
	}
	if len(closed) > 0 {
		sort.Slice(closed, func(i, j int) bool { return closed[i] < closed[j] })
		return &core.MonthClosedError{Months: closed}
	}
	return nil
}

func (s *LedgerService) publish(ctx context.Context, event core.Event) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Publisher not configured, skipping event", log.FieldEventKind, string(event.Kind))
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.stamp()
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		// The write already succeeded locally.
		s.logger.ErrorContext(ctx, "Failed to publish event",
			log.NewFields().WithOperation(log.OpPublish).WithEvent(event).WithError(err).ToSlice()...)
	}
}

// Close closes the underlying storage.
func (s *LedgerService) Close() error {
	if s.storage == nil {
		return nil
	}
	if err := s.storage.Close(); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}
