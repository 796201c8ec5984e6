package aiusage

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// recordTimeout bounds the best-effort ledger write.
const recordTimeout = 3 * time.Second

// Service orchestrates AI quota and usage logic.
type Service struct {
	store  *Store
	logger *zap.Logger
}

// NewService creates a Service backed by the given Store.
func NewService(store *Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger.Named("aiusage")}
}

// UseToken deducts one generation from the user's monthly allowance.
// If the user row does not exist yet it is initialised and the token is immediately consumed.
// Returns ErrInsufficientTokens when the quota for the current month is exhausted.
func (s *Service) UseToken(ctx context.Context, uid string) error {
	err := s.store.UseToken(ctx, uid)
	if err != ErrInsufficientTokens {
		return err
	}

	// Row may be missing: try to create it, then retry the deduction once.
	if initErr := s.store.EnsureUser(ctx, uid); initErr != nil {
		return initErr
	}
	return s.store.UseToken(ctx, uid)
}

// Record writes u to the ledger. Failures are logged, never returned, and the
// write outlives a cancelled request context.
func (s *Service) Record(ctx context.Context, u Usage) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := s.store.InsertUsage(ctx, u); err != nil {
		s.logger.Warn("record ai usage", zap.String("task", u.Task), zap.Error(err))
	}
}

// Report returns the caller's month-to-date usage.
func (s *Service) Report(ctx context.Context, uid string) (*Report, error) {
	remaining, err := s.store.Remaining(ctx, uid)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.MonthTotals(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &Report{Month: currentMonth(), TokensRemaining: remaining, Tasks: tasks}, nil
}
