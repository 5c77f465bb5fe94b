// Package services orchestrates the add-expense protocol over the caches
// and the remote gateway.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"wydatki/internal/amqp"
	"wydatki/internal/cache"
	"wydatki/internal/core"
	"wydatki/internal/sheets"
)

// RetryConfig controls the remote-write retry loop.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// SubmitRequest is one add-expense submission as entered in the form.
type SubmitRequest struct {
	Category string
	Day      int
	RawPrice string
	Month    string
}

// ExpenseService coordinates one mutation at a time: parse the price,
// apply the optimistic cache delta, write remotely with retries, then
// reconcile (commit-refresh) or roll back.
type ExpenseService struct {
	dayCache *cache.DayAmountsCache
	writer   sheets.ExpenseWriter
	grid     sheets.GridInvalidator
	events   *amqp.Client
	retry    RetryConfig

	// OnRetry, when set, is called before each retry attempt so the UI can
	// show progress. Attempts are 1-based.
	OnRetry func(attempt, maxRetries int)

	inFlight atomic.Bool
}

// pendingMutation carries the prior cache state across one submit, used
// exclusively for rollback and discarded once the write settles.
type pendingMutation struct {
	month        string
	day          int
	prevSnapshot core.DayAmounts
	hadSnapshot  bool
	applied      bool
}

func NewExpenseService(
	dayCache *cache.DayAmountsCache,
	writer sheets.ExpenseWriter,
	grid sheets.GridInvalidator,
	events *amqp.Client,
	retry RetryConfig,
) *ExpenseService {
	if retry.MaxRetries <= 0 {
		retry = DefaultRetryConfig()
	}
	return &ExpenseService{
		dayCache: dayCache,
		writer:   writer,
		grid:     grid,
		events:   events,
		retry:    retry,
	}
}

// Submit runs the add-expense protocol. A second call while one is pending
// is rejected with ErrSubmitPending rather than queued.
func (s *ExpenseService) Submit(ctx context.Context, req SubmitRequest) (core.WriteResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return core.WriteResult{}, core.ErrSubmitPending
	}
	defer s.inFlight.Store(false)

	parsed, err := core.ParsePrice(req.RawPrice)
	if err != nil {
		return core.WriteResult{}, err
	}

	writeReq := core.WriteRequest{
		Category: req.Category,
		Day:      req.Day,
		Month:    req.Month,
		Mode:     parsed.Mode,
		Amount:   parsed.Amount,
		Formula:  parsed.Formula,
	}
	if err := writeReq.Validate(); err != nil {
		return core.WriteResult{}, err
	}

	pending := s.applyOptimistic(writeReq)

	result, err := s.writeWithRetry(ctx, writeReq)
	if err != nil {
		s.rollback(ctx, pending)
		return core.WriteResult{}, fmt.Errorf("add expense: %w", err)
	}

	s.reconcile(ctx, writeReq, result)
	return result, nil
}

// applyOptimistic adds the parsed delta to the cached snapshot before the
// remote write settles, recording the prior state for rollback. Formula
// mode skips the numeric adjustment: the server-computed result is unknown
// client-side, so the old value stays visible until the commit refresh.
func (s *ExpenseService) applyOptimistic(req core.WriteRequest) pendingMutation {
	pending := pendingMutation{month: req.Month, day: req.Day}

	prev, had := s.dayCache.CachedSnapshot(req.Month, req.Day)
	pending.prevSnapshot = prev
	pending.hadSnapshot = had

	if req.Mode != core.ModeValue {
		return pending
	}

	next := prev.Clone()
	if next == nil {
		next = core.DayAmounts{}
	}
	entry := next[req.Category]
	next[req.Category] = core.DayAmountEntry{Amount: core.Round2(entry.Amount + req.Amount)}
	s.dayCache.SetSnapshot(req.Month, req.Day, next)
	pending.applied = true
	return pending
}

func (s *ExpenseService) writeWithRetry(ctx context.Context, req core.WriteRequest) (core.WriteResult, error) {
	var lastErr error
	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			if s.OnRetry != nil {
				s.OnRetry(attempt, s.retry.MaxRetries)
			}
			delay := s.backoffDelay(attempt - 1)
			slog.WarnContext(ctx, "Retrying expense write",
				"attempt", attempt,
				"max_retries", s.retry.MaxRetries,
				"delay", delay,
				"error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return core.WriteResult{}, ctx.Err()
			}
		}

		result, err := s.writer.WriteExpense(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return core.WriteResult{}, lastErr
}

func (s *ExpenseService) backoffDelay(n int) time.Duration {
	delay := s.retry.BaseDelay << n
	if delay > s.retry.MaxDelay || delay <= 0 {
		return s.retry.MaxDelay
	}
	return delay
}

// reconcile commits a successful write: the month's grid memoization is
// dropped, the day snapshot is force-refreshed in the background to replace
// the optimistic value with the authoritative one, and an event is
// published when a broker is configured.
func (s *ExpenseService) reconcile(ctx context.Context, req core.WriteRequest, result core.WriteResult) {
	if s.grid != nil {
		s.grid.InvalidateMonth(req.Month)
	}

	go func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.dayCache.Get(refreshCtx, req.Month, req.Day, true); err != nil {
			slog.Warn("Post-write refresh failed",
				"month", req.Month,
				"day", req.Day,
				"error", err)
		}
	}()

	if s.events != nil {
		if err := s.events.PublishExpenseRecorded(ctx, amqp.NewExpenseRecordedMessage(req, result)); err != nil {
			// Event delivery never fails the submit.
			slog.WarnContext(ctx, "Failed to publish expense event", "error", err)
		}
	}
}

// rollback restores the exact prior cache state after retries are
// exhausted: the previous snapshot when one existed, absence otherwise.
func (s *ExpenseService) rollback(ctx context.Context, pending pendingMutation) {
	if !pending.applied {
		return
	}
	if pending.hadSnapshot {
		s.dayCache.SetSnapshot(pending.month, pending.day, pending.prevSnapshot)
	} else {
		s.dayCache.RemoveSnapshot(pending.month, pending.day)
	}
	slog.InfoContext(ctx, "Rolled back optimistic expense",
		"month", pending.month,
		"day", pending.day)
}
