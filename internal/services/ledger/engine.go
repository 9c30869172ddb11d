package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/fastprodman/gamewallet/internal/repos/balances"
	"github.com/fastprodman/gamewallet/internal/repos/transactions"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultStoreTimeout = 2 * time.Second
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// Notifier receives the new balance after every committed mutation.
// Implementations must return promptly and handle their own failures.
type Notifier interface {
	Notify(ctx context.Context, userID string, balance int64)
}

type Options struct {
	// OpeningBalance is what a user without a stored balance starts with.
	OpeningBalance int64
	// StoreTimeout bounds every single store call.
	StoreTimeout time.Duration
	// HistoryLimit is used when History is called with limit <= 0.
	HistoryLimit int
	Now          func() time.Time
	// Registerer receives the engine metrics; nil leaves them unregistered.
	Registerer prometheus.Registerer
}

type Engine struct {
	balances     balances.Balances
	log          transactions.Transactions
	notifier     Notifier
	ids          *IDGenerator
	locks        *userLocks
	opening      int64
	now          func() time.Time
	storeTimeout time.Duration
	historyLimit int
	metrics      *metrics
}

// New wires the engine. b is the raw balance store: users without a record
// start at opts.OpeningBalance.
func New(
	b balances.Balances,
	log transactions.Transactions,
	notifier Notifier,
	ids *IDGenerator,
	opts Options,
) (*Engine, error) {
	e := &Engine{
		balances:     balances.WithDefault(b, opts.OpeningBalance),
		log:          log,
		notifier:     notifier,
		ids:          ids,
		locks:        newUserLocks(),
		opening:      opts.OpeningBalance,
		now:          opts.Now,
		storeTimeout: opts.StoreTimeout,
		historyLimit: opts.HistoryLimit,
		metrics:      newMetrics(),
	}

	if e.now == nil {
		e.now = time.Now
	}

	if e.storeTimeout <= 0 {
		e.storeTimeout = DefaultStoreTimeout
	}

	if e.historyLimit <= 0 || e.historyLimit > MaxHistoryLimit {
		e.historyLimit = DefaultHistoryLimit
	}

	if opts.Registerer != nil {
		err := e.metrics.register(opts.Registerer)
		if err != nil {
			return nil, fmt.Errorf("register ledger metrics: %w", err)
		}
	}

	return e, nil
}

// Play applies the batch actions in order under the user's lock.
//
// A rejected bet stops the batch: actions before it stay applied, are
// persisted and notified, and the result still carries their acks together
// with ErrInsufficientBalance. Actions whose action id is already logged
// are acknowledged with the original transaction and not applied again.
// On ErrServiceUnavailable the result holds the balance that could not be
// stored.
func (e *Engine) Play(ctx context.Context, batch Batch) (PlayResult, error) {
	defer e.metrics.observeBatch(time.Now())

	err := batch.validate()
	if err != nil {
		return PlayResult{}, err
	}

	unlock := e.locks.lock(batch.UserID)
	defer unlock()

	balance, err := e.readBalance(ctx, batch.UserID)
	if err != nil {
		return PlayResult{}, err
	}

	result := PlayResult{
		GameID:       batch.GameID,
		Transactions: make([]Ack, 0, len(batch.Actions)),
	}

	var (
		applied  int
		rejected error
	)

	for i, action := range batch.Actions {
		ack, ok := e.alreadyApplied(ctx, batch.UserID, action)
		if ok {
			e.metrics.action(action.Kind, outcomeDuplicate)
			result.Transactions = append(result.Transactions, ack)

			continue
		}

		next, err := applyDelta(balance, action)
		if err != nil {
			e.metrics.action(action.Kind, outcomeRejected)
			rejected = fmt.Errorf("action %d (%s): %w", i, action.ActionID, err)

			break
		}

		balance = next

		entry := transactions.Entry{
			ID:        e.ids.Next(action.Kind.entryKind()),
			UserID:    batch.UserID,
			Amount:    signedAmount(action),
			Kind:      action.Kind.entryKind(),
			GameID:    batch.GameID,
			ActionID:  action.ActionID,
			CreatedAt: e.now().UTC(),
		}
		e.appendEntry(ctx, entry)

		result.Transactions = append(result.Transactions, Ack{
			ActionID:    action.ActionID,
			TxID:        entry.ID,
			ProcessedAt: entry.CreatedAt,
		})
		applied++

		e.metrics.action(action.Kind, outcomeApplied)
	}

	result.Balance = balance

	if applied > 0 {
		err = e.commit(ctx, batch.UserID, balance)
		if err != nil {
			return result, err
		}
	}

	if rejected != nil {
		return result, rejected
	}

	return result, nil
}

// Rollback reverses a logged entry by appending its negation. Rolling back
// the same transaction twice applies the reversal twice.
func (e *Engine) Rollback(ctx context.Context, req RollbackRequest) (RollbackResult, error) {
	if req.UserID == "" || req.TransactionID == "" {
		e.metrics.rollback(outcomeRejected)
		return RollbackResult{}, fmt.Errorf("missing user or transaction id: %w", ErrInvalidRequest)
	}

	unlock := e.locks.lock(req.UserID)
	defer unlock()

	original, err := e.findEntry(ctx, req.UserID, req.TransactionID)
	if err != nil {
		return RollbackResult{}, err
	}

	if req.Amount != 0 && req.Amount != abs(original.Amount) {
		slog.WarnContext(ctx, "rollback amount differs from logged entry",
			"user_id", req.UserID,
			"tx_id", original.ID,
			"claimed", req.Amount,
			"logged", original.Amount)
	}

	balance, err := e.readBalance(ctx, req.UserID)
	if err != nil {
		e.metrics.rollback(outcomeFailed)
		return RollbackResult{}, err
	}

	reversal := -original.Amount

	next, err := addChecked(balance, reversal)
	if err != nil {
		e.metrics.rollback(outcomeRejected)
		return RollbackResult{UserID: req.UserID, Balance: balance},
			fmt.Errorf("rollback %s: %w", original.ID, err)
	}

	e.appendEntry(ctx, transactions.Entry{
		ID:        e.ids.Next(transactions.KindRollback),
		UserID:    req.UserID,
		Amount:    reversal,
		Kind:      transactions.KindRollback,
		GameID:    original.GameID,
		RefID:     original.ID,
		CreatedAt: e.now().UTC(),
	})

	result := RollbackResult{UserID: req.UserID, Balance: next}

	err = e.commit(ctx, req.UserID, next)
	if err != nil {
		e.metrics.rollback(outcomeFailed)
		return result, err
	}

	e.metrics.rollback(outcomeApplied)

	return result, nil
}

// Balance reads the current balance without taking the user's lock. It is
// the only path that degrades: an unreachable store reports the opening
// balance instead of failing. Play and Rollback never do.
func (e *Engine) Balance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("missing user id: %w", ErrInvalidRequest)
	}

	balance, err := e.readBalance(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "balance store unavailable, reporting opening balance",
			"user_id", userID,
			"error", err)

		return e.opening, nil
	}

	return balance, nil
}

// History returns up to limit entries, most recent first. Limits outside
// (0, MaxHistoryLimit] fall back to the configured default or are capped.
func (e *Engine) History(ctx context.Context, userID string, limit int) ([]transactions.Entry, error) {
	if userID == "" {
		return nil, fmt.Errorf("missing user id: %w", ErrInvalidRequest)
	}

	switch {
	case limit <= 0:
		limit = e.historyLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	sctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	entries, err := e.log.List(sctx, userID, limit)
	if err != nil {
		e.metrics.storeError("list")
		return nil, fmt.Errorf("list transactions: %w: %w", ErrServiceUnavailable, err)
	}

	return entries, nil
}

// readBalance fails closed on every store error except a missing record.
func (e *Engine) readBalance(ctx context.Context, userID string) (int64, error) {
	sctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	balance, err := e.balances.Get(sctx, userID)
	if err != nil {
		e.metrics.storeError("get_balance")
		return 0, fmt.Errorf("get balance: %w: %w", ErrServiceUnavailable, err)
	}

	return balance, nil
}

// commit stores the balance and, only once it is stored, notifies.
func (e *Engine) commit(ctx context.Context, userID string, balance int64) error {
	sctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	err := e.balances.Set(sctx, userID, balance)
	if err != nil {
		e.metrics.storeError("set_balance")
		slog.ErrorContext(ctx, "balance not persisted, needs reconciliation",
			"user_id", userID,
			"balance", balance,
			"error", err)

		return fmt.Errorf("set balance: %w: %w", ErrServiceUnavailable, err)
	}

	e.notifier.Notify(ctx, userID, balance)

	return nil
}

// appendEntry never fails the caller: a lost log entry degrades the audit
// trail, the balance stays authoritative.
func (e *Engine) appendEntry(ctx context.Context, entry transactions.Entry) {
	sctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	err := e.log.Append(sctx, entry)
	if err != nil {
		e.metrics.storeError("append")
		slog.ErrorContext(ctx, "transaction log append failed",
			"user_id", entry.UserID,
			"tx_id", entry.ID,
			"kind", entry.Kind,
			"amount", entry.Amount,
			"error", err)
	}
}

func (e *Engine) alreadyApplied(ctx context.Context, userID string, action Action) (Ack, bool) {
	if action.ActionID == "" {
		return Ack{}, false
	}

	sctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	entry, err := e.log.FindByActionID(sctx, userID, action.ActionID)
	if err != nil {
		if !errors.Is(err, transactions.ErrNotFound) {
			e.metrics.storeError("find_action")
			slog.WarnContext(ctx, "action id lookup failed, applying action",
				"user_id", userID,
				"action_id", action.ActionID,
				"error", err)
		}

		return Ack{}, false
	}

	if entry.Kind != action.Kind.entryKind() || entry.Amount != signedAmount(action) {
		slog.WarnContext(ctx, "replayed action differs from logged entry",
			"user_id", userID,
			"action_id", action.ActionID,
			"tx_id", entry.ID)
	}

	return Ack{ActionID: action.ActionID, TxID: entry.ID, ProcessedAt: entry.CreatedAt}, true
}

func (e *Engine) findEntry(ctx context.Context, userID, txID string) (transactions.Entry, error) {
	sctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	entry, err := e.log.FindByID(sctx, userID, txID)
	if err != nil {
		if errors.Is(err, transactions.ErrNotFound) {
			e.metrics.rollback(outcomeNotFound)
			return transactions.Entry{}, fmt.Errorf("transaction %s: %w", txID, ErrTransactionNotFound)
		}

		e.metrics.storeError("find")
		e.metrics.rollback(outcomeFailed)

		return transactions.Entry{}, fmt.Errorf("find transaction: %w: %w", ErrServiceUnavailable, err)
	}

	return entry, nil
}

func signedAmount(a Action) int64 {
	if a.Kind == ActionBet {
		return -a.Amount
	}

	return a.Amount
}

func applyDelta(balance int64, a Action) (int64, error) {
	return addChecked(balance, signedAmount(a))
}

// addChecked returns balance+delta, refusing negative results and overflow.
func addChecked(balance, delta int64) (int64, error) {
	if delta < 0 && balance+delta < 0 {
		return balance, ErrInsufficientBalance
	}

	if delta > 0 && balance > math.MaxInt64-delta {
		return balance, fmt.Errorf("balance overflow: %w", ErrInvalidRequest)
	}

	return balance + delta, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}

	return v
}
