package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/fastprodman/gamewallet/internal/repos/balances"
	membalances "github.com/fastprodman/gamewallet/internal/repos/balances/memory"
	"github.com/fastprodman/gamewallet/internal/repos/transactions"
	memtransactions "github.com/fastprodman/gamewallet/internal/repos/transactions/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const opening = 1000

type notification struct {
	UserID  string
	Balance int64
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notification
}

func (n *recordingNotifier) Notify(_ context.Context, userID string, balance int64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls = append(n.calls, notification{UserID: userID, Balance: balance})
}

func (n *recordingNotifier) snapshot() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]notification(nil), n.calls...)
}

type flakyBalances struct {
	balances.Balances
	setErr error

	mu      sync.Mutex
	getErrs []error
}

// failNextGet makes the next Get return err instead of reading the store.
func (f *flakyBalances) failNextGet(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getErrs = append(f.getErrs, err)
}

func (f *flakyBalances) Get(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	if len(f.getErrs) > 0 {
		err := f.getErrs[0]
		f.getErrs = f.getErrs[1:]
		f.mu.Unlock()

		return 0, err
	}
	f.mu.Unlock()

	return f.Balances.Get(ctx, userID)
}

func (f *flakyBalances) Set(ctx context.Context, userID string, amount int64) error {
	if f.setErr != nil {
		return f.setErr
	}

	return f.Balances.Set(ctx, userID, amount)
}

type flakyLog struct {
	transactions.Transactions
	appendErr error
	findErr   error
}

func (f *flakyLog) Append(ctx context.Context, e transactions.Entry) error {
	if f.appendErr != nil {
		return f.appendErr
	}

	return f.Transactions.Append(ctx, e)
}

func (f *flakyLog) FindByID(ctx context.Context, userID, txID string) (transactions.Entry, error) {
	if f.findErr != nil {
		return transactions.Entry{}, f.findErr
	}

	return f.Transactions.FindByID(ctx, userID, txID)
}

type fixture struct {
	engine   *Engine
	raw      balances.Balances
	log      transactions.Transactions
	notifier *recordingNotifier
	registry *prometheus.Registry
}

type fixtureOpt func(f *fixture)

func withBalances(wrap func(balances.Balances) balances.Balances) fixtureOpt {
	return func(f *fixture) { f.raw = wrap(f.raw) }
}

func withLog(wrap func(transactions.Transactions) transactions.Transactions) fixtureOpt {
	return func(f *fixture) { f.log = wrap(f.log) }
}

func newFixture(t *testing.T, opts ...fixtureOpt) *fixture {
	t.Helper()

	f := &fixture{
		raw:      membalances.New(),
		log:      memtransactions.New(),
		notifier: &recordingNotifier{},
		registry: prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(f)
	}

	ids, err := NewIDGenerator(1)
	require.NoError(t, err)

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	f.engine, err = New(f.raw, f.log, f.notifier, ids, Options{
		OpeningBalance: opening,
		StoreTimeout:   time.Second,
		Now:            func() time.Time { return clock },
		Registerer:     f.registry,
	})
	require.NoError(t, err)

	return f
}

func (f *fixture) seed(t *testing.T, userID string, balance int64) {
	t.Helper()
	require.NoError(t, f.raw.Set(t.Context(), userID, balance))
}

func (f *fixture) stored(t *testing.T, userID string) int64 {
	t.Helper()

	v, err := f.raw.Get(t.Context(), userID)
	require.NoError(t, err)

	return v
}

func (f *fixture) entries(t *testing.T, userID string) []transactions.Entry {
	t.Helper()

	es, err := f.log.List(t.Context(), userID, MaxHistoryLimit)
	require.NoError(t, err)

	return es
}

func (f *fixture) counter(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()

	mfs, err := f.registry.Gather()
	require.NoError(t, err)

	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}

	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}

			return m.GetCounter().GetValue()
		}
	}

	return 0
}

func bet(amount int64, actionID string) Action {
	return Action{Kind: ActionBet, Amount: amount, ActionID: actionID}
}

func win(amount int64, actionID string) Action {
	return Action{Kind: ActionWin, Amount: amount, ActionID: actionID}
}

func batchFor(userID string, actions ...Action) Batch {
	return Batch{UserID: userID, Currency: "EUR", Game: "slots", GameID: "round-1", Actions: actions}
}

func TestPlay_BetThenWin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	res, err := f.engine.Play(t.Context(), batchFor("u1", bet(300, "a1"), win(50, "a2")))
	require.NoError(t, err)

	assert.Equal(t, int64(750), res.Balance)
	assert.Equal(t, "round-1", res.GameID)
	require.Len(t, res.Transactions, 2)
	assert.Equal(t, "a1", res.Transactions[0].ActionID)
	assert.Equal(t, "a2", res.Transactions[1].ActionID)
	assert.Regexp(t, `^bet_\d+$`, res.Transactions[0].TxID)
	assert.Regexp(t, `^win_\d+$`, res.Transactions[1].TxID)

	assert.Equal(t, int64(750), f.stored(t, "u1"))

	es := f.entries(t, "u1")
	require.Len(t, es, 2)
	assert.Equal(t, transactions.KindWin, es[0].Kind)
	assert.Equal(t, int64(50), es[0].Amount)
	assert.Equal(t, transactions.KindBet, es[1].Kind)
	assert.Equal(t, int64(-300), es[1].Amount)
	assert.Equal(t, res.Transactions[0].TxID, es[1].ID)
	assert.Equal(t, "round-1", es[1].GameID)

	assert.Equal(t, []notification{{UserID: "u1", Balance: 750}}, f.notifier.snapshot())
	assert.Equal(t, 1.0, f.counter(t, "wallet_ledger_actions_total", map[string]string{"kind": "bet", "outcome": "applied"}))
}

func TestPlay_InsufficientBalance(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed(t, "u1", 100)

	res, err := f.engine.Play(t.Context(), batchFor("u1", bet(150, "a1")))
	require.ErrorIs(t, err, ErrInsufficientBalance)

	assert.Equal(t, int64(100), res.Balance)
	assert.Empty(t, res.Transactions)
	assert.Equal(t, int64(100), f.stored(t, "u1"))
	assert.Empty(t, f.entries(t, "u1"))
	assert.Empty(t, f.notifier.snapshot())
}

func TestPlay_BetOfExactBalanceAllowed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed(t, "u1", 100)

	res, err := f.engine.Play(t.Context(), batchFor("u1", bet(100, "a1")))
	require.NoError(t, err)
	assert.Zero(t, res.Balance)
	assert.Zero(t, f.stored(t, "u1"))
}

func TestPlay_PartialBatchKeepsEarlierActions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed(t, "u1", 100)

	res, err := f.engine.Play(t.Context(), batchFor("u1",
		bet(60, "a1"),
		bet(60, "a2"),
		win(10, "a3"),
	))
	require.ErrorIs(t, err, ErrInsufficientBalance)

	assert.Equal(t, int64(40), res.Balance)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "a1", res.Transactions[0].ActionID)

	assert.Equal(t, int64(40), f.stored(t, "u1"))
	require.Len(t, f.entries(t, "u1"), 1)
	assert.Equal(t, []notification{{UserID: "u1", Balance: 40}}, f.notifier.snapshot())
}

func TestPlay_WinsBeforeBetCountTowardsBalance(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed(t, "u1", 10)

	res, err := f.engine.Play(t.Context(), batchFor("u1", win(100, "a1"), bet(110, "a2")))
	require.NoError(t, err)
	assert.Zero(t, res.Balance)
}

func TestPlay_UnknownUserStartsAtOpeningBalance(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	got, err := f.engine.Balance(t.Context(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, int64(opening), got)

	_, err = f.raw.Get(t.Context(), "fresh")
	require.ErrorIs(t, err, balances.ErrNotFound)

	_, err = f.engine.Play(t.Context(), batchFor("fresh", win(1, "a1")))
	require.NoError(t, err)
	assert.Equal(t, int64(opening+1), f.stored(t, "fresh"))
}

func TestPlay_EmptyBatchIsBalanceProbe(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed(t, "u1", 321)

	res, err := f.engine.Play(t.Context(), batchFor("u1"))
	require.NoError(t, err)
	assert.Equal(t, int64(321), res.Balance)
	assert.Empty(t, res.Transactions)
	assert.Empty(t, f.notifier.snapshot())

	_, err = f.engine.Play(t.Context(), batchFor("nobody"))
	require.NoError(t, err)

	_, err = f.raw.Get(t.Context(), "nobody")
	require.ErrorIs(t, err, balances.ErrNotFound)
}

func TestPlay_ReplayedActionIDNotAppliedTwice(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	first, err := f.engine.Play(t.Context(), batchFor("u1", bet(300, "a1")))
	require.NoError(t, err)

	second, err := f.engine.Play(t.Context(), batchFor("u1", bet(300, "a1"), win(20, "a2")))
	require.NoError(t, err)

	assert.Equal(t, int64(720), second.Balance)
	require.Len(t, second.Transactions, 2)
	assert.Equal(t, first.Transactions[0], second.Transactions[0])
	assert.Len(t, f.entries(t, "u1"), 2)

	third, err := f.engine.Play(t.Context(), batchFor("u1", bet(300, "a1"), win(20, "a2")))
	require.NoError(t, err)
	assert.Equal(t, int64(720), third.Balance)
	assert.Len(t, f.notifier.snapshot(), 2)
	assert.Equal(t, 2.0, f.counter(t, "wallet_ledger_actions_total", map[string]string{"kind": "bet", "outcome": "duplicate"}))
}

func TestPlay_InvalidBatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		batch Batch
	}{
		{name: "missing_user", batch: batchFor("", bet(1, "a1"))},
		{name: "zero_amount", batch: batchFor("u1", bet(0, "a1"))},
		{name: "negative_amount", batch: batchFor("u1", win(-5, "a1"))},
		{name: "unknown_kind", batch: batchFor("u1", Action{Kind: "refund", Amount: 1})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)

			_, err := f.engine.Play(t.Context(), tt.batch)
			require.ErrorIs(t, err, ErrInvalidRequest)
			assert.Empty(t, f.notifier.snapshot())
		})
	}
}

func TestPlay_WinOverflowRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed(t, "u1", 1<<62)

	_, err := f.engine.Play(t.Context(), batchFor("u1", win(1<<62, "a1"), win(1<<62, "a2")))
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, int64(1<<62), f.stored(t, "u1"))
}

func TestPlay_StoreWriteFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, withBalances(func(b balances.Balances) balances.Balances {
		return &flakyBalances{Balances: b, setErr: errors.New("redis: connection refused")}
	}))

	res, err := f.engine.Play(t.Context(), batchFor("u1", bet(300, "a1")))
	require.ErrorIs(t, err, ErrServiceUnavailable)

	assert.Equal(t, int64(700), res.Balance)
	assert.Empty(t, f.notifier.snapshot())
	assert.Equal(t, 1.0, f.counter(t, "wallet_ledger_store_errors_total", map[string]string{"op": "set_balance"}))
}

func TestPlay_BalanceReadFailureFailsClosed(t *testing.T) {
	t.Parallel()

	flaky := &flakyBalances{}
	f := newFixture(t, withBalances(func(b balances.Balances) balances.Balances {
		flaky.Balances = b
		return flaky
	}))
	f.seed(t, "u1", 0)

	flaky.failNextGet(errors.New("i/o timeout"))

	res, err := f.engine.Play(t.Context(), batchFor("u1", bet(500, "a1")))
	require.ErrorIs(t, err, ErrServiceUnavailable)

	assert.Empty(t, res.Transactions)
	assert.Equal(t, int64(0), f.stored(t, "u1"))
	assert.Empty(t, f.entries(t, "u1"))
	assert.Empty(t, f.notifier.snapshot())
	assert.Equal(t, 1.0, f.counter(t, "wallet_ledger_store_errors_total", map[string]string{"op": "get_balance"}))
}

func TestPlay_LogAppendFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	f := newFixture(t, withLog(func(l transactions.Transactions) transactions.Transactions {
		return &flakyLog{Transactions: l, appendErr: errors.New("disk full")}
	}))

	res, err := f.engine.Play(t.Context(), batchFor("u1", bet(300, "a1"), win(50, "a2")))
	require.NoError(t, err)

	assert.Equal(t, int64(750), res.Balance)
	assert.Equal(t, int64(750), f.stored(t, "u1"))
	assert.Len(t, res.Transactions, 2)
	assert.Len(t, f.notifier.snapshot(), 1)
}

func TestPlay_FinalBalanceMatchesAppliedActions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rng := rand.New(rand.NewPCG(7, 11))

	var (
		want    int64 = opening
		applied int
	)

	for i := range 200 {
		amount := rng.Int64N(400) + 1

		action := win(amount, fmt.Sprintf("w%d", i))
		if rng.IntN(2) == 0 {
			action = bet(amount, fmt.Sprintf("b%d", i))
		}

		res, err := f.engine.Play(t.Context(), batchFor("u1", action))

		if action.Kind == ActionBet && amount > want {
			require.ErrorIs(t, err, ErrInsufficientBalance, "step %d", i)
			assert.Equal(t, want, res.Balance)

			continue
		}

		require.NoError(t, err, "step %d", i)

		want += signedAmount(action)
		applied++

		assert.Equal(t, want, res.Balance)
	}

	assert.Equal(t, want, f.stored(t, "u1"))
	assert.Len(t, f.entries(t, "u1"), applied)
}

func TestRollback_ReversesBet(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	play, err := f.engine.Play(t.Context(), batchFor("u1", bet(300, "a1"), win(50, "a2")))
	require.NoError(t, err)
	require.Equal(t, int64(750), play.Balance)

	t1 := play.Transactions[0].TxID

	res, err := f.engine.Rollback(t.Context(), RollbackRequest{UserID: "u1", TransactionID: t1, Amount: 300})
	require.NoError(t, err)

	assert.Equal(t, RollbackResult{UserID: "u1", Balance: 1050}, res)
	assert.Equal(t, int64(1050), f.stored(t, "u1"))

	es := f.entries(t, "u1")
	require.Len(t, es, 3)
	assert.Equal(t, transactions.KindRollback, es[0].Kind)
	assert.Equal(t, int64(300), es[0].Amount)
	assert.Equal(t, t1, es[0].RefID)
	assert.Regexp(t, `^rollback_\d+$`, es[0].ID)

	assert.Equal(t, notification{UserID: "u1", Balance: 1050}, f.notifier.snapshot()[1])
}

func TestRollback_ReversesWin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	play, err := f.engine.Play(t.Context(), batchFor("u1", win(200, "a1")))
	require.NoError(t, err)

	res, err := f.engine.Rollback(t.Context(), RollbackRequest{UserID: "u1", TransactionID: play.Transactions[0].TxID})
	require.NoError(t, err)
	assert.Equal(t, int64(opening), res.Balance)
}

func TestRollback_WinReversalCannotGoNegative(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	play, err := f.engine.Play(t.Context(), batchFor("u1", win(500, "a1")))
	require.NoError(t, err)

	_, err = f.engine.Play(t.Context(), batchFor("u1", bet(1400, "a2")))
	require.NoError(t, err)

	_, err = f.engine.Rollback(t.Context(), RollbackRequest{UserID: "u1", TransactionID: play.Transactions[0].TxID})
	require.ErrorIs(t, err, ErrInsufficientBalance)

	assert.Equal(t, int64(100), f.stored(t, "u1"))
	assert.Len(t, f.entries(t, "u1"), 2)
}

func TestRollback_RepeatedRollbackAppliesAgain(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	play, err := f.engine.Play(t.Context(), batchFor("u1", bet(100, "a1")))
	require.NoError(t, err)

	req := RollbackRequest{UserID: "u1", TransactionID: play.Transactions[0].TxID, Amount: 100}

	_, err = f.engine.Rollback(t.Context(), req)
	require.NoError(t, err)

	res, err := f.engine.Rollback(t.Context(), req)
	require.NoError(t, err)

	assert.Equal(t, int64(1100), res.Balance)
	assert.Len(t, f.entries(t, "u1"), 3)
}

func TestRollback_ClaimedAmountIsIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	play, err := f.engine.Play(t.Context(), batchFor("u1", bet(100, "a1")))
	require.NoError(t, err)

	res, err := f.engine.Rollback(t.Context(), RollbackRequest{
		UserID:        "u1",
		TransactionID: play.Transactions[0].TxID,
		Amount:        999999,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(opening), res.Balance)
}

func TestRollback_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []fixtureOpt
		req     RollbackRequest
		wantErr error
	}{
		{
			name:    "unknown_transaction",
			req:     RollbackRequest{UserID: "u1", TransactionID: "bet_1"},
			wantErr: ErrTransactionNotFound,
		},
		{
			name:    "missing_transaction_id",
			req:     RollbackRequest{UserID: "u1"},
			wantErr: ErrInvalidRequest,
		},
		{
			name: "log_unavailable",
			opts: []fixtureOpt{withLog(func(l transactions.Transactions) transactions.Transactions {
				return &flakyLog{Transactions: l, findErr: context.DeadlineExceeded}
			})},
			req:     RollbackRequest{UserID: "u1", TransactionID: "bet_1"},
			wantErr: ErrServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, tt.opts...)

			_, err := f.engine.Rollback(t.Context(), tt.req)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.notifier.snapshot())
		})
	}
}

func TestRollback_BalanceReadFailureFailsClosed(t *testing.T) {
	t.Parallel()

	flaky := &flakyBalances{}
	f := newFixture(t, withBalances(func(b balances.Balances) balances.Balances {
		flaky.Balances = b
		return flaky
	}))

	play, err := f.engine.Play(t.Context(), batchFor("u1", bet(300, "a1")))
	require.NoError(t, err)

	flaky.failNextGet(context.DeadlineExceeded)

	_, err = f.engine.Rollback(t.Context(), RollbackRequest{UserID: "u1", TransactionID: play.Transactions[0].TxID})
	require.ErrorIs(t, err, ErrServiceUnavailable)

	assert.Equal(t, int64(700), f.stored(t, "u1"))
	assert.Len(t, f.entries(t, "u1"), 1)
	assert.Len(t, f.notifier.snapshot(), 1)
}

func TestBalance_StoreDownReportsOpeningBalance(t *testing.T) {
	t.Parallel()

	flaky := &flakyBalances{}
	f := newFixture(t, withBalances(func(b balances.Balances) balances.Balances {
		flaky.Balances = b
		return flaky
	}))
	f.seed(t, "u1", 42)

	flaky.failNextGet(errors.New("connection refused"))

	got, err := f.engine.Balance(t.Context(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(opening), got)

	got, err = f.engine.Balance(t.Context(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestRollback_OtherUsersTransactionNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	play, err := f.engine.Play(t.Context(), batchFor("u1", bet(100, "a1")))
	require.NoError(t, err)

	_, err = f.engine.Rollback(t.Context(), RollbackRequest{UserID: "u2", TransactionID: play.Transactions[0].TxID})
	require.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestHistory_Limits(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	for i := range 60 {
		_, err := f.engine.Play(t.Context(), batchFor("u1", win(1, fmt.Sprintf("a%d", i))))
		require.NoError(t, err)
	}

	got, err := f.engine.History(t.Context(), "u1", 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultHistoryLimit)
	assert.Equal(t, "a59", got[0].ActionID)

	got, err = f.engine.History(t.Context(), "u1", 5)
	require.NoError(t, err)
	assert.Len(t, got, 5)

	got, err = f.engine.History(t.Context(), "u1", 10_000)
	require.NoError(t, err)
	assert.Len(t, got, 60)

	_, err = f.engine.History(t.Context(), "", 5)
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestPlay_SameUserConcurrentBatchesSerialize(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	const workers = 50

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := f.engine.Play(context.Background(), batchFor("u1",
				bet(10, fmt.Sprintf("b%d", i)),
				win(12, fmt.Sprintf("w%d", i)),
			))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(opening+2*workers), f.stored(t, "u1"))
	assert.Len(t, f.entries(t, "u1"), 2*workers)
	assert.Len(t, f.notifier.snapshot(), workers)
	assert.Zero(t, f.engine.locks.size())
}

func TestPlay_DifferentUsersDoNotBlock(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	var once sync.Once
	held := f.engine.locks.lock("busy")
	release := func() { once.Do(held) }
	defer release()

	done := make(chan error, 1)
	go func() {
		_, err := f.engine.Play(context.Background(), batchFor("free", bet(1, "a1")))
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("batch for another user blocked on a held lock")
	}

	blocked := make(chan struct{})
	go func() {
		_, _ = f.engine.Play(context.Background(), batchFor("busy", bet(1, "a1")))
		close(blocked)
	}()

	select {
	case <-blocked:
		t.Fatal("batch for the locked user did not wait")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-blocked:
	case <-time.After(2 * time.Second):
		t.Fatal("batch did not resume after unlock")
	}
}

func TestParseActionKind(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"bet", "win"} {
		k, err := ParseActionKind(in)
		require.NoError(t, err)
		assert.Equal(t, ActionKind(in), k)
	}

	for _, in := range []string{"", "BET", "rollback", "lose"} {
		_, err := ParseActionKind(in)
		require.ErrorIs(t, err, ErrInvalidRequest, in)
	}
}

func TestNew_DuplicateMetricsRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()

	ids, err := NewIDGenerator(2)
	require.NoError(t, err)

	_, err = New(membalances.New(), memtransactions.New(), &recordingNotifier{}, ids, Options{Registerer: reg})
	require.NoError(t, err)

	_, err = New(membalances.New(), memtransactions.New(), &recordingNotifier{}, ids, Options{Registerer: reg})
	require.Error(t, err)
}
