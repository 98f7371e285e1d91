package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/topup-store/internal/interfaces"
	"github.com/akylbek/payment-system/topup-store/internal/models"
)

func TestPaySuccessSetsPaidAt(t *testing.T) {
	f := newFixture(t)
	sim := f.simulator(always(true), true)
	created := f.create(t, 1)

	tx, outcome, err := sim.Pay(context.Background(), created.ID, 1, PayInput{
		PaymentMethod:  "qris",
		PaymentDetails: &models.PaymentDetails{Provider: "Any QRIS App"},
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, models.StatusSuccess, tx.Status)
	require.NotNil(t, tx.PaidAt)
	require.NotNil(t, tx.PaymentMethod)
	assert.Equal(t, "qris", *tx.PaymentMethod)
	require.NotNil(t, tx.PaymentDetails)
	assert.Equal(t, "Any QRIS App", tx.PaymentDetails.Provider)

	assert.Equal(t, []string{
		interfaces.TopicTransactionCreated,
		interfaces.TopicTransactionStatusChanged,
	}, f.publisher.topics())

	_, err = f.ledger.Get(context.Background(), created.ID, 2)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPayFailureLeavesPaidAtEmpty(t *testing.T) {
	f := newFixture(t)
	sim := f.simulator(always(false), true)
	created := f.create(t, 1)

	tx, outcome, err := sim.Pay(context.Background(), created.ID, 1, PayInput{PaymentMethod: "bank_transfer"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, outcome)
	assert.Equal(t, models.StatusFailed, tx.Status)
	assert.Nil(t, tx.PaidAt)
	require.NotNil(t, tx.PaymentMethod)
	assert.Equal(t, "bank_transfer", *tx.PaymentMethod)
}

func TestPayRejectsOtherUsers(t *testing.T) {
	f := newFixture(t)
	outcomes := &sequenceOutcome{outcomes: []bool{true}}
	sim := f.simulator(outcomes, true)
	created := f.create(t, 1)

	_, _, err := sim.Pay(context.Background(), created.ID, 2, PayInput{PaymentMethod: "qris"})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Zero(t, outcomes.count())

	stored, err := f.ledger.Get(context.Background(), created.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)

	_, _, err = sim.Pay(context.Background(), 4040, 1, PayInput{PaymentMethod: "qris"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPayValidatesMethod(t *testing.T) {
	tests := []struct {
		name   string
		method string
		msg    string
	}{
		{"missing", "", "Please select a payment method."},
		{"unknown", "cash", "The selected payment method is invalid."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			outcomes := &sequenceOutcome{outcomes: []bool{true}}
			sim := f.simulator(outcomes, true)
			created := f.create(t, 1)

			_, _, err := sim.Pay(context.Background(), created.ID, 1, PayInput{PaymentMethod: tt.method})
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.msg, ve.Fields["payment_method"])
			assert.Zero(t, outcomes.count())
		})
	}
}

func TestPayOnSuccessfulTransactionIsNoop(t *testing.T) {
	f := newFixture(t)
	outcomes := &sequenceOutcome{outcomes: []bool{true, false}}
	sim := f.simulator(outcomes, true)
	created := f.create(t, 1)
	ctx := context.Background()

	first, outcome, err := sim.Pay(ctx, created.ID, 1, PayInput{PaymentMethod: "ewallet"})
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, outcome)

	second, outcome, err := sim.Pay(ctx, created.ID, 1, PayInput{PaymentMethod: "credit_card"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, outcome)
	assert.Equal(t, 1, outcomes.count(), "no outcome drawn for a settled transaction")

	assert.Equal(t, models.StatusSuccess, second.Status)
	assert.Equal(t, *first.PaidAt, *second.PaidAt)
	assert.Equal(t, "ewallet", *second.PaymentMethod)
}

func TestPayOnSettledTransactionSkipsInputValidation(t *testing.T) {
	f := newFixture(t)
	outcomes := &sequenceOutcome{outcomes: []bool{true}}
	sim := f.simulator(outcomes, true)
	created := f.create(t, 1)
	ctx := context.Background()

	_, _, err := sim.Pay(ctx, created.ID, 1, PayInput{PaymentMethod: "qris"})
	require.NoError(t, err)

	for _, method := range []string{"", "cash"} {
		tx, outcome, err := sim.Pay(ctx, created.ID, 1, PayInput{PaymentMethod: method})
		require.NoError(t, err, method)
		assert.Equal(t, OutcomeNoop, outcome)
		assert.Equal(t, models.StatusSuccess, tx.Status)
	}
	assert.Equal(t, 1, outcomes.count())
}

func TestPayRetryOfFailedFollowsPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed", func(t *testing.T) {
		f := newFixture(t)
		sim := f.simulator(&sequenceOutcome{outcomes: []bool{false, true}}, true)
		created := f.create(t, 1)

		_, outcome, err := sim.Pay(ctx, created.ID, 1, PayInput{PaymentMethod: "qris"})
		require.NoError(t, err)
		require.Equal(t, OutcomeFailed, outcome)

		tx, outcome, err := sim.Pay(ctx, created.ID, 1, PayInput{PaymentMethod: "qris"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeSuccess, outcome)
		assert.Equal(t, models.StatusSuccess, tx.Status)
		assert.NotNil(t, tx.PaidAt)
	})

	t.Run("disallowed", func(t *testing.T) {
		f := newFixture(t)
		outcomes := &sequenceOutcome{outcomes: []bool{false, true}}
		sim := f.simulator(outcomes, false)
		created := f.create(t, 1)

		_, outcome, err := sim.Pay(ctx, created.ID, 1, PayInput{PaymentMethod: "qris"})
		require.NoError(t, err)
		require.Equal(t, OutcomeFailed, outcome)

		tx, outcome, err := sim.Pay(ctx, created.ID, 1, PayInput{PaymentMethod: "qris"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoop, outcome)
		assert.Equal(t, models.StatusFailed, tx.Status)
		assert.Equal(t, 1, outcomes.count())
	})
}

// racingRepo settles the transaction with a competing result just before the
// simulator's own conditional write lands.
type racingRepo struct {
	interfaces.TransactionRepository
	winner models.PaymentResult
}

func (r *racingRepo) ApplyPayment(ctx context.Context, id int64, from models.TransactionStatus, result models.PaymentResult) (int64, error) {
	if _, err := r.TransactionRepository.ApplyPayment(ctx, id, from, r.winner); err != nil {
		return 0, err
	}
	return r.TransactionRepository.ApplyPayment(ctx, id, from, result)
}

func TestPayLosingRaceReturnsWinnerAsNoop(t *testing.T) {
	tests := []struct {
		name   string
		winner models.PaymentResult
	}{
		{"winner succeeded", models.PaymentResult{Status: models.StatusSuccess, PaymentMethod: "ewallet"}},
		{"winner failed", models.PaymentResult{Status: models.StatusFailed, PaymentMethod: "ewallet"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			created := f.create(t, 1)

			repo := &racingRepo{TransactionRepository: f.store.Transactions(), winner: tt.winner}
			sim := NewPaymentSimulator(repo, always(true), f.publisher, true)

			tx, outcome, err := sim.Pay(context.Background(), created.ID, 1, PayInput{PaymentMethod: "qris"})
			require.NoError(t, err)
			assert.Equal(t, OutcomeNoop, outcome)
			assert.Equal(t, tt.winner.Status, tx.Status)
			assert.Equal(t, "ewallet", *tx.PaymentMethod)
			assert.Nil(t, tx.PaidAt)
			assert.NotContains(t, f.publisher.topics(), interfaces.TopicTransactionStatusChanged)
		})
	}
}

// lockstepRepo holds the first n reads until all n have arrived, so every
// caller observes the same status before any of them writes.
type lockstepRepo struct {
	interfaces.TransactionRepository
	reads   int64
	n       int64
	arrived sync.WaitGroup
}

func newLockstepRepo(repo interfaces.TransactionRepository, n int) *lockstepRepo {
	r := &lockstepRepo{TransactionRepository: repo, n: int64(n)}
	r.arrived.Add(n)
	return r
}

func (r *lockstepRepo) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	tx, err := r.TransactionRepository.GetByID(ctx, id)
	if atomic.AddInt64(&r.reads, 1) <= r.n {
		r.arrived.Done()
		r.arrived.Wait()
	}
	return tx, err
}

func TestConcurrentPaySettlesOnce(t *testing.T) {
	tests := []struct {
		name       string
		success    bool
		allowRetry bool
		want       PaymentOutcome
	}{
		{"success without retry", true, false, OutcomeSuccess},
		{"success with retry", true, true, OutcomeSuccess},
		{"failure with retry", false, true, OutcomeFailed},
		{"failure without retry", false, false, OutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const callers = 20
			f := newFixture(t)
			created := f.create(t, 1)
			repo := newLockstepRepo(f.store.Transactions(), callers)
			sim := NewPaymentSimulator(repo, always(tt.success), f.publisher, tt.allowRetry)

			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				outcomes = map[PaymentOutcome]int{}
			)
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, outcome, err := sim.Pay(context.Background(), created.ID, 1, PayInput{PaymentMethod: "qris"})
					assert.NoError(t, err)
					mu.Lock()
					outcomes[outcome]++
					mu.Unlock()
				}()
			}
			wg.Wait()

			assert.Equal(t, map[PaymentOutcome]int{tt.want: 1, OutcomeNoop: callers - 1}, outcomes)

			changed := 0
			for _, topic := range f.publisher.topics() {
				if topic == interfaces.TopicTransactionStatusChanged {
					changed++
				}
			}
			assert.Equal(t, 1, changed)
		})
	}
}

func TestSimulatedSuccessRate(t *testing.T) {
	f := newFixture(t)
	f.ledger = NewLedger(f.store.Transactions(), &sequentialOrderIDs{}, f.publisher, 10)
	sim := f.simulator(NewRandomOutcome(0.8, rand.New(rand.NewSource(20261015))), false)
	ctx := context.Background()

	const n = 10000
	successes := 0
	seen := map[models.TransactionStatus]bool{}
	for i := 0; i < n; i++ {
		created := f.create(t, 1)
		tx, outcome, err := sim.Pay(ctx, created.ID, 1, PayInput{PaymentMethod: "qris"})
		require.NoError(t, err)
		require.NotEqual(t, OutcomeNoop, outcome)
		if outcome == OutcomeSuccess {
			successes++
		}
		seen[tx.Status] = true
	}

	rate := float64(successes) / n
	assert.InDelta(t, 0.8, rate, 0.02)

	assert.False(t, seen[models.StatusProcessing])
	assert.False(t, seen[models.StatusCancelled])
	assert.False(t, seen[models.StatusPending])
}

func TestCheckoutAndReceipt(t *testing.T) {
	f := newFixture(t)
	sim := f.simulator(always(false), false)
	created := f.create(t, 1)
	ctx := context.Background()

	_, payable, err := sim.Checkout(ctx, created.ID, 1)
	require.NoError(t, err)
	assert.True(t, payable)

	_, ok, err := sim.Receipt(ctx, created.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = sim.Pay(ctx, created.ID, 1, PayInput{PaymentMethod: "qris"})
	require.NoError(t, err)

	_, payable, err = sim.Checkout(ctx, created.ID, 1)
	require.NoError(t, err)
	assert.False(t, payable, "failed is terminal without retry")

	_, _, err = sim.Checkout(ctx, created.ID, 2)
	assert.ErrorIs(t, err, ErrForbidden)
	_, _, err = sim.Receipt(ctx, created.ID, 2)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPayableNeverIncludesReservedStatuses(t *testing.T) {
	for _, allow := range []bool{true, false} {
		sim := NewPaymentSimulator(nil, always(true), nil, allow)
		assert.False(t, sim.Payable(models.StatusProcessing))
		assert.False(t, sim.Payable(models.StatusCancelled))
		assert.False(t, sim.Payable(models.StatusSuccess))
		assert.True(t, sim.Payable(models.StatusPending))
		assert.Equal(t, allow, sim.Payable(models.StatusFailed))
	}
}
