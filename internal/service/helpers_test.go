package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/topup-store/internal/models"
	"github.com/akylbek/payment-system/topup-store/internal/repository"
)

type publishedEvent struct {
	Topic   string
	Key     string
	Payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Topic: topic, Key: key, Payload: payload})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Topic
	}
	return out
}

type fixedOrderIDs struct{ id string }

func (f fixedOrderIDs) Next() string { return f.id }

// sequentialOrderIDs never repeats, for tests that create more rows than the
// random suffix space comfortably holds.
type sequentialOrderIDs struct {
	mu sync.Mutex
	n  int
}

func (s *sequentialOrderIDs) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("GS20261015%06d", s.n)
}

// sequenceOutcome replays outcomes in order and counts draws.
type sequenceOutcome struct {
	mu       sync.Mutex
	outcomes []bool
	draws    int
}

func (s *sequenceOutcome) Decide() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.outcomes[s.draws%len(s.outcomes)]
	s.draws++
	return out
}

func (s *sequenceOutcome) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draws
}

func always(success bool) OutcomeFunc {
	return func() bool { return success }
}

func gameTopupInput(amount int64) CreateTransactionInput {
	details, _ := json.Marshal(map[string]interface{}{
		"game_id":       2,
		"game_name":     "Free Fire",
		"user_id":       "12345678",
		"server":        "",
		"denomination":  100,
		"currency_type": "Diamonds",
	})
	return CreateTransactionInput{
		Type:        string(models.TypeGameTopup),
		ItemName:    "Free Fire - 100 Diamonds",
		ItemDetails: details,
		Amount:      decimal.NewFromInt(amount),
		Currency:    "IDR",
	}
}

func voucherInput() CreateTransactionInput {
	return CreateTransactionInput{
		Type:        string(models.TypeVoucher),
		ItemName:    "Steam Wallet - IDR 50.000",
		ItemDetails: json.RawMessage(`{"voucher_id":1,"voucher_name":"Steam Wallet - IDR 50.000"}`),
		Amount:      decimal.NewFromInt(50000),
	}
}

type fixture struct {
	store     *repository.MemoryStore
	publisher *recordingPublisher
	ledger    *Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	pub := &recordingPublisher{}
	return &fixture{
		store:     store,
		publisher: pub,
		ledger:    NewLedger(store.Transactions(), NewOrderIDGenerator("GS", nil, nil), pub, 10),
	}
}

func (f *fixture) simulator(outcomes OutcomeSource, allowRetryFailed bool) *PaymentSimulator {
	return NewPaymentSimulator(f.store.Transactions(), outcomes, f.publisher, allowRetryFailed)
}

func (f *fixture) create(t *testing.T, userID int64) *models.Transaction {
	t.Helper()
	tx, err := f.ledger.Create(context.Background(), userID, gameTopupInput(15000))
	require.NoError(t, err)
	return tx
}
