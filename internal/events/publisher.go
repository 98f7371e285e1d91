package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akylbek/payment-system/topup-store/internal/models"
)

// TransactionEvent is published when a transaction is created or changes status.
type TransactionEvent struct {
	TransactionID  int64                    `json:"transaction_id"`
	OrderID        string                   `json:"order_id"`
	UserID         int64                    `json:"user_id"`
	Type           models.TransactionType   `json:"type"`
	Status         models.TransactionStatus `json:"status"`
	PreviousStatus models.TransactionStatus `json:"previous_status,omitempty"`
	Amount         decimal.Decimal          `json:"amount"`
	Currency       string                   `json:"currency"`
	PaymentMethod  string                   `json:"payment_method,omitempty"`
	Timestamp      time.Time                `json:"timestamp"`
}

// GameEvent is published after an administrator writes a game.
type GameEvent struct {
	GameID    int64     `json:"game_id"`
	Slug      string    `json:"slug"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEvent(tx *models.Transaction, previous models.TransactionStatus) TransactionEvent {
	ev := TransactionEvent{
		TransactionID:  tx.ID,
		OrderID:        tx.OrderID,
		UserID:         tx.UserID,
		Type:           tx.Type,
		Status:         tx.Status,
		PreviousStatus: previous,
		Amount:         tx.Amount,
		Currency:       tx.Currency,
		Timestamp:      time.Now().UTC(),
	}
	if tx.PaymentMethod != nil {
		ev.PaymentMethod = *tx.PaymentMethod
	}
	return ev
}

func encode(payload interface{}) ([]byte, error) {
	if b, ok := payload.([]byte); ok {
		return b, nil
	}
	return json.Marshal(payload)
}

// NopPublisher drops every event. It is used when no bus is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, interface{}) error { return nil }

func (NopPublisher) Close() error { return nil }
