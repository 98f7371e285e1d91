package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/topup-store/internal/events"
	"github.com/akylbek/payment-system/topup-store/internal/interfaces"
	"github.com/akylbek/payment-system/topup-store/internal/models"
	"github.com/akylbek/payment-system/topup-store/internal/telemetry"
)

// StatusFilterAll disables status filtering in List.
const StatusFilterAll = "all"

type CreateTransactionInput struct {
	Type        string          `json:"type" validate:"required,oneof=game_topup voucher"`
	ItemName    string          `json:"item_name" validate:"required,max=255"`
	ItemDetails json.RawMessage `json:"item_details"`
	Amount      decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Currency    string          `json:"currency" validate:"omitempty,alpha,len=3"`
}

var createTransactionMessages = map[string]string{
	"type.required":      "Transaction type is required.",
	"type.oneof":         "Invalid transaction type.",
	"item_name.required": "Item name is required.",
	"amount.required":    "Amount is required.",
	"amount.gt":          "Amount must be greater than 0.",
}

// Ledger creates transactions and reads them back for their owner.
type Ledger struct {
	repo      interfaces.TransactionRepository
	orderIDs  OrderIDSource
	publisher interfaces.EventPublisher
	pageSize  int
}

func NewLedger(
	repo interfaces.TransactionRepository,
	orderIDs OrderIDSource,
	publisher interfaces.EventPublisher,
	pageSize int,
) *Ledger {
	if pageSize < 1 {
		pageSize = 10
	}
	return &Ledger{
		repo:      repo,
		orderIDs:  orderIDs,
		publisher: publisher,
		pageSize:  pageSize,
	}
}

// Create stores a new pending transaction owned by userID.
func (l *Ledger) Create(ctx context.Context, userID int64, in CreateTransactionInput) (*models.Transaction, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "ledger.Create")
	defer span.End()

	details, err := validateCreate(in)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(in.Currency)
	if currency == "" {
		currency = models.DefaultCurrency
	}

	tx := &models.Transaction{
		OrderID:     l.orderIDs.Next(),
		UserID:      userID,
		Type:        models.TransactionType(in.Type),
		ItemName:    in.ItemName,
		ItemDetails: details,
		Amount:      in.Amount,
		Currency:    currency,
		Status:      models.StatusPending,
	}

	if err := l.repo.Insert(ctx, tx); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			telemetry.Logger.Error("Order id collision",
				zap.String("order_id", tx.OrderID),
				zap.Int64("user_id", userID),
			)
			return nil, fmt.Errorf("%w: %s", ErrOrderIDCollision, tx.OrderID)
		}
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	span.SetAttributes(attribute.String("order_id", tx.OrderID))
	telemetry.TransactionsCreated.WithLabelValues(string(tx.Type)).Inc()
	telemetry.Logger.Info("Transaction created",
		zap.Int64("transaction_id", tx.ID),
		zap.String("order_id", tx.OrderID),
		zap.Int64("user_id", userID),
		zap.String("type", string(tx.Type)),
		zap.String("amount", tx.Amount.String()),
	)
	publish(ctx, l.publisher, interfaces.TopicTransactionCreated, tx.OrderID, events.NewTransactionEvent(tx, ""))

	return tx, nil
}

func validateCreate(in CreateTransactionInput) (models.ItemDetails, error) {
	ve := validateStruct(in, "", createTransactionMessages)
	if ve == nil {
		ve = &ValidationError{}
	}

	var details models.ItemDetails
	switch {
	case models.IsNullJSON(in.ItemDetails):
		ve.add("item_details", "Item details are required.")
	case models.TransactionType(in.Type).Valid():
		d, err := models.DecodeItemDetails(models.TransactionType(in.Type), in.ItemDetails)
		if err != nil {
			ve.add("item_details", "Item details must be an object matching the transaction type.")
			break
		}
		details = d
		var variant interface{} = d.GameTopup
		if d.Voucher != nil {
			variant = d.Voucher
		}
		if dve := validateStruct(variant, "item_details", nil); dve != nil {
			for k, v := range dve.Fields {
				ve.add(k, v)
			}
		}
	}

	if _, failed := ve.Fields["amount"]; !failed {
		checkMoney(ve, "amount", in.Amount)
	}

	if !ve.empty() {
		return models.ItemDetails{}, ve
	}
	return details, nil
}

// Get returns the transaction if userID owns it.
func (l *Ledger) Get(ctx context.Context, id, userID int64) (*models.Transaction, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "ledger.Get")
	defer span.End()

	return loadOwned(ctx, l.repo, id, userID)
}

// List returns one page of the user's transactions, newest first. An empty
// filter or "all" returns every status.
func (l *Ledger) List(ctx context.Context, userID int64, statusFilter string, page int) ([]models.Transaction, models.PageMeta, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "ledger.List")
	defer span.End()

	var status *models.TransactionStatus
	if statusFilter != "" && statusFilter != StatusFilterAll {
		s := models.TransactionStatus(statusFilter)
		if !s.Valid() {
			return nil, models.PageMeta{}, newValidationError("status", "The selected status is invalid.")
		}
		status = &s
	}
	if page < 1 {
		page = 1
	}

	txs, total, err := l.repo.ListByUser(ctx, userID, status, l.pageSize, models.Offset(page, l.pageSize))
	if err != nil {
		return nil, models.PageMeta{}, fmt.Errorf("list transactions: %w", err)
	}
	return txs, models.NewPageMeta(page, l.pageSize, total), nil
}

func loadOwned(ctx context.Context, repo interfaces.TransactionRepository, id, userID int64) (*models.Transaction, error) {
	tx, err := repo.GetByID(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load transaction %d: %w", id, err)
	}
	if tx.UserID != userID {
		return nil, ErrForbidden
	}
	return tx, nil
}

// publish logs delivery failures instead of failing the request; the
// database row is the source of truth.
func publish(ctx context.Context, p interfaces.EventPublisher, topic, key string, payload interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, topic, key, payload); err != nil {
		telemetry.Logger.Warn("Failed to publish event",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
