package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/topup-store/internal/events"
	"github.com/akylbek/payment-system/topup-store/internal/interfaces"
	"github.com/akylbek/payment-system/topup-store/internal/models"
	"github.com/akylbek/payment-system/topup-store/internal/telemetry"
)

type PaymentOutcome string

const (
	OutcomeSuccess PaymentOutcome = "success"
	OutcomeFailed  PaymentOutcome = "failed"
	// OutcomeNoop means the transaction was not payable and nothing was written.
	OutcomeNoop PaymentOutcome = "noop"
)

type PaymentMethod struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Providers   []string `json:"providers"`
}

var PaymentMethods = []PaymentMethod{
	{ID: "bank_transfer", Name: "Bank Transfer", Description: "Transfer via BCA, Mandiri, BNI, BRI", Providers: []string{"BCA", "Mandiri", "BNI", "BRI"}},
	{ID: "qris", Name: "QRIS", Description: "Scan QR code with any e-wallet", Providers: []string{"Any QRIS App"}},
	{ID: "ewallet", Name: "E-Wallet", Description: "Pay with digital wallet", Providers: []string{"OVO", "GoPay", "DANA", "LinkAja"}},
	{ID: "credit_card", Name: "Credit Card", Description: "Visa, Mastercard, JCB", Providers: []string{"Visa", "Mastercard", "JCB"}},
}

func knownPaymentMethod(id string) bool {
	for _, m := range PaymentMethods {
		if m.ID == id {
			return true
		}
	}
	return false
}

type PayInput struct {
	PaymentMethod  string                 `json:"payment_method" validate:"required,max=50"`
	PaymentDetails *models.PaymentDetails `json:"payment_details"`
}

var payMessages = map[string]string{
	"payment_method.required": "Please select a payment method.",
}

// PaymentSimulator settles pending transactions with a drawn outcome instead
// of a real gateway.
type PaymentSimulator struct {
	repo             interfaces.TransactionRepository
	outcomes         OutcomeSource
	publisher        interfaces.EventPublisher
	allowRetryFailed bool
	now              func() time.Time
}

func NewPaymentSimulator(
	repo interfaces.TransactionRepository,
	outcomes OutcomeSource,
	publisher interfaces.EventPublisher,
	allowRetryFailed bool,
) *PaymentSimulator {
	return &PaymentSimulator{
		repo:             repo,
		outcomes:         outcomes,
		publisher:        publisher,
		allowRetryFailed: allowRetryFailed,
		now:              time.Now,
	}
}

// payableStatuses are the statuses Pay may move a transaction out of.
// failed is included when retrying failed payments is allowed.
func (p *PaymentSimulator) payableStatuses() []models.TransactionStatus {
	if p.allowRetryFailed {
		return []models.TransactionStatus{models.StatusPending, models.StatusFailed}
	}
	return []models.TransactionStatus{models.StatusPending}
}

func (p *PaymentSimulator) Payable(status models.TransactionStatus) bool {
	for _, s := range p.payableStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// Checkout loads the transaction for the payment page and reports whether it can be paid.
func (p *PaymentSimulator) Checkout(ctx context.Context, id, userID int64) (*models.Transaction, bool, error) {
	tx, err := loadOwned(ctx, p.repo, id, userID)
	if err != nil {
		return nil, false, err
	}
	return tx, p.Payable(tx.Status), nil
}

// Receipt loads the transaction for the receipt page and reports whether it succeeded.
func (p *PaymentSimulator) Receipt(ctx context.Context, id, userID int64) (*models.Transaction, bool, error) {
	tx, err := loadOwned(ctx, p.repo, id, userID)
	if err != nil {
		return nil, false, err
	}
	return tx, tx.Status == models.StatusSuccess, nil
}

// Pay draws one outcome for a payable transaction and writes it back with a
// single update guarded on the status Pay read. When the transaction is not
// payable, or a concurrent call moved it first, Pay returns the current row
// with OutcomeNoop.
func (p *PaymentSimulator) Pay(ctx context.Context, id, userID int64, in PayInput) (*models.Transaction, PaymentOutcome, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "payment.Pay")
	defer span.End()

	tx, err := loadOwned(ctx, p.repo, id, userID)
	if err != nil {
		return nil, "", err
	}

	if !p.Payable(tx.Status) {
		return p.noop(tx, "not payable")
	}

	if ve := validateStruct(in, "", payMessages); ve != nil {
		return nil, "", ve
	}
	if !knownPaymentMethod(in.PaymentMethod) {
		return nil, "", newValidationError("payment_method", "The selected payment method is invalid.")
	}
	if in.PaymentDetails != nil {
		if ve := validateStruct(in.PaymentDetails, "payment_details", nil); ve != nil {
			return nil, "", ve
		}
	}

	previous := tx.Status
	result := models.PaymentResult{
		Status:        models.StatusFailed,
		PaymentMethod: in.PaymentMethod,
	}
	if in.PaymentDetails != nil {
		result.PaymentDetails = *in.PaymentDetails
	}
	outcome := OutcomeFailed
	if p.outcomes.Decide() {
		paidAt := p.now()
		result.Status = models.StatusSuccess
		result.PaidAt = &paidAt
		outcome = OutcomeSuccess
	}

	rows, err := p.repo.ApplyPayment(ctx, id, previous, result)
	if err != nil {
		return nil, "", fmt.Errorf("apply payment to transaction %d: %w", id, err)
	}

	tx, err = loadOwned(ctx, p.repo, id, userID)
	if err != nil {
		return nil, "", err
	}
	if rows == 0 {
		return p.noop(tx, "settled concurrently")
	}

	span.SetAttributes(
		attribute.String("order_id", tx.OrderID),
		attribute.String("outcome", string(outcome)),
	)
	telemetry.PaymentOutcomes.WithLabelValues(string(outcome)).Inc()
	telemetry.Logger.Info("Transaction status transition",
		zap.Int64("transaction_id", tx.ID),
		zap.String("order_id", tx.OrderID),
		zap.String("from_status", string(previous)),
		zap.String("to_status", string(tx.Status)),
		zap.String("payment_method", in.PaymentMethod),
	)
	publish(ctx, p.publisher, interfaces.TopicTransactionStatusChanged, tx.OrderID, events.NewTransactionEvent(tx, previous))

	return tx, outcome, nil
}

func (p *PaymentSimulator) noop(tx *models.Transaction, reason string) (*models.Transaction, PaymentOutcome, error) {
	telemetry.PaymentOutcomes.WithLabelValues(string(OutcomeNoop)).Inc()
	telemetry.Logger.Info("Payment skipped",
		zap.Int64("transaction_id", tx.ID),
		zap.String("order_id", tx.OrderID),
		zap.String("status", string(tx.Status)),
		zap.String("reason", reason),
	)
	return tx, OutcomeNoop, nil
}
