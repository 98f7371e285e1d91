package interfaces

import (
	"context"

	"github.com/akylbek/payment-system/topup-store/internal/models"
)

// TransactionRepository defines the contract for transaction ledger data access
type TransactionRepository interface {
	// Insert stores tx and fills its ID and timestamps. A taken order_id yields ErrDuplicate.
	Insert(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id int64) (*models.Transaction, error)
	// ListByUser returns one page of the user's transactions, newest first, and the total count.
	ListByUser(ctx context.Context, userID int64, status *models.TransactionStatus, limit, offset int) ([]models.Transaction, int64, error)
	// ApplyPayment writes result only if the row's status is still from.
	// It returns the number of rows changed.
	ApplyPayment(ctx context.Context, id int64, from models.TransactionStatus, result models.PaymentResult) (int64, error)
}
