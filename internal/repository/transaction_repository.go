package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akylbek/payment-system/topup-store/internal/interfaces"
	"github.com/akylbek/payment-system/topup-store/internal/models"
)

const transactionColumns = `id, order_id, user_id, type, item_name, item_details, amount, currency,
	status, payment_method, payment_details, paid_at, created_at, updated_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Insert(ctx context.Context, tx *models.Transaction) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO transactions (order_id, user_id, type, item_name, item_details, amount, currency,
			status, payment_method, payment_details, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`, tx.OrderID, tx.UserID, tx.Type, tx.ItemName, tx.ItemDetails, tx.Amount, tx.Currency,
		tx.Status, tx.PaymentMethod, tx.PaymentDetails, tx.PaidAt,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("order_id %s: %w", tx.OrderID, interfaces.ErrDuplicate)
	}
	return err
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrNotFound
	}
	return tx, err
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID int64, status *models.TransactionStatus, limit, offset int) ([]models.Transaction, int64, error) {
	filter := ""
	if status != nil {
		filter = string(*status)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions WHERE user_id = $1 AND ($2 = '' OR status = $2)
	`, userID, filter).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, userID, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	txs := make([]models.Transaction, 0, limit)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, *tx)
	}
	return txs, total, rows.Err()
}

func (r *TransactionRepository) ApplyPayment(ctx context.Context, id int64, from models.TransactionStatus, result models.PaymentResult) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET status = $1, payment_method = $2, payment_details = $3, paid_at = $4, updated_at = NOW()
		WHERE id = $5 AND status = $6
	`, result.Status, result.PaymentMethod, result.PaymentDetails, result.PaidAt, id, from)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		tx             models.Transaction
		itemDetails    []byte
		paymentMethod  sql.NullString
		paymentDetails []byte
		paidAt         sql.NullTime
	)
	err := row.Scan(&tx.ID, &tx.OrderID, &tx.UserID, &tx.Type, &tx.ItemName, &itemDetails,
		&tx.Amount, &tx.Currency, &tx.Status, &paymentMethod, &paymentDetails, &paidAt,
		&tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return nil, err
	}

	tx.ItemDetails, err = models.DecodeItemDetails(tx.Type, itemDetails)
	if err != nil {
		return nil, fmt.Errorf("transaction %d item_details: %w", tx.ID, err)
	}
	if paymentMethod.Valid {
		tx.PaymentMethod = &paymentMethod.String
	}
	if paymentDetails != nil {
		tx.PaymentDetails = &models.PaymentDetails{}
		if err := tx.PaymentDetails.Scan(paymentDetails); err != nil {
			return nil, fmt.Errorf("transaction %d payment_details: %w", tx.ID, err)
		}
	}
	if paidAt.Valid {
		t := paidAt.Time
		tx.PaidAt = &t
	}
	return &tx, nil
}
