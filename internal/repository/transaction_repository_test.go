package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/topup-store/internal/interfaces"
	"github.com/akylbek/payment-system/topup-store/internal/models"
)

var transactionRowColumns = []string{
	"id", "order_id", "user_id", "type", "item_name", "item_details", "amount", "currency",
	"status", "payment_method", "payment_details", "paid_at", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func pendingTransaction() *models.Transaction {
	return &models.Transaction{
		OrderID:  "GS20261015123456",
		UserID:   7,
		Type:     models.TypeGameTopup,
		ItemName: "Free Fire - 100 Diamonds",
		ItemDetails: models.ItemDetails{GameTopup: &models.GameTopupDetails{
			GameID: 2, GameName: "Free Fire", UserID: "12345678", Denomination: 100, CurrencyType: "Diamonds",
		}},
		Amount:   decimal.NewFromInt(15000),
		Currency: "IDR",
		Status:   models.StatusPending,
	}
}

func TestTransactionInsertReturnsGeneratedFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO transactions`).
		WithArgs("GS20261015123456", int64(7), "game_topup", "Free Fire - 100 Diamonds",
			sqlmock.AnyArg(), "15000", "IDR", "pending", nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), now, now))

	tx := pendingTransaction()
	require.NoError(t, repo.Insert(context.Background(), tx))
	assert.Equal(t, int64(42), tx.ID)
	assert.Equal(t, now, tx.CreatedAt)
}

func TestTransactionInsertMapsUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)

	mock.ExpectQuery(`INSERT INTO transactions`).
		WillReturnError(&pq.Error{Code: pgUniqueViolation, Constraint: "transactions_order_id_key"})

	err := repo.Insert(context.Background(), pendingTransaction())
	assert.ErrorIs(t, err, interfaces.ErrDuplicate)
}

func TestTransactionGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM transactions WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(transactionRowColumns).AddRow(
			int64(42), "GS20261015123456", int64(7), "voucher", "Steam Wallet",
			[]byte(`{"voucher_id":1,"voucher_name":"Steam Wallet","voucher_code":null}`),
			"50000.00", "IDR", "success", "qris", []byte(`{"provider":"Any QRIS App"}`), now, now, now,
		))

	tx, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, models.TypeVoucher, tx.Type)
	require.NotNil(t, tx.ItemDetails.Voucher)
	assert.Equal(t, int64(1), tx.ItemDetails.Voucher.VoucherID)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, models.StatusSuccess, tx.Status)
	require.NotNil(t, tx.PaymentMethod)
	assert.Equal(t, "qris", *tx.PaymentMethod)
	require.NotNil(t, tx.PaymentDetails)
	assert.Equal(t, "Any QRIS App", tx.PaymentDetails.Provider)
	require.NotNil(t, tx.PaidAt)
	assert.Equal(t, now, *tx.PaidAt)
}

func TestTransactionGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM transactions WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(transactionRowColumns))

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestTransactionListByUserFiltersStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	status := models.StatusFailed

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transactions WHERE user_id = \$1`).
		WithArgs(int64(7), "failed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(11)))
	mock.ExpectQuery(`ORDER BY created_at DESC, id DESC\s+LIMIT \$3 OFFSET \$4`).
		WithArgs(int64(7), "failed", 10, 10).
		WillReturnRows(sqlmock.NewRows(transactionRowColumns).AddRow(
			int64(3), "GS20261015654321", int64(7), "game_topup", "Free Fire - 100 Diamonds",
			[]byte(`{"game_id":2,"user_id":"12345678","denomination":100}`),
			"15000.00", "IDR", "failed", "bank_transfer", nil, nil, now, now,
		))

	txs, total, err := repo.ListByUser(context.Background(), 7, &status, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(11), total)
	require.Len(t, txs, 1)
	assert.Nil(t, txs[0].PaidAt)
	assert.Nil(t, txs[0].PaymentDetails)
	assert.Equal(t, "12345678", txs[0].ItemDetails.GameTopup.UserID)
}

func TestTransactionApplyPaymentIsConditional(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)
	paidAt := time.Date(2026, 10, 15, 10, 5, 0, 0, time.UTC)
	from := models.StatusFailed

	mock.ExpectExec(`UPDATE transactions\s+SET status = \$1.+WHERE id = \$5 AND status = \$6`).
		WithArgs("success", "qris", sqlmock.AnyArg(), paidAt, int64(42), "failed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE transactions`).
		WithArgs("success", "qris", sqlmock.AnyArg(), paidAt, int64(42), "failed").
		WillReturnResult(sqlmock.NewResult(0, 0))

	result := models.PaymentResult{Status: models.StatusSuccess, PaymentMethod: "qris", PaidAt: &paidAt}

	n, err := repo.ApplyPayment(context.Background(), 42, from, result)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.ApplyPayment(context.Background(), 42, from, result)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInitDBCreatesSchema(t *testing.T) {
	db, mock := newMockDB(t)
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < len(schemaStatements); i++ {
		mock.ExpectExec(`CREATE`).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, InitDB(context.Background(), db))
}
