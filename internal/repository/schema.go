package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS games (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL UNIQUE,
		description TEXT NOT NULL,
		image_url VARCHAR(255),
		base_price NUMERIC(12, 2) NOT NULL DEFAULT 0,
		denominations JSONB NOT NULL DEFAULT '[]',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		server_type VARCHAR(20) NOT NULL DEFAULT 'region',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_games_is_active ON games(is_active)`,
	`CREATE TABLE IF NOT EXISTS vouchers (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL UNIQUE,
		description TEXT NOT NULL,
		image_url VARCHAR(255),
		price NUMERIC(12, 2) NOT NULL,
		currency VARCHAR(3) NOT NULL DEFAULT 'IDR',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vouchers_is_active ON vouchers(is_active)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id BIGSERIAL PRIMARY KEY,
		order_id VARCHAR(64) NOT NULL UNIQUE,
		user_id BIGINT NOT NULL,
		type VARCHAR(20) NOT NULL,
		item_name VARCHAR(255) NOT NULL,
		item_details JSONB NOT NULL,
		amount NUMERIC(12, 2) NOT NULL CHECK (amount > 0),
		currency VARCHAR(3) NOT NULL DEFAULT 'IDR',
		status VARCHAR(20) NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'processing', 'success', 'failed', 'cancelled')),
		payment_method VARCHAR(50),
		payment_details JSONB,
		paid_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_created ON transactions(user_id, created_at)`,
}

// InitDB creates the store tables and indexes when they are missing.
func InitDB(ctx context.Context, db *sql.DB) error {
	for _, query := range schemaStatements {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}

	return nil
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}
