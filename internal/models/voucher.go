package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Voucher is a fixed-price gift card. Vouchers only enter the store through seed data.
type Voucher struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	ImageURL    *string         `json:"image_url"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
