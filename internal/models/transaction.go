package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	StatusPending    TransactionStatus = "pending"
	StatusProcessing TransactionStatus = "processing"
	StatusSuccess    TransactionStatus = "success"
	StatusFailed     TransactionStatus = "failed"
	StatusCancelled  TransactionStatus = "cancelled"
)

// AllStatuses lists every declared status. processing and cancelled are
// reserved: nothing in the store moves a transaction into them.
var AllStatuses = []TransactionStatus{
	StatusPending,
	StatusProcessing,
	StatusSuccess,
	StatusFailed,
	StatusCancelled,
}

func (s TransactionStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type TransactionType string

const (
	TypeGameTopup TransactionType = "game_topup"
	TypeVoucher   TransactionType = "voucher"
)

func (t TransactionType) Valid() bool {
	return t == TypeGameTopup || t == TypeVoucher
}

const DefaultCurrency = "IDR"

// GameTopupDetails is the item snapshot of a game_topup transaction.
type GameTopupDetails struct {
	GameID       int64  `json:"game_id" validate:"required,gt=0"`
	GameName     string `json:"game_name,omitempty" validate:"max=255"`
	UserID       string `json:"user_id" validate:"required,max=100"`
	Server       string `json:"server,omitempty" validate:"max=100"`
	Denomination int    `json:"denomination" validate:"required,gt=0"`
	CurrencyType string `json:"currency_type,omitempty" validate:"max=50"`
}

// VoucherDetails is the item snapshot of a voucher transaction.
type VoucherDetails struct {
	VoucherID   int64  `json:"voucher_id" validate:"required,gt=0"`
	VoucherName string `json:"voucher_name,omitempty" validate:"max=255"`
	VoucherCode string `json:"voucher_code,omitempty" validate:"max=64"`
}

// ItemDetails holds exactly one of its variants, chosen by the transaction type.
// It marshals to the variant's flat JSON object.
type ItemDetails struct {
	GameTopup *GameTopupDetails
	Voucher   *VoucherDetails
}

var ErrUnknownTransactionType = errors.New("unknown transaction type")

// DecodeItemDetails parses raw JSON into the variant matching t.
func DecodeItemDetails(t TransactionType, raw []byte) (ItemDetails, error) {
	switch t {
	case TypeGameTopup:
		var d GameTopupDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return ItemDetails{}, err
		}
		return ItemDetails{GameTopup: &d}, nil
	case TypeVoucher:
		var d VoucherDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return ItemDetails{}, err
		}
		return ItemDetails{Voucher: &d}, nil
	default:
		return ItemDetails{}, fmt.Errorf("%w: %q", ErrUnknownTransactionType, t)
	}
}

// Type reports which variant is set.
func (d ItemDetails) Type() TransactionType {
	switch {
	case d.GameTopup != nil:
		return TypeGameTopup
	case d.Voucher != nil:
		return TypeVoucher
	}
	return ""
}

func (d ItemDetails) MarshalJSON() ([]byte, error) {
	switch {
	case d.GameTopup != nil:
		return json.Marshal(d.GameTopup)
	case d.Voucher != nil:
		return json.Marshal(d.Voucher)
	}
	return []byte("{}"), nil
}

func (d ItemDetails) Value() (driver.Value, error) {
	return d.MarshalJSON()
}

// PaymentDetails is what the shopper picked on the payment page.
type PaymentDetails struct {
	Provider string `json:"provider,omitempty" validate:"max=100"`
	Method   string `json:"method,omitempty" validate:"max=50"`
	Account  string `json:"account,omitempty" validate:"max=100"`
}

func (p PaymentDetails) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *PaymentDetails) Scan(src interface{}) error {
	return scanJSON(src, p)
}

type Transaction struct {
	ID             int64             `json:"id"`
	OrderID        string            `json:"order_id"`
	UserID         int64             `json:"user_id"`
	Type           TransactionType   `json:"type"`
	ItemName       string            `json:"item_name"`
	ItemDetails    ItemDetails       `json:"item_details"`
	Amount         decimal.Decimal   `json:"amount"`
	Currency       string            `json:"currency"`
	Status         TransactionStatus `json:"status"`
	PaymentMethod  *string           `json:"payment_method"`
	PaymentDetails *PaymentDetails   `json:"payment_details"`
	PaidAt         *time.Time        `json:"paid_at"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// PaymentResult is the single write the payment simulator applies to a row.
type PaymentResult struct {
	Status         TransactionStatus
	PaymentMethod  string
	PaymentDetails PaymentDetails
	PaidAt         *time.Time
}

// IsNullJSON reports whether raw is empty or the JSON literal null.
func IsNullJSON(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
