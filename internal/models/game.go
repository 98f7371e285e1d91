package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ServerType decides which extra field the top-up form collects.
type ServerType string

const (
	ServerTypeRegion   ServerType = "region"
	ServerTypeServerID ServerType = "server_id"
	ServerTypeUserID   ServerType = "user_id"
)

func (s ServerType) Valid() bool {
	switch s {
	case ServerTypeRegion, ServerTypeServerID, ServerTypeUserID:
		return true
	}
	return false
}

// Denomination is one purchasable quantity of in-game currency,
// e.g. 100 Diamonds for 15000.
type Denomination struct {
	Amount   int             `json:"amount"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// Denominations is stored as a JSON array column.
type Denominations []Denomination

func (d Denominations) Value() (driver.Value, error) {
	if d == nil {
		d = Denominations{}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (d *Denominations) Scan(src interface{}) error {
	return scanJSON(src, d)
}

type Game struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	Description   string          `json:"description"`
	ImageURL      *string         `json:"image_url"`
	BasePrice     decimal.Decimal `json:"base_price"`
	Denominations Denominations   `json:"denominations"`
	IsActive      bool            `json:"is_active"`
	ServerType    ServerType      `json:"server_type"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
}
