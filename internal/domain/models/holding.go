package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SentinelClientID marks a record whose client could not be identified.
const SentinelClientID = "000000000000"

// UnknownClientName is the placeholder name for unidentified clients.
const UnknownClientName = "未知客户"

// DateLayout is the canonical calendar-date form used across the import pipeline.
const DateLayout = "2006-01-02"

// Holding is a single fund position produced by the import pipeline.
//
// Values are created once by the row normalizer and never mutated afterwards;
// the storage layer persists them as-is.
type Holding struct {
	ID             string          `json:"id" example:"4b8f8a2e-6c1e-4b8e-9f43-1b2f0c3d4e5f"`
	ClientID       string          `json:"client_id" example:"000000123456"`
	ClientName     string          `json:"client_name" example:"张三"`
	FundCode       string          `json:"fund_code" example:"000001"`
	FundName       string          `json:"fund_name" example:"基金000001"`
	PurchaseAmount decimal.Decimal `json:"purchase_amount" swaggertype:"string" example:"1000.00"`
	PurchaseShares decimal.Decimal `json:"purchase_shares" swaggertype:"string" example:"500.0000"`
	PurchaseDate   time.Time       `json:"purchase_date"`
	CurrentNav     decimal.Decimal `json:"current_nav" swaggertype:"string" example:"2.0000"`
	NavDate        time.Time       `json:"nav_date"`
	Remarks        string          `json:"remarks,omitempty"`
	IsValid        bool            `json:"is_valid"`
	IsPinned       bool            `json:"is_pinned"`
}

// NaturalKey returns the composite identity used for deduplication:
//
//	clientID-fundCode-round(amount*100)-round(shares*10000)-YYYY-MM-DD
//
// Client name, remarks and the generated ID do not take part in the key.
func (h Holding) NaturalKey() string {
	cents := h.PurchaseAmount.Shift(2).Round(0)
	units := h.PurchaseShares.Shift(4).Round(0)
	return fmt.Sprintf("%s-%s-%s-%s-%s",
		h.ClientID,
		h.FundCode,
		cents.String(),
		units.String(),
		h.PurchaseDate.Format(DateLayout),
	)
}
