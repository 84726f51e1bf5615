package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a purchasable catalog entry. Receipts snapshot Title and Price at
// generation time, so later edits never change an already-issued PDF.
type Item struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time       `json:"-"`
	UpdatedAt time.Time       `json:"-"`
	Title     string          `gorm:"size:255;not null" json:"title"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
}
