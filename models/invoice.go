package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice statuses
const (
	StatusUnpaid  = "unpaid"
	StatusPartial = "partial"
	StatusPaid    = "paid"
)

// Invoice is what one household owes for one fee within one session.
type Invoice struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"_id"`
	HouseholdID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_key,priority:1" json:"householdId"`
	FeeID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_key,priority:2;index" json:"feeId"`
	PaymentSessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_key,priority:3;index" json:"paymentSessionId"`

	Household      *Household      `gorm:"foreignKey:HouseholdID" json:"household"`
	Fee            *Fee            `gorm:"foreignKey:FeeID" json:"fee"`
	PaymentSession *PaymentSession `gorm:"foreignKey:PaymentSessionID" json:"paymentSession"`

	Amount     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	PaidAmount decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"paidAmount"`
	Status     string          `gorm:"type:varchar(10);not null;default:'unpaid';index" json:"status"`
	Version    int             `gorm:"not null;default:0" json:"version"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	i.Status = DeriveStatus(i.Amount, i.PaidAmount)
	return
}

// Remaining is the amount still owed, never below zero.
func (i *Invoice) Remaining() decimal.Decimal {
	r := i.Amount.Sub(i.PaidAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// DeriveStatus maps a balance to its status: paid once paid covers amount,
// partial while something but not everything is paid, unpaid otherwise.
func DeriveStatus(amount, paid decimal.Decimal) string {
	switch {
	case paid.GreaterThanOrEqual(amount):
		return StatusPaid
	case paid.IsPositive():
		return StatusPartial
	default:
		return StatusUnpaid
	}
}

// StatusExpr is DeriveStatus as a SQL CASE over a paid expression and an
// amount expression, for statements that update balances in place.
func StatusExpr(paid, amount string) string {
	return fmt.Sprintf("CASE WHEN %[1]s >= %[2]s THEN '%[3]s' WHEN %[1]s > 0 THEN '%[4]s' ELSE '%[5]s' END",
		paid, amount, StatusPaid, StatusPartial, StatusUnpaid)
}
