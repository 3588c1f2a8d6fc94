package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentSession is a billing cycle charging a list of fees to every household.
type PaymentSession struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"_id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	StartDate   *time.Time `gorm:"index" json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	IsActive    bool       `gorm:"default:true" json:"isActive"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid" json:"createdBy,omitempty"`

	Fees []SessionFee `gorm:"foreignKey:PaymentSessionID" json:"fees"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *PaymentSession) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// SessionFee is one entry of a session's fee list. UnitPrice overrides the
// catalog price of an automatic fee; Amount is the per-household amount of a
// manual fee.
type SessionFee struct {
	ID               uuid.UUID        `gorm:"type:uuid;primary_key" json:"_id"`
	PaymentSessionID uuid.UUID        `gorm:"type:uuid;index;not null" json:"paymentSessionId"`
	FeeID            uuid.UUID        `gorm:"type:uuid;index;not null" json:"feeId"`
	Fee              *Fee             `gorm:"foreignKey:FeeID" json:"fee"`
	Position         int              `gorm:"not null;default:0" json:"position"`
	UnitPrice        *decimal.Decimal `gorm:"type:decimal(14,2)" json:"unitPrice,omitempty"`
	Amount           *decimal.Decimal `gorm:"type:decimal(14,2)" json:"amount,omitempty"`
	Note             string           `json:"note,omitempty"`
}

func (sf *SessionFee) BeforeCreate(tx *gorm.DB) (err error) {
	if sf.ID == uuid.Nil {
		sf.ID = uuid.New()
	}
	return
}
