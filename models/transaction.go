package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment methods
const (
	MethodCash     = "cash"
	MethodTransfer = "transfer"
)

// Transaction is money received from a household, usually against one invoice.
type Transaction struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"_id"`
	HouseholdID uuid.UUID  `gorm:"type:uuid;index;not null" json:"householdId"`
	InvoiceID   *uuid.UUID `gorm:"type:uuid;index" json:"invoiceId"`

	Household *Household `gorm:"foreignKey:HouseholdID" json:"household"`
	Invoice   *Invoice   `gorm:"foreignKey:InvoiceID" json:"invoice"`

	Amount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	PayerName string          `json:"payerName"`
	Method    string          `gorm:"type:varchar(20);not null;default:'cash'" json:"method"`
	Note      string          `json:"note"`
	Date      time.Time       `gorm:"index;not null" json:"date"`
	CreatedBy *uuid.UUID      `gorm:"type:uuid" json:"createdBy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Date.IsZero() {
		t.Date = time.Now()
	}
	if t.Method == "" {
		t.Method = MethodCash
	}
	return
}

func IsValidMethod(m string) bool {
	return m == MethodCash || m == MethodTransfer
}
