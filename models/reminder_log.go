package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReminderLog records one payment reminder attempt.
type ReminderLog struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"_id"`
	HouseholdID      uuid.UUID `gorm:"type:uuid;index;not null" json:"householdId"`
	PaymentSessionID uuid.UUID `gorm:"type:uuid;index;not null" json:"paymentSessionId"`
	Phone            string    `gorm:"type:varchar(30)" json:"phone"`
	Message          string    `gorm:"type:text" json:"message"`
	Status           string    `gorm:"type:varchar(20)" json:"status"` // sent, failed, skipped
	ErrorMessage     string    `gorm:"type:text" json:"errorMessage,omitempty"`
	Channel          string    `gorm:"type:varchar(20)" json:"channel"` // whatsapp, sms
	SentAt           time.Time `json:"sentAt"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
