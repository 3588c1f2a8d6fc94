package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Household is one apartment of the building. Area and MemberCount are the
// attributes automatic fees are computed from.
type Household struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"_id"`
	ApartmentNumber string          `gorm:"uniqueIndex;not null" json:"apartmentNumber"`
	Owner           string          `gorm:"not null" json:"owner"`
	Phone           string          `json:"phone"`
	Area            decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"area"`
	MemberCount     int             `gorm:"not null;default:0" json:"memberCount"`
	IsActive        bool            `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (h *Household) BeforeCreate(tx *gorm.DB) (err error) {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return
}
