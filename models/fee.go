package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Fee types
const (
	FeeMandatoryAutomatic = "mandatory_automatic"
	FeeMandatoryManual    = "mandatory_manual"
	FeeVoluntary          = "voluntary"
)

// Units an automatic fee is charged by
const (
	UnitArea      = "area"
	UnitPerson    = "person"
	UnitHousehold = "household"
	UnitFixed     = "fixed"
)

var (
	ErrUnknownFeeType    = errors.New("unknown fee type")
	ErrUnknownFeeUnit    = errors.New("unknown fee unit")
	ErrMissingUnitPrice  = errors.New("unit price is required for automatic fees")
	ErrMissingUnit       = errors.New("unit is required for automatic fees")
	ErrNegativeUnitPrice = errors.New("unit price cannot be negative")
	ErrFeeNameRequired   = errors.New("fee name is required")
)

// Fee is a reusable charge template of the fee catalog. UnitPrice and Unit
// are only stored for mandatory_automatic fees.
type Fee struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key" json:"_id"`
	Name        string           `gorm:"not null" json:"name"`
	Type        string           `gorm:"type:varchar(30);not null" json:"type"`
	UnitPrice   *decimal.Decimal `gorm:"type:decimal(14,2)" json:"unitPrice,omitempty"`
	Unit        *string          `gorm:"type:varchar(20)" json:"unit,omitempty"`
	Description string           `json:"description"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (f *Fee) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return f.Validate()
}

func (f *Fee) BeforeSave(tx *gorm.DB) (err error) {
	return f.Validate()
}

// Validate enforces the per-type field rules and drops pricing fields on
// fees that are not automatic.
func (f *Fee) Validate() error {
	if f.Name == "" {
		return ErrFeeNameRequired
	}
	switch f.Type {
	case FeeMandatoryAutomatic:
		if f.UnitPrice == nil {
			return ErrMissingUnitPrice
		}
		if f.UnitPrice.IsNegative() {
			return ErrNegativeUnitPrice
		}
		if f.Unit == nil || *f.Unit == "" {
			return ErrMissingUnit
		}
		if !IsValidUnit(*f.Unit) {
			return fmt.Errorf("%w: %s", ErrUnknownFeeUnit, *f.Unit)
		}
	case FeeMandatoryManual, FeeVoluntary:
		f.UnitPrice = nil
		f.Unit = nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFeeType, f.Type)
	}
	return nil
}

func (f *Fee) IsMandatory() bool {
	return f.Type == FeeMandatoryAutomatic || f.Type == FeeMandatoryManual
}

// Charge describes how a fee turns into an invoice amount.
type Charge interface {
	isCharge()
}

// AutomaticCharge is priced as UnitPrice times a household attribute.
type AutomaticCharge struct {
	UnitPrice decimal.Decimal
	Unit      string
}

// ManualCharge is an admin-entered amount per household.
type ManualCharge struct{}

// VoluntaryCharge has no debt until a household pays.
type VoluntaryCharge struct{}

func (AutomaticCharge) isCharge() {}
func (ManualCharge) isCharge() {}
func (VoluntaryCharge) isCharge() {}

// Charge returns the typed view of the fee. Call Validate first; an invalid
// fee yields an error here too.
func (f *Fee) Charge() (Charge, error) {
	switch f.Type {
	case FeeMandatoryAutomatic:
		if f.UnitPrice == nil || f.Unit == nil {
			return nil, ErrMissingUnitPrice
		}
		return AutomaticCharge{UnitPrice: *f.UnitPrice, Unit: *f.Unit}, nil
	case FeeMandatoryManual:
		return ManualCharge{}, nil
	case FeeVoluntary:
		return VoluntaryCharge{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFeeType, f.Type)
}

// Amount computes what household h owes for this charge.
func (a AutomaticCharge) Amount(h Household) decimal.Decimal {
	var basis decimal.Decimal
	switch a.Unit {
	case UnitArea:
		basis = h.Area
	case UnitPerson:
		basis = decimal.NewFromInt(int64(h.MemberCount))
	default:
		basis = decimal.NewFromInt(1)
	}
	return a.UnitPrice.Mul(basis).Round(2)
}

func IsValidFeeType(t string) bool {
	return t == FeeMandatoryAutomatic || t == FeeMandatoryManual || t == FeeVoluntary
}

func IsValidUnit(u string) bool {
	switch u {
	case UnitArea, UnitPerson, UnitHousehold, UnitFixed:
		return true
	}
	return false
}
