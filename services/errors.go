package services

import "errors"

var (
	ErrHouseholdRequired        = errors.New("household is required")
	ErrHouseholdNotFound        = errors.New("household not found")
	ErrInvoiceNotFound          = errors.New("invoice not found")
	ErrInvoiceHouseholdMismatch = errors.New("invoice does not belong to household")
	ErrSessionNotFound          = errors.New("payment session not found")
	ErrSessionFeeNotFound       = errors.New("fee is not part of this payment session")
	ErrFeeNotFound              = errors.New("fee not found")
	ErrTransactionNotFound      = errors.New("transaction not found")
	ErrInvalidAmount            = errors.New("amount must be greater than zero")
	ErrNegativeAmount           = errors.New("amount cannot be negative")
	ErrTitleRequired            = errors.New("title is required")
	ErrInvalidMethod            = errors.New("payment method must be cash or transfer")
)
