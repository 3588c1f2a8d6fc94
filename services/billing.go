// services/billing.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"condofee-backend/logger"
	"condofee-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const invoiceBatchSize = 500

var invoiceKey = []clause.Column{
	{Name: "household_id"},
	{Name: "fee_id"},
	{Name: "payment_session_id"},
}

// BillingService owns every write that touches invoice balances.
type BillingService struct {
	db     *gorm.DB
	events Publisher
	log    *logger.Logger
}

func NewBillingService(db *gorm.DB, events Publisher, log *logger.Logger) *BillingService {
	if events == nil {
		events = NoopPublisher{}
	}
	if log == nil {
		log = logger.Get(logger.ComponentBilling)
	}
	return &BillingService{db: db, events: events, log: log}
}

// GenerateInvoices makes sure every active household has an invoice for every
// mandatory fee of the session. Existing invoices are left untouched, so the
// call is idempotent. It returns how many invoices were created.
func (s *BillingService) GenerateInvoices(ctx context.Context, sessionID uuid.UUID) (int, error) {
	log := s.log.With(logger.FieldOperation, logger.OpGenerate, logger.FieldSessionID, sessionID)

	var created int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := generateInvoices(tx, sessionID)
		created = n
		return err
	})
	if err != nil {
		log.ErrorContext(ctx, "invoice generation failed", logger.FieldError, err)
		return 0, err
	}

	log.InfoContext(ctx, "invoices generated", logger.FieldCount, created)
	if created > 0 {
		s.publish(ctx, EventInvoicesGenerated, fields{"sessionId": sessionID, "created": created})
	}
	return created, nil
}

func generateInvoices(tx *gorm.DB, sessionID uuid.UUID) (int, error) {
	session, err := loadSession(tx, sessionID)
	if err != nil {
		return 0, err
	}

	var households []models.Household
	if err := tx.Where("is_active = ?", true).Order("apartment_number ASC").Find(&households).Error; err != nil {
		return 0, fmt.Errorf("load households: %w", err)
	}

	var invoices []models.Invoice
	seen := make(map[uuid.UUID]bool)
	for _, entry := range session.Fees {
		if entry.Fee == nil || seen[entry.FeeID] || !entry.Fee.IsMandatory() {
			continue
		}
		seen[entry.FeeID] = true

		for _, h := range households {
			amount, ok := invoiceAmount(entry, h)
			if !ok {
				break
			}
			invoices = append(invoices, models.Invoice{
				HouseholdID:      h.ID,
				FeeID:            entry.FeeID,
				PaymentSessionID: session.ID,
				Amount:           amount,
				PaidAmount:       decimal.Zero,
			})
		}
	}

	if len(invoices) == 0 {
		return 0, nil
	}

	result := tx.Clauses(clause.OnConflict{Columns: invoiceKey, DoNothing: true}).
		CreateInBatches(&invoices, invoiceBatchSize)
	if result.Error != nil {
		return 0, fmt.Errorf("insert invoices: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

// invoiceAmount prices one session fee entry for one household. The second
// result is false when the entry yields no invoice at generation time.
func invoiceAmount(entry models.SessionFee, h models.Household) (decimal.Decimal, bool) {
	charge, err := entry.Fee.Charge()
	if err != nil {
		return decimal.Zero, false
	}

	switch c := charge.(type) {
	case models.AutomaticCharge:
		if entry.UnitPrice != nil {
			c.UnitPrice = *entry.UnitPrice
		}
		return c.Amount(h), true
	case models.ManualCharge:
		if entry.Amount == nil {
			return decimal.Zero, false
		}
		return entry.Amount.Round(2), true
	}
	return decimal.Zero, false
}

// PostTransactionInput describes a received payment. Either InvoiceID, or
// FeeID together with PaymentSessionID, selects the invoice; with neither the
// transaction is recorded against the household only.
type PostTransactionInput struct {
	HouseholdID      uuid.UUID
	InvoiceID        *uuid.UUID
	FeeID            *uuid.UUID
	PaymentSessionID *uuid.UUID
	Amount           decimal.Decimal
	PayerName        string
	Method           string
	Note             string
	Date             *time.Time
	CreatedBy        *uuid.UUID
}

// PostTransaction records a payment and adds it to the invoice balance. An
// explicit invoice id that does not exist fails the whole operation.
func (s *BillingService) PostTransaction(ctx context.Context, in PostTransactionInput) (*models.Transaction, error) {
	if in.HouseholdID == uuid.Nil {
		return nil, ErrHouseholdRequired
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if in.Method != "" && !models.IsValidMethod(in.Method) {
		return nil, ErrInvalidMethod
	}

	txn := models.Transaction{
		HouseholdID: in.HouseholdID,
		Amount:      in.Amount,
		PayerName:   in.PayerName,
		Method:      in.Method,
		Note:        in.Note,
		CreatedBy:   in.CreatedBy,
	}
	if in.Date != nil {
		txn.Date = *in.Date
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &models.Household{}, in.HouseholdID, ErrHouseholdNotFound); err != nil {
			return err
		}

		invoiceID := in.InvoiceID
		if invoiceID == nil && in.FeeID != nil && in.PaymentSessionID != nil {
			inv, err := findOrCreateInvoice(tx, in.HouseholdID, *in.FeeID, *in.PaymentSessionID, in.Amount)
			if err != nil {
				return err
			}
			invoiceID = &inv.ID
		}

		if invoiceID != nil {
			var inv models.Invoice
			if err := tx.Select("id", "household_id").First(&inv, "id = ?", *invoiceID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrInvoiceNotFound
				}
				return err
			}
			if inv.HouseholdID != in.HouseholdID {
				return ErrInvoiceHouseholdMismatch
			}
			if err := applyPayment(tx, inv.ID, in.Amount); err != nil {
				return err
			}
			txn.InvoiceID = &inv.ID
		}

		return tx.Create(&txn).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "transaction posted",
		logger.FieldOperation, logger.OpPost,
		logger.FieldHousehold, in.HouseholdID,
		logger.FieldInvoiceID, txn.InvoiceID,
		logger.FieldAmount, in.Amount.String())
	s.publish(ctx, EventTransactionPosted, fields{
		"transactionId": txn.ID,
		"householdId":   txn.HouseholdID,
		"invoiceId":     txn.InvoiceID,
		"amount":        txn.Amount,
	})

	return s.GetTransaction(ctx, txn.ID)
}

// findOrCreateInvoice returns the invoice for (household, fee, session),
// creating one whose debt equals the payment when none exists yet. Only a new
// invoice requires the fee to still be part of the session.
func findOrCreateInvoice(tx *gorm.DB, householdID, feeID, sessionID uuid.UUID, amount decimal.Decimal) (*models.Invoice, error) {
	var found models.Invoice
	err := tx.Where("household_id = ? AND fee_id = ? AND payment_session_id = ?", householdID, feeID, sessionID).
		Limit(1).Find(&found).Error
	if err != nil {
		return nil, err
	}
	if found.ID != uuid.Nil {
		return &found, nil
	}

	if err := mustExist(tx, &models.PaymentSession{}, sessionID, ErrSessionNotFound); err != nil {
		return nil, err
	}
	if err := mustExist(tx, &models.Fee{}, feeID, ErrFeeNotFound); err != nil {
		return nil, err
	}

	var entries int64
	if err := tx.Model(&models.SessionFee{}).
		Where("payment_session_id = ? AND fee_id = ?", sessionID, feeID).
		Count(&entries).Error; err != nil {
		return nil, err
	}
	if entries == 0 {
		return nil, ErrSessionFeeNotFound
	}

	inv := models.Invoice{
		HouseholdID:      householdID,
		FeeID:            feeID,
		PaymentSessionID: sessionID,
		Amount:           amount,
		PaidAmount:       decimal.Zero,
	}
	if err := tx.Clauses(clause.OnConflict{Columns: invoiceKey, DoNothing: true}).Create(&inv).Error; err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	var existing models.Invoice
	if err := tx.Where("household_id = ? AND fee_id = ? AND payment_session_id = ?", householdID, feeID, sessionID).
		First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// applyPayment adds delta to the invoice's paid amount and recomputes its
// status in a single statement, so concurrent postings cannot lose updates.
func applyPayment(tx *gorm.DB, invoiceID uuid.UUID, delta decimal.Decimal) error {
	result := tx.Model(&models.Invoice{}).Where("id = ?", invoiceID).Updates(map[string]interface{}{
		"paid_amount": gorm.Expr("paid_amount + ?", delta),
		"status":      gorm.Expr(models.StatusExpr("(paid_amount + ?)", "amount"), delta, delta),
		"version":     gorm.Expr("version + 1"),
	})
	if result.Error != nil {
		return fmt.Errorf("update invoice balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// UpdateTransactionInput carries the editable fields; nil means unchanged.
type UpdateTransactionInput struct {
	Amount    *decimal.Decimal
	PayerName *string
	Method    *string
	Note      *string
	Date      *time.Time
}

// UpdateTransaction edits a transaction. A new amount moves the linked
// invoice's balance by the difference.
func (s *BillingService) UpdateTransaction(ctx context.Context, id uuid.UUID, in UpdateTransactionInput) (*models.Transaction, error) {
	if in.Amount != nil && !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if in.Method != nil && !models.IsValidMethod(*in.Method) {
		return nil, ErrInvalidMethod
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txn models.Transaction
		if err := tx.First(&txn, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}

		if in.Amount != nil {
			delta := in.Amount.Sub(txn.Amount)
			if txn.InvoiceID != nil && !delta.IsZero() {
				if err := applyPayment(tx, *txn.InvoiceID, delta); err != nil {
					return err
				}
			}
			txn.Amount = *in.Amount
		}
		if in.PayerName != nil {
			txn.PayerName = *in.PayerName
		}
		if in.Method != nil {
			txn.Method = *in.Method
		}
		if in.Note != nil {
			txn.Note = *in.Note
		}
		if in.Date != nil {
			txn.Date = *in.Date
		}

		return tx.Omit(clause.Associations).Save(&txn).Error
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventTransactionEdited, fields{"transactionId": id})
	return s.GetTransaction(ctx, id)
}

// DeleteTransaction removes a transaction and takes its amount back off the
// linked invoice.
func (s *BillingService) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txn models.Transaction
		if err := tx.First(&txn, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		if txn.InvoiceID != nil {
			err := applyPayment(tx, *txn.InvoiceID, txn.Amount.Neg())
			if err != nil && !errors.Is(err, ErrInvoiceNotFound) {
				return err
			}
		}
		return tx.Delete(&txn).Error
	})
	if err != nil {
		return err
	}
	s.publish(ctx, EventTransactionVoided, fields{"transactionId": id})
	return nil
}

// GetTransaction loads a transaction with its household and invoice.
func (s *BillingService) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := PreloadTransaction(s.db.WithContext(ctx)).First(&txn, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// PreloadTransaction populates the relations the transaction listings return.
func PreloadTransaction(db *gorm.DB) *gorm.DB {
	return db.Preload("Household").
		Preload("Invoice").
		Preload("Invoice.Fee").
		Preload("Invoice.PaymentSession")
}

// CascadeResult counts the rows removed with a session.
type CascadeResult struct {
	Invoices     int64 `json:"invoices"`
	Transactions int64 `json:"transactions"`
}

// DeleteSession removes a session together with its invoices and their
// transactions. Each step filters on ids collected by the step before it, and
// everything commits or rolls back together.
func (s *BillingService) DeleteSession(ctx context.Context, sessionID uuid.UUID) (*CascadeResult, error) {
	var res CascadeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &models.PaymentSession{}, sessionID, ErrSessionNotFound); err != nil {
			return err
		}

		var invoiceIDs []uuid.UUID
		if err := tx.Model(&models.Invoice{}).
			Where("payment_session_id = ?", sessionID).
			Pluck("id", &invoiceIDs).Error; err != nil {
			return fmt.Errorf("collect invoices: %w", err)
		}

		if len(invoiceIDs) > 0 {
			deleted := tx.Where("invoice_id IN ?", invoiceIDs).Delete(&models.Transaction{})
			if deleted.Error != nil {
				return fmt.Errorf("delete transactions: %w", deleted.Error)
			}
			res.Transactions = deleted.RowsAffected
		}

		deleted := tx.Where("payment_session_id = ?", sessionID).Delete(&models.Invoice{})
		if deleted.Error != nil {
			return fmt.Errorf("delete invoices: %w", deleted.Error)
		}
		res.Invoices = deleted.RowsAffected

		if err := tx.Where("payment_session_id = ?", sessionID).Delete(&models.SessionFee{}).Error; err != nil {
			return fmt.Errorf("delete session fees: %w", err)
		}
		if err := tx.Where("payment_session_id = ?", sessionID).Delete(&models.ReminderLog{}).Error; err != nil {
			return fmt.Errorf("delete reminder logs: %w", err)
		}
		if err := tx.Delete(&models.PaymentSession{}, "id = ?", sessionID).Error; err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "payment session deleted",
		logger.FieldOperation, logger.OpCascade,
		logger.FieldSessionID, sessionID,
		"invoices", res.Invoices,
		"transactions", res.Transactions)
	s.publish(ctx, EventSessionDeleted, fields{"sessionId": sessionID, "invoices": res.Invoices, "transactions": res.Transactions})
	return &res, nil
}

// InvoiceAmount is one row of a bulk amount update.
type InvoiceAmount struct {
	HouseholdID uuid.UUID
	Amount      decimal.Decimal
}

// SetInvoiceAmounts upserts the owed amount of one fee for many households.
// Paid amounts are kept; statuses are recomputed. When a household appears
// more than once the last entry wins.
func (s *BillingService) SetInvoiceAmounts(ctx context.Context, sessionID, feeID uuid.UUID, entries []InvoiceAmount) (int, error) {
	latest := make(map[uuid.UUID]decimal.Decimal, len(entries))
	order := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if e.HouseholdID == uuid.Nil {
			return 0, ErrHouseholdRequired
		}
		if e.Amount.IsNegative() {
			return 0, ErrNegativeAmount
		}
		if _, ok := latest[e.HouseholdID]; !ok {
			order = append(order, e.HouseholdID)
		}
		latest[e.HouseholdID] = e.Amount.Round(2)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &models.PaymentSession{}, sessionID, ErrSessionNotFound); err != nil {
			return err
		}
		if err := mustExist(tx, &models.Fee{}, feeID, ErrFeeNotFound); err != nil {
			return err
		}
		if len(order) == 0 {
			return nil
		}

		var known int64
		if err := tx.Model(&models.Household{}).Where("id IN ?", order).Count(&known).Error; err != nil {
			return err
		}
		if int(known) != len(order) {
			return ErrHouseholdNotFound
		}

		invoices := make([]models.Invoice, 0, len(order))
		for _, hid := range order {
			invoices = append(invoices, models.Invoice{
				HouseholdID:      hid,
				FeeID:            feeID,
				PaymentSessionID: sessionID,
				Amount:           latest[hid],
				PaidAmount:       decimal.Zero,
			})
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   invoiceKey,
			DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
		}).CreateInBatches(&invoices, invoiceBatchSize).Error; err != nil {
			return fmt.Errorf("upsert invoices: %w", err)
		}

		return tx.Model(&models.Invoice{}).
			Where("payment_session_id = ? AND fee_id = ? AND household_id IN ?", sessionID, feeID, order).
			Update("status", gorm.Expr(models.StatusExpr("paid_amount", "amount"))).Error
	})
	if err != nil {
		return 0, err
	}

	s.log.InfoContext(ctx, "invoice amounts updated",
		logger.FieldOperation, logger.OpBulk,
		logger.FieldSessionID, sessionID,
		logger.FieldFeeID, feeID,
		logger.FieldCount, len(order))
	return len(order), nil
}

func (s *BillingService) publish(ctx context.Context, eventType string, payload any) {
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		s.log.WarnContext(ctx, "event publish failed", "event", eventType, logger.FieldError, err)
	}
}

// mustExist returns notFound unless a row of model with the given id exists.
func mustExist(tx *gorm.DB, model interface{}, id uuid.UUID, notFound error) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound
	}
	return nil
}

type fields = map[string]any
