package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"condofee-backend/logger"
	"condofee-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionFeeInput is one entry of a session's fee list as submitted.
type SessionFeeInput struct {
	FeeID     uuid.UUID
	UnitPrice *decimal.Decimal
	Amount    *decimal.Decimal
	Note      string
}

type SessionInput struct {
	Title       string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	Fees        []SessionFeeInput
}

// SessionUpdate carries the editable session fields; nil means unchanged.
// A non-nil Fees replaces the whole fee list.
type SessionUpdate struct {
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	IsActive    *bool
	Fees        *[]SessionFeeInput
}

func loadSession(tx *gorm.DB, id uuid.UUID) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := tx.Preload("Fees", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Preload("Fees.Fee").First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// buildSessionFees checks that every referenced fee exists and turns the
// input into ordered entries.
func buildSessionFees(tx *gorm.DB, sessionID uuid.UUID, in []SessionFeeInput) ([]models.SessionFee, error) {
	entries := make([]models.SessionFee, 0, len(in))
	ids := make([]uuid.UUID, 0, len(in))
	for i, f := range in {
		if f.FeeID == uuid.Nil {
			return nil, ErrFeeNotFound
		}
		if f.UnitPrice != nil && f.UnitPrice.IsNegative() {
			return nil, ErrNegativeAmount
		}
		if f.Amount != nil && f.Amount.IsNegative() {
			return nil, ErrNegativeAmount
		}
		ids = append(ids, f.FeeID)
		entries = append(entries, models.SessionFee{
			PaymentSessionID: sessionID,
			FeeID:            f.FeeID,
			Position:         i,
			UnitPrice:        f.UnitPrice,
			Amount:           f.Amount,
			Note:             f.Note,
		})
	}
	if len(ids) == 0 {
		return entries, nil
	}

	var found []uuid.UUID
	if err := tx.Model(&models.Fee{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	known := make(map[uuid.UUID]bool, len(found))
	for _, id := range found {
		known[id] = true
	}
	for _, id := range ids {
		if !known[id] {
			return nil, fmt.Errorf("%w: %s", ErrFeeNotFound, id)
		}
	}
	return entries, nil
}

// CreateSession stores a new session with its fee list and generates its
// invoices in the same transaction.
func (s *BillingService) CreateSession(ctx context.Context, in SessionInput, createdBy *uuid.UUID) (*models.PaymentSession, int, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, 0, ErrTitleRequired
	}

	session := models.PaymentSession{
		ID:          uuid.New(),
		Title:       title,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		IsActive:    true,
		CreatedBy:   createdBy,
	}

	var created int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entries, err := buildSessionFees(tx, session.ID, in.Fees)
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&session).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		if len(entries) > 0 {
			if err := tx.Omit(clause.Associations).Create(&entries).Error; err != nil {
				return fmt.Errorf("create session fees: %w", err)
			}
		}
		created, err = generateInvoices(tx, session.ID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	s.log.InfoContext(ctx, "payment session created",
		logger.FieldSessionID, session.ID,
		logger.FieldCount, created)
	s.publish(ctx, EventSessionCreated, fields{"sessionId": session.ID, "title": session.Title, "invoices": created})

	out, err := s.GetSession(ctx, session.ID)
	return out, created, err
}

// UpdateSession edits a session and generates invoices for any fees the
// edit added. Invoices of fees dropped from the list are kept.
func (s *BillingService) UpdateSession(ctx context.Context, id uuid.UUID, in SessionUpdate) (*models.PaymentSession, int, error) {
	var created int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.PaymentSession
		if err := tx.First(&session, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}

		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return ErrTitleRequired
			}
			session.Title = title
		}
		if in.Description != nil {
			session.Description = *in.Description
		}
		if in.StartDate != nil {
			session.StartDate = in.StartDate
		}
		if in.EndDate != nil {
			session.EndDate = in.EndDate
		}
		if in.IsActive != nil {
			session.IsActive = *in.IsActive
		}
		if err := tx.Omit(clause.Associations).Save(&session).Error; err != nil {
			return fmt.Errorf("update session: %w", err)
		}

		if in.Fees != nil {
			entries, err := buildSessionFees(tx, id, *in.Fees)
			if err != nil {
				return err
			}
			if err := tx.Where("payment_session_id = ?", id).Delete(&models.SessionFee{}).Error; err != nil {
				return fmt.Errorf("replace session fees: %w", err)
			}
			if len(entries) > 0 {
				if err := tx.Omit(clause.Associations).Create(&entries).Error; err != nil {
					return fmt.Errorf("replace session fees: %w", err)
				}
			}
		}

		var err error
		created, err = generateInvoices(tx, id)
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	s.log.InfoContext(ctx, "payment session updated",
		logger.FieldSessionID, id,
		logger.FieldCount, created)
	if created > 0 {
		s.publish(ctx, EventInvoicesGenerated, fields{"sessionId": id, "created": created})
	}

	out, err := s.GetSession(ctx, id)
	return out, created, err
}

// RemoveSessionFee drops one entry from a session's fee list. ref may be the
// entry id or the fee id. Invoices already issued for the fee stay.
func (s *BillingService) RemoveSessionFee(ctx context.Context, sessionID, ref uuid.UUID) (*models.PaymentSession, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &models.PaymentSession{}, sessionID, ErrSessionNotFound); err != nil {
			return err
		}
		result := tx.Where("payment_session_id = ? AND (id = ? OR fee_id = ?)", sessionID, ref, ref).
			Delete(&models.SessionFee{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrSessionFeeNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetSession(ctx, sessionID)
}

func (s *BillingService) GetSession(ctx context.Context, id uuid.UUID) (*models.PaymentSession, error) {
	return loadSession(s.db.WithContext(ctx), id)
}

// ListSessions returns every session, newest first, with fee metadata.
func (s *BillingService) ListSessions(ctx context.Context) ([]models.PaymentSession, error) {
	var sessions []models.PaymentSession
	err := s.db.WithContext(ctx).
		Preload("Fees", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Fees.Fee").
		Order("start_date DESC").
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// SessionInvoices lists a session's invoices, optionally for one household.
func (s *BillingService) SessionInvoices(ctx context.Context, sessionID uuid.UUID, householdID *uuid.UUID) ([]models.Invoice, error) {
	if err := mustExist(s.db.WithContext(ctx), &models.PaymentSession{}, sessionID, ErrSessionNotFound); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Preload("Household").
		Preload("Fee").
		Joins("JOIN households ON households.id = invoices.household_id").
		Where("invoices.payment_session_id = ?", sessionID)
	if householdID != nil {
		query = query.Where("invoices.household_id = ?", *householdID)
	}

	var invoices []models.Invoice
	err := query.Order("households.apartment_number ASC").Find(&invoices).Error
	return invoices, err
}

// SessionTransactions lists the transactions posted against a session's
// invoices, oldest first.
func (s *BillingService) SessionTransactions(ctx context.Context, sessionID uuid.UUID) ([]models.Transaction, error) {
	if err := mustExist(s.db.WithContext(ctx), &models.PaymentSession{}, sessionID, ErrSessionNotFound); err != nil {
		return nil, err
	}

	var txns []models.Transaction
	err := PreloadTransaction(s.db.WithContext(ctx)).
		Where("invoice_id IN (?)", s.db.Model(&models.Invoice{}).Select("id").Where("payment_session_id = ?", sessionID)).
		Order("date ASC").
		Find(&txns).Error
	return txns, err
}

// ListTransactions returns all transactions, or those of one household.
func (s *BillingService) ListTransactions(ctx context.Context, householdID *uuid.UUID) ([]models.Transaction, error) {
	query := PreloadTransaction(s.db.WithContext(ctx))
	if householdID != nil {
		query = query.Where("household_id = ?", *householdID)
	}
	var txns []models.Transaction
	err := query.Order("date DESC").Find(&txns).Error
	return txns, err
}
