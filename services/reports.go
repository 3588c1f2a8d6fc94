package services

import (
	"context"
	"fmt"

	"condofee-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const recentTransactionLimit = 5

// StatusCounts is the number of invoices in each status.
type StatusCounts struct {
	Unpaid  int64 `json:"unpaid"`
	Partial int64 `json:"partial"`
	Paid    int64 `json:"paid"`
}

func (c *StatusCounts) add(status string, n int64) {
	switch status {
	case models.StatusPaid:
		c.Paid += n
	case models.StatusPartial:
		c.Partial += n
	default:
		c.Unpaid += n
	}
}

type FeeSummary struct {
	FeeID     uuid.UUID       `json:"feeId"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Billed    decimal.Decimal `json:"billed"`
	Collected decimal.Decimal `json:"collected"`
	Invoices  StatusCounts    `json:"invoices"`
}

// SessionSummary totals a session per fee.
type SessionSummary struct {
	SessionID   uuid.UUID       `json:"sessionId"`
	Title       string          `json:"title"`
	Billed      decimal.Decimal `json:"billed"`
	Collected   decimal.Decimal `json:"collected"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Invoices    StatusCounts    `json:"invoices"`
	Fees        []FeeSummary    `json:"fees"`
}

type feeStatusRow struct {
	FeeID     uuid.UUID
	Status    string
	Count     int64
	Billed    decimal.Decimal
	Collected decimal.Decimal
}

func (s *BillingService) SessionSummary(ctx context.Context, sessionID uuid.UUID) (*SessionSummary, error) {
	db := s.db.WithContext(ctx)
	session, err := loadSession(db, sessionID)
	if err != nil {
		return nil, err
	}

	var rows []feeStatusRow
	err = db.Model(&models.Invoice{}).
		Select("fee_id, status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS billed, COALESCE(SUM(paid_amount), 0) AS collected").
		Where("payment_session_id = ?", sessionID).
		Group("fee_id, status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("summarize invoices: %w", err)
	}

	summary := &SessionSummary{
		SessionID: session.ID,
		Title:     session.Title,
		Billed:    decimal.Zero,
		Collected: decimal.Zero,
	}
	byFee := make(map[uuid.UUID]*FeeSummary)
	for _, entry := range session.Fees {
		if _, ok := byFee[entry.FeeID]; ok {
			continue
		}
		fs := &FeeSummary{FeeID: entry.FeeID, Billed: decimal.Zero, Collected: decimal.Zero}
		if entry.Fee != nil {
			fs.Name = entry.Fee.Name
			fs.Type = entry.Fee.Type
		}
		byFee[entry.FeeID] = fs
		summary.Fees = append(summary.Fees, FeeSummary{FeeID: entry.FeeID})
	}

	for _, r := range rows {
		fs, ok := byFee[r.FeeID]
		if !ok {
			// fee removed from the list after invoicing
			fs = &FeeSummary{FeeID: r.FeeID, Billed: decimal.Zero, Collected: decimal.Zero}
			byFee[r.FeeID] = fs
			summary.Fees = append(summary.Fees, FeeSummary{FeeID: r.FeeID})
		}
		fs.Billed = fs.Billed.Add(r.Billed)
		fs.Collected = fs.Collected.Add(r.Collected)
		fs.Invoices.add(r.Status, r.Count)

		summary.Billed = summary.Billed.Add(r.Billed)
		summary.Collected = summary.Collected.Add(r.Collected)
		summary.Invoices.add(r.Status, r.Count)
	}
	summary.Outstanding = summary.Billed.Sub(summary.Collected)
	if summary.Outstanding.IsNegative() {
		summary.Outstanding = decimal.Zero
	}

	for i := range summary.Fees {
		summary.Fees[i] = *byFee[summary.Fees[i].FeeID]
	}
	return summary, nil
}

// Dashboard is the overview shown on the admin home page.
type Dashboard struct {
	Households         int64                `json:"households"`
	ActiveSessions     int64                `json:"activeSessions"`
	Billed             decimal.Decimal      `json:"billed"`
	Collected          decimal.Decimal      `json:"collected"`
	Outstanding        decimal.Decimal      `json:"outstanding"`
	CollectionRate     float64              `json:"collectionRate"`
	Invoices           StatusCounts         `json:"invoices"`
	RecentTransactions []models.Transaction `json:"recentTransactions"`
}

type totalsRow struct {
	Billed    decimal.Decimal
	Collected decimal.Decimal
}

type statusRow struct {
	Status string
	Count  int64
}

// Dashboard runs the overview queries concurrently.
func (s *BillingService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		out      Dashboard
		totals   totalsRow
		statuses []statusRow
	)

	g, gctx := errgroup.WithContext(ctx)
	db := func() *gorm.DB { return s.db.WithContext(gctx) }

	g.Go(func() error {
		return db().Model(&models.Household{}).Where("is_active = ?", true).Count(&out.Households).Error
	})
	g.Go(func() error {
		return db().Model(&models.PaymentSession{}).Where("is_active = ?", true).Count(&out.ActiveSessions).Error
	})
	g.Go(func() error {
		return db().Model(&models.Invoice{}).
			Select("COALESCE(SUM(amount), 0) AS billed, COALESCE(SUM(paid_amount), 0) AS collected").
			Scan(&totals).Error
	})
	g.Go(func() error {
		return db().Model(&models.Invoice{}).
			Select("status, COUNT(*) AS count").
			Group("status").
			Scan(&statuses).Error
	})
	g.Go(func() error {
		return PreloadTransaction(db()).
			Order("date DESC").
			Order("created_at DESC").
			Limit(recentTransactionLimit).
			Find(&out.RecentTransactions).Error
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load dashboard: %w", err)
	}

	out.Billed = totals.Billed
	out.Collected = totals.Collected
	out.Outstanding = totals.Billed.Sub(totals.Collected)
	if out.Outstanding.IsNegative() {
		out.Outstanding = decimal.Zero
	}
	if totals.Billed.IsPositive() {
		out.CollectionRate = totals.Collected.Div(totals.Billed).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}
	for _, r := range statuses {
		out.Invoices.add(r.Status, r.Count)
	}
	if out.RecentTransactions == nil {
		out.RecentTransactions = []models.Transaction{}
	}
	return &out, nil
}
