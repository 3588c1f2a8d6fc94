package services

import (
	"context"
	"errors"
	"testing"

	"condofee-backend/models"

	"github.com/google/uuid"
)

func TestSessionSummary(t *testing.T) {
	s, db, _ := newTestBilling(t)
	ctx := context.Background()
	h1 := seedHousehold(t, db, "101", 50, 2)
	h2 := seedHousehold(t, db, "102", 50, 2)
	service := seedAutomaticFee(t, db, "Service", 6000, models.UnitArea)
	charity := seedFee(t, db, "Charity", models.FeeVoluntary)
	session := createSession(t, s, SessionFeeInput{FeeID: service.ID}, SessionFeeInput{FeeID: charity.ID})

	inv := findInvoice(t, db, h1.ID, service.ID, session.ID)
	if _, err := s.PostTransaction(ctx, PostTransactionInput{HouseholdID: h1.ID, InvoiceID: &inv.ID, Amount: dec(300000)}); err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := s.PostTransaction(ctx, PostTransactionInput{HouseholdID: h2.ID, FeeID: &charity.ID, PaymentSessionID: &session.ID, Amount: dec(50000)}); err != nil {
		t.Fatalf("post: %v", err)
	}

	summary, err := s.SessionSummary(ctx, session.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !summary.Billed.Equal(dec(650000)) || !summary.Collected.Equal(dec(350000)) || !summary.Outstanding.Equal(dec(300000)) {
		t.Fatalf("totals billed=%s collected=%s outstanding=%s", summary.Billed, summary.Collected, summary.Outstanding)
	}
	if summary.Invoices.Paid != 2 || summary.Invoices.Unpaid != 1 {
		t.Fatalf("status counts = %+v", summary.Invoices)
	}
	if len(summary.Fees) != 2 || summary.Fees[0].FeeID != service.ID || summary.Fees[0].Name != "Service" {
		t.Fatalf("fees = %+v", summary.Fees)
	}
	if !summary.Fees[0].Billed.Equal(dec(600000)) || summary.Fees[0].Invoices.Paid != 1 {
		t.Fatalf("service fee = %+v", summary.Fees[0])
	}

	if _, err := s.SessionSummary(ctx, uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestDashboard(t *testing.T) {
	s, db, _ := newTestBilling(t)
	ctx := context.Background()

	empty, err := s.Dashboard(ctx)
	if err != nil {
		t.Fatalf("empty dashboard: %v", err)
	}
	if empty.CollectionRate != 0 || len(empty.RecentTransactions) != 0 {
		t.Fatalf("empty dashboard = %+v", empty)
	}

	h1 := seedHousehold(t, db, "101", 50, 2)
	seedHousehold(t, db, "102", 50, 2)
	fee := seedAutomaticFee(t, db, "Service", 6000, models.UnitArea)
	session := createSession(t, s, SessionFeeInput{FeeID: fee.ID})
	inv := findInvoice(t, db, h1.ID, fee.ID, session.ID)
	if _, err := s.PostTransaction(ctx, PostTransactionInput{HouseholdID: h1.ID, InvoiceID: &inv.ID, Amount: dec(150000)}); err != nil {
		t.Fatalf("post: %v", err)
	}

	d, err := s.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.Households != 2 || d.ActiveSessions != 1 {
		t.Fatalf("counts = %d households, %d sessions", d.Households, d.ActiveSessions)
	}
	if !d.Billed.Equal(dec(600000)) || !d.Collected.Equal(dec(150000)) || !d.Outstanding.Equal(dec(450000)) {
		t.Fatalf("totals billed=%s collected=%s outstanding=%s", d.Billed, d.Collected, d.Outstanding)
	}
	if d.CollectionRate != 25 {
		t.Fatalf("collection rate = %v, want 25", d.CollectionRate)
	}
	if d.Invoices.Partial != 1 || d.Invoices.Unpaid != 1 {
		t.Fatalf("status counts = %+v", d.Invoices)
	}
	if len(d.RecentTransactions) != 1 || d.RecentTransactions[0].Household == nil {
		t.Fatalf("recent transactions = %+v", d.RecentTransactions)
	}
}
