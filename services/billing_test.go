package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"condofee-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestGenerateInvoices_AreaFee(t *testing.T) {
	s, db, events := newTestBilling(t)
	h := seedHousehold(t, db, "101", 50, 3)
	fee := seedAutomaticFee(t, db, "Service fee", 6000, models.UnitArea)

	session := createSession(t, s, SessionFeeInput{FeeID: fee.ID})

	inv := findInvoice(t, db, h.ID, fee.ID, session.ID)
	if !inv.Amount.Equal(dec(300000)) {
		t.Fatalf("amount = %s, want 300000", inv.Amount)
	}
	if !inv.PaidAmount.IsZero() {
		t.Fatalf("paidAmount = %s, want 0", inv.PaidAmount)
	}
	if inv.Status != models.StatusUnpaid {
		t.Fatalf("status = %s, want unpaid", inv.Status)
	}
	if events.count(EventSessionCreated) != 1 {
		t.Fatalf("expected one session.created event, got %v", events.events)
	}
}

func TestGenerateInvoices_Pricing(t *testing.T) {
	s, db, _ := newTestBilling(t)
	h := seedHousehold(t, db, "202", 72, 4)

	perPerson := seedAutomaticFee(t, db, "Water", 15000, models.UnitPerson)
	perHousehold := seedAutomaticFee(t, db, "Security", 80000, models.UnitHousehold)
	fixed := seedAutomaticFee(t, db, "Elevator", 25000, models.UnitFixed)
	overridden := seedAutomaticFee(t, db, "Management", 6000, models.UnitArea)
	manual := seedFee(t, db, "Repairs", models.FeeMandatoryManual)
	manualLater := seedFee(t, db, "Parking", models.FeeMandatoryManual)
	voluntary := seedFee(t, db, "Charity", models.FeeVoluntary)

	session := createSession(t, s,
		SessionFeeInput{FeeID: perPerson.ID},
		SessionFeeInput{FeeID: perHousehold.ID},
		SessionFeeInput{FeeID: fixed.ID},
		SessionFeeInput{FeeID: overridden.ID, UnitPrice: decPtr(7000)},
		SessionFeeInput{FeeID: manual.ID, Amount: decPtr(120000)},
		SessionFeeInput{FeeID: manualLater.ID},
		SessionFeeInput{FeeID: voluntary.ID},
	)

	tests := []struct {
		name string
		fee  models.Fee
		want decimal.Decimal
	}{
		{"per person", perPerson, dec(60000)},
		{"per household", perHousehold, dec(80000)},
		{"fixed", fixed, dec(25000)},
		{"session unit price", overridden, dec(504000)},
		{"manual amount", manual, dec(120000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := findInvoice(t, db, h.ID, tt.fee.ID, session.ID)
			if !inv.Amount.Equal(tt.want) {
				t.Fatalf("amount = %s, want %s", inv.Amount, tt.want)
			}
		})
	}

	if n := countRows(t, db, &models.Invoice{}, "fee_id = ?", manualLater.ID); n != 0 {
		t.Fatalf("manual fee without amount produced %d invoices", n)
	}
	if n := countRows(t, db, &models.Invoice{}, "fee_id = ?", voluntary.ID); n != 0 {
		t.Fatalf("voluntary fee produced %d invoices", n)
	}
}

func TestGenerateInvoices_OnePerHouseholdAndFee(t *testing.T) {
	s, db, _ := newTestBilling(t)
	households := []models.Household{
		seedHousehold(t, db, "101", 50, 2),
		seedHousehold(t, db, "102", 65, 3),
		seedHousehold(t, db, "103", 80, 5),
	}
	area := seedAutomaticFee(t, db, "Service", 6000, models.UnitArea)
	person := seedAutomaticFee(t, db, "Water", 10000, models.UnitPerson)

	// a fee listed twice still yields one invoice per household
	session := createSession(t, s,
		SessionFeeInput{FeeID: area.ID},
		SessionFeeInput{FeeID: person.ID},
		SessionFeeInput{FeeID: area.ID},
	)

	if n := countRows(t, db, &models.Invoice{}, "payment_session_id = ?", session.ID); n != 6 {
		t.Fatalf("invoices = %d, want 6", n)
	}
	for _, h := range households {
		inv := findInvoice(t, db, h.ID, area.ID, session.ID)
		want := dec(6000).Mul(h.Area)
		if !inv.Amount.Equal(want) {
			t.Fatalf("household %s amount = %s, want %s", h.ApartmentNumber, inv.Amount, want)
		}
	}
}

func TestGenerateInvoices_Idempotent(t *testing.T) {
	s, db, _ := newTestBilling(t)
	ctx := context.Background()
	h1 := seedHousehold(t, db, "101", 50, 2)
	fee := seedAutomaticFee(t, db, "Service", 6000, models.UnitArea)
	session := createSession(t, s, SessionFeeInput{FeeID: fee.ID})

	inv := findInvoice(t, db, h1.ID, fee.ID, session.ID)
	if _, err := s.PostTransaction(ctx, PostTransactionInput{HouseholdID: h1.ID, InvoiceID: &inv.ID, Amount: dec(100000)}); err != nil {
		t.Fatalf("post: %v", err)
	}

	created, err := s.GenerateInvoices(ctx, session.ID)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if created != 0 {
		t.Fatalf("regeneration created %d invoices, want 0", created)
	}

	// the catalog price changes and a new household moves in
	if err := db.Model(&models.Fee{}).Where("id = ?", fee.ID).UpdateColumn("unit_price", dec(9000)).Error; err != nil {
		t.Fatalf("update price: %v", err)
	}
	h2 := seedHousehold(t, db, "102", 40, 1)

	created, err = s.GenerateInvoices(ctx, session.ID)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}

	old := findInvoice(t, db, h1.ID, fee.ID, session.ID)
	if !old.Amount.Equal(dec(300000)) || !old.PaidAmount.Equal(dec(100000)) || old.Status != models.StatusPartial {
		t.Fatalf("existing invoice changed: amount=%s paid=%s status=%s", old.Amount, old.PaidAmount, old.Status)
	}
	fresh := findInvoice(t, db, h2.ID, fee.ID, session.ID)
	if !fresh.Amount.Equal(dec(360000)) {
		t.Fatalf("new household amount = %s, want 360000", fresh.Amount)
	}
}

func TestGenerateInvoices_SkipsInactiveHouseholds(t *testing.T) {
	s, db, _ := newTestBilling(t)
	active := seedHousehold(t, db, "101", 50, 2)
	inactive := seedHousehold(t, db, "102", 50, 2)
	if err := db.Model(&inactive).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	fee := seedAutomaticFee(t, db, "Service", 6000, models.UnitArea)

	session := createSession(t, s, SessionFeeInput{FeeID: fee.ID})

	if n := countRows(t, db, &models.Invoice{}, "household_id = ?", inactive.ID); n != 0 {
		t.Fatalf("inactive household got %d invoices", n)
	}
	findInvoice(t, db, active.ID, fee.ID, session.ID)
}

func TestGenerateInvoices_UnknownSession(t *testing.T) {
	s, _, _ := newTestBilling(t)
	if _, err := s.GenerateInvoices(context.Background(), uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestPostTransaction_PaysInvoice(t *testing.T) {
	s, db, events := newTestBilling(t)
	h := seedHousehold(t, db, "101", 50, 2)
	fee := seedAutomaticFee(t, db, "Service", 6000, models.UnitArea)
	session := createSession(t, s, SessionFeeInput{FeeID: fee.ID})
	inv := findInvoice(t, db, h.ID, fee.ID, session.ID)

	txn, err := s.PostTransaction(context.Background(), PostTransactionInput{
		HouseholdID: h.ID,
		InvoiceID:   &inv.ID,
		Amount:      dec(300000),
		PayerName:   "Owner 101",
		Method:      models.MethodTransfer,
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if txn.InvoiceID == nil || *txn.InvoiceID != inv.ID {
		t.Fatalf("transaction not linked to invoice")
	}
	if txn.Invoice == nil || txn.Invoice.Fee == nil || txn.Household == nil {
		t.Fatalf("relations not loaded: %+v", txn)
	}

	inv = findInvoice(t, db, h.ID, fee.ID, session.ID)
	if inv.Status != models.StatusPaid {
		t.Fatalf("status = %s, want paid", inv.Status)
	}
	if !inv.PaidAmount.Equal(dec(300000)) {
		t.Fatalf("paidAmount = %s, want 300000", inv.PaidAmount)
	}
	if inv.Version != 1 {
		t.Fatalf("version = %d, want 1", inv.Version)
	}
	if events.count(EventTransactionPosted) != 1 {
		t.Fatalf("expected one transaction.posted event, got %v", events.events)
	}
}

func TestPostTransaction_RunningTotal(t *testing.T) {
	s, db, _ := newTestBilling(t)
	ctx := context.Background()
	h := seedHousehold(t, db, "101", 50, 2)
	fee := seedAutomaticFee(t, db, "Service", 6000, models.UnitArea)
	session := createSession(t, s, SessionFeeInput{FeeID: fee.ID})
	inv := findInvoice(t, db, h.ID, fee.ID, session.ID)

	steps := []struct {
		amount int64
		paid   int64
		status string
	}{
		{100000, 100000, models.StatusPartial},
		{150000, 250000, models.StatusPartial},
		{50000, 300000, models.StatusPaid},
		{20000, 320000, models.StatusPaid},
	}
	for _, step := range steps {
		if _, err := s.PostTransaction(ctx, PostTransactionInput{HouseholdID: h.ID, InvoiceID: &inv.ID, Amount: dec(step.amount)}); err != nil {
			t.Fatalf("post %d: %v", step.amount, err)
		}
		got := findInvoice(t, db, h.ID, fee.ID, session.ID)
		if !got.PaidAmount.Equal(dec(step.paid)) {
			t.Fatalf("after %d paidAmount = %s, want %d", step.amount, got.PaidAmount, step.paid)
		}
		if got.Status != step.status {
			t.Fatalf("after %d status = %s, want %s", step.amount, got.Status, step.status)
		}
	}
}

func TestPostTransaction_ConcurrentPostingsKeepEveryAmount(t *testing.T) {
	s, db, _ := newTestBilling(t)
	h := seedHousehold(t, db, "101", 50, 2)
	fee := seedAutomaticFee(t, db, "Service", 6000, models.UnitArea)
	session := createSession(t, s, SessionFeeInput{FeeID: fee.ID})
	inv := findInvoice(t, db, h.ID, fee.ID, session.ID)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.PostTransaction(context.Background(), PostTransactionInput{HouseholdID: h.ID, InvoiceID: &inv.ID, Amount: dec(10000)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("post: %v", err)
		}
	}

	got := findInvoice(t, db, h.ID, fee.ID, session.ID)
	if !got.PaidAmount.Equal(dec(100000)) {
		t.Fatalf("paidAmount = %s, want 100000", got.PaidAmount)
	}
	if got.Version != workers {
		t.Fatalf("version = %d, want %d", got.Version, workers)
	}
}

func TestPostTransaction_VoluntaryFeeCreatesInvoice(t *testing.T) {
	s, db, _ := newTestBilling(t)
	h := seedHousehold(t, db, "101", 50, 2)
	charity := seedFee(t, db, "Charity", models.FeeVoluntary)
	session := createSession(t, s, SessionFeeInput{FeeID: charity.ID})

	if n := countRows(t, db, &models.Invoice{}, ""); n != 0 {
		t.Fatalf("voluntary fee generated %d invoices", n)
	}

	txn, err := s.PostTransaction(context.Background(), PostTransactionInput{
		HouseholdID:      h.ID,
		FeeID:            &charity.ID,
		PaymentSessionID: &session.ID,
		Amount:           dec(50000),
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	inv := findInvoice(t, db, h.ID, charity.ID, session.ID)
	if !inv.Amount.Equal(dec(50000)) || !inv.PaidAmount.Equal(dec(50000)) || inv.Status != models.StatusPaid {
		t.Fatalf("invoice = amount %s paid %s status %s, want 50000/50000/paid", inv.Amount, inv.PaidAmount, inv.Status)
	}
	if txn.InvoiceID == nil || *txn.InvoiceID != inv.ID {
		t.Fatalf("transaction not linked to the created invoice")
	}
}

func TestPostTransaction_FeeAndSessionReuseInvoice(t *testing.T) {
	s, db, _ := newTestBilling(t)
	ctx := context.Background()
	h := seedHousehold(t, db, "101", 50, 2)
	fee := seedAutomaticFee(t, db, "Service", 6000, models.UnitArea)
	session := createSession(t, s, SessionFeeInput{FeeID: fee.ID})

	if _, err := s.PostTransaction(ctx, PostTransactionInput{
		HouseholdID:      h.ID,
		FeeID:            &fee.ID,
		PaymentSessionID: &session.ID,
		Amount:           dec(120000),
	}); err != nil {
		t.Fatalf("post: %v", err)
	}

	if n := countRows(t, db, &models.Invoice{}, "household_id = ?", h.ID); n != 1 {
		t.Fatalf("invoices = %d, want 1", n)
	}
	inv := findInvoice(t, db, h.ID, fee.ID, session.ID)
	if !inv.Amount.Equal(dec(300000)) || !inv.PaidAmount.Equal(dec(120000)) || inv.Status != models.StatusPartial {
		t.Fatalf("invoice = amount %s paid %s status %s", inv.Amount, inv.PaidAmount, inv.Status)
	}
}

func TestPostTransaction_MissingInvoiceWritesNothing(t *testing.T) {
	s, db, _ := newTestBilling(t)
	h := seedHousehold(t, db, "101", 50, 2)
	missing := uuid.New()

	_, err := s.PostTransaction(context.Background(), PostTransactionInput{HouseholdID: h.ID, InvoiceID: &missing, Amount: dec(1000)})
	if !errors.Is(err, ErrInvoiceNotFound) {
		t.Fatalf("err = %v, want ErrInvoiceNotFound", err)
	}
	if n := countRows(t, db, &models.Transaction{}, ""); n != 0 {
		t.Fatalf("transactions = %d, want 0", n)
	}
}

func TestPostTransaction_Rejections(t *testing.T) {
	s, db, _ := newTestBilling(t)
	h := seedHousehold(t, db, "101", 50, 2)
	other := seedHousehold(t, db, "102", 50, 2)
	fee := seedAutomaticFee(t, db, "Service", 6000, models.UnitArea)
	unlisted := seedFee(t, db, "Charity", models.FeeVoluntary)
	session := createSession(t, s, SessionFeeInput{FeeID: fee.ID})
	otherInvoice := findInvoice(t, db, other.ID, fee.ID, session.ID)

	tests := []struct {
		name string
		in   PostTransactionInput
		want error
	}{
		{"no household", PostTransactionInput{Amount: dec(1000)}, ErrHouseholdRequired},
		{"zero amount", PostTransactionInput{HouseholdID: h.ID}, ErrInvalidAmount},
		{"negative amount", PostTransactionInput{HouseholdID: h.ID, Amount: dec(-5)}, ErrInvalidAmount},
		{"bad method", PostTransactionInput{HouseholdID: h.ID, Amount: dec(1000), Method: "cheque"}, ErrInvalidMethod},
		{"unknown household", PostTransactionInput{HouseholdID: uuid.New(), Amount: dec(1000)}, ErrHouseholdNotFound},
		{"invoice of another household", PostTransactionInput{HouseholdID: h.ID, InvoiceID: &otherInvoice.ID, Amount: dec(1000)}, ErrInvoiceHouseholdMismatch},
		{"fee not in session", PostTransactionInput{HouseholdID: h.ID, FeeID: &unlisted.ID, PaymentSessionID: &session.ID, Amount: dec(1000)}, ErrSessionFeeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.PostTransaction(context.Background(), tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if n := countRows(t, db, &models.Transaction{}, ""); n != 0 {
		t.Fatalf("rejected postings wrote %d transactions", n)
	}
	if got := findInvoice(t, db, other.ID, fee.ID, session.ID); !got.PaidAmount.IsZero() {
		t.Fatalf("rejected posting changed paidAmount to %s", got.PaidAmount)
	}
}

func TestPostTransaction_HouseholdOnly(t *testing.T) {
	s, db, _ := newTestBilling(t)
	h := seedHousehold(t, db, "101", 50, 2)

	txn, err := s.PostTransaction(context.Background(), PostTransactionInput{HouseholdID: h.ID, Amount: dec(5000)})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if txn.InvoiceID != nil {
		t.Fatalf("household-only transaction linked to invoice %s", txn.InvoiceID)
	}
	if txn.Method != models.MethodCash {
		t.Fatalf("method = %s, want cash", txn.Method)
	}
}

func TestUpdateTransaction_AppliesDifference(t *testing.T) {
	s, db, _ := newTestBilling(t)
	ctx := context.Background()
	h := seedHousehold(t, db, "101", 50, 2)
	fee := seedAutomaticFee(t, db, "Service", 6000, models.UnitArea)
	session := createSession(t, s, SessionFeeInput{FeeID: fee.ID})
	inv := findInvoice(t, db, h.ID, fee.ID, session.ID)

	txn, err := s.PostTransaction(ctx, PostTransactionInput{HouseholdID: h.ID, InvoiceID: &inv.ID, Amount: dec(300000)})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	note := "corrected"
	updated, err := s.UpdateTransaction(ctx, txn.ID, UpdateTransactionInput{Amount: decPtr(200000), Note: &note})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Amount.Equal(dec(200000)) || updated.Note != note {
		t.Fatalf("transaction not updated: %+v", updated)
	}

	got := findInvoice(t, db, h.ID, fee.ID, session.ID)
	if !got.PaidAmount.Equal(dec(200000)) || got.Status != models.StatusPartial {
		t.Fatalf("invoice paid %s status %s, want 200000/partial", got.PaidAmount, got.Status)
	}

	if _, err := s.UpdateTransaction(ctx, uuid.New(), UpdateTransactionInput{Note: &note}); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("err = %v, want ErrTransactionNotFound", err)
	}
	if _, err := s.UpdateTransaction(ctx, txn.ID, UpdateTransactionInput{Amount: decPtr(0)}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestDeleteTransaction_ReversesPayment(t *testing.T) {
	s, db, _ := newTestBilling(t)
	ctx := context.Background()
	h := seedHousehold(t, db, "101", 50, 2)
	fee := seedAutomaticFee(t, db, "Service", 6000, models.UnitArea)
	session := createSession(t, s, SessionFeeInput{FeeID: fee.ID})
	inv := findInvoice(t, db, h.ID, fee.ID, session.ID)

	first, err := s.PostTransaction(ctx, PostTransactionInput{HouseholdID: h.ID, InvoiceID: &inv.ID, Amount: dec(300000)})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	if err := s.DeleteTransaction(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got := findInvoice(t, db, h.ID, fee.ID, session.ID)
	if !got.PaidAmount.IsZero() || got.Status != models.StatusUnpaid {
		t.Fatalf("invoice paid %s status %s, want 0/unpaid", got.PaidAmount, got.Status)
	}
	if err := s.DeleteTransaction(ctx, first.ID); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("err = %v, want ErrTransactionNotFound", err)
	}
}

func TestDeleteSession_Cascade(t *testing.T) {
	s, db, events := newTestBilling(t)
	ctx := context.Background()
	h1 := seedHousehold(t, db, "101", 50, 2)
	h2 := seedHousehold(t, db, "102", 60, 3)
	fee := seedAutomaticFee(t, db, "Service", 6000, models.UnitArea)
	doomed := createSession(t, s, SessionFeeInput{FeeID: fee.ID})
	kept := createSession(t, s, SessionFeeInput{FeeID: fee.ID})

	for _, h := range []models.Household{h1, h2} {
		for _, session := range []*models.PaymentSession{doomed, kept} {
			inv := findInvoice(t, db, h.ID, fee.ID, session.ID)
			if _, err := s.PostTransaction(ctx, PostTransactionInput{HouseholdID: h.ID, InvoiceID: &inv.ID, Amount: dec(1000)}); err != nil {
				t.Fatalf("post: %v", err)
			}
		}
	}

	res, err := s.DeleteSession(ctx, doomed.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if res.Invoices != 2 || res.Transactions != 2 {
		t.Fatalf("deleted %+v, want 2 invoices and 2 transactions", res)
	}

	if n := countRows(t, db, &models.Invoice{}, "payment_session_id = ?", doomed.ID); n != 0 {
		t.Fatalf("%d invoices left for deleted session", n)
	}
	if n := countRows(t, db, &models.SessionFee{}, "payment_session_id = ?", doomed.ID); n != 0 {
		t.Fatalf("%d fee entries left for deleted session", n)
	}
	if n := countRows(t, db, &models.PaymentSession{}, "id = ?", doomed.ID); n != 0 {
		t.Fatalf("session still exists")
	}
	if n := countRows(t, db, &models.Transaction{}, ""); n != 2 {
		t.Fatalf("transactions = %d, want the 2 of the other session", n)
	}
	if n := countRows(t, db, &models.Invoice{}, "payment_session_id = ?", kept.ID); n != 2 {
		t.Fatalf("other session lost invoices: %d", n)
	}
	if events.count(EventSessionDeleted) != 1 {
		t.Fatalf("expected one session.deleted event, got %v", events.events)
	}

	if _, err := s.DeleteSession(ctx, doomed.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSetInvoiceAmounts_LastEntryWins(t *testing.T) {
	s, db, _ := newTestBilling(t)
	h := seedHousehold(t, db, "101", 50, 2)
	repairs := seedFee(t, db, "Repairs", models.FeeMandatoryManual)
	session := createSession(t, s, SessionFeeInput{FeeID: repairs.ID})

	n, err := s.SetInvoiceAmounts(context.Background(), session.ID, repairs.ID, []InvoiceAmount{
		{HouseholdID: h.ID, Amount: dec(100000)},
		{HouseholdID: h.ID, Amount: dec(250000)},
	})
	if err != nil {
		t.Fatalf("set amounts: %v", err)
	}
	if n != 1 {
		t.Fatalf("updated = %d, want 1", n)
	}

	if rows := countRows(t, db, &models.Invoice{}, "household_id = ? AND fee_id = ?", h.ID, repairs.ID); rows != 1 {
		t.Fatalf("invoices = %d, want 1", rows)
	}
	inv := findInvoice(t, db, h.ID, repairs.ID, session.ID)
	if !inv.Amount.Equal(dec(250000)) {
		t.Fatalf("amount = %s, want 250000", inv.Amount)
	}
}

func TestSetInvoiceAmounts_KeepsPaidAmount(t *testing.T) {
	s, db, _ := newTestBilling(t)
	ctx := context.Background()
	h := seedHousehold(t, db, "101", 50, 2)
	fee := seedAutomaticFee(t, db, "Service", 6000, models.UnitArea)
	session := createSession(t, s, SessionFeeInput{FeeID: fee.ID})
	inv := findInvoice(t, db, h.ID, fee.ID, session.ID)

	if _, err := s.PostTransaction(ctx, PostTransactionInput{HouseholdID: h.ID, InvoiceID: &inv.ID, Amount: dec(300000)}); err != nil {
		t.Fatalf("post: %v", err)
	}

	if _, err := s.SetInvoiceAmounts(ctx, session.ID, fee.ID, []InvoiceAmount{{HouseholdID: h.ID, Amount: dec(400000)}}); err != nil {
		t.Fatalf("raise amount: %v", err)
	}
	got := findInvoice(t, db, h.ID, fee.ID, session.ID)
	if got.ID != inv.ID {
		t.Fatalf("upsert replaced the invoice row")
	}
	if !got.PaidAmount.Equal(dec(300000)) || got.Status != models.StatusPartial {
		t.Fatalf("paid %s status %s, want 300000/partial", got.PaidAmount, got.Status)
	}

	if _, err := s.SetInvoiceAmounts(ctx, session.ID, fee.ID, []InvoiceAmount{{HouseholdID: h.ID, Amount: dec(300000)}}); err != nil {
		t.Fatalf("lower amount: %v", err)
	}
	if got := findInvoice(t, db, h.ID, fee.ID, session.ID); got.Status != models.StatusPaid {
		t.Fatalf("status = %s, want paid", got.Status)
	}
}

func TestSetInvoiceAmounts_Rejections(t *testing.T) {
	s, db, _ := newTestBilling(t)
	h := seedHousehold(t, db, "101", 50, 2)
	repairs := seedFee(t, db, "Repairs", models.FeeMandatoryManual)
	session := createSession(t, s, SessionFeeInput{FeeID: repairs.ID})

	tests := []struct {
		name      string
		sessionID uuid.UUID
		feeID     uuid.UUID
		entries   []InvoiceAmount
		want      error
	}{
		{"unknown session", uuid.New(), repairs.ID, []InvoiceAmount{{HouseholdID: h.ID, Amount: dec(1)}}, ErrSessionNotFound},
		{"unknown fee", session.ID, uuid.New(), []InvoiceAmount{{HouseholdID: h.ID, Amount: dec(1)}}, ErrFeeNotFound},
		{"unknown household", session.ID, repairs.ID, []InvoiceAmount{{HouseholdID: h.ID, Amount: dec(1)}, {HouseholdID: uuid.New(), Amount: dec(1)}}, ErrHouseholdNotFound},
		{"negative amount", session.ID, repairs.ID, []InvoiceAmount{{HouseholdID: h.ID, Amount: dec(-1)}}, ErrNegativeAmount},
		{"missing household", session.ID, repairs.ID, []InvoiceAmount{{Amount: dec(1)}}, ErrHouseholdRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SetInvoiceAmounts(context.Background(), tt.sessionID, tt.feeID, tt.entries)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if n := countRows(t, db, &models.Invoice{}, ""); n != 0 {
		t.Fatalf("rejected updates wrote %d invoices", n)
	}
}
