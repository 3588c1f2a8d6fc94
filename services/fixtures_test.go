package services

import (
	"context"
	"testing"

	"condofee-backend/config"
	"condofee-backend/logger"
	"condofee-backend/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// every connection to :memory: is its own database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestBilling(t *testing.T) (*BillingService, *gorm.DB, *recordingPublisher) {
	t.Helper()
	db := newTestDB(t)
	events := &recordingPublisher{}
	return NewBillingService(db, events, logger.Discard()), db, events
}

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	p.events = append(p.events, eventType)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(eventType string) int {
	n := 0
	for _, e := range p.events {
		if e == eventType {
			n++
		}
	}
	return n
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func seedHousehold(t *testing.T, db *gorm.DB, apartment string, area int64, members int) models.Household {
	t.Helper()
	h := models.Household{
		ApartmentNumber: apartment,
		Owner:           "Owner " + apartment,
		Phone:           "+84900000" + apartment,
		Area:            dec(area),
		MemberCount:     members,
		IsActive:        true,
	}
	if err := db.Create(&h).Error; err != nil {
		t.Fatalf("create household %s: %v", apartment, err)
	}
	return h
}

func seedAutomaticFee(t *testing.T, db *gorm.DB, name string, price int64, unit string) models.Fee {
	t.Helper()
	f := models.Fee{
		Name:      name,
		Type:      models.FeeMandatoryAutomatic,
		UnitPrice: decPtr(price),
		Unit:      &unit,
	}
	if err := db.Create(&f).Error; err != nil {
		t.Fatalf("create fee %s: %v", name, err)
	}
	return f
}

func seedFee(t *testing.T, db *gorm.DB, name, feeType string) models.Fee {
	t.Helper()
	f := models.Fee{Name: name, Type: feeType}
	if err := db.Create(&f).Error; err != nil {
		t.Fatalf("create fee %s: %v", name, err)
	}
	return f
}

func createSession(t *testing.T, s *BillingService, fees ...SessionFeeInput) *models.PaymentSession {
	t.Helper()
	session, _, err := s.CreateSession(context.Background(), SessionInput{
		Title: "Fees for June",
		Fees:  fees,
	}, nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return session
}

func findInvoice(t *testing.T, db *gorm.DB, householdID, feeID, sessionID uuid.UUID) models.Invoice {
	t.Helper()
	var inv models.Invoice
	err := db.Where("household_id = ? AND fee_id = ? AND payment_session_id = ?", householdID, feeID, sessionID).
		First(&inv).Error
	if err != nil {
		t.Fatalf("find invoice: %v", err)
	}
	return inv
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
