package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"condofee-backend/logger"
	"condofee-backend/models"
	"condofee-backend/utils"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"
)

// Reminder statuses and channels
const (
	ReminderSent    = "sent"
	ReminderFailed  = "failed"
	ReminderSkipped = "skipped"

	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
)

// MessageSender delivers one text message and returns the provider id.
type MessageSender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// TwilioSender sends reminders through Twilio. Numbers in E.164 form go out
// over WhatsApp when a WhatsApp sender is configured, others as SMS.
type TwilioSender struct {
	client   *twilio.RestClient
	from     string
	whatsApp string
}

func NewTwilioSender(accountSID, authToken, from, whatsApp string) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from:     from,
		whatsApp: whatsApp,
	}
}

func (t *TwilioSender) Send(ctx context.Context, to, body string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetBody(body)
	if channelFor(to, t.whatsApp != "") == ChannelWhatsApp {
		params.SetTo("whatsapp:" + to)
		params.SetFrom("whatsapp:" + t.whatsApp)
	} else {
		params.SetTo(to)
		params.SetFrom(t.from)
	}

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}
	if resp.Sid != nil {
		return *resp.Sid, nil
	}
	return "", nil
}

func channelFor(phone string, whatsApp bool) string {
	if whatsApp && strings.HasPrefix(phone, "+") {
		return ChannelWhatsApp
	}
	return ChannelSMS
}

// ReminderResult counts the outcome of one reminder run.
type ReminderResult struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

func (r *ReminderResult) merge(o ReminderResult) {
	r.Sent += o.Sent
	r.Failed += o.Failed
	r.Skipped += o.Skipped
}

// ReminderService texts households that still owe money on a session.
type ReminderService struct {
	db         *gorm.DB
	sender     MessageSender
	whatsApp   bool
	windowDays int
	log        *logger.Logger
	now        func() time.Time
}

// NewReminderService builds the service. A nil sender logs every reminder as
// skipped instead of sending it.
func NewReminderService(db *gorm.DB, sender MessageSender, whatsApp bool, windowDays int, log *logger.Logger) *ReminderService {
	if log == nil {
		log = logger.Get(logger.ComponentReminder)
	}
	return &ReminderService{
		db:         db,
		sender:     sender,
		whatsApp:   whatsApp,
		windowDays: windowDays,
		log:        log,
		now:        time.Now,
	}
}

// StartScheduler runs SendDueReminders on the given cron schedule. The
// caller stops the returned cron on shutdown.
func (s *ReminderService) StartScheduler(schedule string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.SendDueReminders(ctx); err != nil {
			s.log.Error("reminder run failed", logger.FieldOperation, logger.OpRemind, logger.FieldError, err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule reminders: %w", err)
	}

	c.Start()
	s.log.Info("reminder scheduler started", "schedule", schedule, "window_days", s.windowDays)
	return c, nil
}

// SendDueReminders reminds households of every active session that ends
// within the reminder window.
func (s *ReminderService) SendDueReminders(ctx context.Context) (ReminderResult, error) {
	var total ReminderResult

	var sessions []models.PaymentSession
	if err := s.db.WithContext(ctx).
		Where("is_active = ? AND end_date IS NOT NULL", true).
		Find(&sessions).Error; err != nil {
		return total, fmt.Errorf("load sessions: %w", err)
	}

	today := s.now()
	for _, session := range sessions {
		days := utils.DaysUntil(today, *session.EndDate)
		if days < 0 || days > s.windowDays {
			continue
		}
		res, err := s.SendSessionReminders(ctx, session.ID)
		if err != nil {
			s.log.ErrorContext(ctx, "session reminders failed",
				logger.FieldSessionID, session.ID,
				logger.FieldError, err)
			continue
		}
		total.merge(res)
	}

	s.log.InfoContext(ctx, "reminder run completed",
		logger.FieldOperation, logger.OpRemind,
		"sent", total.Sent,
		"failed", total.Failed,
		"skipped", total.Skipped)
	return total, nil
}

type outstandingRow struct {
	HouseholdID     uuid.UUID
	ApartmentNumber string
	Owner           string
	Phone           string
	Outstanding     decimal.Decimal
}

// SendSessionReminders messages every active household with unpaid invoices
// in the session and records a ReminderLog per household.
func (s *ReminderService) SendSessionReminders(ctx context.Context, sessionID uuid.UUID) (ReminderResult, error) {
	var res ReminderResult
	db := s.db.WithContext(ctx)

	var session models.PaymentSession
	if err := db.First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return res, ErrSessionNotFound
		}
		return res, err
	}

	var rows []outstandingRow
	err := db.Model(&models.Invoice{}).
		Select("households.id AS household_id, households.apartment_number, households.owner, households.phone, "+
			"COALESCE(SUM(invoices.amount - invoices.paid_amount), 0) AS outstanding").
		Joins("JOIN households ON households.id = invoices.household_id").
		Where("invoices.payment_session_id = ? AND invoices.status <> ? AND households.is_active = ?",
			sessionID, models.StatusPaid, true).
		Group("households.id, households.apartment_number, households.owner, households.phone").
		Order("households.apartment_number ASC").
		Scan(&rows).Error
	if err != nil {
		return res, fmt.Errorf("load outstanding balances: %w", err)
	}

	for _, row := range rows {
		if !row.Outstanding.IsPositive() {
			continue
		}

		entry := models.ReminderLog{
			HouseholdID:      row.HouseholdID,
			PaymentSessionID: sessionID,
			Phone:            row.Phone,
			Message:          reminderMessage(session, row, s.now()),
			Channel:          channelFor(row.Phone, s.whatsApp),
			SentAt:           s.now(),
		}

		switch {
		case s.sender == nil:
			entry.Status = ReminderSkipped
			entry.ErrorMessage = "messaging is not configured"
			res.Skipped++
		case row.Phone == "":
			entry.Status = ReminderSkipped
			entry.ErrorMessage = "household has no phone number"
			res.Skipped++
		default:
			sid, err := s.sender.Send(ctx, row.Phone, entry.Message)
			if err != nil {
				entry.Status = ReminderFailed
				entry.ErrorMessage = err.Error()
				res.Failed++
				s.log.WarnContext(ctx, "reminder not delivered",
					logger.FieldHousehold, row.HouseholdID,
					logger.FieldError, err)
			} else {
				entry.Status = ReminderSent
				res.Sent++
				s.log.Debug("reminder sent", logger.FieldHousehold, row.HouseholdID, "sid", sid)
			}
		}

		if err := db.Create(&entry).Error; err != nil {
			s.log.ErrorContext(ctx, "failed to log reminder",
				logger.FieldHousehold, row.HouseholdID,
				logger.FieldError, err)
		}
	}
	return res, nil
}

func reminderMessage(session models.PaymentSession, row outstandingRow, now time.Time) string {
	msg := fmt.Sprintf("Dear %s (apt %s), you have %s outstanding for %q.",
		row.Owner, row.ApartmentNumber, row.Outstanding.StringFixed(0), session.Title)
	if session.EndDate != nil {
		switch days := utils.DaysUntil(now, *session.EndDate); {
		case days == 0:
			msg += " Payment is due today."
		case days == 1:
			msg += " Payment is due tomorrow."
		case days > 1:
			msg += fmt.Sprintf(" Payment is due in %d days.", days)
		}
	}
	return msg
}

// ListReminders returns the newest reminder logs, optionally for one session.
func (s *ReminderService) ListReminders(ctx context.Context, sessionID *uuid.UUID, limit int) ([]models.ReminderLog, error) {
	query := s.db.WithContext(ctx).Order("sent_at DESC")
	if sessionID != nil {
		query = query.Where("payment_session_id = ?", *sessionID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var logs []models.ReminderLog
	err := query.Find(&logs).Error
	return logs, err
}
