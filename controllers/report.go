// controllers/report.go
package controllers

import (
	"net/http"
	"time"

	"condofee-backend/config"
	"condofee-backend/models"
	"condofee-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const topDebtorLimit = 10

// ReportController serves the collection analytics page
type ReportController struct{}

// CollectionAnalytics compares money received across periods
type CollectionAnalytics struct {
	CurrentMonth   decimal.Decimal `json:"currentMonth"`
	MonthGrowth    float64         `json:"monthGrowth"`
	CurrentQuarter decimal.Decimal `json:"currentQuarter"`
	QuarterGrowth  float64         `json:"quarterGrowth"`
	CurrentYear    decimal.Decimal `json:"currentYear"`
	YearGrowth     float64         `json:"yearGrowth"`
	ByMethod       []MethodTotal   `json:"byMethod"`
	TopDebtors     []DebtorSummary `json:"topDebtors"`
}

type MethodTotal struct {
	Method string          `json:"method"`
	Count  int64           `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

type DebtorSummary struct {
	HouseholdID     uuid.UUID       `json:"householdId"`
	ApartmentNumber string          `json:"apartmentNumber"`
	Owner           string          `json:"owner"`
	Invoices        int64           `json:"invoices"`
	Outstanding     decimal.Decimal `json:"outstanding"`
}

// period is a half-open date range and where its total goes
type period struct {
	start, end time.Time
	out        *decimal.Decimal
}

type sumRow struct {
	Total decimal.Decimal
}

func (rc *ReportController) GetCollectionAnalytics(c *gin.Context) {
	now := time.Now()
	currentYear, currentMonth, _ := now.Date()
	loc := now.Location()

	firstOfMonth := time.Date(currentYear, currentMonth, 1, 0, 0, 0, 0, loc)
	firstOfYear := time.Date(currentYear, 1, 1, 0, 0, 0, 0, loc)

	var month, lastMonth, quarter, lastQuarter, year, lastYear decimal.Decimal
	periods := []period{
		{firstOfMonth, firstOfMonth.AddDate(0, 1, 0), &month},
		{firstOfMonth.AddDate(0, -1, 0), firstOfMonth, &lastMonth},
		{rc.getQuarterStart(now), rc.getQuarterStart(now).AddDate(0, 3, 0), &quarter},
		{rc.getQuarterStart(now).AddDate(0, -3, 0), rc.getQuarterStart(now), &lastQuarter},
		{firstOfYear, firstOfYear.AddDate(1, 0, 0), &year},
		{firstOfYear.AddDate(-1, 0, 0), firstOfYear, &lastYear},
	}

	for _, p := range periods {
		total, err := rc.getCollected(p.start, p.end)
		if err != nil {
			utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Failed to get collected amount", err)
			return
		}
		*p.out = total
	}

	byMethod, err := rc.getCollectedByMethod(firstOfYear, firstOfYear.AddDate(1, 0, 0))
	if err != nil {
		utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Failed to get totals by method", err)
		return
	}

	debtors, err := rc.getTopDebtors(topDebtorLimit)
	if err != nil {
		utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Failed to get outstanding balances", err)
		return
	}

	c.JSON(http.StatusOK, CollectionAnalytics{
		CurrentMonth:   month,
		MonthGrowth:    rc.calculateGrowthPercentage(month, lastMonth),
		CurrentQuarter: quarter,
		QuarterGrowth:  rc.calculateGrowthPercentage(quarter, lastQuarter),
		CurrentYear:    year,
		YearGrowth:     rc.calculateGrowthPercentage(year, lastYear),
		ByMethod:       byMethod,
		TopDebtors:     debtors,
	})
}

// Helper functions for reports

func (rc *ReportController) getCollected(start, end time.Time) (decimal.Decimal, error) {
	var row sumRow
	err := config.DB.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("date >= ? AND date < ?", start, end).
		Scan(&row).Error
	return row.Total, err
}

func (rc *ReportController) getCollectedByMethod(start, end time.Time) ([]MethodTotal, error) {
	totals := []MethodTotal{}
	err := config.DB.Model(&models.Transaction{}).
		Select("method, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("date >= ? AND date < ?", start, end).
		Group("method").
		Order("method ASC").
		Scan(&totals).Error
	return totals, err
}

func (rc *ReportController) getTopDebtors(limit int) ([]DebtorSummary, error) {
	debtors := []DebtorSummary{}
	err := config.DB.Table("invoices").
		Select("households.id AS household_id, households.apartment_number, households.owner, "+
			"COUNT(invoices.id) AS invoices, SUM(invoices.amount - invoices.paid_amount) AS outstanding").
		Joins("JOIN households ON households.id = invoices.household_id").
		Where("invoices.status <> ?", models.StatusPaid).
		Group("households.id, households.apartment_number, households.owner").
		Order("outstanding DESC").
		Limit(limit).
		Scan(&debtors).Error
	return debtors, err
}

func (rc *ReportController) getQuarterStart(date time.Time) time.Time {
	quarter := (int(date.Month())-1)/3 + 1
	startMonth := time.Month((quarter-1)*3 + 1)
	return time.Date(date.Year(), startMonth, 1, 0, 0, 0, 0, date.Location())
}

func (rc *ReportController) calculateGrowthPercentage(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		if current.IsZero() {
			return 0
		}
		return 100
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}
