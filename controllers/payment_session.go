package controllers

import (
	"net/http"
	"strconv"
	"time"

	"condofee-backend/services"
	"condofee-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SessionFeeInput struct {
	Fee       uuid.UUID        `json:"fee" binding:"required"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
	Amount    *decimal.Decimal `json:"amount"`
	Note      string           `json:"note"`
}

type CreateSessionInput struct {
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	StartDate   *time.Time        `json:"startDate"`
	EndDate     *time.Time        `json:"endDate"`
	Fees        []SessionFeeInput `json:"fees" binding:"omitempty,dive"`
}

type UpdateSessionInput struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	StartDate   *time.Time         `json:"startDate"`
	EndDate     *time.Time         `json:"endDate"`
	IsActive    *bool              `json:"isActive"`
	Fees        *[]SessionFeeInput `json:"fees"`
}

type InvoiceAmountInput struct {
	HouseholdID uuid.UUID       `json:"householdId" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"gte=0"`
}

type BulkInvoiceInput struct {
	Invoices []InvoiceAmountInput `json:"invoices" binding:"required,dive"`
}

func toSessionFees(in []SessionFeeInput) []services.SessionFeeInput {
	out := make([]services.SessionFeeInput, 0, len(in))
	for _, f := range in {
		out = append(out, services.SessionFeeInput{
			FeeID:     f.Fee,
			UnitPrice: f.UnitPrice,
			Amount:    f.Amount,
			Note:      f.Note,
		})
	}
	return out
}

func validDateRange(start, end *time.Time) bool {
	return start == nil || end == nil || !end.Before(*start)
}

func GetPaymentSessions(c *gin.Context) {
	sessions, err := Billing.ListSessions(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve payment sessions")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// CreatePaymentSession stores a session and generates its invoices.
func CreatePaymentSession(c *gin.Context) {
	var input CreateSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !validDateRange(input.StartDate, input.EndDate) {
		utils.RespondWithError(c, http.StatusBadRequest, "End date must not be before start date")
		return
	}

	session, created, err := Billing.CreateSession(c.Request.Context(), services.SessionInput{
		Title:       input.Title,
		Description: input.Description,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Fees:        toSessionFees(input.Fees),
	}, currentUserID(c))
	if err != nil {
		respondServiceError(c, err, "Failed to create payment session")
		return
	}

	c.Header("X-Invoices-Generated", strconv.Itoa(created))
	c.JSON(http.StatusCreated, session)
}

func GetPaymentSession(c *gin.Context) {
	id, ok := utils.ParseIDParam(c, "id", "session")
	if !ok {
		return
	}

	session, err := Billing.GetSession(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve payment session")
		return
	}
	c.JSON(http.StatusOK, session)
}

// UpdatePaymentSession edits a session and invoices any newly added fees.
func UpdatePaymentSession(c *gin.Context) {
	id, ok := utils.ParseIDParam(c, "id", "session")
	if !ok {
		return
	}

	var input UpdateSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !validDateRange(input.StartDate, input.EndDate) {
		utils.RespondWithError(c, http.StatusBadRequest, "End date must not be before start date")
		return
	}

	update := services.SessionUpdate{
		Title:       input.Title,
		Description: input.Description,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		IsActive:    input.IsActive,
	}
	if input.Fees != nil {
		for _, f := range *input.Fees {
			if f.Fee == uuid.Nil {
				utils.RespondWithError(c, http.StatusBadRequest, "Invalid fee ID format")
				return
			}
		}
		fees := toSessionFees(*input.Fees)
		update.Fees = &fees
	}

	session, created, err := Billing.UpdateSession(c.Request.Context(), id, update)
	if err != nil {
		respondServiceError(c, err, "Failed to update payment session")
		return
	}

	c.Header("X-Invoices-Generated", strconv.Itoa(created))
	c.JSON(http.StatusOK, session)
}

// DeletePaymentSession removes the session with its invoices and transactions.
func DeletePaymentSession(c *gin.Context) {
	id, ok := utils.ParseIDParam(c, "id", "session")
	if !ok {
		return
	}

	res, err := Billing.DeleteSession(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to delete payment session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment session deleted successfully",
		"deleted": res,
	})
}

// RemoveSessionFee drops one fee entry from a session's fee list.
func RemoveSessionFee(c *gin.Context) {
	sessionID, ok := utils.ParseIDParam(c, "id", "session")
	if !ok {
		return
	}
	feeID, ok := utils.ParseIDParam(c, "feeId", "fee")
	if !ok {
		return
	}

	session, err := Billing.RemoveSessionFee(c.Request.Context(), sessionID, feeID)
	if err != nil {
		respondServiceError(c, err, "Failed to remove fee from payment session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Fee removed from payment session",
		"session": session,
	})
}

// GenerateSessionInvoices bills households added after the session was created.
func GenerateSessionInvoices(c *gin.Context) {
	sessionID, ok := utils.ParseIDParam(c, "id", "session")
	if !ok {
		return
	}

	created, err := Billing.GenerateInvoices(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err, "Failed to generate invoices")
		return
	}

	c.Header("X-Invoices-Generated", strconv.Itoa(created))
	c.JSON(http.StatusOK, gin.H{"created": created})
}

func GetSessionInvoices(c *gin.Context) {
	sessionID, ok := utils.ParseIDParam(c, "id", "session")
	if !ok {
		return
	}
	householdID, ok := optionalUUIDQuery(c, "householdId", "household")
	if !ok {
		return
	}

	invoices, err := Billing.SessionInvoices(c.Request.Context(), sessionID, householdID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve invoices")
		return
	}
	c.JSON(http.StatusOK, invoices)
}

// UpdateSessionInvoices sets the owed amount of one fee for many households.
func UpdateSessionInvoices(c *gin.Context) {
	sessionID, ok := utils.ParseIDParam(c, "id", "session")
	if !ok {
		return
	}
	feeID, ok := utils.ParseIDParam(c, "feeId", "fee")
	if !ok {
		return
	}

	var input BulkInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	entries := make([]services.InvoiceAmount, 0, len(input.Invoices))
	for _, inv := range input.Invoices {
		entries = append(entries, services.InvoiceAmount{HouseholdID: inv.HouseholdID, Amount: inv.Amount})
	}

	updated, err := Billing.SetInvoiceAmounts(c.Request.Context(), sessionID, feeID, entries)
	if err != nil {
		respondServiceError(c, err, "Failed to update invoices")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invoices updated successfully",
		"updated": updated,
	})
}

func GetSessionTransactions(c *gin.Context) {
	sessionID, ok := utils.ParseIDParam(c, "id", "session")
	if !ok {
		return
	}

	txns, err := Billing.SessionTransactions(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve transactions")
		return
	}
	c.JSON(http.StatusOK, txns)
}

func GetSessionSummary(c *gin.Context) {
	sessionID, ok := utils.ParseIDParam(c, "id", "session")
	if !ok {
		return
	}

	summary, err := Billing.SessionSummary(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err, "Failed to build session summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}
