// controllers/invoice.go
package controllers

import (
	"errors"
	"net/http"

	"condofee-backend/config"
	"condofee-backend/models"
	"condofee-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetInvoices lists invoices across sessions, filtered by householdId,
// sessionId and status.
func GetInvoices(c *gin.Context) {
	householdID, ok := optionalUUIDQuery(c, "householdId", "household")
	if !ok {
		return
	}
	sessionID, ok := optionalUUIDQuery(c, "sessionId", "session")
	if !ok {
		return
	}

	query := config.DB.Preload("Household").Preload("Fee").Preload("PaymentSession")
	if householdID != nil {
		query = query.Where("household_id = ?", *householdID)
	}
	if sessionID != nil {
		query = query.Where("payment_session_id = ?", *sessionID)
	}
	if status := c.Query("status"); status != "" {
		switch status {
		case models.StatusUnpaid, models.StatusPartial, models.StatusPaid:
			query = query.Where("status = ?", status)
		default:
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid invoice status")
			return
		}
	}

	var invoices []models.Invoice
	if err := query.Order("created_at DESC").Find(&invoices).Error; err != nil {
		utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Failed to retrieve invoices", err)
		return
	}

	c.JSON(http.StatusOK, invoices)
}

// GetInvoice returns one invoice with the transactions posted against it.
func GetInvoice(c *gin.Context) {
	id, ok := utils.ParseIDParam(c, "id", "invoice")
	if !ok {
		return
	}

	var invoice models.Invoice
	if err := config.DB.Preload("Household").Preload("Fee").Preload("PaymentSession").
		First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
		} else {
			utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Database error", err)
		}
		return
	}

	var txns []models.Transaction
	if err := config.DB.Where("invoice_id = ?", id).Order("date ASC").Find(&txns).Error; err != nil {
		utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Failed to retrieve transactions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invoice":      invoice,
		"remaining":    invoice.Remaining(),
		"transactions": txns,
	})
}
