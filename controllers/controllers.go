package controllers

import (
	"errors"
	"net/http"

	"condofee-backend/models"
	"condofee-backend/services"
	"condofee-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	Billing   *services.BillingService
	Reminders *services.ReminderService
)

// Init hands the services to the handlers.
func Init(billing *services.BillingService, reminders *services.ReminderService) {
	Billing = billing
	Reminders = reminders
}

var clientErrors = map[error]int{
	services.ErrHouseholdRequired:        http.StatusBadRequest,
	services.ErrInvoiceHouseholdMismatch: http.StatusBadRequest,
	services.ErrSessionFeeNotFound:       http.StatusBadRequest,
	services.ErrInvalidAmount:            http.StatusBadRequest,
	services.ErrNegativeAmount:           http.StatusBadRequest,
	services.ErrTitleRequired:            http.StatusBadRequest,
	services.ErrInvalidMethod:            http.StatusBadRequest,
	services.ErrHouseholdNotFound:        http.StatusNotFound,
	services.ErrInvoiceNotFound:          http.StatusNotFound,
	services.ErrSessionNotFound:          http.StatusNotFound,
	services.ErrFeeNotFound:              http.StatusNotFound,
	services.ErrTransactionNotFound:      http.StatusNotFound,
	models.ErrUnknownFeeType:             http.StatusBadRequest,
	models.ErrUnknownFeeUnit:             http.StatusBadRequest,
	models.ErrMissingUnitPrice:           http.StatusBadRequest,
	models.ErrMissingUnit:                http.StatusBadRequest,
	models.ErrNegativeUnitPrice:          http.StatusBadRequest,
	models.ErrFeeNameRequired:            http.StatusBadRequest,
}

// respondServiceError maps domain errors to 4xx and everything else to 500
// with the underlying message.
func respondServiceError(c *gin.Context, err error, message string) {
	for target, code := range clientErrors {
		if errors.Is(err, target) {
			utils.RespondWithError(c, code, err.Error())
			return
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusNotFound, "Record not found")
		return
	}
	utils.RespondWithErrorDetail(c, http.StatusInternalServerError, message, err)
}

func currentUserID(c *gin.Context) *uuid.UUID {
	id, err := uuid.Parse(c.GetString("userId"))
	if err != nil {
		return nil
	}
	return &id
}

// optionalUUIDQuery parses an optional uuid query parameter. On failure it
// has already responded with 400.
func optionalUUIDQuery(c *gin.Context, name, label string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+label+" ID format")
		return nil, false
	}
	return &id, true
}
