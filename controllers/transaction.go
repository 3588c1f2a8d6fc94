package controllers

import (
	"net/http"
	"time"

	"condofee-backend/services"
	"condofee-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTransactionInput selects the invoice either by id or by fee and
// session; with neither the payment is kept against the household only.
type CreateTransactionInput struct {
	Household      uuid.UUID       `json:"household" binding:"required"`
	Invoice        *uuid.UUID      `json:"invoice"`
	Fee            *uuid.UUID      `json:"fee"`
	PaymentSession *uuid.UUID      `json:"paymentSession"`
	Amount         decimal.Decimal `json:"amount" binding:"gt=0"`
	PayerName      string          `json:"payerName"`
	Method         string          `json:"method" binding:"omitempty,oneof=cash transfer"`
	Note           string          `json:"note"`
	Date           *time.Time      `json:"date"`
}

type UpdateTransactionInput struct {
	Amount    *decimal.Decimal `json:"amount"`
	PayerName *string          `json:"payerName"`
	Method    *string          `json:"method" binding:"omitempty,oneof=cash transfer"`
	Note      *string          `json:"note"`
	Date      *time.Time       `json:"date"`
}

func GetTransactions(c *gin.Context) {
	householdID, ok := optionalUUIDQuery(c, "householdId", "household")
	if !ok {
		return
	}

	txns, err := Billing.ListTransactions(c.Request.Context(), householdID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve transactions")
		return
	}
	c.JSON(http.StatusOK, txns)
}

// CreateTransaction records a payment and updates the invoice balance.
func CreateTransaction(c *gin.Context) {
	var input CreateTransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Invoice == nil && (input.Fee == nil) != (input.PaymentSession == nil) {
		utils.RespondWithError(c, http.StatusBadRequest, "Fee and payment session must be given together")
		return
	}

	txn, err := Billing.PostTransaction(c.Request.Context(), services.PostTransactionInput{
		HouseholdID:      input.Household,
		InvoiceID:        input.Invoice,
		FeeID:            input.Fee,
		PaymentSessionID: input.PaymentSession,
		Amount:           input.Amount,
		PayerName:        input.PayerName,
		Method:           input.Method,
		Note:             input.Note,
		Date:             input.Date,
		CreatedBy:        currentUserID(c),
	})
	if err != nil {
		respondServiceError(c, err, "Failed to create transaction")
		return
	}

	c.JSON(http.StatusCreated, txn)
}

func UpdateTransaction(c *gin.Context) {
	id, ok := utils.ParseIDParam(c, "id", "transaction")
	if !ok {
		return
	}

	var input UpdateTransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	txn, err := Billing.UpdateTransaction(c.Request.Context(), id, services.UpdateTransactionInput{
		Amount:    input.Amount,
		PayerName: input.PayerName,
		Method:    input.Method,
		Note:      input.Note,
		Date:      input.Date,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to update transaction")
		return
	}
	c.JSON(http.StatusOK, txn)
}

func DeleteTransaction(c *gin.Context) {
	id, ok := utils.ParseIDParam(c, "id", "transaction")
	if !ok {
		return
	}

	if err := Billing.DeleteTransaction(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Failed to delete transaction")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}
