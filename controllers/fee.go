package controllers

import (
	"errors"
	"net/http"
	"strings"

	"condofee-backend/config"
	"condofee-backend/models"
	"condofee-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type FeeInput struct {
	Name        string           `json:"name" binding:"required"`
	Type        string           `json:"type" binding:"required,oneof=mandatory_automatic mandatory_manual voluntary"`
	UnitPrice   *decimal.Decimal `json:"unitPrice"`
	Unit        *string          `json:"unit" binding:"omitempty,oneof=area person household fixed"`
	Description string           `json:"description"`
}

type UpdateFeeInput struct {
	Name        *string          `json:"name"`
	Type        *string          `json:"type" binding:"omitempty,oneof=mandatory_automatic mandatory_manual voluntary"`
	UnitPrice   *decimal.Decimal `json:"unitPrice"`
	Unit        *string          `json:"unit" binding:"omitempty,oneof=area person household fixed"`
	Description *string          `json:"description"`
}

func CreateFee(c *gin.Context) {
	var input FeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	fee := models.Fee{
		Name:        strings.TrimSpace(input.Name),
		Type:        input.Type,
		UnitPrice:   input.UnitPrice,
		Unit:        input.Unit,
		Description: input.Description,
	}
	if err := fee.Validate(); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := config.DB.Create(&fee).Error; err != nil {
		respondServiceError(c, err, "Failed to create fee")
		return
	}
	c.JSON(http.StatusCreated, fee)
}

func GetFees(c *gin.Context) {
	query := config.DB.Order("name ASC")
	if t := c.Query("type"); t != "" {
		if !models.IsValidFeeType(t) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid fee type")
			return
		}
		query = query.Where("type = ?", t)
	}

	var fees []models.Fee
	if err := query.Find(&fees).Error; err != nil {
		utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Failed to retrieve fees", err)
		return
	}
	c.JSON(http.StatusOK, fees)
}

func GetFee(c *gin.Context) {
	id, ok := utils.ParseIDParam(c, "id", "fee")
	if !ok {
		return
	}

	var fee models.Fee
	if err := config.DB.First(&fee, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Fee not found")
		} else {
			utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Database error", err)
		}
		return
	}
	c.JSON(http.StatusOK, fee)
}

// UpdateFee edits a catalog entry. Only invoices generated afterwards use the
// new price.
func UpdateFee(c *gin.Context) {
	id, ok := utils.ParseIDParam(c, "id", "fee")
	if !ok {
		return
	}

	var input UpdateFeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var fee models.Fee
	if err := config.DB.First(&fee, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Fee not found")
		} else {
			utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Database error", err)
		}
		return
	}

	if input.Name != nil {
		fee.Name = strings.TrimSpace(*input.Name)
	}
	if input.Type != nil {
		fee.Type = *input.Type
	}
	if input.UnitPrice != nil {
		fee.UnitPrice = input.UnitPrice
	}
	if input.Unit != nil {
		fee.Unit = input.Unit
	}
	if input.Description != nil {
		fee.Description = *input.Description
	}

	if err := fee.Validate(); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := config.DB.Save(&fee).Error; err != nil {
		respondServiceError(c, err, "Failed to update fee")
		return
	}
	c.JSON(http.StatusOK, fee)
}

// DeleteFee removes a fee that no session or invoice references.
func DeleteFee(c *gin.Context) {
	id, ok := utils.ParseIDParam(c, "id", "fee")
	if !ok {
		return
	}

	var fee models.Fee
	if err := config.DB.First(&fee, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Fee not found")
		} else {
			utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Database error", err)
		}
		return
	}

	var entries, invoices int64
	if err := config.DB.Model(&models.SessionFee{}).Where("fee_id = ?", id).Count(&entries).Error; err != nil {
		utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Failed to check fee usage", err)
		return
	}
	if err := config.DB.Model(&models.Invoice{}).Where("fee_id = ?", id).Count(&invoices).Error; err != nil {
		utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Failed to check fee usage", err)
		return
	}
	if entries > 0 || invoices > 0 {
		utils.RespondWithError(c, http.StatusConflict, "Fee is used by a payment session")
		return
	}

	if err := config.DB.Delete(&fee).Error; err != nil {
		utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Failed to delete fee", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fee deleted successfully"})
}
