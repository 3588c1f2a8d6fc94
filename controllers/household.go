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

type CreateHouseholdInput struct {
	ApartmentNumber string          `json:"apartmentNumber" binding:"required"`
	Owner           string          `json:"owner" binding:"required"`
	Phone           string          `json:"phone"`
	Area            decimal.Decimal `json:"area" binding:"gte=0"`
	MemberCount     int             `json:"memberCount" binding:"gte=0"`
}

type UpdateHouseholdInput struct {
	ApartmentNumber *string          `json:"apartmentNumber"`
	Owner           *string          `json:"owner"`
	Phone           *string          `json:"phone"`
	Area            *decimal.Decimal `json:"area"`
	MemberCount     *int             `json:"memberCount" binding:"omitempty,gte=0"`
	IsActive        *bool            `json:"isActive"`
}

func CreateHousehold(c *gin.Context) {
	var input CreateHouseholdInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Phone != "" && !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	apartment := strings.TrimSpace(input.ApartmentNumber)
	var existing models.Household
	if err := config.DB.Where("apartment_number = ?", apartment).First(&existing).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Apartment number already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Database error", err)
		return
	}

	household := models.Household{
		ApartmentNumber: apartment,
		Owner:           input.Owner,
		Phone:           input.Phone,
		Area:            input.Area.Round(2),
		MemberCount:     input.MemberCount,
		IsActive:        true,
	}
	if err := config.DB.Create(&household).Error; err != nil {
		utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Failed to create household", err)
		return
	}

	c.JSON(http.StatusCreated, household)
}

func GetHouseholds(c *gin.Context) {
	query := config.DB.Order("apartment_number ASC")
	if active := c.Query("active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var households []models.Household
	if err := query.Find(&households).Error; err != nil {
		utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Failed to retrieve households", err)
		return
	}
	c.JSON(http.StatusOK, households)
}

func GetHousehold(c *gin.Context) {
	id, ok := utils.ParseIDParam(c, "id", "household")
	if !ok {
		return
	}

	var household models.Household
	if err := config.DB.First(&household, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Household not found")
		} else {
			utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Database error", err)
		}
		return
	}
	c.JSON(http.StatusOK, household)
}

// UpdateHousehold edits the directory entry. Invoices already generated keep
// their amounts.
func UpdateHousehold(c *gin.Context) {
	id, ok := utils.ParseIDParam(c, "id", "household")
	if !ok {
		return
	}

	var input UpdateHouseholdInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var household models.Household
	if err := config.DB.First(&household, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Household not found")
		} else {
			utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Database error", err)
		}
		return
	}

	if input.ApartmentNumber != nil {
		apartment := strings.TrimSpace(*input.ApartmentNumber)
		if apartment == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "Apartment number cannot be empty")
			return
		}
		if apartment != household.ApartmentNumber {
			var count int64
			if err := config.DB.Model(&models.Household{}).Where("apartment_number = ? AND id <> ?", apartment, id).Count(&count).Error; err != nil {
				utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Failed to check apartment number", err)
				return
			}
			if count > 0 {
				utils.RespondWithError(c, http.StatusConflict, "Apartment number already exists")
				return
			}
		}
		household.ApartmentNumber = apartment
	}
	if input.Owner != nil {
		household.Owner = *input.Owner
	}
	if input.Phone != nil {
		if *input.Phone != "" && !utils.ValidatePhone(*input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		household.Phone = *input.Phone
	}
	if input.Area != nil {
		if input.Area.IsNegative() {
			utils.RespondWithError(c, http.StatusBadRequest, "Area cannot be negative")
			return
		}
		household.Area = input.Area.Round(2)
	}
	if input.MemberCount != nil {
		household.MemberCount = *input.MemberCount
	}
	if input.IsActive != nil {
		household.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&household).Error; err != nil {
		utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Failed to update household", err)
		return
	}
	c.JSON(http.StatusOK, household)
}

// DeleteHousehold removes a household that has no billing history and
// deactivates one that has.
func DeleteHousehold(c *gin.Context) {
	id, ok := utils.ParseIDParam(c, "id", "household")
	if !ok {
		return
	}

	var household models.Household
	if err := config.DB.First(&household, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Household not found")
		} else {
			utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Database error", err)
		}
		return
	}

	var invoices, transactions int64
	if err := config.DB.Model(&models.Invoice{}).Where("household_id = ?", id).Count(&invoices).Error; err != nil {
		utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Failed to check household invoices", err)
		return
	}
	if err := config.DB.Model(&models.Transaction{}).Where("household_id = ?", id).Count(&transactions).Error; err != nil {
		utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Failed to check household transactions", err)
		return
	}

	if invoices > 0 || transactions > 0 {
		if err := config.DB.Model(&household).Update("is_active", false).Error; err != nil {
			utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Failed to deactivate household", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Household has billing history and was deactivated"})
		return
	}

	if err := config.DB.Delete(&household).Error; err != nil {
		utils.RespondWithErrorDetail(c, http.StatusInternalServerError, "Failed to delete household", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Household deleted successfully"})
}
