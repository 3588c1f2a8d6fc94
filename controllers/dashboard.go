package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetDashboardOverview returns totals, invoice status counts and the latest
// transactions.
func GetDashboardOverview(c *gin.Context) {
	overview, err := Billing.Dashboard(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to load dashboard")
		return
	}
	c.JSON(http.StatusOK, overview)
}
