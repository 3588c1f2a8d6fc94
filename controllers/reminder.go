package controllers

import (
	"net/http"
	"strconv"

	"condofee-backend/utils"

	"github.com/gin-gonic/gin"
)

const defaultReminderLimit = 100

// SendSessionReminders texts every household that still owes money on the
// session.
func SendSessionReminders(c *gin.Context) {
	sessionID, ok := utils.ParseIDParam(c, "id", "session")
	if !ok {
		return
	}

	result, err := Reminders.SendSessionReminders(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err, "Failed to send reminders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Reminders processed",
		"result":  result,
	})
}

// GetReminderLogs lists sent reminders, newest first.
func GetReminderLogs(c *gin.Context) {
	sessionID, ok := optionalUUIDQuery(c, "sessionId", "session")
	if !ok {
		return
	}

	limit := defaultReminderLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	logs, err := Reminders.ListReminders(c.Request.Context(), sessionID, limit)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve reminder logs")
		return
	}
	c.JSON(http.StatusOK, logs)
}
