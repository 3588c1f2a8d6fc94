package utils

import (
	"github.com/gin-gonic/gin"
)

// RespondWithError aborts the request with a JSON message.
func RespondWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"message": message})
}

// RespondWithErrorDetail also echoes the underlying error back to the caller.
func RespondWithErrorDetail(c *gin.Context, code int, message string, err error) {
	body := gin.H{"message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	c.AbortWithStatusJSON(code, body)
}
