package middleware

import (
	"github.com/gin-gonic/gin"

	"videotube/internal/apperr"
)

type errorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type successBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Respond writes the success envelope.
func Respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, successBody{Status: status, Message: message, Data: data})
}

// AbortWithError records err on the context for the request logger and
// writes the error envelope. Causes never reach the client.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, message := apperr.Public(err)
	c.AbortWithStatusJSON(status, errorBody{Status: status, Message: message})
}
