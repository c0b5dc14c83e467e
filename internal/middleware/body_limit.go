package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"videotube/internal/apperr"
)

// BodyLimit caps request bodies at limit bytes. Declared lengths over the
// limit are refused here; streamed bodies fail on read with
// *http.MaxBytesError, which handlers report as 413 through RequestError.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			if c.Request.ContentLength > limit {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorBody{
					Status:  http.StatusRequestEntityTooLarge,
					Message: "request body too large",
				})
				return
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// RequestError classifies a failure to read or bind the request body.
func RequestError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.TooLarge("request body too large")
	}
	return apperr.Wrap(apperr.KindValidation, "invalid request body", err)
}
