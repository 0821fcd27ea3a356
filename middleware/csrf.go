package middleware

import (
	"crypto/subtle"
	"greenbasket/models"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CSRFMiddleware requires the session's CSRF token in header on every
// request that is not a safe method. It must run after SessionMiddleware.
func CSRFMiddleware(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		session, ok := GetSession(c)
		if !ok || session.CSRFToken == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Success: false,
				Message: "Session has no CSRF token",
			})
			return
		}

		sent := c.GetHeader(header)
		if subtle.ConstantTimeCompare([]byte(sent), []byte(session.CSRFToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Success: false,
				Message: "Invalid CSRF token",
			})
			return
		}

		c.Next()
	}
}
