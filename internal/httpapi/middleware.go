package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chatcore/internal/auth"
)

const contextUserIDKey = "userID"

// AuthMiddleware enforces the Bearer access token on protected routes.
func AuthMiddleware(tokens *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope{Error: errorBody{
				Code: "AUTHENTICATION_ERROR", Message: "missing bearer token",
			}})
			return
		}

		identity, err := tokens.VerifyAccess(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope{Error: errorBody{
				Code: "AUTHENTICATION_ERROR", Message: "invalid or expired token",
			}})
			return
		}

		c.Set(contextUserIDKey, identity.UserID)
		c.Set("username", identity.Username)
		c.Next()
	}
}

func mustUserID(c *gin.Context) string {
	v, _ := c.Get(contextUserIDKey)
	id, _ := v.(string)
	return id
}
