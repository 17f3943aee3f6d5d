package middlewares

import (
	"strings"

	"calorietrack/apperrors"
	"calorietrack/utils"

	"github.com/gin-gonic/gin"
)

// ContextUserID is the gin context key holding the authenticated user id.
const ContextUserID = "userID"

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// AuthMiddleware rejects requests without a valid bearer token. With
// allowQuery set, a "token" query parameter is accepted as well; browsers
// cannot set headers on websocket handshakes.
func AuthMiddleware(v TokenVerifier, r *utils.Responder, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
		if token == "" && allowQuery {
			token = c.Query("token")
		}
		if token == "" {
			r.Fail(c, apperrors.Unauthorized("auth", "Authorization header required"), "Authorization header required")
			return
		}

		userID, err := v.VerifyToken(token)
		if err != nil {
			r.Fail(c, err, "invalid token")
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// UserID returns the authenticated user id set by AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
