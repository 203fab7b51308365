package middleware

import (
	"net/http"
	"strings"

	appErrors "movapp-backend/pkg/errors"
	"movapp-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const UserUUIDKey = "userUUID"

// TokenVerifier resolves an access token to the user's external id.
type TokenVerifier interface {
	VerifyAccessToken(token string) (uuid.UUID, error)
}

// AuthMiddleware requires a bearer access token. A missing header is 401;
// a token that does not verify is 403.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			utils.ErrorResponseWithCode(c, http.StatusUnauthorized,
				string(appErrors.CodeUnauthenticated), "Authorization header required")
			c.Abort()
			return
		}

		userID, err := verifier.VerifyAccessToken(token)
		if err != nil {
			utils.ErrorResponseWithCode(c, http.StatusForbidden,
				string(appErrors.CodeInvalidToken), "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(UserUUIDKey, userID)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the user when a valid token is present and
// lets anonymous requests through. A token that is present but invalid is
// still rejected.
func OptionalAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		AuthMiddleware(verifier)(c)
	}
}

// GetUserUUID returns the authenticated user's external id, if any.
func GetUserUUID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(UserUUIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
