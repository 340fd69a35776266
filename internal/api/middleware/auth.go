package middleware

import (
	"net/http"
	"strings"

	"ctchen222/tictactoe/internal/api/response"
	"ctchen222/tictactoe/internal/api/service"

	"github.com/gin-gonic/gin"
)

const playerIDKey = "player_id"

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*service.Claims, error)
}

// JWTAuth rejects requests without a valid bearer token and stores the token
// subject as the player ID.
func JWTAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			response.AbortWithError(c, http.StatusUnauthorized, "invalid token")
			return
		}
		c.Set(playerIDKey, claims.Subject)
		c.Next()
	}
}

// PlayerID returns the authenticated player ID set by JWTAuth.
func PlayerID(c *gin.Context) string {
	return c.GetString(playerIDKey)
}
