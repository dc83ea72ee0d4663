package middleware

import (
	"net/http"
	"strings"

	"easyservice/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWTAuthMiddleware admits requests bearing a valid HS256 token signed with
// secret whose scope claim equals scope. An empty secret rejects every request.
func JWTAuthMiddleware(secret, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := utils.ValidateToken(secret, tokenString)
		if err != nil {
			zap.L().Warn("Rejected API token", zap.String("ip", getClientIP(c)), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		if got, _ := claims["scope"].(string); got != scope {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Token scope does not allow this request"})
			return
		}

		sub, _ := claims["sub"].(string)
		c.Set("apiClient", sub)
		c.Next()
	}
}
