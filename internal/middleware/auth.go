package middleware

import (
	"strings"

	"github.com/chachabrian/carmitra-backend/internal/models"
	"github.com/chachabrian/carmitra-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		// First try to get token from Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// If not found in header, try query parameter (for WebSocket)
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.JSON(401, gin.H{"error": "Authorization header or token query parameter required"})
			c.Abort()
			return
		}

		token, err := utils.ValidateToken(tokenString)
		if err != nil || !token.Valid {
			c.JSON(401, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(401, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		id, ok := claims["id"].(float64)
		if !ok {
			c.JSON(401, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}
		role, _ := claims["role"].(string)
		kycStatus, _ := claims["kycStatus"].(string)

		c.Set("userId", uint(id))
		c.Set("role", role)
		c.Set("kycStatus", kycStatus)
		c.Next()
	}
}

// RequireRole rejects callers whose token role is not one of the allowed
// roles. Must run after AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := models.Role(c.GetString("role"))
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.JSON(403, gin.H{"error": "Insufficient permissions"})
		c.Abort()
	}
}

// RequireKYCApproved rejects callers whose KYC is not approved. The token
// carries the status at login time; the booking engine re-checks it on
// every state change.
func RequireKYCApproved() gin.HandlerFunc {
	return func(c *gin.Context) {
		if models.KYCStatus(c.GetString("kycStatus")) != models.KYCApproved {
			c.JSON(403, gin.H{"error": "KYC verification required", "code": "KYC_NOT_APPROVED"})
			c.Abort()
			return
		}
		c.Next()
	}
}
