package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rockfridrich/villa/ports"
)

// AuthMiddleware creates middleware that validates session tokens
func AuthMiddleware(tokenizer ports.Tokenizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		// Check if the Authorization header is present and in correct format
		if len(auth) < 8 || auth[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		// Extract the token
		token := auth[7:]

		// Validate the token
		identity, err := tokenizer.TokenToIdentity(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		// Set the caller's address in the context
		c.Set("userAddress", identity.Address)

		c.Next()
	}
}
