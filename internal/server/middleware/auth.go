package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/calder-ai/uniproxy/pkg/api"
)

const bearerPrefix = "Bearer "

// Auth validates the proxy's single master credential on every request.
// The scheme check is case-sensitive with exactly one space, and the token
// comparison is constant-time so a matching prefix leaks nothing.
func Auth(masterKey string) gin.HandlerFunc {
	key := []byte(masterKey)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			problem := api.Unauthenticated("Missing Authorization header")
			c.AbortWithStatusJSON(problem.Status, problem)
			return
		}

		if !strings.HasPrefix(authHeader, bearerPrefix) {
			problem := api.Unauthenticated("Invalid Authorization header format")
			c.AbortWithStatusJSON(problem.Status, problem)
			return
		}

		token := []byte(authHeader[len(bearerPrefix):])
		if subtle.ConstantTimeCompare(token, key) != 1 {
			problem := api.InvalidCredential()
			c.AbortWithStatusJSON(problem.Status, problem)
			return
		}

		c.Next()
	}
}
