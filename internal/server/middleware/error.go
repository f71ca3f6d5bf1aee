package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/calder-ai/uniproxy/pkg/api"
)

// ErrorHandler drains errors attached by handlers and writes exactly one
// normalized body. It never runs for streams that already committed headers;
// those report failures in-band.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		if c.Writer.Written() {
			return
		}

		problem := api.Normalize(c.Errors.Last().Err)

		if problem.Log != nil {
			logger.Error("Request failed",
				zap.String("path", c.Request.URL.Path),
				zap.String("kind", problem.Title),
				zap.Error(problem.Log),
			)
		}

		c.JSON(problem.Status, problem)
		c.Abort()
	}
}
