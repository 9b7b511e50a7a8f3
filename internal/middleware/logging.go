package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		log.Printf("[%s] %s %s %d %v",
			c.Request.Method,
			c.Request.URL.Path,
			c.ClientIP(),
			c.Writer.Status(),
			time.Since(start),
		)
	}
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only handle errors that handlers attached but did not respond to
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last()
		log.Printf("Error in request: %v", err)

		if gin.Mode() == gin.DebugMode {
			c.JSON(c.Writer.Status(), gin.H{
				"error":   "Internal Server Error",
				"details": err.Error(),
				"path":    c.Request.URL.Path,
				"method":  c.Request.Method,
			})
			return
		}

		c.JSON(c.Writer.Status(), gin.H{
			"error": "Internal Server Error",
		})
	}
}
