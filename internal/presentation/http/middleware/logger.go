package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key the request id is stored under.
// The response envelope's Meta reads it so one id ties an access-log line
// to the body the client saw.
const RequestIDKey = "request_id"

// RequestLogger assigns every request an id (honoring a client-supplied
// X-Request-ID) and writes one access-log line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(RequestIDKey, id)
		c.Header("X-Request-ID", id)

		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path += "?" + q
		}
		log.Printf("http: %s %s %s -> %d in %s from %s",
			shortID(id), c.Request.Method, path,
			c.Writer.Status(), time.Since(start).Round(time.Millisecond), c.ClientIP())

		for _, e := range c.Errors {
			log.Printf("http: %s error: %v", shortID(id), e.Err)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
