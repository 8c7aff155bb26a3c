package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	HeaderRequestID = "X-Request-ID"

	contextKeyLogger = "logger"
)

// RequestID propagates the client's X-Request-ID or generates a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)
		c.Set(HeaderRequestID, id)
		c.Next()
	}
}

// Logger attaches a request-scoped entry to the context and writes one
// line per request once the handler chain is done.
func Logger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		entry := logger.WithFields(log.Fields{
			"request_id": c.GetString(HeaderRequestID),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})
		c.Set(contextKeyLogger, entry)

		c.Next()

		fields := log.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"route":   c.FullPath(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		entry = entry.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("request")
		case status >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}

// LoggerFrom returns the entry set by Logger, or a standard logger entry
// when the middleware is not installed.
func LoggerFrom(c *gin.Context) *log.Entry {
	if v, ok := c.Get(contextKeyLogger); ok {
		if e, ok := v.(*log.Entry); ok {
			return e
		}
	}
	return log.NewEntry(log.StandardLogger())
}
