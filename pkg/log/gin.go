package log

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const headerRequestID = "X-Request-ID"

// GinMiddleware returns a Gin middleware that:
//  1. Generates or reads a request ID from X-Request-ID header.
//  2. Creates a child logger with request metadata and injects it, and the
//     metadata itself, into the context.
//  3. Sets the X-Request-ID response header.
//  4. Logs the completed request with status, latency and the user path param.
func GinMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}

		fields := []any{
			FieldRequestID, reqID,
			FieldMethod, c.Request.Method,
			FieldPath, c.Request.URL.Path,
			FieldClientIP, c.ClientIP(),
		}
		child := logger.With().Fields(fields).Logger()

		c.Header(headerRequestID, reqID)
		ctx := WithLogger(c.Request.Context(), child)
		c.Request = c.Request.WithContext(WithFields(ctx, fields...))

		c.Next()

		evt := child.Info()
		if c.Writer.Status() >= 500 {
			evt = child.Error()
		}
		evt = evt.
			Int(FieldStatus, c.Writer.Status()).
			Float64(FieldLatency, float64(time.Since(start).Milliseconds()))

		if userID := c.Param("userId"); userID != "" {
			evt = evt.Str(FieldUserID, userID)
		}

		evt.Msg("request completed")
	}
}
