package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger bridges gin's access log to zap. Server errors are logged at error
// level, everything else at info.
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(params gin.LogFormatterParams) string {
		fields := []zap.Field{
			zap.String("method", params.Method),
			zap.String("path", params.Path),
			zap.Int("status", params.StatusCode),
			zap.Duration("latency", params.Latency),
			zap.Int("body_size", params.BodySize),
			zap.String("client_ip", params.ClientIP),
			zap.String("user_agent", params.Request.UserAgent()),
		}

		if params.StatusCode >= http.StatusInternalServerError {
			logger.Error("HTTP Request", append(fields, zap.String("error", params.ErrorMessage))...)
		} else {
			logger.Info("HTTP Request", fields...)
		}
		return ""
	})
}
