package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// Logging returns a middleware that logs every outgoing request.
// It logs the method, path, request ID, status and duration.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			requestID := req.Header.Get(RequestIDHeader)

			resp, err := next.RoundTrip(req)

			duration := time.Since(start).Milliseconds()
			if err != nil {
				logger.Error("HTTP error",
					"method", req.Method,
					"path", req.URL.Path,
					"request_id", requestID,
					"error", err,
					"duration_ms", duration,
				)
				return resp, err
			}

			if resp.StatusCode >= 400 {
				logger.Warn("HTTP failed",
					"method", req.Method,
					"path", req.URL.Path,
					"request_id", requestID,
					"status", resp.StatusCode,
					"duration_ms", duration,
				)
			} else {
				logger.Info("HTTP ok",
					"method", req.Method,
					"path", req.URL.Path,
					"request_id", requestID,
					"status", resp.StatusCode,
					"duration_ms", duration,
				)
			}
			return resp, nil
		})
	}
}
