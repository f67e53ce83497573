package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// RequestObserver records the outcome of one request.
type RequestObserver interface {
	ObserveRequest(method, status string, duration time.Duration)
}

// Instrument returns a middleware that reports every request to obs.
// Transport failures are reported with status "error".
func Instrument(obs RequestObserver) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if obs == nil {
			return next
		}
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)

			status := "error"
			if err == nil {
				status = strconv.Itoa(resp.StatusCode)
			}
			obs.ObserveRequest(req.Method, status, time.Since(start))
			return resp, err
		})
	}
}
