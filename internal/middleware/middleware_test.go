package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTransport records requests and answers with a fixed status.
type stubTransport struct {
	mu       sync.Mutex
	status   int
	err      error
	requests []*http.Request
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(strings.NewReader("")),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func newRequest(t *testing.T) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "http://backend.test/dorms/me", nil)
	return req.WithContext(context.Background())
}

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(req)
			})
		}
	}

	stub := &stubTransport{status: http.StatusOK}
	rt := Chain(stub, tag("outer"), tag("inner"))

	_, err := rt.RoundTrip(newRequest(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Len(t, stub.requests, 1)
}

func TestRequestID(t *testing.T) {
	t.Run("adds a UUID without touching the caller's request", func(t *testing.T) {
		stub := &stubTransport{status: http.StatusOK}
		req := newRequest(t)

		_, err := Chain(stub, RequestID()).RoundTrip(req)
		require.NoError(t, err)

		sent := stub.requests[0].Header.Get(RequestIDHeader)
		_, parseErr := uuid.Parse(sent)
		assert.NoError(t, parseErr)
		assert.Empty(t, req.Header.Get(RequestIDHeader))
	})

	t.Run("keeps an existing ID", func(t *testing.T) {
		stub := &stubTransport{status: http.StatusOK}
		req := newRequest(t)
		req.Header.Set(RequestIDHeader, "fixed")

		_, err := Chain(stub, RequestID()).RoundTrip(req)
		require.NoError(t, err)
		assert.Equal(t, "fixed", stub.requests[0].Header.Get(RequestIDHeader))
	})
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ok := &stubTransport{status: http.StatusOK}
	_, err := Chain(ok, Logging(logger)).RoundTrip(newRequest(t))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "HTTP ok")
	assert.Contains(t, buf.String(), "status=200")

	buf.Reset()
	notFound := &stubTransport{status: http.StatusNotFound}
	_, err = Chain(notFound, Logging(logger)).RoundTrip(newRequest(t))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "HTTP failed")
	assert.Contains(t, buf.String(), "level=WARN")

	buf.Reset()
	broken := &stubTransport{err: errors.New("connection refused")}
	_, err = Chain(broken, Logging(logger)).RoundTrip(newRequest(t))
	require.Error(t, err)
	assert.Contains(t, buf.String(), "HTTP error")
	assert.Contains(t, buf.String(), "connection refused")
}

func TestRateLimit(t *testing.T) {
	t.Run("nil limiter passes through", func(t *testing.T) {
		stub := &stubTransport{status: http.StatusOK}
		rt := Chain(stub, RateLimit(NewLimiter(0, 0)))
		for i := 0; i < 5; i++ {
			_, err := rt.RoundTrip(newRequest(t))
			require.NoError(t, err)
		}
		assert.Len(t, stub.requests, 5)
	})

	t.Run("cancelled context aborts the wait", func(t *testing.T) {
		stub := &stubTransport{status: http.StatusOK}
		rt := Chain(stub, RateLimit(NewLimiter(0.001, 1)))

		_, err := rt.RoundTrip(newRequest(t))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = rt.RoundTrip(newRequest(t).WithContext(ctx))
		require.Error(t, err)
		assert.Len(t, stub.requests, 1)
	})
}

type recordingObserver struct {
	calls []string
}

func (r *recordingObserver) ObserveRequest(method, status string, _ time.Duration) {
	r.calls = append(r.calls, method+" "+status)
}

func TestInstrument(t *testing.T) {
	obs := &recordingObserver{}

	_, err := Chain(&stubTransport{status: http.StatusCreated}, Instrument(obs)).RoundTrip(newRequest(t))
	require.NoError(t, err)
	_, err = Chain(&stubTransport{err: errors.New("down")}, Instrument(obs)).RoundTrip(newRequest(t))
	require.Error(t, err)

	assert.Equal(t, []string{"GET 201", "GET error"}, obs.calls)
}
