// Package backendtest is an in-memory KotConnect backend. It serves the same
// REST surface as the real backend so the client can be exercised end to end
// in tests and in local development (cmd/kotmock). It is not a
// reimplementation of the real server: only the behaviour the client relies
// on is modelled.
package backendtest

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/kotconnect/internal/auth"
	"github.com/mmynk/kotconnect/internal/models"
)

// Options configure a Server. The zero value is usable.
type Options struct {
	JWTSecret     string
	TokenDuration time.Duration
	// BcryptCost defaults to bcrypt.MinCost, keeping tests fast.
	BcryptCost int
	Logger     *slog.Logger
}

type failure struct {
	status int
	body   string
}

// Server is the fake backend.
type Server struct {
	engine   *gin.Engine
	jwt      *auth.JWTManager
	authn    *auth.PasswordAuthenticator
	accounts *accountStore
	validate *validator.Validate
	logger   *slog.Logger

	mu       sync.Mutex
	nextID   int64
	dorms    map[int64]*dormRecord
	codes    map[string]int64
	memberOf map[int64]int64 // user ID -> dorm ID
	tasks    map[int64]*taskRecord
	events   map[int64]*eventRecord
	expenses map[int64]*expenseRecord

	statsMu  sync.Mutex
	hits     map[string]int
	failures map[string][]failure
}

// New builds a server.
func New(opts Options) *Server {
	if opts.JWTSecret == "" {
		opts.JWTSecret = "kotconnect-dev-secret"
	}
	if opts.TokenDuration == 0 {
		opts.TokenDuration = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.MinCost
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	accounts := newAccountStore()
	s := &Server{
		jwt:      auth.NewJWTManager(opts.JWTSecret, opts.TokenDuration),
		authn:    auth.NewPasswordAuthenticator(accounts, opts.BcryptCost),
		accounts: accounts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   opts.Logger,
		dorms:    make(map[int64]*dormRecord),
		codes:    make(map[string]int64),
		memberOf: make(map[int64]int64),
		tasks:    make(map[int64]*taskRecord),
		events:   make(map[int64]*eventRecord),
		expenses: make(map[int64]*expenseRecord),
		hits:     make(map[string]int),
		failures: make(map[string][]failure),
	}
	s.engine = s.routes()
	return s
}

// Start serves a new Server on a local port for the duration of the test.
func Start(tb testing.TB) (*Server, string) {
	tb.Helper()
	gin.SetMode(gin.TestMode)
	s := New(Options{})
	ts := httptest.NewServer(s.Handler())
	tb.Cleanup(ts.Close)
	return s, ts.URL
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.countHits(), s.injectFailures())

	// Public routes
	r.POST("/users/signup", s.signup)
	r.POST("/users/login", s.login)

	// Protected routes
	authorized := r.Group("/")
	authorized.Use(s.requireAuth())
	{
		// USERS
		authorized.GET("/users/ping", s.ping)
		authorized.PUT("/users/me", s.updateMe)
		authorized.DELETE("/users/me", s.deleteMe)
		authorized.DELETE("/users", s.deleteMe)

		// DORMS
		authorized.GET("/dorms", s.getDorm)
		authorized.POST("/dorms", s.createDorm)
		authorized.PUT("/dorms", s.joinDorm)
		authorized.DELETE("/dorms", s.leaveDorm)

		// EVENTS
		authorized.POST("/events/:dormCode", s.createEvent)
		authorized.PUT("/events/join/:id", s.toggleEvent)
		authorized.GET("/events/:id", s.getEvent)

		// TASKS
		authorized.POST("/tasks/:dormCode", s.createTask)
		authorized.PUT("/tasks/changeCompleted/:id", s.toggleTask)

		// EXPENSES
		authorized.GET("/expenses", s.listExpenses)
		authorized.POST("/expenses/:dormCode", s.createExpense)
		authorized.PUT("/expenses/:id/shares/:userId/paid", s.markPaid)
	}
	return r
}

// Hits returns how often a route was requested, e.g. Hits("GET /dorms") or
// Hits("PUT /events/join/:id").
func (s *Server) Hits(route string) int {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.hits[route]
}

// ResetHits zeroes every counter.
func (s *Server) ResetHits() {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.hits = make(map[string]int)
}

// FailNext makes the next request to route answer status with a raw body.
// Calls queue up.
func (s *Server) FailNext(route string, status int, body string) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.failures[route] = append(s.failures[route], failure{status: status, body: body})
}

// Register creates an account directly, returning it and a valid token.
func (s *Server) Register(ctx context.Context, input models.SignupInput) (*auth.Account, string, error) {
	account, err := s.authn.Register(ctx, input)
	if err != nil {
		return nil, "", err
	}
	token, err := s.jwt.Generate(account)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

func routeKey(c *gin.Context) string {
	return c.Request.Method + " " + c.FullPath()
}

func (s *Server) countHits() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.FullPath() != "" {
			s.statsMu.Lock()
			s.hits[routeKey(c)]++
			s.statsMu.Unlock()
		}
		c.Next()
	}
}

func (s *Server) injectFailures() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := routeKey(c)

		s.statsMu.Lock()
		queue := s.failures[key]
		var f *failure
		if len(queue) > 0 {
			f = &queue[0]
			s.failures[key] = queue[1:]
		}
		s.statsMu.Unlock()

		if f != nil {
			c.Data(f.status, "application/json", []byte(f.body))
			c.Abort()
			return
		}
		c.Next()
	}
}

// requestLogger logs all incoming requests.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		s.logger.Debug("Request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"request_id", c.GetHeader("X-Request-ID"),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func jsonError(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"message": msg})
}

func jsonErrors(c *gin.Context, code int, msgs []string) {
	c.JSON(code, gin.H{"errors": msgs})
}
