package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"branch-ledger/internal/model"
)

// RouterConfig groups the handlers and settings served by NewRouter
type RouterConfig struct {
	Customers    *CustomerHandler
	Accounts     *AccountHandler
	Transactions *TransactionHandler
	Health       *HealthHandler
	AllowOrigins []string
	Logger       *zap.Logger
}

// NewRouter builds the HTTP API
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Method(http.MethodGet, "/healthz", cfg.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/customers", cfg.Customers.CreateCustomer)
		r.Get("/customers/{taxID}", cfg.Customers.GetCustomer)
		r.Post("/customers/{taxID}/accounts", cfg.Customers.OpenAccount)

		r.Get("/accounts", cfg.Accounts.ListAccounts)
		r.Route("/accounts/{number}", func(r chi.Router) {
			r.Get("/", cfg.Accounts.GetAccount)
			r.Post("/deposits", cfg.Transactions.Deposit)
			r.Post("/withdrawals", cfg.Transactions.Withdraw)
			r.Get("/statement", cfg.Transactions.Statement)
		})
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", model.ErrCodeInvalidInput)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusNotFound, "Route not found", model.ErrCodeNotFound)
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
