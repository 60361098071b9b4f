package handler

import (
	"context"
	"net/http"
	"time"

	"branch-ledger/internal/model"
	"branch-ledger/internal/service"
)

// Pinger is implemented by stores that hold a live connection
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service status and store connectivity
type HealthHandler struct {
	ledger  *service.Ledger
	pinger  Pinger
	version string
}

// NewHealthHandler creates a health handler. pinger may be nil for stores without a connection.
func NewHealthHandler(ledger *service.Ledger, pinger Pinger, version string) *HealthHandler {
	return &HealthHandler{
		ledger:  ledger,
		pinger:  pinger,
		version: version,
	}
}

// ServeHTTP handles GET /healthz; it answers 503 when the store is unreachable
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := model.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Store:     h.checkStore(r.Context()),
	}

	status := http.StatusOK
	if response.Store.Status != "healthy" {
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func (h *HealthHandler) checkStore(ctx context.Context) model.StoreHealth {
	customers, accounts := h.ledger.Counts()
	storeHealth := model.StoreHealth{
		Status:    "healthy",
		Driver:    h.ledger.Driver(),
		Customers: customers,
		Accounts:  accounts,
	}

	if h.pinger == nil {
		return storeHealth
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.pinger.Ping(ctx); err != nil {
		storeHealth.Status = "unhealthy"
	}
	return storeHealth
}
