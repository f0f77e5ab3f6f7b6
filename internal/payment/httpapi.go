package payment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// API is the thin HTTP surface that triggers the charge flow. Routing and
// serialization live here; all decisions are the Service's.
type API struct {
	svc    *Service
	logger *zap.Logger
}

// NewAPI creates the payment HTTP API.
func NewAPI(svc *Service, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{svc: svc, logger: logger}
}

// Router builds the chi router for the payment endpoints.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/payments", a.createPayment)
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *API) createPayment(w http.ResponseWriter, r *http.Request) {
	var req ChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	result, err := a.svc.Create(r.Context(), req)
	if err != nil {
		var valErr *ValidationError
		var gwErr *GatewayError
		switch {
		case errors.As(err, &valErr):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: valErr.Error()})
		case errors.As(err, &gwErr):
			writeJSON(w, http.StatusPaymentRequired, errorResponse{Error: gwErr.Error()})
		case result != nil:
			// Charged but the event was not enqueued; the caller must know
			// the transaction id to remediate.
			a.logger.Error("Payment accepted but not propagated", zap.Error(err))
			writeJSON(w, http.StatusBadGateway, map[string]string{
				"error":         "payment accepted but not propagated",
				"transactionId": result.TransactionID,
			})
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
