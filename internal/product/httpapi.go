package product

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// API is the HTTP surface for creating products.
type API struct {
	svc    *Service
	logger *zap.Logger
}

// NewAPI creates the product HTTP API.
func NewAPI(svc *Service, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{svc: svc, logger: logger}
}

// Router builds the chi router for the product endpoints.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/products", a.createProduct)
	return r
}

type createProductRequest struct {
	Name           string            `json:"name"`
	Price          float64           `json:"price"`
	Description    string            `json:"description"`
	Variants       []string          `json:"variants"`
	Discounts      float64           `json:"discounts"`
	Images         []string          `json:"images"`
	Specifications map[string]string `json:"specifications"`
}

func (a *API) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}

	p := Product{
		Name:           req.Name,
		Price:          req.Price,
		Description:    req.Description,
		Variants:       req.Variants,
		Discounts:      req.Discounts,
		Images:         req.Images,
		Specifications: req.Specifications,
	}
	if err := a.svc.Create(r.Context(), p); err != nil {
		var valErr *ValidationError
		if errors.As(err, &valErr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": valErr.Error()})
			return
		}
		a.logger.Error("Product creation failed", zap.String("name", req.Name), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"name": req.Name})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
