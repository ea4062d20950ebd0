package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"catalog-api/internal/model"
	"catalog-api/internal/service"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// GetAll handles GET /api/products requests.
func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.GetAll(r.Context())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// Create handles POST /api/products requests.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "Malformed request body", h.logger)
		return
	}

	product, err := h.service.Create(r.Context(), &req)
	if err != nil {
		// An unknown category is a client input problem here, not a missing resource.
		if errors.Is(err, model.ErrCategoryNotFound) {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeCategoryNotFound,
				fmt.Sprintf("Category %d does not exist", req.CategoryID), h.logger)
			return
		}
		writeServiceError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/products/%d", product.ID))
	writeJSON(w, http.StatusCreated, product)
}

// GetByID handles GET /api/products/{id} requests.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidID, "Product id must be a positive integer", h.logger)
		return
	}

	product, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// GetWithCategory handles GET /api/products/with-category requests.
func (h *ProductHandler) GetWithCategory(w http.ResponseWriter, r *http.Request) {
	dtos, err := h.service.GetWithCategory(r.Context())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, dtos)
}

// BulkUpdatePrices handles PUT /api/products/bulk-update-price requests.
// The body is a bare JSON number (or numeric string) holding the percentage.
func (h *ProductHandler) BulkUpdatePrices(w http.ResponseWriter, r *http.Request) {
	var percentage *decimal.Decimal
	if err := decodeJSON(w, r, &percentage); err != nil || percentage == nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "Body must be a JSON number", h.logger)
		return
	}

	result, err := h.service.BulkUpdatePrices(r.Context(), *percentage)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetPaged handles GET /api/products/paged requests.
func (h *ProductHandler) GetPaged(w http.ResponseWriter, r *http.Request) {
	page, err := intQuery(r, "page", service.DefaultPage)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "page must be an integer", h.logger)
		return
	}

	pageSize, err := intQuery(r, "pageSize", service.DefaultPageSize)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "pageSize must be an integer", h.logger)
		return
	}

	products, err := h.service.GetPaged(r.Context(), page, pageSize)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// Search handles GET /api/products/search requests.
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Search(r.Context(), r.URL.Query().Get("keyword"))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
