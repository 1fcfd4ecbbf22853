package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/Planto/internal/service"
	"github.com/utafrali/Planto/pkg/httputil"
	"github.com/utafrali/Planto/pkg/pagination"
	"github.com/utafrali/Planto/pkg/validator"
)

// CatalogHandler serves the plant and review endpoints. Reads answer with
// bare JSON in the storefront's shapes; admin writes use the envelope.
type CatalogHandler struct {
	plants  *service.CatalogService
	reviews *service.ReviewService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(plants *service.CatalogService, reviews *service.ReviewService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		plants:  plants,
		reviews: reviews,
		logger:  logger,
	}
}

// ListPlants handles GET /api/plants
func (h *CatalogHandler) ListPlants(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r, service.DefaultPlantPageLimit, service.MaxListLimit)
	category := r.URL.Query().Get("category")

	page, err := h.plants.ListPlants(r.Context(), params, category)
	if err != nil {
		writeLoadError(w, r, "Failed to load plants", err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}

// Featured handles GET /api/plants/featured
func (h *CatalogHandler) Featured(w http.ResponseWriter, r *http.Request) {
	limit := pagination.LimitFromRequest(r, service.DefaultFeaturedLimit, service.MaxListLimit)

	plants, err := h.plants.Featured(r.Context(), limit)
	if err != nil {
		writeLoadError(w, r, "Failed to load featured plants", err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, plants)
}

// Trendy handles GET /api/plants/trendy
func (h *CatalogHandler) Trendy(w http.ResponseWriter, r *http.Request) {
	limit := pagination.LimitFromRequest(r, service.DefaultTrendyLimit, service.MaxListLimit)

	plants, err := h.plants.Trendy(r.Context(), limit)
	if err != nil {
		writeLoadError(w, r, "Failed to load trendy plants", err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, plants)
}

// CreatePlant handles POST /api/plants
func (h *CatalogHandler) CreatePlant(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePlantInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	plant, err := h.plants.CreatePlant(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, plant)
}

// ListReviews handles GET /api/reviews
func (h *CatalogHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	limit := pagination.LimitFromRequest(r, service.DefaultReviewLimit, service.MaxListLimit)

	reviews, err := h.reviews.List(r.Context(), limit)
	if err != nil {
		writeLoadError(w, r, "Failed to load reviews", err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reviews)
}

// HighlightedReviews handles GET /api/reviews/highlight
func (h *CatalogHandler) HighlightedReviews(w http.ResponseWriter, r *http.Request) {
	limit := pagination.LimitFromRequest(r, service.DefaultHighlightLimit, service.MaxListLimit)

	reviews, err := h.reviews.Highlighted(r.Context(), limit)
	if err != nil {
		writeLoadError(w, r, "Failed to load reviews", err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reviews)
}

// CreateReview handles POST /api/reviews
func (h *CatalogHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req service.CreateReviewInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.reviews.CreateReview(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, review)
}
