package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/Planto/internal/cart"
	"github.com/utafrali/Planto/internal/favorites"
	"github.com/utafrali/Planto/internal/service"
	"github.com/utafrali/Planto/pkg/httputil"
	"github.com/utafrali/Planto/pkg/validator"
)

// StorefrontHandler serves the signed-in shopper's cart, favorites and
// notifications. Routes run behind optional auth: anonymous reads are empty
// and anonymous mutations are denied with a notification.
type StorefrontHandler struct {
	service *service.StorefrontService
	logger  *slog.Logger
}

// NewStorefrontHandler creates a new storefront HTTP handler.
func NewStorefrontHandler(svc *service.StorefrontService, logger *slog.Logger) *StorefrontHandler {
	return &StorefrontHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// Quantity accepts a JSON number or a string and never fails. Strings keep
// only their digits; numbers are truncated; anything else reads as 0. Values
// saturate at cart.MaxQuantity.
type Quantity int

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quantity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*q = 0
			return nil
		}
		*q = Quantity(cart.ParseQuantity(s))
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err != nil || f < 0 {
		*q = 0
		return nil
	}
	*q = Quantity(min(f, cart.MaxQuantity))
	return nil
}

func (q *Quantity) intPtr() *int {
	if q == nil {
		return nil
	}
	n := int(*q)
	return &n
}

// Number accepts a JSON number or a numeric string and never fails.
// Unparseable, NaN and infinite values read as 0.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var f float64
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				f = 0
			}
		}
	} else if err := json.Unmarshal(b, &f); err != nil {
		f = 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		f = 0
	}
	*n = Number(f)
	return nil
}

func (n *Number) floatPtr() *float64 {
	if n == nil {
		return nil
	}
	f := float64(*n)
	return &f
}

// AddItemRequest is the JSON request body for POST /api/cart/items.
type AddItemRequest struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Price      *Number   `json:"price"`
	ImagePath  string    `json:"imagePath"`
	Quantity   *Quantity `json:"quantity"`
	Type       string    `json:"type"`
	VariantKey string    `json:"variantKey"`
}

func (r AddItemRequest) input() cart.AddInput {
	return cart.AddInput{
		ID:         r.ID,
		Name:       r.Name,
		Price:      r.Price.floatPtr(),
		ImagePath:  r.ImagePath,
		Quantity:   r.Quantity.intPtr(),
		Type:       r.Type,
		VariantKey: r.VariantKey,
	}
}

// SetQuantityRequest is the JSON request body for PUT /api/cart/items/{key}.
type SetQuantityRequest struct {
	Quantity *Quantity `json:"quantity" validate:"required"`
}

// ToggleFavoriteRequest is the JSON request body for POST /api/favorites/toggle.
type ToggleFavoriteRequest struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Subtitle    string  `json:"subtitle"`
	Description string  `json:"description"`
	Price       *Number `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	Rating      Number  `json:"rating"`
	Category    string  `json:"category"`
}

func (r ToggleFavoriteRequest) entry() favorites.Entry {
	return favorites.Entry{
		ID:          r.ID,
		Name:        r.Name,
		Subtitle:    r.Subtitle,
		Description: r.Description,
		Price:       r.Price.floatPtr(),
		ImageURL:    r.ImageURL,
		Rating:      float64(r.Rating),
		Category:    r.Category,
	}
}

// --- Response DTOs ---

type favoritesResponse struct {
	Items      []favorites.Entry `json:"items"`
	Count      int               `json:"count"`
	IsFavorite *bool             `json:"isFavorite,omitempty"`
}

type isFavoriteResponse struct {
	IsFavorite bool `json:"isFavorite"`
}

type dismissResponse struct {
	Dismissed bool `json:"dismissed"`
}

// --- Cart ---

// GetCart handles GET /api/cart
func (h *StorefrontHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.service.Cart(principalFromRequest(r)))
}

// AddItem handles POST /api/cart/items
func (h *StorefrontHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	p := principalFromRequest(r)

	// Anonymous requests go straight to the guard; their body is never read.
	var req AddItemRequest
	if p != nil {
		if err := validator.DecodeAndValidate(r, &req); err != nil {
			httputil.WriteValidationError(w, err)
			return
		}
	}

	h.writeCart(w, r)(h.service.AddToCart(r.Context(), p, req.input()))
}

// Increment handles POST /api/cart/items/{key}/increment
func (h *StorefrontHandler) Increment(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, r)(h.service.Increment(r.Context(), principalFromRequest(r), chi.URLParam(r, "key")))
}

// Decrement handles POST /api/cart/items/{key}/decrement
func (h *StorefrontHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, r)(h.service.Decrement(r.Context(), principalFromRequest(r), chi.URLParam(r, "key")))
}

// SetQuantity handles PUT /api/cart/items/{key}
func (h *StorefrontHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	p := principalFromRequest(r)

	var n int
	if p != nil {
		var req SetQuantityRequest
		if err := validator.DecodeAndValidate(r, &req); err != nil {
			httputil.WriteValidationError(w, err)
			return
		}
		n = int(*req.Quantity)
	}

	h.writeCart(w, r)(h.service.SetQty(r.Context(), p, chi.URLParam(r, "key"), n))
}

// RemoveItem handles DELETE /api/cart/items/{key}
func (h *StorefrontHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, r)(h.service.RemoveItem(r.Context(), principalFromRequest(r), chi.URLParam(r, "key")))
}

// ClearCart handles DELETE /api/cart
func (h *StorefrontHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, r)(h.service.ClearCart(r.Context(), principalFromRequest(r)))
}

func (h *StorefrontHandler) writeCart(w http.ResponseWriter, r *http.Request) func(*service.CartResult, error) {
	return func(res *service.CartResult, err error) {
		if err != nil {
			writeServiceError(w, r, err, h.logger)
			return
		}
		writeWithNotification(w, http.StatusOK, res.Cart, res.Notification)
	}
}

// --- Favorites ---

// ListFavorites handles GET /api/favorites
func (h *StorefrontHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	items := h.service.Favorites(principalFromRequest(r))
	httputil.WriteData(w, http.StatusOK, favoritesResponse{Items: items, Count: len(items)})
}

// IsFavorite handles GET /api/favorites/{id}
func (h *StorefrontHandler) IsFavorite(w http.ResponseWriter, r *http.Request) {
	fav := h.service.IsFavorite(principalFromRequest(r), chi.URLParam(r, "id"))
	httputil.WriteData(w, http.StatusOK, isFavoriteResponse{IsFavorite: fav})
}

// ToggleFavorite handles POST /api/favorites/toggle
func (h *StorefrontHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	p := principalFromRequest(r)

	var req ToggleFavoriteRequest
	if p != nil {
		if err := validator.DecodeAndValidate(r, &req); err != nil {
			httputil.WriteValidationError(w, err)
			return
		}
	}

	res, err := h.service.ToggleFavorite(r.Context(), p, req.entry())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	fav := res.IsFavorite
	writeWithNotification(w, http.StatusOK, favoritesResponse{
		Items:      res.Favorites,
		Count:      len(res.Favorites),
		IsFavorite: &fav,
	}, res.Notification)
}

// RemoveFavorite handles DELETE /api/favorites/{id}
func (h *StorefrontHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.writeFavorites(w, r)(h.service.RemoveFavorite(r.Context(), principalFromRequest(r), chi.URLParam(r, "id")))
}

// ClearFavorites handles DELETE /api/favorites
func (h *StorefrontHandler) ClearFavorites(w http.ResponseWriter, r *http.Request) {
	h.writeFavorites(w, r)(h.service.ClearFavorites(r.Context(), principalFromRequest(r)))
}

func (h *StorefrontHandler) writeFavorites(w http.ResponseWriter, r *http.Request) func(*service.FavoritesResult, error) {
	return func(res *service.FavoritesResult, err error) {
		if err != nil {
			writeServiceError(w, r, err, h.logger)
			return
		}
		writeWithNotification(w, http.StatusOK, favoritesResponse{
			Items: res.Favorites,
			Count: len(res.Favorites),
		}, res.Notification)
	}
}

// --- Notifications ---

// ListNotifications handles GET /api/notifications
func (h *StorefrontHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.service.Notifications(principalFromRequest(r)))
}

// DismissNotification handles DELETE /api/notifications/{id}
func (h *StorefrontHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	ok := h.service.DismissNotification(principalFromRequest(r), chi.URLParam(r, "id"))
	httputil.WriteData(w, http.StatusOK, dismissResponse{Dismissed: ok})
}
