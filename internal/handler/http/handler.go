// Package http exposes the storefront over a JSON API.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/catalog"
	"github.com/vasiliy-maslov/storefront/internal/metrics"
	"github.com/vasiliy-maslov/storefront/internal/shop"
	"github.com/vasiliy-maslov/storefront/internal/validation"
)

// ShopperHeader identifies the shopper a request acts for.
const ShopperHeader = "X-Shopper-ID"

var ErrInvalidID = errors.New("invalid id")

type ctxKey struct{}

type Handler struct {
	registry  *shop.Registry
	catalog   *catalog.Catalog
	validator *validation.Validator
	metrics   *metrics.Metrics
}

func NewHandler(registry *shop.Registry, c *catalog.Catalog, v *validation.Validator, m *metrics.Metrics) *Handler {
	return &Handler{
		registry:  registry,
		catalog:   c,
		validator: v,
		metrics:   m,
	}
}

// NewRouter returns the full API with the standard middleware stack.
func (h *Handler) NewRouter() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(h.requestLogger)
	router.Use(middleware.Recoverer)

	h.RegisterRoutes(router)
	return router
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.handleHealth)
	if h.metrics != nil {
		router.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	router.Get("/catalog", h.handleGetCatalog)
	router.Get("/catalog/{category}", h.handleGetCategory)
	router.Get("/catalog/{category}/{product}", h.handleGetProduct)
	router.Get("/catalog/{category}/{product}/{variant}", h.handleGetVariant)

	router.Group(func(r chi.Router) {
		r.Use(h.withShop)

		r.Get("/cart", h.handleGetCart)
		r.Delete("/cart", h.handleClearCart)
		r.Post("/cart/items", h.handleAddCartItem)
		r.Patch("/cart/items/{id}", h.handleUpdateCartItem)
		r.Delete("/cart/items/{id}", h.handleRemoveCartItem)

		r.Get("/checkout", h.handleGetCheckout)
		r.Post("/checkout/shipping", h.handleSubmitShipping)
		r.Post("/checkout/billing", h.handleSubmitBilling)
		r.Put("/checkout/step", h.handleGoToStep)
		r.Post("/checkout/orders", h.handlePlaceOrder)

		r.Get("/orders", h.handleListOrders)
		r.Get("/orders/current", h.handleCurrentOrder)
		r.Get("/orders/{id}", h.handleGetOrder)
		r.Post("/orders/{id}/payments/{method}", h.handlePay)
		r.Put("/orders/{id}/delivery", h.handleUpdateDelivery)
		r.Post("/orders/{id}/refund", h.handleRefund)
		r.Get("/orders/{id}/invoice", h.handleInvoice)

		r.Get("/addresses", h.handleListAddresses)
		r.Post("/addresses", h.handleAddAddress)
		r.Delete("/addresses/{id}", h.handleDeleteAddress)
		r.Put("/addresses/{id}/default", h.handleSetDefaultAddress)

		r.Get("/wishlist", h.handleGetWishlist)
		r.Delete("/wishlist", h.handleClearWishlist)
		r.Post("/wishlist/items", h.handleAddWishlistItem)
		r.Delete("/wishlist/items/{id}", h.handleRemoveWishlistItem)
		r.Post("/wishlist/items/{id}/move-to-cart", h.handleMoveWishlistItem)

		r.Get("/profile", h.handleGetProfile)
		r.Put("/profile", h.handleUpdateProfile)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withShop resolves the shopper's shop from the X-Shopper-ID header.
func (h *Handler) withShop(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(ShopperHeader)
		if id == "" {
			respondWithError(w, http.StatusBadRequest, "Missing "+ShopperHeader+" header")
			return
		}

		s, err := h.registry.Get(r.Context(), id)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, s)))
	})
}

func shopFrom(r *http.Request) *shop.Shop {
	s, _ := r.Context().Value(ctxKey{}).(*shop.Shop)
	return s
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		h.metrics.ObserveRequest(r.Method, route, status, elapsed)

		log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", elapsed).
			Msg("HTTP request")
	})
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}
