package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type AddCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	VariantID string `json:"variant_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, shopFrom(r).Cart.Snapshot())
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	s := shopFrom(r)
	if err := s.Cart.Clear(r.Context()); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, s.Cart.Snapshot())
}

func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	c, err := shopFrom(r).AddToCart(r.Context(), req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateCartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	s := shopFrom(r)
	id := chi.URLParam(r, "id")
	if _, ok := s.Cart.Item(id); !ok {
		respondWithError(w, http.StatusNotFound, "Cart item not found")
		return
	}

	c, err := s.UpdateCartQuantity(r.Context(), id, req.Quantity)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (h *Handler) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := shopFrom(r).Cart.Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}
