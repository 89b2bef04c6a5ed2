package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vasiliy-maslov/storefront/internal/address"
	"github.com/vasiliy-maslov/storefront/internal/profile"
)

type SetDefaultAddressRequest struct {
	Type address.Type `json:"type" validate:"required,oneof=shipping billing"`
}

type AddWishlistItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	VariantID string `json:"variant_id" validate:"required"`
}

type MoveToCartRequest struct {
	Quantity int `json:"quantity" validate:"omitempty,gt=0"`
}

func (h *Handler) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, shopFrom(r).Address.List())
}

func (h *Handler) handleAddAddress(w http.ResponseWriter, r *http.Request) {
	var req address.Address
	if !decodeJSON(w, r, &req) {
		return
	}

	a, err := shopFrom(r).Address.Add(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, a)
}

func (h *Handler) handleDeleteAddress(w http.ResponseWriter, r *http.Request) {
	if err := shopFrom(r).Address.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	var req SetDefaultAddressRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	s := shopFrom(r)
	if err := s.Address.SetDefault(r.Context(), chi.URLParam(r, "id"), req.Type); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, s.Address.List())
}

func (h *Handler) handleGetWishlist(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, shopFrom(r).Wishlist.List())
}

func (h *Handler) handleClearWishlist(w http.ResponseWriter, r *http.Request) {
	if err := shopFrom(r).Wishlist.Clear(r.Context()); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAddWishlistItem answers 201 for a new entry and 200 when the variant
// was already saved.
func (h *Handler) handleAddWishlistItem(w http.ResponseWriter, r *http.Request) {
	var req AddWishlistItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	s := shopFrom(r)
	added, err := s.AddToWishlist(r.Context(), req.ProductID, req.VariantID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	code := http.StatusOK
	if added {
		code = http.StatusCreated
	}
	respondWithJSON(w, code, s.Wishlist.List())
}

func (h *Handler) handleRemoveWishlistItem(w http.ResponseWriter, r *http.Request) {
	if err := shopFrom(r).Wishlist.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMoveWishlistItem(w http.ResponseWriter, r *http.Request) {
	req := MoveToCartRequest{Quantity: 1}
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}
	if err := h.validator.Struct(req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	c, err := shopFrom(r).MoveWishlistItemToCart(r.Context(), chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, shopFrom(r).Profile.Get())
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profile.Profile
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := shopFrom(r).Profile.Update(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}
