package http

import (
	"net/http"

	"github.com/vasiliy-maslov/storefront/internal/cart"
	"github.com/vasiliy-maslov/storefront/internal/checkout"
)

type CheckoutResponse struct {
	State checkout.State `json:"state"`
	Cart  cart.Cart      `json:"cart"`
}

type GoToStepRequest struct {
	Step checkout.Step `json:"step" validate:"required"`
}

// handleGetCheckout sends shoppers with an empty cart back to the cart.
func (h *Handler) handleGetCheckout(w http.ResponseWriter, r *http.Request) {
	s := shopFrom(r)
	if !s.CanCheckout() {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	respondWithJSON(w, http.StatusOK, CheckoutResponse{
		State: s.Checkout.State(),
		Cart:  s.Cart.Snapshot(),
	})
}

func (h *Handler) handleSubmitShipping(w http.ResponseWriter, r *http.Request) {
	var req checkout.ShippingAddress
	if !decodeJSON(w, r, &req) {
		return
	}

	st, err := shopFrom(r).Checkout.SubmitShipping(req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, st)
}

// handleSubmitBilling copies the shipping snapshot when same_as_shipping is set
// and ignores the other fields.
func (h *Handler) handleSubmitBilling(w http.ResponseWriter, r *http.Request) {
	var req checkout.BillingAddress
	if !decodeJSON(w, r, &req) {
		return
	}

	st, err := shopFrom(r).Checkout.SubmitBilling(req, req.SameAsShipping)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, st)
}

func (h *Handler) handleGoToStep(w http.ResponseWriter, r *http.Request) {
	var req GoToStepRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	st, err := shopFrom(r).Checkout.GoTo(req.Step)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, st)
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	o, err := shopFrom(r).PlaceOrder(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/orders/"+o.ID.String())
	respondWithJSON(w, http.StatusCreated, o)
}
