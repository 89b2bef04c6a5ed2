package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/order"
	"github.com/vasiliy-maslov/storefront/internal/payment"
	"github.com/vasiliy-maslov/storefront/internal/shop"
)

type PaymentResponse struct {
	Order  order.Order    `json:"order"`
	Result payment.Result `json:"result"`
}

type UpdateDeliveryRequest struct {
	Status order.DeliveryStatus `json:"status" validate:"required"`
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, shopFrom(r).Orders.List())
}

func (h *Handler) handleCurrentOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := shopFrom(r).Orders.Current()
	if !ok {
		respondWithError(w, http.StatusNotFound, "No current order")
		return
	}
	respondWithJSON(w, http.StatusOK, o)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	o, err := shopFrom(r).Orders.Get(id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, o)
}

// handlePay blocks until the payment attempt resolves. A declined or expired
// attempt answers 402 with the failed order and the outcome.
func (h *Handler) handlePay(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	method, err := payment.ParseMethod(chi.URLParam(r, "method"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	in, err := payment.DecodeInput(method, body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, res, err := shopFrom(r).Pay(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, shop.ErrPaymentCancelled) {
			log.Info().Stringer("order_id", id).Msg("Payment request abandoned by client")
		}
		respondWithServiceError(w, r, err)
		return
	}

	code := http.StatusOK
	if !res.Succeeded() {
		code = http.StatusPaymentRequired
	}
	respondWithJSON(w, code, PaymentResponse{Order: o, Result: res})
}

func (h *Handler) handleUpdateDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	var req UpdateDeliveryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	o, err := shopFrom(r).Orders.UpdateDeliveryStatus(r.Context(), id, req.Status)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, o)
}

func (h *Handler) handleRefund(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	o, err := shopFrom(r).Refund(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, o)
}

func (h *Handler) handleInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	inv, err := shopFrom(r).Orders.Invoice(id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, inv)
}
