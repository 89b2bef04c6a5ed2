package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/address"
	"github.com/vasiliy-maslov/storefront/internal/catalog"
	"github.com/vasiliy-maslov/storefront/internal/checkout"
	"github.com/vasiliy-maslov/storefront/internal/order"
	"github.com/vasiliy-maslov/storefront/internal/payment"
	"github.com/vasiliy-maslov/storefront/internal/shop"
	"github.com/vasiliy-maslov/storefront/internal/validation"
	"github.com/vasiliy-maslov/storefront/internal/wishlist"
)

// maxBodyBytes bounds request bodies; every payload here is a small form.
const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload: %v", err))
		return false
	}
	return true
}

// respondWithServiceError writes err as a validation response, or as an error
// message with the status from mapErrorToStatusCode.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve validation.Errors
	if errors.As(err, &ve) {
		respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Validation failed",
			Details: ve,
		})
		return
	}

	code := mapErrorToStatusCode(err)
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		respondWithError(w, code, "Internal server error")
		return
	}

	log.Debug().Err(err).Str("path", r.URL.Path).Int("status", code).Msg("Request rejected")
	respondWithError(w, code, err.Error())
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, address.ErrAddressNotFound),
		errors.Is(err, wishlist.ErrItemNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrVariantNotFound):
		return http.StatusNotFound
	case errors.Is(err, shop.ErrAlreadyPaid),
		errors.Is(err, shop.ErrPaymentInProgress),
		errors.Is(err, order.ErrInvalidStatusTransition),
		errors.Is(err, order.ErrInvoiceUnavailable),
		errors.Is(err, checkout.ErrStepNotReached),
		errors.Is(err, checkout.ErrShippingRequired),
		errors.Is(err, checkout.ErrBillingRequired):
		return http.StatusConflict
	case errors.Is(err, shop.ErrEmptyCart),
		errors.Is(err, shop.ErrCheckoutIncomplete):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shop.ErrInvalidQuantity),
		errors.Is(err, shop.ErrInvalidShopperID),
		errors.Is(err, checkout.ErrInvalidStep),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, payment.ErrUnknownMethod),
		errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, shop.ErrPaymentCancelled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
