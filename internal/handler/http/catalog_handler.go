package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vasiliy-maslov/storefront/internal/catalog"
)

func (h *Handler) handleGetCatalog(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, h.catalog)
}

// Unknown catalog paths redirect to the deepest valid ancestor instead of 404.
func (h *Handler) redirectToFallback(w http.ResponseWriter, r *http.Request) {
	target := h.catalog.Fallback(
		chi.URLParam(r, "category"),
		chi.URLParam(r, "product"),
		chi.URLParam(r, "variant"),
	)
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

func (h *Handler) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.catalog.Category(chi.URLParam(r, "category"))
	if err != nil {
		h.redirectToFallback(w, r)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Product(chi.URLParam(r, "category"), chi.URLParam(r, "product"))
	if err != nil {
		h.redirectToFallback(w, r)
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

type VariantResponse struct {
	Category string          `json:"category"`
	Product  string          `json:"product"`
	Name     string          `json:"name"`
	Image    string          `json:"image"`
	Variant  catalog.Variant `json:"variant"`
}

func (h *Handler) handleGetVariant(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	p, err := h.catalog.Product(category, chi.URLParam(r, "product"))
	if err != nil {
		h.redirectToFallback(w, r)
		return
	}
	v, err := h.catalog.Variant(category, p.Slug, chi.URLParam(r, "variant"))
	if err != nil {
		h.redirectToFallback(w, r)
		return
	}

	respondWithJSON(w, http.StatusOK, VariantResponse{
		Category: category,
		Product:  p.Slug,
		Name:     p.Name,
		Image:    p.Image,
		Variant:  v,
	})
}
