package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/response"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/RoyceAzure/lab/storefront/internal/util"
	"github.com/go-chi/chi/v5"
)

type WishlistHandler struct {
	wishlistService service.IWishlistService
}

func NewWishlistHandler(wishlistService service.IWishlistService) *WishlistHandler {
	if wishlistService == nil {
		panic("wishlistService cannot be nil")
	}
	return &WishlistHandler{wishlistService: wishlistService}
}

func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	items, err := h.wishlistService.GetWishlist(r.Context(), util.GetUserIDFromContext(r.Context()))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, items)
}

func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req dto.WishlistDTO
	if err := dto.Bind(r, &req); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	items, err := h.wishlistService.Add(r.Context(), util.GetUserIDFromContext(r.Context()), req.ProductID)
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, items)
}

func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	items, err := h.wishlistService.Remove(r.Context(), util.GetUserIDFromContext(r.Context()), chi.URLParam(r, "productId"))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, items)
}
