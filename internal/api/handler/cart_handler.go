package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/devstore/internal/api/dto"
	"github.com/RoyceAzure/lab/devstore/internal/api/response"
	"github.com/RoyceAzure/lab/devstore/internal/service"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	cartService service.ICartService
}

func NewCartHandler(cartService service.ICartService) *CartHandler {
	if cartService == nil {
		panic("cartService cannot be nil")
	}
	return &CartHandler{cartService: cartService}
}

func (h *CartHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cart, err := h.cartService.CreateCart(r.Context(), req.UserNumber, dto.ToCartItemInputs(req.Items))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusCreated, dto.NewCartDTO(cart))
}

func (h *CartHandler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cart, err := h.cartService.UpdateCart(r.Context(), chi.URLParam(r, "id"), dto.ToCartItemInputs(req.Items))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.NewCartDTO(cart))
}

func (h *CartHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cartService.DeleteCart(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckoutCart 訂單非同步建立，成功回傳 202
func (h *CartHandler) CheckoutCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartService.CheckoutCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusAccepted, dto.NewCartDTO(cart))
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartService.GetCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.NewCartDTO(cart))
}

func (h *CartHandler) ListCarts(w http.ResponseWriter, r *http.Request) {
	page, err := h.cartService.ListCarts(r.Context(), listQuery(r))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.MapPage(page, dto.NewCartDTO))
}
