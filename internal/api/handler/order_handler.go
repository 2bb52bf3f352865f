package handler

import (
	"context"
	"net/http"

	"github.com/RoyceAzure/lab/devstore/internal/api/dto"
	"github.com/RoyceAzure/lab/devstore/internal/api/response"
	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/service"
	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	orderService service.IOrderService
}

func NewOrderHandler(orderService service.IOrderService) *OrderHandler {
	if orderService == nil {
		panic("orderService cannot be nil")
	}
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.NewOrderDTO(order))
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, err := h.orderService.ListOrders(r.Context(), listQuery(r))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.MapPage(page, func(o model.Order) dto.OrderDTO {
		return dto.NewOrderDTO(&o)
	}))
}

func (h *OrderHandler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orderService.ConfirmOrder)
}

func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orderService.CancelOrder)
}

func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, string) (*model.Order, error)) {
	order, err := apply(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.NewOrderDTO(order))
}
