package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/devstore/internal/api/dto"
	"github.com/RoyceAzure/lab/devstore/internal/api/response"
	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/service"
	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userService service.IUserService
}

func NewUserHandler(userService service.IUserService) *UserHandler {
	if userService == nil {
		panic("userService cannot be nil")
	}
	return &UserHandler{userService: userService}
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	role := model.UserRole(req.Role)
	if role == "" {
		role = model.UserRoleCustomer
	}

	user, err := h.userService.CreateUser(r.Context(), req.Username, req.Email, req.Phone, role)
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusCreated, dto.NewUserDTO(user))
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.NewUserDTO(user))
}

func (h *UserHandler) GetUserByNumber(w http.ResponseWriter, r *http.Request) {
	number, ok := pathInt(w, chi.URLParam(r, "number"), "user number")
	if !ok {
		return
	}
	user, err := h.userService.GetUserByNumber(r.Context(), number)
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.NewUserDTO(user))
}

// DeleteUser 已有訂單時回傳 409
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	number, ok := pathInt(w, chi.URLParam(r, "number"), "user number")
	if !ok {
		return
	}
	if err := h.userService.DeleteUser(r.Context(), number); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
