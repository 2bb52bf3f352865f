package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/devstore/internal/api/dto"
	"github.com/RoyceAzure/lab/devstore/internal/api/response"
	"github.com/RoyceAzure/lab/devstore/internal/service"
	"github.com/go-chi/chi/v5"
)

type BranchHandler struct {
	branchService service.IBranchService
}

func NewBranchHandler(branchService service.IBranchService) *BranchHandler {
	if branchService == nil {
		panic("branchService cannot be nil")
	}
	return &BranchHandler{branchService: branchService}
}

func (h *BranchHandler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBranchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	branch, err := h.branchService.CreateBranch(r.Context(), req.Name)
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusCreated, dto.NewBranchDTO(branch))
}

func (h *BranchHandler) GetBranch(w http.ResponseWriter, r *http.Request) {
	branch, err := h.branchService.GetBranch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.NewBranchDTO(branch))
}

func (h *BranchHandler) DeleteBranch(w http.ResponseWriter, r *http.Request) {
	if err := h.branchService.DeleteBranch(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
