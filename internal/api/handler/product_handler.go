package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/devstore/internal/api/dto"
	"github.com/RoyceAzure/lab/devstore/internal/api/response"
	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/service"
	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	productService service.IProductService
}

func NewProductHandler(productService service.IProductService) *ProductHandler {
	if productService == nil {
		panic("productService cannot be nil")
	}
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.productService.CreateProduct(r.Context(), productParams(req))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusCreated, dto.NewProductDTO(*product))
}

// UpdateProduct PUT /products/{number}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	number, ok := pathInt(w, chi.URLParam(r, "number"), "product number")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.productService.UpdateProduct(r.Context(), number, productParams(dto.CreateProductRequest(req)))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.NewProductDTO(*product))
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	number, ok := pathInt(w, chi.URLParam(r, "number"), "product number")
	if !ok {
		return
	}
	product, err := h.productService.GetProduct(r.Context(), number)
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.NewProductDTO(*product))
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.productService.ListProducts(r.Context(), listQuery(r))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.MapPage(page, dto.NewProductDTO))
}

func (h *ProductHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.productService.GetCategories(r.Context())
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.CategoriesDTO{Categories: categories})
}

func (h *ProductHandler) ListProductsByCategory(w http.ResponseWriter, r *http.Request) {
	page, err := h.productService.ListProductsByCategory(r.Context(), chi.URLParam(r, "category"), listQuery(r))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.MapPage(page, dto.NewProductDTO))
}

// DeleteProduct 已被訂單引用時回傳 409
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	number, ok := pathInt(w, chi.URLParam(r, "number"), "product number")
	if !ok {
		return
	}
	if err := h.productService.DeleteProduct(r.Context(), number); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func productParams(req dto.CreateProductRequest) service.CreateProductParams {
	return service.CreateProductParams{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Rating:      model.Rating{Rate: req.Rating.Rate, Count: req.Rating.Count},
	}
}
