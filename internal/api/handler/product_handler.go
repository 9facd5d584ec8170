package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/response"
	"github.com/RoyceAzure/lab/storefront/internal/service"
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

// List GET /products?category=&minPrice=&maxPrice=&sort=&page=&limit=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := dto.ParseProductQuery(r.URL.Query())
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	page, err := h.productService.ListProducts(r.Context(), filter)
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, page)
}

func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.GetFeaturedProducts(r.Context())
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.productService.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ProductDTO
	if err := dto.Bind(r, &req); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	product, err := h.productService.CreateProduct(r.Context(), req.ToModel(""))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.CreatedJSON(w, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.ProductDTO
	if err := dto.Bind(r, &req); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	product, err := h.productService.UpdateProduct(r.Context(), req.ToModel(chi.URLParam(r, "id")))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.productService.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, map[string]string{"message": "product removed"})
}
