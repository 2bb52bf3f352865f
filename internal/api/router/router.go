package router

import (
	"net/http"

	m "github.com/RoyceAzure/lab/devstore/internal/api/middleware"
	"github.com/RoyceAzure/lab/devstore/internal/api/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// SetupRouter limiter 為 nil 時購物車寫入不限流
func SetupRouter(server *Server, limiter m.Limiter, logger *zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.LoggerMiddleware(logger))
	r.Use(m.RecoverMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		response.MessageJSON(w, http.StatusOK, "ok")
	})

	cartWrite := func(next http.Handler) http.Handler { return next }
	if limiter != nil {
		cartWrite = m.NewRateLimitMiddleware("cart", limiter, logger)
	}

	// API 路由
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", server.UserHandler.CreateUser)
			r.Get("/{id}", server.UserHandler.GetUser)
			r.Get("/number/{number}", server.UserHandler.GetUserByNumber)
			r.Delete("/number/{number}", server.UserHandler.DeleteUser)
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", server.ProductHandler.CreateProduct)
			r.Get("/", server.ProductHandler.ListProducts)
			r.Get("/categories", server.ProductHandler.GetCategories)
			r.Get("/category/{category}", server.ProductHandler.ListProductsByCategory)
			r.Get("/{number}", server.ProductHandler.GetProduct)
			r.Put("/{number}", server.ProductHandler.UpdateProduct)
			r.Delete("/{number}", server.ProductHandler.DeleteProduct)
		})

		r.Route("/branches", func(r chi.Router) {
			r.Post("/", server.BranchHandler.CreateBranch)
			r.Get("/{id}", server.BranchHandler.GetBranch)
			r.Delete("/{id}", server.BranchHandler.DeleteBranch)
		})

		r.Route("/carts", func(r chi.Router) {
			r.Get("/", server.CartHandler.ListCarts)
			r.Get("/{id}", server.CartHandler.GetCart)
			r.Group(func(r chi.Router) {
				r.Use(cartWrite)
				r.Post("/", server.CartHandler.CreateCart)
				r.Put("/{id}", server.CartHandler.UpdateCart)
				r.Delete("/{id}", server.CartHandler.DeleteCart)
				r.Post("/{id}/checkout", server.CartHandler.CheckoutCart)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", server.OrderHandler.ListOrders)
			r.Get("/{id}", server.OrderHandler.GetOrder)
			r.Post("/{id}/confirm", server.OrderHandler.ConfirmOrder)
			r.Post("/{id}/cancel", server.OrderHandler.CancelOrder)
		})
	})
	return r
}
