package router

import "github.com/RoyceAzure/lab/devstore/internal/api/handler"

type Server struct {
	UserHandler    *handler.UserHandler
	ProductHandler *handler.ProductHandler
	BranchHandler  *handler.BranchHandler
	CartHandler    *handler.CartHandler
	OrderHandler   *handler.OrderHandler
}

func NewServer(
	userHandler *handler.UserHandler,
	productHandler *handler.ProductHandler,
	branchHandler *handler.BranchHandler,
	cartHandler *handler.CartHandler,
	orderHandler *handler.OrderHandler,
) *Server {
	return &Server{
		UserHandler:    userHandler,
		ProductHandler: productHandler,
		BranchHandler:  branchHandler,
		CartHandler:    cartHandler,
		OrderHandler:   orderHandler,
	}
}
