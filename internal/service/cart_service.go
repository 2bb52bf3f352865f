package service

import (
	"context"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	cmd_model "github.com/RoyceAzure/lab/devstore/internal/domain/model/command"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
	command_handler "github.com/RoyceAzure/lab/devstore/internal/handler/command"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/paging"
)

type ICartService interface {
	CreateCart(ctx context.Context, userNumber int, items []cmd_model.CartItemInput) (*model.Cart, error)
	UpdateCart(ctx context.Context, cartID string, items []cmd_model.CartItemInput) (*model.Cart, error)
	DeleteCart(ctx context.Context, cartID string) error
	CheckoutCart(ctx context.Context, cartID string) (*model.Cart, error)
	GetCart(ctx context.Context, cartID string) (*model.Cart, error)
	ListCarts(ctx context.Context, q ListQuery) (paging.Page[*model.Cart], error)
}

// CartService 寫入一律透過 command handler，查詢直接讀 cart store
type CartService struct {
	cartRepo   repository.ICartRepository
	cmdHandler command_handler.Handler
}

func NewCartService(cartRepo repository.ICartRepository, cmdHandler command_handler.Handler) *CartService {
	if cartRepo == nil {
		panic("cart service dependency cartRepo is nil")
	}
	if cmdHandler == nil {
		panic("cart service dependency cmdHandler is nil")
	}
	return &CartService{cartRepo: cartRepo, cmdHandler: cmdHandler}
}

func (s *CartService) CreateCart(ctx context.Context, userNumber int, items []cmd_model.CartItemInput) (*model.Cart, error) {
	cmd := cmd_model.NewCreateCartCommand(userNumber, items)
	if err := s.cmdHandler.HandleCommand(ctx, cmd); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByID(ctx, cmd.AggregateID)
}

func (s *CartService) UpdateCart(ctx context.Context, cartID string, items []cmd_model.CartItemInput) (*model.Cart, error) {
	if err := s.cmdHandler.HandleCommand(ctx, cmd_model.NewUpdateCartCommand(cartID, items)); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByID(ctx, cartID)
}

func (s *CartService) DeleteCart(ctx context.Context, cartID string) error {
	return s.cmdHandler.HandleCommand(ctx, cmd_model.NewDeleteCartCommand(cartID))
}

// CheckoutCart 訂單由事件非同步建立，回傳的購物車狀態為 CheckedOut
func (s *CartService) CheckoutCart(ctx context.Context, cartID string) (*model.Cart, error) {
	if err := s.cmdHandler.HandleCommand(ctx, cmd_model.NewCheckoutCartCommand(cartID)); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByID(ctx, cartID)
}

func (s *CartService) GetCart(ctx context.Context, cartID string) (*model.Cart, error) {
	return s.cartRepo.GetByID(ctx, cartID)
}

func (s *CartService) ListCarts(ctx context.Context, q ListQuery) (paging.Page[*model.Cart], error) {
	p := q.params()
	items, total, err := s.cartRepo.GetPaged(ctx, p, q.terms(repository.CartSortFields, repository.CartDefaultSort))
	if err != nil {
		return paging.Page[*model.Cart]{}, err
	}
	return paging.NewPage(items, total, p), nil
}

var _ ICartService = (*CartService)(nil)
