package handler

import (
	"context"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	cmd_model "github.com/RoyceAzure/lab/devstore/internal/domain/model/command"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
	"github.com/RoyceAzure/lab/devstore/internal/infra/producer"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/util"
	"github.com/rs/zerolog"
)

// cartCommandHandler 購物車命令同步處理，只寫入 cart store
// 結帳成功後發送 CartCheckedOut，由 event handler 建立訂單
type cartCommandHandler struct {
	cartRepo      repository.ICartRepository
	uow           repository.IUnitOfWork
	eventProducer producer.ICartEventProducer
	logger        *zerolog.Logger
}

func newCartCommandHandler(
	cartRepo repository.ICartRepository,
	uow repository.IUnitOfWork,
	eventProducer producer.ICartEventProducer,
	logger *zerolog.Logger,
) *cartCommandHandler {
	if !util.HasImplementation(cartRepo) {
		panic("cartCommandHandler dependency cartRepo is nil")
	}
	if !util.HasImplementation(uow) {
		panic("cartCommandHandler dependency uow is nil")
	}
	if !util.HasImplementation(eventProducer) {
		panic("cartCommandHandler dependency eventProducer is nil")
	}
	if logger == nil {
		panic("cartCommandHandler dependency logger is nil")
	}

	return &cartCommandHandler{
		cartRepo:      cartRepo,
		uow:           uow,
		eventProducer: eventProducer,
		logger:        logger,
	}
}

// HandleCreateCart 購物車 ID 使用 command 的 AggregateID
func (h *cartCommandHandler) HandleCreateCart(ctx context.Context, cmd cmd_model.Command) error {
	c, ok := cmd.(*cmd_model.CreateCartCommand)
	if !ok {
		return errUnknownCommandFmt
	}
	if err := c.Validate(); err != nil {
		return err
	}

	user, err := h.uow.Users().GetByNumber(ctx, c.UserNumber)
	if err != nil {
		return err
	}
	if !user.CanOwnCart() {
		return model.InvalidState("user %d cannot own a cart", user.UserNumber)
	}

	existing, err := h.cartRepo.GetActiveByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return model.InvalidState("user %d already has an active cart %s", user.UserNumber, existing.ID)
	}

	cart := model.NewCartWithID(c.AggregateID, user.ID)
	if err := h.addItems(ctx, cart, cmd_model.GroupItems(c.Items)); err != nil {
		return err
	}
	if err := h.cartRepo.Add(ctx, cart); err != nil {
		return err
	}

	h.logger.Info().Str("cart_id", cart.ID).Str("user_id", user.ID).Int("items", len(cart.Items)).Msg("cart created")
	return nil
}

// HandleUpdateCart 以新的商品清單取代購物車內容
func (h *cartCommandHandler) HandleUpdateCart(ctx context.Context, cmd cmd_model.Command) error {
	c, ok := cmd.(*cmd_model.UpdateCartCommand)
	if !ok {
		return errUnknownCommandFmt
	}
	if err := c.Validate(); err != nil {
		return err
	}

	cart, err := h.cartRepo.GetByID(ctx, c.AggregateID)
	if err != nil {
		return err
	}
	if !cart.CanUpdate() {
		return model.InvalidState("cart %s is %s, only active carts can be updated", cart.ID, cart.Status)
	}

	cart.Clear()
	if err := h.addItems(ctx, cart, cmd_model.GroupItems(c.Items)); err != nil {
		return err
	}
	if err := h.cartRepo.Update(ctx, cart); err != nil {
		return err
	}

	h.logger.Info().Str("cart_id", cart.ID).Int("items", len(cart.Items)).Msg("cart updated")
	return nil
}

func (h *cartCommandHandler) HandleDeleteCart(ctx context.Context, cmd cmd_model.Command) error {
	c, ok := cmd.(*cmd_model.DeleteCartCommand)
	if !ok {
		return errUnknownCommandFmt
	}

	cart, err := h.cartRepo.GetByID(ctx, c.AggregateID)
	if err != nil {
		return err
	}
	if !cart.CanDelete() {
		return model.InvalidState("cart %s is %s, only active carts can be deleted", cart.ID, cart.Status)
	}
	if err := h.cartRepo.Remove(ctx, cart); err != nil {
		return err
	}

	h.logger.Info().Str("cart_id", cart.ID).Msg("cart deleted")
	return nil
}

// HandleCheckoutCart 狀態檢查在任何寫入之前
// 發送失敗時購物車維持 CheckedOut，不會自動補送
func (h *cartCommandHandler) HandleCheckoutCart(ctx context.Context, cmd cmd_model.Command) error {
	c, ok := cmd.(*cmd_model.CheckoutCartCommand)
	if !ok {
		return errUnknownCommandFmt
	}

	cart, err := h.cartRepo.GetByID(ctx, c.AggregateID)
	if err != nil {
		return err
	}
	if !cart.CanBeCheckedOut() {
		return model.InvalidState("Only active carts with items can be checked out")
	}
	if err := cart.SetCheckedOut(); err != nil {
		return err
	}
	if err := h.cartRepo.Update(ctx, cart); err != nil {
		return err
	}

	if err := h.eventProducer.ProduceCartCheckedOutEvent(ctx, cart.ID); err != nil {
		h.logger.Error().Err(err).Str("cart_id", cart.ID).Msg("cart checked out but CartCheckedOut publish failed")
		return model.Infra("publish CartCheckedOut", err)
	}

	h.logger.Info().Str("cart_id", cart.ID).Str("total_amount", cart.GetTotalAmount().String()).Msg("cart checked out")
	return nil
}

// addItems 商品必須全部存在，價格以目前目錄為準
func (h *cartCommandHandler) addItems(ctx context.Context, cart *model.Cart, items []cmd_model.CartItemInput) error {
	numbers := make([]int, 0, len(items))
	for _, item := range items {
		numbers = append(numbers, item.ProductNumber)
	}

	products, err := h.uow.Products().GetMany(ctx, numbers)
	if err != nil {
		return err
	}
	byNumber := make(map[int]model.Product, len(products))
	for _, p := range products {
		byNumber[p.ProductNumber] = p
	}

	for _, item := range items {
		p, ok := byNumber[item.ProductNumber]
		if !ok {
			return model.NotFound("product %d", item.ProductNumber)
		}
		if _, err := cart.AddItem(p.ID, p.ProductNumber, p.Price, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}
