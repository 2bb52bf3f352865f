package handler

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	evt_model "github.com/RoyceAzure/lab/devstore/internal/domain/model/event"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/util"
	"github.com/rs/zerolog"
)

// cartEventHandler 處理 CartCheckedOut，將已結帳購物車轉為訂單
// 同一購物車以 locker 互斥，購物車寫入另有 version 樂觀鎖
// 訂單與 cart_finalizations pending 紀錄在同一個 transaction 提交，之後才將購物車 Finalized
// Finalized 失敗時由 sweeper 依 pending 紀錄補完
type cartEventHandler struct {
	cartRepo repository.ICartRepository
	uow      repository.IUnitOfWork
	locker   repository.ICartLocker
	logger   *zerolog.Logger
}

func newCartEventHandler(
	cartRepo repository.ICartRepository,
	uow repository.IUnitOfWork,
	locker repository.ICartLocker,
	logger *zerolog.Logger,
) *cartEventHandler {
	if !util.HasImplementation(cartRepo) {
		panic("cartEventHandler dependency cartRepo is nil")
	}
	if !util.HasImplementation(uow) {
		panic("cartEventHandler dependency uow is nil")
	}
	if !util.HasImplementation(locker) {
		panic("cartEventHandler dependency locker is nil")
	}
	if logger == nil {
		panic("cartEventHandler dependency logger is nil")
	}

	return &cartEventHandler{
		cartRepo: cartRepo,
		uow:      uow,
		locker:   locker,
		logger:   logger,
	}
}

func (h *cartEventHandler) HandleCartCheckedOut(ctx context.Context, evt evt_model.Event) error {
	e, ok := evt.(*evt_model.CartCheckedOutEvent)
	if !ok || e.CartID == "" {
		return errUnknownEventFormat
	}

	release, err := h.locker.Acquire(ctx, e.CartID)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			h.logger.Warn().Err(err).Str("cart_id", e.CartID).Msg("failed to release cart lock")
		}
	}()

	return h.reconcile(ctx, e.CartID)
}

func (h *cartEventHandler) reconcile(ctx context.Context, cartID string) error {
	cart, err := h.cartRepo.GetByID(ctx, cartID)
	if err != nil {
		return err
	}

	// 重複或亂序投遞在這裡被擋下
	if !cart.CanBeFinalized() {
		return model.InvalidState("cart %s is %s, only checked out carts can be finalized", cart.ID, cart.Status)
	}

	// 上次已提交訂單但購物車未 Finalized，只需補完購物車
	existing, err := h.uow.Orders().GetByCartRef(ctx, cart.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		h.logger.Info().Str("cart_id", cart.ID).Str("order_id", existing.ID).Msg("order already exists for cart, finalize only")
		return h.finalize(ctx, cart, existing.ID)
	}

	stale, err := h.findStaleItems(ctx, cart)
	if err != nil {
		return err
	}
	if len(stale) > 0 {
		for _, n := range stale {
			cart.RemoveItem(n)
		}
		if err := h.cartRepo.Update(ctx, cart); err != nil {
			return err
		}
		h.logger.Info().Str("cart_id", cart.ID).Ints("removed_products", stale).Msg("pruned stale cart items")
	}

	if cart.IsEmpty() {
		if err := cart.SetFinalized(); err != nil {
			return err
		}
		if err := h.cartRepo.Update(ctx, cart); err != nil {
			return err
		}
		h.logger.Info().Str("cart_id", cart.ID).Msg("cart has no valid items, finalized without order")
		return nil
	}

	branch, err := h.uow.Branches().GetFirstAvailable(ctx)
	if err != nil {
		return err
	}
	if branch == nil {
		return model.InvalidState("No branches available")
	}

	order, err := model.NewOrder(cart, cart.UserRefID, branch.ID)
	if err != nil {
		return err
	}

	err = h.uow.Transaction(ctx, func(tx repository.IUnitOfWork) error {
		if err := tx.Orders().Add(ctx, order); err != nil {
			return err
		}
		return tx.Finalizations().MarkPending(ctx, cart.ID, order.ID)
	})
	if err != nil {
		return err
	}

	h.logger.Info().
		Str("cart_id", cart.ID).
		Str("order_id", order.ID).
		Int64("order_number", order.OrderNumber).
		Str("total_amount", order.TotalAmount.String()).
		Msg("order created from cart")

	return h.finalize(ctx, cart, order.ID)
}

// findStaleItems 回傳目前目錄中已不存在的商品編號
func (h *cartEventHandler) findStaleItems(ctx context.Context, cart *model.Cart) ([]int, error) {
	var stale []int
	for _, item := range cart.Items {
		exists, err := h.uow.Products().ExistsByNumber(ctx, item.ProductRefNumber)
		if err != nil {
			return nil, err
		}
		if !exists {
			stale = append(stale, item.ProductRefNumber)
		}
	}
	return stale, nil
}

// finalize 訂單已提交後呼叫
// 購物車寫入失敗時回傳錯誤讓 bus 重送，重送會走 existing order 的路徑
// pending 紀錄更新失敗只記錄，sweeper 會看到購物車已 Finalized 並補上 done
func (h *cartEventHandler) finalize(ctx context.Context, cart *model.Cart, orderID string) error {
	if err := cart.SetFinalized(); err != nil {
		return err
	}
	if err := h.cartRepo.Update(ctx, cart); err != nil {
		h.logger.Error().Err(err).Str("cart_id", cart.ID).Str("order_id", orderID).Msg("order committed but cart finalize failed")
		return err
	}

	if err := h.uow.Finalizations().MarkDone(ctx, cart.ID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		h.logger.Warn().Err(err).Str("cart_id", cart.ID).Msg("failed to mark cart finalization done")
	}
	return nil
}
