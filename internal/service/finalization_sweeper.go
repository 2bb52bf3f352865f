package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/util"
	"github.com/rs/zerolog"
)

const (
	DefaultSweepMinAge    = time.Minute
	DefaultSweepBatchSize = 100
)

type SweepResult struct {
	Done     int
	Orphaned int
	Skipped  int
	Failed   int
}

// CartFinalizationSweeper 補完訂單已提交但購物車未標記 Finalized 的 pending 紀錄
//
//	購物車 CheckedOut -> Finalized 後標記 done
//	購物車已 Finalized -> 標記 done
//	購物車不存在      -> 標記 orphaned
//
// 不會重送 CartCheckedOut
type CartFinalizationSweeper struct {
	cartRepo  repository.ICartRepository
	uow       repository.IUnitOfWork
	locker    repository.ICartLocker
	minAge    time.Duration
	batchSize int
	now       func() time.Time
	logger    *zerolog.Logger
	isRunning atomic.Bool
}

func NewCartFinalizationSweeper(
	cartRepo repository.ICartRepository,
	uow repository.IUnitOfWork,
	locker repository.ICartLocker,
	minAge time.Duration,
	logger *zerolog.Logger,
) *CartFinalizationSweeper {
	if !util.HasImplementation(cartRepo) {
		panic("finalization sweeper dependency cartRepo is nil")
	}
	if !util.HasImplementation(uow) {
		panic("finalization sweeper dependency uow is nil")
	}
	if !util.HasImplementation(locker) {
		panic("finalization sweeper dependency locker is nil")
	}
	if logger == nil {
		panic("finalization sweeper dependency logger is nil")
	}
	if minAge <= 0 {
		minAge = DefaultSweepMinAge
	}
	return &CartFinalizationSweeper{
		cartRepo:  cartRepo,
		uow:       uow,
		locker:    locker,
		minAge:    minAge,
		batchSize: DefaultSweepBatchSize,
		now:       time.Now,
		logger:    logger,
	}
}

// Sweep 處理一批超過 minAge 的 pending 紀錄
// 單筆失敗只累加 attempts，不中斷整批
func (s *CartFinalizationSweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	pending, err := s.uow.Finalizations().ListPending(ctx, s.now().Add(-s.minAge), s.batchSize)
	if err != nil {
		return result, err
	}

	for _, f := range pending {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		status, err := s.finalize(ctx, f)
		switch {
		case err == nil:
			if status == model.FinalizationOrphaned {
				result.Orphaned++
			} else {
				result.Done++
			}
		case errors.Is(err, errCartBusy):
			result.Skipped++
		default:
			result.Failed++
			s.logger.Error().Err(err).Str("cart_id", f.CartID).Str("order_id", f.OrderID).Int("attempts", f.Attempts+1).Msg("cart finalization failed")
			if incErr := s.uow.Finalizations().IncrementAttempts(ctx, f.CartID); incErr != nil {
				s.logger.Warn().Err(incErr).Str("cart_id", f.CartID).Msg("failed to increment finalization attempts")
			}
		}
	}

	if len(pending) > 0 {
		s.logger.Info().
			Int("done", result.Done).
			Int("orphaned", result.Orphaned).
			Int("skipped", result.Skipped).
			Int("failed", result.Failed).
			Msg("cart finalization sweep finished")
	}
	return result, nil
}

var errCartBusy = errors.New("cart is being reconciled")

func (s *CartFinalizationSweeper) finalize(ctx context.Context, f model.CartFinalization) (model.FinalizationStatus, error) {
	release, err := s.locker.Acquire(ctx, f.CartID)
	if err != nil {
		if model.IsRetryable(err) {
			// reconciliation 正在處理，下一輪再看
			s.logger.Debug().Err(err).Str("cart_id", f.CartID).Msg("skip locked cart")
			return "", errCartBusy
		}
		return "", err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn().Err(err).Str("cart_id", f.CartID).Msg("failed to release cart lock")
		}
	}()

	cart, err := s.cartRepo.GetByID(ctx, f.CartID)
	if errors.Is(err, model.ErrNotFound) {
		s.logger.Warn().Str("cart_id", f.CartID).Str("order_id", f.OrderID).Msg("cart of committed order is gone, mark orphaned")
		return model.FinalizationOrphaned, s.uow.Finalizations().MarkOrphaned(ctx, f.CartID)
	}
	if err != nil {
		return "", err
	}

	switch cart.Status {
	case model.CartStatusCheckedOut:
		if err := cart.SetFinalized(); err != nil {
			return "", err
		}
		if err := s.cartRepo.Update(ctx, cart); err != nil {
			return "", err
		}
	case model.CartStatusFinalized:
	default:
		return "", model.InvalidState("cart %s is %s but order %s exists", cart.ID, cart.Status, f.OrderID)
	}

	if err := s.uow.Finalizations().MarkDone(ctx, f.CartID); err != nil {
		return "", err
	}
	s.logger.Info().Str("cart_id", f.CartID).Str("order_id", f.OrderID).Msg("cart finalized by sweeper")
	return model.FinalizationDone, nil
}

// Run 依 interval 定期執行 Sweep，ctx 取消時回傳 nil
func (s *CartFinalizationSweeper) Run(ctx context.Context, interval time.Duration) error {
	if !s.isRunning.CompareAndSwap(false, true) {
		return errors.New("finalization sweeper is already running")
	}
	defer s.isRunning.Store(false)

	if interval <= 0 {
		interval = DefaultSweepMinAge
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error().Err(err).Msg("cart finalization sweep failed")
			}
		}
	}
}
