package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	evt_model "github.com/RoyceAzure/lab/devstore/internal/domain/model/event"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
	"github.com/rs/zerolog"
)

type HandlerError error

var (
	errHandlerNotFound    HandlerError = errors.New("handler not found")
	errUnknownEventFormat HandlerError = errors.New("unknown event format")
)

type HandlerFunc func(ctx context.Context, evt evt_model.Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt evt_model.Event) error {
	return f(ctx, evt)
}

type Handler interface {
	HandleEvent(ctx context.Context, evt evt_model.Event) error
}

// HandlerDispatcher 依事件類型分派
// processed 不為 nil 時，成功處理的事件會被記錄，重複投遞直接略過
type HandlerDispatcher struct {
	handlers  map[evt_model.EventType]Handler
	processed repository.IProcessedEventCache
	logger    *zerolog.Logger
}

func NewHandlerDispatcher(handlers map[evt_model.EventType]Handler, processed repository.IProcessedEventCache, logger *zerolog.Logger) *HandlerDispatcher {
	return &HandlerDispatcher{handlers: handlers, processed: processed, logger: logger}
}

func processedKey(evt evt_model.Event) string {
	return fmt.Sprintf("%s:%s", evt.Type(), evt.GetID())
}

func (d *HandlerDispatcher) HandleEvent(ctx context.Context, evt evt_model.Event) error {
	handler, ok := d.handlers[evt.Type()]
	if !ok {
		return errHandlerNotFound
	}

	key := processedKey(evt)
	if d.processed != nil {
		done, err := d.processed.IsProcessed(ctx, key)
		if err != nil {
			return err
		}
		if done {
			d.logger.Info().Str("event", key).Msg("event already processed, skip")
			return nil
		}
	}

	if err := handler.HandleEvent(ctx, evt); err != nil {
		return err
	}

	if d.processed != nil {
		// 紀錄失敗不影響結果，重複投遞仍會被購物車狀態擋下
		if err := d.processed.MarkProcessed(ctx, key); err != nil {
			d.logger.Warn().Err(err).Str("event", key).Msg("failed to mark event processed")
		}
	}
	return nil
}

// IsTerminal 不值得重試的錯誤：事件格式錯誤、找不到 handler
func IsTerminal(err error) bool {
	return errors.Is(err, errHandlerNotFound) ||
		errors.Is(err, errUnknownEventFormat) ||
		errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrInvalidState) ||
		errors.Is(err, model.ErrValidation)
}

func NewCartEventHandler(
	cartRepo repository.ICartRepository,
	uow repository.IUnitOfWork,
	locker repository.ICartLocker,
	processed repository.IProcessedEventCache,
	logger *zerolog.Logger,
) Handler {
	cartEventHandler := newCartEventHandler(cartRepo, uow, locker, logger)
	return NewHandlerDispatcher(map[evt_model.EventType]Handler{
		evt_model.CartCheckedOutEventName: HandlerFunc(cartEventHandler.HandleCartCheckedOut),
	}, processed, logger)
}
