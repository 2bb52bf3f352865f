package handler

import (
	"context"
	"errors"

	cmd_model "github.com/RoyceAzure/lab/devstore/internal/domain/model/command"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
	"github.com/RoyceAzure/lab/devstore/internal/infra/producer"
	"github.com/rs/zerolog"
)

type HandlerError error

var (
	errHandlerNotFound   HandlerError = errors.New("handler not found")
	errUnknownCommandFmt HandlerError = errors.New("unknown command format")
)

type HandlerFunc func(ctx context.Context, cmd cmd_model.Command) error

func (f HandlerFunc) HandleCommand(ctx context.Context, cmd cmd_model.Command) error {
	return f(ctx, cmd)
}

type Handler interface {
	HandleCommand(ctx context.Context, cmd cmd_model.Command) error
}

type HandlerDispatcher struct {
	handlers map[cmd_model.CommandType]Handler
}

func NewHandlerDispatcher(handlers map[cmd_model.CommandType]Handler) *HandlerDispatcher {
	return &HandlerDispatcher{handlers: handlers}
}

func (d *HandlerDispatcher) HandleCommand(ctx context.Context, cmd cmd_model.Command) error {
	handler, ok := d.handlers[cmd.Type()]
	if !ok {
		return errHandlerNotFound
	}
	return handler.HandleCommand(ctx, cmd)
}

// 購物車命令處理器
func NewCartCommandHandler(
	cartRepo repository.ICartRepository,
	uow repository.IUnitOfWork,
	eventProducer producer.ICartEventProducer,
	logger *zerolog.Logger,
) Handler {
	cartHandler := newCartCommandHandler(cartRepo, uow, eventProducer, logger)
	return NewHandlerDispatcher(map[cmd_model.CommandType]Handler{
		cmd_model.CreateCartCommandName:   HandlerFunc(cartHandler.HandleCreateCart),
		cmd_model.UpdateCartCommandName:   HandlerFunc(cartHandler.HandleUpdateCart),
		cmd_model.DeleteCartCommandName:   HandlerFunc(cartHandler.HandleDeleteCart),
		cmd_model.CheckoutCartCommandName: HandlerFunc(cartHandler.HandleCheckoutCart),
	})
}
