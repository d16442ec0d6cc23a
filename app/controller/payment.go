package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-payment-intake/app/factory"
	"github.com/vibast-solutions/ms-go-payment-intake/app/mapper"
	"github.com/vibast-solutions/ms-go-payment-intake/app/service"
	"github.com/vibast-solutions/ms-go-payment-intake/app/types"
)

type PaymentController struct {
	paymentService *service.PaymentService
	logger         logrus.FieldLogger
}

func NewPaymentController(paymentService *service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		logger:         factory.NewModuleLogger("payments-controller"),
	}
}

func (c *PaymentController) Health(ctx echo.Context) error {
	if err := c.paymentService.Ping(ctx.Request().Context()); err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Warn("Storage ping failed")
		return ctx.JSON(http.StatusServiceUnavailable, &types.HealthResponse{Status: "unavailable"})
	}
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

// CreatePayment handles internal (card/cash) payments: 201 on creation,
// 200 when the idempotency key was already used.
func (c *PaymentController) CreatePayment(ctx echo.Context) error {
	req, ok, err := c.bindCreateRequest(ctx)
	if !ok {
		return err
	}

	item, created, err := c.paymentService.CreateInternalPayment(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			return c.writeError(ctx, http.StatusNotFound, types.ErrorKindNotFound, err.Error())
		case errors.Is(err, service.ErrInternalMethodNotAllowed), errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, types.ErrorKindBadRequest, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Create payment failed")
			return c.writeError(ctx, http.StatusInternalServerError, types.ErrorKindInternalServerError, "Unexpected error")
		}
	}

	statusCode := http.StatusOK
	if created {
		statusCode = http.StatusCreated
	} else {
		factory.LoggerWithContext(c.logger, ctx).WithField("payment_id", item.ID).Debug("Idempotent replay")
	}

	return ctx.JSON(statusCode, mapper.PaymentToResponse(item))
}

// CreateExternalPayment handles PayPal payments. Creation and replay both
// answer 200; any unexpected failure is reported as an upstream fault.
func (c *PaymentController) CreateExternalPayment(ctx echo.Context) error {
	req, ok, err := c.bindCreateRequest(ctx)
	if !ok {
		return err
	}

	item, created, err := c.paymentService.CreateExternalPayment(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			return c.writeError(ctx, http.StatusNotFound, types.ErrorKindNotFound, err.Error())
		case errors.Is(err, service.ErrExternalMethodNotAllowed), errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, types.ErrorKindBadRequest, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Create external payment failed")
			return c.writeError(ctx, http.StatusBadGateway, types.ErrorKindBadGateway, "unable to communicate with PayPal")
		}
	}

	if !created {
		factory.LoggerWithContext(c.logger, ctx).WithField("payment_id", item.ID).Debug("Idempotent replay")
	}

	return ctx.JSON(http.StatusOK, mapper.PaymentToResponse(item))
}

func (c *PaymentController) GetPayment(ctx echo.Context) error {
	req, err := types.NewGetPaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, types.ErrorKindBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, types.ErrorKindBadRequest, err.Error())
	}

	item, err := c.paymentService.GetPayment(ctx.Request().Context(), req.GetPaymentID())
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			return c.writeError(ctx, http.StatusNotFound, types.ErrorKindNotFound, "paymentId does not exist")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Get payment failed")
		return c.writeError(ctx, http.StatusInternalServerError, types.ErrorKindInternalServerError, "Unexpected error")
	}

	return ctx.JSON(http.StatusOK, mapper.PaymentToResponse(item))
}

// bindCreateRequest parses and shape-validates a creation request. When ok
// is false the error response has already been written and err is the
// handler's return value.
func (c *PaymentController) bindCreateRequest(ctx echo.Context) (*types.CreatePaymentRequest, bool, error) {
	req, err := types.NewCreatePaymentRequestFromContext(ctx)
	if err != nil {
		if errors.Is(err, types.ErrIdempotencyKeyRequired) {
			return nil, false, c.writeError(ctx, http.StatusBadRequest, types.ErrorKindBadRequest, err.Error())
		}
		return nil, false, c.writeError(ctx, http.StatusBadRequest, types.ErrorKindBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return nil, false, c.writeError(ctx, http.StatusBadRequest, types.ErrorKindBadRequest, err.Error())
	}
	return req, true, nil
}

func (c *PaymentController) writeError(ctx echo.Context, statusCode int, kind, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: kind, Message: message})
}
