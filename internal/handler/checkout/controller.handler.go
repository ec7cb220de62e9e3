package checkout

import (
	"context"
	"net/http"
	"strconv"

	"storefront-checkout/internal/common/enum"
	types "storefront-checkout/internal/common/type"
	"storefront-checkout/internal/pkg/helper"
	"storefront-checkout/internal/pkg/middleware"
	checkoutService "storefront-checkout/internal/service/checkout"
	"storefront-checkout/internal/service/payment"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	ctx     context.Context
	service checkoutService.IService
}

type IHandler interface {
	NewRoutes(e *gin.RouterGroup)
}

func NewHandler(ctx context.Context, service checkoutService.IService) IHandler {
	return &Handler{
		ctx:     ctx,
		service: service,
	}
}

// caller returns the authenticated user, answering 401 itself when there is none.
func caller(c *gin.Context) (types.UserWithAuth, func(r *types.Response), bool) {
	send := c.MustGet("send").(func(r *types.Response))

	user, ok := middleware.GetAuth(c)
	if !ok {
		send(helper.ParseResponse(&types.Response{
			Code:    http.StatusUnauthorized,
			Message: "token not found",
		}))
		return user, send, false
	}
	return user, send, true
}

func badRequest(err error) *types.Response {
	return helper.ParseResponse(&types.Response{
		Code:    http.StatusBadRequest,
		Message: "Invalid request body",
		Error:   err,
	})
}

// OpenSession POST /v1/checkout/sessions
func (h *Handler) OpenSession(c *gin.Context) {
	user, send, ok := caller(c)
	if !ok {
		return
	}

	send(h.service.OpenSession(c.Request.Context(), user))
}

// GetSession GET /v1/checkout/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	user, send, ok := caller(c)
	if !ok {
		return
	}

	send(h.service.GetSession(c.Request.Context(), user, c.Param("id")))
}

// CloseSession DELETE /v1/checkout/sessions/:id
func (h *Handler) CloseSession(c *gin.Context) {
	user, send, ok := caller(c)
	if !ok {
		return
	}

	send(h.service.CloseSession(c.Request.Context(), user, c.Param("id")))
}

// Reconnect POST /v1/checkout/sessions/:id/reconnect
func (h *Handler) Reconnect(c *gin.Context) {
	user, send, ok := caller(c)
	if !ok {
		return
	}

	send(h.service.Reconnect(c.Request.Context(), user, c.Param("id")))
}

// Quote GET /v1/checkout/sessions/:id/quote?delivery_type=1
func (h *Handler) Quote(c *gin.Context) {
	user, send, ok := caller(c)
	if !ok {
		return
	}

	delivery := enum.DELIVERY
	if raw := c.Query("delivery_type"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			send(helper.ParseResponse(&types.Response{
				Code:    http.StatusBadRequest,
				Message: "delivery_type must be a number",
				Error:   err,
			}))
			return
		}
		delivery = enum.DeliveryTypeEnum(n)
	}

	send(h.service.Quote(c.Request.Context(), user, c.Param("id"), delivery))
}

// SubmitOrder POST /v1/checkout/sessions/:id/orders
func (h *Handler) SubmitOrder(c *gin.Context) {
	user, send, ok := caller(c)
	if !ok {
		return
	}

	var req checkoutService.SubmitOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		send(badRequest(err))
		return
	}

	send(h.service.SubmitOrder(c.Request.Context(), user, c.Param("id"), &req))
}

// SubmitCard POST /v1/checkout/sessions/:id/payment/card
func (h *Handler) SubmitCard(c *gin.Context) {
	user, send, ok := caller(c)
	if !ok {
		return
	}

	var req payment.CardInput
	if err := c.ShouldBindJSON(&req); err != nil {
		send(badRequest(err))
		return
	}

	send(h.service.SubmitCard(c.Request.Context(), user, c.Param("id"), &req))
}

// ResendCode POST /v1/checkout/sessions/:id/payment/code/resend
func (h *Handler) ResendCode(c *gin.Context) {
	user, send, ok := caller(c)
	if !ok {
		return
	}

	send(h.service.ResendCode(c.Request.Context(), user, c.Param("id")))
}

// ConfirmPayment POST /v1/checkout/sessions/:id/payment/confirm
func (h *Handler) ConfirmPayment(c *gin.Context) {
	user, send, ok := caller(c)
	if !ok {
		return
	}

	var req payment.ConfirmInput
	if err := c.ShouldBindJSON(&req); err != nil {
		send(badRequest(err))
		return
	}

	send(h.service.ConfirmPayment(c.Request.Context(), user, c.Param("id"), &req))
}

// AbortPayment POST /v1/checkout/sessions/:id/payment/abort
// The body is optional.
func (h *Handler) AbortPayment(c *gin.Context) {
	user, send, ok := caller(c)
	if !ok {
		return
	}

	var req checkoutService.AbortPaymentInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			send(badRequest(err))
			return
		}
	}

	send(h.service.AbortPayment(c.Request.Context(), user, c.Param("id"), &req))
}

// Notifications GET /v1/checkout/sessions/:id/notifications
func (h *Handler) Notifications(c *gin.Context) {
	user, send, ok := caller(c)
	if !ok {
		return
	}

	send(h.service.Notifications(c.Request.Context(), user, c.Param("id")))
}

// History GET /v1/checkout/history?limit=20
func (h *Handler) History(c *gin.Context) {
	user, send, ok := caller(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	send(h.service.History(c.Request.Context(), user, limit))
}
