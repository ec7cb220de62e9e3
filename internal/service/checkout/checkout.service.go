package checkout

import (
	"context"
	"errors"
	"net/http"

	"storefront-checkout/internal/common/enum"
	types "storefront-checkout/internal/common/type"
	"storefront-checkout/internal/pkg/helper"
	"storefront-checkout/internal/pkg/realtime"
	"storefront-checkout/internal/pkg/storeapi"
	"storefront-checkout/internal/pkg/validation"
	"storefront-checkout/internal/service/order"
	"storefront-checkout/internal/service/payment"
	"storefront-checkout/internal/service/pricing"
)

const historyLimit = 20

func (s *Service) OpenSession(ctx context.Context, user types.UserWithAuth) *types.Response {
	session, err := s.registry.Open(ctx, user)
	if err != nil {
		return errorResponse(err)
	}

	return helper.ParseResponse(&types.Response{
		Code:    http.StatusCreated,
		Message: "Checkout session opened",
		Data:    session.View(),
	})
}

func (s *Service) GetSession(_ context.Context, user types.UserWithAuth, id string) *types.Response {
	session, err := s.registry.Get(id, user.ID)
	if err != nil {
		return errorResponse(err)
	}

	return helper.ParseResponse(&types.Response{
		Code: http.StatusOK,
		Data: session.View(),
	})
}

func (s *Service) CloseSession(_ context.Context, user types.UserWithAuth, id string) *types.Response {
	if err := s.registry.Close(id, user.ID); err != nil {
		return errorResponse(err)
	}

	return helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: "Checkout session closed",
	})
}

func (s *Service) Reconnect(ctx context.Context, user types.UserWithAuth, id string) *types.Response {
	session, err := s.registry.Get(id, user.ID)
	if err != nil {
		return errorResponse(err)
	}

	if err := session.Reconnect(ctx); err != nil {
		return errorResponse(err, session.View())
	}

	return helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: "Reconnected",
		Data:    session.View(),
	})
}

func (s *Service) Quote(ctx context.Context, user types.UserWithAuth, id string, delivery enum.DeliveryTypeEnum) *types.Response {
	session, err := s.registry.Get(id, user.ID)
	if err != nil {
		return errorResponse(err)
	}

	quote, err := session.Quote(ctx, delivery)
	if err != nil {
		return errorResponse(err)
	}

	return helper.ParseResponse(&types.Response{
		Code: http.StatusOK,
		Data: quote,
	})
}

func (s *Service) SubmitOrder(ctx context.Context, user types.UserWithAuth, id string, input *SubmitOrderInput) *types.Response {
	session, err := s.registry.Get(id, user.ID)
	if err != nil {
		return errorResponse(err)
	}

	result, err := session.SubmitOrder(ctx, input)
	if err != nil {
		// an online order can exist even though its receipt failed
		if result != nil {
			return errorResponse(err, result)
		}
		return errorResponse(err)
	}

	return helper.ParseResponse(&types.Response{
		Code:    http.StatusCreated,
		Message: "Order created",
		Data:    result,
	})
}

func (s *Service) SubmitCard(ctx context.Context, user types.UserWithAuth, id string, input *payment.CardInput) *types.Response {
	session, err := s.registry.Get(id, user.ID)
	if err != nil {
		return errorResponse(err)
	}

	info, err := session.SubmitCard(ctx, input)
	if err != nil {
		return errorResponse(err, session.View().Payment)
	}

	return helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: "Verification code sent",
		Data:    codeSent(info, session),
	})
}

func (s *Service) ResendCode(ctx context.Context, user types.UserWithAuth, id string) *types.Response {
	session, err := s.registry.Get(id, user.ID)
	if err != nil {
		return errorResponse(err)
	}

	info, err := session.ResendCode(ctx)
	if err != nil {
		return errorResponse(err, session.View().Payment)
	}

	return helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: "Verification code sent",
		Data:    codeSent(info, session),
	})
}

func (s *Service) ConfirmPayment(ctx context.Context, user types.UserWithAuth, id string, input *payment.ConfirmInput) *types.Response {
	session, err := s.registry.Get(id, user.ID)
	if err != nil {
		return errorResponse(err)
	}

	if err := session.ConfirmPayment(ctx, input); err != nil {
		return errorResponse(err, session.View().Payment)
	}

	return helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: "Payment completed",
		Data:    session.View(),
	})
}

func (s *Service) AbortPayment(_ context.Context, user types.UserWithAuth, id string, input *AbortPaymentInput) *types.Response {
	if err := validation.Validate(input); err != nil {
		return errorResponse(err)
	}

	session, err := s.registry.Get(id, user.ID)
	if err != nil {
		return errorResponse(err)
	}

	if err := session.AbortPayment(input.Reason); err != nil {
		return errorResponse(err)
	}

	return helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: "Payment cancelled",
		Data:    session.View(),
	})
}

func (s *Service) Notifications(_ context.Context, user types.UserWithAuth, id string) *types.Response {
	session, err := s.registry.Get(id, user.ID)
	if err != nil {
		return errorResponse(err)
	}

	return helper.ParseResponse(&types.Response{
		Code: http.StatusOK,
		Data: session.Notifications(),
	})
}

// History lists the caller's recorded checkout attempts, newest first.
func (s *Service) History(ctx context.Context, user types.UserWithAuth, limit int) *types.Response {
	if limit <= 0 || limit > 100 {
		limit = historyLimit
	}

	attempts, err := s.rp.Checkout.FindByUser(ctx, user.ID, limit)
	if err != nil {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusInternalServerError,
			Message: "Failed to load checkout history",
			Error:   err,
		})
	}

	return helper.ParseResponse(&types.Response{
		Code: http.StatusOK,
		Data: attempts,
		Meta: map[string]any{"limit": limit, "count": len(attempts)},
	})
}

type CodeSent struct {
	Phone       string        `json:"phone"`
	WaitSeconds int64         `json:"wait_seconds"`
	Payment     *payment.View `json:"payment,omitempty"`
}

func codeSent(info *types.VerifyCodeInfo, session *Session) CodeSent {
	return CodeSent{
		Phone:       helper.MaskPhone(info.Phone),
		WaitSeconds: int64(info.Wait.Seconds()),
		Payment:     session.View().Payment,
	}
}

// errorResponse maps checkout errors to HTTP responses. The optional data is
// the state the user should see next to the error.
func errorResponse(err error, data ...any) *types.Response {
	r := &types.Response{
		Code:    http.StatusInternalServerError,
		Message: err.Error(),
		Error:   err,
	}
	if len(data) > 0 {
		r.Data = data[0]
	}

	var extErr *payment.ExternalServiceError
	var apiErr *storeapi.APIError

	switch {
	case errors.Is(err, validation.ErrInvalid), errors.Is(err, pricing.ErrInvalidInput), errors.Is(err, ErrEmptyCart):
		r.Code = http.StatusUnprocessableEntity
	case errors.Is(err, realtime.ErrNotConnected), errors.Is(err, realtime.ErrNoEndpoint):
		r.Code = http.StatusServiceUnavailable
		r.Message = "Not connected to the server"
		r.Meta = map[string]any{"reconnect": true}
	case errors.Is(err, ErrWorkerUnavailable):
		r.Code = http.StatusServiceUnavailable
	case errors.Is(err, order.ErrSubmissionInFlight), errors.Is(err, ErrAlreadyProcessing),
		errors.Is(err, payment.ErrStepInProgress), errors.Is(err, payment.ErrIllegalTransition),
		errors.Is(err, ErrNoPayment):
		r.Code = http.StatusConflict
	case errors.Is(err, payment.ErrResendTooSoon):
		r.Code = http.StatusTooManyRequests
	case errors.As(err, &extErr):
		r.Code = http.StatusBadGateway
		r.Meta = map[string]any{"step": extErr.Step}
		if storeapi.IsUnauthorized(err) {
			r.Code = http.StatusUnauthorized
		}
	case errors.Is(err, order.ErrConnectionLost), errors.Is(err, order.ErrCorrelationTimeout):
		r.Code = http.StatusGatewayTimeout
		r.Message = "Order outcome unknown, check your order history before retrying"
		r.Meta = map[string]any{"check_order_history": true}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		r.Code = http.StatusGatewayTimeout
	case errors.Is(err, ErrSessionNotFound):
		r.Code = http.StatusNotFound
	case errors.Is(err, ErrSessionClosed):
		r.Code = http.StatusGone
	case errors.Is(err, ErrCredentialExpired), storeapi.IsUnauthorized(err):
		r.Code = http.StatusUnauthorized
	case errors.As(err, &apiErr):
		r.Code = http.StatusBadGateway
	}

	return helper.ParseResponse(r)
}
