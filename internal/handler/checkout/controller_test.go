package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront-checkout/internal/common/enum"
	types "storefront-checkout/internal/common/type"
	"storefront-checkout/internal/pkg/middleware"
	checkoutService "storefront-checkout/internal/service/checkout"
	"storefront-checkout/internal/service/payment"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name  string
	user  int64
	id    string
	input any
}

type fakeService struct {
	calls []call
}

func (f *fakeService) record(name string, user types.UserWithAuth, id string, input any) *types.Response {
	f.calls = append(f.calls, call{name: name, user: user.ID, id: id, input: input})
	return &types.Response{Code: http.StatusOK, Data: gin.H{"op": name}}
}

func (f *fakeService) last() call {
	return f.calls[len(f.calls)-1]
}

func (f *fakeService) OpenSession(_ context.Context, user types.UserWithAuth) *types.Response {
	return f.record("open", user, "", nil)
}

func (f *fakeService) GetSession(_ context.Context, user types.UserWithAuth, id string) *types.Response {
	return f.record("get", user, id, nil)
}

func (f *fakeService) CloseSession(_ context.Context, user types.UserWithAuth, id string) *types.Response {
	return f.record("close", user, id, nil)
}

func (f *fakeService) Reconnect(_ context.Context, user types.UserWithAuth, id string) *types.Response {
	return f.record("reconnect", user, id, nil)
}

func (f *fakeService) Quote(_ context.Context, user types.UserWithAuth, id string, delivery enum.DeliveryTypeEnum) *types.Response {
	return f.record("quote", user, id, delivery)
}

func (f *fakeService) SubmitOrder(_ context.Context, user types.UserWithAuth, id string, input *checkoutService.SubmitOrderInput) *types.Response {
	return f.record("order", user, id, *input)
}

func (f *fakeService) SubmitCard(_ context.Context, user types.UserWithAuth, id string, input *payment.CardInput) *types.Response {
	return f.record("card", user, id, *input)
}

func (f *fakeService) ResendCode(_ context.Context, user types.UserWithAuth, id string) *types.Response {
	return f.record("resend", user, id, nil)
}

func (f *fakeService) ConfirmPayment(_ context.Context, user types.UserWithAuth, id string, input *payment.ConfirmInput) *types.Response {
	return f.record("confirm", user, id, *input)
}

func (f *fakeService) AbortPayment(_ context.Context, user types.UserWithAuth, id string, input *checkoutService.AbortPaymentInput) *types.Response {
	return f.record("abort", user, id, *input)
}

func (f *fakeService) Notifications(_ context.Context, user types.UserWithAuth, id string) *types.Response {
	return f.record("notifications", user, id, nil)
}

func (f *fakeService) History(_ context.Context, user types.UserWithAuth, limit int) *types.Response {
	return f.record("history", user, "", limit)
}

func newRouter(svc checkoutService.IService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.Use(middleware.RequestInit(), middleware.ResponseInit())
	NewHandler(context.Background(), svc).NewRoutes(e.Group("/api"))
	return e
}

func bearer(t *testing.T, userID int64) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("x"))
	require.NoError(t, err)
	return "Bearer " + s
}

func do(t *testing.T, e *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", bearer(t, 7))
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	svc := &fakeService{}
	e := newRouter(svc)

	cases := []struct {
		method, path, body string
		want               call
	}{
		{http.MethodPost, "/api/v1/checkout/sessions", "", call{name: "open", user: 7}},
		{http.MethodGet, "/api/v1/checkout/sessions/s1", "", call{name: "get", user: 7, id: "s1"}},
		{http.MethodDelete, "/api/v1/checkout/sessions/s1", "", call{name: "close", user: 7, id: "s1"}},
		{http.MethodPost, "/api/v1/checkout/sessions/s1/reconnect", "", call{name: "reconnect", user: 7, id: "s1"}},
		{http.MethodGet, "/api/v1/checkout/sessions/s1/quote", "", call{name: "quote", user: 7, id: "s1", input: enum.DELIVERY}},
		{http.MethodGet, "/api/v1/checkout/sessions/s1/quote?delivery_type=1", "", call{name: "quote", user: 7, id: "s1", input: enum.PICKUP}},
		{http.MethodPost, "/api/v1/checkout/sessions/s1/orders", `{"payment_type":2,"delivery_type":1}`,
			call{name: "order", user: 7, id: "s1", input: checkoutService.SubmitOrderInput{PaymentType: enum.CASH, DeliveryType: enum.PICKUP}}},
		{http.MethodPost, "/api/v1/checkout/sessions/s1/payment/card", `{"card_number":"8600123456789012","expiry":"03/27"}`,
			call{name: "card", user: 7, id: "s1", input: payment.CardInput{CardNumber: "8600123456789012", Expiry: "03/27"}}},
		{http.MethodPost, "/api/v1/checkout/sessions/s1/payment/code/resend", "", call{name: "resend", user: 7, id: "s1"}},
		{http.MethodPost, "/api/v1/checkout/sessions/s1/payment/confirm", `{"code":"123456"}`,
			call{name: "confirm", user: 7, id: "s1", input: payment.ConfirmInput{Code: "123456"}}},
		{http.MethodPost, "/api/v1/checkout/sessions/s1/payment/abort", "", call{name: "abort", user: 7, id: "s1", input: checkoutService.AbortPaymentInput{}}},
		{http.MethodPost, "/api/v1/checkout/sessions/s1/payment/abort", `{"reason":"later"}`,
			call{name: "abort", user: 7, id: "s1", input: checkoutService.AbortPaymentInput{Reason: "later"}}},
		{http.MethodGet, "/api/v1/checkout/sessions/s1/notifications", "", call{name: "notifications", user: 7, id: "s1"}},
		{http.MethodGet, "/api/v1/checkout/history?limit=5", "", call{name: "history", user: 7, input: 5}},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := do(t, e, tc.method, tc.path, tc.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tc.want, svc.last())

			var body types.ResponseAPI
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, map[string]any{"op": tc.want.name}, body.Data)
		})
	}
}

func TestBadRequests(t *testing.T) {
	svc := &fakeService{}
	e := newRouter(svc)

	w := do(t, e, http.MethodPost, "/api/v1/checkout/sessions/s1/orders", `{"payment_type":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, e, http.MethodGet, "/api/v1/checkout/sessions/s1/quote?delivery_type=fast", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, svc.calls)
}

func TestRequiresAuth(t *testing.T) {
	svc := &fakeService{}
	e := newRouter(svc)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/checkout/sessions", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, svc.calls)
}
