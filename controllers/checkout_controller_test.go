package controllers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	apperrors "github.com/learnhub/course-checkout/common/errors"
	"github.com/learnhub/course-checkout/controllers"
	"github.com/learnhub/course-checkout/models"
	"github.com/learnhub/course-checkout/providers"
	"github.com/learnhub/course-checkout/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- mock checkout service ----

type mockCheckoutSvc struct {
	result   *services.CheckoutResult
	err      error
	provider string
	meta     providers.RequestMeta
}

func (m *mockCheckoutSvc) Checkout(_ context.Context, _ string, provider string, meta providers.RequestMeta) (*services.CheckoutResult, error) {
	m.provider = provider
	m.meta = meta
	return m.result, m.err
}

func setupCheckoutRouter(svc services.CheckoutService) http.Handler {
	r := newRouter()
	r.POST("/checkout/:provider", withUser(), controllers.NewCheckoutController(svc).Checkout)
	return r
}

func TestCheckoutController_Success(t *testing.T) {
	orderID := uuid.New()
	svc := &mockCheckoutSvc{result: &services.CheckoutResult{
		OrderID:     orderID,
		RedirectURL: "https://test-payment.momo.vn/pay/abc",
		Provider:    models.ProviderMoMo,
	}}

	w := doJSON(setupCheckoutRouter(svc), http.MethodPost, "/checkout/momo", "")
	require.Equal(t, http.StatusCreated, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, orderID.String(), body["order_id"])
	assert.Equal(t, "https://test-payment.momo.vn/pay/abc", body["redirect_url"])
	assert.Equal(t, "momo", body["provider"])
	assert.Equal(t, "momo", svc.provider)
	assert.NotEmpty(t, svc.meta.ClientIP)
}

func TestCheckoutController_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"empty cart", apperrors.ErrEmptyCart, http.StatusBadRequest, `{"code":400,"error":"Cart is empty"}`},
		{"not configured", apperrors.Wrapf(apperrors.ErrProviderNotConfigured, "vnpay"), http.StatusServiceUnavailable, `{"code":503,"error":"Payment provider is not configured"}`},
		{"gateway down", apperrors.ErrGatewayUnavailable, http.StatusBadGateway, `{"code":502,"error":"Payment gateway unavailable"}`},
		{"unknown provider", apperrors.ErrUnsupportedProvider, http.StatusBadRequest, `{"code":400,"error":"Unsupported payment provider"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(setupCheckoutRouter(&mockCheckoutSvc{err: tt.err}), http.MethodPost, "/checkout/vnpay", "")
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}
