package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/learnhub/course-checkout/controllers"
	"github.com/learnhub/course-checkout/middleware"
	"github.com/learnhub/course-checkout/providers"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, Controllers{
		Cart:     controllers.NewCartController(nil),
		Checkout: controllers.NewCheckoutController(nil),
		Order:    controllers.NewOrderController(nil, zap.NewNop()),
		Payment:  controllers.NewPaymentCallbackController(providers.NewRegistry(), nil, nil, "https://shop.example.com", zap.NewNop()),
	}, middleware.AuthMiddleware(nil), func(c *gin.Context) { c.Next() })
	return r
}

func TestRegisterRoutes(t *testing.T) {
	want := map[string]bool{
		"GET /cart":                     true,
		"DELETE /cart":                  true,
		"POST /cart/items":              true,
		"PUT /cart/items/:course_id":    true,
		"DELETE /cart/items/:course_id": true,
		"POST /checkout/:provider":      true,
		"GET /orders/:id":               true,
		"POST /payments/momo/ipn":       true,
		"GET /payments/vnpay/return":    true,
	}

	got := map[string]bool{}
	for _, ri := range newTestEngine().Routes() {
		got[ri.Method+" "+ri.Path] = true
	}
	assert.Equal(t, want, got)
}

func TestUserRoutesRequireAuth(t *testing.T) {
	r := newTestEngine()
	for _, path := range []string{"/cart", "/orders/7d3f2a9e-1b4c-4e8a-9f00-2c5d6e7f8a90"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/checkout/momo", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCallbacksAreNotBehindAuth(t *testing.T) {
	r := newTestEngine()

	// No providers are registered, so the return is rejected, but by the
	// handler rather than by auth.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payments/vnpay/return?vnp_TxnRef=x", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://shop.example.com/checkout/cancel", w.Header().Get("Location"))
}
