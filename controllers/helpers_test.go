package controllers_test

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/learnhub/course-checkout/common/errors"
	"github.com/learnhub/course-checkout/middleware"
	"github.com/learnhub/course-checkout/metrics"
	"github.com/learnhub/course-checkout/services"
)

var testUserID = uuid.MustParse("5a1e0c7b-9d2f-4e3a-8b6c-1f0e2d3c4b5a")

// newRouter returns an engine that resolves the caller from X-User-ID and
// renders errors the way the service does.
func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	return r
}

func withUser() gin.HandlerFunc { return middleware.AuthMiddleware(nil) }

// ---- mock fulfillment engine ----

type fulfillCall struct {
	OrderID       string
	TransactionID string
	ResultCode    string
	Raw           map[string]string
}

type mockFulfillment struct {
	mu       sync.Mutex
	fulfills []fulfillCall
	failures []fulfillCall
	err      error
}

func (m *mockFulfillment) Fulfill(_ context.Context, orderID, transactionID string, raw map[string]string) (*services.FulfillmentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fulfills = append(m.fulfills, fulfillCall{OrderID: orderID, TransactionID: transactionID, Raw: raw})
	if m.err != nil {
		return nil, m.err
	}
	return &services.FulfillmentResult{Outcome: metrics.OutcomeFulfilled}, nil
}

func (m *mockFulfillment) RecordFailure(_ context.Context, orderID, resultCode string, raw map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, fulfillCall{OrderID: orderID, ResultCode: resultCode, Raw: raw})
	return m.err
}
