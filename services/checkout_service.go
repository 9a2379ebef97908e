package services

import (
	"context"

	"github.com/google/uuid"
	apperrors "github.com/learnhub/course-checkout/common/errors"
	"github.com/learnhub/course-checkout/metrics"
	"github.com/learnhub/course-checkout/models"
	"github.com/learnhub/course-checkout/providers"
	"github.com/learnhub/course-checkout/repository"
	"go.uber.org/zap"
)

type CheckoutResult struct {
	OrderID     uuid.UUID       `json:"order_id"`
	RedirectURL string          `json:"redirect_url"`
	Provider    models.Provider `json:"provider"`
}

// CheckoutService turns a cart into a PENDING order and a gateway redirect.
type CheckoutService interface {
	Checkout(ctx context.Context, userID, provider string, meta providers.RequestMeta) (*CheckoutResult, error)
}

type checkoutServiceImpl struct {
	registry  *providers.Registry
	snapshots *CartSnapshotBuilder
	orders    repository.OrderRepository
	payments  repository.PaymentRepository
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewCheckoutService(
	registry *providers.Registry,
	snapshots *CartSnapshotBuilder,
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		registry:  registry,
		snapshots: snapshots,
		orders:    orders,
		payments:  payments,
		metrics:   m,
		logger:    logger,
	}
}

// Checkout validates the provider before anything is written, so a
// misconfigured gateway never leaves an order behind. A gateway failure after
// the order exists leaves it PENDING; retrying creates a new order.
func (s *checkoutServiceImpl) Checkout(ctx context.Context, userID, providerName string, meta providers.RequestMeta) (*CheckoutResult, error) {
	provider, err := s.registry.Get(providerName)
	if err != nil {
		return nil, err
	}
	if err := provider.Validate(); err != nil {
		s.logger.Error("Payment provider not configured", zap.String("provider", providerName), zap.Error(err))
		return nil, err
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "user id %q", userID)
	}

	snap, err := s.snapshots.Build(ctx, userID)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:          uuid.New(),
		UserID:      uid,
		Provider:    provider.Name(),
		Status:      models.OrderStatusPending,
		TotalAmount: snap.Total,
		Currency:    snap.Currency,
		Items:       snap.Items,
	}
	payment := &models.Payment{
		UserID:   uid,
		Provider: provider.Name(),
		Amount:   order.TotalAmount,
		Currency: order.Currency,
		Status:   models.PaymentStatusPending,
	}
	if err := s.orders.CreateWithPayment(ctx, order, payment); err != nil {
		s.logger.Error("Failed to create order", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.ErrDatabaseTransaction, err)
	}
	s.metrics.OrderCreated(string(provider.Name()))

	log := s.logger.With(
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID),
		zap.String("provider", string(provider.Name())),
	)
	log.Info("Order created", zap.String("total", order.TotalAmount.String()), zap.Int("items", len(order.Items)))

	req, err := provider.BuildPaymentRequest(ctx, order, meta)
	if err != nil {
		log.Error("Failed to create gateway payment", zap.Error(err))
		return nil, err
	}

	if req.GatewayRequestID != "" {
		if err := s.payments.SetGatewayRequestID(ctx, payment.ID, req.GatewayRequestID); err != nil {
			log.Warn("Failed to record gateway request id", zap.Error(err))
		}
	}

	return &CheckoutResult{
		OrderID:     order.ID,
		RedirectURL: req.RedirectURL,
		Provider:    provider.Name(),
	}, nil
}
