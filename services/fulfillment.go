package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/learnhub/course-checkout/events"
	"github.com/learnhub/course-checkout/metrics"
	"github.com/learnhub/course-checkout/models"
	"github.com/learnhub/course-checkout/repository"
	"go.uber.org/zap"
)

// EnrollmentResult records the grant attempt for one order line.
type EnrollmentResult struct {
	CourseID uuid.UUID
	OK       bool
	Created  bool // false when the user already had the course
	Err      error
}

// FulfillmentResult describes what one Fulfill call did.
type FulfillmentResult struct {
	OrderID     uuid.UUID
	Outcome     string // one of the metrics.Outcome* values
	PaymentErr  error
	Enrollments []EnrollmentResult
	CartErr     error
}

// Applied reports whether this call moved the order to PAID.
func (r *FulfillmentResult) Applied() bool {
	return r.Outcome == metrics.OutcomeFulfilled
}

// FulfillmentEngine applies verified gateway confirmations.
type FulfillmentEngine interface {
	// Fulfill marks the order PAID, completes its payment, grants
	// enrollments and clears the cart. Repeated or concurrent calls for the
	// same order grant each course at most once.
	Fulfill(ctx context.Context, orderID, transactionID string, raw map[string]string) (*FulfillmentResult, error)
	// RecordFailure marks a still-PENDING order and its payment FAILED.
	RecordFailure(ctx context.Context, orderID, resultCode string, raw map[string]string) error
}

type fulfillmentEngineImpl struct {
	orders      repository.OrderRepository
	payments    repository.PaymentRepository
	enrollments repository.EnrollmentRepository
	carts       repository.CartRepository
	publisher   events.Publisher
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

func NewFulfillmentEngine(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	enrollments repository.EnrollmentRepository,
	carts repository.CartRepository,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) FulfillmentEngine {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &fulfillmentEngineImpl{
		orders:      orders,
		payments:    payments,
		enrollments: enrollments,
		carts:       carts,
		publisher:   publisher,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

func (f *fulfillmentEngineImpl) Fulfill(ctx context.Context, orderID, transactionID string, raw map[string]string) (*FulfillmentResult, error) {
	// Once MarkPaid succeeds a redelivery stops at the gate, so the remaining
	// steps must not be cut short by the caller hanging up.
	ctx = context.WithoutCancel(ctx)
	log := f.logger.With(zap.String("order_id", orderID), zap.String("transaction_id", transactionID))

	order, outcome, err := f.load(ctx, orderID)
	if err != nil || order == nil {
		return f.finish(&FulfillmentResult{Outcome: outcome}), err
	}
	result := &FulfillmentResult{OrderID: order.ID}

	if !order.Status.CanTransitionTo(models.OrderStatusPaid) {
		log.Info("Order already paid, skipping fulfillment", zap.String("status", string(order.Status)))
		result.Outcome = metrics.OutcomeAlreadyPaid
		return f.finish(result), nil
	}
	if order.Status != models.OrderStatusPending {
		log.Warn("Gateway success for non-pending order", zap.String("status", string(order.Status)))
	}

	// The conditional write is the single-writer gate: only one concurrent
	// caller sees the row change.
	now := f.now().UTC()
	won, err := f.orders.MarkPaid(ctx, order.ID, now)
	if err != nil {
		log.Error("Failed to mark order paid", zap.Error(err))
		return f.finish(result), err
	}
	if !won {
		log.Info("Order paid by a concurrent confirmation")
		result.Outcome = metrics.OutcomeLostRace
		return f.finish(result), nil
	}
	result.Outcome = metrics.OutcomeFulfilled

	// From here on nothing is rolled back; partial states are logged for reconciliation.
	n, err := f.payments.Complete(ctx, order.ID, transactionID, encodeRaw(raw), now)
	switch {
	case err != nil:
		result.PaymentErr = err
		log.Error("Order PAID but payment not completed", zap.Error(err))
	case n == 0:
		log.Warn("No open payment found for paid order")
	}

	result.Enrollments = f.grant(ctx, order, log)

	if err := f.carts.DeleteCart(ctx, order.UserID.String()); err != nil {
		result.CartErr = err
		log.Warn("Failed to clear cart after payment", zap.Error(err))
	}

	courseIDs := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		courseIDs = append(courseIDs, item.CourseID.String())
	}
	f.publish(ctx, log, models.PaymentEvent{
		Type:          models.EventOrderPaid,
		OrderID:       order.ID.String(),
		UserID:        order.UserID.String(),
		Provider:      string(order.Provider),
		TransactionID: transactionID,
		Amount:        order.TotalAmount.String(),
		Currency:      order.Currency,
		CourseIDs:     courseIDs,
		Timestamp:     now,
	})

	log.Info("Order fulfilled", zap.Int("courses", len(result.Enrollments)))
	return f.finish(result), nil
}

// grant creates-if-absent one enrollment per line item. A failure is
// recorded and the remaining items are still processed.
func (f *fulfillmentEngineImpl) grant(ctx context.Context, order *models.Order, log *zap.Logger) []EnrollmentResult {
	results := make([]EnrollmentResult, 0, len(order.Items))
	for _, item := range order.Items {
		created, err := f.enrollments.CreateIfAbsent(ctx, &models.Enrollment{
			UserID:   order.UserID,
			CourseID: item.CourseID,
			OrderID:  order.ID,
		})
		if err != nil {
			f.metrics.EnrollmentFailed()
			log.Error("Failed to grant enrollment", zap.String("course_id", item.CourseID.String()), zap.Error(err))
		}
		results = append(results, EnrollmentResult{
			CourseID: item.CourseID,
			OK:       err == nil,
			Created:  created,
			Err:      err,
		})
	}
	return results
}

func (f *fulfillmentEngineImpl) RecordFailure(ctx context.Context, orderID, resultCode string, raw map[string]string) error {
	ctx = context.WithoutCancel(ctx)
	log := f.logger.With(zap.String("order_id", orderID), zap.String("result_code", resultCode))

	order, _, err := f.load(ctx, orderID)
	if err != nil || order == nil {
		return err
	}
	if !order.Status.CanTransitionTo(models.OrderStatusFailed) {
		log.Info("Ignoring failure result for non-pending order", zap.String("status", string(order.Status)))
		return nil
	}

	changed, err := f.orders.MarkFailed(ctx, order.ID)
	if err != nil {
		log.Error("Failed to mark order failed", zap.Error(err))
		return err
	}
	if !changed {
		log.Info("Order left PENDING before the failure was recorded")
		return nil
	}

	now := f.now().UTC()
	if _, err := f.payments.Fail(ctx, order.ID, encodeRaw(raw), now); err != nil {
		log.Error("Order FAILED but payment not updated", zap.Error(err))
	}
	f.metrics.Fulfillment(metrics.OutcomeFailed)

	f.publish(ctx, log, models.PaymentEvent{
		Type:      models.EventPaymentFailed,
		OrderID:   order.ID.String(),
		UserID:    order.UserID.String(),
		Provider:  string(order.Provider),
		Amount:    order.TotalAmount.String(),
		Currency:  order.Currency,
		Timestamp: now,
	})
	log.Info("Payment failed at gateway")
	return nil
}

// load returns nil with OutcomeNotFound when the id does not name an order.
func (f *fulfillmentEngineImpl) load(ctx context.Context, orderID string) (*models.Order, string, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		f.logger.Warn("Confirmation references malformed order id", zap.String("order_id", orderID))
		return nil, metrics.OutcomeNotFound, nil
	}
	order, err := f.orders.FindByID(ctx, id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		f.logger.Warn("Confirmation references unknown order", zap.String("order_id", orderID))
		return nil, metrics.OutcomeNotFound, nil
	}
	if err != nil {
		f.logger.Error("Failed to load order", zap.String("order_id", orderID), zap.Error(err))
		return nil, "", err
	}
	return order, "", nil
}

func (f *fulfillmentEngineImpl) finish(r *FulfillmentResult) *FulfillmentResult {
	if r.Outcome != "" {
		f.metrics.Fulfillment(r.Outcome)
	}
	return r
}

// publish is best-effort.
func (f *fulfillmentEngineImpl) publish(ctx context.Context, log *zap.Logger, event models.PaymentEvent) {
	if err := f.publisher.Publish(ctx, event); err != nil {
		log.Error("Failed to publish payment event", zap.String("type", event.Type), zap.Error(err))
	}
}

func encodeRaw(raw map[string]string) string {
	if raw == nil {
		return "{}"
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return "{}"
	}
	return string(b)
}
