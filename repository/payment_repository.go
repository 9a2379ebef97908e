package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/learnhub/course-checkout/models"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	// Complete marks the order's not-yet-completed payment COMPLETED and
	// records the gateway transaction. It returns the number of rows changed.
	Complete(ctx context.Context, orderID uuid.UUID, transactionID, rawPayload string, at time.Time) (int64, error)
	// Fail marks the order's PENDING payment FAILED.
	Fail(ctx context.Context, orderID uuid.UUID, rawPayload string, at time.Time) (int64, error)
	SetGatewayRequestID(ctx context.Context, paymentID uuid.UUID, requestID string) error
}

type gormPaymentRepo struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) PaymentRepository {
	return &gormPaymentRepo{db: db}
}

func (r *gormPaymentRepo) Complete(ctx context.Context, orderID uuid.UUID, transactionID, rawPayload string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ? AND status <> ?", orderID, models.PaymentStatusCompleted).
		Updates(map[string]interface{}{
			"status":               models.PaymentStatusCompleted,
			"transaction_id":       transactionID,
			"confirmation_payload": rawPayload,
			"completed_at":         at,
		})
	return res.RowsAffected, res.Error
}

func (r *gormPaymentRepo) Fail(ctx context.Context, orderID uuid.UUID, rawPayload string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ? AND status = ?", orderID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":               models.PaymentStatusFailed,
			"confirmation_payload": rawPayload,
			"failed_at":            at,
		})
	return res.RowsAffected, res.Error
}

func (r *gormPaymentRepo) SetGatewayRequestID(ctx context.Context, paymentID uuid.UUID, requestID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Update("gateway_request_id", requestID).Error
}
