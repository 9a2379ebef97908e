package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/learnhub/course-checkout/models"
	"gorm.io/gorm"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRepository interface {
	// CreateWithPayment inserts the order, its items and its PENDING payment in one transaction.
	CreateWithPayment(ctx context.Context, order *models.Order, payment *models.Payment) error
	// FindByID returns ErrOrderNotFound when no such order exists.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	// MarkPaid moves the order to PAID unless it already is. It reports
	// whether this call performed the transition.
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error)
	// MarkFailed moves a PENDING order to FAILED, reporting whether it did.
	MarkFailed(ctx context.Context, id uuid.UUID) (bool, error)
}

type gormOrderRepo struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &gormOrderRepo{db: db}
}

func (r *gormOrderRepo) CreateWithPayment(ctx context.Context, order *models.Order, payment *models.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Payments").Create(order).Error; err != nil {
			return err
		}
		payment.OrderID = order.ID
		return tx.Create(payment).Error
	})
}

func (r *gormOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormOrderRepo) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormOrderRepo) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, models.SourcesOf(models.OrderStatusPaid)).
		Updates(map[string]interface{}{
			"status":  models.OrderStatusPaid,
			"paid_at": paidAt,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *gormOrderRepo) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, models.SourcesOf(models.OrderStatusFailed)).
		Update("status", models.OrderStatusFailed)
	return res.RowsAffected == 1, res.Error
}
