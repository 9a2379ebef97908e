package services

import (
	"context"

	"github.com/google/uuid"
	apperrors "github.com/learnhub/course-checkout/common/errors"
	"github.com/learnhub/course-checkout/models"
	"github.com/learnhub/course-checkout/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartSnapshot is the priced, immutable view of a cart at checkout time.
type CartSnapshot struct {
	Items    []models.OrderItem
	Total    decimal.Decimal
	Currency string
}

// CartSnapshotBuilder prices a user's cart against live course data. It has
// no side effects.
type CartSnapshotBuilder struct {
	carts    repository.CartRepository
	courses  repository.CourseRepository
	currency string
	logger   *zap.Logger
}

func NewCartSnapshotBuilder(carts repository.CartRepository, courses repository.CourseRepository, currency string, logger *zap.Logger) *CartSnapshotBuilder {
	return &CartSnapshotBuilder{carts: carts, courses: courses, currency: currency, logger: logger}
}

// Build returns ErrEmptyCart when the cart is missing or none of its
// courses can still be bought. Unresolvable courses are skipped.
func (b *CartSnapshotBuilder) Build(ctx context.Context, userID string) (*CartSnapshot, error) {
	cart, err := b.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, apperrors.ErrEmptyCart
	}

	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.CourseID)
	}
	courses, err := b.courses.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabaseQuery, err)
	}

	snap := &CartSnapshot{Total: decimal.Zero, Currency: b.currency}
	for _, item := range cart.Items {
		course, ok := courses[item.CourseID]
		if !ok || item.Quantity < 1 {
			b.logger.Warn("Skipping unpurchasable cart item",
				zap.String("user_id", userID),
				zap.String("course_id", item.CourseID.String()),
			)
			continue
		}
		line := models.OrderItem{
			CourseID:  course.ID,
			Title:     course.Title,
			UnitPrice: course.EffectivePrice(),
			Quantity:  item.Quantity,
		}
		snap.Items = append(snap.Items, line)
		snap.Total = snap.Total.Add(line.LineTotal())
	}

	if len(snap.Items) == 0 {
		return nil, apperrors.ErrEmptyCart
	}
	return snap, nil
}
