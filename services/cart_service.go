package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/learnhub/course-checkout/common/errors"
	"github.com/learnhub/course-checkout/models"
	"github.com/learnhub/course-checkout/repository"
	"go.uber.org/zap"
)

var errItemNotInCart = errors.New("item not in cart")

// CartService manages a user's cart.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	AddItem(ctx context.Context, userID string, courseID uuid.UUID, quantity int) (*models.Cart, error)
	// SetQuantity replaces an item's quantity; zero removes it.
	SetQuantity(ctx context.Context, userID string, courseID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID string, courseID uuid.UUID) (*models.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

type cartServiceImpl struct {
	carts   repository.CartRepository
	courses repository.CourseRepository
	logger  *zap.Logger
}

func NewCartService(carts repository.CartRepository, courses repository.CourseRepository, logger *zap.Logger) CartService {
	return &cartServiceImpl{carts: carts, courses: courses, logger: logger}
}

func (s *cartServiceImpl) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if cart == nil {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	return cart, nil
}

func (s *cartServiceImpl) AddItem(ctx context.Context, userID string, courseID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "quantity must be at least 1")
	}

	found, err := s.courses.FindByIDs(ctx, []uuid.UUID{courseID})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabaseQuery, err)
	}
	if _, ok := found[courseID]; !ok {
		return nil, apperrors.Wrapf(apperrors.ErrCourseUnavailable, "course %s", courseID)
	}

	return s.update(ctx, userID, func(cart *models.Cart) error {
		for i := range cart.Items {
			if cart.Items[i].CourseID == courseID {
				cart.Items[i].Quantity += quantity
				return nil
			}
		}
		cart.Items = append(cart.Items, models.CartItem{
			CourseID: courseID,
			Quantity: quantity,
			AddedAt:  time.Now().UTC(),
		})
		return nil
	})
}

func (s *cartServiceImpl) SetQuantity(ctx context.Context, userID string, courseID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "quantity must not be negative")
	}
	return s.update(ctx, userID, func(cart *models.Cart) error {
		for i := range cart.Items {
			if cart.Items[i].CourseID != courseID {
				continue
			}
			if quantity == 0 {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			} else {
				cart.Items[i].Quantity = quantity
			}
			return nil
		}
		return errItemNotInCart
	})
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID string, courseID uuid.UUID) (*models.Cart, error) {
	return s.SetQuantity(ctx, userID, courseID, 0)
}

func (s *cartServiceImpl) ClearCart(ctx context.Context, userID string) error {
	if err := s.carts.DeleteCart(ctx, userID); err != nil {
		s.logger.Error("Failed to clear cart", zap.String("user_id", userID), zap.Error(err))
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *cartServiceImpl) update(ctx context.Context, userID string, fn func(*models.Cart) error) (*models.Cart, error) {
	cart, err := s.carts.UpdateCart(ctx, userID, fn)
	switch {
	case err == nil:
		if cart.Items == nil {
			cart.Items = []models.CartItem{}
		}
		return cart, nil
	case errors.Is(err, errItemNotInCart):
		return nil, apperrors.Wrap(apperrors.ErrNotFound, err)
	case errors.Is(err, repository.ErrCartContention):
		return nil, apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	default:
		s.logger.Error("Failed to update cart", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}
