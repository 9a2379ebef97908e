package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/learnhub/course-checkout/common/errors"
	"github.com/learnhub/course-checkout/middleware"
	"github.com/learnhub/course-checkout/repository"
	"go.uber.org/zap"
)

type OrderController struct {
	orders repository.OrderRepository
	logger *zap.Logger
}

func NewOrderController(orders repository.OrderRepository, logger *zap.Logger) *OrderController {
	return &OrderController{orders: orders, logger: logger}
}

// GetOrder handles GET /orders/:id. Orders belonging to other users are reported as not found.
func (oc *OrderController) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.Wrapf(apperrors.ErrInvalidInput, "order id %q", c.Param("id")))
		return
	}
	userID, err := uuid.Parse(middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(apperrors.ErrUnauthorized)
		return
	}

	order, err := oc.orders.FindByIDForUser(c.Request.Context(), orderID, userID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		_ = c.Error(apperrors.Wrap(apperrors.ErrNotFound, err))
		return
	}
	if err != nil {
		oc.logger.Error("Failed to load order", zap.String("order_id", orderID.String()), zap.Error(err))
		_ = c.Error(apperrors.Wrap(apperrors.ErrDatabaseQuery, err))
		return
	}
	c.JSON(http.StatusOK, order)
}
