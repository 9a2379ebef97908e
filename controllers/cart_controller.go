package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/learnhub/course-checkout/common/errors"
	"github.com/learnhub/course-checkout/middleware"
	"github.com/learnhub/course-checkout/models"
	"github.com/learnhub/course-checkout/services"
)

// CartController handles HTTP requests for the caller's cart.
type CartController struct {
	cartService services.CartService
}

func NewCartController(svc services.CartService) *CartController {
	return &CartController{cartService: svc}
}

// GetCart handles GET /cart
func (cc *CartController) GetCart(c *gin.Context) {
	cart, err := cc.cartService.GetCart(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddItem handles POST /cart/items
func (cc *CartController) AddItem(c *gin.Context) {
	var item models.CartItem
	if err := c.ShouldBindJSON(&item); err != nil {
		_ = c.Error(apperrors.Wrap(apperrors.ErrValidation, err))
		return
	}

	cart, err := cc.cartService.AddItem(c.Request.Context(), middleware.GetUserID(c), item.CourseID, item.Quantity)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// SetQuantity handles PUT /cart/items/:course_id
func (cc *CartController) SetQuantity(c *gin.Context) {
	courseID, ok := courseParam(c)
	if !ok {
		return
	}
	var req models.SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Wrap(apperrors.ErrValidation, err))
		return
	}

	cart, err := cc.cartService.SetQuantity(c.Request.Context(), middleware.GetUserID(c), courseID, req.Quantity)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveItem handles DELETE /cart/items/:course_id
func (cc *CartController) RemoveItem(c *gin.Context) {
	courseID, ok := courseParam(c)
	if !ok {
		return
	}
	cart, err := cc.cartService.RemoveItem(c.Request.Context(), middleware.GetUserID(c), courseID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// ClearCart handles DELETE /cart
func (cc *CartController) ClearCart(c *gin.Context) {
	if err := cc.cartService.ClearCart(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func courseParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		_ = c.Error(apperrors.Wrapf(apperrors.ErrInvalidInput, "course_id %q", c.Param("course_id")))
		return uuid.Nil, false
	}
	return id, true
}
