package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/learnhub/course-checkout/middleware"
	"github.com/learnhub/course-checkout/providers"
	"github.com/learnhub/course-checkout/services"
)

// CheckoutController starts a gateway payment for the caller's cart.
type CheckoutController struct {
	checkoutService services.CheckoutService
}

func NewCheckoutController(svc services.CheckoutService) *CheckoutController {
	return &CheckoutController{checkoutService: svc}
}

// Checkout handles POST /checkout/:provider
func (cc *CheckoutController) Checkout(c *gin.Context) {
	result, err := cc.checkoutService.Checkout(
		c.Request.Context(),
		middleware.GetUserID(c),
		c.Param("provider"),
		providers.RequestMeta{ClientIP: c.ClientIP()},
	)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
