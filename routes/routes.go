package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/learnhub/course-checkout/controllers"
)

// Controllers groups the handlers served by this service.
type Controllers struct {
	Cart     *controllers.CartController
	Checkout *controllers.CheckoutController
	Order    *controllers.OrderController
	Payment  *controllers.PaymentCallbackController
}

// RegisterRoutes mounts the user-facing routes behind auth and the gateway
// callbacks without it. checkoutLimit guards order creation.
func RegisterRoutes(r *gin.Engine, c Controllers, auth, checkoutLimit gin.HandlerFunc) {
	cart := r.Group("/cart")
	cart.Use(auth)
	cart.GET("", c.Cart.GetCart)
	cart.DELETE("", c.Cart.ClearCart)
	cart.POST("/items", c.Cart.AddItem)
	cart.PUT("/items/:course_id", c.Cart.SetQuantity)
	cart.DELETE("/items/:course_id", c.Cart.RemoveItem)

	r.POST("/checkout/:provider", auth, checkoutLimit, c.Checkout.Checkout)
	r.GET("/orders/:id", auth, c.Order.GetOrder)

	// Signed by the gateway; verified in the handler.
	payments := r.Group("/payments")
	payments.POST("/momo/ipn", c.Payment.MoMoIPN)
	payments.GET("/vnpay/return", c.Payment.VNPayReturn)
}
