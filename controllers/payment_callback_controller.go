package controllers

import (
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	apperrors "github.com/learnhub/course-checkout/common/errors"
	"github.com/learnhub/course-checkout/common/logger"
	"github.com/learnhub/course-checkout/metrics"
	"github.com/learnhub/course-checkout/models"
	"github.com/learnhub/course-checkout/providers"
	"github.com/learnhub/course-checkout/services"
	"go.uber.org/zap"
)

const maxIPNBody = 64 << 10

// PaymentCallbackController receives gateway confirmations. Neither route is
// authenticated; every confirmation must pass signature verification before
// anything is written.
type PaymentCallbackController struct {
	registry    *providers.Registry
	fulfillment services.FulfillmentEngine
	metrics     *metrics.Metrics
	frontendURL string
	logger      *zap.Logger
}

func NewPaymentCallbackController(
	registry *providers.Registry,
	fulfillment services.FulfillmentEngine,
	m *metrics.Metrics,
	frontendURL string,
	logger *zap.Logger,
) *PaymentCallbackController {
	return &PaymentCallbackController{
		registry:    registry,
		fulfillment: fulfillment,
		metrics:     m,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// MoMoIPN handles POST /payments/momo/ipn. The acknowledgement depends only
// on verification; fulfillment problems are logged.
func (pc *PaymentCallbackController) MoMoIPN(c *gin.Context) {
	log := logger.FromContext(c, pc.logger).With(zap.String("provider", string(models.ProviderMoMo)))

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIPNBody))
	if err != nil {
		pc.reject(c, log, models.ProviderMoMo, err)
		return
	}
	params, err := providers.DecodeMoMoIPN(body)
	if err != nil {
		pc.reject(c, log, models.ProviderMoMo, err)
		return
	}

	provider, err := pc.registry.Get(string(models.ProviderMoMo))
	if err != nil {
		pc.reject(c, log, models.ProviderMoMo, err)
		return
	}
	result, err := provider.VerifyConfirmation(params)
	if err != nil {
		pc.reject(c, log, models.ProviderMoMo, err)
		return
	}

	ctx := c.Request.Context()
	if result.Success {
		if _, err := pc.fulfillment.Fulfill(ctx, result.OrderID, result.TransactionID, result.Raw); err != nil {
			log.Error("Fulfillment failed after verified IPN", zap.String("order_id", result.OrderID), zap.Error(err))
		}
	} else {
		if err := pc.fulfillment.RecordFailure(ctx, result.OrderID, result.ResultCode, result.Raw); err != nil {
			log.Error("Failed to record payment failure", zap.String("order_id", result.OrderID), zap.Error(err))
		}
	}
	c.Status(http.StatusNoContent)
}

// VNPayReturn handles GET /payments/vnpay/return. The browser is always
// redirected to the frontend once the signature check has run.
func (pc *PaymentCallbackController) VNPayReturn(c *gin.Context) {
	log := logger.FromContext(c, pc.logger).With(zap.String("provider", string(models.ProviderVNPay)))

	params := make(map[string]string)
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	provider, err := pc.registry.Get(string(models.ProviderVNPay))
	if err == nil {
		var result *providers.VerifiedResult
		if result, err = provider.VerifyConfirmation(params); err == nil {
			pc.completeReturn(c, log, result)
			return
		}
	}

	pc.metrics.SignatureRejected(string(models.ProviderVNPay))
	log.Warn("Rejected gateway return", zap.Error(err))
	c.Redirect(http.StatusFound, pc.frontendURL+"/checkout/cancel")
}

func (pc *PaymentCallbackController) completeReturn(c *gin.Context, log *zap.Logger, result *providers.VerifiedResult) {
	if !result.Success {
		log.Info("Gateway return reported failure",
			zap.String("order_id", result.OrderID),
			zap.String("response_code", result.ResultCode),
		)
		q := url.Values{}
		q.Set("orderId", result.OrderID)
		q.Set("code", result.ResultCode)
		c.Redirect(http.StatusFound, pc.frontendURL+"/checkout/cancel?"+q.Encode())
		return
	}

	if _, err := pc.fulfillment.Fulfill(c.Request.Context(), result.OrderID, result.TransactionID, result.Raw); err != nil {
		log.Error("Fulfillment failed after verified return", zap.String("order_id", result.OrderID), zap.Error(err))
	}
	q := url.Values{}
	q.Set("orderId", result.OrderID)
	c.Redirect(http.StatusFound, pc.frontendURL+"/checkout/success?"+q.Encode())
}

// reject answers an unverifiable confirmation without saying why.
func (pc *PaymentCallbackController) reject(c *gin.Context, log *zap.Logger, provider models.Provider, cause error) {
	pc.metrics.SignatureRejected(string(provider))
	log.Warn("Rejected gateway confirmation", zap.Error(cause))
	appErr := apperrors.ErrInvalidSignature
	c.AbortWithStatusJSON(appErr.Code, gin.H{"error": appErr.Message})
}
