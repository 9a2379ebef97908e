package providers

import (
	"context"
	"strings"

	apperrors "github.com/learnhub/course-checkout/common/errors"
	"github.com/learnhub/course-checkout/models"
)

// RequestMeta carries request-scoped data some gateways need when creating a payment.
type RequestMeta struct {
	ClientIP string
}

// PaymentRequest is what the client needs to continue at the gateway.
type PaymentRequest struct {
	RedirectURL      string
	GatewayRequestID string
}

// VerifiedResult is a confirmation whose signature has been checked.
type VerifiedResult struct {
	OrderID       string
	TransactionID string
	Success       bool
	ResultCode    string
	Amount        string
	Raw           map[string]string
}

// Provider is one payment gateway. Implementations hold their own
// configuration and never read the environment.
type Provider interface {
	Name() models.Provider
	// Validate reports ErrProviderNotConfigured when required settings are missing.
	Validate() error
	BuildPaymentRequest(ctx context.Context, order *models.Order, meta RequestMeta) (*PaymentRequest, error)
	// VerifyConfirmation returns ErrInvalidSignature for any confirmation it
	// cannot authenticate, whatever the cause.
	VerifyConfirmation(params map[string]string) (*VerifiedResult, error)
}

// Registry resolves providers by name.
type Registry struct {
	providers map[models.Provider]Provider
}

func NewRegistry(ps ...Provider) *Registry {
	r := &Registry{providers: make(map[models.Provider]Provider, len(ps))}
	for _, p := range ps {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[models.Provider(strings.ToLower(name))]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrUnsupportedProvider, "provider %q", name)
	}
	return p, nil
}
