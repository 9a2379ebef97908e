package providers

import (
	"context"
	"crypto/hmac"
	"strings"
	"time"

	apperrors "github.com/learnhub/course-checkout/common/errors"
	"github.com/learnhub/course-checkout/config"
	"github.com/learnhub/course-checkout/models"
	"github.com/shopspring/decimal"
)

const vnpayTimeLayout = "20060102150405"

// VNPay timestamps are Vietnam local time, which has no DST.
var vietnamTime = time.FixedZone("ICT", 7*60*60)

// VNPayProvider builds signed VNPay redirect URLs and verifies return redirects.
type VNPayProvider struct {
	cfg       config.VNPayConfig
	returnURL string
	now       func() time.Time
}

func NewVNPayProvider(cfg config.VNPayConfig, publicBaseURL string) *VNPayProvider {
	p := &VNPayProvider{cfg: cfg, now: time.Now}
	if publicBaseURL != "" {
		p.returnURL = publicBaseURL + "/payments/vnpay/return"
	}
	return p
}

func (p *VNPayProvider) Name() models.Provider { return models.ProviderVNPay }

func (p *VNPayProvider) Validate() error {
	problems := p.cfg.Problems()
	if p.returnURL == "" {
		problems = append(problems, "return base URL")
	}
	if len(problems) > 0 {
		return apperrors.Wrapf(apperrors.ErrProviderNotConfigured, "vnpay: invalid %s", strings.Join(problems, ", "))
	}
	return nil
}

func (p *VNPayProvider) BuildPaymentRequest(_ context.Context, order *models.Order, meta RequestMeta) (*PaymentRequest, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	now := p.now().In(vietnamTime)
	ip := meta.ClientIP
	if ip == "" {
		ip = "127.0.0.1"
	}
	params := map[string]string{
		"vnp_Version":    p.cfg.Version,
		"vnp_Command":    "pay",
		"vnp_TmnCode":    p.cfg.TmnCode,
		"vnp_Locale":     p.cfg.Locale,
		"vnp_CurrCode":   order.Currency,
		"vnp_TxnRef":     order.ID.String(),
		"vnp_OrderInfo":  "Thanh toan don hang " + order.ID.String(),
		"vnp_OrderType":  "other",
		"vnp_Amount":     order.TotalAmount.Mul(decimal.NewFromInt(100)).Round(0).String(),
		"vnp_ReturnUrl":  p.returnURL,
		"vnp_IpAddr":     ip,
		"vnp_CreateDate": now.Format(vnpayTimeLayout),
		"vnp_ExpireDate": now.Add(p.cfg.ExpireIn).Format(vnpayTimeLayout),
	}

	query := CanonicalQuery(params)
	signature := SignVNPay(params, p.cfg.HashSecret)
	return &PaymentRequest{
		RedirectURL:      p.cfg.PayURL + "?" + query + "&vnp_SecureHash=" + signature,
		GatewayRequestID: params["vnp_TxnRef"],
	}, nil
}

// VerifyConfirmation checks the query parameters of a return redirect.
// The hash comparison ignores case.
func (p *VNPayProvider) VerifyConfirmation(params map[string]string) (*VerifiedResult, error) {
	if p.cfg.HashSecret == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidSignature, "vnpay: not configured")
	}
	received := params["vnp_SecureHash"]
	if received == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidSignature, "vnpay: no signature")
	}

	signed := withoutKeys(params, "vnp_SecureHash", "vnp_SecureHashType")
	expected := SignVNPay(signed, p.cfg.HashSecret)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(received))) {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidSignature, "vnpay: signature mismatch")
	}

	code := signed["vnp_ResponseCode"]
	status, hasStatus := signed["vnp_TransactionStatus"]
	orderID := signed["vnp_TxnRef"]
	return &VerifiedResult{
		OrderID:       orderID,
		TransactionID: signed["vnp_TransactionNo"],
		Success:       code == "00" && (!hasStatus || status == "00") && orderID != "",
		ResultCode:    code,
		Amount:        signed["vnp_Amount"],
		Raw:           signed,
	}, nil
}
