package providers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	apperrors "github.com/learnhub/course-checkout/common/errors"
	"github.com/learnhub/course-checkout/config"
	"github.com/learnhub/course-checkout/models"
	"go.uber.org/zap"
)

// MoMoProvider creates MoMo wallet payments and verifies MoMo IPN callbacks.
type MoMoProvider struct {
	cfg         config.MoMoConfig
	ipnURL      string
	redirectURL string
	httpClient  *resty.Client
	logger      *zap.Logger
}

func NewMoMoProvider(cfg config.MoMoConfig, publicBaseURL, frontendURL string, logger *zap.Logger) *MoMoProvider {
	p := &MoMoProvider{
		cfg:        cfg,
		httpClient: resty.New().SetTimeout(cfg.Timeout),
		logger:     logger,
	}
	if publicBaseURL != "" {
		p.ipnURL = publicBaseURL + "/payments/momo/ipn"
	}
	if frontendURL != "" {
		p.redirectURL = frontendURL + "/checkout/result"
	}
	return p
}

// ---- MoMo API request/response structs ----

type momoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	AccessKey   string `json:"accessKey"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IpnURL      string `json:"ipnUrl"`
	ExtraData   string `json:"extraData"`
	RequestType string `json:"requestType"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

type momoCreateResponse struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayURL       string `json:"payUrl"`
	Deeplink     string `json:"deeplink"`
	ResponseTime int64  `json:"responseTime"`
}

func (p *MoMoProvider) Name() models.Provider { return models.ProviderMoMo }

func (p *MoMoProvider) Validate() error {
	problems := p.cfg.Problems()
	if p.ipnURL == "" || p.redirectURL == "" {
		problems = append(problems, "callback base URL")
	}
	if len(problems) > 0 {
		return apperrors.Wrapf(apperrors.ErrProviderNotConfigured, "momo: invalid %s", strings.Join(problems, ", "))
	}
	return nil
}

func (p *MoMoProvider) BuildPaymentRequest(ctx context.Context, order *models.Order, _ RequestMeta) (*PaymentRequest, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	extra, err := json.Marshal(map[string]string{"userId": order.UserID.String()})
	if err != nil {
		return nil, err
	}

	amount := order.TotalAmount.Round(0)
	req := momoCreateRequest{
		PartnerCode: p.cfg.PartnerCode,
		AccessKey:   p.cfg.AccessKey,
		RequestID:   uuid.NewString(),
		Amount:      amount.IntPart(),
		OrderID:     order.ID.String(),
		OrderInfo:   "Thanh toan don hang " + order.ID.String(),
		RedirectURL: p.redirectURL,
		IpnURL:      p.ipnURL,
		ExtraData:   base64.StdEncoding.EncodeToString(extra),
		RequestType: p.cfg.RequestType,
		Lang:        p.cfg.Lang,
	}
	req.Signature = SignMoMo(momoCreateKeys, map[string]string{
		"accessKey":   req.AccessKey,
		"amount":      amount.String(),
		"extraData":   req.ExtraData,
		"ipnUrl":      req.IpnURL,
		"orderId":     req.OrderID,
		"orderInfo":   req.OrderInfo,
		"partnerCode": req.PartnerCode,
		"redirectUrl": req.RedirectURL,
		"requestId":   req.RequestID,
		"requestType": req.RequestType,
	}, p.cfg.SecretKey)

	var result momoCreateResponse
	resp, err := p.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&result).
		Post(p.cfg.Endpoint)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrGatewayUnavailable, "momo create: %v", err)
	}
	if resp.IsError() || result.ResultCode != 0 || result.PayURL == "" {
		p.logger.Warn("MoMo rejected create-payment request",
			zap.String("order_id", req.OrderID),
			zap.Int("http_status", resp.StatusCode()),
			zap.Int("result_code", result.ResultCode),
			zap.String("message", result.Message),
		)
		return nil, apperrors.Wrapf(apperrors.ErrGatewayUnavailable, "momo create: status=%d resultCode=%d", resp.StatusCode(), result.ResultCode)
	}

	return &PaymentRequest{RedirectURL: result.PayURL, GatewayRequestID: req.RequestID}, nil
}

// VerifyConfirmation checks an IPN body flattened to strings. The access
// key is always taken from configuration, never from params.
func (p *MoMoProvider) VerifyConfirmation(params map[string]string) (*VerifiedResult, error) {
	if p.cfg.AccessKey == "" || p.cfg.SecretKey == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidSignature, "momo: not configured")
	}
	received := params["signature"]
	if received == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidSignature, "momo: no signature")
	}

	signed := make(map[string]string, len(momoIPNKeys))
	for _, k := range momoIPNKeys {
		signed[k] = params[k]
	}
	signed["accessKey"] = p.cfg.AccessKey

	expected := SignMoMo(momoIPNKeys, signed, p.cfg.SecretKey)
	if !hmac.Equal([]byte(expected), []byte(received)) {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidSignature, "momo: signature mismatch")
	}

	orderID := params["orderId"]
	return &VerifiedResult{
		OrderID:       orderID,
		TransactionID: params["transId"],
		Success:       params["resultCode"] == "0" && orderID != "",
		ResultCode:    params["resultCode"],
		Amount:        params["amount"],
		Raw:           withoutKeys(params, "signature"),
	}, nil
}

// DecodeMoMoIPN flattens a JSON IPN body into strings. Numbers keep their
// literal JSON text so the canonical string matches what MoMo signed.
func DecodeMoMoIPN(body []byte) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode momo ipn: %w", err)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case bool:
			out[k] = fmt.Sprintf("%t", val)
		default:
			b, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("decode momo ipn field %s: %w", k, err)
			}
			out[k] = string(b)
		}
	}
	return out, nil
}

func withoutKeys(params map[string]string, drop ...string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	for _, k := range drop {
		delete(out, k)
	}
	return out
}
