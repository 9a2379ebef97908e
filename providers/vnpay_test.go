package providers

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	apperrors "github.com/learnhub/course-checkout/common/errors"
	"github.com/learnhub/course-checkout/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	vnpayReturnSignature  = "911dd8d0a62a924bad50a1c06d8cf82e86a2670b2a64a5cdfc58cdcd41db8b251f664560b526685db76ff80fb012cc8cc60f8db920f63880a33df4e7f2f939af"
	vnpayFailureSignature = "5b42e5016a6d4dd24dd26865b383f249e978d091aa031732a41151b6356ad581ebcfbc08b3d0b2ddb3793e164bc7088010d858b21a845b4e2fab60fb2ed6ccd4"
)

func testVNPayConfig() config.VNPayConfig {
	return config.VNPayConfig{
		TmnCode:    "2QXUI4J4",
		HashSecret: testVNPaySecret,
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		Version:    "2.1.0",
		Locale:     "vn",
		ExpireIn:   15 * time.Minute,
	}
}

func vnpayReturnParams() map[string]string {
	return map[string]string{
		"vnp_Amount":            "35000000",
		"vnp_BankCode":          "NCB",
		"vnp_BankTranNo":        "VNP14226112",
		"vnp_CardType":          "ATM",
		"vnp_OrderInfo":         testOrderInfo,
		"vnp_PayDate":           "20240115103512",
		"vnp_ResponseCode":      "00",
		"vnp_TmnCode":           "2QXUI4J4",
		"vnp_TransactionNo":     "14226112",
		"vnp_TransactionStatus": "00",
		"vnp_TxnRef":            testOrderID,
		"vnp_SecureHashType":    "HmacSHA512",
		"vnp_SecureHash":        vnpayReturnSignature,
	}
}

func TestVNPayVerify_GoldenReturn(t *testing.T) {
	p := NewVNPayProvider(testVNPayConfig(), "https://api.example.com")

	res, err := p.VerifyConfirmation(vnpayReturnParams())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, testOrderID, res.OrderID)
	assert.Equal(t, "14226112", res.TransactionID)
	assert.NotContains(t, res.Raw, "vnp_SecureHash")
	assert.NotContains(t, res.Raw, "vnp_SecureHashType")
}

func TestVNPayVerify_CaseInsensitiveHash(t *testing.T) {
	params := vnpayReturnParams()
	params["vnp_SecureHash"] = strings.ToUpper(vnpayReturnSignature)

	_, err := NewVNPayProvider(testVNPayConfig(), "https://api.example.com").VerifyConfirmation(params)
	assert.NoError(t, err)
}

func TestVNPayVerify_ValidSignatureNonSuccessCode(t *testing.T) {
	params := vnpayReturnParams()
	params["vnp_ResponseCode"] = "24"
	params["vnp_TransactionStatus"] = "02"
	params["vnp_SecureHash"] = vnpayFailureSignature

	res, err := NewVNPayProvider(testVNPayConfig(), "https://api.example.com").VerifyConfirmation(params)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "24", res.ResultCode)
	assert.Equal(t, testOrderID, res.OrderID)
}

func TestVNPayVerify_TransactionStatusMustAlsoSucceed(t *testing.T) {
	params := vnpayReturnParams()
	delete(params, "vnp_SecureHash")
	params["vnp_TransactionStatus"] = "01"
	params["vnp_SecureHash"] = SignVNPay(withoutKeys(params, "vnp_SecureHashType"), testVNPaySecret)

	res, err := NewVNPayProvider(testVNPayConfig(), "https://api.example.com").VerifyConfirmation(params)
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestVNPayVerify_TamperedFieldsRejected(t *testing.T) {
	p := NewVNPayProvider(testVNPayConfig(), "https://api.example.com")

	for key := range vnpayReturnParams() {
		if key == "vnp_SecureHash" || key == "vnp_SecureHashType" {
			continue
		}
		t.Run(key, func(t *testing.T) {
			params := vnpayReturnParams()
			params[key] = params[key] + "1"
			_, err := p.VerifyConfirmation(params)
			assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)
		})
	}

	params := vnpayReturnParams()
	params["vnp_Extra"] = "injected"
	_, err := p.VerifyConfirmation(params)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSignature, "unsigned extra parameters are rejected")
}

func TestVNPayVerify_TamperedSignatureRejected(t *testing.T) {
	p := NewVNPayProvider(testVNPayConfig(), "https://api.example.com")

	for i := 0; i < len(vnpayReturnSignature); i++ {
		flipped := []byte(vnpayReturnSignature)
		if flipped[i] == '0' {
			flipped[i] = '1'
		} else {
			flipped[i] = '0'
		}
		params := vnpayReturnParams()
		params["vnp_SecureHash"] = string(flipped)
		_, err := p.VerifyConfirmation(params)
		assert.ErrorIs(t, err, apperrors.ErrInvalidSignature, "position %d", i)
	}

	params := vnpayReturnParams()
	delete(params, "vnp_SecureHash")
	_, err := p.VerifyConfirmation(params)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)
}

func TestVNPayVerify_FailsClosedWithoutSecret(t *testing.T) {
	cfg := testVNPayConfig()
	cfg.HashSecret = ""
	params := vnpayReturnParams()
	params["vnp_SecureHash"] = SignVNPay(withoutKeys(params, "vnp_SecureHash", "vnp_SecureHashType"), "")

	_, err := NewVNPayProvider(cfg, "https://api.example.com").VerifyConfirmation(params)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)
}

func TestVNPayBuildPaymentRequest(t *testing.T) {
	p := NewVNPayProvider(testVNPayConfig(), "https://api.example.com")
	p.now = func() time.Time { return time.Date(2024, 1, 15, 3, 30, 0, 0, time.UTC) }

	order := testOrder()
	req, err := p.BuildPaymentRequest(context.Background(), order, RequestMeta{ClientIP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, testOrderID, req.GatewayRequestID)

	base, rawQuery, ok := strings.Cut(req.RedirectURL, "?")
	require.True(t, ok)
	assert.Equal(t, "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html", base)

	values, err := url.ParseQuery(rawQuery)
	require.NoError(t, err)
	assert.Equal(t, "35000000", values.Get("vnp_Amount"))
	assert.Equal(t, "20240115103000", values.Get("vnp_CreateDate"))
	assert.Equal(t, "20240115104500", values.Get("vnp_ExpireDate"))
	assert.Equal(t, testOrderInfo, values.Get("vnp_OrderInfo"))
	assert.Equal(t, "https://api.example.com/payments/vnpay/return", values.Get("vnp_ReturnUrl"))

	// Apart from the expiry, the golden create vector is reproduced exactly.
	golden := vnpayCreateParams()
	golden["vnp_ExpireDate"] = "20240115104500"
	sig := values.Get("vnp_SecureHash")
	assert.Equal(t, SignVNPay(golden, testVNPaySecret), sig)
	assert.True(t, strings.HasPrefix(rawQuery, CanonicalQuery(golden)+"&vnp_SecureHash="))

	// The redirect round-trips through the verifier.
	params := make(map[string]string, len(values))
	for k := range values {
		params[k] = values.Get(k)
	}
	_, err = p.VerifyConfirmation(params)
	assert.NoError(t, err)
}

func TestVNPayBuildPaymentRequest_NotConfigured(t *testing.T) {
	cfg := testVNPayConfig()
	cfg.TmnCode = ""
	_, err := NewVNPayProvider(cfg, "https://api.example.com").BuildPaymentRequest(context.Background(), testOrder(), RequestMeta{})
	assert.ErrorIs(t, err, apperrors.ErrProviderNotConfigured)

	_, err = NewVNPayProvider(testVNPayConfig(), "").BuildPaymentRequest(context.Background(), testOrder(), RequestMeta{})
	assert.ErrorIs(t, err, apperrors.ErrProviderNotConfigured)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(newTestMoMo("http://unused"), NewVNPayProvider(testVNPayConfig(), "https://api.example.com"))

	p, err := r.Get("MoMo")
	require.NoError(t, err)
	assert.Equal(t, "momo", string(p.Name()))

	_, err = r.Get("paypal")
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedProvider)
}
