package providers

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"sort"
	"strings"
)

// MoMo canonical key orders. They are fixed by the gateway, not derived by sorting.
var (
	momoCreateKeys = []string{
		"accessKey", "amount", "extraData", "ipnUrl", "orderId", "orderInfo",
		"partnerCode", "redirectUrl", "requestId", "requestType",
	}
	momoIPNKeys = []string{
		"accessKey", "amount", "extraData", "message", "orderId", "orderInfo",
		"orderType", "partnerCode", "payType", "requestId", "responseTime",
		"resultCode", "transId",
	}
)

// FixedOrderString joins params as key=value&… in exactly the given key
// order. Missing keys render as empty values; keys not listed are ignored.
// Values are not escaped.
func FixedOrderString(keys []string, params map[string]string) string {
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

// SignMoMo returns the lowercase hex HMAC-SHA256 of the fixed-order string.
func SignMoMo(keys []string, params map[string]string, secret string) string {
	return hmacHex(sha256.New, secret, FixedOrderString(keys, params))
}

// CanonicalQuery drops empty values, sorts keys ascending and joins the
// encoded pairs as k=v&….
func CanonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(EncodeComponent(k))
		b.WriteByte('=')
		b.WriteString(EncodeComponent(params[k]))
	}
	return b.String()
}

// SignVNPay returns the lowercase hex HMAC-SHA512 of CanonicalQuery(params).
func SignVNPay(params map[string]string, secret string) string {
	return hmacHex(sha512.New, secret, CanonicalQuery(params))
}

// EncodeComponent percent-encodes the UTF-8 bytes of s, leaving
// A-Z a-z 0-9 - _ . ! ~ * ' ( ) untouched, and writes space as '+'.
// Hex digits are uppercase.
func EncodeComponent(s string) string {
	const upperhex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ':
			b.WriteByte('+')
		case unreservedComponent(c):
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0x0F])
		}
	}
	return b.String()
}

func unreservedComponent(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

func hmacHex(h func() hash.Hash, secret, data string) string {
	mac := hmac.New(h, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
