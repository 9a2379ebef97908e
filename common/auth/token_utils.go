package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// ParseAndValidateToken parses an HMAC-signed JWT and returns its claims.
// If expectedType is non-empty, the "typ" claim must match it.
func ParseAndValidateToken(tokenStr string, secret []byte, expectedType string) (jwt.MapClaims, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("JWT secret not configured")
	}

	token, err := jwt.Parse(strings.TrimSpace(tokenStr), func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if expectedType != "" {
		if typ, ok := claims["typ"].(string); !ok || typ != expectedType {
			return nil, fmt.Errorf("invalid token type")
		}
	}
	return claims, nil
}

// SubjectFromClaims returns the "sub" claim, which carries the user ID.
func SubjectFromClaims(claims jwt.MapClaims) (string, error) {
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}
