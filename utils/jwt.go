package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

// TicketReadScope is the scope claim required to read tickets over the API.
const TicketReadScope = "tickets:read"

// GenerateToken creates an HS256 token for subject carrying scope, valid for duration.
func GenerateToken(secret, subject, scope string, duration time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is not configured")
	}
	claims := jwt.MapClaims{
		"sub":   subject,
		"scope": scope,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses tokenString, checks signature and expiry, and returns
// its claims.
func ValidateToken(secret, tokenString string) (jwt.MapClaims, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is not configured")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if _, ok := claims["exp"]; !ok {
		return nil, errors.New("token has no expiry")
	}
	return claims, nil
}
