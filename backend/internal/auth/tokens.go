package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"coursehub/backend/internal/shared"
)

// CustomClaims for JWT
type CustomClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// generateToken creates a signed JWT
func (s *AuthService) generateToken(userID, role string) (string, time.Time, error) {
	now := time.Now()
	expirationTime := now.Add(time.Duration(s.security.JWTExpirationHours) * time.Hour)

	claims := CustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti keeps tokens issued in the same second distinct
			ID:        shared.GenerateID(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.security.JWTIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.security.JWTSecret))

	return tokenString, expirationTime, err
}

// parseToken validates the JWT signature, expiry and issuer
func (s *AuthService) parseToken(tokenString string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.security.JWTSecret), nil
	}, jwt.WithIssuer(s.security.JWTIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
