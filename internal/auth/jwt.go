package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/restopos/api/internal/enum"
)

// TokenTTL covers one service shift.
const TokenTTL = 12 * time.Hour

// Claims identifies a staff member. Kitchen is empty for staff not bound to a
// station (cashiers, managers).
type Claims struct {
	UserID  uuid.UUID `json:"user_id"`
	Kitchen string    `json:"kitchen,omitempty"`
	Role    string    `json:"role"`
	jwt.RegisteredClaims
}

var (
	ErrMissingToken   = errors.New("missing authorization header")
	ErrMalformedToken = errors.New("invalid authorization format")
)

// CanAccessKitchen reports whether the holder may act on kitchen. Managers
// cover every kitchen; other staff only the one on their token.
func (c *Claims) CanAccessKitchen(kitchen string) bool {
	if c == nil || kitchen == "" {
		return false
	}
	return c.Role == enum.UserRoleManager || c.Kitchen == kitchen
}

// HasRole reports whether the holder has any of roles.
func (c *Claims) HasRole(roles ...string) bool {
	if c == nil {
		return false
	}
	for _, role := range roles {
		if c.Role == role {
			return true
		}
	}
	return false
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", ErrMalformedToken
	}
	return token, nil
}

func GenerateToken(secret string, userID uuid.UUID, kitchen, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:  userID,
		Kitchen: kitchen,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
