package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/restopos/api/internal/auth"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret"
	userID := uuid.New()

	token, err := auth.GenerateToken(secret, userID, "GRILL", "KITCHEN")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := auth.ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("user ID: got %v, want %v", claims.UserID, userID)
	}
	if claims.Kitchen != "GRILL" {
		t.Errorf("kitchen: got %q, want GRILL", claims.Kitchen)
	}
	if claims.Role != "KITCHEN" {
		t.Errorf("role: got %q, want KITCHEN", claims.Role)
	}
	if claims.Subject != userID.String() {
		t.Errorf("subject: got %q, want %q", claims.Subject, userID)
	}
}

func TestValidateTokenWithWrongSecret(t *testing.T) {
	token, err := auth.GenerateToken("secret-a", uuid.New(), "", "CASHIER")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := auth.ValidateToken("secret-b", token); err == nil {
		t.Fatal("expected error validating with wrong secret")
	}
}

func TestValidateTokenWithInvalidString(t *testing.T) {
	if _, err := auth.ValidateToken("secret", "not-a-jwt"); err == nil {
		t.Fatal("expected error validating invalid token string")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	claims := auth.Claims{
		UserID: uuid.New(),
		Role:   "MANAGER",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := auth.ValidateToken("secret", token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		err    error
	}{
		{"bearer", "Bearer abc", "abc", nil},
		{"lowercase scheme", "bearer abc", "abc", nil},
		{"empty", "", "", auth.ErrMissingToken},
		{"basic", "Basic abc", "", auth.ErrMalformedToken},
		{"no token", "Bearer ", "", auth.ErrMalformedToken},
		{"no scheme", "abc", "", auth.ErrMalformedToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.BearerToken(tt.header)
			if !errors.Is(err, tt.err) {
				t.Fatalf("error: got %v, want %v", err, tt.err)
			}
			if got != tt.want {
				t.Errorf("token: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCanAccessKitchen(t *testing.T) {
	tests := []struct {
		name    string
		claims  *auth.Claims
		kitchen string
		want    bool
	}{
		{"own kitchen", &auth.Claims{Role: "KITCHEN", Kitchen: "GRILL"}, "GRILL", true},
		{"other kitchen", &auth.Claims{Role: "KITCHEN", Kitchen: "GRILL"}, "BAR", false},
		{"manager any kitchen", &auth.Claims{Role: "MANAGER"}, "BAR", true},
		{"empty kitchen", &auth.Claims{Role: "MANAGER"}, "", false},
		{"cashier", &auth.Claims{Role: "CASHIER"}, "GRILL", false},
		{"no claims", nil, "GRILL", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.claims.CanAccessKitchen(tt.kitchen); got != tt.want {
				t.Errorf("CanAccessKitchen() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasRole(t *testing.T) {
	c := &auth.Claims{Role: "CASHIER"}
	if !c.HasRole("MANAGER", "CASHIER") {
		t.Error("expected CASHIER to match")
	}
	if c.HasRole("MANAGER") {
		t.Error("CASHIER is not MANAGER")
	}
	var none *auth.Claims
	if none.HasRole("CASHIER") {
		t.Error("nil claims have no role")
	}
}
