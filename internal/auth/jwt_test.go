package auth_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mealdesk/api/internal/auth"
	"github.com/mealdesk/api/internal/enum"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret"
	userID := uuid.New()
	restaurantID := uuid.New()

	token, err := auth.GenerateToken(secret, userID, &restaurantID, enum.RoleRestaurant)
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
	if claims.RestaurantID == nil || *claims.RestaurantID != restaurantID {
		t.Errorf("restaurant ID: got %v, want %v", claims.RestaurantID, restaurantID)
	}
	if claims.Role != enum.RoleRestaurant {
		t.Errorf("role: got %v, want %v", claims.Role, enum.RoleRestaurant)
	}
}

func TestGenerateTokenWithoutRestaurant(t *testing.T) {
	token, err := auth.GenerateToken("secret", uuid.New(), nil, enum.RoleCustomer)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := auth.ValidateToken("secret", token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.RestaurantID != nil {
		t.Errorf("restaurant ID should be nil, got %v", claims.RestaurantID)
	}
}

func TestValidateTokenWithWrongSecret(t *testing.T) {
	token, err := auth.GenerateToken("secret-a", uuid.New(), nil, enum.RoleCustomer)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	_, err = auth.ValidateToken("secret-b", token)
	if err == nil {
		t.Fatal("expected error validating with wrong secret")
	}
}

func TestValidateTokenWithInvalidString(t *testing.T) {
	_, err := auth.ValidateToken("secret", "not-a-jwt")
	if err == nil {
		t.Fatal("expected error validating invalid token string")
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := auth.GenerateRefreshToken("secret", userID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	got, err := auth.ValidateRefreshToken("secret", token)
	if err != nil {
		t.Fatalf("validate refresh token: %v", err)
	}
	if got != userID {
		t.Errorf("user ID: got %v, want %v", got, userID)
	}
}

func TestAccessTokenIsNotARefreshToken(t *testing.T) {
	// An access token has no subject, so the refresh path must reject it.
	token, err := auth.GenerateToken("secret", uuid.New(), nil, enum.RoleCustomer)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := auth.ValidateRefreshToken("secret", token); err == nil {
		t.Fatal("expected error using an access token as a refresh token")
	}
}
