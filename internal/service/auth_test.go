package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-with-enough-entropy"

func newAuthService(t *testing.T, ttl time.Duration) *service.AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return service.NewAuthService("treasurer", string(hash), testSecret, ttl, zap.NewNop())
}

func TestLogin_IssuesEditorToken(t *testing.T) {
	svc := newAuthService(t, time.Hour)

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{Username: "treasurer", Password: "s3cret"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Role != domain.RoleEditor || resp.ExpiresIn != 3600 || resp.Username != "treasurer" {
		t.Errorf("unexpected login response %+v", resp)
	}

	claims, err := svc.ValidateAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("token should validate: %v", err)
	}
	if claims.Sub != "treasurer" || claims.Role != domain.RoleEditor {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	svc := newAuthService(t, time.Hour)

	for _, req := range []domain.LoginRequest{
		{Username: "treasurer", Password: "wrong"},
		{Username: "someone", Password: "s3cret"},
	} {
		_, err := svc.Login(context.Background(), &req)
		var unauth *domain.ErrUnauthorized
		if !errors.As(err, &unauth) {
			t.Errorf("expected unauthorized for %q, got %v", req.Username, err)
		}
	}

	var ve *domain.ErrValidation
	if _, err := svc.Login(context.Background(), &domain.LoginRequest{Username: "treasurer"}); !errors.As(err, &ve) {
		t.Errorf("expected validation error without password, got %v", err)
	}
}

func TestValidateAccessToken_Rejects(t *testing.T) {
	svc := newAuthService(t, time.Hour)

	expired := newAuthService(t, -time.Minute)
	resp, err := expired.Login(context.Background(), &domain.LoginRequest{Username: "treasurer", Password: "s3cret"})
	if err != nil {
		t.Fatal(err)
	}

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, service.JWTClaims{
		Sub: "treasurer", Role: domain.RoleEditor, Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "ledger-api",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	foreignToken, _ := foreign.SignedString([]byte("another-secret"))

	for name, token := range map[string]string{
		"expired":      resp.AccessToken,
		"wrong secret": foreignToken,
		"garbage":      "not-a-jwt",
	} {
		if _, err := svc.ValidateAccessToken(token); err == nil {
			t.Errorf("%s: expected token to be rejected", name)
		}
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := service.HashPassword("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")); err != nil {
		t.Errorf("hash does not match password: %v", err)
	}
	if _, err := service.HashPassword(""); err == nil {
		t.Error("expected error for empty password")
	}
}
