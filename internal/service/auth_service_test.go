package service

import (
	"errors"
	"testing"

	"github.com/tixgate/internal/config"
	"github.com/tixgate/internal/constants"
)

func TestTenantAuthServiceRoundTrip(t *testing.T) {
	svc := NewTenantAuthService(config.JWTConfig{SecretKey: "tenant-secret-for-tests", ExpireHours: 1, Issuer: "tixgate"})

	token, expiresAt, err := svc.GenerateJWT(5, 11, " Finance ")
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	if expiresAt.IsZero() {
		t.Fatalf("expiry should be set")
	}
	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.OrganizerID != 5 || claims.MemberID != 11 || claims.Role != constants.MemberRoleFinance {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	other := NewTenantAuthService(config.JWTConfig{SecretKey: "another-secret", Issuer: "tixgate"})
	if _, err := other.ParseJWT(token); !errors.Is(err, ErrTenantTokenInvalid) {
		t.Fatalf("token signed with another secret should fail, got %v", err)
	}
	wrongIssuer := NewTenantAuthService(config.JWTConfig{SecretKey: "tenant-secret-for-tests", Issuer: "someone-else"})
	if _, err := wrongIssuer.ParseJWT(token); !errors.Is(err, ErrTenantTokenInvalid) {
		t.Fatalf("token with another issuer should fail, got %v", err)
	}
}

func TestTenantAuthServiceRejectsIncompleteClaims(t *testing.T) {
	svc := NewTenantAuthService(config.JWTConfig{SecretKey: "tenant-secret-for-tests"})

	noTenant, _, err := svc.GenerateJWT(0, 1, constants.MemberRoleOwner)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	if _, err := svc.ParseJWT(noTenant); !errors.Is(err, ErrTenantTokenInvalid) {
		t.Fatalf("token without organizer should fail, got %v", err)
	}

	badRole, _, err := svc.GenerateJWT(1, 1, "admin")
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	if _, err := svc.ParseJWT(badRole); !errors.Is(err, ErrTenantTokenInvalid) {
		t.Fatalf("token with unknown role should fail, got %v", err)
	}
	if _, err := svc.ParseJWT("not-a-token"); !errors.Is(err, ErrTenantTokenInvalid) {
		t.Fatalf("garbage token should fail, got %v", err)
	}
}
