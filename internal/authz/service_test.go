package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestEnforceRoleWithPolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("auditor", "/payments/:id/status", "GET"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}

	allow, err := svc.EnforceRole("Auditor", "/api/v1/payments/42/status", "get")
	if err != nil {
		t.Fatalf("enforce allow failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected allow=true")
	}

	allow, err = svc.EnforceRole("auditor", "/api/v1/payments/42/status", "POST")
	if err != nil {
		t.Fatalf("enforce deny failed: %v", err)
	}
	if allow {
		t.Fatalf("expected allow=false")
	}

	if err := svc.GrantRolePolicy("auditor", "/payments", " "); err == nil {
		t.Fatalf("empty action should fail")
	}
	if _, err := svc.EnforceRole(" ", "/payments", "GET"); err == nil {
		t.Fatalf("empty role should fail")
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/payments/:id/status", want: "/payments/:id/status"},
		{in: "/payment-providers/:id", want: "/payment-providers/:id"},
		{in: "payments", want: "/payments"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap should be idempotent: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	wantRoles := map[string]bool{
		"role:owner":   true,
		"role:finance": true,
		"role:staff":   true,
	}
	for _, role := range roles {
		delete(wantRoles, role)
	}
	if len(wantRoles) != 0 {
		t.Fatalf("builtin roles missing: %v", wantRoles)
	}

	cases := []struct {
		role   string
		obj    string
		act    string
		expect bool
	}{
		{"staff", "/api/v1/payments/initiate", "POST", true},
		{"staff", "/api/v1/payments/7/status", "GET", true},
		{"staff", "/api/v1/payments", "GET", false},
		{"staff", "/api/v1/payment-providers", "POST", false},
		{"finance", "/api/v1/payments", "GET", true},
		{"finance", "/api/v1/payments/initiate", "POST", true},
		{"finance", "/api/v1/payment-providers", "GET", true},
		{"finance", "/api/v1/payment-providers/3", "PUT", false},
		{"finance", "/api/v1/payment-providers/3", "GET", true},
		{"staff", "/api/v1/payment-providers/3", "GET", false},
		{"owner", "/api/v1/payment-providers", "POST", true},
		{"owner", "/api/v1/payment-providers/3", "DELETE", true},
		{"owner", "/api/v1/payment-providers/3/default", "POST", true},
		{"owner", "/api/v1/payments/7/status", "GET", true},
	}
	for _, tc := range cases {
		allow, err := svc.EnforceRole(tc.role, tc.obj, tc.act)
		if err != nil {
			t.Fatalf("enforce %s %s %s failed: %v", tc.role, tc.act, tc.obj, err)
		}
		if allow != tc.expect {
			t.Fatalf("%s %s %s: expected %v, got %v", tc.role, tc.act, tc.obj, tc.expect, allow)
		}
	}
}
