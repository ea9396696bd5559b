package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tixgate/internal/authz"
	"github.com/tixgate/internal/config"
	"github.com/tixgate/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}
	if resp := strings.TrimSpace(generated); resp == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

func decodeStatusCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp.StatusCode
}

func TestTenantJWTAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(TenantJWTAuthMiddleware("", nil))
	r.GET("/payments", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/payments", nil)
	r.ServeHTTP(w, req)

	if code := decodeStatusCode(t, w); code != 401 {
		t.Fatalf("status_code want 401 got %d", code)
	}
}

func setupTenantAuthzTest(t *testing.T) (*authz.Service, *service.TenantAuthService) {
	t.Helper()
	dsn := fmt.Sprintf("file:router_authz_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	authzService, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap roles failed: %v", err)
	}
	return authzService, service.NewTenantAuthService(config.JWTConfig{SecretKey: "router-test-secret-0123456789abcdef", Issuer: "tixgate"})
}

func TestTenantAuthAndRBACMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	authzService, authService := setupTenantAuthzTest(t)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(TenantJWTAuthMiddleware("router-test-secret-0123456789abcdef", authService), TenantRBACMiddleware(authzService))
	api.GET("/payments/:id/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status_code":  0,
			"organizer_id": c.GetUint("organizer_id"),
			"role":         c.GetString("member_role"),
		})
	})
	api.POST("/payment-providers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})

	call := func(method, path, token string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", token)
		}
		r.ServeHTTP(w, req)
		return w
	}

	staffToken, _, err := authService.GenerateJWT(12, 3, "staff")
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	ownerToken, _, err := authService.GenerateJWT(12, 1, "owner")
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}

	w := call(http.MethodGet, "/api/v1/payments/5/status", "Bearer "+staffToken)
	if code := decodeStatusCode(t, w); code != 0 || !strings.Contains(w.Body.String(), `"organizer_id":12`) {
		t.Fatalf("staff should read payment status: %s", w.Body.String())
	}
	if code := decodeStatusCode(t, call(http.MethodPost, "/api/v1/payment-providers", "Bearer "+staffToken)); code != 403 {
		t.Fatalf("staff must not manage providers, got %d", code)
	}
	if code := decodeStatusCode(t, call(http.MethodPost, "/api/v1/payment-providers", "Bearer "+ownerToken)); code != 0 {
		t.Fatalf("owner should manage providers, got %d", code)
	}
	if code := decodeStatusCode(t, call(http.MethodGet, "/api/v1/payments/5/status", "")); code != 401 {
		t.Fatalf("missing header should be 401, got %d", code)
	}
	if code := decodeStatusCode(t, call(http.MethodGet, "/api/v1/payments/5/status", "Token "+staffToken)); code != 401 {
		t.Fatalf("malformed header should be 401, got %d", code)
	}
	if code := decodeStatusCode(t, call(http.MethodGet, "/api/v1/payments/5/status", "Bearer "+staffToken+"x")); code != 401 {
		t.Fatalf("tampered token should be 401, got %d", code)
	}

	otherIssuer := service.NewTenantAuthService(config.JWTConfig{SecretKey: "router-test-secret-0123456789abcdef", Issuer: "someone-else"})
	foreignToken, _, _ := otherIssuer.GenerateJWT(12, 1, "owner")
	if code := decodeStatusCode(t, call(http.MethodGet, "/api/v1/payments/5/status", "Bearer "+foreignToken)); code != 401 {
		t.Fatalf("foreign issuer should be 401, got %d", code)
	}
}

func TestBuildTenantPermissionCatalog(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	noop := func(c *gin.Context) {}
	r.POST("/api/v1/payments/callback/:provider_id/:organizer_id", noop)
	r.GET("/api/v1/authz/me", noop)
	r.GET("/api/v1/payments", noop)
	r.POST("/api/v1/payments/initiate", noop)
	r.DELETE("/api/v1/payment-providers/:id", noop)
	r.GET("/healthz", noop)

	items := buildTenantPermissionCatalog(r)
	if len(items) != 3 {
		t.Fatalf("expected three tenant permissions, got %+v", items)
	}
	if items[0].Permission != "DELETE:/payment-providers/:id" || items[0].Module != "payment-providers" {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[1].Permission != "GET:/payments" || items[2].Permission != "POST:/payments/initiate" {
		t.Fatalf("unexpected ordering: %+v", items)
	}
}

func TestRequestIDMiddlewareReplacesInvalidHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, raw := range []string{strings.Repeat("a", maxRequestIDLength+1), "has space"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(requestIDHeader, raw)
		r.ServeHTTP(w, req)
		if got := w.Header().Get(requestIDHeader); got == raw || got == "" {
			t.Fatalf("invalid request id %q should be replaced, got %q", raw, got)
		}
	}
}

func TestCORSMiddlewarePreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(CORSMiddleware(config.CORSConfig{AllowedOrigins: []string{"https://shop.example.com"}, MaxAge: 600}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight want 204 got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://shop.example.com" || w.Header().Get("Access-Control-Max-Age") != "600" {
		t.Fatalf("unexpected cors headers: %v", w.Header())
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "X-Request-ID") {
		t.Fatalf("default headers missing: %v", w.Header())
	}
}
