package public

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/tixgate/internal/config"
	"github.com/tixgate/internal/constants"
	"github.com/tixgate/internal/models"
	"github.com/tixgate/internal/payment"
	"github.com/tixgate/internal/payment/builtin"
	"github.com/tixgate/internal/payment/ecpay"
	"github.com/tixgate/internal/provider"
	"github.com/tixgate/internal/repository"
	"github.com/tixgate/internal/service"
	"github.com/tixgate/internal/vault"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const (
	testHashKey = "pwFHCqoQZGmho4w6"
	testHashIV  = "EkRm7iFT261dpevs"
)

type callbackTestEnv struct {
	router  *gin.Engine
	db      *gorm.DB
	gateway *service.PaymentGatewayService
}

func setupCallbackTest(t *testing.T) *callbackTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:public_callback_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Payment{}, &models.PaymentTransaction{}, &models.PaymentProviderConfig{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	registry, err := builtin.NewRegistry()
	if err != nil {
		t.Fatalf("new registry failed: %v", err)
	}
	v, err := vault.New(bytes.Repeat([]byte{9}, vault.KeySize))
	if err != nil {
		t.Fatalf("new vault failed: %v", err)
	}
	configSvc := service.NewProviderConfigService(repository.NewPaymentProviderConfigRepository(db), registry, v)
	gateway := service.NewPaymentGatewayService(
		repository.NewPaymentRepository(db),
		repository.NewPaymentTransactionRepository(db),
		configSvc,
		registry,
		service.NewCollaboratorDispatcher(nil, nil, nil),
		config.PaymentConfig{CallbackBaseURL: "https://gateway.example.com/api/v1"},
	)
	for _, organizerID := range []uint{5, 6} {
		if _, err := configSvc.CreateProviderConfig(service.CreateProviderConfigInput{
			OrganizerID: organizerID,
			ProviderID:  constants.PaymentProviderECPay,
			Credentials: payment.Credentials{
				"merchant_id": "3002607",
				"hash_key":    testHashKey,
				"hash_iv":     testHashIV,
				"environment": constants.ProviderEnvStaging,
			},
		}); err != nil {
			t.Fatalf("create provider config failed: %v", err)
		}
	}

	h := New(&provider.Container{PaymentGatewayService: gateway, Registry: registry})
	r := gin.New()
	r.POST("/api/v1/payments/callback/:provider_id/:organizer_id", h.PaymentCallback)
	r.GET("/healthz", h.Healthz)
	return &callbackTestEnv{router: r, db: db, gateway: gateway}
}

func (env *callbackTestEnv) initiate(t *testing.T, organizerID uint) *models.Payment {
	t.Helper()
	result, err := env.gateway.InitiatePayment(context.Background(), service.InitiatePaymentInput{
		OrganizerID:  organizerID,
		ResourceType: constants.ResourceTypeEvent,
		ResourceID:   "evt-9",
		Amount:       models.NewMoneyFromInt(50),
		Description:  "Ticket",
	})
	if err != nil {
		t.Fatalf("initiate payment failed: %v", err)
	}
	return result.Payment
}

func signedCallbackForm(pay *models.Payment, rtnCode string) url.Values {
	params := map[string]string{
		"MerchantID":      "3002607",
		"MerchantTradeNo": pay.MerchantTradeNo,
		"RtnCode":         rtnCode,
		"RtnMsg":          "Succeeded",
		"TradeNo":         "2503011205069999",
		"TradeAmt":        "50",
		"PaymentDate":     "2025/03/01 12:10:00",
		"PaymentType":     "Credit_CreditCard",
		"TradeDate":       "2025/03/01 12:05:06",
		"SimulatePaid":    "0",
	}
	params[ecpay.FieldCheckMacValue] = ecpay.GenerateCheckMacValue(params, testHashKey, testHashIV)
	form := url.Values{}
	for key, value := range params {
		form.Set(key, value)
	}
	return form
}

func (env *callbackTestEnv) post(t *testing.T, path string, form url.Values) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("callback http status want 200 got %d", w.Code)
	}
	return strings.TrimSpace(w.Body.String())
}

func TestPaymentCallbackCompletesOnce(t *testing.T) {
	env := setupCallbackTest(t)
	pay := env.initiate(t, 5)
	form := signedCallbackForm(pay, "1")

	if body := env.post(t, "/api/v1/payments/callback/ecpay/5", form); body != `{"success":true}` {
		t.Fatalf("valid callback should succeed, got %s", body)
	}
	if body := env.post(t, "/api/v1/payments/callback/ecpay/5", form); body != `{"success":true}` {
		t.Fatalf("replayed callback should be acknowledged, got %s", body)
	}

	var stored models.Payment
	if err := env.db.First(&stored, pay.ID).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	if stored.Status != constants.PaymentStatusCompleted || stored.ProviderTransactionID != "2503011205069999" {
		t.Fatalf("payment should be completed: %+v", stored)
	}
	var txns int64
	env.db.Model(&models.PaymentTransaction{}).Where("payment_id = ?", pay.ID).Count(&txns)
	if txns != 1 {
		t.Fatalf("replay should not append transactions, got %d", txns)
	}
}

func TestPaymentCallbackRejectsWithoutDetail(t *testing.T) {
	env := setupCallbackTest(t)
	pay := env.initiate(t, 5)

	tampered := signedCallbackForm(pay, "1")
	tampered.Set("TradeAmt", "5000")
	cases := []struct {
		name string
		path string
		form url.Values
	}{
		{name: "tampered", path: "/api/v1/payments/callback/ecpay/5", form: tampered},
		{name: "foreign tenant", path: "/api/v1/payments/callback/ecpay/6", form: signedCallbackForm(pay, "1")},
		{name: "unknown tenant", path: "/api/v1/payments/callback/ecpay/77", form: signedCallbackForm(pay, "1")},
		{name: "bad organizer", path: "/api/v1/payments/callback/ecpay/abc", form: signedCallbackForm(pay, "1")},
		{name: "unknown provider", path: "/api/v1/payments/callback/paypal/5", form: signedCallbackForm(pay, "1")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if body := env.post(t, tc.path, tc.form); body != `{"success":false}` {
				t.Fatalf("expected bare failure ack, got %s", body)
			}
		})
	}

	var stored models.Payment
	if err := env.db.First(&stored, pay.ID).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	if stored.Status != constants.PaymentStatusPending {
		t.Fatalf("rejected callbacks must not change status, got %s", stored.Status)
	}
}

func TestReadCallbackPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/cb?trade_status=IGNORED&sign_type=MD5", strings.NewReader(`{"trade_status":"TRADE_SUCCESS","money":50,"meta":{"a":1}}`))
	c.Request.Header.Set("Content-Type", "application/json")
	cb, err := readCallbackPayload(c)
	if err != nil {
		t.Fatalf("read json payload failed: %v", err)
	}
	if cb.Value("trade_status") != "TRADE_SUCCESS" || cb.Value("money") != "50" || cb.Value("sign_type") != "MD5" {
		t.Fatalf("unexpected json callback values: %v", cb.Form)
	}
	if cb.Value("meta") != `{"a":1}` {
		t.Fatalf("nested values should be kept as json, got %s", cb.Value("meta"))
	}

	c.Request = httptest.NewRequest(http.MethodPost, "/cb", strings.NewReader(strings.Repeat("a", maxCallbackBodyBytes+10)))
	if _, err := readCallbackPayload(c); err == nil {
		t.Fatalf("oversized body should be rejected")
	}
}

func TestHealthz(t *testing.T) {
	env := setupCallbackTest(t)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) || !strings.Contains(w.Body.String(), `"providers":["ecpay","epay"]`) {
		t.Fatalf("unexpected healthz response: %d %s", w.Code, w.Body.String())
	}
}

func TestPaymentCallbackWithoutContainer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, h := range []*Handler{nil, New(nil)} {
		r := gin.New()
		r.POST("/api/v1/payments/callback/:provider_id/:organizer_id", h.PaymentCallback)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback/ecpay/5", strings.NewReader("RtnCode=1"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK || w.Body.String() != `{"success":false}` {
			t.Fatalf("missing container should ack failure, got %d %s", w.Code, w.Body.String())
		}
	}
}
