package payment

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/tixgate/internal/models"

	"github.com/shopspring/decimal"
)

type stubProvider struct {
	id string
}

func (s *stubProvider) Describe() Descriptor {
	return Descriptor{ID: s.id, MinAmount: decimal.NewFromInt(1), MaxAmount: decimal.NewFromInt(100), IntegerAmount: true}
}

func (s *stubProvider) ValidateCredentials(Credentials) error { return nil }

func (s *stubProvider) CreatePayment(context.Context, Credentials, CreateRequest) (*CreateResult, error) {
	return &CreateResult{}, nil
}

func (s *stubProvider) ValidateCallback(Callback, Credentials) bool { return true }

func (s *stubProvider) ProcessCallback(Callback, *models.Payment) (*CallbackResult, error) {
	return &CallbackResult{}, nil
}

func (s *stubProvider) CallbackTradeNo(cb Callback) string { return cb.Value("trade_no") }

func TestRegistryLookup(t *testing.T) {
	a := &stubProvider{id: "bravo"}
	b := &stubProvider{id: "alpha"}
	registry, err := NewRegistry(a, b)
	if err != nil {
		t.Fatalf("new registry failed: %v", err)
	}

	got, err := registry.GetProvider("bravo")
	if err != nil {
		t.Fatalf("get provider failed: %v", err)
	}
	if got != Provider(a) {
		t.Fatalf("registry should return the registered instance")
	}
	again, _ := registry.GetProvider("bravo")
	if again != got {
		t.Fatalf("registry should return the same instance on every call")
	}

	if _, err := registry.GetProvider("charlie"); !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("unknown provider should return ErrProviderNotFound, got %v", err)
	}
	if !registry.HasProvider("alpha") || registry.HasProvider("charlie") {
		t.Fatalf("unexpected HasProvider result")
	}

	ids := registry.ListProviders()
	if len(ids) != 2 || ids[0] != "alpha" || ids[1] != "bravo" {
		t.Fatalf("unexpected provider ids: %v", ids)
	}
	ids[0] = "mutated"
	if registry.ListProviders()[0] != "alpha" {
		t.Fatalf("ListProviders should return a copy")
	}
	if len(registry.Descriptors()) != 2 {
		t.Fatalf("unexpected descriptors count")
	}
}

func TestRegistryRejectsInvalidProviders(t *testing.T) {
	if _, err := NewRegistry(&stubProvider{id: "a"}, &stubProvider{id: "a"}); !errors.Is(err, ErrProviderInvalid) {
		t.Fatalf("duplicate id should be rejected, got %v", err)
	}
	if _, err := NewRegistry(&stubProvider{id: " "}); !errors.Is(err, ErrProviderInvalid) {
		t.Fatalf("empty id should be rejected, got %v", err)
	}
}

func TestDescriptorCheckAmount(t *testing.T) {
	d := (&stubProvider{id: "a"}).Describe()
	cases := []struct {
		amount string
		ok     bool
	}{
		{"1", true},
		{"100", true},
		{"50.00", true},
		{"0", false},
		{"101", false},
		{"10.5", false},
	}
	for _, tc := range cases {
		err := d.CheckAmount(decimal.RequireFromString(tc.amount))
		if tc.ok && err != nil {
			t.Fatalf("amount %s should pass: %v", tc.amount, err)
		}
		if !tc.ok && !errors.Is(err, ErrAmountOutOfRange) {
			t.Fatalf("amount %s should be out of range, got %v", tc.amount, err)
		}
	}

	unbounded := Descriptor{ID: "b", MinAmount: decimal.RequireFromString("0.01")}
	if err := unbounded.CheckAmount(decimal.NewFromInt(1_000_000_000)); err != nil {
		t.Fatalf("zero max amount should be unbounded: %v", err)
	}
}

func TestCredentialsAndCallbackHelpers(t *testing.T) {
	creds := Credentials{"merchant_id": float64(3002607), "hash_key": " abc "}
	if creds.String("merchant_id") != "3002607" {
		t.Fatalf("numeric credential should coerce to string: %s", creds.String("merchant_id"))
	}
	if creds.String("hash_key") != "abc" || creds.String("missing") != "" {
		t.Fatalf("unexpected credential values")
	}

	cb := Callback{Form: url.Values{"a": {"1", "2"}, "b": {}}}
	if cb.Value("a") != "1" || cb.Value("b") != "" || cb.Value("c") != "" {
		t.Fatalf("unexpected callback values")
	}
	flat := cb.Flatten()
	if flat["a"] != "1" || len(flat) != 2 {
		t.Fatalf("unexpected flatten result: %v", flat)
	}
}
