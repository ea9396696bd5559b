package vault

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := NewFromHex(strings.Repeat("ab", KeySize))
	if err != nil {
		t.Fatalf("new vault failed: %v", err)
	}
	return v
}

func TestNewRejectsWrongKeyLength(t *testing.T) {
	for _, size := range []int{0, 16, 31, 33, 64} {
		if _, err := New(make([]byte, size)); !errors.Is(err, ErrKeyInvalid) {
			t.Fatalf("key size %d should be rejected, got %v", size, err)
		}
	}
	if _, err := NewFromHex("zz"); !errors.Is(err, ErrKeyInvalid) {
		t.Fatalf("non-hex key should be rejected, got %v", err)
	}
	if _, err := NewFromHex(""); !errors.Is(err, ErrKeyInvalid) {
		t.Fatalf("empty key should be rejected, got %v", err)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v := newTestVault(t)
	ctx := CredentialContext(7, "ecpay")
	plaintext := []byte(`{"merchant_id":"3002607","hash_key":"pwFHCqoQZGmho4w6","hash_iv":"EkRm7iFT261dpevs"}`)

	envelope, err := v.Encrypt(plaintext, ctx)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	parts := strings.Split(envelope, ":")
	if len(parts) != 3 {
		t.Fatalf("envelope should have 3 parts, got %d", len(parts))
	}
	if len(parts[0]) != nonceSize*2 || len(parts[1]) != tagSize*2 {
		t.Fatalf("unexpected nonce/tag length: %s", envelope)
	}
	if strings.Contains(envelope, "3002607") {
		t.Fatalf("envelope leaks plaintext")
	}

	got, err := v.Decrypt(envelope, ctx)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: %s", got)
	}
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	v := newTestVault(t)
	a, _ := v.Encrypt([]byte("same"), "ctx")
	b, _ := v.Encrypt([]byte("same"), "ctx")
	if a == b {
		t.Fatalf("two encryptions should differ")
	}
}

func TestDecryptWithOtherContextFails(t *testing.T) {
	v := newTestVault(t)
	envelope, err := v.Encrypt([]byte("secret"), CredentialContext(1, "ecpay"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	for _, ctx := range []string{CredentialContext(2, "ecpay"), CredentialContext(1, "epay"), ""} {
		if _, err := v.Decrypt(envelope, ctx); !errors.Is(err, ErrDecryptionFailed) {
			t.Fatalf("context %q should fail with ErrDecryptionFailed, got %v", ctx, err)
		}
	}
}

func TestDecryptRejectsTamperedEnvelope(t *testing.T) {
	v := newTestVault(t)
	ctx := CredentialContext(1, "ecpay")
	envelope, _ := v.Encrypt([]byte("secret-value"), ctx)
	parts := strings.Split(envelope, ":")

	flip := func(s string) string {
		b := []byte(s)
		if b[0] == '0' {
			b[0] = '1'
		} else {
			b[0] = '0'
		}
		return string(b)
	}

	cases := map[string]string{
		"nonce":      strings.Join([]string{flip(parts[0]), parts[1], parts[2]}, ":"),
		"tag":        strings.Join([]string{parts[0], flip(parts[1]), parts[2]}, ":"),
		"ciphertext": strings.Join([]string{parts[0], parts[1], flip(parts[2])}, ":"),
		"two_parts":  parts[0] + ":" + parts[2],
		"not_hex":    "xx:yy:zz",
		"empty":      "",
	}
	for name, tampered := range cases {
		if _, err := v.Decrypt(tampered, ctx); !errors.Is(err, ErrDecryptionFailed) {
			t.Fatalf("%s: expected ErrDecryptionFailed, got %v", name, err)
		}
	}
}

func TestJSONHelpers(t *testing.T) {
	v := newTestVault(t)
	ctx := CredentialContext(3, "epay")
	in := map[string]interface{}{"merchant_id": "1001", "merchant_key": "k"}
	envelope, err := v.EncryptJSON(in, ctx)
	if err != nil {
		t.Fatalf("encrypt json failed: %v", err)
	}
	var out map[string]interface{}
	if err := v.DecryptJSON(envelope, ctx, &out); err != nil {
		t.Fatalf("decrypt json failed: %v", err)
	}
	if out["merchant_id"] != "1001" || out["merchant_key"] != "k" {
		t.Fatalf("unexpected json payload: %+v", out)
	}

	raw, _ := v.Encrypt([]byte("not-json"), ctx)
	if err := v.DecryptJSON(raw, ctx, &out); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("non-json payload should fail, got %v", err)
	}
}

func TestCredentialContextFormat(t *testing.T) {
	if got := CredentialContext(42, " ecpay "); got != "payment-credentials-42-ecpay" {
		t.Fatalf("unexpected context: %s", got)
	}
}
