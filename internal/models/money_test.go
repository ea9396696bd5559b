package models

import (
	"encoding/json"
	"testing"
)

func TestMoneyJSONAcceptsStringAndNumber(t *testing.T) {
	var payload struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":"50","b":12.340,"c":null}`), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.A.String() != "50.00" || payload.B.String() != "12.34" || !payload.C.IsZero() {
		t.Fatalf("unexpected values: %s %s %s", payload.A, payload.B, payload.C)
	}
	out, err := json.Marshal(payload.A)
	if err != nil || string(out) != `"50.00"` {
		t.Fatalf("unexpected marshal: %s %v", out, err)
	}
	if err := json.Unmarshal([]byte(`{"a":"fifty"}`), &payload); err == nil {
		t.Fatalf("non-numeric amount should fail")
	}
	for _, raw := range []string{`{"a":10.004}`, `{"a":"10.004"}`} {
		if err := json.Unmarshal([]byte(raw), &payload); err == nil {
			t.Fatalf("%s should be rejected instead of rounded", raw)
		}
	}
}

func TestMoneyMinusClampsAtZero(t *testing.T) {
	if got := NewMoneyFromInt(50).Minus(NewMoneyFromInt(20)); got.String() != "30.00" {
		t.Fatalf("unexpected difference: %s", got)
	}
	if got := NewMoneyFromInt(10).Minus(NewMoneyFromInt(20)); got.String() != "0.00" {
		t.Fatalf("negative result should clamp to zero, got %s", got)
	}
}
