package main

import (
	"strings"
	"testing"
)

func TestIsWeakSecret(t *testing.T) {
	if !isWeakSecret("short") {
		t.Fatalf("short secret should be weak")
	}
	if !isWeakSecret("change-me-in-production-please-0123456789") {
		t.Fatalf("default marker should be weak")
	}
	if isWeakSecret(strings.Repeat("k9Zq", 10)) {
		t.Fatalf("long random secret should pass")
	}
}
