package logger

import (
	"net/http"
	"testing"
)

func TestMaskAuthorization(t *testing.T) {
	got := MaskAuthorization("Bearer abcdef1234")
	want := "Bearer ****1234"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"doomed@example.com": "d****d@example.com",
		"ab@example.com":     "**@example.com",
		"not-an-email":       "****mail",
		"":                   "",
	}
	for input, want := range cases {
		if got := MaskEmail(input); got != want {
			t.Fatalf("MaskEmail(%q): expected %q, got %q", input, want, got)
		}
	}
}

func TestMaskPaymentIntent(t *testing.T) {
	got := MaskPaymentIntent("pi_3abcDEF12345678")
	want := "pi_****5678"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := MaskPaymentIntent("raw12345"); got != "****2345" {
		t.Fatalf("expected masked raw value, got %q", got)
	}
}

func TestMaskHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer abcdef1234")
	headers.Set("Stripe-Signature", "t=1,v1=abcdef123456")
	headers.Set("Content-Type", "application/json")

	masked := MaskHeaders(headers)
	if masked["Authorization"] != "Bearer ****1234" {
		t.Fatalf("authorization not masked: %q", masked["Authorization"])
	}
	if masked["Stripe-Signature"] != "****3456" {
		t.Fatalf("signature not masked: %q", masked["Stripe-Signature"])
	}
	if masked["Content-Type"] != "application/json" {
		t.Fatalf("plain header altered: %q", masked["Content-Type"])
	}
}

func TestMaskJSON(t *testing.T) {
	input := map[string]any{
		"password": "hunter2",
		"token":    "abc12345",
		"nested": map[string]any{
			"api_key": "key_12345678",
		},
	}
	masked := MaskJSON(input)
	if masked["password"] != "****ter2" {
		t.Fatalf("expected masked password, got %v", masked["password"])
	}
	if masked["token"] != "****2345" {
		t.Fatalf("expected masked token, got %v", masked["token"])
	}
	nested, ok := masked["nested"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested map")
	}
	if nested["api_key"] != "****5678" {
		t.Fatalf("expected masked api_key, got %v", nested["api_key"])
	}
}
