package security

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	gwerrors "zerodha-roast/internal/errors"
	"zerodha-roast/internal/logging"
)

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }

func TestValidateOrderID(t *testing.T) {
	valid := []string{"151220000000000", "220303000308932", "abc_DEF-1"}
	for _, id := range valid {
		if err := ValidateOrderID(id); err != nil {
			t.Errorf("ValidateOrderID(%q) = %v, want nil", id, err)
		}
	}

	invalid := []string{"", "   ", "../session/token", "123?x=1", strings.Repeat("9", 51)}
	for _, id := range invalid {
		if err := ValidateOrderID(id); err == nil {
			t.Errorf("ValidateOrderID(%q) = nil, want error", id)
		}
	}
}

func TestValidateExchangeAndSymbol(t *testing.T) {
	if err := ValidateExchange("NSE"); err != nil {
		t.Errorf("NSE should be valid: %v", err)
	}
	if err := ValidateExchange("nse/../x"); err == nil {
		t.Error("path-like exchange should be rejected")
	}
	if err := ValidateSymbol("M&M"); err != nil {
		t.Errorf("M&M should be valid: %v", err)
	}
	if err := ValidateSymbol("INFY;DROP"); err == nil {
		t.Error("symbol with ';' should be rejected")
	}

	for _, sym := range []string{"NIFTY 50", "NIFTY BANK", "INDIA VIX", " NIFTY 50 "} {
		if err := ValidateSymbol(sym); err != nil {
			t.Errorf("ValidateSymbol(%q) = %v, want nil", sym, err)
		}
	}
	for _, sym := range []string{"NIFTY  50", "NIFTY\t50", "NIFTY 50/..", strings.Repeat("A", 41), strings.Repeat("AB ", 14) + "C"} {
		if err := ValidateSymbol(sym); err == nil {
			t.Errorf("ValidateSymbol(%q) = nil, want error", sym)
		}
	}
}

func TestMaskCredential(t *testing.T) {
	tests := map[string]string{
		"":                 "",
		"abc":              "***",
		"abcdef":           "ab****",
		"kitefront123456z": "kite********456z",
	}
	for in, want := range tests {
		if got := MaskCredential(in); got != want {
			t.Errorf("MaskCredential(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskSensitive(t *testing.T) {
	in := "POST /session/token api_key=abcd1234efgh request_token=zzzz9999yyyy"
	out := MaskSensitive(in)
	if strings.Contains(out, "abcd1234efgh") || strings.Contains(out, "zzzz9999yyyy") {
		t.Errorf("credentials leaked: %s", out)
	}
	if plain := "GET /portfolio/holdings 200"; MaskSensitive(plain) != plain {
		t.Errorf("text without credentials changed: %s", MaskSensitive(plain))
	}

	header := "Authorization: token myapikey1:myaccesstoken1"
	if strings.Contains(MaskSensitive(header), "myaccesstoken1") {
		t.Errorf("authorization header leaked: %s", MaskSensitive(header))
	}
}

func TestAccessControllerReadOnly(t *testing.T) {
	buf := &bytes.Buffer{}
	audit := NewAuditLoggerWithWriter(nopCloser{buf})
	ac := NewAccessController(true, audit)
	ctx := logging.WithRequestID(context.Background(), "req-1")

	if err := ac.CheckPermission(ctx, OpRead); err != nil {
		t.Errorf("reads must be allowed in read-only mode: %v", err)
	}

	err := ac.CheckPermission(ctx, OpPlaceOrder)
	var roErr *ReadOnlyError
	if !errors.As(err, &roErr) {
		t.Fatalf("expected ReadOnlyError, got %v", err)
	}
	if gwerrors.KindOf(err) != gwerrors.KindReadOnly {
		t.Errorf("KindOf = %s, want READ_ONLY", gwerrors.KindOf(err))
	}

	var event AuditEvent
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &event); err != nil {
		t.Fatalf("audit line is not JSON: %v", err)
	}
	if event.EventType != AuditReadOnlyViolation || event.RequestID != "req-1" {
		t.Errorf("unexpected audit event: %+v", event)
	}

	var nilController *AccessController
	if err := nilController.CheckPermission(ctx, OpPlaceOrder); err != nil {
		t.Errorf("nil controller should allow everything: %v", err)
	}
}

func TestAuditMasksAPIKey(t *testing.T) {
	buf := &bytes.Buffer{}
	audit := NewAuditLoggerWithWriter(nopCloser{buf})

	if err := audit.LogOrderPlaced(context.Background(), "kiteapikey123456", "1001", "INFY", "BUY", 5, "MARKET", "CNC", true, ""); err != nil {
		t.Fatalf("LogOrderPlaced: %v", err)
	}
	if strings.Contains(buf.String(), "kiteapikey123456") {
		t.Errorf("api key written unmasked: %s", buf.String())
	}
}
