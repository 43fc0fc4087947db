package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
		client bool
	}{
		{KindMissingCredentials, http.StatusBadRequest, true},
		{KindInvalidRequest, http.StatusBadRequest, true},
		{KindUpstreamRejected, http.StatusBadRequest, true},
		{KindReadOnly, http.StatusForbidden, true},
		{KindUpstreamUnreachable, http.StatusBadGateway, false},
		{KindUnexpectedFailure, http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.HTTPStatus(); got != tt.status {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.status)
			}
			if got := tt.kind.IsClientError(); got != tt.client {
				t.Errorf("IsClientError() = %v, want %v", got, tt.client)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	rejected := NewRejected("GET", "/portfolio/holdings", 403, "Incorrect api_key", "TokenException")
	unreachable := NewUnreachable("GET", "/orders", 0, fmt.Errorf("dial tcp: refused"))

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"gateway error", MissingCredentials("holdings", "Missing credentials"), KindMissingCredentials},
		{"wrapped gateway error", fmt.Errorf("outer: %w", InvalidRequest("search", "Query too short", ErrQueryTooShort)), KindInvalidRequest},
		{"rejected", rejected, KindUpstreamRejected},
		{"unreachable", fmt.Errorf("call: %w", unreachable), KindUpstreamUnreachable},
		{"sentinel read only", Wrap(ErrReadOnlyMode, "place order"), KindReadOnly},
		{"plain error", fmt.Errorf("boom"), KindUnexpectedFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUpstreamErrorUnwrap(t *testing.T) {
	err := NewRejected("POST", "/session/token", 403, "Invalid checksum", "TokenException")
	if !Is(err, ErrUpstreamRejected) {
		t.Error("rejected error should unwrap to ErrUpstreamRejected")
	}

	down := NewUnreachable("GET", "/quote", 502, nil)
	if !Is(down, ErrUpstreamDown) {
		t.Error("unreachable error without cause should unwrap to ErrUpstreamDown")
	}
}
