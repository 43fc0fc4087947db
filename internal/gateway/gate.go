package gateway

import (
	"fmt"
	"strings"

	gwerrors "zerodha-roast/internal/errors"
	"zerodha-roast/internal/kite"
)

// Credentials authenticate every call except the session exchange. They
// arrive with each request and are never stored.
type Credentials struct {
	APIKey      string `json:"apiKey"`
	AccessToken string `json:"accessToken"`
}

// Validate fails when either field is empty or whitespace.
func (c Credentials) Validate() error {
	var missing []string
	if blank(c.APIKey) {
		missing = append(missing, "apiKey")
	}
	if blank(c.AccessToken) {
		missing = append(missing, "accessToken")
	}
	return missingErr(missing)
}

// Auth converts the credentials for the upstream client.
func (c Credentials) Auth() kite.Auth {
	return kite.Auth{
		APIKey:      strings.TrimSpace(c.APIKey),
		AccessToken: strings.TrimSpace(c.AccessToken),
	}
}

// SessionRequest is the input of the request-token exchange.
type SessionRequest struct {
	APIKey       string `json:"apiKey"`
	APISecret    string `json:"apiSecret"`
	RequestToken string `json:"requestToken"`
}

// Validate fails when any of the three fields is empty or whitespace.
func (r SessionRequest) Validate() error {
	var missing []string
	if blank(r.APIKey) {
		missing = append(missing, "apiKey")
	}
	if blank(r.APISecret) {
		missing = append(missing, "apiSecret")
	}
	if blank(r.RequestToken) {
		missing = append(missing, "requestToken")
	}
	return missingErr(missing)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func missingErr(fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", gwerrors.ErrMissingCredentials, strings.Join(fields, ", "))
}
