package kite

import (
	"net/url"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

// LoginURL returns the Kite Connect login page for apiKey. redirectParams,
// when set, is passed back to the app's redirect URL after login.
func LoginURL(apiKey, redirectParams string) string {
	u := kiteconnect.New(apiKey).GetLoginURL()
	if redirectParams != "" {
		u += "&redirect_params=" + url.QueryEscape(redirectParams)
	}
	return u
}
