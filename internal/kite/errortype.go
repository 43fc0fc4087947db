package kite

import (
	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	gwerrors "zerodha-roast/internal/errors"
)

// ErrorType returns the upstream error_type carried by err, if any.
func ErrorType(err error) string {
	var upErr *gwerrors.UpstreamError
	if gwerrors.As(err, &upErr) {
		return upErr.ErrorType
	}
	var gwErr *gwerrors.GatewayError
	if gwerrors.As(err, &gwErr) {
		return gwErr.ErrorType
	}
	return ""
}

// IsTokenError reports whether the broker refused the access token, which
// means the caller has to log in again.
func IsTokenError(err error) bool {
	return ErrorType(err) == kiteconnect.TokenError
}
