// Package kite talks to the Zerodha Kite Connect REST API and normalizes its payloads.
//
// The package is split along the request pipeline: checksum.go signs the
// request-token exchange, client.go issues the HTTP calls and classifies
// failures, and normalize.go / instruments.go turn upstream payloads into the
// gateway's stable schema (types.go).
package kite

import (
	"github.com/shopspring/decimal"
)

const (
	// DefaultBaseURL is the Kite Connect API root.
	DefaultBaseURL = "https://api.kite.trade"
	// APIVersion is sent as the X-Kite-Version header on every call.
	APIVersion = "3"

	DefaultExchange = "NSE"
	// EquitySegment is the catalog segment kept by instrument listing and search.
	EquitySegment = "EQ"
	// DefaultSearchLimit caps instrument search results.
	DefaultSearchLimit = 20
)

// Upstream paths.
const (
	pathSessionToken = "/session/token"
	pathHoldings     = "/portfolio/holdings"
	pathOrders       = "/orders"
	pathQuote        = "/quote"
	pathInstruments  = "/instruments"
	pathMargins      = "/user/margins"
)

func init() {
	// Prices travel as JSON numbers, the same way Kite sends them.
	decimal.MarshalJSONWithoutQuotes = true
}
