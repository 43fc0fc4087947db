package kite

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// NormalizeHoldings never returns nil, so an empty account encodes as [].
func NormalizeHoldings(in []Holding) []Holding {
	if in == nil {
		return []Holding{}
	}
	return in
}

// NormalizeOrders never returns nil, so an empty order book encodes as [].
func NormalizeOrders(in []Order) []Order {
	if in == nil {
		return []Order{}
	}
	return in
}

// NormalizeQuote derives change and change percent against the previous close.
// A zero close yields a zero percentage.
func NormalizeQuote(raw RawQuote) Quote {
	change := raw.LastPrice.Sub(raw.OHLC.Close)
	changePercent := decimal.Zero
	if !raw.OHLC.Close.IsZero() {
		changePercent = change.Mul(hundred).DivRound(raw.OHLC.Close, 4)
	}
	return Quote{
		LastPrice:     raw.LastPrice,
		Change:        change,
		ChangePercent: changePercent,
		Volume:        raw.Volume,
		OHLC:          raw.OHLC,
		UpperCircuit:  raw.UpperCircuitLimit,
		LowerCircuit:  raw.LowerCircuitLimit,
	}
}

// NormalizeQuotes applies NormalizeQuote to every "EXCHANGE:SYMBOL" entry.
func NormalizeQuotes(raw map[string]RawQuote) map[string]Quote {
	out := make(map[string]Quote, len(raw))
	for key, q := range raw {
		out[key] = NormalizeQuote(q)
	}
	return out
}

func normalizeSegment(raw RawSegmentMargin) SegmentMargin {
	return SegmentMargin{
		Enabled:        raw.Enabled,
		Net:            raw.Net,
		Available:      raw.Available,
		Utilised:       raw.Utilised,
		AvailableTotal: raw.Available.Cash.Add(raw.Available.Collateral),
		Used:           raw.Utilised.Debits,
	}
}

// NormalizeMargins passes the nested blocks through and derives
// available_total and used for each segment.
func NormalizeMargins(raw RawMargins) Margins {
	return Margins{
		Equity:    normalizeSegment(raw.Equity),
		Commodity: normalizeSegment(raw.Commodity),
	}
}
