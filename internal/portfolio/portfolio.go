// Package portfolio derives per-holding and account-level values from the
// broker's holdings. Nothing here is stored; every value is recomputed from
// the holdings passed in.
package portfolio

import (
	"sort"

	"github.com/shopspring/decimal"

	"zerodha-roast/internal/kite"
)

var hundred = decimal.NewFromInt(100)

// Position is a holding with its derived values.
type Position struct {
	kite.Holding
	InvestedValue decimal.Decimal `json:"invested_value"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	PnLPercent    decimal.Decimal `json:"pnl_percent"`
}

// Summary aggregates an account's holdings.
type Summary struct {
	Positions     []Position      `json:"positions"`
	Count         int             `json:"count"`
	InvestedValue decimal.Decimal `json:"invested_value"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	TotalPnL      decimal.Decimal `json:"total_pnl"`
	PnLPercent    decimal.Decimal `json:"pnl_percent"`
	DayChange     decimal.Decimal `json:"day_change"`
	Gainers       int             `json:"gainers"`
	Losers        int             `json:"losers"`
}

// Percent returns part/whole*100 rounded to two places, or 0 when whole is 0.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).DivRound(whole, 2)
}

// Derive computes invested value, current value and P&L percent for h.
func Derive(h kite.Holding) Position {
	qty := decimal.NewFromInt(int64(h.Quantity))
	invested := h.AveragePrice.Mul(qty)
	return Position{
		Holding:       h,
		InvestedValue: invested,
		CurrentValue:  h.LastPrice.Mul(qty),
		PnLPercent:    Percent(h.PnL, invested),
	}
}

// Summarize derives every position and the account totals. Positions are
// sorted by P&L, best first.
func Summarize(holdings []kite.Holding) Summary {
	s := Summary{
		Positions:     make([]Position, 0, len(holdings)),
		InvestedValue: decimal.Zero,
		CurrentValue:  decimal.Zero,
		TotalPnL:      decimal.Zero,
		DayChange:     decimal.Zero,
	}

	for _, h := range holdings {
		p := Derive(h)
		s.Positions = append(s.Positions, p)
		s.InvestedValue = s.InvestedValue.Add(p.InvestedValue)
		s.CurrentValue = s.CurrentValue.Add(p.CurrentValue)
		s.TotalPnL = s.TotalPnL.Add(h.PnL)
		s.DayChange = s.DayChange.Add(h.DayChange.Mul(decimal.NewFromInt(int64(h.Quantity))))
		switch h.PnL.Sign() {
		case 1:
			s.Gainers++
		case -1:
			s.Losers++
		}
	}

	sort.SliceStable(s.Positions, func(i, j int) bool {
		return s.Positions[i].PnL.GreaterThan(s.Positions[j].PnL)
	})

	s.Count = len(s.Positions)
	s.PnLPercent = Percent(s.TotalPnL, s.InvestedValue)
	return s
}
