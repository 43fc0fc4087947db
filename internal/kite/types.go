package kite

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Auth carries the per-request credentials for authenticated endpoints.
type Auth struct {
	APIKey      string
	AccessToken string
}

func (a Auth) header() string {
	return fmt.Sprintf("token %s:%s", a.APIKey, a.AccessToken)
}

// Session is the result of a request-token exchange.
type Session struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	Email       string `json:"email"`
}

// Holding is a delivery holding as reported by /portfolio/holdings.
type Holding struct {
	Tradingsymbol       string          `json:"tradingsymbol"`
	Exchange            string          `json:"exchange"`
	InstrumentToken     uint32          `json:"instrument_token"`
	ISIN                string          `json:"isin"`
	Product             string          `json:"product"`
	Quantity            int             `json:"quantity"`
	T1Quantity          int             `json:"t1_quantity"`
	AveragePrice        decimal.Decimal `json:"average_price"`
	LastPrice           decimal.Decimal `json:"last_price"`
	ClosePrice          decimal.Decimal `json:"close_price"`
	PnL                 decimal.Decimal `json:"pnl"`
	DayChange           decimal.Decimal `json:"day_change"`
	DayChangePercentage decimal.Decimal `json:"day_change_percentage"`
}

// Order is one entry of the order book or of an order's history.
type Order struct {
	OrderID           string          `json:"order_id"`
	ExchangeOrderID   string          `json:"exchange_order_id"`
	ParentOrderID     string          `json:"parent_order_id"`
	Status            OrderStatus     `json:"status"`
	StatusMessage     string          `json:"status_message"`
	OrderTimestamp    string          `json:"order_timestamp"`
	ExchangeTimestamp string          `json:"exchange_timestamp"`
	Variety           string          `json:"variety"`
	Tradingsymbol     string          `json:"tradingsymbol"`
	Exchange          string          `json:"exchange"`
	InstrumentToken   uint32          `json:"instrument_token"`
	TransactionType   string          `json:"transaction_type"`
	OrderType         string          `json:"order_type"`
	Product           string          `json:"product"`
	Validity          string          `json:"validity"`
	Quantity          int             `json:"quantity"`
	DisclosedQuantity int             `json:"disclosed_quantity"`
	FilledQuantity    int             `json:"filled_quantity"`
	PendingQuantity   int             `json:"pending_quantity"`
	CancelledQuantity int             `json:"cancelled_quantity"`
	Price             decimal.Decimal `json:"price"`
	TriggerPrice      decimal.Decimal `json:"trigger_price"`
	AveragePrice      decimal.Decimal `json:"average_price"`
	Tag               string          `json:"tag"`
}

// OrderResult is returned by a successful placement.
type OrderResult struct {
	OrderID string `json:"order_id"`
}

// OHLC holds the day's open/high/low/close. Close is the previous session's close.
type OHLC struct {
	Open  decimal.Decimal `json:"open"`
	High  decimal.Decimal `json:"high"`
	Low   decimal.Decimal `json:"low"`
	Close decimal.Decimal `json:"close"`
}

// RawQuote is the upstream /quote entry.
type RawQuote struct {
	InstrumentToken   uint32          `json:"instrument_token"`
	Timestamp         string          `json:"timestamp"`
	LastTradeTime     string          `json:"last_trade_time"`
	LastPrice         decimal.Decimal `json:"last_price"`
	Volume            int64           `json:"volume"`
	NetChange         decimal.Decimal `json:"net_change"`
	OHLC              OHLC            `json:"ohlc"`
	UpperCircuitLimit decimal.Decimal `json:"upper_circuit_limit"`
	LowerCircuitLimit decimal.Decimal `json:"lower_circuit_limit"`
}

// Quote is the normalized quote keyed by "EXCHANGE:SYMBOL".
type Quote struct {
	LastPrice     decimal.Decimal `json:"last_price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Volume        int64           `json:"volume"`
	OHLC          OHLC            `json:"ohlc"`
	UpperCircuit  decimal.Decimal `json:"upper_circuit"`
	LowerCircuit  decimal.Decimal `json:"lower_circuit"`
}

// InstrumentKey identifies an instrument for quote requests.
type InstrumentKey struct {
	Exchange      string `json:"exchange"`
	Tradingsymbol string `json:"tradingsymbol"`
}

// String returns the "EXCHANGE:SYMBOL" form used by the quote API.
func (k InstrumentKey) String() string {
	return k.Exchange + ":" + k.Tradingsymbol
}

// Instrument is one row of the instrument catalog. The catalog is text, so
// every column is kept as the string the broker sent.
type Instrument struct {
	InstrumentToken string            `json:"instrument_token"`
	ExchangeToken   string            `json:"exchange_token"`
	Tradingsymbol   string            `json:"tradingsymbol"`
	Name            string            `json:"name"`
	LastPrice       string            `json:"last_price"`
	Expiry          string            `json:"expiry"`
	Strike          string            `json:"strike"`
	TickSize        string            `json:"tick_size"`
	LotSize         string            `json:"lot_size"`
	InstrumentType  string            `json:"instrument_type"`
	Segment         string            `json:"segment"`
	Exchange        string            `json:"exchange"`
	Extra           map[string]string `json:"extra,omitempty"`
}

// AvailableMargin is the "available" block of a margin segment.
type AvailableMargin struct {
	AdhocMargin    decimal.Decimal `json:"adhoc_margin"`
	Cash           decimal.Decimal `json:"cash"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	LiveBalance    decimal.Decimal `json:"live_balance"`
	Collateral     decimal.Decimal `json:"collateral"`
	IntradayPayin  decimal.Decimal `json:"intraday_payin"`
}

// UtilisedMargin is the "utilised" block of a margin segment.
type UtilisedMargin struct {
	Debits        decimal.Decimal `json:"debits"`
	Exposure      decimal.Decimal `json:"exposure"`
	M2MRealised   decimal.Decimal `json:"m2m_realised"`
	M2MUnrealised decimal.Decimal `json:"m2m_unrealised"`
	OptionPremium decimal.Decimal `json:"option_premium"`
	Payout        decimal.Decimal `json:"payout"`
	Span          decimal.Decimal `json:"span"`
	HoldingSales  decimal.Decimal `json:"holding_sales"`
	Turnover      decimal.Decimal `json:"turnover"`
	Delivery      decimal.Decimal `json:"delivery"`
}

// RawSegmentMargin is one segment of /user/margins.
type RawSegmentMargin struct {
	Enabled   bool            `json:"enabled"`
	Net       decimal.Decimal `json:"net"`
	Available AvailableMargin `json:"available"`
	Utilised  UtilisedMargin  `json:"utilised"`
}

// RawMargins is the upstream /user/margins payload.
type RawMargins struct {
	Equity    RawSegmentMargin `json:"equity"`
	Commodity RawSegmentMargin `json:"commodity"`
}

// SegmentMargin keeps the broker's nested blocks and adds two totals.
type SegmentMargin struct {
	Enabled        bool            `json:"enabled"`
	Net            decimal.Decimal `json:"net"`
	Available      AvailableMargin `json:"available"`
	Utilised       UtilisedMargin  `json:"utilised"`
	AvailableTotal decimal.Decimal `json:"available_total"` // cash + collateral
	Used           decimal.Decimal `json:"used"`            // utilised.debits
}

// Margins is the normalized /user/margins payload.
type Margins struct {
	Equity    SegmentMargin `json:"equity"`
	Commodity SegmentMargin `json:"commodity"`
}

// Quantity is an order quantity. Browsers often send it as a string, so both
// 5 and "5" decode.
type Quantity int

func (q *Quantity) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*q = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid quantity %q", s)
	}
	*q = Quantity(n)
	return nil
}
