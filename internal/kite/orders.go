package kite

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
	"github.com/shopspring/decimal"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	gwerrors "zerodha-roast/internal/errors"
)

// OptionalPrice is a price the caller may leave out. JSON null, "" and a
// missing key all leave it unset; numbers and numeric strings set it.
type OptionalPrice struct {
	Value decimal.Decimal
	Valid bool
}

// NewPrice returns a set price.
func NewPrice(d decimal.Decimal) OptionalPrice {
	return OptionalPrice{Value: d, Valid: true}
}

func (p *OptionalPrice) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*p = OptionalPrice{}
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("invalid price %s: %w", s, err)
	}
	*p = OptionalPrice{Value: d, Valid: true}
	return nil
}

func (p OptionalPrice) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return p.Value.MarshalJSON()
}

// IsSet reports whether the price should be sent upstream. Zero counts as
// absent because Kite rejects a zero limit or trigger price.
func (p OptionalPrice) IsSet() bool {
	return p.Valid && !p.Value.IsZero()
}

// OrderParams are the caller-supplied fields of a regular order.
type OrderParams struct {
	Tradingsymbol     string        `json:"tradingsymbol"`
	Exchange          string        `json:"exchange"`
	TransactionType   string        `json:"transaction_type"`
	OrderType         string        `json:"order_type"`
	Quantity          Quantity      `json:"quantity"`
	Product           string        `json:"product,omitempty"`
	Validity          string        `json:"validity,omitempty"`
	Price             OptionalPrice `json:"price"`
	TriggerPrice      OptionalPrice `json:"trigger_price"`
	DisclosedQuantity Quantity      `json:"disclosed_quantity,omitempty"`
	Tag               string        `json:"tag,omitempty"`
}

// orderForm is the wire body of POST /orders/regular. Optional keys are
// dropped entirely when empty.
type orderForm struct {
	Tradingsymbol     string `url:"tradingsymbol"`
	Exchange          string `url:"exchange"`
	TransactionType   string `url:"transaction_type"`
	OrderType         string `url:"order_type"`
	Quantity          int    `url:"quantity"`
	Product           string `url:"product"`
	Validity          string `url:"validity"`
	Price             string `url:"price,omitempty"`
	TriggerPrice      string `url:"trigger_price,omitempty"`
	DisclosedQuantity int    `url:"disclosed_quantity,omitempty"`
	Tag               string `url:"tag,omitempty"`
}

// Validate checks that the required order fields are present.
func (p OrderParams) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Tradingsymbol) == "" {
		missing = append(missing, "tradingsymbol")
	}
	if strings.TrimSpace(p.Exchange) == "" {
		missing = append(missing, "exchange")
	}
	if strings.TrimSpace(p.TransactionType) == "" {
		missing = append(missing, "transaction_type")
	}
	if strings.TrimSpace(p.OrderType) == "" {
		missing = append(missing, "order_type")
	}
	if p.Quantity <= 0 {
		missing = append(missing, "quantity")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", gwerrors.ErrMissingParameters, strings.Join(missing, ", "))
	}
	return nil
}

// WithDefaults fills product (CNC) and validity (DAY) and upper-cases the enums.
func (p OrderParams) WithDefaults() OrderParams {
	p.Tradingsymbol = strings.ToUpper(strings.TrimSpace(p.Tradingsymbol))
	p.Exchange = strings.ToUpper(strings.TrimSpace(p.Exchange))
	p.TransactionType = strings.ToUpper(strings.TrimSpace(p.TransactionType))
	p.OrderType = strings.ToUpper(strings.TrimSpace(p.OrderType))
	p.Product = strings.ToUpper(strings.TrimSpace(p.Product))
	p.Validity = strings.ToUpper(strings.TrimSpace(p.Validity))
	if p.Product == "" {
		p.Product = kiteconnect.ProductCNC
	}
	if p.Validity == "" {
		p.Validity = kiteconnect.ValidityDay
	}
	return p
}

// Form encodes the order as the upstream form body.
func (p OrderParams) Form() (url.Values, error) {
	p = p.WithDefaults()
	f := orderForm{
		Tradingsymbol:     p.Tradingsymbol,
		Exchange:          p.Exchange,
		TransactionType:   p.TransactionType,
		OrderType:         p.OrderType,
		Quantity:          int(p.Quantity),
		Product:           p.Product,
		Validity:          p.Validity,
		DisclosedQuantity: int(p.DisclosedQuantity),
		Tag:               p.Tag,
	}
	if p.Price.IsSet() {
		f.Price = p.Price.Value.String()
	}
	if p.TriggerPrice.IsSet() {
		f.TriggerPrice = p.TriggerPrice.Value.String()
	}

	values, err := query.Values(f)
	if err != nil {
		return nil, fmt.Errorf("encode order form: %w", err)
	}
	return values, nil
}

func (p OrderParams) path() string {
	return pathOrders + "/" + kiteconnect.VarietyRegular
}
