package kite

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	gwerrors "zerodha-roast/internal/errors"
)

// GenerateSession exchanges a request token for an access token. The call
// carries a signed form body and no Authorization header.
func (c *Client) GenerateSession(ctx context.Context, apiKey, requestToken, apiSecret string) (*Session, error) {
	form := url.Values{}
	form.Set("api_key", apiKey)
	form.Set("request_token", requestToken)
	form.Set("checksum", Checksum(apiKey, requestToken, apiSecret))

	var session Session
	err := c.doJSON(ctx, request{
		method:   http.MethodPost,
		path:     pathSessionToken,
		endpoint: pathSessionToken,
		form:     form,
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetHoldings returns the account's delivery holdings.
func (c *Client) GetHoldings(ctx context.Context, auth Auth) ([]Holding, error) {
	var holdings []Holding
	err := c.doJSON(ctx, request{
		method:   http.MethodGet,
		path:     pathHoldings,
		endpoint: pathHoldings,
		auth:     &auth,
	}, &holdings)
	if err != nil {
		return nil, err
	}
	return NormalizeHoldings(holdings), nil
}

// GetOrders returns the day's order book.
func (c *Client) GetOrders(ctx context.Context, auth Auth) ([]Order, error) {
	var orders []Order
	err := c.doJSON(ctx, request{
		method:   http.MethodGet,
		path:     pathOrders,
		endpoint: pathOrders,
		auth:     &auth,
	}, &orders)
	if err != nil {
		return nil, err
	}
	return NormalizeOrders(orders), nil
}

// GetOrderHistory returns every state an order went through, oldest first.
func (c *Client) GetOrderHistory(ctx context.Context, auth Auth, orderID string) ([]Order, error) {
	var history []Order
	err := c.doJSON(ctx, request{
		method:   http.MethodGet,
		path:     pathOrders + "/" + url.PathEscape(orderID),
		endpoint: pathOrders + "/{order_id}",
		auth:     &auth,
	}, &history)
	if err != nil {
		return nil, err
	}
	return NormalizeOrders(history), nil
}

// PlaceOrder places a regular order.
func (c *Client) PlaceOrder(ctx context.Context, auth Auth, params OrderParams) (*OrderResult, error) {
	form, err := params.Form()
	if err != nil {
		return nil, err
	}

	var result OrderResult
	err = c.doJSON(ctx, request{
		method:   http.MethodPost,
		path:     params.path(),
		endpoint: pathOrders + "/{variety}",
		auth:     &auth,
		form:     form,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetQuotes fetches full quotes for every key in a single call.
func (c *Client) GetQuotes(ctx context.Context, auth Auth, keys []InstrumentKey) (map[string]Quote, error) {
	query := url.Values{}
	for _, k := range keys {
		query.Add("i", k.String())
	}

	var raw map[string]RawQuote
	err := c.doJSON(ctx, request{
		method:   http.MethodGet,
		path:     pathQuote,
		endpoint: pathQuote,
		auth:     &auth,
		query:    query,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return NormalizeQuotes(raw), nil
}

// GetMargins returns the account's equity and commodity margins.
func (c *Client) GetMargins(ctx context.Context, auth Auth) (*Margins, error) {
	var raw RawMargins
	err := c.doJSON(ctx, request{
		method:   http.MethodGet,
		path:     pathMargins,
		endpoint: pathMargins,
		auth:     &auth,
	}, &raw)
	if err != nil {
		return nil, err
	}
	m := NormalizeMargins(raw)
	return &m, nil
}

// GetInstruments downloads and parses the catalog of one exchange. The
// catalog endpoint is public, so auth may be nil.
func (c *Client) GetInstruments(ctx context.Context, auth *Auth, exchange string, opts ParseOptions) ([]Instrument, error) {
	exchange = strings.ToUpper(strings.TrimSpace(exchange))
	if exchange == "" {
		exchange = DefaultExchange
	}

	req := request{
		method:   http.MethodGet,
		path:     pathInstruments + "/" + url.PathEscape(exchange),
		endpoint: pathInstruments + "/{exchange}",
		auth:     auth,
	}
	body, err := c.doCSV(ctx, req)
	if err != nil {
		return nil, err
	}

	instruments, err := ParseInstruments(bytes.NewReader(body), opts)
	if err != nil {
		return nil, gwerrors.NewUnreachable(req.method, req.endpoint, http.StatusOK, err)
	}
	return instruments, nil
}
