package kite

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	gwerrors "zerodha-roast/internal/errors"
)

type recordedCall struct {
	method, endpoint, outcome string
	status                    int
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (o *recordingObserver) ObserveUpstream(method, endpoint string, status int, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, recordedCall{method, endpoint, outcome, status})
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(append([]Option{WithBaseURL(srv.URL)}, opts...)...)
}

var testAuth = Auth{APIKey: "key1", AccessToken: "tok1"}

func TestGetHoldingsSendsHeaders(t *testing.T) {
	obs := &recordingObserver{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/portfolio/holdings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "token key1:tok1" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Kite-Version"); got != "3" {
			t.Errorf("X-Kite-Version = %q", got)
		}
		io.WriteString(w, `{"status":"success","data":[{"tradingsymbol":"INFY","exchange":"NSE","quantity":5,"average_price":1500.5,"last_price":1600,"pnl":497.5}]}`)
	}, WithObserver(obs))

	holdings, err := c.GetHoldings(context.Background(), testAuth)
	if err != nil {
		t.Fatalf("GetHoldings() error = %v", err)
	}
	if len(holdings) != 1 || holdings[0].Tradingsymbol != "INFY" || holdings[0].Quantity != 5 {
		t.Fatalf("holdings = %+v", holdings)
	}
	if !holdings[0].AveragePrice.Equal(decimal.RequireFromString("1500.5")) {
		t.Errorf("average_price = %s", holdings[0].AveragePrice)
	}
	if len(obs.calls) != 1 || obs.calls[0].outcome != OutcomeSuccess || obs.calls[0].endpoint != "/portfolio/holdings" {
		t.Errorf("observer calls = %+v", obs.calls)
	}
}

func TestEmptyListsAreNotNil(t *testing.T) {
	for _, body := range []string{
		`{"status":"success","data":null}`,
		`{"status":"success","data":[]}`,
		`{"status":"success"}`,
	} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		})
		holdings, err := c.GetHoldings(context.Background(), testAuth)
		if err != nil || holdings == nil || len(holdings) != 0 {
			t.Errorf("GetHoldings(%s) = %v, %v; want empty non-nil", body, holdings, err)
		}
		orders, err := c.GetOrders(context.Background(), testAuth)
		if err != nil || orders == nil || len(orders) != 0 {
			t.Errorf("GetOrders(%s) = %v, %v; want empty non-nil", body, orders, err)
		}
	}
}

func TestRejectionCarriesUpstreamMessage(t *testing.T) {
	obs := &recordingObserver{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"status":"error","message":"Incorrect api_key or access_token.","error_type":"TokenException"}`)
	}, WithObserver(obs))

	_, err := c.GetOrders(context.Background(), testAuth)
	if gwerrors.KindOf(err) != gwerrors.KindUpstreamRejected {
		t.Fatalf("KindOf = %q, want rejected (err %v)", gwerrors.KindOf(err), err)
	}
	var upErr *gwerrors.UpstreamError
	if !gwerrors.As(err, &upErr) || upErr.Message != "Incorrect api_key or access_token." || upErr.StatusCode != 403 {
		t.Errorf("upstream error = %+v", upErr)
	}
	if !IsTokenError(err) {
		t.Error("IsTokenError should be true for TokenException")
	}
	if obs.calls[0].outcome != OutcomeRejected {
		t.Errorf("outcome = %s", obs.calls[0].outcome)
	}
}

func TestRejectionOnHTTP200(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"error","message":"Insufficient funds","error_type":"OrderException"}`)
	})
	_, err := c.GetMargins(context.Background(), testAuth)
	if gwerrors.KindOf(err) != gwerrors.KindUpstreamRejected {
		t.Errorf("KindOf = %q, want rejected", gwerrors.KindOf(err))
	}
	if got := ErrorType(err); got != "OrderException" {
		t.Errorf("ErrorType = %q, want OrderException", got)
	}
}

func TestGetMargins(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/user/margins" {
			t.Errorf("%s %s, want GET /user/margins", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "token key1:tok1" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Kite-Version"); got != "3" {
			t.Errorf("X-Kite-Version = %q", got)
		}
		io.WriteString(w, `{"status":"success","data":{
			"equity":{"enabled":true,"net":9800,
				"available":{"cash":8000,"collateral":2000,"live_balance":9800,"intraday_payin":500},
				"utilised":{"debits":200,"exposure":150}},
			"commodity":{"enabled":false,"net":0,"available":{},"utilised":{}}}}`)
	})

	m, err := c.GetMargins(context.Background(), testAuth)
	if err != nil {
		t.Fatalf("GetMargins() error = %v", err)
	}
	if !m.Equity.Available.LiveBalance.Equal(decimal.NewFromInt(9800)) {
		t.Errorf("available.live_balance = %s", m.Equity.Available.LiveBalance)
	}
	if !m.Equity.Available.IntradayPayin.Equal(decimal.NewFromInt(500)) {
		t.Errorf("available.intraday_payin = %s", m.Equity.Available.IntradayPayin)
	}
	if !m.Equity.AvailableTotal.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("available_total = %s, want 10000", m.Equity.AvailableTotal)
	}
	if !m.Equity.Utilised.Exposure.Equal(decimal.NewFromInt(150)) || !m.Equity.Used.Equal(decimal.NewFromInt(200)) {
		t.Errorf("utilised = %+v used = %s", m.Equity.Utilised, m.Equity.Used)
	}
	if m.Commodity.Enabled {
		t.Error("commodity should be disabled")
	}
}

func TestNonJSONIsUnreachable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "<html>502 Bad Gateway</html>")
	})
	_, err := c.GetHoldings(context.Background(), testAuth)
	if gwerrors.KindOf(err) != gwerrors.KindUpstreamUnreachable {
		t.Fatalf("KindOf = %q, want unreachable", gwerrors.KindOf(err))
	}
	if !gwerrors.Is(err, gwerrors.ErrMalformedPayload) {
		t.Errorf("err = %v, want ErrMalformedPayload in chain", err)
	}
}

func TestWrongDataShapeIsUnreachable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"success","data":{"not":"a list"}}`)
	})
	_, err := c.GetHoldings(context.Background(), testAuth)
	if gwerrors.KindOf(err) != gwerrors.KindUpstreamUnreachable {
		t.Errorf("KindOf = %q, want unreachable", gwerrors.KindOf(err))
	}
}

func TestTransportFailureIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := NewClient(WithBaseURL(base))
	_, err := c.GetHoldings(context.Background(), testAuth)
	if gwerrors.KindOf(err) != gwerrors.KindUpstreamUnreachable {
		t.Errorf("KindOf = %q, want unreachable", gwerrors.KindOf(err))
	}
}

func TestCancelledContextAbandonsCall(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GetOrders(ctx, testAuth)
	if gwerrors.KindOf(err) != gwerrors.KindUpstreamUnreachable {
		t.Errorf("KindOf = %q, want unreachable", gwerrors.KindOf(err))
	}
}

func TestGenerateSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/session/token" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("session exchange must not send Authorization")
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("api_key") != "K" || r.PostForm.Get("request_token") != "R" {
			t.Errorf("form = %v", r.PostForm)
		}
		if r.PostForm.Get("checksum") != Checksum("K", "R", "S") {
			t.Errorf("checksum = %q", r.PostForm.Get("checksum"))
		}
		if r.PostForm.Has("api_secret") {
			t.Error("secret must never leave the gateway")
		}
		io.WriteString(w, `{"status":"success","data":{"access_token":"T1","user_id":"U1","user_name":"Asha","email":"a@example.com","public_token":"P","login_time":"2024-01-01 09:00:00"}}`)
	})

	s, err := c.GenerateSession(context.Background(), "K", "R", "S")
	if err != nil {
		t.Fatalf("GenerateSession() error = %v", err)
	}
	want := Session{AccessToken: "T1", UserID: "U1", UserName: "Asha", Email: "a@example.com"}
	if *s != want {
		t.Errorf("session = %+v, want %+v", *s, want)
	}
}

func TestGetQuotesSingleCall(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		got := r.URL.Query()["i"]
		if len(got) != 2 || got[0] != "NSE:INFY" || got[1] != "BSE:TCS" {
			t.Errorf("i = %v", got)
		}
		io.WriteString(w, `{"status":"success","data":{
			"NSE:INFY":{"last_price":110,"volume":1200,"ohlc":{"open":101,"high":112,"low":99,"close":100},"upper_circuit_limit":121,"lower_circuit_limit":99},
			"BSE:TCS":{"last_price":50,"ohlc":{"close":0}}}}`)
	})

	quotes, err := c.GetQuotes(context.Background(), testAuth, []InstrumentKey{
		{Exchange: "NSE", Tradingsymbol: "INFY"},
		{Exchange: "BSE", Tradingsymbol: "TCS"},
	})
	if err != nil {
		t.Fatalf("GetQuotes() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1", calls)
	}
	infy := quotes["NSE:INFY"]
	if !infy.Change.Equal(decimal.NewFromInt(10)) || !infy.ChangePercent.Equal(decimal.NewFromInt(10)) {
		t.Errorf("INFY change = %s (%s%%)", infy.Change, infy.ChangePercent)
	}
	if !infy.UpperCircuit.Equal(decimal.NewFromInt(121)) || infy.Volume != 1200 {
		t.Errorf("INFY = %+v", infy)
	}
	if !quotes["BSE:TCS"].ChangePercent.IsZero() {
		t.Errorf("TCS change_percent = %s, want 0", quotes["BSE:TCS"].ChangePercent)
	}
}

func TestPlaceOrderForm(t *testing.T) {
	var form url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/regular" {
			t.Errorf("path = %s", r.URL.Path)
		}
		r.ParseForm()
		form = r.PostForm
		io.WriteString(w, `{"status":"success","data":{"order_id":"151220000000000"}}`)
	})

	res, err := c.PlaceOrder(context.Background(), testAuth, OrderParams{
		Tradingsymbol:   "infy",
		Exchange:        "NSE",
		TransactionType: "BUY",
		OrderType:       "MARKET",
		Quantity:        1,
	})
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	if res.OrderID != "151220000000000" {
		t.Errorf("order_id = %s", res.OrderID)
	}
	for _, key := range []string{"price", "trigger_price"} {
		if form.Has(key) {
			t.Errorf("form must not contain %s: %v", key, form)
		}
	}
	if form.Get("product") != "CNC" || form.Get("validity") != "DAY" || form.Get("tradingsymbol") != "INFY" {
		t.Errorf("form = %v", form)
	}
}

func TestGetInstruments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/instruments/NSE" {
			t.Errorf("path = %s", r.URL.Path)
		}
		io.WriteString(w, "tradingsymbol,exchange,segment\nINFY,NSE,EQ\nNIFTY24JANFUT,NFO,FUT\n")
	})
	list, err := c.GetInstruments(context.Background(), nil, "", ParseOptions{})
	if err != nil {
		t.Fatalf("GetInstruments() error = %v", err)
	}
	if len(list) != 2 {
		t.Errorf("len = %d, want 2 before filtering", len(list))
	}
}

func TestGetInstrumentsJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"status":"error","message":"Invalid exchange","error_type":"InputException"}`)
	})
	_, err := c.GetInstruments(context.Background(), nil, "XYZ", ParseOptions{})
	if gwerrors.KindOf(err) != gwerrors.KindUpstreamRejected {
		t.Errorf("KindOf = %q, want rejected", gwerrors.KindOf(err))
	}
}

func TestGetInstrumentsHTMLIsUnreachable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>maintenance</html>")
	})
	_, err := c.GetInstruments(context.Background(), nil, "NSE", ParseOptions{})
	if gwerrors.KindOf(err) != gwerrors.KindUpstreamUnreachable {
		t.Errorf("KindOf = %q, want unreachable", gwerrors.KindOf(err))
	}
}

func TestGetOrderHistoryPath(t *testing.T) {
	obs := &recordingObserver{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/220101000000001" {
			t.Errorf("path = %s", r.URL.Path)
		}
		io.WriteString(w, `{"status":"success","data":[{"order_id":"220101000000001","status":"OPEN"},{"order_id":"220101000000001","status":"COMPLETE"}]}`)
	}, WithObserver(obs))

	history, err := c.GetOrderHistory(context.Background(), testAuth, "220101000000001")
	if err != nil {
		t.Fatal(err)
	}
	latest, ok := LatestState(history)
	if !ok || latest.Status != StatusComplete {
		t.Errorf("latest = %+v", latest)
	}
	if obs.calls[0].endpoint != "/orders/{order_id}" {
		t.Errorf("endpoint label = %s", obs.calls[0].endpoint)
	}
}
