package api

import (
	"net/http"
	"strings"

	gwerrors "zerodha-roast/internal/errors"
	"zerodha-roast/internal/gateway"
	"zerodha-roast/internal/kite"
)

// Handler adapts the gateway service to HTTP.
type Handler struct {
	svc *gateway.Service
}

// NewHandler creates a Handler.
func NewHandler(svc *gateway.Service) *Handler {
	return &Handler{svc: svc}
}

type credentialsRequest struct {
	gateway.Credentials
	Filter string `json:"filter,omitempty"`
}

type placeOrderRequest struct {
	gateway.Credentials
	OrderParams *kite.OrderParams `json:"orderParams"`
}

type quotesRequest struct {
	gateway.Credentials
	Instruments []kite.InstrumentKey `json:"instruments"`
}

type searchRequest struct {
	Query    string `json:"query"`
	Exchange string `json:"exchange"`
}

// Session exchanges a request token: POST /api/session.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	var req gateway.SessionRequest
	if err := ReadJSON(r, &req); err != nil {
		badBody(w, gateway.OpSession, err)
		return
	}
	session, err := h.svc.ExchangeSession(r.Context(), req)
	if err != nil {
		writeError(w, gateway.OpSession, err)
		return
	}
	writeData(w, session)
}

// Holdings lists holdings: POST /api/holdings.
func (h *Handler) Holdings(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := ReadJSON(r, &req); err != nil {
		badBody(w, gateway.OpHoldings, err)
		return
	}
	holdings, err := h.svc.FetchHoldings(r.Context(), req.Credentials)
	if err != nil {
		writeError(w, gateway.OpHoldings, err)
		return
	}
	writeData(w, holdings)
}

// PortfolioSummary returns derived portfolio values: POST /api/portfolio/summary.
func (h *Handler) PortfolioSummary(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := ReadJSON(r, &req); err != nil {
		badBody(w, gateway.OpPortfolio, err)
		return
	}
	summary, err := h.svc.PortfolioSummary(r.Context(), req.Credentials)
	if err != nil {
		writeError(w, gateway.OpPortfolio, err)
		return
	}
	writeData(w, summary)
}

func parseFilter(op, raw string) (kite.OrderFilter, error) {
	f, ok := kite.ParseOrderFilter(strings.ToLower(strings.TrimSpace(raw)))
	if !ok {
		return "", gwerrors.InvalidRequest(op, gateway.MsgInvalidFilter, nil)
	}
	return f, nil
}

// Orders lists the day's orders: POST /api/orders.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := ReadJSON(r, &req); err != nil {
		badBody(w, gateway.OpOrders, err)
		return
	}
	h.listOrders(w, r, req.Credentials, req.Filter)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request, creds gateway.Credentials, rawFilter string) {
	filter, err := parseFilter(gateway.OpOrders, rawFilter)
	if err != nil {
		writeError(w, gateway.OpOrders, err)
		return
	}
	orders, err := h.svc.FetchOrders(r.Context(), creds, filter)
	if err != nil {
		writeError(w, gateway.OpOrders, err)
		return
	}
	writeData(w, orders)
}

// Order returns one order, or all orders without orderId:
// GET /api/orders?apiKey=&accessToken=&orderId=.
func (h *Handler) Order(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	creds := gateway.Credentials{
		APIKey:      q.Get("apiKey"),
		AccessToken: q.Get("accessToken"),
	}

	orderID := q.Get("orderId")
	if strings.TrimSpace(orderID) == "" {
		h.listOrders(w, r, creds, q.Get("filter"))
		return
	}

	detail, err := h.svc.FetchOrder(r.Context(), creds, orderID)
	if err != nil {
		writeError(w, gateway.OpOrder, err)
		return
	}
	WriteJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data:    detail.Order,
		History: detail.History,
	})
}

// PlaceOrder places a regular order: POST /api/place-order.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := ReadJSON(r, &req); err != nil {
		badBody(w, gateway.OpPlaceOrder, err)
		return
	}
	result, err := h.svc.PlaceOrder(r.Context(), req.Credentials, req.OrderParams)
	if err != nil {
		writeError(w, gateway.OpPlaceOrder, err)
		return
	}
	WriteJSON(w, http.StatusOK, Envelope{
		Success: true,
		OrderID: result.OrderID,
		Message: gateway.MsgOrderPlaced,
	})
}

// Quotes fetches quotes for a batch of instruments: POST /api/quotes.
func (h *Handler) Quotes(w http.ResponseWriter, r *http.Request) {
	var req quotesRequest
	if err := ReadJSON(r, &req); err != nil {
		badBody(w, gateway.OpQuotes, err)
		return
	}
	quotes, err := h.svc.FetchQuotes(r.Context(), req.Credentials, req.Instruments)
	if err != nil {
		writeError(w, gateway.OpQuotes, err)
		return
	}
	writeData(w, quotes)
}

// SearchInstruments searches equity symbols: POST /api/instruments.
func (h *Handler) SearchInstruments(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := ReadJSON(r, &req); err != nil {
		badBody(w, gateway.OpSearch, err)
		return
	}
	results, err := h.svc.SearchInstruments(r.Context(), req.Query, req.Exchange)
	if err != nil {
		writeError(w, gateway.OpSearch, err)
		return
	}
	writeData(w, results)
}

// ListInstruments lists equity instruments: GET /api/instruments?exchange=.
func (h *Handler) ListInstruments(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListInstruments(r.Context(), r.URL.Query().Get("exchange"))
	if err != nil {
		writeError(w, gateway.OpInstruments, err)
		return
	}
	writeData(w, list)
}

// Margins returns account margins: POST /api/margins.
func (h *Handler) Margins(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := ReadJSON(r, &req); err != nil {
		badBody(w, gateway.OpMargins, err)
		return
	}
	margins, err := h.svc.FetchMargins(r.Context(), req.Credentials)
	if err != nil {
		writeError(w, gateway.OpMargins, err)
		return
	}
	writeData(w, margins)
}

// LoginURL builds the broker login URL: GET /api/login-url?apiKey=&redirect=.
func (h *Handler) LoginURL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	u, err := h.svc.LoginURL(r.Context(), q.Get("apiKey"), q.Get("redirect"))
	if err != nil {
		writeError(w, gateway.OpLoginURL, err)
		return
	}
	writeData(w, map[string]string{"login_url": u})
}

// Health reports liveness. It never calls the broker.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]string{"status": "ok"})
}

// NotFound answers unknown routes with the envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, Envelope{Success: false, Error: "Not found"})
}

// MethodNotAllowed answers known routes called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusMethodNotAllowed, Envelope{Success: false, Error: "Method not allowed"})
}
