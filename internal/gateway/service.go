// Package gateway implements the broker gateway operations: credential
// gating, one upstream call per operation and error classification into the
// caller-facing taxonomy.
package gateway

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	gwerrors "zerodha-roast/internal/errors"
	"zerodha-roast/internal/kite"
	"zerodha-roast/internal/logging"
	"zerodha-roast/internal/security"
)

// Operation names, used in errors, logs and metrics.
const (
	OpSession     = "session"
	OpHoldings    = "holdings"
	OpOrders      = "orders"
	OpOrder       = "order"
	OpPlaceOrder  = "place_order"
	OpQuotes      = "quotes"
	OpSearch      = "instrument_search"
	OpInstruments = "instruments"
	OpMargins     = "margins"
	OpPortfolio   = "portfolio_summary"
	OpLoginURL    = "login_url"
)

// Caller-facing messages.
const (
	MsgMissingParameters   = "Missing parameters"
	MsgMissingCredentials  = "Missing credentials"
	MsgTokenExchangeFailed = "Token exchange failed"
	MsgQueryTooShort       = "Query too short"
	MsgInvalidOrderID      = "Invalid order ID"
	MsgInvalidInstrument   = "Invalid instrument"
	MsgInvalidFilter       = "Invalid order filter"
	MsgReadOnly            = "Order placement is disabled in read-only mode"
	MsgOrderPlaced         = "Order placed successfully"
	MsgOrderNotFound       = "Order not found"
)

// failureMessages is the fallback for upstream failures that carry no message.
var failureMessages = map[string]string{
	OpSession:     MsgTokenExchangeFailed,
	OpHoldings:    "Failed to fetch holdings",
	OpOrders:      "Failed to fetch orders",
	OpOrder:       "Failed to fetch order",
	OpPlaceOrder:  "Order placement failed",
	OpQuotes:      "Failed to fetch quotes",
	OpSearch:      "Failed to fetch instruments",
	OpInstruments: "Failed to fetch instruments",
	OpMargins:     "Failed to fetch margins",
	OpPortfolio:   "Failed to fetch holdings",
}

// credentialMessages is what a caller sees when the gate refuses a request.
var credentialMessages = map[string]string{
	OpSession:    MsgMissingParameters,
	OpPlaceOrder: MsgMissingParameters,
	OpQuotes:     MsgMissingParameters,
}

// Upstream is the broker API as seen by the gateway.
type Upstream interface {
	GenerateSession(ctx context.Context, apiKey, requestToken, apiSecret string) (*kite.Session, error)
	GetHoldings(ctx context.Context, auth kite.Auth) ([]kite.Holding, error)
	GetOrders(ctx context.Context, auth kite.Auth) ([]kite.Order, error)
	GetOrderHistory(ctx context.Context, auth kite.Auth, orderID string) ([]kite.Order, error)
	PlaceOrder(ctx context.Context, auth kite.Auth, params kite.OrderParams) (*kite.OrderResult, error)
	GetQuotes(ctx context.Context, auth kite.Auth, keys []kite.InstrumentKey) (map[string]kite.Quote, error)
	GetInstruments(ctx context.Context, auth *kite.Auth, exchange string, opts kite.ParseOptions) ([]kite.Instrument, error)
	GetMargins(ctx context.Context, auth kite.Auth) (*kite.Margins, error)
}

// OperationObserver is notified once per operation with the result kind
// ("" on success).
type OperationObserver interface {
	ObserveOperation(operation, result string)
}

// Config tunes the instrument operations.
type Config struct {
	DefaultExchange   string
	StrictInstruments bool
	SearchLimit       int
	MinQueryLength    int
}

// DefaultConfig returns the gateway defaults.
func DefaultConfig() Config {
	return Config{
		DefaultExchange: kite.DefaultExchange,
		SearchLimit:     kite.DefaultSearchLimit,
		MinQueryLength:  2,
	}
}

// Service runs the gateway operations. It holds only immutable
// configuration, so one Service is shared by all requests.
type Service struct {
	upstream Upstream
	cfg      Config
	access   *security.AccessController
	audit    *security.AuditLogger
	observer OperationObserver
	logger   zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithAccessController installs the read-only gate.
func WithAccessController(ac *security.AccessController) Option {
	return func(s *Service) { s.access = ac }
}

// WithAuditLogger records session exchanges and order placements.
func WithAuditLogger(al *security.AuditLogger) Option {
	return func(s *Service) { s.audit = al }
}

// WithObserver installs an operation observer.
func WithObserver(o OperationObserver) Option {
	return func(s *Service) { s.observer = o }
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a gateway service.
func NewService(upstream Upstream, cfg Config, opts ...Option) *Service {
	def := DefaultConfig()
	if cfg.DefaultExchange == "" {
		cfg.DefaultExchange = def.DefaultExchange
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = def.SearchLimit
	}
	if cfg.MinQueryLength <= 0 {
		cfg.MinQueryLength = def.MinQueryLength
	}

	s := &Service{
		upstream: upstream,
		cfg:      cfg,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) loggerFor(ctx context.Context, op string) zerolog.Logger {
	l := logging.FromContext(ctx)
	if l.GetLevel() == zerolog.Disabled {
		l = s.logger
	}
	return logging.WithOperation(l, op)
}

// finish classifies err for op, logs it and reports it to the observer.
func (s *Service) finish(ctx context.Context, op string, err error) error {
	var result string
	if err != nil {
		gwErr := classify(op, err)
		err = gwErr
		result = string(gwErr.Kind)

		logger := security.NewSafeLogger(s.loggerFor(ctx, op))
		ev := logger.Warn()
		if !gwErr.Kind.IsClientError() {
			ev = logger.Error()
		}
		ev.Str("kind", string(gwErr.Kind)).Err(gwErr.Err).Msg(gwErr.Message)
	}
	if s.observer != nil {
		s.observer.ObserveOperation(op, result)
	}
	return err
}

// classify binds any error to op and picks the caller-facing message.
func classify(op string, err error) *gwerrors.GatewayError {
	var gwErr *gwerrors.GatewayError
	if gwerrors.As(err, &gwErr) {
		return gwErr
	}

	fallback := failureMessages[op]
	var upErr *gwerrors.UpstreamError
	if gwerrors.As(err, &upErr) {
		msg := fallback
		if upErr.Kind == gwerrors.KindUpstreamRejected && upErr.Message != "" && op != OpSession {
			msg = upErr.Message
		}
		e := gwerrors.New(op, upErr.Kind, msg, err)
		e.ErrorType = upErr.ErrorType
		return e
	}

	switch gwerrors.KindOf(err) {
	case gwerrors.KindMissingCredentials:
		msg := credentialMessages[op]
		if msg == "" {
			msg = MsgMissingCredentials
		}
		return gwerrors.New(op, gwerrors.KindMissingCredentials, msg, err)
	case gwerrors.KindReadOnly:
		return gwerrors.New(op, gwerrors.KindReadOnly, MsgReadOnly, err)
	}
	return gwerrors.Unexpected(op, err)
}

// ExchangeSession signs and exchanges a request token for a session.
func (s *Service) ExchangeSession(ctx context.Context, req SessionRequest) (session *kite.Session, err error) {
	defer func() { err = s.finish(ctx, OpSession, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(req.APIKey)
	session, err = s.upstream.GenerateSession(ctx, apiKey,
		strings.TrimSpace(req.RequestToken), strings.TrimSpace(req.APISecret))

	if s.audit != nil {
		userID, errMsg := "", ""
		if session != nil {
			userID = session.UserID
		}
		if err != nil {
			errMsg = err.Error()
		}
		_ = s.audit.LogSessionExchange(ctx, apiKey, userID, err == nil, errMsg)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// FetchHoldings returns the caller's holdings, [] when there are none.
func (s *Service) FetchHoldings(ctx context.Context, creds Credentials) (holdings []kite.Holding, err error) {
	defer func() { err = s.finish(ctx, OpHoldings, err) }()

	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return s.upstream.GetHoldings(ctx, creds.Auth())
}

// FetchOrders returns the day's orders matching filter.
func (s *Service) FetchOrders(ctx context.Context, creds Credentials, filter kite.OrderFilter) (orders []kite.Order, err error) {
	defer func() { err = s.finish(ctx, OpOrders, err) }()

	if err := creds.Validate(); err != nil {
		return nil, err
	}
	orders, err = s.upstream.GetOrders(ctx, creds.Auth())
	if err != nil {
		return nil, err
	}
	return kite.FilterOrders(orders, filter), nil
}

// OrderDetail is an order's current state plus every state it went through.
type OrderDetail struct {
	Order   kite.Order
	History []kite.Order
}

// FetchOrder returns one order by ID.
func (s *Service) FetchOrder(ctx context.Context, creds Credentials, orderID string) (detail *OrderDetail, err error) {
	defer func() { err = s.finish(ctx, OpOrder, err) }()

	if err := creds.Validate(); err != nil {
		return nil, err
	}
	orderID = strings.TrimSpace(orderID)
	if err := security.ValidateOrderID(orderID); err != nil {
		return nil, gwerrors.InvalidRequest(OpOrder, MsgInvalidOrderID,
			gwerrors.Wrap(gwerrors.ErrInvalidOrderID, err.Error()))
	}

	history, err := s.upstream.GetOrderHistory(ctx, creds.Auth(), orderID)
	if err != nil {
		return nil, err
	}
	latest, ok := kite.LatestState(history)
	if !ok {
		return nil, gwerrors.New(OpOrder, gwerrors.KindUpstreamRejected, MsgOrderNotFound, gwerrors.ErrUpstreamRejected)
	}
	logger := logging.WithOrderID(s.loggerFor(ctx, OpOrder), orderID)
	logger.Debug().
		Str("status", string(latest.Status)).
		Int("states", len(history)).
		Msg("order history fetched")
	return &OrderDetail{Order: latest, History: history}, nil
}

// PlaceOrder places a regular order unless the gateway runs read-only.
func (s *Service) PlaceOrder(ctx context.Context, creds Credentials, params *kite.OrderParams) (result *kite.OrderResult, err error) {
	defer func() { err = s.finish(ctx, OpPlaceOrder, err) }()

	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, gwerrors.New(OpPlaceOrder, gwerrors.KindMissingCredentials, MsgMissingParameters, gwerrors.ErrMissingParameters)
	}
	if err := s.access.CheckPermission(ctx, security.OpPlaceOrder); err != nil {
		return nil, err
	}

	p := params.WithDefaults()
	if err := p.Validate(); err != nil {
		return nil, gwerrors.InvalidRequest(OpPlaceOrder, MsgMissingParameters, err)
	}

	auth := creds.Auth()
	result, err = s.upstream.PlaceOrder(ctx, auth, p)

	orderID := ""
	if result != nil {
		orderID = result.OrderID
	}
	logging.LogOrder(s.loggerFor(ctx, OpPlaceOrder), orderID, p.Tradingsymbol, p.TransactionType, err)
	if s.audit != nil {
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		}
		_ = s.audit.LogOrderPlaced(ctx, auth.APIKey, orderID, p.Tradingsymbol, p.TransactionType,
			int(p.Quantity), p.OrderType, p.Product, err == nil, errMsg)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FetchQuotes fetches quotes for every instrument in one upstream call.
func (s *Service) FetchQuotes(ctx context.Context, creds Credentials, instruments []kite.InstrumentKey) (quotes map[string]kite.Quote, err error) {
	defer func() { err = s.finish(ctx, OpQuotes, err) }()

	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if len(instruments) == 0 {
		return nil, gwerrors.InvalidRequest(OpQuotes, MsgMissingParameters, gwerrors.ErrMissingParameters)
	}

	keys := make([]kite.InstrumentKey, 0, len(instruments))
	for _, in := range instruments {
		key := kite.InstrumentKey{
			Exchange:      strings.ToUpper(strings.TrimSpace(in.Exchange)),
			Tradingsymbol: strings.ToUpper(strings.TrimSpace(in.Tradingsymbol)),
		}
		if key.Exchange == "" {
			key.Exchange = s.cfg.DefaultExchange
		}
		if err := security.ValidateExchange(key.Exchange); err != nil {
			return nil, gwerrors.InvalidRequest(OpQuotes, MsgInvalidInstrument, err)
		}
		if err := security.ValidateSymbol(key.Tradingsymbol); err != nil {
			return nil, gwerrors.InvalidRequest(OpQuotes, MsgInvalidInstrument, err)
		}
		keys = append(keys, key)
	}
	return s.upstream.GetQuotes(ctx, creds.Auth(), keys)
}

func (s *Service) exchangeOrDefault(exchange string) (string, error) {
	exchange = strings.ToUpper(strings.TrimSpace(exchange))
	if exchange == "" {
		return s.cfg.DefaultExchange, nil
	}
	if err := security.ValidateExchange(exchange); err != nil {
		return "", err
	}
	return exchange, nil
}

func (s *Service) equityCatalog(ctx context.Context, op, exchange string) ([]kite.Instrument, error) {
	ex, err := s.exchangeOrDefault(exchange)
	if err != nil {
		return nil, gwerrors.InvalidRequest(op, "Invalid exchange", err)
	}
	list, err := s.upstream.GetInstruments(ctx, nil, ex, kite.ParseOptions{Strict: s.cfg.StrictInstruments})
	if err != nil {
		return nil, err
	}
	return kite.FilterEquity(list), nil
}

// SearchInstruments returns up to the configured limit of equity instruments
// whose symbol contains query.
func (s *Service) SearchInstruments(ctx context.Context, query, exchange string) (results []kite.Instrument, err error) {
	defer func() { err = s.finish(ctx, OpSearch, err) }()

	query = strings.TrimSpace(query)
	if len([]rune(query)) < s.cfg.MinQueryLength {
		return nil, gwerrors.InvalidRequest(OpSearch, MsgQueryTooShort, gwerrors.ErrQueryTooShort)
	}

	list, err := s.equityCatalog(ctx, OpSearch, exchange)
	if err != nil {
		return nil, err
	}
	return kite.SearchInstruments(list, query, s.cfg.SearchLimit), nil
}

// ListInstruments returns every equity instrument of an exchange.
func (s *Service) ListInstruments(ctx context.Context, exchange string) (list []kite.Instrument, err error) {
	defer func() { err = s.finish(ctx, OpInstruments, err) }()
	return s.equityCatalog(ctx, OpInstruments, exchange)
}

// FetchMargins returns the caller's equity and commodity margins.
func (s *Service) FetchMargins(ctx context.Context, creds Credentials) (margins *kite.Margins, err error) {
	defer func() { err = s.finish(ctx, OpMargins, err) }()

	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return s.upstream.GetMargins(ctx, creds.Auth())
}

// LoginURL returns the broker login page for apiKey. No upstream call is made.
func (s *Service) LoginURL(ctx context.Context, apiKey, redirectParams string) (u string, err error) {
	defer func() { err = s.finish(ctx, OpLoginURL, err) }()

	if blank(apiKey) {
		return "", gwerrors.MissingCredentials(OpLoginURL, MsgMissingParameters)
	}
	return kite.LoginURL(strings.TrimSpace(apiKey), redirectParams), nil
}
