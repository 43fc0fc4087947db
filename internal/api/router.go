package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"zerodha-roast/internal/metrics"
)

// RouterDeps holds what the router wires together.
type RouterDeps struct {
	Handler    *Handler
	Metrics    *metrics.Collector // optional
	Logger     zerolog.Logger
	CORSOrigin string
}

// NewRouter builds the HTTP routes.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestContext(d.Logger))
	r.Use(AccessLog)
	if d.Metrics != nil {
		r.Use(Instrument(d.Metrics))
	}
	r.Use(Recover)
	r.Use(CORS(d.CORSOrigin))
	r.Use(SecurityHeaders)

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Get("/health", d.Handler.Health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/session", d.Handler.Session)
		r.Get("/login-url", d.Handler.LoginURL)

		r.Post("/holdings", d.Handler.Holdings)
		r.Post("/portfolio/summary", d.Handler.PortfolioSummary)
		r.Post("/margins", d.Handler.Margins)

		r.Post("/orders", d.Handler.Orders)
		r.Get("/orders", d.Handler.Order)
		r.Post("/place-order", d.Handler.PlaceOrder)

		r.Post("/quotes", d.Handler.Quotes)

		r.Post("/instruments", d.Handler.SearchInstruments)
		r.Get("/instruments", d.Handler.ListInstruments)
	})

	return r
}
