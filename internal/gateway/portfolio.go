package gateway

import (
	"context"

	"zerodha-roast/internal/portfolio"
)

// PortfolioSummary fetches holdings once and derives the account summary.
func (s *Service) PortfolioSummary(ctx context.Context, creds Credentials) (summary *portfolio.Summary, err error) {
	defer func() { err = s.finish(ctx, OpPortfolio, err) }()

	if err := creds.Validate(); err != nil {
		return nil, err
	}
	holdings, err := s.upstream.GetHoldings(ctx, creds.Auth())
	if err != nil {
		return nil, err
	}
	sum := portfolio.Summarize(holdings)
	return &sum, nil
}
