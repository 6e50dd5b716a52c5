package service

import (
	"context"

	"FinSignal/internal/domain/models"
)

// MarketContextProvider resolves market-wide context for a symbol when the
// input arrives without one.
type MarketContextProvider interface {
	MarketContext(ctx context.Context, symbol string) (*models.MarketContext, error)
}
