package feed

import (
	"context"

	"betledger/internal/model"
)

// Client defines the standard interface for all settlement feeds.
type Client interface {
	GetName() string
	StartStream(ctx context.Context, out chan<- model.SettlementEvent) error
}
