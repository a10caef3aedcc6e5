package database

import (
	"context"
	"errors"

	"betledger/internal/model"
)

var (
	ErrBetNotFound  = errors.New("bet not found")
	ErrDuplicateBet = errors.New("bet already logged")
)

// Repository defines the standard interface for bet storage.
//
// ListBets returns bets oldest first, as a fresh copy the caller may keep
// while other goroutines keep logging. LogBet and UpdateBet reject records
// failing model.BetRecord.Validate, and UpdateBet checks the patch against
// the stored bet atomically.
type Repository interface {
	LogBet(ctx context.Context, bet model.BetRecord) error
	GetBet(ctx context.Context, id string) (model.BetRecord, error)
	UpdateBet(ctx context.Context, id string, patch model.BetPatch) (model.BetRecord, error)
	ListBets(ctx context.Context) ([]model.BetRecord, error)
}
