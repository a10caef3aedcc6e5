package database

import (
	"context"
	"fmt"
	"sync"

	"betledger/internal/model"
)

// MemoryRepository keeps the ledger in process memory. Nothing survives a restart.
// Like the pool-backed repository it refuses to work on a cancelled context.
type MemoryRepository struct {
	mu    sync.RWMutex
	bets  []model.BetRecord
	index map[string]int
}

// NewMemoryRepository creates a repository seeded with bets, oldest first.
func NewMemoryRepository(seed ...model.BetRecord) (*MemoryRepository, error) {
	r := &MemoryRepository{index: make(map[string]int, len(seed))}
	for _, b := range seed {
		if err := r.LogBet(context.Background(), b); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *MemoryRepository) LogBet(ctx context.Context, bet model.BetRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := bet.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[bet.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBet, bet.ID)
	}
	r.index[bet.ID] = len(r.bets)
	r.bets = append(r.bets, bet.Clone())
	return nil
}

func (r *MemoryRepository) GetBet(ctx context.Context, id string) (model.BetRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.BetRecord{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return model.BetRecord{}, fmt.Errorf("%w: %s", ErrBetNotFound, id)
	}
	return r.bets[i].Clone(), nil
}

func (r *MemoryRepository) UpdateBet(ctx context.Context, id string, patch model.BetPatch) (model.BetRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.BetRecord{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return model.BetRecord{}, fmt.Errorf("%w: %s", ErrBetNotFound, id)
	}
	updated, err := patch.Merge(r.bets[i])
	if err != nil {
		return model.BetRecord{}, err
	}
	r.bets[i] = updated
	return updated.Clone(), nil
}

func (r *MemoryRepository) ListBets(ctx context.Context) ([]model.BetRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.BetRecord, len(r.bets))
	for i, b := range r.bets {
		out[i] = b.Clone()
	}
	return out, nil
}
