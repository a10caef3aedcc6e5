package ledger

import (
	"context"
	"fmt"

	"betledger/internal/config"
	"betledger/internal/database"
	"betledger/internal/model"
	"betledger/internal/settlement"

	"github.com/sirupsen/logrus"
)

// Service owns the ledger: it logs and settles bets through the repository
// and recomputes statistics from a fresh snapshot on every read.
type Service struct {
	logger logrus.FieldLogger
	repo   database.Repository
	scale  ScaleOptions
}

// NewService creates a new ledger Service.
func NewService(logger logrus.FieldLogger, repo database.Repository, cfg *config.Config) *Service {
	return &Service{
		logger: logger,
		repo:   repo,
		scale: ScaleOptions{
			MinSpan:      cfg.Chart.MinSpan,
			PaddingRatio: cfg.Chart.PaddingRatio,
		},
	}
}

// AddBet appends a new bet to the ledger.
func (s *Service) AddBet(ctx context.Context, bet model.BetRecord) error {
	if err := s.repo.LogBet(ctx, bet); err != nil {
		s.logger.WithError(err).WithField("bet_id", bet.ID).Error("Failed to log bet")
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"bet_id": bet.ID,
		"stake":  bet.Stake,
		"odds":   bet.Odds,
		"match":  bet.HomeTeam + " vs " + bet.AwayTeam,
	}).Info("Bet logged")
	return nil
}

// UpdateBet merges a partial update into an existing bet.
func (s *Service) UpdateBet(ctx context.Context, id string, patch model.BetPatch) (model.BetRecord, error) {
	return s.repo.UpdateBet(ctx, id, patch)
}

// Settle records the result of a pending bet and fills in its profit.
// The pending check is repeated by the repository under its write lock, so
// of two racing settlements only one succeeds.
func (s *Service) Settle(ctx context.Context, id string, status model.BetStatus) (model.BetRecord, error) {
	current, err := s.repo.GetBet(ctx, id)
	if err != nil {
		return model.BetRecord{}, err
	}
	settled, err := settlement.Settle(current, status)
	if err != nil {
		return model.BetRecord{}, err
	}
	updated, err := s.repo.UpdateBet(ctx, id, model.BetPatch{RequirePending: true, Status: &settled.Status, Profit: settled.Profit})
	if err != nil {
		return model.BetRecord{}, fmt.Errorf("settle bet %s: %w", id, err)
	}
	s.logger.WithFields(logrus.Fields{
		"bet_id": id,
		"status": updated.Status,
		"profit": updated.ProfitOrZero(),
	}).Info("Bet settled")
	return updated, nil
}

// Bets lists the ledger newest first, the order the ledger view shows.
func (s *Service) Bets(ctx context.Context) ([]model.BetRecord, error) {
	bets, err := s.repo.ListBets(ctx)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(bets)-1; i < j; i, j = i+1, j-1 {
		bets[i], bets[j] = bets[j], bets[i]
	}
	return bets, nil
}

// Stats computes summary statistics over the current ledger.
func (s *Service) Stats(ctx context.Context) (model.SummaryStats, error) {
	bets, err := s.repo.ListBets(ctx)
	if err != nil {
		return model.SummaryStats{}, err
	}
	return ComputeStats(bets), nil
}

// EquityCurve computes the running profit over the current ledger, oldest first.
func (s *Service) EquityCurve(ctx context.Context) ([]model.EquityPoint, error) {
	bets, err := s.repo.ListBets(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeEquityCurve(bets, OrderChronological), nil
}

// Snapshot is everything the ledger view needs, computed from one read.
type Snapshot struct {
	Bets   []model.BetRecord
	Stats  model.SummaryStats
	Equity []model.EquityPoint
	Scale  ChartScale
}

// Snapshot reads the ledger once and derives stats, curve and chart scale
// from that single copy.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	bets, err := s.repo.ListBets(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	equity := ComputeEquityCurve(bets, OrderChronological)

	display := make([]model.BetRecord, len(bets))
	for i, b := range bets {
		display[len(bets)-1-i] = b
	}
	return Snapshot{
		Bets:   display,
		Stats:  ComputeStats(bets),
		Equity: equity,
		Scale:  ScaleChart(equity, s.scale),
	}, nil
}

// ChartScale returns the y-axis bounds for the current equity curve.
func (s *Service) ChartScale(ctx context.Context) (ChartScale, error) {
	equity, err := s.EquityCurve(ctx)
	if err != nil {
		return ChartScale{}, err
	}
	return ScaleChart(equity, s.scale), nil
}
