package database

import (
	"context"
	"errors"
	"fmt"

	"betledger/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const betColumns = `id, match_id, home_team, away_team, sport, competition, market, outcome, period,
	bookmaker, tags, stake, odds, status, profit, bet_date, placed_at, logged_ev, current_ev, clv`

// PostgresRepository stores bets in the bets table.
type PostgresRepository struct {
	Pool *pgxpool.Pool
}

func (r *PostgresRepository) LogBet(ctx context.Context, bet model.BetRecord) error {
	if err := bet.Validate(); err != nil {
		return err
	}
	tags := bet.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := r.Pool.Exec(ctx, `INSERT INTO bets (`+betColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		bet.ID, bet.MatchID, bet.HomeTeam, bet.AwayTeam, bet.Sport, bet.Competition, bet.Market, bet.Outcome, bet.Period,
		bet.Bookmaker, tags, bet.Stake, bet.Odds, string(bet.Status), bet.Profit, bet.Date, bet.PlacedAt,
		bet.LoggedEV, bet.CurrentEV, bet.CLV,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateBet, bet.ID)
		}
		return fmt.Errorf("insert bet %s: %w", bet.ID, err)
	}
	return nil
}

func (r *PostgresRepository) GetBet(ctx context.Context, id string) (model.BetRecord, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+betColumns+` FROM bets WHERE id = $1`, id)
	bet, err := scanBet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.BetRecord{}, fmt.Errorf("%w: %s", ErrBetNotFound, id)
	}
	if err != nil {
		return model.BetRecord{}, fmt.Errorf("get bet %s: %w", id, err)
	}
	return bet, nil
}

// UpdateBet applies patch under a row lock, so a patch requiring a pending
// bet is checked against the row it writes.
func (r *PostgresRepository) UpdateBet(ctx context.Context, id string, patch model.BetPatch) (model.BetRecord, error) {
	var updated model.BetRecord
	err := pgx.BeginFunc(ctx, r.Pool, func(tx pgx.Tx) error {
		current, err := scanBet(tx.QueryRow(ctx, `SELECT `+betColumns+` FROM bets WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrBetNotFound, id)
		}
		if err != nil {
			return err
		}

		updated, err = patch.Merge(current)
		if err != nil {
			return err
		}
		tags := updated.Tags
		if tags == nil {
			tags = []string{}
		}
		_, err = tx.Exec(ctx, `UPDATE bets
			SET status = $2, profit = $3, bookmaker = $4, tags = $5, logged_ev = $6, current_ev = $7, clv = $8
			WHERE id = $1`,
			id, string(updated.Status), updated.Profit, updated.Bookmaker, tags,
			updated.LoggedEV, updated.CurrentEV, updated.CLV,
		)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrBetNotFound) || errors.Is(err, model.ErrNotPending) || errors.Is(err, model.ErrInvalidBet) {
			return model.BetRecord{}, err
		}
		return model.BetRecord{}, fmt.Errorf("update bet %s: %w", id, err)
	}
	return updated, nil
}

func (r *PostgresRepository) ListBets(ctx context.Context) ([]model.BetRecord, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+betColumns+` FROM bets ORDER BY placed_at, seq`)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	defer rows.Close()

	bets := []model.BetRecord{}
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bet: %w", err)
		}
		bets = append(bets, bet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	return bets, nil
}

func scanBet(row pgx.Row) (model.BetRecord, error) {
	var (
		b      model.BetRecord
		status string
	)
	err := row.Scan(
		&b.ID, &b.MatchID, &b.HomeTeam, &b.AwayTeam, &b.Sport, &b.Competition, &b.Market, &b.Outcome, &b.Period,
		&b.Bookmaker, &b.Tags, &b.Stake, &b.Odds, &status, &b.Profit, &b.Date, &b.PlacedAt,
		&b.LoggedEV, &b.CurrentEV, &b.CLV,
	)
	if err != nil {
		return model.BetRecord{}, err
	}
	b.Status = model.BetStatus(status)
	if len(b.Tags) == 0 {
		b.Tags = nil
	}
	return b, nil
}
