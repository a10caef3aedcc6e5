package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidBet = errors.New("invalid bet")
	ErrNotPending = errors.New("bet is already settled")
)

// BetStatus is the settlement state of a logged bet.
type BetStatus string

const (
	StatusPending BetStatus = "pending"
	StatusWon     BetStatus = "won"
	StatusLost    BetStatus = "lost"
	StatusVoid    BetStatus = "void"
)

// Valid reports whether s is one of the known statuses.
func (s BetStatus) Valid() bool {
	switch s {
	case StatusPending, StatusWon, StatusLost, StatusVoid:
		return true
	}
	return false
}

// Settled reports whether the bet has left the pending state.
func (s BetStatus) Settled() bool {
	return s != StatusPending
}

// BetRecord represents a single bet in the ledger.
// Profit is nil while the bet is pending and set once it is settled.
type BetRecord struct {
	ID          string    `db:"id" json:"id"`
	MatchID     string    `db:"match_id" json:"match_id"`
	HomeTeam    string    `db:"home_team" json:"home_team"`
	AwayTeam    string    `db:"away_team" json:"away_team"`
	Sport       string    `db:"sport" json:"sport"`
	Competition string    `db:"competition" json:"competition"`
	Market      string    `db:"market" json:"market"`
	Outcome     string    `db:"outcome" json:"outcome"`
	Period      string    `db:"period" json:"period"`
	Bookmaker   string    `db:"bookmaker" json:"bookmaker,omitempty"`
	Tags        []string  `db:"tags" json:"tags,omitempty"`
	Stake       float64   `db:"stake" json:"stake"`
	Odds        float64   `db:"odds" json:"odds"`
	Status      BetStatus `db:"status" json:"status"`
	Profit      *float64  `db:"profit" json:"profit,omitempty"`
	Date        time.Time `db:"bet_date" json:"date"`
	PlacedAt    time.Time `db:"placed_at" json:"placed_at"`

	// Display-only values supplied by the user or an external tool.
	LoggedEV  *float64 `db:"logged_ev" json:"logged_ev,omitempty"`
	CurrentEV *float64 `db:"current_ev" json:"current_ev,omitempty"`
	CLV       *float64 `db:"clv" json:"clv,omitempty"`
}

// ProfitOrZero returns the realized profit, or 0 for a pending bet.
func (b BetRecord) ProfitOrZero() float64 {
	if b.Profit == nil {
		return 0
	}
	return *b.Profit
}

// Clone returns a copy that shares no slices or pointers with b.
func (b BetRecord) Clone() BetRecord {
	c := b
	if b.Tags != nil {
		c.Tags = append([]string(nil), b.Tags...)
	}
	c.Profit = cloneFloat(b.Profit)
	c.LoggedEV = cloneFloat(b.LoggedEV)
	c.CurrentEV = cloneFloat(b.CurrentEV)
	c.CLV = cloneFloat(b.CLV)
	return c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Validate checks the status is known and that profit is set exactly when
// the bet is settled.
func (b BetRecord) Validate() error {
	if !b.Status.Valid() {
		return fmt.Errorf("%w: %s has unknown status %q", ErrInvalidBet, b.ID, b.Status)
	}
	if b.Status.Settled() && b.Profit == nil {
		return fmt.Errorf("%w: %s is %s without a profit", ErrInvalidBet, b.ID, b.Status)
	}
	if !b.Status.Settled() && b.Profit != nil {
		return fmt.Errorf("%w: %s is pending with a profit", ErrInvalidBet, b.ID)
	}
	return nil
}

// BetPatch carries a partial update to a BetRecord. Nil fields are left untouched.
// With RequirePending set the patch only applies to a bet that is still pending.
type BetPatch struct {
	RequirePending bool

	Status    *BetStatus
	Profit    *float64
	Bookmaker *string
	Tags      []string
	LoggedEV  *float64
	CurrentEV *float64
	CLV       *float64
}

// Apply merges the patch into b and returns the result.
func (p BetPatch) Apply(b BetRecord) BetRecord {
	out := b.Clone()
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Profit != nil {
		out.Profit = cloneFloat(p.Profit)
	}
	if p.Bookmaker != nil {
		out.Bookmaker = *p.Bookmaker
	}
	if p.Tags != nil {
		out.Tags = append([]string(nil), p.Tags...)
	}
	if p.LoggedEV != nil {
		out.LoggedEV = cloneFloat(p.LoggedEV)
	}
	if p.CurrentEV != nil {
		out.CurrentEV = cloneFloat(p.CurrentEV)
	}
	if p.CLV != nil {
		out.CLV = cloneFloat(p.CLV)
	}
	if out.Status == StatusPending {
		out.Profit = nil
	}
	return out
}

// Merge applies the patch to current and validates the result. Repositories
// call it while holding their write lock.
func (p BetPatch) Merge(current BetRecord) (BetRecord, error) {
	if p.RequirePending && current.Status.Settled() {
		return current, fmt.Errorf("%w: %s is %s", ErrNotPending, current.ID, current.Status)
	}
	out := p.Apply(current)
	if err := out.Validate(); err != nil {
		return current, err
	}
	return out, nil
}

// SummaryStats holds the aggregate ledger figures. Percentages are in the 0-100 range.
type SummaryStats struct {
	TotalBets     int     `json:"total_bets"`
	TotalTurnover float64 `json:"total_turnover"`
	TotalProfit   float64 `json:"total_profit"`
	Yield         float64 `json:"yield"`
	ROI           float64 `json:"roi"`
	WinRate       float64 `json:"win_rate"`
	AvgOdds       float64 `json:"avg_odds"`
	AvgStake      float64 `json:"avg_stake"`
}

// HasData distinguishes a genuine zero ratio from an empty ledger.
func (s SummaryStats) HasData() bool {
	return s.TotalBets > 0
}

// EquityPoint is one step of the running-profit curve.
type EquityPoint struct {
	Index  int       `json:"index"`
	Y      float64   `json:"y"`
	Date   time.Time `json:"date"`
	Profit float64   `json:"profit"`
}

// SettlementEvent is a result notification received from a settlement feed.
type SettlementEvent struct {
	BetID     string    `json:"bet_id"`
	Status    BetStatus `json:"status"`
	SettledAt time.Time `json:"settled_at"`
}
