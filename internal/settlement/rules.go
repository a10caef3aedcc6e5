package settlement

import (
	"errors"
	"fmt"

	"betledger/internal/model"

	"github.com/shopspring/decimal"
)

var (
	ErrNotPending    = model.ErrNotPending
	ErrInvalidStatus = errors.New("invalid settlement status")
)

// Profit returns the realized profit for a bet settled with status.
// Amounts are rounded to cents. Pending yields nil.
func Profit(stake, odds float64, status model.BetStatus) (*float64, error) {
	s := decimal.NewFromFloat(stake)
	var p decimal.Decimal
	switch status {
	case model.StatusPending:
		return nil, nil
	case model.StatusWon:
		p = s.Mul(decimal.NewFromFloat(odds).Sub(decimal.NewFromInt(1)))
	case model.StatusLost:
		p = s.Neg()
	case model.StatusVoid:
		p = decimal.Zero
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	v := p.Round(2).InexactFloat64()
	return &v, nil
}

// Settle moves a pending bet to status and fills in its profit.
func Settle(bet model.BetRecord, status model.BetStatus) (model.BetRecord, error) {
	if bet.Status.Settled() {
		return bet, fmt.Errorf("%w: %s is %s", ErrNotPending, bet.ID, bet.Status)
	}
	if status == model.StatusPending {
		return bet, fmt.Errorf("%w: cannot settle as pending", ErrInvalidStatus)
	}
	p, err := Profit(bet.Stake, bet.Odds, status)
	if err != nil {
		return bet, err
	}
	return model.BetPatch{RequirePending: true, Status: &status, Profit: p}.Merge(bet)
}
