package settlement

import (
	"context"

	"betledger/internal/model"

	"github.com/sirupsen/logrus"
)

// Ledger is the part of the ledger service the settler drives.
type Ledger interface {
	Settle(ctx context.Context, id string, status model.BetStatus) (model.BetRecord, error)
}

// Settler applies results from a settlement feed to the ledger.
type Settler struct {
	logger logrus.FieldLogger
	ledger Ledger
	notify bool
}

// NewSettler creates a Settler. When notify is set every settled bet is
// reported as a result notification.
func NewSettler(logger logrus.FieldLogger, ledger Ledger, notify bool) *Settler {
	return &Settler{logger: logger, ledger: ledger, notify: notify}
}

// Run consumes events until events is closed or ctx is cancelled and
// returns how many bets were settled.
func (s *Settler) Run(ctx context.Context, events <-chan model.SettlementEvent) int {
	settled := 0
	for {
		select {
		case <-ctx.Done():
			return settled
		case ev, ok := <-events:
			if !ok {
				return settled
			}
			if s.ProcessEvent(ctx, ev) {
				settled++
			}
		}
	}
}

// ProcessEvent settles a single bet. Failures are logged and skipped so one
// bad event does not stop the feed.
func (s *Settler) ProcessEvent(ctx context.Context, ev model.SettlementEvent) bool {
	log := s.logger.WithFields(logrus.Fields{"bet_id": ev.BetID, "status": ev.Status})

	if !ev.Status.Valid() || !ev.Status.Settled() {
		log.Warn("Ignoring settlement event with unusable status")
		return false
	}

	bet, err := s.ledger.Settle(ctx, ev.BetID, ev.Status)
	if err != nil {
		log.WithError(err).Warn("Failed to settle bet")
		return false
	}

	if s.notify {
		log.WithFields(logrus.Fields{
			"match":  bet.HomeTeam + " vs " + bet.AwayTeam,
			"stake":  bet.Stake,
			"profit": bet.ProfitOrZero(),
		}).Info("Bet result")
	}
	return true
}
