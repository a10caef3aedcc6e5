package settlement

import (
	"context"
	"errors"
	"testing"

	"betledger/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Settle(ctx context.Context, id string, status model.BetStatus) (model.BetRecord, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(model.BetRecord), args.Error(1)
}

func TestSettler_Run(t *testing.T) {
	ledger := new(MockLedger)
	logger, hook := test.NewNullLogger()
	settler := NewSettler(logger, ledger, true)

	won := 60.0
	ledger.On("Settle", mock.Anything, "b1", model.StatusWon).
		Return(model.BetRecord{ID: "b1", HomeTeam: "Palmeiras", AwayTeam: "Flamengo", Stake: 40, Status: model.StatusWon, Profit: &won}, nil).Once()
	ledger.On("Settle", mock.Anything, "b2", model.StatusLost).
		Return(model.BetRecord{}, ErrNotPending).Once()

	events := make(chan model.SettlementEvent, 4)
	events <- model.SettlementEvent{BetID: "b1", Status: model.StatusWon}
	events <- model.SettlementEvent{BetID: "b2", Status: model.StatusLost}
	events <- model.SettlementEvent{BetID: "b3", Status: model.StatusPending}
	events <- model.SettlementEvent{BetID: "b4", Status: "cashout"}
	close(events)

	settled := settler.Run(context.Background(), events)

	assert.Equal(t, 1, settled)
	ledger.AssertExpectations(t)
	ledger.AssertNotCalled(t, "Settle", mock.Anything, "b3", mock.Anything)

	var results int
	for _, e := range hook.AllEntries() {
		if e.Message == "Bet result" {
			results++
			assert.Equal(t, 60.0, e.Data["profit"])
		}
	}
	assert.Equal(t, 1, results)
}

func TestSettler_NotificationsOff(t *testing.T) {
	ledger := new(MockLedger)
	logger, hook := test.NewNullLogger()
	settler := NewSettler(logger, ledger, false)

	ledger.On("Settle", mock.Anything, "b1", model.StatusVoid).Return(model.BetRecord{ID: "b1"}, nil)

	assert.True(t, settler.ProcessEvent(context.Background(), model.SettlementEvent{BetID: "b1", Status: model.StatusVoid}))
	assert.Empty(t, hook.AllEntries())
}

func TestSettler_StopsOnCancel(t *testing.T) {
	ledger := new(MockLedger)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	settler := NewSettler(logger, ledger, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, 0, settler.Run(ctx, make(chan model.SettlementEvent)))
	assert.Empty(t, hook.AllEntries())

	ledger.On("Settle", mock.Anything, "x", model.StatusWon).Return(model.BetRecord{}, errors.New("db down"))
	assert.False(t, settler.ProcessEvent(context.Background(), model.SettlementEvent{BetID: "x", Status: model.StatusWon}))
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}
