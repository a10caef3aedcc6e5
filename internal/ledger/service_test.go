package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"betledger/internal/config"
	"betledger/internal/database"
	"betledger/internal/model"
	"betledger/internal/settlement"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) LogBet(ctx context.Context, bet model.BetRecord) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockRepository) GetBet(ctx context.Context, id string) (model.BetRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.BetRecord), args.Error(1)
}

func (m *MockRepository) UpdateBet(ctx context.Context, id string, patch model.BetPatch) (model.BetRecord, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(model.BetRecord), args.Error(1)
}

func (m *MockRepository) ListBets(ctx context.Context) ([]model.BetRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.BetRecord), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{Chart: config.ChartConfig{MinSpan: 100, PaddingRatio: 0.1}}
}

func TestService_Stats(t *testing.T) {
	mockRepo := new(MockRepository)
	logger, _ := test.NewNullLogger()
	svc := NewService(logger, mockRepo, testConfig())

	mockRepo.On("ListBets", mock.Anything).Return(sampleBets(), nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalBets)
	assert.Equal(t, 50.0, stats.TotalProfit)

	curve, err := svc.EquityCurve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 50, 50}, ys(curve))

	bets, err := svc.Bets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "c", bets[0].ID)
	assert.Equal(t, "a", bets[2].ID)
}

func TestService_Snapshot(t *testing.T) {
	mockRepo := new(MockRepository)
	logger, _ := test.NewNullLogger()
	svc := NewService(logger, mockRepo, testConfig())

	mockRepo.On("ListBets", mock.Anything).Return(sampleBets(), nil).Once()

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)

	assert.Equal(t, "c", snap.Bets[0].ID)
	assert.Equal(t, 170.0, snap.Stats.TotalTurnover)
	assert.Equal(t, ComputeEquityCurve(snap.Bets, OrderNewestFirst), snap.Equity)
	assert.Equal(t, 100.0, snap.Scale.Max)
}

func TestService_ListError(t *testing.T) {
	mockRepo := new(MockRepository)
	logger, _ := test.NewNullLogger()
	svc := NewService(logger, mockRepo, testConfig())

	boom := errors.New("connection reset")
	mockRepo.On("ListBets", mock.Anything).Return([]model.BetRecord(nil), boom)

	_, err := svc.Stats(context.Background())
	assert.ErrorIs(t, err, boom)
	_, err = svc.Snapshot(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestService_AddBet(t *testing.T) {
	mockRepo := new(MockRepository)
	logger, hook := test.NewNullLogger()
	svc := NewService(logger, mockRepo, testConfig())
	bet := model.BetRecord{ID: "new", Stake: 10, Odds: 2, Status: model.StatusPending}

	t.Run("logged", func(t *testing.T) {
		mockRepo.On("LogBet", mock.Anything, bet).Return(nil).Once()

		require.NoError(t, svc.AddBet(context.Background(), bet))
		mockRepo.AssertExpectations(t)
		assert.Equal(t, "Bet logged", hook.LastEntry().Message)
	})

	t.Run("repository failure", func(t *testing.T) {
		mockRepo.On("LogBet", mock.Anything, bet).Return(database.ErrDuplicateBet).Once()

		err := svc.AddBet(context.Background(), bet)
		assert.ErrorIs(t, err, database.ErrDuplicateBet)
		assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	})
}

func TestService_Settle(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()

	t.Run("won bet gets its profit", func(t *testing.T) {
		repo, err := database.NewMemoryRepository(model.BetRecord{ID: "p", Stake: 20, Odds: 3, Status: model.StatusPending})
		require.NoError(t, err)
		svc := NewService(logger, repo, testConfig())

		settled, err := svc.Settle(ctx, "p", model.StatusWon)
		require.NoError(t, err)
		require.NotNil(t, settled.Profit)
		assert.Equal(t, 40.0, *settled.Profit)

		stats, err := svc.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 40.0, stats.TotalProfit)
		assert.Equal(t, 100.0, stats.WinRate)
	})

	t.Run("settled bets cannot be settled again", func(t *testing.T) {
		repo, err := database.NewMemoryRepository(sampleBets()...)
		require.NoError(t, err)
		svc := NewService(logger, repo, testConfig())

		_, err = svc.Settle(ctx, "a", model.StatusLost)
		assert.ErrorIs(t, err, settlement.ErrNotPending)
	})

	t.Run("unknown bet", func(t *testing.T) {
		repo, err := database.NewMemoryRepository()
		require.NoError(t, err)
		svc := NewService(logger, repo, testConfig())

		_, err = svc.Settle(ctx, "ghost", model.StatusWon)
		assert.ErrorIs(t, err, database.ErrBetNotFound)
	})
}

func TestService_UpdateBet(t *testing.T) {
	logger, _ := test.NewNullLogger()
	repo, err := database.NewMemoryRepository(sampleBets()...)
	require.NoError(t, err)
	svc := NewService(logger, repo, testConfig())

	book := "Bet365"
	updated, err := svc.UpdateBet(context.Background(), "c", model.BetPatch{Bookmaker: &book, Tags: []string{"Bet365"}})
	require.NoError(t, err)
	assert.Equal(t, "Bet365", updated.Bookmaker)
	assert.Equal(t, model.StatusPending, updated.Status)
	assert.Nil(t, updated.Profit)
}

func TestService_ChartScale(t *testing.T) {
	logger, _ := test.NewNullLogger()
	repo, err := database.NewMemoryRepository(sampleBets()...)
	require.NoError(t, err)
	svc := NewService(logger, repo, testConfig())

	scale, err := svc.ChartScale(context.Background())
	require.NoError(t, err)

	assert.Zero(t, scale.Min)
	assert.Equal(t, 100.0, scale.Max)
	assert.InDelta(t, -10, scale.Lower, 1e-9)
	assert.InDelta(t, 110, scale.Upper, 1e-9)
}

// barrierRepository holds every GetBet caller until all of them have read,
// so the following writes race.
type barrierRepository struct {
	*database.MemoryRepository
	readers sync.WaitGroup
}

func (r *barrierRepository) GetBet(ctx context.Context, id string) (model.BetRecord, error) {
	bet, err := r.MemoryRepository.GetBet(ctx, id)
	r.readers.Done()
	r.readers.Wait()
	return bet, err
}

func TestService_SettleConcurrently(t *testing.T) {
	logger, _ := test.NewNullLogger()
	mem, err := database.NewMemoryRepository(model.BetRecord{ID: "p", Stake: 10, Odds: 2, Status: model.StatusPending})
	require.NoError(t, err)
	repo := &barrierRepository{MemoryRepository: mem}
	repo.readers.Add(2)
	svc := NewService(logger, repo, testConfig())

	results := []model.BetStatus{model.StatusWon, model.StatusLost}
	errs := make([]error, len(results))
	var wg sync.WaitGroup
	for i, status := range results {
		wg.Add(1)
		go func(i int, status model.BetStatus) {
			defer wg.Done()
			_, errs[i] = svc.Settle(context.Background(), "p", status)
		}(i, status)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, settlement.ErrNotPending)
			failed++
		}
	}
	assert.Equal(t, 1, failed)

	bet, err := mem.GetBet(context.Background(), "p")
	require.NoError(t, err)
	winner := model.StatusWon
	if errs[0] != nil {
		winner = model.StatusLost
	}
	assert.Equal(t, winner, bet.Status)
}
