package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"betledger/internal/config"
	"betledger/internal/model"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settlementServer(t *testing.T, messages []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWebSocketClient_StartStream(t *testing.T) {
	srv := settlementServer(t, []string{
		`{"bet_id":"b1","status":"won"}`,
		`not json`,
		`{"status":"lost"}`,
		`{"bet_id":"b2","status":"void"}`,
	})
	logger, _ := test.NewNullLogger()
	client := NewWebSocketClient(logger, "ws"+strings.TrimPrefix(srv.URL, "http"))

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan model.SettlementEvent)
	done := make(chan error, 1)
	go func() { done <- client.StartStream(ctx, out) }()

	var got []model.SettlementEvent
	for len(got) < 2 {
		select {
		case ev := <-out:
			got = append(got, ev)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for settlement events")
		}
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("client did not stop after cancel")
	}

	assert.Equal(t, "b1", got[0].BetID)
	assert.Equal(t, model.StatusWon, got[0].Status)
	assert.Equal(t, "b2", got[1].BetID)
	assert.Equal(t, "websocket", client.GetName())
}

func TestWebSocketClient_CancelWhileReconnecting(t *testing.T) {
	logger, _ := test.NewNullLogger()
	client := NewWebSocketClient(logger, "ws://127.0.0.1:1/unreachable")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := client.StartStream(ctx, make(chan model.SettlementEvent))

	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWebSocketClient_BacksOffWhenServerDropsConnection(t *testing.T) {
	var dials atomic.Int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		dials.Add(1)
		conn.Close()
	}))
	t.Cleanup(srv.Close)

	logger, _ := test.NewNullLogger()
	client := NewWebSocketClient(logger, "ws"+strings.TrimPrefix(srv.URL, "http"))
	client.backoff = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()
	require.NoError(t, client.StartStream(ctx, make(chan model.SettlementEvent)))

	// 50ms, 100ms, 200ms waits leave room for at most four dials.
	assert.GreaterOrEqual(t, dials.Load(), int32(2))
	assert.LessOrEqual(t, dials.Load(), int32(5))
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, nextBackoff(time.Second))
	assert.Equal(t, 16*time.Second, nextBackoff(8*time.Second))
	assert.Equal(t, 16*time.Second, nextBackoff(16*time.Second))
}

func TestReplayClient_StartStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	content := strings.Join([]string{
		`# results from the weekend`,
		`{"bet_id":"b1","status":"won","settled_at":"2025-07-24T22:00:00Z"}`,
		``,
		`{broken`,
		`{"bet_id":"b2","status":"lost"}`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	logger, hook := test.NewNullLogger()
	client := NewReplayClient(logger, path)

	out := make(chan model.SettlementEvent, 10)
	require.NoError(t, client.StartStream(context.Background(), out))
	close(out)

	var got []model.SettlementEvent
	for ev := range out {
		got = append(got, ev)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "b1", got[0].BetID)
	assert.Equal(t, time.Date(2025, time.July, 24, 22, 0, 0, 0, time.UTC), got[0].SettledAt)
	assert.Equal(t, model.StatusLost, got[1].Status)
	assert.Equal(t, "Replay finished", hook.LastEntry().Message)
}

func TestReplayClient_MissingFile(t *testing.T) {
	logger, _ := test.NewNullLogger()
	client := NewReplayClient(logger, filepath.Join(t.TempDir(), "nope.jsonl"))

	err := client.StartStream(context.Background(), make(chan model.SettlementEvent))
	assert.Error(t, err)
}

func TestNewClient(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := &config.SettlementConfig{URL: "ws://localhost:9000", ReplayPath: "results.jsonl"}

	ws, err := NewClient("websocket", logger, cfg)
	require.NoError(t, err)
	assert.IsType(t, &WebSocketClient{}, ws)

	replay, err := NewClient("replay", logger, cfg)
	require.NoError(t, err)
	assert.Equal(t, "replay", replay.GetName())

	_, err = NewClient("fax", logger, cfg)
	assert.ErrorIs(t, err, ErrUnknownFeed)
}
