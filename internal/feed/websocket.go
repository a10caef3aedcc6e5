package feed

import (
	"context"
	"encoding/json"
	"time"

	"betledger/internal/model"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 16 * time.Second
)

// WebSocketClient streams settlement events from a websocket endpoint.
// Each text message is one JSON encoded model.SettlementEvent.
type WebSocketClient struct {
	logger  logrus.FieldLogger
	url     string
	dialer  *websocket.Dialer
	backoff time.Duration
}

// NewWebSocketClient creates a new WebSocketClient.
func NewWebSocketClient(logger logrus.FieldLogger, url string) *WebSocketClient {
	return &WebSocketClient{
		logger:  logger.WithField("feed", "websocket"),
		url:     url,
		dialer:  websocket.DefaultDialer,
		backoff: initialBackoff,
	}
}

func (c *WebSocketClient) GetName() string {
	return "websocket"
}

// StartStream connects to the feed and forwards events to out, reconnecting
// with exponential backoff until ctx is cancelled.
func (c *WebSocketClient) StartStream(ctx context.Context, out chan<- model.SettlementEvent) error {
	backoff := c.backoff
	for {
		if ctx.Err() != nil {
			c.logger.Info("Context cancelled, shutting down")
			return nil
		}

		c.logger.WithFields(logrus.Fields{"url": c.url, "backoff": backoff}).Info("Connecting to settlement feed")
		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			c.logger.WithError(err).Error("Settlement feed connection failed")
			if !sleep(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff)
			continue
		}

		c.logger.Info("Connected to settlement feed")

		done, received := c.readLoop(ctx, conn, out)
		if done {
			return nil
		}
		// Only a connection that delivered something counts as healthy.
		if received {
			backoff = c.backoff
		}
		if !sleep(ctx, backoff) {
			return nil
		}
		backoff = nextBackoff(backoff)
	}
}

// readLoop reports done when the stream should stop for good, and whether
// any message arrived before the connection dropped.
func (c *WebSocketClient) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- model.SettlementEvent) (done, received bool) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Context cancelled, closing connection")
				return true, received
			}
			c.logger.WithError(err).Error("Failed to read settlement message")
			return false, received
		}
		received = true

		var ev model.SettlementEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			c.logger.WithError(err).Warn("Failed to parse settlement message")
			continue
		}
		if ev.BetID == "" {
			c.logger.Warn("Settlement message without bet id")
			continue
		}

		select {
		case out <- ev:
			c.logger.WithField("bet_id", ev.BetID).Debug("Forwarded settlement event")
		case <-ctx.Done():
			c.logger.Info("Context cancelled while forwarding settlement event")
			return true, received
		}
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
