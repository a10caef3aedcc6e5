package feed

import (
	"errors"
	"fmt"

	"betledger/internal/config"

	"github.com/sirupsen/logrus"
)

var ErrUnknownFeed = errors.New("unknown settlement feed")

// NewClient creates a settlement feed client based on the given name and configuration.
func NewClient(name string, logger logrus.FieldLogger, cfg *config.SettlementConfig) (Client, error) {
	switch name {
	case "websocket":
		return NewWebSocketClient(logger, cfg.URL), nil
	case "replay":
		return NewReplayClient(logger, cfg.ReplayPath), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFeed, name)
	}
}
