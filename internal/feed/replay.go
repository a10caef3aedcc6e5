package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"betledger/internal/model"

	"github.com/sirupsen/logrus"
)

// ReplayClient streams settlement events from a newline-delimited JSON file.
// It stops once the file is exhausted.
type ReplayClient struct {
	logger logrus.FieldLogger
	path   string
}

// NewReplayClient creates a new ReplayClient.
func NewReplayClient(logger logrus.FieldLogger, path string) *ReplayClient {
	return &ReplayClient{logger: logger.WithField("feed", "replay"), path: path}
}

func (c *ReplayClient) GetName() string {
	return "replay"
}

func (c *ReplayClient) StartStream(ctx context.Context, out chan<- model.SettlementEvent) error {
	f, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("open replay file: %w", err)
	}
	defer f.Close()

	sent := 0
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var ev model.SettlementEvent
		if err := json.Unmarshal([]byte(text), &ev); err != nil {
			c.logger.WithError(err).WithField("line", line).Warn("Skipping malformed replay line")
			continue
		}

		select {
		case out <- ev:
			sent++
		case <-ctx.Done():
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read replay file: %w", err)
	}

	c.logger.WithField("events", sent).Info("Replay finished")
	return nil
}
