// Package fixtures holds the sample matches and bets the ledger starts with.
package fixtures

import (
	"embed"
	"fmt"
	"time"

	"betledger/internal/model"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

const dateLayout = "2006-01-02"

// Matches returns the match catalog fixtures.
func Matches() ([]model.MatchDetails, error) {
	raw, err := dataFS.ReadFile("data/matches.yaml")
	if err != nil {
		return nil, err
	}
	var matches []model.MatchDetails
	if err := yaml.Unmarshal(raw, &matches); err != nil {
		return nil, fmt.Errorf("decode matches: %w", err)
	}
	return matches, nil
}

type betFixture struct {
	ID          string          `yaml:"id"`
	MatchID     string          `yaml:"match_id"`
	HomeTeam    string          `yaml:"home_team"`
	AwayTeam    string          `yaml:"away_team"`
	Sport       string          `yaml:"sport"`
	Competition string          `yaml:"competition"`
	Market      string          `yaml:"market"`
	Outcome     string          `yaml:"outcome"`
	Period      string          `yaml:"period"`
	Bookmaker   string          `yaml:"bookmaker"`
	Tags        []string        `yaml:"tags"`
	Stake       float64         `yaml:"stake"`
	Odds        float64         `yaml:"odds"`
	Status      model.BetStatus `yaml:"status"`
	Profit      *float64        `yaml:"profit"`
	Date        string          `yaml:"date"`
	PlacedAt    time.Time       `yaml:"placed_at"`
}

// Bets returns the seed ledger, oldest first.
func Bets() ([]model.BetRecord, error) {
	raw, err := dataFS.ReadFile("data/bets.yaml")
	if err != nil {
		return nil, err
	}
	return parseBets(raw)
}

func parseBets(raw []byte) ([]model.BetRecord, error) {
	var items []betFixture
	if err := yaml.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode bets: %w", err)
	}

	bets := make([]model.BetRecord, 0, len(items))
	for _, f := range items {
		date, err := time.Parse(dateLayout, f.Date)
		if err != nil {
			return nil, fmt.Errorf("bet %s: %w", f.ID, err)
		}
		bet := model.BetRecord{
			ID:          f.ID,
			MatchID:     f.MatchID,
			HomeTeam:    f.HomeTeam,
			AwayTeam:    f.AwayTeam,
			Sport:       f.Sport,
			Competition: f.Competition,
			Market:      f.Market,
			Outcome:     f.Outcome,
			Period:      f.Period,
			Bookmaker:   f.Bookmaker,
			Tags:        f.Tags,
			Stake:       f.Stake,
			Odds:        f.Odds,
			Status:      f.Status,
			Profit:      f.Profit,
			Date:        date,
			PlacedAt:    f.PlacedAt,
		}
		if err := bet.Validate(); err != nil {
			return nil, fmt.Errorf("fixture: %w", err)
		}
		bets = append(bets, bet)
	}
	return bets, nil
}
