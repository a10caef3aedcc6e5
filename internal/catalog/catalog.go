// Package catalog serves the fixtures shown in the match browser.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"betledger/internal/model"
)

var ErrMatchNotFound = errors.New("match not found")

// Catalog is a read-only match list. It is safe for concurrent use.
type Catalog struct {
	matches []model.MatchDetails
	byID    map[string]int
}

// New builds a catalog, keeping the order matches are given in.
func New(matches []model.MatchDetails) *Catalog {
	c := &Catalog{
		matches: make([]model.MatchDetails, len(matches)),
		byID:    make(map[string]int, len(matches)),
	}
	copy(c.matches, matches)
	for i, m := range c.matches {
		c.byID[m.ID] = i
	}
	return c
}

// Matches lists matches for sport, or every match when sport is empty.
func (c *Catalog) Matches(sport string) []model.Match {
	var out []model.Match
	for _, m := range c.matches {
		if sport == "" || strings.EqualFold(m.Sport, sport) {
			out = append(out, m.Match)
		}
	}
	return out
}

// Sports lists the distinct sports in catalog order.
func (c *Catalog) Sports() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range c.matches {
		if !seen[m.Sport] {
			seen[m.Sport] = true
			out = append(out, m.Sport)
		}
	}
	return out
}

// Search finds matches whose teams or league contain query, ignoring case.
func (c *Catalog) Search(query string) []model.Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.Matches("")
	}
	var out []model.Match
	for _, m := range c.matches {
		if strings.Contains(strings.ToLower(m.HomeTeam), q) ||
			strings.Contains(strings.ToLower(m.AwayTeam), q) ||
			strings.Contains(strings.ToLower(m.League), q) {
			out = append(out, m.Match)
		}
	}
	return out
}

// Details returns the match with its betting lines.
func (c *Catalog) Details(id string) (model.MatchDetails, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.MatchDetails{}, fmt.Errorf("%w: %s", ErrMatchNotFound, id)
	}
	m := c.matches[i]
	m.Lines = append([]model.BetLine(nil), m.Lines...)
	return m, nil
}

// Line looks up a single line on a match.
func (c *Catalog) Line(matchID, lineID string) (model.MatchDetails, model.BetLine, error) {
	m, err := c.Details(matchID)
	if err != nil {
		return m, model.BetLine{}, err
	}
	for _, l := range m.Lines {
		if l.ID == lineID {
			return m, l, nil
		}
	}
	return m, model.BetLine{}, fmt.Errorf("%w: line %s on match %s", ErrMatchNotFound, lineID, matchID)
}
