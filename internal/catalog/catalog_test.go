package catalog

import (
	"testing"

	"betledger/internal/fixtures"
	"betledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) *Catalog {
	t.Helper()
	matches, err := fixtures.Matches()
	require.NoError(t, err)
	return New(matches)
}

func TestCatalog_Matches(t *testing.T) {
	c := newCatalog(t)

	assert.Len(t, c.Matches(""), 3)
	assert.Len(t, c.Matches("futebol"), 2)
	assert.Len(t, c.Matches("BASQUETE"), 1)
	assert.Empty(t, c.Matches("tenis"))
	assert.Equal(t, []string{"futebol", "basquete"}, c.Sports())
}

func TestCatalog_Search(t *testing.T) {
	c := newCatalog(t)

	found := c.Search("flam")
	require.Len(t, found, 1)
	assert.Equal(t, "Palmeiras", found[0].HomeTeam)

	assert.Len(t, c.Search("serie"), 2)
	assert.Len(t, c.Search("  "), 3)
	assert.Empty(t, c.Search("nobody"))
}

func TestCatalog_Details(t *testing.T) {
	c := newCatalog(t)

	details, err := c.Details("1")
	require.NoError(t, err)

	handicaps := details.Handicaps()
	require.Len(t, handicaps, 3)
	assert.Equal(t, "home", handicaps[0].First.Team)
	assert.Equal(t, "away", handicaps[0].Second.Team)

	totals := details.Totals()
	require.Len(t, totals, 2)
	assert.Equal(t, "Over 2.5", totals[1].First.Description)
	assert.Equal(t, "Under 2.5", totals[1].Second.Description)

	details.Lines[0].Odds = 99
	again, err := c.Details("1")
	require.NoError(t, err)
	assert.Equal(t, 1.42, again.Lines[0].Odds)

	_, err = c.Details("404")
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestCatalog_Line(t *testing.T) {
	c := newCatalog(t)

	m, line, err := c.Line("2", "2-o-25")
	require.NoError(t, err)
	assert.Equal(t, "Flamengo", m.AwayTeam)
	assert.Equal(t, model.LineTotal, line.Type)

	_, _, err = c.Line("2", "nope")
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestMatchDetails_UnpairedLineDropped(t *testing.T) {
	m := model.MatchDetails{Lines: []model.BetLine{
		{ID: "a", Type: model.LineHandicap},
		{ID: "b", Type: model.LineTotal},
		{ID: "c", Type: model.LineHandicap},
		{ID: "d", Type: model.LineHandicap},
	}}

	pairs := m.Handicaps()
	require.Len(t, pairs, 1)
	assert.Equal(t, "a", pairs[0].First.ID)
	assert.Equal(t, "c", pairs[0].Second.ID)
	assert.Empty(t, m.Totals())
}
