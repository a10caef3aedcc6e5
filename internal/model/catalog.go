package model

// LineType groups the betting lines shown on a match page.
type LineType string

const (
	LineHandicap LineType = "handicap"
	LineTotal    LineType = "total"
)

// Odds holds the 1X2 prices for a match.
type Odds struct {
	Home float64 `yaml:"home" json:"home"`
	Draw float64 `yaml:"draw" json:"draw"`
	Away float64 `yaml:"away" json:"away"`
}

// Match is a fixture listed in the match catalog.
type Match struct {
	ID       string `yaml:"id" json:"id"`
	HomeTeam string `yaml:"home_team" json:"home_team"`
	AwayTeam string `yaml:"away_team" json:"away_team"`
	Date     string `yaml:"date" json:"date"`
	Time     string `yaml:"time" json:"time"`
	League   string `yaml:"league" json:"league"`
	Sport    string `yaml:"sport" json:"sport"`
	Odds     Odds   `yaml:"odds" json:"odds"`
}

// BetLine is a single selectable price on a match.
type BetLine struct {
	ID          string   `yaml:"id" json:"id"`
	Type        LineType `yaml:"type" json:"type"`
	Description string   `yaml:"description" json:"description"`
	Team        string   `yaml:"team,omitempty" json:"team,omitempty"`
	Value       string   `yaml:"value,omitempty" json:"value,omitempty"`
	Odds        float64  `yaml:"odds" json:"odds"`
}

// MatchDetails is a match together with its betting lines.
type MatchDetails struct {
	Match `yaml:",inline"`
	Lines []BetLine `yaml:"lines" json:"lines"`
}

// LinePair is one row of a two-column market: home/away or over/under.
type LinePair struct {
	First  BetLine
	Second BetLine
}

// Handicaps returns the handicap lines paired home/away in listing order.
func (m MatchDetails) Handicaps() []LinePair {
	return m.pairs(LineHandicap)
}

// Totals returns the total lines paired over/under in listing order.
func (m MatchDetails) Totals() []LinePair {
	return m.pairs(LineTotal)
}

// pairs drops a trailing unpaired line.
func (m MatchDetails) pairs(t LineType) []LinePair {
	var lines []BetLine
	for _, l := range m.Lines {
		if l.Type == t {
			lines = append(lines, l)
		}
	}
	pairs := make([]LinePair, 0, len(lines)/2)
	for i := 0; i+1 < len(lines); i += 2 {
		pairs = append(pairs, LinePair{First: lines[i], Second: lines[i+1]})
	}
	return pairs
}

// Tag labels a bet with a bookmaker, tipster or any free-form group.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}
