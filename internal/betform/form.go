// Package betform turns user input into new ledger entries.
package betform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"betledger/internal/model"
	"betledger/internal/settings"
	"betledger/internal/tags"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrMissingOdds  = errors.New("odds are required")
	ErrMissingStake = errors.New("stake is required")
	ErrInvalidInput = errors.New("invalid bet")
)

// Draft is the editable state of the form before submission.
// Odds and Stake hold raw text as typed.
type Draft struct {
	Match     model.MatchDetails
	Line      model.BetLine
	Period    string
	Odds      string
	Stake     string
	Bookmaker string
	TagIDs    []string
}

// NewDraft prefills the odds from line and the stake from the user's default.
func NewDraft(match model.MatchDetails, line model.BetLine, st settings.Settings) Draft {
	d := Draft{
		Match:  match,
		Line:   line,
		Period: "match",
	}
	if line.Odds > 0 {
		d.Odds = strconv.FormatFloat(line.Odds, 'f', -1, 64)
	}
	if st.DefaultStake > 0 {
		d.Stake = strconv.FormatFloat(st.DefaultStake, 'f', -1, 64)
	}
	return d
}

// CanSubmit mirrors the disabled state of the submit button.
func (d Draft) CanSubmit() bool {
	return strings.TrimSpace(d.Odds) != "" && strings.TrimSpace(d.Stake) != ""
}

// entry is the parsed form, checked with validator tags.
type entry struct {
	MatchID string  `validate:"required"`
	Market  string  `validate:"required"`
	Outcome string  `validate:"required"`
	Odds    float64 `validate:"gt=1"`
	Stake   float64 `validate:"gt=0"`
}

// Form validates drafts and creates pending bets.
type Form struct {
	settings settings.Settings
	tags     *tags.Registry
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// Option configures a Form.
type Option func(*Form)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Form) { f.now = now }
}

// WithIDs replaces the UUID generator.
func WithIDs(newID func() string) Option {
	return func(f *Form) { f.newID = newID }
}

// WithTags resolves Draft.TagIDs to names through r.
func WithTags(r *tags.Registry) Option {
	return func(f *Form) { f.tags = r }
}

// New creates a new Form for the user's current settings.
func New(st settings.Settings, opts ...Option) *Form {
	f := &Form{
		settings: st,
		validate: validator.New(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Submit validates d and returns the bet to log. With LockStake set the
// default stake is used whatever was typed.
func (f *Form) Submit(d Draft) (model.BetRecord, error) {
	if strings.TrimSpace(d.Odds) == "" {
		return model.BetRecord{}, ErrMissingOdds
	}
	stakeText := d.Stake
	if f.settings.LockStake {
		stakeText = strconv.FormatFloat(f.settings.DefaultStake, 'f', -1, 64)
	}
	if strings.TrimSpace(stakeText) == "" {
		return model.BetRecord{}, ErrMissingStake
	}

	odds, err := ParseAmount(d.Odds)
	if err != nil {
		return model.BetRecord{}, fmt.Errorf("%w: odds: %v", ErrInvalidInput, err)
	}
	stake, err := ParseAmount(stakeText)
	if err != nil {
		return model.BetRecord{}, fmt.Errorf("%w: stake: %v", ErrInvalidInput, err)
	}

	e := entry{
		MatchID: d.Match.ID,
		Market:  string(d.Line.Type),
		Outcome: d.Line.Description,
		Odds:    odds,
		Stake:   stake,
	}
	if err := f.validate.Struct(e); err != nil {
		return model.BetRecord{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := f.now()
	local := now.In(f.settings.Location())
	var tagNames []string
	if f.tags != nil {
		tagNames = f.tags.Names(d.TagIDs)
	}

	return model.BetRecord{
		ID:          f.newID(),
		MatchID:     d.Match.ID,
		HomeTeam:    d.Match.HomeTeam,
		AwayTeam:    d.Match.AwayTeam,
		Sport:       d.Match.Sport,
		Competition: d.Match.League,
		Market:      e.Market,
		Outcome:     e.Outcome,
		Period:      d.Period,
		Bookmaker:   d.Bookmaker,
		Tags:        tagNames,
		Stake:       stake,
		Odds:        odds,
		Status:      model.StatusPending,
		Date:        time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC),
		PlacedAt:    now,
	}, nil
}

// ParseAmount reads a decimal typed with either '.' or ',' as the decimal
// separator. Whichever separator comes last is the decimal one, so both
// 1.000,50 and 1,000.50 read as 1000.5.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma > dot && strings.Count(s, ",") == 1:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dot > comma && comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// PotentialReturn is the payout if the bet wins, rounded to cents.
func PotentialReturn(stake, odds float64) float64 {
	return decimal.NewFromFloat(stake).Mul(decimal.NewFromFloat(odds)).Round(2).InexactFloat64()
}
