package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// blobKey is the key the settings blob is stored under.
const blobKey = "user_settings"

// Settings are the user's display and bet-entry preferences.
type Settings struct {
	DefaultStake    float64 `mapstructure:"default_stake" json:"default_stake"`
	LockStake       bool    `mapstructure:"lock_stake" json:"lock_stake"`
	Currency        string  `mapstructure:"currency" json:"currency"`
	Timezone        string  `mapstructure:"timezone" json:"timezone"`
	Notifications   bool    `mapstructure:"notifications" json:"notifications"`
	AutoCalculateEV bool    `mapstructure:"auto_calculate_ev" json:"auto_calculate_ev"`
}

// Defaults returns the settings used before anything is saved.
func Defaults() Settings {
	return Settings{
		DefaultStake:    100,
		LockStake:       false,
		Currency:        "BRL",
		Timezone:        "America/Sao_Paulo",
		Notifications:   true,
		AutoCalculateEV: true,
	}
}

// Location resolves the timezone, falling back to UTC when it is unknown.
func (s Settings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Patch is a partial settings update. Nil fields keep their current value.
type Patch struct {
	DefaultStake    *float64
	LockStake       *bool
	Currency        *string
	Timezone        *string
	Notifications   *bool
	AutoCalculateEV *bool
}

// Apply merges p into s.
func (p Patch) Apply(s Settings) Settings {
	if p.DefaultStake != nil {
		s.DefaultStake = *p.DefaultStake
	}
	if p.LockStake != nil {
		s.LockStake = *p.LockStake
	}
	if p.Currency != nil {
		s.Currency = *p.Currency
	}
	if p.Timezone != nil {
		s.Timezone = *p.Timezone
	}
	if p.Notifications != nil {
		s.Notifications = *p.Notifications
	}
	if p.AutoCalculateEV != nil {
		s.AutoCalculateEV = *p.AutoCalculateEV
	}
	return s
}

var ErrUnknownSetting = errors.New("unknown setting")

// ParsePatch builds a Patch from key=value pairs using the persisted key names.
func ParsePatch(pairs []string) (Patch, error) {
	var p Patch
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return Patch{}, fmt.Errorf("setting %q: expected key=value", pair)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		var err error
		switch key {
		case "default_stake":
			var f float64
			f, err = strconv.ParseFloat(strings.Replace(value, ",", ".", 1), 64)
			if err == nil && f <= 0 {
				err = errors.New("must be positive")
			}
			p.DefaultStake = &f
		case "lock_stake":
			p.LockStake, err = parseBool(value)
		case "currency":
			c := strings.ToUpper(value)
			p.Currency = &c
		case "timezone":
			_, err = time.LoadLocation(value)
			p.Timezone = &value
		case "notifications":
			p.Notifications, err = parseBool(value)
		case "auto_calculate_ev":
			p.AutoCalculateEV, err = parseBool(value)
		default:
			return Patch{}, fmt.Errorf("%w: %s", ErrUnknownSetting, key)
		}
		if err != nil {
			return Patch{}, fmt.Errorf("setting %s: %w", key, err)
		}
	}
	return p, nil
}

func parseBool(s string) (*bool, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Store persists settings as a single JSON blob on disk.
type Store struct {
	mu      sync.Mutex
	path    string
	current Settings
}

// Open loads the settings at path. A missing file yields the defaults.
func Open(path string) (*Store, error) {
	s := &Store{path: path, current: Defaults()}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	if !v.IsSet(blobKey) {
		return s, nil
	}
	if err := v.UnmarshalKey(blobKey, &s.current); err != nil {
		return nil, fmt.Errorf("decode settings %s: %w", path, err)
	}
	return s, nil
}

// Get returns the current settings.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update merges p into the current settings and writes them to disk.
func (s *Store) Update(p Patch) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := p.Apply(s.current)
	if err := s.write(next); err != nil {
		return s.current, err
	}
	s.current = next
	return next, nil
}

func (s *Store) write(st Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	v.Set(blobKey, map[string]any{
		"default_stake":     st.DefaultStake,
		"lock_stake":        st.LockStake,
		"currency":          st.Currency,
		"timezone":          st.Timezone,
		"notifications":     st.Notifications,
		"auto_calculate_ev": st.AutoCalculateEV,
	})
	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write settings %s: %w", s.path, err)
	}
	return nil
}

var currencySymbols = map[string]string{
	"BRL": "R$",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// CurrencySymbol returns the display symbol for an ISO currency code,
// or the code itself when it is not one of the supported currencies.
func CurrencySymbol(code string) string {
	if sym, ok := currencySymbols[code]; ok {
		return sym
	}
	return code
}
