// Package tags keeps the labels a user can attach to bets.
package tags

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"betledger/internal/model"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

const blobKey = "user_tags"

var (
	ErrTagNotFound = errors.New("tag not found")
	ErrEmptyName   = errors.New("tag name is empty")
)

// Defaults are the tags a new ledger starts with.
func Defaults() []model.Tag {
	return []model.Tag{
		{ID: "1", Name: "7k.bet", Color: "emerald"},
		{ID: "2", Name: "Betano", Color: "blue"},
		{ID: "3", Name: "Pinnacle", Color: "purple"},
		{ID: "4", Name: "Bet365", Color: "yellow"},
		{ID: "5", Name: "James", Color: "red"},
		{ID: "6", Name: "Joao", Color: "green"},
		{ID: "7", Name: "Pedro", Color: "orange"},
		{ID: "8", Name: "Betbra", Color: "pink"},
	}
}

// Registry is a concurrency-safe, ordered set of tags. A registry opened
// from a file writes every change back to it.
type Registry struct {
	mu   sync.RWMutex
	path string
	tags []model.Tag
}

// NewRegistry creates an in-memory registry holding initial.
func NewRegistry(initial []model.Tag) *Registry {
	return &Registry{tags: append([]model.Tag(nil), initial...)}
}

// Open loads the tags saved at path. A missing file yields Defaults.
func Open(path string) (*Registry, error) {
	r := &Registry{path: path, tags: Defaults()}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("read tags %s: %w", path, err)
	}
	if !v.IsSet(blobKey) {
		return r, nil
	}
	var saved []model.Tag
	if err := v.UnmarshalKey(blobKey, &saved); err != nil {
		return nil, fmt.Errorf("decode tags %s: %w", path, err)
	}
	r.tags = saved
	return r, nil
}

// List returns the tags in the order they were added.
func (r *Registry) List() []model.Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Tag(nil), r.tags...)
}

// Add creates a tag with a fresh id and appends it.
func (r *Registry) Add(name, color string) (model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Tag{}, ErrEmptyName
	}
	tag := model.Tag{ID: uuid.NewString(), Name: name, Color: color}

	r.mu.Lock()
	defer r.mu.Unlock()
	next := append(append([]model.Tag(nil), r.tags...), tag)
	if err := r.save(next); err != nil {
		return model.Tag{}, err
	}
	r.tags = next
	return tag, nil
}

// Remove deletes the tag with id. Bets keep the names they were logged with.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.tags {
		if t.ID == id {
			next := append(append([]model.Tag(nil), r.tags[:i]...), r.tags[i+1:]...)
			if err := r.save(next); err != nil {
				return err
			}
			r.tags = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrTagNotFound, id)
}

// Names resolves ids to tag names, skipping unknown ids.
func (r *Registry) Names(ids []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, id := range ids {
		for _, t := range r.tags {
			if t.ID == id {
				out = append(out, t.Name)
				break
			}
		}
	}
	return out
}

func (r *Registry) save(tags []model.Tag) error {
	if r.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create tags dir: %w", err)
	}

	blob := make([]map[string]any, len(tags))
	for i, t := range tags {
		blob[i] = map[string]any{"id": t.ID, "name": t.Name, "color": t.Color}
	}
	v := viper.New()
	v.SetConfigType("json")
	v.Set(blobKey, blob)
	if err := v.WriteConfigAs(r.path); err != nil {
		return fmt.Errorf("write tags %s: %w", r.path, err)
	}
	return nil
}
