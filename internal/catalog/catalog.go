// Package catalog owns the recipe list the calculator reads from: the bundled
// preloaded recipes merged with the ones users add or edit.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cafeteria-planner/internal/recipe"
)

var (
	ErrNotFound     = errors.New("recipe not found")
	ErrIndexOutside = errors.New("recipe index out of range")
)

// Origin tells where a catalog entry came from.
type Origin string

const (
	OriginPreloaded Origin = "preloaded"
	OriginUser      Origin = "user"
)

// Entry is a recipe together with its origin.
type Entry struct {
	recipe.Recipe
	Origin Origin `json:"origin"`
}

// UserState is the persisted part of the catalog.
type UserState struct {
	Recipes []recipe.Recipe `json:"recipes"`
	// Overrides is keyed by position in the preloaded list. A non-nil recipe
	// replaces the preloaded one in place; nil removes it. Positions past the
	// end of the preloaded list are ignored.
	Overrides map[int]*recipe.Recipe `json:"overrides,omitempty"`
}

// UserStore persists the user state. Load returns an empty state when nothing
// has been saved yet.
type UserStore interface {
	Load(ctx context.Context) (UserState, error)
	Save(ctx context.Context, state UserState) error
}

// Store is the in-memory catalog. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	preloaded []recipe.Recipe
	state     UserState
	persist   UserStore
}

// Open loads the user state from persist and merges it with preloaded.
func Open(ctx context.Context, preloaded []recipe.Recipe, persist UserStore) (*Store, error) {
	state, err := persist.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load user recipes: %w", err)
	}
	for i, r := range state.Recipes {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("stored recipe %d: %w", i, err)
		}
	}
	for i, r := range state.Overrides {
		if r == nil {
			continue
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("stored override of preloaded recipe %d: %w", i, err)
		}
	}

	pre := make([]recipe.Recipe, len(preloaded))
	for i, r := range preloaded {
		pre[i] = r.Clone()
	}
	return &Store{preloaded: pre, state: state, persist: persist}, nil
}

// position locates an entry in the backing state: preloaded >= 0 for a
// preloaded slot, otherwise user indexes state.Recipes.
type position struct {
	preloaded int
	user      int
}

// entries builds the merged view along with where each entry lives. Callers
// must hold mu.
func (s *Store) entries() ([]Entry, []position) {
	out := make([]Entry, 0, len(s.preloaded)+len(s.state.Recipes))
	pos := make([]position, 0, cap(out))
	for i, r := range s.preloaded {
		origin := OriginPreloaded
		if override, ok := s.state.Overrides[i]; ok {
			if override == nil {
				continue
			}
			r, origin = *override, OriginUser
		}
		out = append(out, Entry{Recipe: r.Clone(), Origin: origin})
		pos = append(pos, position{preloaded: i, user: -1})
	}
	for i, r := range s.state.Recipes {
		out = append(out, Entry{Recipe: r.Clone(), Origin: OriginUser})
		pos = append(pos, position{preloaded: -1, user: i})
	}
	return out, pos
}

// Entries returns the merged catalog, preloaded recipes first.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, _ := s.entries()
	return entries
}

// Recipes returns a copy of the merged catalog.
func (s *Store) Recipes() []recipe.Recipe {
	entries := s.Entries()
	out := make([]recipe.Recipe, len(entries))
	for i, e := range entries {
		out[i] = e.Recipe
	}
	return out
}

// Find returns the first recipe named name.
func (s *Store) Find(name string) (recipe.Recipe, bool) {
	for _, e := range s.Entries() {
		if e.Name == name {
			return e.Recipe, true
		}
	}
	return recipe.Recipe{}, false
}

// ByCategory returns the recipes of category c in catalog order.
func (s *Store) ByCategory(c recipe.Category) []recipe.Recipe {
	var out []recipe.Recipe
	for _, e := range s.Entries() {
		if e.Category == c {
			out = append(out, e.Recipe)
		}
	}
	return out
}

// Add appends a user recipe and persists.
func (s *Store) Add(ctx context.Context, r recipe.Recipe) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyState()
	next.Recipes = append(next.Recipes, r.Clone())
	return s.commit(ctx, next)
}

// Replace overwrites the entry at index, as returned by Entries. The entry
// keeps its index; an edited preloaded recipe is stored as an override of
// that preloaded slot only.
func (s *Store) Replace(ctx context.Context, index int, r recipe.Recipe) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, pos := s.entries()
	if index < 0 || index >= len(pos) {
		return fmt.Errorf("%w: %d", ErrIndexOutside, index)
	}
	target := pos[index]

	next := s.copyState()
	edited := r.Clone()
	if target.preloaded >= 0 {
		next.Overrides[target.preloaded] = &edited
	} else {
		next.Recipes[target.user] = edited
	}
	return s.commit(ctx, next)
}

// Remove deletes every entry named name.
func (s *Store) Remove(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, pos := s.entries()
	next := s.copyState()
	found := false

	for i, e := range entries {
		if e.Name == name && pos[i].preloaded >= 0 {
			next.Overrides[pos[i].preloaded] = nil
			found = true
		}
	}

	kept := next.Recipes[:0]
	for _, r := range next.Recipes {
		if r.Name == name {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	next.Recipes = kept

	if !found {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return s.commit(ctx, next)
}

// commit persists next and swaps it in. The in-memory state is untouched when
// saving fails. Callers must hold mu.
func (s *Store) commit(ctx context.Context, next UserState) error {
	if err := s.persist.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save user recipes: %w", err)
	}
	s.state = next
	return nil
}

func (s *Store) copyState() UserState {
	next := UserState{
		Recipes:   make([]recipe.Recipe, len(s.state.Recipes)),
		Overrides: make(map[int]*recipe.Recipe, len(s.state.Overrides)),
	}
	for i, r := range s.state.Recipes {
		next.Recipes[i] = r.Clone()
	}
	for i, r := range s.state.Overrides {
		if r == nil {
			next.Overrides[i] = nil
			continue
		}
		c := r.Clone()
		next.Overrides[i] = &c
	}
	return next
}
