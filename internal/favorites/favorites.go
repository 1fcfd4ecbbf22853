// Package favorites holds the per-session set of favorited products.
package favorites

import "sync"

// Entry is the product snapshot taken when it was favorited.
type Entry struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Subtitle    string   `json:"subtitle,omitempty"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	ImageURL    string   `json:"imageUrl"`
	Rating      float64  `json:"rating"`
	Category    string   `json:"category,omitempty"`
}

// Store is an insertion-ordered set of entries keyed by product id.
type Store struct {
	mu      sync.Mutex
	order   []string
	entries map[string]Entry
}

// New returns an empty favorites set.
func New() *Store {
	return &Store{entries: make(map[string]Entry)}
}

// ToggleFavorite removes e when it is a member and adds it otherwise. It
// returns the membership after the call. An empty id is ignored and reports
// false.
func (s *Store) ToggleFavorite(e Entry) bool {
	if e.ID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[e.ID]; ok {
		s.remove(e.ID)
		return false
	}
	s.entries[e.ID] = e
	s.order = append(s.order, e.ID)
	return true
}

// IsFavorite reports membership of id.
func (s *Store) IsFavorite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[id]
	return ok
}

// Get returns the entry for id.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	return e, ok
}

// RemoveFavorite drops id unconditionally and returns the removed entry.
func (s *Store) RemoveFavorite(id string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if ok {
		s.remove(id)
	}
	return e, ok
}

// ClearFavorites empties the set and reports how many entries were dropped.
func (s *Store) ClearFavorites() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.order)
	s.order = nil
	s.entries = make(map[string]Entry)
	return n
}

// List returns the entries in the order they were added.
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out
}

// Len returns the number of favorites.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *Store) remove(id string) {
	delete(s.entries, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
