// Package cart holds the per-session shopping cart. Every operation is a
// single total transformation under the store mutex; malformed input is
// normalized, never rejected.
package cart

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
)

// MaxQuantity caps the quantity of a single line. Larger requests saturate.
const MaxQuantity = math.MaxInt32

// LineItem is one row of the cart. Name, price and image are snapshots taken
// when the product was first added.
type LineItem struct {
	Key        string  `json:"key"`
	ProductID  string  `json:"productId"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	ImagePath  string  `json:"imagePath"`
	Quantity   int     `json:"quantity"`
	VariantKey string  `json:"variantKey,omitempty"`
	Type       string  `json:"type,omitempty"`
}

// AddInput is the add-to-cart payload. Nil Price and Quantity mean the field
// was absent.
type AddInput struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Price      *float64 `json:"price"`
	ImagePath  string   `json:"imagePath"`
	Quantity   *int     `json:"quantity"`
	Type       string   `json:"type"`
	VariantKey string   `json:"variantKey"`
}

// Snapshot is a point-in-time copy of the cart with its derived totals.
type Snapshot struct {
	Items    []LineItem `json:"items"`
	Subtotal float64    `json:"subtotal"`
	TotalQty int        `json:"totalQty"`
}

// LineKey derives the line item key for a product and optional variant.
func LineKey(productID, variantKey string) string {
	if variantKey == "" {
		return productID
	}
	return productID + ":" + variantKey
}

// ParseQuantity converts raw quantity text by dropping every non-digit
// character. Empty text yields 0; values past MaxQuantity saturate.
func ParseQuantity(raw string) int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	n, err := strconv.Atoi(digits)
	if errors.Is(err, strconv.ErrRange) {
		return MaxQuantity
	}
	if err != nil {
		return 0
	}
	return min(n, MaxQuantity)
}

// addQuantity adds two in-range quantities, saturating at MaxQuantity.
func addQuantity(a, b int) int {
	if a > MaxQuantity-b {
		return MaxQuantity
	}
	return a + b
}

func normalizePrice(p *float64) float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) || *p < 0 {
		return 0
	}
	return *p
}

func normalizeQuantity(q *int) int {
	if q == nil || *q < 1 {
		return 1
	}
	return min(*q, MaxQuantity)
}

// Store owns the line items of one cart.
type Store struct {
	mu    sync.Mutex
	items []LineItem
}

// New returns an empty cart.
func New() *Store {
	return &Store{}
}

func (s *Store) indexOf(key string) int {
	for i := range s.items {
		if s.items[i].Key == key {
			return i
		}
	}
	return -1
}

// AddToCart merges in into the cart: an existing line with the same key
// grows by the incoming quantity, otherwise a new line is appended. An empty
// id is ignored. It returns the resulting line and whether anything changed.
func (s *Store) AddToCart(in AddInput) (LineItem, bool) {
	if in.ID == "" {
		return LineItem{}, false
	}
	key := LineKey(in.ID, in.VariantKey)
	qty := normalizeQuantity(in.Quantity)

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(key); i >= 0 {
		s.items[i].Quantity = addQuantity(s.items[i].Quantity, qty)
		return s.items[i], true
	}

	item := LineItem{
		Key:        key,
		ProductID:  in.ID,
		Name:       in.Name,
		Price:      normalizePrice(in.Price),
		ImagePath:  in.ImagePath,
		Quantity:   qty,
		VariantKey: in.VariantKey,
		Type:       in.Type,
	}
	s.items = append(s.items, item)
	return item, true
}

// Increment adds one to the line's quantity. Unknown keys are a no-op.
func (s *Store) Increment(key string) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(key)
	if i < 0 {
		return LineItem{}, false
	}
	s.items[i].Quantity = addQuantity(s.items[i].Quantity, 1)
	return s.items[i], true
}

// Decrement subtracts one from the line's quantity and removes the line when
// it reaches zero. The returned item carries the resulting quantity, so 0
// means the line was removed.
func (s *Store) Decrement(key string) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(key)
	if i < 0 {
		return LineItem{}, false
	}
	s.items[i].Quantity--
	item := s.items[i]
	if item.Quantity <= 0 {
		item.Quantity = 0
		s.removeAt(i)
	}
	return item, true
}

// SetQty sets the line's quantity to exactly n, removing it when n <= 0.
// n is capped at MaxQuantity.
func (s *Store) SetQty(key string, n int) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(key)
	if i < 0 {
		return LineItem{}, false
	}
	if n <= 0 {
		item := s.items[i]
		item.Quantity = 0
		s.removeAt(i)
		return item, true
	}
	s.items[i].Quantity = min(n, MaxQuantity)
	return s.items[i], true
}

// RemoveItem drops the line unconditionally and returns what was removed.
func (s *Store) RemoveItem(key string) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(key)
	if i < 0 {
		return LineItem{}, false
	}
	item := s.items[i]
	s.removeAt(i)
	return item, true
}

// RemoveFromCart is an alias of RemoveItem.
func (s *Store) RemoveFromCart(key string) (LineItem, bool) {
	return s.RemoveItem(key)
}

// ClearCart empties the cart and reports how many lines were dropped.
func (s *Store) ClearCart() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.items)
	s.items = nil
	return n
}

func (s *Store) removeAt(i int) {
	s.items = append(s.items[:i], s.items[i+1:]...)
}

// Item returns a copy of the line with the given key.
func (s *Store) Item(key string) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(key); i >= 0 {
		return s.items[i], true
	}
	return LineItem{}, false
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Subtotal is the sum of price times quantity over the current lines.
func (s *Store) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return subtotal(s.items)
}

// TotalQty is the sum of quantities over the current lines.
func (s *Store) TotalQty() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalQty(s.items)
}

// Snapshot returns the lines and both totals computed under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]LineItem, len(s.items))
	copy(items, s.items)
	return Snapshot{
		Items:    items,
		Subtotal: subtotal(items),
		TotalQty: totalQty(items),
	}
}

func subtotal(items []LineItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Price * float64(it.Quantity)
	}
	return sum
}

func totalQty(items []LineItem) int {
	var n int
	for _, it := range items {
		n += it.Quantity
	}
	return n
}
