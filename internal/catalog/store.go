package catalog

import (
	"context"
	"math"
	"sync"

	"github.com/go-faster/errors"
)

var (
	ErrNotSeeded = errors.New("store not seeded")
	// ErrIDSpaceExhausted is returned when a colliding id cannot be replaced
	// because the largest id is already math.MaxInt64.
	ErrIDSpaceExhausted = errors.New("no free product id")
)

// Store holds the product table in insertion order. byID maps an id to the
// positions of every row carrying it; seeds are not validated, so an id may
// appear more than once.
type Store struct {
	mu     sync.RWMutex
	rows   []Product
	byID   map[int64][]int
	seeded bool
}

func NewStore() *Store {
	return &Store{byID: map[int64][]int{}}
}

// Seed replaces the store contents with rows, keeping their order.
func (s *Store) Seed(rows []Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = append(make([]Product, 0, len(rows)), rows...)
	s.reindex()
	s.seeded = true
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.seeded {
		return ErrNotSeeded
	}
	return ctx.Err()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// All returns a copy of every product in store order.
func (s *Store) All() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]Product, 0, len(s.rows)), s.rows...)
}

// NextAvailableID returns max(id)+1.
func (s *Store) NextAvailableID() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID()
}

// FindByField returns every product whose column equals value. value must
// already be coerced to the column type (see ParseFieldValue).
func (s *Store) FindByField(field string, value any) ([]Product, error) {
	if _, ok := fieldKinds[field]; !ok {
		return nil, errors.Wrapf(ErrUnknownField, "%q", field)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if field == FieldID {
		id, ok := value.(int64)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidValue, "id: want integer, got %T", value)
		}
		return s.collect(s.byID[id]), nil
	}

	out := make([]Product, 0)
	for _, p := range s.rows {
		v, _ := p.Get(field)
		if valuesEqual(v, value) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) FindByID(id int64) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byID[id])
}

// AddResult describes an accepted insert.
type AddResult struct {
	Product    Product
	Reassigned bool
	// RequestedID is the id the caller asked for; it differs from Product.ID
	// when Reassigned is set.
	RequestedID int64
	Products    []Product
}

// Add appends candidate. A colliding id is replaced with NextAvailableID
// rather than rejected. Nothing is stored when no replacement id exists.
func (s *Store) Add(candidate Product) (AddResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := AddResult{RequestedID: candidate.ID}
	if len(s.byID[candidate.ID]) > 0 {
		next, err := s.nextID()
		if err != nil {
			return AddResult{}, errors.Wrapf(err, "reassign id %d", candidate.ID)
		}
		candidate.ID = next
		res.Reassigned = true
	}

	s.rows = append(s.rows, candidate)
	s.byID[candidate.ID] = append(s.byID[candidate.ID], len(s.rows)-1)

	res.Product = candidate
	res.Products = append(make([]Product, 0, len(s.rows)), s.rows...)
	return res, nil
}

// Edit applies updates to every product with the given id. An "id" key in
// updates is ignored. Either all updates apply or none do. found is false
// when no product has the id.
func (s *Store) Edit(id int64, updates map[string]any) (updated []Product, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := s.byID[id]
	if len(pos) == 0 {
		return nil, false, nil
	}

	staged := make([]Product, len(pos))
	for i, at := range pos {
		p := s.rows[at]
		for field, v := range updates {
			if field == FieldID {
				continue
			}
			if err := p.Set(field, v); err != nil {
				return nil, true, err
			}
		}
		staged[i] = p
	}

	for i, at := range pos {
		s.rows[at] = staged[i]
	}
	return staged, true, nil
}

// Remove deletes every product with the given id and compacts the table.
func (s *Store) Remove(id int64) (removed []Product, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := s.byID[id]
	if len(pos) == 0 {
		return nil, false
	}

	removed = s.collect(pos)

	kept := s.rows[:0]
	for _, p := range s.rows {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	clear(s.rows[len(kept):])
	s.rows = kept
	s.reindex()

	return removed, true
}

func (s *Store) nextID() (int64, error) {
	if len(s.rows) == 0 {
		return 0, ErrEmptyStore
	}
	top := s.rows[0].ID
	for _, p := range s.rows[1:] {
		top = max(top, p.ID)
	}
	if top == math.MaxInt64 {
		return 0, ErrIDSpaceExhausted
	}
	return top + 1, nil
}

func (s *Store) collect(pos []int) []Product {
	out := make([]Product, 0, len(pos))
	for _, at := range pos {
		out = append(out, s.rows[at])
	}
	return out
}

func (s *Store) reindex() {
	s.byID = make(map[int64][]int, len(s.rows))
	for i, p := range s.rows {
		s.byID[p.ID] = append(s.byID[p.ID], i)
	}
}
