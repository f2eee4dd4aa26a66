package handlers

import (
	"sync"
	"time"

	"github.com/techretail/retailbot/internal/domain"
)

// ListingStore remembers the last /reservas output per user so /cancelar
// and /quitar can refer to orders by their position in it.
type ListingStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[int64]listing
}

type listing struct {
	orders []domain.Order
	at     time.Time
}

// NewListingStore creates a store whose entries expire after ttl.
func NewListingStore(ttl time.Duration) *ListingStore {
	return &ListingStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int64]listing),
	}
}

// Put replaces the user's listing. Expired listings of other users are
// dropped on the way.
func (s *ListingStore) Put(telegramID int64, orders []domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, l := range s.entries {
		if now.Sub(l.at) >= s.ttl {
			delete(s.entries, id)
		}
	}
	s.entries[telegramID] = listing{orders: append([]domain.Order(nil), orders...), at: now}
}

// Get returns the user's listing if it has not expired.
func (s *ListingStore) Get(telegramID int64) ([]domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.entries[telegramID]
	if !ok {
		return nil, false
	}
	if s.now().Sub(l.at) >= s.ttl {
		delete(s.entries, telegramID)
		return nil, false
	}
	return append([]domain.Order(nil), l.orders...), true
}

// Update swaps an order in the user's listing, keeping its position.
func (s *ListingStore) Update(telegramID int64, order domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.entries[telegramID]
	if !ok {
		return
	}
	for i := range l.orders {
		if l.orders[i].ID == order.ID {
			l.orders[i] = order
			return
		}
	}
}

// Clear forgets the user's listing.
func (s *ListingStore) Clear(telegramID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, telegramID)
}
