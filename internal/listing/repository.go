package listing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors for listing operations.
var (
	ErrListingNotFound = errors.New("listing not found")
	ErrListingDeleted  = errors.New("listing has been deleted")
)

// Reader is the read-only access the search engine needs from the listing
// catalog. Implementations own retries and synchronization.
type Reader interface {
	// FetchCandidates returns every listing matching p. Order is unspecified.
	FetchCandidates(ctx context.Context, p Predicate) ([]*RoomListing, error)

	// Count returns the number of listings matching p.
	Count(ctx context.Context, p Predicate) (int, error)

	// GetByID returns a non-deleted listing or ErrListingNotFound.
	GetByID(ctx context.Context, id string) (*RoomListing, error)
}

// InMemoryRepository is an in-memory listing catalog used for tests and
// local development. Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu       sync.RWMutex
	listings map[string]*RoomListing
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		listings: make(map[string]*RoomListing),
	}
}

// Insert stores a copy of l. An empty ID is replaced with a new UUID and a
// zero CreatedAt with the current time; both are written back to l.
func (r *InMemoryRepository) Insert(l *RoomListing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	r.listings[l.ID] = l.Clone()
	return nil
}

// Delete logically deletes a listing on behalf of its publisher.
func (r *InMemoryRepository) Delete(id, publisherID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.listings[id]
	if !ok || l.PublisherID != publisherID {
		return ErrListingNotFound
	}
	if l.IsDeleted() {
		return ErrListingDeleted
	}
	now := time.Now().UTC()
	l.DeletedAt = &now
	return nil
}

// FetchCandidates returns copies of every listing matching p.
func (r *InMemoryRepository) FetchCandidates(ctx context.Context, p Predicate) ([]*RoomListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*RoomListing
	for _, l := range r.listings {
		if p.Matches(l) {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}

// Count returns the number of listings matching p.
func (r *InMemoryRepository) Count(ctx context.Context, p Predicate) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, l := range r.listings {
		if p.Matches(l) {
			n++
		}
	}
	return n, nil
}

// GetByID returns a copy of a non-deleted listing.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*RoomListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.listings[id]
	if !ok || l.IsDeleted() {
		return nil, ErrListingNotFound
	}
	return l.Clone(), nil
}
