// Package member resolves a member's visibility cohort.
package member

import (
	"context"
	"errors"
	"sync"

	"github.com/capstone-maru/maru/internal/listing"
)

// ErrMemberNotFound is returned for an unknown member id.
var ErrMemberNotFound = errors.New("member not found")

// CohortResolver looks up the cohort used to populate the visibility gate.
type CohortResolver interface {
	CohortOf(ctx context.Context, memberID string) (listing.Gender, error)
}

// InMemoryDirectory maps member ids to cohorts for tests and local development.
type InMemoryDirectory struct {
	mu      sync.RWMutex
	cohorts map[string]listing.Gender
}

// NewInMemoryDirectory creates an empty directory.
func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{cohorts: make(map[string]listing.Gender)}
}

// Put registers or replaces a member's cohort.
func (d *InMemoryDirectory) Put(memberID string, cohort listing.Gender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cohorts[memberID] = cohort
}

func (d *InMemoryDirectory) CohortOf(ctx context.Context, memberID string) (listing.Gender, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	g, ok := d.cohorts[memberID]
	if !ok {
		return "", ErrMemberNotFound
	}
	return g, nil
}
