// Package social provides read access to the member follow graph.
package social

import (
	"context"
	"sync"
)

// FollowGraph answers follow-edge queries. Edges are directed from follower
// to followed member.
type FollowGraph interface {
	IsFollowing(ctx context.Context, followerID, publisherID string) (bool, error)

	// FollowedAmong returns the subset of publisherIDs that followerID
	// follows, keyed by publisher id. Unfollowed publishers are omitted.
	FollowedAmong(ctx context.Context, followerID string, publisherIDs []string) (map[string]bool, error)
}

// InMemoryFollowGraph is a follow graph for tests and local development.
type InMemoryFollowGraph struct {
	mu    sync.RWMutex
	edges map[string]map[string]struct{}
}

// NewInMemoryFollowGraph creates an empty graph.
func NewInMemoryFollowGraph() *InMemoryFollowGraph {
	return &InMemoryFollowGraph{edges: make(map[string]map[string]struct{})}
}

// Follow records that followerID follows followedID. Self-follows are ignored.
func (g *InMemoryFollowGraph) Follow(followerID, followedID string) {
	if followerID == followedID {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	set, ok := g.edges[followerID]
	if !ok {
		set = make(map[string]struct{})
		g.edges[followerID] = set
	}
	set[followedID] = struct{}{}
}

// Unfollow removes the edge if present.
func (g *InMemoryFollowGraph) Unfollow(followerID, followedID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.edges[followerID], followedID)
}

func (g *InMemoryFollowGraph) IsFollowing(ctx context.Context, followerID, publisherID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.edges[followerID][publisherID]
	return ok, nil
}

func (g *InMemoryFollowGraph) FollowedAmong(ctx context.Context, followerID string, publisherIDs []string) (map[string]bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]bool)
	set := g.edges[followerID]
	for _, id := range publisherIDs {
		if _, ok := set[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}
