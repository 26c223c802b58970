package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/capstone-maru/maru/internal/listing"
	"github.com/capstone-maru/maru/internal/member"
	"github.com/capstone-maru/maru/internal/tracing"
)

// FollowStore reads the follows table.
type FollowStore struct {
	db *sql.DB
}

// NewFollowStore creates a store over db.
func NewFollowStore(db *sql.DB) *FollowStore {
	return &FollowStore{db: db}
}

// Follow records an edge. Existing edges are left unchanged.
func (s *FollowStore) Follow(ctx context.Context, followerID, followedID string) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "follows", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO follows (follower_id, followed_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		followerID, followedID)
	if err != nil {
		return fmt.Errorf("failed to insert follow: %w", err)
	}
	return nil
}

func (s *FollowStore) IsFollowing(ctx context.Context, followerID, publisherID string) (ok bool, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "follows", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND followed_id = $2)`,
		followerID, publisherID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to query follow: %w", err)
	}
	return ok, nil
}

// FollowedAmong resolves the whole publisher set in one query.
func (s *FollowStore) FollowedAmong(ctx context.Context, followerID string, publisherIDs []string) (out map[string]bool, err error) {
	out = make(map[string]bool)
	if len(publisherIDs) == 0 {
		return out, nil
	}

	ctx, endSpan := tracing.StartDBSpan(ctx, "follows", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT followed_id FROM follows WHERE follower_id = $1 AND followed_id = ANY($2)`,
		followerID, pq.Array(publisherIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query follows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan follow: %w", err)
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate follows: %w", err)
	}
	return out, nil
}

// MemberStore reads member cohorts.
type MemberStore struct {
	db *sql.DB
}

// NewMemberStore creates a store over db.
func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

// Upsert registers a member or updates its cohort.
func (s *MemberStore) Upsert(ctx context.Context, memberID string, cohort listing.Gender) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "members", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO members (id, gender) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET gender = EXCLUDED.gender`,
		memberID, string(cohort))
	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

func (s *MemberStore) CohortOf(ctx context.Context, memberID string) (g listing.Gender, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "members", tracing.DBOperationQuery)
	defer func() {
		if errors.Is(err, member.ErrMemberNotFound) {
			endSpan(nil)
			return
		}
		endSpan(err)
	}()

	var gender string
	err = s.db.QueryRowContext(ctx, `SELECT gender FROM members WHERE id = $1`, memberID).Scan(&gender)
	if errors.Is(err, sql.ErrNoRows) {
		return "", member.ErrMemberNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query member: %w", err)
	}
	return listing.Gender(gender), nil
}
