// Package search implements the room search engine: it composes the filter
// predicate with the cohort gate, fixes one candidate set per call, optionally
// scores it for the requester and returns one stable page.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/capstone-maru/maru/internal/filter"
	"github.com/capstone-maru/maru/internal/listing"
	"github.com/capstone-maru/maru/internal/member"
	"github.com/capstone-maru/maru/internal/popularity"
	"github.com/capstone-maru/maru/internal/ranking"
	"github.com/capstone-maru/maru/internal/social"
	"github.com/capstone-maru/maru/internal/tracing"
)

// Page size defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Query is one search request. An empty RequesterID is an anonymous caller,
// who must supply AnonymousCohort; for authenticated callers the cohort is
// always looked up and AnonymousCohort is ignored.
type Query struct {
	RequesterID     string
	AnonymousCohort listing.Gender
	Filter          filter.SearchFilterRequest
	Keyword         string
	CardOption      string
	PageIndex       int
	PageSize        int // 0 selects the engine default
}

// Anonymous reports whether the query has no authenticated requester.
func (q Query) Anonymous() bool {
	return q.RequesterID == ""
}

// Config holds engine settings. Zero values fall back to defaults.
type Config struct {
	Weights         *ranking.Weights
	DefaultPageSize int
	MaxPageSize     int
	Metrics         *Metrics
	Logger          *slog.Logger
}

// Engine runs searches. It keeps no per-request state and is safe for
// concurrent use.
type Engine struct {
	listings   listing.Reader
	popularity popularity.Reader
	follows    social.FollowGraph
	members    member.CohortResolver

	scorer          *ranking.Scorer
	defaultPageSize int
	maxPageSize     int
	metrics         *Metrics
	logger          *slog.Logger
}

// NewEngine creates an engine over the given read collaborators.
func NewEngine(
	config Config,
	listings listing.Reader,
	views popularity.Reader,
	follows social.FollowGraph,
	members member.CohortResolver,
) *Engine {
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = MaxPageSize
	}
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = DefaultPageSize
	}
	if config.DefaultPageSize > config.MaxPageSize {
		config.DefaultPageSize = config.MaxPageSize
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Engine{
		listings:        listings,
		popularity:      views,
		follows:         follows,
		members:         members,
		scorer:          ranking.NewScorer(config.Weights),
		defaultPageSize: config.DefaultPageSize,
		maxPageSize:     config.MaxPageSize,
		metrics:         config.Metrics,
		logger:          config.Logger,
	}
}

// Search returns the requested page of listings visible to the requester.
//
// Errors:
//   - ErrInvalidQuery (also filter.ErrValidation) for malformed input; no read is issued
//   - ErrUnknownRequester when an authenticated requester has no cohort
//   - *DataAccessError wrapping any collaborator failure
func (e *Engine) Search(ctx context.Context, q Query) (page *Page, err error) {
	start := time.Now()
	ctx, endSpan := tracing.StartSpan(ctx, "search.rooms")
	defer func() {
		endSpan(err)
		e.observe(err, time.Since(start))
	}()

	pageSize, option, err := e.validate(q)
	if err != nil {
		return nil, err
	}

	pred, err := e.predicate(ctx, q)
	if err != nil {
		return nil, err
	}

	candidates, err := e.listings.FetchCandidates(ctx, pred)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to fetch candidates", "error", err)
		return nil, dataAccess("fetch candidates", err)
	}

	var scores map[string]float64
	personalized := !q.Anonymous() && option.Personalized()
	if personalized && len(candidates) > 0 {
		scores, err = e.score(ctx, q.RequesterID, option, candidates)
		if err != nil {
			return nil, err
		}
	}

	page = Paginate(Rank(candidates, scores), q.PageIndex, pageSize)

	mode := string(option)
	if !personalized {
		mode = "none"
	}
	tracing.SetAttributes(ctx,
		attribute.String("search.mode", mode),
		attribute.Int("search.candidates", len(candidates)),
		attribute.Int("search.page_index", q.PageIndex),
	)
	if e.metrics != nil {
		e.metrics.IncSearch(mode)
		e.metrics.ObserveCandidates(len(candidates))
	}
	e.logger.DebugContext(ctx, "room search completed",
		"mode", mode,
		"candidates", len(candidates),
		"page_index", q.PageIndex,
		"page_size", pageSize,
		"items", len(page.Items))

	return page, nil
}

// Count returns the number of listings matching the query's filter and
// keyword inside the requester's cohort. Paging and CardOption are ignored.
func (e *Engine) Count(ctx context.Context, q Query) (n int, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "search.count")
	defer func() {
		endSpan(err)
		if err != nil && e.metrics != nil {
			e.metrics.IncError(errorKind(err))
		}
	}()

	if err := q.Filter.Validate(); err != nil {
		return 0, invalidErr(err)
	}
	pred, err := e.predicate(ctx, q)
	if err != nil {
		return 0, err
	}

	n, err = e.listings.Count(ctx, pred)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to count listings", "error", err)
		return 0, dataAccess("count", err)
	}
	return n, nil
}

// GetListing returns one listing if it is visible to the requester.
// Missing, deleted and cross-cohort listings all yield ErrListingNotFound.
func (e *Engine) GetListing(ctx context.Context, requesterID string, anonymousCohort listing.Gender, id string) (l *listing.RoomListing, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "search.get_listing")
	defer func() {
		// not found is an expected outcome, not a span error
		if errors.Is(err, ErrListingNotFound) {
			endSpan(nil)
		} else {
			endSpan(err)
		}
		if err != nil && e.metrics != nil {
			e.metrics.IncError(errorKind(err))
		}
	}()

	cohort, err := e.cohort(ctx, Query{RequesterID: requesterID, AnonymousCohort: anonymousCohort})
	if err != nil {
		return nil, err
	}

	l, err = e.listings.GetByID(ctx, id)
	if errors.Is(err, listing.ErrListingNotFound) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to load listing", "listing_id", id, "error", err)
		return nil, dataAccess("get listing", err)
	}
	if l.IsDeleted() || !filter.CohortClause(cohort).Matches(l) {
		return nil, ErrListingNotFound
	}
	return l, nil
}

// validate checks paging, the card option and the filter before any read.
func (e *Engine) validate(q Query) (int, ranking.CardOption, error) {
	if q.PageIndex < 0 {
		return 0, "", invalid("page_index", "must not be negative")
	}
	pageSize := q.PageSize
	switch {
	case pageSize < 0:
		return 0, "", invalid("page_size", "must not be negative")
	case pageSize == 0:
		pageSize = e.defaultPageSize
	case pageSize > e.maxPageSize:
		return 0, "", invalid("page_size", fmt.Sprintf("must be at most %d", e.maxPageSize))
	}

	option, err := ranking.ParseCardOption(q.CardOption)
	if err != nil {
		return 0, "", invalid("card_option", err.Error())
	}

	if err := q.Filter.Validate(); err != nil {
		return 0, "", invalidErr(err)
	}
	return pageSize, option, nil
}

// predicate resolves the requester's cohort and builds the full predicate.
func (e *Engine) predicate(ctx context.Context, q Query) (listing.Predicate, error) {
	cohort, err := e.cohort(ctx, q)
	if err != nil {
		return listing.Predicate{}, err
	}
	pred, err := filter.Build(q.Filter, cohort, q.Keyword)
	if err != nil {
		return listing.Predicate{}, invalidErr(err)
	}
	return pred, nil
}

// cohort resolves the visibility cohort. Authenticated requesters always use
// their own cohort; a caller-supplied one is ignored.
func (e *Engine) cohort(ctx context.Context, q Query) (listing.Gender, error) {
	if q.Anonymous() {
		if q.AnonymousCohort == "" {
			return "", invalid("cohort", "required for anonymous search")
		}
		if !q.AnonymousCohort.Valid() {
			return "", invalid("cohort", fmt.Sprintf("unknown cohort %q", q.AnonymousCohort))
		}
		return q.AnonymousCohort, nil
	}

	cohort, err := e.members.CohortOf(ctx, q.RequesterID)
	if errors.Is(err, member.ErrMemberNotFound) {
		return "", fmt.Errorf("%w: %w", ErrUnknownRequester, err)
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to resolve cohort", "error", err)
		return "", dataAccess("resolve cohort", err)
	}
	if !cohort.Valid() {
		return "", fmt.Errorf("%w: member has no cohort", ErrUnknownRequester)
	}
	return cohort, nil
}

// score reads one popularity snapshot and one follow set for the fixed
// candidate set, then scores every candidate.
func (e *Engine) score(ctx context.Context, requesterID string, option ranking.CardOption, candidates []*listing.RoomListing) (scores map[string]float64, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "search.score")
	defer func() { endSpan(err) }()

	ids := make([]string, len(candidates))
	publishers := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for i, l := range candidates {
		ids[i] = l.ID
		if _, ok := seen[l.PublisherID]; !ok {
			seen[l.PublisherID] = struct{}{}
			publishers = append(publishers, l.PublisherID)
		}
	}

	views, err := e.popularity.Snapshot(ctx, ids)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to read popularity", "error", err)
		return nil, dataAccess("read popularity", err)
	}
	followed, err := e.follows.FollowedAmong(ctx, requesterID, publishers)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to read follow graph", "error", err)
		return nil, dataAccess("read follow graph", err)
	}

	return e.scorer.Score(candidates, ranking.Snapshot{Views: views, Followed: followed}, option), nil
}

func (e *Engine) observe(err error, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.ObserveDuration(elapsed.Seconds())
	if err != nil {
		e.metrics.IncError(errorKind(err))
	}
}
