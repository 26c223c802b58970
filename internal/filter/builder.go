package filter

import (
	"strings"

	"github.com/capstone-maru/maru/internal/geo"
	"github.com/capstone-maru/maru/internal/listing"
)

// CohortClause is the privacy gate: only listings published by the given
// cohort are visible.
func CohortClause(cohort listing.Gender) listing.Clause {
	return listing.Clause{
		Field: listing.FieldPublisherGender,
		Op:    listing.OpEq,
		Value: string(cohort),
	}
}

// KeywordClauses splits a free-text keyword into normalized terms, one
// substring clause per term. An empty keyword yields no clauses.
func KeywordClauses(keyword string) []listing.Clause {
	terms := strings.Fields(listing.Normalize(keyword))
	if len(terms) == 0 {
		return nil
	}
	clauses := make([]listing.Clause, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		clauses = append(clauses, listing.Clause{
			Field: listing.FieldSearchText,
			Op:    listing.OpContains,
			Value: term,
		})
	}
	return clauses
}

// Build validates req and composes the gate, one clause per constrained
// field and the keyword clauses. The cohort clause is always first.
func Build(req SearchFilterRequest, cohort listing.Gender, keyword string) (listing.Predicate, error) {
	if !cohort.Valid() {
		return listing.Predicate{}, NewValidationError("cohort", "requester cohort is required")
	}
	if err := req.Validate(); err != nil {
		return listing.Predicate{}, err
	}

	b := &builder{}
	b.add(CohortClause(cohort))

	if req.RentalType != nil {
		b.eq(listing.FieldRentalType, string(*req.RentalType))
	}
	if req.FloorType != nil {
		b.eq(listing.FieldFloorType, string(*req.FloorType))
	}
	if req.RoomType != nil {
		b.eq(listing.FieldRoomType, string(*req.RoomType))
	}
	b.rangeOf(listing.FieldSize, req.Size)
	if req.NumberOfRoom != nil {
		b.eq(listing.FieldNumberOfRoom, *req.NumberOfRoom)
	}
	if req.NumberOfBathRoom != nil {
		b.eq(listing.FieldNumberOfBathRoom, *req.NumberOfBathRoom)
	}
	if req.HasLivingRoom != nil {
		b.eq(listing.FieldHasLivingRoom, *req.HasLivingRoom)
	}
	if req.RecruitmentCapacityMin != nil {
		b.add(listing.Clause{Field: listing.FieldRecruitmentCapacity, Op: listing.OpGte, Value: *req.RecruitmentCapacityMin})
	}
	b.rangeOf(listing.FieldExpectedPayment, req.ExpectedPayment)
	if req.Location != nil {
		if key := listing.Normalize(*req.Location); key != "" {
			b.add(listing.Clause{Field: listing.FieldLocationKey, Op: listing.OpPrefix, Value: key})
		}
	}
	if req.Geohash != nil && strings.TrimSpace(*req.Geohash) != "" {
		cell := geo.RoundGeohash(*req.Geohash, geo.DefaultPrecision)
		if cell == "" {
			return listing.Predicate{}, NewValidationError("geohash", "invalid geohash")
		}
		b.add(listing.Clause{Field: listing.FieldGeohash, Op: listing.OpPrefix, Value: cell})
	}

	b.add(KeywordClauses(keyword)...)
	return listing.Predicate{Clauses: b.clauses}, nil
}

type builder struct {
	clauses []listing.Clause
}

func (b *builder) add(c ...listing.Clause) {
	b.clauses = append(b.clauses, c...)
}

func (b *builder) eq(f listing.Field, v any) {
	b.add(listing.Clause{Field: f, Op: listing.OpEq, Value: v})
}

// rangeOf adds one clause per supplied bound.
func (b *builder) rangeOf(f listing.Field, r IntRange) {
	if r.Min != nil {
		b.add(listing.Clause{Field: f, Op: listing.OpGte, Value: *r.Min})
	}
	if r.Max != nil {
		b.add(listing.Clause{Field: f, Op: listing.OpLte, Value: *r.Max})
	}
}
