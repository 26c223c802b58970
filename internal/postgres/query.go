package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/capstone-maru/maru/internal/listing"
)

// ErrUnsupportedClause is returned when a clause cannot be translated to SQL.
var ErrUnsupportedClause = errors.New("unsupported predicate clause")

type columnKind int

const (
	kindString columnKind = iota
	kindInt
	kindBool
)

type column struct {
	name string
	kind columnKind
}

// columns maps predicate fields to room_listings columns. Text columns used
// with prefix/contains hold normalized values written by ListingStore.Insert.
var columns = map[listing.Field]column{
	listing.FieldPublisherGender:     {"publisher_gender", kindString},
	listing.FieldRentalType:          {"rental_type", kindString},
	listing.FieldFloorType:           {"floor_type", kindString},
	listing.FieldRoomType:            {"room_type", kindString},
	listing.FieldSize:                {"size", kindInt},
	listing.FieldNumberOfRoom:        {"number_of_room", kindInt},
	listing.FieldNumberOfBathRoom:    {"number_of_bathroom", kindInt},
	listing.FieldHasLivingRoom:       {"has_living_room", kindBool},
	listing.FieldRecruitmentCapacity: {"recruitment_capacity", kindInt},
	listing.FieldExpectedPayment:     {"expected_payment", kindInt},
	listing.FieldLocationKey:         {"location_key", kindString},
	listing.FieldGeohash:             {"geohash", kindString},
	listing.FieldSearchText:          {"search_text", kindString},
}

type queryBuilder struct {
	conditions []string
	args       []any
	argID      int
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{
		argID:      1,
		conditions: []string{"deleted_at IS NULL"},
	}
}

func (qb *queryBuilder) addCondition(condition string, columnName string, arg any) {
	qb.conditions = append(qb.conditions, fmt.Sprintf(condition, columnName, qb.argID))
	qb.args = append(qb.args, arg)
	qb.argID++
}

// addClause translates one clause. Each operator is only valid for the
// column kinds it is defined on in listing.Clause.Matches.
func (qb *queryBuilder) addClause(c listing.Clause) error {
	col, ok := columns[c.Field]
	if !ok {
		return fmt.Errorf("%w: unknown field %q", ErrUnsupportedClause, c.Field)
	}
	if !valueFits(col.kind, c.Value) {
		return fmt.Errorf("%w: %T value for %s", ErrUnsupportedClause, c.Value, c.Field)
	}

	switch {
	case c.Op == listing.OpEq:
		qb.addCondition("%s = $%d", col.name, c.Value)
	case c.Op == listing.OpGte && col.kind == kindInt:
		qb.addCondition("%s >= $%d", col.name, c.Value)
	case c.Op == listing.OpLte && col.kind == kindInt:
		qb.addCondition("%s <= $%d", col.name, c.Value)
	case c.Op == listing.OpPrefix && col.kind == kindString:
		qb.addCondition("%s LIKE $%d", col.name, escapeLike(c.Value.(string))+"%")
	case c.Op == listing.OpContains && col.kind == kindString:
		qb.addCondition("%s ILIKE $%d", col.name, "%"+escapeLike(c.Value.(string))+"%")
	default:
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedClause, c.Op, c.Field)
	}
	return nil
}

func (qb *queryBuilder) where() string {
	return "WHERE " + strings.Join(qb.conditions, " AND ")
}

// whereFor builds the WHERE clause and positional args for p. Deleted rows
// are always excluded.
func whereFor(p listing.Predicate) (string, []any, error) {
	qb := newQueryBuilder()
	for _, c := range p.Clauses {
		if err := qb.addClause(c); err != nil {
			return "", nil, err
		}
	}
	return qb.where(), qb.args, nil
}

func valueFits(kind columnKind, v any) bool {
	switch kind {
	case kindString:
		_, ok := v.(string)
		return ok
	case kindInt:
		_, ok := v.(int64)
		return ok
	case kindBool:
		_, ok := v.(bool)
		return ok
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE metacharacters using the default backslash escape.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
