package listing

import (
	"strings"
)

// Field names a listing attribute a Clause can constrain.
type Field string

// Constrainable fields.
const (
	FieldPublisherGender     Field = "publisher_gender"
	FieldRentalType          Field = "rental_type"
	FieldFloorType           Field = "floor_type"
	FieldRoomType            Field = "room_type"
	FieldSize                Field = "size"
	FieldNumberOfRoom        Field = "number_of_room"
	FieldNumberOfBathRoom    Field = "number_of_bathroom"
	FieldHasLivingRoom       Field = "has_living_room"
	FieldRecruitmentCapacity Field = "recruitment_capacity"
	FieldExpectedPayment     Field = "expected_payment"
	FieldLocationKey         Field = "location_key"
	FieldGeohash             Field = "geohash"
	FieldSearchText          Field = "search_text"
)

// Op is the comparison a Clause applies.
type Op string

// Supported operators. OpGte and OpLte are inclusive.
const (
	OpEq       Op = "eq"
	OpGte      Op = "gte"
	OpLte      Op = "lte"
	OpPrefix   Op = "prefix"
	OpContains Op = "contains"
)

// Clause is one (field, constraint) pair. Value is a string for enum and text
// fields, int64 for numeric fields and bool for flags.
type Clause struct {
	Field Field
	Op    Op
	Value any
}

// Predicate is the conjunction of its clauses. The zero Predicate matches
// every listing that has not been deleted.
type Predicate struct {
	Clauses []Clause
}

// And returns a new predicate with the extra clauses appended.
func (p Predicate) And(clauses ...Clause) Predicate {
	out := make([]Clause, 0, len(p.Clauses)+len(clauses))
	out = append(out, p.Clauses...)
	out = append(out, clauses...)
	return Predicate{Clauses: out}
}

// Matches reports whether l satisfies every clause. Deleted listings never match.
func (p Predicate) Matches(l *RoomListing) bool {
	if l == nil || l.IsDeleted() {
		return false
	}
	for _, c := range p.Clauses {
		if !c.Matches(l) {
			return false
		}
	}
	return true
}

// Matches reports whether l satisfies the clause. A clause whose value type
// does not fit its field never matches.
func (c Clause) Matches(l *RoomListing) bool {
	switch v := fieldValue(l, c.Field).(type) {
	case string:
		want, ok := c.Value.(string)
		if !ok {
			return false
		}
		switch c.Op {
		case OpEq:
			return v == want
		case OpPrefix:
			return strings.HasPrefix(v, want)
		case OpContains:
			return strings.Contains(v, want)
		}
	case int64:
		want, ok := c.Value.(int64)
		if !ok {
			return false
		}
		switch c.Op {
		case OpEq:
			return v == want
		case OpGte:
			return v >= want
		case OpLte:
			return v <= want
		}
	case bool:
		want, ok := c.Value.(bool)
		if !ok {
			return false
		}
		if c.Op == OpEq {
			return v == want
		}
	}
	return false
}

// fieldValue returns the attribute of l addressed by f, or nil for an
// unknown field.
func fieldValue(l *RoomListing, f Field) any {
	switch f {
	case FieldPublisherGender:
		return string(l.PublisherGender)
	case FieldRentalType:
		return string(l.RoomInfo.RentalType)
	case FieldFloorType:
		return string(l.RoomInfo.FloorType)
	case FieldRoomType:
		return string(l.RoomInfo.RoomType)
	case FieldSize:
		return l.RoomInfo.Size
	case FieldNumberOfRoom:
		return l.RoomInfo.NumberOfRoom
	case FieldNumberOfBathRoom:
		return l.RoomInfo.NumberOfBathRoom
	case FieldHasLivingRoom:
		return l.RoomInfo.HasLivingRoom
	case FieldRecruitmentCapacity:
		return l.RoomInfo.RecruitmentCapacity
	case FieldExpectedPayment:
		return l.RoomInfo.ExpectedPayment
	case FieldLocationKey:
		return l.Address.LocationKey()
	case FieldGeohash:
		return l.Address.Geohash()
	case FieldSearchText:
		return SearchText(l)
	}
	return nil
}

// SearchText is the combined, normalized text a keyword term is matched
// against: the listing title followed by the address text fields.
func SearchText(l *RoomListing) string {
	title := Normalize(l.Title)
	addr := l.Address.SearchText()
	switch {
	case title == "":
		return addr
	case addr == "":
		return title
	}
	return title + " " + addr
}
