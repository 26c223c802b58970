package postgres

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/capstone-maru/maru/internal/listing"
	"github.com/capstone-maru/maru/internal/member"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestWhereFor(t *testing.T) {
	tests := []struct {
		name      string
		pred      listing.Predicate
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "empty predicate excludes deleted only",
			pred:      listing.Predicate{},
			wantWhere: "WHERE deleted_at IS NULL",
			wantArgs:  nil,
		},
		{
			name: "cohort and range",
			pred: listing.Predicate{Clauses: []listing.Clause{
				{Field: listing.FieldPublisherGender, Op: listing.OpEq, Value: "FEMALE"},
				{Field: listing.FieldSize, Op: listing.OpGte, Value: int64(10)},
				{Field: listing.FieldSize, Op: listing.OpLte, Value: int64(40)},
			}},
			wantWhere: "WHERE deleted_at IS NULL AND publisher_gender = $1 AND size >= $2 AND size <= $3",
			wantArgs:  []any{"FEMALE", int64(10), int64(40)},
		},
		{
			name: "flags, prefixes and keyword terms",
			pred: listing.Predicate{Clauses: []listing.Clause{
				{Field: listing.FieldHasLivingRoom, Op: listing.OpEq, Value: true},
				{Field: listing.FieldLocationKey, Op: listing.OpPrefix, Value: "seoul"},
				{Field: listing.FieldGeohash, Op: listing.OpPrefix, Value: "wydm9q"},
				{Field: listing.FieldSearchText, Op: listing.OpContains, Value: "100%_room"},
			}},
			wantWhere: "WHERE deleted_at IS NULL AND has_living_room = $1 AND location_key LIKE $2 AND geohash LIKE $3 AND search_text ILIKE $4",
			wantArgs:  []any{true, "seoul%", "wydm9q%", `%100\%\_room%`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args, err := whereFor(tt.pred)
			if err != nil {
				t.Fatalf("whereFor() error: %v", err)
			}
			if where != tt.wantWhere {
				t.Errorf("where = %q\nwant    %q", where, tt.wantWhere)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %#v, want %#v", args, tt.wantArgs)
			}
		})
	}
}

func TestWhereFor_Unsupported(t *testing.T) {
	tests := []listing.Clause{
		{Field: listing.Field("owner"), Op: listing.OpEq, Value: "x"},
		{Field: listing.FieldSize, Op: listing.OpEq, Value: 10},
		{Field: listing.FieldSize, Op: listing.OpContains, Value: int64(10)},
		{Field: listing.FieldHasLivingRoom, Op: listing.OpGte, Value: true},
		{Field: listing.FieldRoomType, Op: listing.OpLte, Value: "VILLA"},
	}
	for _, c := range tests {
		_, _, err := whereFor(listing.Predicate{Clauses: []listing.Clause{c}})
		if !errors.Is(err, ErrUnsupportedClause) {
			t.Errorf("clause %+v: expected ErrUnsupportedClause, got %v", c, err)
		}
	}
}

func TestEscapeLike(t *testing.T) {
	tests := map[string]string{
		"gangnam": "gangnam",
		"50%":     `50\%`,
		"a_b":     `a\_b`,
		`back\sl`: `back\\sl`,
		`%_\`:    `\%\_\\`,
	}
	for in, want := range tests {
		if got := escapeLike(in); got != want {
			t.Errorf("escapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}

var listingRowColumns = []string{
	"id", "title", "content", "publisher_id", "publisher_gender",
	"city", "district", "street", "building_name", "address_label", "lat", "lng",
	"room_type", "floor_type", "size", "number_of_room", "number_of_bathroom", "has_living_room",
	"rental_type", "expected_payment", "recruitment_capacity",
	"image_urls", "created_at", "deleted_at",
}

func TestListingStore_FetchCandidates(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewListingStore(db)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(listingRowColumns).
		AddRow("l1", "Sunny room", "", "m1", "FEMALE",
			"Seoul", "Gangnam-gu", "Teheran-ro 1", "Maru Tower", "Yeoksam-dong", 37.4979, 127.0276,
			"APARTMENT", "GROUND", int64(33), int64(2), int64(1), true,
			"MONTHLY", int64(450000), int64(2),
			[]byte("{https://img.example/1.jpg,https://img.example/2.jpg}"), created, nil).
		AddRow("l2", "Plain room", "", "m2", "FEMALE",
			"Seoul", "Mapo-gu", "", "", "", nil, nil,
			"ONE_ROOM", "ROOFTOP", int64(18), int64(1), int64(1), false,
			"JEONSE", int64(90000000), int64(1),
			[]byte("{}"), created.Add(-time.Hour), nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM room_listings WHERE deleted_at IS NULL AND publisher_gender = $1 ORDER BY created_at DESC, id")).
		WithArgs("FEMALE").
		WillReturnRows(rows)

	got, err := store.FetchCandidates(context.Background(), listing.Predicate{Clauses: []listing.Clause{
		{Field: listing.FieldPublisherGender, Op: listing.OpEq, Value: "FEMALE"},
	}})
	if err != nil {
		t.Fatalf("FetchCandidates() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(got))
	}

	l := got[0]
	if l.ID != "l1" || l.PublisherGender != listing.GenderFemale || l.RoomInfo.RoomType != listing.RoomTypeApartment {
		t.Errorf("unexpected listing: %+v", l)
	}
	if l.Address.Lat == nil || *l.Address.Lat != 37.4979 {
		t.Errorf("expected lat to be scanned, got %v", l.Address.Lat)
	}
	if len(l.ImageURLs) != 2 {
		t.Errorf("expected 2 image urls, got %v", l.ImageURLs)
	}
	if got[1].Address.Lat != nil || got[1].DeletedAt != nil {
		t.Errorf("expected nil lat and deleted_at, got %+v", got[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestListingStore_FetchCandidates_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewListingStore(db)
	boom := errors.New("connection reset")

	mock.ExpectQuery("FROM room_listings").WillReturnError(boom)

	_, err := store.FetchCandidates(context.Background(), listing.Predicate{})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped driver error, got %v", err)
	}
}

func TestListingStore_UnsupportedClauseIssuesNoQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewListingStore(db)

	_, err := store.Count(context.Background(), listing.Predicate{Clauses: []listing.Clause{
		{Field: listing.Field("nope"), Op: listing.OpEq, Value: "x"},
	}})
	if !errors.Is(err, ErrUnsupportedClause) {
		t.Errorf("expected ErrUnsupportedClause, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected query: %v", err)
	}
}

func TestListingStore_Count(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewListingStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM room_listings WHERE deleted_at IS NULL AND publisher_gender = $1 AND search_text ILIKE $2")).
		WithArgs("MALE", "%gangnam%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := store.Count(context.Background(), listing.Predicate{Clauses: []listing.Clause{
		{Field: listing.FieldPublisherGender, Op: listing.OpEq, Value: "MALE"},
		{Field: listing.FieldSearchText, Op: listing.OpContains, Value: "gangnam"},
	}})
	if err != nil || n != 7 {
		t.Errorf("Count() = %d, %v; want 7", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestListingStore_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewListingStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND deleted_at IS NULL")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(listingRowColumns))

	if _, err := store.GetByID(context.Background(), "missing"); !errors.Is(err, listing.ErrListingNotFound) {
		t.Errorf("expected ErrListingNotFound, got %v", err)
	}
}

func TestListingStore_Insert(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewListingStore(db)

	mock.ExpectExec("INSERT INTO room_listings").WillReturnResult(sqlmock.NewResult(0, 1))

	l := &listing.RoomListing{
		Title:           "New room",
		PublisherID:     "m1",
		PublisherGender: listing.GenderMale,
		Address:         listing.Address{City: "Seoul", District: "Jongno-gu"},
		RoomInfo:        listing.RoomInfo{RoomType: listing.RoomTypeVilla, FloorType: listing.FloorTypeGround, RentalType: listing.RentalTypeMonthly},
	}
	if err := store.Insert(context.Background(), l); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	if l.ID == "" || l.CreatedAt.IsZero() {
		t.Errorf("expected generated id and timestamp, got %q %v", l.ID, l.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestListingStore_Delete(t *testing.T) {
	selectDeleted := regexp.QuoteMeta("SELECT deleted_at FROM room_listings WHERE id = $1 AND publisher_id = $2")

	t.Run("deletes live listing", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery(selectDeleted).WithArgs("l1", "m1").
			WillReturnRows(sqlmock.NewRows([]string{"deleted_at"}).AddRow(nil))
		mock.ExpectExec("UPDATE room_listings SET deleted_at").WithArgs("l1", "m1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := NewListingStore(db).Delete(context.Background(), "l1", "m1"); err != nil {
			t.Errorf("Delete() error: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
	})

	t.Run("foreign publisher", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery(selectDeleted).WithArgs("l1", "other").
			WillReturnRows(sqlmock.NewRows([]string{"deleted_at"}))

		if err := NewListingStore(db).Delete(context.Background(), "l1", "other"); !errors.Is(err, listing.ErrListingNotFound) {
			t.Errorf("expected ErrListingNotFound, got %v", err)
		}
	})

	t.Run("already deleted", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery(selectDeleted).WithArgs("l1", "m1").
			WillReturnRows(sqlmock.NewRows([]string{"deleted_at"}).AddRow(time.Now()))

		if err := NewListingStore(db).Delete(context.Background(), "l1", "m1"); !errors.Is(err, listing.ErrListingDeleted) {
			t.Errorf("expected ErrListingDeleted, got %v", err)
		}
	})
}

func TestFollowStore_FollowedAmong(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewFollowStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT followed_id FROM follows WHERE follower_id = $1 AND followed_id = ANY($2)")).
		WithArgs("alice", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"followed_id"}).AddRow("bob").AddRow("carol"))

	got, err := store.FollowedAmong(context.Background(), "alice", []string{"bob", "carol", "dave"})
	if err != nil {
		t.Fatalf("FollowedAmong() error: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]bool{"bob": true, "carol": true}) {
		t.Errorf("FollowedAmong() = %v", got)
	}

	// No publishers, no query
	empty, err := store.FollowedAmong(context.Background(), "alice", nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("FollowedAmong(nil) = %v, %v", empty, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestFollowStore_IsFollowing(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("alice", "bob").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := NewFollowStore(db).IsFollowing(context.Background(), "alice", "bob")
	if err != nil || !ok {
		t.Errorf("IsFollowing() = %v, %v", ok, err)
	}
}

func TestMemberStore_CohortOf(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewMemberStore(db)
	query := regexp.QuoteMeta("SELECT gender FROM members WHERE id = $1")

	mock.ExpectQuery(query).WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"gender"}).AddRow("MALE"))
	mock.ExpectQuery(query).WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"gender"}))

	g, err := store.CohortOf(context.Background(), "m1")
	if err != nil || g != listing.GenderMale {
		t.Errorf("CohortOf(m1) = %q, %v", g, err)
	}
	if _, err := store.CohortOf(context.Background(), "ghost"); !errors.Is(err, member.ErrMemberNotFound) {
		t.Errorf("expected ErrMemberNotFound, got %v", err)
	}
}
