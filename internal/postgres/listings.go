package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/capstone-maru/maru/internal/listing"
	"github.com/capstone-maru/maru/internal/tracing"
)

const listingColumns = `id, title, content, publisher_id, publisher_gender,
	city, district, street, building_name, address_label, lat, lng,
	room_type, floor_type, size, number_of_room, number_of_bathroom, has_living_room,
	rental_type, expected_payment, recruitment_capacity,
	image_urls, created_at, deleted_at`

// ListingStore reads and writes room_listings.
type ListingStore struct {
	db *sql.DB
}

// NewListingStore creates a store over db.
func NewListingStore(db *sql.DB) *ListingStore {
	return &ListingStore{db: db}
}

// Insert writes a new listing together with its normalized search columns.
// An empty ID is replaced with a new UUID and a zero CreatedAt with the
// current time; both are written back to l.
func (s *ListingStore) Insert(ctx context.Context, l *listing.RoomListing) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "room_listings", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	images := l.ImageURLs
	if images == nil {
		images = []string{}
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO room_listings (
		id, title, content, publisher_id, publisher_gender,
		city, district, street, building_name, address_label, lat, lng,
		location_key, geohash, search_text,
		room_type, floor_type, size, number_of_room, number_of_bathroom, has_living_room,
		rental_type, expected_payment, recruitment_capacity,
		image_urls, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`,
		l.ID, l.Title, l.Content, l.PublisherID, string(l.PublisherGender),
		l.Address.City, l.Address.District, l.Address.Street, l.Address.BuildingName, l.Address.Label,
		nullFloat(l.Address.Lat), nullFloat(l.Address.Lng),
		l.Address.LocationKey(), l.Address.Geohash(), listing.SearchText(l),
		string(l.RoomInfo.RoomType), string(l.RoomInfo.FloorType), l.RoomInfo.Size,
		l.RoomInfo.NumberOfRoom, l.RoomInfo.NumberOfBathRoom, l.RoomInfo.HasLivingRoom,
		string(l.RoomInfo.RentalType), l.RoomInfo.ExpectedPayment, l.RoomInfo.RecruitmentCapacity,
		pq.Array(images), l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	return nil
}

// Delete logically deletes a listing on behalf of its publisher.
func (s *ListingStore) Delete(ctx context.Context, id, publisherID string) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "room_listings", tracing.DBOperationUpdate)
	defer func() { endSpan(err) }()

	var deletedAt sql.NullTime
	err = s.db.QueryRowContext(ctx,
		`SELECT deleted_at FROM room_listings WHERE id = $1 AND publisher_id = $2`,
		id, publisherID).Scan(&deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return listing.ErrListingNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load listing: %w", err)
	}
	if deletedAt.Valid {
		return listing.ErrListingDeleted
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE room_listings SET deleted_at = NOW() WHERE id = $1 AND publisher_id = $2 AND deleted_at IS NULL`,
		id, publisherID)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// lost a race with a concurrent delete
		return listing.ErrListingDeleted
	}
	return nil
}

// FetchCandidates returns every non-deleted listing matching p.
func (s *ListingStore) FetchCandidates(ctx context.Context, p listing.Predicate) (out []*listing.RoomListing, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "room_listings", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	where, args, err := whereFor(p)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+listingColumns+" FROM room_listings "+where+" ORDER BY created_at DESC, id",
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listings: %w", err)
	}
	return out, nil
}

// Count returns the number of non-deleted listings matching p.
func (s *ListingStore) Count(ctx context.Context, p listing.Predicate) (n int, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "room_listings", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	where, args, err := whereFor(p)
	if err != nil {
		return 0, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM room_listings "+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return n, nil
}

// GetByID returns a non-deleted listing or listing.ErrListingNotFound.
func (s *ListingStore) GetByID(ctx context.Context, id string) (l *listing.RoomListing, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "room_listings", tracing.DBOperationQuery)
	defer func() {
		if errors.Is(err, listing.ErrListingNotFound) {
			endSpan(nil)
			return
		}
		endSpan(err)
	}()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+listingColumns+" FROM room_listings WHERE id = $1 AND deleted_at IS NULL", id)
	l, err = scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, listing.ErrListingNotFound
	}
	return l, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(row scanner) (*listing.RoomListing, error) {
	var (
		l                                       listing.RoomListing
		gender, roomType, floorType, rentalType string
		lat, lng                                sql.NullFloat64
		deletedAt                               sql.NullTime
	)
	err := row.Scan(
		&l.ID, &l.Title, &l.Content, &l.PublisherID, &gender,
		&l.Address.City, &l.Address.District, &l.Address.Street, &l.Address.BuildingName, &l.Address.Label,
		&lat, &lng,
		&roomType, &floorType, &l.RoomInfo.Size, &l.RoomInfo.NumberOfRoom, &l.RoomInfo.NumberOfBathRoom,
		&l.RoomInfo.HasLivingRoom,
		&rentalType, &l.RoomInfo.ExpectedPayment, &l.RoomInfo.RecruitmentCapacity,
		pq.Array(&l.ImageURLs), &l.CreatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan listing: %w", err)
	}

	l.PublisherGender = listing.Gender(gender)
	l.RoomInfo.RoomType = listing.RoomType(roomType)
	l.RoomInfo.FloorType = listing.FloorType(floorType)
	l.RoomInfo.RentalType = listing.RentalType(rentalType)
	if lat.Valid {
		l.Address.Lat = &lat.Float64
	}
	if lng.Valid {
		l.Address.Lng = &lng.Float64
	}
	if deletedAt.Valid {
		l.DeletedAt = &deletedAt.Time
	}
	return &l, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
