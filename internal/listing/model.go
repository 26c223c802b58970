// Package listing provides the room listing model, its address/location index,
// the clause-based predicate evaluated against listings, and repositories.
package listing

import (
	"time"
)

// Gender is the publisher/viewer visibility cohort.
type Gender string

// Known cohorts.
const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// Valid reports whether g is a known cohort.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// RoomType describes the building kind of a listing.
type RoomType string

// Room types.
const (
	RoomTypeOneRoom   RoomType = "ONE_ROOM"
	RoomTypeTwoRoom   RoomType = "TWO_ROOM"
	RoomTypeApartment RoomType = "APARTMENT"
	RoomTypeOfficetel RoomType = "OFFICETEL"
	RoomTypeVilla     RoomType = "VILLA"
	RoomTypeDetached  RoomType = "DETACHED_HOUSE"
	RoomTypeDormitory RoomType = "DORMITORY"
)

// Valid reports whether t is a known room type.
func (t RoomType) Valid() bool {
	switch t {
	case RoomTypeOneRoom, RoomTypeTwoRoom, RoomTypeApartment, RoomTypeOfficetel,
		RoomTypeVilla, RoomTypeDetached, RoomTypeDormitory:
		return true
	}
	return false
}

// FloorType describes where in the building the room sits.
type FloorType string

// Floor types.
const (
	FloorTypeGround   FloorType = "GROUND"
	FloorTypeSemiBase FloorType = "SEMI_BASEMENT"
	FloorTypeRooftop  FloorType = "ROOFTOP"
)

// Valid reports whether t is a known floor type.
func (t FloorType) Valid() bool {
	switch t {
	case FloorTypeGround, FloorTypeSemiBase, FloorTypeRooftop:
		return true
	}
	return false
}

// RentalType describes the lease arrangement.
type RentalType string

// Rental types.
const (
	RentalTypeMonthly  RentalType = "MONTHLY"
	RentalTypeJeonse   RentalType = "JEONSE"
	RentalTypeSale     RentalType = "SALE"
	RentalTypeHalfLoan RentalType = "HALF_JEONSE"
)

// Valid reports whether t is a known rental type.
func (t RentalType) Valid() bool {
	switch t {
	case RentalTypeMonthly, RentalTypeJeonse, RentalTypeSale, RentalTypeHalfLoan:
		return true
	}
	return false
}

// RoomInfo holds the structural attributes of the room being shared.
type RoomInfo struct {
	RoomType            RoomType   `json:"room_type"`
	FloorType           FloorType  `json:"floor_type"`
	Size                int64      `json:"size"` // square meters
	NumberOfRoom        int64      `json:"number_of_room"`
	NumberOfBathRoom    int64      `json:"number_of_bathroom"`
	HasLivingRoom       bool       `json:"has_living_room"`
	RentalType          RentalType `json:"rental_type"`
	ExpectedPayment     int64      `json:"expected_payment"` // KRW per month
	RecruitmentCapacity int64      `json:"recruitment_capacity"`
}

// RoomListing is a published room share. The listing exclusively owns its
// Address and RoomInfo.
type RoomListing struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Content         string     `json:"content,omitempty"`
	Address         Address    `json:"address"`
	RoomInfo        RoomInfo   `json:"room_info"`
	PublisherID     string     `json:"publisher_id"`
	PublisherGender Gender     `json:"publisher_gender"`
	ImageURLs       []string   `json:"image_urls,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the publisher has logically deleted the listing.
func (l *RoomListing) IsDeleted() bool {
	return l.DeletedAt != nil
}

// Clone returns a deep copy of the listing.
func (l *RoomListing) Clone() *RoomListing {
	c := *l
	c.Address = l.Address.clone()
	if l.ImageURLs != nil {
		c.ImageURLs = append([]string(nil), l.ImageURLs...)
	}
	if l.DeletedAt != nil {
		deletedAt := *l.DeletedAt
		c.DeletedAt = &deletedAt
	}
	return &c
}
