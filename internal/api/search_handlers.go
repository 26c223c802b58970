package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/capstone-maru/maru/internal/filter"
	"github.com/capstone-maru/maru/internal/listing"
	"github.com/capstone-maru/maru/internal/middleware"
	"github.com/capstone-maru/maru/internal/search"
	"github.com/capstone-maru/maru/internal/validate"
)

// RoomSearcher is the part of search.Engine the handlers use.
type RoomSearcher interface {
	Search(ctx context.Context, q search.Query) (*search.Page, error)
	Count(ctx context.Context, q search.Query) (int, error)
	GetListing(ctx context.Context, requesterID string, anonymousCohort listing.Gender, id string) (*listing.RoomListing, error)
}

var _ RoomSearcher = (*search.Engine)(nil)

// SearchHandlers serves the room search endpoints.
type SearchHandlers struct {
	engine RoomSearcher
}

// NewSearchHandlers creates handlers over engine.
func NewSearchHandlers(engine RoomSearcher) *SearchHandlers {
	return &SearchHandlers{engine: engine}
}

// CountResponse is the body of GET /search/rooms/count.
type CountResponse struct {
	TotalCount int `json:"total_count"`
}

// SearchRooms handles GET /search/rooms.
//
// Query parameters: keyword, card_option, page_index, page_size, cohort
// (anonymous callers only), rental_type, floor_type, room_type, size_min,
// size_max, number_of_room, number_of_bathroom, has_living_room,
// recruitment_capacity_min, expected_payment_min, expected_payment_max,
// location, geohash.
func (h *SearchHandlers) SearchRooms(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeSearchError(w, r, err)
		return
	}
	page, err := h.engine.Search(r.Context(), q)
	if err != nil {
		writeSearchError(w, r, err)
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, page)
}

// CountRooms handles GET /search/rooms/count. It accepts the filter
// parameters of SearchRooms and ignores paging and card_option.
func (h *SearchHandlers) CountRooms(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeSearchError(w, r, err)
		return
	}
	n, err := h.engine.Count(r.Context(), q)
	if err != nil {
		writeSearchError(w, r, err)
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, CountResponse{TotalCount: n})
}

// GetRoom handles GET /rooms/{id}.
func (h *SearchHandlers) GetRoom(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Room not found")
		return
	}
	cohort := listing.Gender(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("cohort"))))

	l, err := h.engine.GetListing(r.Context(), middleware.GetMemberID(r.Context()), cohort, id)
	if err != nil {
		writeSearchError(w, r, err)
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, l)
}

// parseQuery converts URL parameters into a search query. Only syntax and
// text bounds are checked here; the engine validates semantics.
func parseQuery(r *http.Request) (search.Query, error) {
	p := &paramParser{values: r.URL.Query()}

	q := search.Query{
		RequesterID:     middleware.GetMemberID(r.Context()),
		AnonymousCohort: listing.Gender(p.upper("cohort")),
		Keyword:         p.text("keyword", validate.Keyword),
		CardOption:      p.values.Get("card_option"),
		PageIndex:       int(p.int64Or("page_index", 0)),
		PageSize:        int(p.int64Or("page_size", 0)),
		Filter: filter.SearchFilterRequest{
			Size:                   filter.IntRange{Min: p.int64("size_min"), Max: p.int64("size_max")},
			NumberOfRoom:           p.int64("number_of_room"),
			NumberOfBathRoom:       p.int64("number_of_bathroom"),
			HasLivingRoom:          p.bool("has_living_room"),
			RecruitmentCapacityMin: p.int64("recruitment_capacity_min"),
			ExpectedPayment:        filter.IntRange{Min: p.int64("expected_payment_min"), Max: p.int64("expected_payment_max")},
			Location:               p.optionalText("location", validate.Location),
			Geohash:                p.optionalText("geohash", validate.Geohash),
		},
	}
	if s := p.upper("rental_type"); s != "" {
		t := listing.RentalType(s)
		q.Filter.RentalType = &t
	}
	if s := p.upper("floor_type"); s != "" {
		t := listing.FloorType(s)
		q.Filter.FloorType = &t
	}
	if s := p.upper("room_type"); s != "" {
		t := listing.RoomType(s)
		q.Filter.RoomType = &t
	}
	if p.err != nil {
		return search.Query{}, p.err
	}
	return q, nil
}

// paramParser reads optional typed parameters and keeps the first error.
type paramParser struct {
	values url.Values
	err    error
}

func (p *paramParser) raw(name string) string {
	return strings.TrimSpace(p.values.Get(name))
}

func (p *paramParser) fail(name, reason string) {
	if p.err == nil {
		p.err = filter.NewValidationError(name, reason)
	}
}

// text validates a free-text parameter without trimming it first.
func (p *paramParser) text(name string, check func(string) (string, error)) string {
	s, err := check(p.values.Get(name))
	if err != nil {
		p.fail(name, err.Error())
		return ""
	}
	return s
}

func (p *paramParser) optionalText(name string, check func(string) (string, error)) *string {
	s := p.text(name, check)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func (p *paramParser) upper(name string) string {
	return strings.ToUpper(p.raw(name))
}

func (p *paramParser) int64(name string) *int64 {
	s := p.raw(name)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		p.fail(name, "must be an integer")
		return nil
	}
	return &n
}

func (p *paramParser) int64Or(name string, def int64) int64 {
	if n := p.int64(name); n != nil {
		return *n
	}
	return def
}

func (p *paramParser) bool(name string) *bool {
	s := p.raw(name)
	if s == "" {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		p.fail(name, "must be true or false")
		return nil
	}
	return &b
}
