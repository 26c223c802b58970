package ranking

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/capstone-maru/maru/internal/listing"
)

func TestParseCardOption(t *testing.T) {
	tests := []struct {
		raw     string
		want    CardOption
		wantErr bool
	}{
		{"", CardOptionNone, false},
		{"none", CardOptionNone, false},
		{"social", CardOptionSocial, false},
		{" Popularity ", CardOptionPopularity, false},
		{"SOCIAL", CardOptionSocial, false},
		{"distance", CardOptionNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseCardOption(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownCardOption) {
					t.Errorf("expected ErrUnknownCardOption, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseCardOption(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestProximityWeight(t *testing.T) {
	if ProximityWeight(true) != 1.0 {
		t.Error("followed publisher should get full proximity")
	}
	if ProximityWeight(false) != 0.0 {
		t.Error("unfollowed publisher should get no proximity")
	}
}

func TestPopularityWeight(t *testing.T) {
	tests := []struct {
		name     string
		views    int64
		maxViews int64
		want     float64
	}{
		{"max is zero", 0, 0, 0},
		{"zero views", 0, 100, 0},
		{"at max", 100, 100, 1},
		{"above max clamps", 500, 100, 1},
		{"negative views", -5, 100, 0},
		{"half on log scale", 9, 99, math.Log1p(9) / math.Log1p(99)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PopularityWeight(tt.views, tt.maxViews)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PopularityWeight(%d, %d) = %f, want %f", tt.views, tt.maxViews, got, tt.want)
			}
		})
	}

	// monotonic in views
	prev := -1.0
	for v := int64(0); v <= 1000; v += 50 {
		got := PopularityWeight(v, 1000)
		if got < prev {
			t.Fatalf("PopularityWeight not monotonic at %d: %f < %f", v, got, prev)
		}
		prev = got
	}
}

func TestCompositeScore(t *testing.T) {
	tests := []struct {
		name   string
		params ScoreParams
		option CardOption
		want   float64
	}{
		{"social followed unpopular", ScoreParams{Proximity: 1}, CardOptionSocial, 0.7},
		{"social unfollowed popular", ScoreParams{Popularity: 1}, CardOptionSocial, 0.3},
		{"popularity followed unpopular", ScoreParams{Proximity: 1}, CardOptionPopularity, 0.3},
		{"popularity unfollowed popular", ScoreParams{Popularity: 1}, CardOptionPopularity, 0.7},
		{"both maxed", ScoreParams{Proximity: 1, Popularity: 1}, CardOptionSocial, 1.0},
		{"none mode", ScoreParams{Proximity: 1, Popularity: 1}, CardOptionNone, 0},
		{"out of range inputs clamp", ScoreParams{Proximity: 5, Popularity: -3}, CardOptionSocial, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompositeScore(tt.params, tt.option, nil)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CompositeScore() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestScorer_ScoreBounded(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var candidates []*listing.RoomListing
	views := make(map[string]int64)
	followed := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id := string(rune('a' + i))
		pub := "pub-" + id
		candidates = append(candidates, &listing.RoomListing{ID: id, PublisherID: pub, CreatedAt: base})
		views[id] = int64(i * i * 37)
		followed[pub] = i%3 == 0
	}

	// Extreme calibration still keeps scores bounded
	heavy := &Weights{
		Social:     BlendWeights{Proximity: 1, Popularity: 1},
		Popularity: BlendWeights{Proximity: 1, Popularity: 1},
	}
	for _, w := range []*Weights{nil, heavy} {
		scorer := NewScorer(w)
		for _, option := range []CardOption{CardOptionSocial, CardOptionPopularity} {
			scores := scorer.Score(candidates, Snapshot{Views: views, Followed: followed}, option)
			if len(scores) != len(candidates) {
				t.Fatalf("expected a score for each candidate, got %d of %d", len(scores), len(candidates))
			}
			for id, s := range scores {
				if s < 0 || s > 1 {
					t.Errorf("score for %s out of range: %f", id, s)
				}
			}
		}
	}
}

func TestScorer_MissingCounterIsZero(t *testing.T) {
	candidates := []*listing.RoomListing{
		{ID: "a", PublisherID: "p1"},
		{ID: "b", PublisherID: "p2"},
	}
	scores := NewScorer(nil).Score(candidates, Snapshot{Views: map[string]int64{"a": 10}}, CardOptionPopularity)
	if scores["b"] != 0 {
		t.Errorf("listing without counter should score 0, got %f", scores["b"])
	}
	if math.Abs(scores["a"]-0.7) > 1e-9 {
		t.Errorf("most viewed listing should score 0.7, got %f", scores["a"])
	}
}

func TestScorer_ModeChangesOrder(t *testing.T) {
	candidates := []*listing.RoomListing{
		{ID: "followed", PublisherID: "friend"},
		{ID: "popular", PublisherID: "stranger"},
	}
	snap := Snapshot{
		Views:    map[string]int64{"popular": 1000},
		Followed: map[string]bool{"friend": true},
	}
	scorer := NewScorer(nil)

	social := scorer.Score(candidates, snap, CardOptionSocial)
	if social["followed"] <= social["popular"] {
		t.Errorf("social mode should favour followed publisher: %v", social)
	}
	pop := scorer.Score(candidates, snap, CardOptionPopularity)
	if pop["popular"] <= pop["followed"] {
		t.Errorf("popularity mode should favour viewed listing: %v", pop)
	}
}
