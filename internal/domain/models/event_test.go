package models

import (
	"testing"
	"time"
)

func TestEvent_AverageRating(t *testing.T) {
	tests := []struct {
		name    string
		ratings [5]int64
		want    float64
	}{
		{"no ratings", [5]int64{}, 0},
		{"all five star", [5]int64{0, 0, 0, 0, 4}, 5},
		{"mixed rounds to one decimal", [5]int64{0, 0, 0, 2, 16}, 4.9}, // 88 points over 18 ratings
		{"full spread rounds down", [5]int64{0, 1, 2, 5, 10}, 4.3},     // 78 points over 18 ratings
		{"all one star", [5]int64{3, 0, 0, 0, 0}, 1},
		{"half star", [5]int64{1, 1, 0, 0, 0}, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Event{Ratings: tt.ratings}
			if got := e.AverageRating(); got != tt.want {
				t.Errorf("AverageRating() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvent_RatingCount(t *testing.T) {
	e := Event{Ratings: [5]int64{1, 2, 3, 4, 5}}
	if got := e.RatingCount(); got != 15 {
		t.Errorf("RatingCount() = %d, want 15", got)
	}
}

func TestEvent_ValidateWindow(t *testing.T) {
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name                             string
		regStart, regEnd, evStart, evEnd time.Time
		want                             bool
	}{
		{
			"ordered",
			base, base.Add(24 * time.Hour), base.Add(48 * time.Hour), base.Add(56 * time.Hour),
			true,
		},
		{
			"equal boundaries",
			base, base, base, base,
			true,
		},
		{
			"registration backwards",
			base.Add(time.Hour), base, base.Add(48 * time.Hour), base.Add(56 * time.Hour),
			false,
		},
		{
			"event starts before registration closes",
			base, base.Add(48 * time.Hour), base.Add(24 * time.Hour), base.Add(56 * time.Hour),
			false,
		},
		{
			"event ends before it starts",
			base, base.Add(24 * time.Hour), base.Add(48 * time.Hour), base.Add(47 * time.Hour),
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Event{
				RegistrationStart: tt.regStart,
				RegistrationEnd:   tt.regEnd,
				EventStart:        tt.evStart,
				EventEnd:          tt.evEnd,
			}
			if got := e.ValidateWindow(); got != tt.want {
				t.Errorf("ValidateWindow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultGeoPoint(t *testing.T) {
	p := DefaultGeoPoint()
	if p.Type != "Point" {
		t.Errorf("Type = %q, want %q", p.Type, "Point")
	}
	if len(p.Coordinates) != 2 || p.Coordinates[0] != 0 || p.Coordinates[1] != 0 {
		t.Errorf("Coordinates = %v, want [0 0]", p.Coordinates)
	}
}
