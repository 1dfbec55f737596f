package model

import (
	"testing"
	"time"

	"gorm.io/gorm"
)

func TestUserLive(t *testing.T) {
	tests := []struct {
		name string
		user User
		want bool
	}{
		{"active", User{IsActive: true}, true},
		{"not verified", User{IsActive: false}, false},
		{"withdrawn", User{IsActive: true, DeletedAt: gorm.DeletedAt{Time: time.Now(), Valid: true}}, false},
		{"withdrawn before verify", User{DeletedAt: gorm.DeletedAt{Time: time.Now(), Valid: true}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.user.Live(); got != tc.want {
				t.Errorf("Live() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMusicMapCounts(t *testing.T) {
	m := MusicMap{
		MemorizeUsers: []uint64{1, 2, 3},
		Comments:      []MapComment{{AuthorID: 1, Content: "hi"}},
	}
	if m.MemorizeCount() != 3 {
		t.Errorf("MemorizeCount() = %d, want 3", m.MemorizeCount())
	}
	if m.CommentsCount() != 1 {
		t.Errorf("CommentsCount() = %d, want 1", m.CommentsCount())
	}
}

func TestNewGeoPoint(t *testing.T) {
	p := NewGeoPoint(126.97, 37.56)
	if p.Type != "Point" {
		t.Errorf("Type = %q, want Point", p.Type)
	}
	// GeoJSON 坐标顺序是经度在前
	if p.Coordinates[0] != 126.97 || p.Coordinates[1] != 37.56 {
		t.Errorf("Coordinates = %v", p.Coordinates)
	}
}
