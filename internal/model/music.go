package model

import "time"

// Music 曲库条目，封面图存 URL
type Music struct {
	ID         uint64 `gorm:"primaryKey"`
	Artists    string `gorm:"size:100;not null"`
	Name       string `gorm:"size:100;not null"`
	YtSongID   string `gorm:"size:30"`
	CoverImage string `gorm:"size:255"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Music) TableName() string { return "music" }
