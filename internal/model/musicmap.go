package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// 公开范围
const (
	OpenRangePublic     = 0
	OpenRangeFollow     = 1
	OpenRangeFollowBack = 2 // 互关可见
	OpenRangePrivate    = 4
)

// GeoPoint GeoJSON 点，坐标顺序 [lon, lat]
type GeoPoint struct {
	Type        string     `bson:"type" json:"type"`
	Coordinates [2]float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(lon, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{lon, lat}}
}

// MapTrack 音乐地图内嵌的歌单曲目
type MapTrack struct {
	Artists  string `bson:"artists" json:"artists"`
	Name     string `bson:"name" json:"name"`
	YtSongID string `bson:"yt_song_id" json:"yt_song_id"`
}

// MapComment 内嵌评论，按下标寻址
type MapComment struct {
	AuthorID  uint64    `bson:"author_id" json:"author_id"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// MusicMap 音乐地图帖子，存文档库。
// Version 用于乐观并发控制，所有修改都带版本号条件更新。
type MusicMap struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID       uint64        `bson:"author_id" json:"author_id"`
	Content        string        `bson:"content" json:"content"`
	OpenRange      int           `bson:"open_range" json:"open_range"`
	CommentsOn     bool          `bson:"comments_on" json:"comments_on"`
	Images         []string      `bson:"images,omitempty" json:"images"`
	Playlist       []MapTrack    `bson:"playlist,omitempty" json:"playlist"`
	Comments       []MapComment  `bson:"comments,omitempty" json:"comments"`
	MemorizeUsers  []uint64      `bson:"memorize_users,omitempty" json:"-"`
	Location       GeoPoint      `bson:"location" json:"location"`
	StreetAddress  string        `bson:"street_address" json:"street_address"`
	BuildingNumber string        `bson:"building_number" json:"building_number"`
	Version        int64         `bson:"version" json:"-"`
	CreatedAt      time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `bson:"last_updated_at" json:"last_updated_at"`
}

// MemorizeCount 收藏数，读取时算
func (m *MusicMap) MemorizeCount() int {
	return len(m.MemorizeUsers)
}

// CommentsCount 评论数
func (m *MusicMap) CommentsCount() int {
	return len(m.Comments)
}
