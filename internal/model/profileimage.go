package model

import "time"

// ProfileImage 头像记录，二进制在对象存储里，这里只记归属和对象键
type ProfileImage struct {
	ID          uint64 `gorm:"primaryKey"`
	UserID      uint64 `gorm:"not null;index:idx_image_user"`
	ObjectKey   string `gorm:"size:255;not null"`
	ContentType string `gorm:"size:64"`
	CreatedAt   time.Time
}

func (ProfileImage) TableName() string { return "profile_images" }
