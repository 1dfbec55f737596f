package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID             uint64         `gorm:"primaryKey"`
	Handle         string         `gorm:"uniqueIndex;size:30;not null"` // 对外昵称，路由里的 user_id
	Name           string         `gorm:"size:100"`
	Email          string         `gorm:"uniqueIndex;size:64;not null"`
	Password       string         `gorm:"size:255;not null"`
	IsActive       bool           `gorm:"not null;default:0"` // 邮箱验证通过前不能登录
	IsSocial       bool           `gorm:"not null;default:0"` // 社交账号登录创建，禁止改密码
	IsSuperuser    bool           `gorm:"not null;default:0"`
	ProfileImageID *uint64        // 当前生效的头像，最多一张
	DeletedAt      gorm.DeletedAt `gorm:"index"` // 注销 = 软删除
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Live 账号可被他人访问：未注销且已激活
func (u *User) Live() bool {
	return u.IsActive && !u.DeletedAt.Valid
}

// Profile 对外的用户画像，关注数在读取时从 follow 表统计，不落库
type Profile struct {
	ProfileImage   *string `json:"profile_image"`
	UserID         string  `json:"user_id"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	FollowersCount int64   `json:"followers_count"`
	FollowingCount int64   `json:"following_count"`
}
