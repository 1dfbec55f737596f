package mysql

import (
	"recordmusic/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

// FindByHandle 只查活着的账号（未软删除）
func (r *UserRepository) FindByHandle(handle string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("handle = ?", handle).First(&user).Error
	return &user, err
}

// FindByHandleAny 连软删除的一起查，区分 404 和 400/403 时用
func (r *UserRepository) FindByHandleAny(handle string) (*model.User, error) {
	var user model.User
	err := r.DB.Unscoped().Where("handle = ?", handle).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByID(id uint64) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByIDAny(id uint64) (*model.User, error) {
	var user model.User
	err := r.DB.Unscoped().First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var usr model.User
	err := r.DB.Where("email = ?", email).First(&usr).Error
	return &usr, err
}

func (r *UserRepository) FindByEmailAny(email string) (*model.User, error) {
	var usr model.User
	err := r.DB.Unscoped().Where("email = ?", email).First(&usr).Error
	return &usr, err
}

func (r *UserRepository) UpdatePassword(user *model.User, newPassword string) error {
	return r.DB.Model(user).Update("password", newPassword).Error
}

func (r *UserRepository) Activate(user *model.User) error {
	return r.DB.Model(user).Update("is_active", true).Error
}

// UpdateFields 部分字段合并更新
func (r *UserRepository) UpdateFields(user *model.User, fields map[string]any) error {
	return r.DB.Model(user).Updates(fields).Error
}

// SoftDelete 注销账号，gorm 的 DeletedAt 软删除，重复调用无副作用
func (r *UserRepository) SoftDelete(user *model.User) error {
	return r.DB.Delete(user).Error
}

func (r *UserRepository) SetProfileImage(userID uint64, imageID *uint64) error {
	return r.DB.Model(&model.User{}).Where("id = ?", userID).
		Update("profile_image_id", imageID).Error
}

// Explore 最新注册的 n 个可见账号
func (r *UserRepository) Explore(n int) ([]model.User, error) {
	var users []model.User
	err := r.DB.Where("is_active = 1").Order("created_at DESC").Limit(n).Find(&users).Error
	return users, err
}

// SearchByPrefix 按昵称或显示名前缀搜索
func (r *UserRepository) SearchByPrefix(handlePrefix, namePrefix string) ([]model.User, error) {
	var users []model.User
	q := r.DB.Where("is_active = 1")
	if namePrefix != "" {
		q = q.Where("handle LIKE ? AND name LIKE ?", handlePrefix+"%", namePrefix+"%")
	} else {
		q = q.Where("handle LIKE ? OR name LIKE ?", handlePrefix+"%", handlePrefix+"%")
	}
	err := q.Find(&users).Error
	return users, err
}
