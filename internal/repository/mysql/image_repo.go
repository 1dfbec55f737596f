package mysql

import (
	"recordmusic/internal/model"

	"gorm.io/gorm"
)

type ProfileImageRepository struct {
	DB *gorm.DB
}

func (r *ProfileImageRepository) Create(img *model.ProfileImage) error {
	return r.DB.Create(img).Error
}

func (r *ProfileImageRepository) FindByID(id uint64) (*model.ProfileImage, error) {
	var img model.ProfileImage
	err := r.DB.First(&img, id).Error
	return &img, err
}

func (r *ProfileImageRepository) ListByUser(userID uint64) ([]model.ProfileImage, error) {
	var list []model.ProfileImage
	err := r.DB.Where("user_id = ?", userID).Order("id ASC").Find(&list).Error
	return list, err
}

func (r *ProfileImageRepository) UpdateObjectKey(id uint64, key string) error {
	return r.DB.Model(&model.ProfileImage{}).Where("id = ?", id).Update("object_key", key).Error
}

func (r *ProfileImageRepository) Delete(id uint64) error {
	return r.DB.Delete(&model.ProfileImage{}, id).Error
}
