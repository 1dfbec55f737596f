package mysql

import (
	"recordmusic/internal/model"

	"gorm.io/gorm"
)

type MusicRepository struct {
	DB *gorm.DB
}

func (r *MusicRepository) Create(m *model.Music) error {
	return r.DB.Create(m).Error
}

func (r *MusicRepository) FindByID(id uint64) (*model.Music, error) {
	var m model.Music
	err := r.DB.First(&m, id).Error
	return &m, err
}

// UpdateFields 部分字段合并更新
func (r *MusicRepository) UpdateFields(m *model.Music, fields map[string]any) error {
	return r.DB.Model(m).Updates(fields).Error
}

func (r *MusicRepository) Delete(id uint64) error {
	return r.DB.Delete(&model.Music{}, id).Error
}

// SearchByName 曲名前缀搜索
func (r *MusicRepository) SearchByName(prefix string, limit int) ([]model.Music, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	var list []model.Music
	err := r.DB.Where("name LIKE ?", prefix+"%").Limit(limit).Find(&list).Error
	return list, err
}
