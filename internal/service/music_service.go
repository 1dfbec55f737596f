package service

import (
	"errors"

	"recordmusic/internal/model"
	"recordmusic/internal/repository/mysql"

	"gorm.io/gorm"
)

var ErrMusicNotFound = errors.New("music not found")

type MusicService struct {
	repo *mysql.MusicRepository
}

func NewMusicService() *MusicService {
	return &MusicService{
		repo: &mysql.MusicRepository{DB: mysql.DB},
	}
}

func (s *MusicService) Create(artists, name, ytSongID, coverImage string) (*model.Music, error) {
	if artists == "" || name == "" {
		return nil, errors.New("artists and name required")
	}
	m := &model.Music{
		Artists:    artists,
		Name:       name,
		YtSongID:   ytSongID,
		CoverImage: coverImage,
	}
	if err := s.repo.Create(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MusicService) Get(id uint64) (*model.Music, error) {
	m, err := s.repo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMusicNotFound
	}
	return m, err
}

// UpdateParams 部分更新，nil 字段不动
type UpdateMusicParams struct {
	Artists    *string
	Name       *string
	YtSongID   *string
	CoverImage *string
}

func (s *MusicService) Update(id uint64, p UpdateMusicParams) (*model.Music, error) {
	m, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if p.Artists != nil {
		fields["artists"] = *p.Artists
	}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.YtSongID != nil {
		fields["yt_song_id"] = *p.YtSongID
	}
	if p.CoverImage != nil {
		fields["cover_image"] = *p.CoverImage
	}
	if len(fields) > 0 {
		if err := s.repo.UpdateFields(m, fields); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (s *MusicService) Delete(id uint64) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.repo.Delete(id)
}

func (s *MusicService) Search(prefix string, limit int) ([]model.Music, error) {
	return s.repo.SearchByName(prefix, limit)
}
