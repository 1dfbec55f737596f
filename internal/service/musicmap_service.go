package service

import (
	"context"
	"errors"
	"time"

	"recordmusic/internal/model"
	"recordmusic/internal/repository/mongo"
	"recordmusic/internal/repository/redis"
)

// MapStore 音乐地图文档库，mongo 实现，测试里可替换
type MapStore interface {
	Create(ctx context.Context, m *model.MusicMap) (string, error)
	Get(ctx context.Context, id string) (*model.MusicMap, error)
	Replace(ctx context.Context, m *model.MusicMap) error
	Delete(ctx context.Context, id string) error
	Geo(ctx context.Context, lon, lat, meters float64, limit int) ([]model.MusicMap, error)
	SearchAddress(ctx context.Context, query string, limit int) ([]model.MusicMap, error)
	SearchMusic(ctx context.Context, query string, limit int) ([]model.MusicMap, error)
	SearchAll(ctx context.Context, query string, limit int) ([]model.MusicMap, error)
	Memorize(ctx context.Context, id string, userID uint64) (bool, error)
	Unmemorize(ctx context.Context, id string, userID uint64) (bool, error)
}

const (
	conflictRetries = 5
	conflictBackoff = 200 * time.Millisecond
)

type MusicMapService struct {
	store MapStore
	cache *redis.MemorizeCacheRepository

	// 版本冲突重试间隔，测试里调小
	backoff time.Duration
}

func NewMusicMapService(store MapStore) *MusicMapService {
	return &MusicMapService{
		store:   store,
		cache:   redis.NewMemorizeCacheRepository(),
		backoff: conflictBackoff,
	}
}

// MusicMapParams 建图和改图共用的字段
type MusicMapParams struct {
	Content        string
	OpenRange      int
	CommentsOn     bool
	Images         []string
	Playlist       []model.MapTrack
	Lon, Lat       float64
	StreetAddress  string
	BuildingNumber string
}

func (s *MusicMapService) Create(ctx context.Context, authorID uint64, p MusicMapParams) (*model.MusicMap, error) {
	m := &model.MusicMap{
		AuthorID:       authorID,
		Content:        p.Content,
		OpenRange:      p.OpenRange,
		CommentsOn:     p.CommentsOn,
		Images:         p.Images,
		Playlist:       p.Playlist,
		Location:       model.NewGeoPoint(p.Lon, p.Lat),
		StreetAddress:  p.StreetAddress,
		BuildingNumber: p.BuildingNumber,
	}
	if _, err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MusicMapService) Get(ctx context.Context, id string) (*model.MusicMap, error) {
	return s.store.Get(ctx, id)
}

// Update 作者改自己的图。版本冲突时重读重写，固定间隔，最多重试 conflictRetries 次。
func (s *MusicMapService) Update(ctx context.Context, authorID uint64, id string, p MusicMapParams) (*model.MusicMap, error) {
	var out *model.MusicMap
	err := s.withConflictRetry(ctx, func() error {
		m, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if m.AuthorID != authorID {
			return ErrNotAuthor
		}
		m.Content = p.Content
		m.OpenRange = p.OpenRange
		m.CommentsOn = p.CommentsOn
		m.Images = p.Images
		m.Playlist = p.Playlist
		m.Location = model.NewGeoPoint(p.Lon, p.Lat)
		m.StreetAddress = p.StreetAddress
		m.BuildingNumber = p.BuildingNumber
		if err := s.store.Replace(ctx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

func (s *MusicMapService) Delete(ctx context.Context, authorID uint64, id string) error {
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if m.AuthorID != authorID {
		return ErrNotAuthor
	}
	return s.store.Delete(ctx, id)
}

// AddComment 评论开着才能评，写入走版本冲突重试
func (s *MusicMapService) AddComment(ctx context.Context, authorID uint64, id, content string) error {
	return s.withConflictRetry(ctx, func() error {
		m, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if !m.CommentsOn {
			return ErrCommentsOff
		}
		m.Comments = append(m.Comments, model.MapComment{
			AuthorID:  authorID,
			Content:   content,
			CreatedAt: time.Now().UTC(),
		})
		return s.store.Replace(ctx, m)
	})
}

// UpdateComment 按下标改自己的评论
func (s *MusicMapService) UpdateComment(ctx context.Context, requesterID uint64, id string, index int, content string) error {
	return s.withConflictRetry(ctx, func() error {
		m, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(m.Comments) {
			return ErrBadComment
		}
		if m.Comments[index].AuthorID != requesterID {
			return ErrNotAuthor
		}
		m.Comments[index].Content = content
		return s.store.Replace(ctx, m)
	})
}

// DeleteComment 按下标删自己的评论
func (s *MusicMapService) DeleteComment(ctx context.Context, requesterID uint64, id string, index int) error {
	return s.withConflictRetry(ctx, func() error {
		m, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(m.Comments) {
			return ErrBadComment
		}
		if m.Comments[index].AuthorID != requesterID {
			return ErrNotAuthor
		}
		m.Comments = append(m.Comments[:index], m.Comments[index+1:]...)
		return s.store.Replace(ctx, m)
	})
}

// Geo 坐标半径查询
func (s *MusicMapService) Geo(ctx context.Context, lon, lat, meters float64) ([]model.MusicMap, error) {
	if meters <= 0 {
		meters = 1000
	}
	return s.store.Geo(ctx, lon, lat, meters, 50)
}

// Search kind: location / music / 其他走全量
func (s *MusicMapService) Search(ctx context.Context, kind, query string) ([]model.MusicMap, error) {
	switch kind {
	case "location":
		return s.store.SearchAddress(ctx, query, 50)
	case "music":
		return s.store.SearchMusic(ctx, query, 50)
	default:
		return s.store.SearchAll(ctx, query, 50)
	}
}

// Memorize 收藏。文档库成功后回写缓存，缓存失败不影响结果。
func (s *MusicMapService) Memorize(ctx context.Context, userID uint64, id string) (bool, error) {
	changed, err := s.store.Memorize(ctx, id, userID)
	if err != nil {
		return false, err
	}
	if changed {
		_ = s.cache.AddMemorize(ctx, userID, id)
	}
	return changed, nil
}

func (s *MusicMapService) Unmemorize(ctx context.Context, userID uint64, id string) (bool, error) {
	changed, err := s.store.Unmemorize(ctx, id, userID)
	if err != nil {
		return false, err
	}
	if changed {
		_ = s.cache.RemoveMemorize(ctx, userID, id)
	}
	return changed, nil
}

// MemorizeCount 收藏数，缓存命中直接用，不命中读文档回填
func (s *MusicMapService) MemorizeCount(ctx context.Context, id string) (int64, error) {
	if cnt, hit, err := s.cache.GetMemorizeCountCached(ctx, id); err == nil && hit {
		return cnt, nil
	}
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	cnt := int64(m.MemorizeCount())
	_ = s.cache.SetMemorizeCount(ctx, id, cnt)
	return cnt, nil
}

// withConflictRetry 对版本冲突做有界重试，其他错误直接透传
func (s *MusicMapService) withConflictRetry(ctx context.Context, fn func() error) error {
	var err error
	for i := 0; i < conflictRetries; i++ {
		err = fn()
		if !errors.Is(err, mongo.ErrVersionConflict) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.backoff):
		}
	}
	return err
}
