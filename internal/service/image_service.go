package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"recordmusic/internal/model"
	"recordmusic/internal/repository/mysql"
	"recordmusic/internal/storage"
)

const presignTTL = time.Hour

// ImageStore 头像记录仓储，mysql 实现，测试里可替换
type ImageStore interface {
	Create(img *model.ProfileImage) error
	FindByID(id uint64) (*model.ProfileImage, error)
	ListByUser(userID uint64) ([]model.ProfileImage, error)
	UpdateObjectKey(id uint64, key string) error
	Delete(id uint64) error
}

// BlobStore 对象存储口，minio 实现
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PresignedGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, key string) error
}

type ProfileImageService struct {
	users  UserStore
	images ImageStore
	store  BlobStore
}

func NewProfileImageService(store *storage.ObjStore) *ProfileImageService {
	return &ProfileImageService{
		users:  &mysql.UserRepository{DB: mysql.DB},
		images: &mysql.ProfileImageRepository{DB: mysql.DB},
		store:  store,
	}
}

// Upload 上传头像并设为当前生效的一张
func (s *ProfileImageService) Upload(ctx context.Context, requesterID uint64, handle string, r io.Reader, size int64, contentType string) (*model.ProfileImage, error) {
	user, err := s.owned(requesterID, handle)
	if err != nil {
		return nil, err
	}

	img := &model.ProfileImage{
		UserID:      user.ID,
		ContentType: contentType,
	}
	if err := s.images.Create(img); err != nil {
		return nil, err
	}
	img.ObjectKey = fmt.Sprintf("profile/%d/%d", user.ID, img.ID)
	if err := s.images.UpdateObjectKey(img.ID, img.ObjectKey); err != nil {
		_ = s.images.Delete(img.ID)
		return nil, err
	}

	// 对象没落盘就把记录回滚掉，避免留孤儿行
	if err := s.store.Put(ctx, img.ObjectKey, r, size, contentType); err != nil {
		_ = s.images.Delete(img.ID)
		return nil, err
	}
	if err := s.users.SetProfileImage(user.ID, &img.ID); err != nil {
		return nil, err
	}
	return img, nil
}

// ActiveURL 当前头像的限时下载链接
func (s *ProfileImageService) ActiveURL(ctx context.Context, handle string) (string, error) {
	user, err := s.users.FindByHandle(handle)
	if err != nil {
		return "", ErrUserNotFound
	}
	url, err := s.ActiveImageURL(ctx, user)
	if err != nil {
		return "", err
	}
	if url == "" {
		return "", ErrImageNotFound
	}
	return url, nil
}

// ActiveImageURL 没有头像时返回空串不报错，画像组装用
func (s *ProfileImageService) ActiveImageURL(ctx context.Context, user *model.User) (string, error) {
	if user.ProfileImageID == nil {
		return "", nil
	}
	img, err := s.images.FindByID(*user.ProfileImageID)
	if err != nil {
		return "", nil
	}
	return s.store.PresignedGet(ctx, img.ObjectKey, presignTTL)
}

// SetActive 把已有的一张切成当前头像
func (s *ProfileImageService) SetActive(requesterID uint64, handle string, imageID uint64) error {
	user, err := s.owned(requesterID, handle)
	if err != nil {
		return err
	}
	img, err := s.images.FindByID(imageID)
	if err != nil || img.UserID != user.ID {
		return ErrImageNotFound
	}
	return s.users.SetProfileImage(user.ID, &img.ID)
}

// Delete 删除一张头像；删的是当前生效的那张时清掉账号上的引用
func (s *ProfileImageService) Delete(ctx context.Context, requesterID uint64, handle string, imageID uint64) error {
	user, err := s.owned(requesterID, handle)
	if err != nil {
		return err
	}
	img, err := s.images.FindByID(imageID)
	if err != nil || img.UserID != user.ID {
		return ErrImageNotFound
	}

	if user.ProfileImageID != nil && *user.ProfileImageID == img.ID {
		if err := s.users.SetProfileImage(user.ID, nil); err != nil {
			return err
		}
	}
	if err := s.images.Delete(img.ID); err != nil {
		return err
	}
	return s.store.Remove(ctx, img.ObjectKey)
}

// List 用户的全部头像记录，按上传顺序
func (s *ProfileImageService) List(requesterID uint64, handle string) ([]model.ProfileImage, error) {
	user, err := s.owned(requesterID, handle)
	if err != nil {
		return nil, err
	}
	return s.images.ListByUser(user.ID)
}

func (s *ProfileImageService) owned(requesterID uint64, handle string) (*model.User, error) {
	user, err := s.users.FindByHandle(handle)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if user.ID != requesterID {
		return nil, ErrNotOwner
	}
	return user, nil
}
