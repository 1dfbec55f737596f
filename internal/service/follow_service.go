package service

import (
	"context"
	"errors"
	"log"
	"time"

	"recordmusic/internal/model"
	"recordmusic/internal/pkg"
	"recordmusic/internal/repository/mysql"

	"gorm.io/gorm"
)

// FollowStore 关注边仓储，mysql 实现，测试里可替换
type FollowStore interface {
	Follow(ctx context.Context, followerID, followeeID uint64) (bool, error)
	Unfollow(ctx context.Context, followerID, followeeID uint64) (bool, error)
	IsFollowing(ctx context.Context, followerID, followeeID uint64) (bool, error)
	CountFollowers(ctx context.Context, userID uint64) (int64, error)
	CountFollowing(ctx context.Context, userID uint64) (int64, error)
	ListFollowers(ctx context.Context, userID, cursor uint64, limit int) ([]model.Follow, uint64, error)
	ListFollowings(ctx context.Context, userID, cursor uint64, limit int) ([]model.Follow, uint64, error)
}

type FollowService struct {
	repo    FollowStore
	users   UserStore
	userSvc *UserService
}

type Sender func(ctx context.Context, ob *model.SocialOutbox) error

// OutboxRelayer 后台把 outbox 表里的关注事件批量投到 Kafka
type OutboxRelayer struct {
	repo      *mysql.OutboxRepository
	batchSize int
	interval  time.Duration
	sender    Sender
}

func NewFollowService(userSvc *UserService) *FollowService {
	return &FollowService{
		repo:    &mysql.FollowRepository{DB: mysql.DB},
		users:   &mysql.UserRepository{DB: mysql.DB},
		userSvc: userSvc,
	}
}

func NewOutboxRelayer(sender Sender) *OutboxRelayer {
	return &OutboxRelayer{
		repo:      &mysql.OutboxRepository{DB: mysql.DB},
		batchSize: 200,
		interval:  time.Second,
		sender:    sender,
	}
}

// Follow actor 关注 handle 指到的账号。
// 自关注、目标注销/未激活都拒绝，目标不存在单独报 not found。
func (s *FollowService) Follow(ctx context.Context, actorID uint64, targetHandle string) (bool, error) {
	target, err := s.resolveTarget(actorID, targetHandle)
	if err != nil {
		return false, err
	}
	return s.repo.Follow(ctx, actorID, target.ID)
}

// Unfollow 对称的校验，边不存在时无副作用
func (s *FollowService) Unfollow(ctx context.Context, actorID uint64, targetHandle string) (bool, error) {
	target, err := s.resolveTarget(actorID, targetHandle)
	if err != nil {
		return false, err
	}
	return s.repo.Unfollow(ctx, actorID, target.ID)
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID uint64) (bool, error) {
	if followerID == 0 || followeeID == 0 {
		return false, errors.New("invalid user id")
	}
	return s.repo.IsFollowing(ctx, followerID, followeeID)
}

// ListFollowers 粉丝画像列表，按建边顺序；端点已注销的边跳过
func (s *FollowService) ListFollowers(ctx context.Context, handle string, cursor uint64, limit int) ([]model.Profile, uint64, error) {
	user, err := s.users.FindByHandle(handle)
	if err != nil {
		return nil, 0, ErrUserNotFound
	}
	rows, next, err := s.repo.ListFollowers(ctx, user.ID, cursor, limit)
	if err != nil {
		return nil, 0, err
	}
	return s.resolveProfiles(rows, func(f model.Follow) uint64 { return f.FollowerID }), next, nil
}

// ListFollowing 关注画像列表
func (s *FollowService) ListFollowing(ctx context.Context, handle string, cursor uint64, limit int) ([]model.Profile, uint64, error) {
	user, err := s.users.FindByHandle(handle)
	if err != nil {
		return nil, 0, ErrUserNotFound
	}
	rows, next, err := s.repo.ListFollowings(ctx, user.ID, cursor, limit)
	if err != nil {
		return nil, 0, err
	}
	return s.resolveProfiles(rows, func(f model.Follow) uint64 { return f.FolloweeID }), next, nil
}

// resolveTarget 解析目标账号：不存在 404，注销/未激活 400，自己 400
func (s *FollowService) resolveTarget(actorID uint64, handle string) (*model.User, error) {
	target, err := s.users.FindByHandleAny(handle)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if target.ID == actorID {
		return nil, ErrCannotFollowSelf
	}
	if !target.Live() {
		return nil, ErrTargetGone
	}
	return target, nil
}

func (s *FollowService) resolveProfiles(rows []model.Follow, pick func(model.Follow) uint64) []model.Profile {
	out := make([]model.Profile, 0, len(rows))
	for _, f := range rows {
		u, err := s.users.FindByID(pick(f))
		if err != nil || !u.Live() {
			// 软删除把边孤儿化了，列表里直接跳过
			continue
		}
		p, err := s.userSvc.buildProfile(u, false)
		if err != nil {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// Run outbox 投递循环
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

func (r *OutboxRelayer) drainOnce(ctx context.Context) {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		log.Printf("outbox query err: %v", err)
		return
	}
	for i := range rows {
		ob := rows[i]
		if err = r.sender(ctx, &ob); err != nil {
			_ = r.repo.RetryUpdate(ctx, ob.ID)
			continue
		}
		_ = r.repo.SuccessUpdate(ctx, ob.ID)
	}
}

// KafkaSender 把 outbox 事件写到 Kafka，同一 follower 的事件保序
func KafkaSender(producer *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.SocialOutbox) error {
		return producer.Send(ctx, pkg.MakeKeyFromID(ob.Follower), []byte(ob.Payload))
	}
}

// LogSender 本地调试用 sender，只打印
func LogSender(ctx context.Context, ob *model.SocialOutbox) error {
	log.Printf("OUTBOX SEND type=%s follower=%d followee=%d payload=%s", ob.EventType, ob.Follower, ob.Followee, ob.Payload)
	return nil
}
