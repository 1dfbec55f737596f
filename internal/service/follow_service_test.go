package service

import (
	"context"
	"sort"
	"testing"

	"recordmusic/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFollowStore 内存版 FollowStore，计数是纯边计数，和 mysql 实现口径一致
type fakeFollowStore struct {
	seq  uint64
	rows []model.Follow
}

func newFakeFollowStore() *fakeFollowStore {
	return &fakeFollowStore{}
}

func (f *fakeFollowStore) Follow(ctx context.Context, followerID, followeeID uint64) (bool, error) {
	for _, r := range f.rows {
		if r.FollowerID == followerID && r.FolloweeID == followeeID {
			return false, nil
		}
	}
	f.seq++
	f.rows = append(f.rows, model.Follow{ID: f.seq, FollowerID: followerID, FolloweeID: followeeID})
	return true, nil
}

func (f *fakeFollowStore) Unfollow(ctx context.Context, followerID, followeeID uint64) (bool, error) {
	for i, r := range f.rows {
		if r.FollowerID == followerID && r.FolloweeID == followeeID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFollowStore) IsFollowing(ctx context.Context, followerID, followeeID uint64) (bool, error) {
	for _, r := range f.rows {
		if r.FollowerID == followerID && r.FolloweeID == followeeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFollowStore) CountFollowers(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	for _, r := range f.rows {
		if r.FolloweeID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeFollowStore) CountFollowing(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	for _, r := range f.rows {
		if r.FollowerID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeFollowStore) list(pred func(model.Follow) bool, cursor uint64, limit int) ([]model.Follow, uint64) {
	out := []model.Follow{}
	for _, r := range f.rows {
		if r.ID > cursor && pred(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	var next uint64
	if len(out) > limit {
		out = out[:limit]
		next = out[limit-1].ID
	}
	return out, next
}

func (f *fakeFollowStore) ListFollowers(ctx context.Context, userID, cursor uint64, limit int) ([]model.Follow, uint64, error) {
	rows, next := f.list(func(r model.Follow) bool { return r.FolloweeID == userID }, cursor, limit)
	return rows, next, nil
}

func (f *fakeFollowStore) ListFollowings(ctx context.Context, userID, cursor uint64, limit int) ([]model.Follow, uint64, error) {
	rows, next := f.list(func(r model.Follow) bool { return r.FollowerID == userID }, cursor, limit)
	return rows, next, nil
}

func mustFollow(t *testing.T, f *fakeFollowStore, followerID, followeeID uint64) {
	t.Helper()
	changed, err := f.Follow(context.Background(), followerID, followeeID)
	require.NoError(t, err)
	require.True(t, changed)
}

func newTestFollowService(users *fakeUserStore, follows *fakeFollowStore) *FollowService {
	return &FollowService{
		repo:    follows,
		users:   users,
		userSvc: newTestUserService(users, follows, newFakeMailer(), newFakeSessionStore()),
	}
}

func TestFollowSelfRejected(t *testing.T) {
	users := newFakeUserStore()
	alice := users.add(model.User{Handle: "alice", Email: "alice@example.com", IsActive: true})
	svc := newTestFollowService(users, newFakeFollowStore())

	changed, err := svc.Follow(context.Background(), alice.ID, "alice")
	assert.ErrorIs(t, err, ErrCannotFollowSelf)
	assert.False(t, changed)
}

func TestFollowUnknownTarget(t *testing.T) {
	users := newFakeUserStore()
	alice := users.add(model.User{Handle: "alice", Email: "alice@example.com", IsActive: true})
	svc := newTestFollowService(users, newFakeFollowStore())

	_, err := svc.Follow(context.Background(), alice.ID, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFollowDeactivatedTarget(t *testing.T) {
	users := newFakeUserStore()
	alice := users.add(model.User{Handle: "alice", Email: "alice@example.com", IsActive: true})
	bob := users.add(model.User{Handle: "bob", Email: "bob@example.com", IsActive: true})
	require.NoError(t, users.SoftDelete(bob))

	follows := newFakeFollowStore()
	svc := newTestFollowService(users, follows)

	_, err := svc.Follow(context.Background(), alice.ID, "bob")
	assert.ErrorIs(t, err, ErrTargetGone)
	assert.Empty(t, follows.rows)

	_, err = svc.Unfollow(context.Background(), alice.ID, "bob")
	assert.ErrorIs(t, err, ErrTargetGone)
}

func TestDuplicateFollowNoChange(t *testing.T) {
	users := newFakeUserStore()
	alice := users.add(model.User{Handle: "alice", Email: "alice@example.com", IsActive: true})
	users.add(model.User{Handle: "bob", Email: "bob@example.com", IsActive: true})

	follows := newFakeFollowStore()
	svc := newTestFollowService(users, follows)
	ctx := context.Background()

	changed, err := svc.Follow(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = svc.Follow(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, follows.rows, 1)
}

func TestUnfollowAbsentNoChange(t *testing.T) {
	users := newFakeUserStore()
	alice := users.add(model.User{Handle: "alice", Email: "alice@example.com", IsActive: true})
	users.add(model.User{Handle: "bob", Email: "bob@example.com", IsActive: true})
	svc := newTestFollowService(users, newFakeFollowStore())

	changed, err := svc.Unfollow(context.Background(), alice.ID, "bob")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestListFollowersSkipsDeletedButCountsThem(t *testing.T) {
	users := newFakeUserStore()
	alice := users.add(model.User{Handle: "alice", Email: "alice@example.com", IsActive: true})
	bob := users.add(model.User{Handle: "bob", Email: "bob@example.com", IsActive: true})
	carol := users.add(model.User{Handle: "carol", Email: "carol@example.com", IsActive: true})

	follows := newFakeFollowStore()
	mustFollow(t, follows, bob.ID, alice.ID)
	mustFollow(t, follows, carol.ID, alice.ID)
	require.NoError(t, users.SoftDelete(carol))

	svc := newTestFollowService(users, follows)
	ctx := context.Background()

	profiles, next, err := svc.ListFollowers(ctx, "alice", 0, 20)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "bob", profiles[0].UserID)
	assert.Zero(t, next)

	// 孤儿边留在表里，计数不变
	n, err := follows.CountFollowers(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
