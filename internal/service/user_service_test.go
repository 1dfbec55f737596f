package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"recordmusic/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// fakeUserStore 内存版 UserStore，昵称/邮箱撞唯一索引时返回 gorm.ErrDuplicatedKey
type fakeUserStore struct {
	seq   uint64
	users map[uint64]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint64]*model.User{}}
}

func (f *fakeUserStore) add(u model.User) *model.User {
	f.seq++
	u.ID = f.seq
	cp := u
	f.users[cp.ID] = &cp
	return &cp
}

func (f *fakeUserStore) conflicts(handle, email string, exclude uint64) bool {
	for _, u := range f.users {
		if u.ID == exclude {
			continue
		}
		if (handle != "" && u.Handle == handle) || (email != "" && u.Email == email) {
			return true
		}
	}
	return false
}

func (f *fakeUserStore) Create(user *model.User) error {
	if f.conflicts(user.Handle, user.Email, 0) {
		return gorm.ErrDuplicatedKey
	}
	f.seq++
	user.ID = f.seq
	cp := *user
	f.users[cp.ID] = &cp
	return nil
}

func (f *fakeUserStore) find(pred func(*model.User) bool, includeDeleted bool) (*model.User, error) {
	for _, u := range f.users {
		if !includeDeleted && u.DeletedAt.Valid {
			continue
		}
		if pred(u) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) FindByHandle(handle string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Handle == handle }, false)
}

func (f *fakeUserStore) FindByHandleAny(handle string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Handle == handle }, true)
}

func (f *fakeUserStore) FindByID(id uint64) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.ID == id }, false)
}

func (f *fakeUserStore) FindByIDAny(id uint64) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.ID == id }, true)
}

func (f *fakeUserStore) FindByEmail(email string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Email == email }, false)
}

func (f *fakeUserStore) FindByEmailAny(email string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Email == email }, true)
}

func (f *fakeUserStore) UpdatePassword(user *model.User, newPassword string) error {
	f.users[user.ID].Password = newPassword
	user.Password = newPassword
	return nil
}

func (f *fakeUserStore) Activate(user *model.User) error {
	f.users[user.ID].IsActive = true
	user.IsActive = true
	return nil
}

func (f *fakeUserStore) UpdateFields(user *model.User, fields map[string]any) error {
	handle, _ := fields["handle"].(string)
	email, _ := fields["email"].(string)
	if f.conflicts(handle, email, user.ID) {
		return gorm.ErrDuplicatedKey
	}
	stored := f.users[user.ID]
	if handle != "" {
		stored.Handle = handle
		user.Handle = handle
	}
	if name, ok := fields["name"].(string); ok {
		stored.Name = name
		user.Name = name
	}
	if email != "" {
		stored.Email = email
		user.Email = email
	}
	if pw, ok := fields["password"].(string); ok {
		stored.Password = pw
		user.Password = pw
	}
	return nil
}

func (f *fakeUserStore) SoftDelete(user *model.User) error {
	now := gorm.DeletedAt{Time: time.Now(), Valid: true}
	f.users[user.ID].DeletedAt = now
	user.DeletedAt = now
	return nil
}

func (f *fakeUserStore) SetProfileImage(userID uint64, imageID *uint64) error {
	f.users[userID].ProfileImageID = imageID
	return nil
}

func (f *fakeUserStore) Explore(n int) ([]model.User, error) {
	out := []model.User{}
	for _, u := range f.users {
		if u.Live() {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (f *fakeUserStore) SearchByPrefix(handlePrefix, namePrefix string) ([]model.User, error) {
	out := []model.User{}
	for _, u := range f.users {
		if !u.Live() {
			continue
		}
		if strings.HasPrefix(u.Handle, handlePrefix) || (namePrefix != "" && strings.HasPrefix(u.Name, namePrefix)) {
			out = append(out, *u)
		}
	}
	return out, nil
}

// fakeSessionStore 记录每个用户当前的会话 token
type fakeSessionStore struct {
	tokens map[uint64]string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{tokens: map[uint64]string{}}
}

func (f *fakeSessionStore) AddSessionToken(usrID uint64, token string) error {
	f.tokens[usrID] = token
	return nil
}

func (f *fakeSessionStore) DeleteSessionToken(usrID uint64) error {
	delete(f.tokens, usrID)
	return nil
}

// fakeMailer 不发真邮件，只记发送次数；验证码单次有效
type fakeMailer struct {
	activationsSent int
	codes           map[string]string
	activationOK    bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{codes: map[string]string{}, activationOK: true}
}

func (f *fakeMailer) SendActivationEmail(user *model.User) error {
	f.activationsSent++
	return nil
}

func (f *fakeMailer) CheckActivation(user *model.User, token string) error {
	if f.activationOK {
		return nil
	}
	return errors.New("bad activation token")
}

func (f *fakeMailer) VerifyCode(scope, email, code string) (bool, error) {
	k := scope + "|" + email
	if code != "" && f.codes[k] == code {
		delete(f.codes, k)
		return true, nil
	}
	return false, nil
}

type fakeAvatarSource struct {
	url string
}

func (f *fakeAvatarSource) ActiveImageURL(ctx context.Context, user *model.User) (string, error) {
	return f.url, nil
}

func newTestUserService(users *fakeUserStore, follows FollowStore, mailer *fakeMailer, sessions *fakeSessionStore) *UserService {
	return &UserService{
		repo:     users,
		follows:  follows,
		rUser:    sessions,
		emailSvc: mailer,
		imageSvc: &fakeAvatarSource{},
	}
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestRegisterCreatesInactiveAndSendsMail(t *testing.T) {
	users := newFakeUserStore()
	mailer := newFakeMailer()
	svc := newTestUserService(users, newFakeFollowStore(), mailer, newFakeSessionStore())

	require.NoError(t, svc.Register("alice", "Alice", "alice@example.com", "pass123456"))

	u, err := users.FindByHandleAny("alice")
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("pass123456")))
	assert.Equal(t, 1, mailer.activationsSent)
}

func TestRegisterResendsForUnverified(t *testing.T) {
	users := newFakeUserStore()
	users.add(model.User{Handle: "alice", Email: "alice@example.com", IsActive: false})
	mailer := newFakeMailer()
	svc := newTestUserService(users, newFakeFollowStore(), mailer, newFakeSessionStore())

	err := svc.Register("alice", "Alice", "alice@example.com", "pass123456")
	assert.ErrorIs(t, err, ErrUnverifiedExists)
	assert.Equal(t, 1, mailer.activationsSent)
	assert.Len(t, users.users, 1)
}

func TestRegisterExistingVerified(t *testing.T) {
	users := newFakeUserStore()
	users.add(model.User{Handle: "alice", Email: "alice@example.com", IsActive: true})
	mailer := newFakeMailer()
	svc := newTestUserService(users, newFakeFollowStore(), mailer, newFakeSessionStore())

	err := svc.Register("alice", "Alice", "alice@example.com", "pass123456")
	assert.ErrorIs(t, err, ErrUserExists)
	assert.Zero(t, mailer.activationsSent)
}

func TestLoginWrongPassword(t *testing.T) {
	users := newFakeUserStore()
	users.add(model.User{Handle: "alice", Email: "alice@example.com", Password: hashOf(t, "right"), IsActive: true})
	svc := newTestUserService(users, newFakeFollowStore(), newFakeMailer(), newFakeSessionStore())

	_, _, err := svc.Login("alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestLoginUnverifiedResendsMail(t *testing.T) {
	users := newFakeUserStore()
	users.add(model.User{Handle: "alice", Email: "alice@example.com", Password: hashOf(t, "secret1"), IsActive: false})
	mailer := newFakeMailer()
	svc := newTestUserService(users, newFakeFollowStore(), mailer, newFakeSessionStore())

	_, _, err := svc.Login("alice@example.com", "secret1")
	assert.ErrorIs(t, err, ErrNotVerified)
	assert.Equal(t, 1, mailer.activationsSent)
}

func TestLoginWithdrawn(t *testing.T) {
	users := newFakeUserStore()
	u := users.add(model.User{Handle: "alice", Email: "alice@example.com", Password: hashOf(t, "secret1"), IsActive: true})
	require.NoError(t, users.SoftDelete(u))
	svc := newTestUserService(users, newFakeFollowStore(), newFakeMailer(), newFakeSessionStore())

	_, _, err := svc.Login("alice@example.com", "secret1")
	assert.ErrorIs(t, err, ErrWithdrawn)
}

func TestLoginSuccessSetsSession(t *testing.T) {
	users := newFakeUserStore()
	u := users.add(model.User{Handle: "alice", Email: "alice@example.com", Password: hashOf(t, "secret1"), IsActive: true})
	sessions := newFakeSessionStore()
	svc := newTestUserService(users, newFakeFollowStore(), newFakeMailer(), sessions)

	pair, profile, err := svc.Login("alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, pair.AccessToken, sessions.tokens[u.ID])
	assert.Equal(t, "alice", profile.UserID)
}

func TestGetProfileCounts(t *testing.T) {
	users := newFakeUserStore()
	alice := users.add(model.User{Handle: "alice", Email: "alice@example.com", IsActive: true})
	bob := users.add(model.User{Handle: "bob", Email: "bob@example.com", IsActive: true})
	carol := users.add(model.User{Handle: "carol", Email: "carol@example.com", IsActive: true})

	follows := newFakeFollowStore()
	mustFollow(t, follows, bob.ID, alice.ID)
	mustFollow(t, follows, carol.ID, alice.ID)
	mustFollow(t, follows, alice.ID, bob.ID)

	svc := newTestUserService(users, follows, newFakeMailer(), newFakeSessionStore())
	p, err := svc.GetProfile(bob.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.FollowersCount)
	assert.Equal(t, int64(1), p.FollowingCount)
}

func TestGetProfileWithdrawnOnlyForOwner(t *testing.T) {
	users := newFakeUserStore()
	alice := users.add(model.User{Handle: "alice", Email: "alice@example.com", IsActive: true})
	require.NoError(t, users.SoftDelete(alice))
	svc := newTestUserService(users, newFakeFollowStore(), newFakeMailer(), newFakeSessionStore())

	_, err := svc.GetProfile(alice.ID+1, "alice")
	assert.ErrorIs(t, err, ErrWithdrawn)

	p, err := svc.GetProfile(alice.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.UserID)
	assert.Zero(t, p.FollowersCount)
}

func TestUpdateProfileNotOwner(t *testing.T) {
	users := newFakeUserStore()
	alice := users.add(model.User{Handle: "alice", Email: "alice@example.com", IsActive: true})
	svc := newTestUserService(users, newFakeFollowStore(), newFakeMailer(), newFakeSessionStore())

	name := "Mallory"
	_, err := svc.UpdateProfile(alice.ID+1, "alice", UpdateProfileParams{Name: &name})
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestUpdateProfileHandleTaken(t *testing.T) {
	users := newFakeUserStore()
	alice := users.add(model.User{Handle: "alice", Email: "alice@example.com", IsActive: true})
	users.add(model.User{Handle: "bob", Email: "bob@example.com", IsActive: true})
	svc := newTestUserService(users, newFakeFollowStore(), newFakeMailer(), newFakeSessionStore())

	taken := "bob"
	_, err := svc.UpdateProfile(alice.ID, "alice", UpdateProfileParams{Handle: &taken})
	assert.ErrorIs(t, err, ErrHandleTaken)
}

func TestUpdateProfileEmailTaken(t *testing.T) {
	users := newFakeUserStore()
	alice := users.add(model.User{Handle: "alice", Email: "alice@example.com", IsActive: true})
	users.add(model.User{Handle: "bob", Email: "bob@example.com", IsActive: true})
	svc := newTestUserService(users, newFakeFollowStore(), newFakeMailer(), newFakeSessionStore())

	taken := "bob@example.com"
	_, err := svc.UpdateProfile(alice.ID, "alice", UpdateProfileParams{Email: &taken})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.NotErrorIs(t, err, ErrHandleTaken)
}

func TestDeactivateIdempotentAndDropsSession(t *testing.T) {
	users := newFakeUserStore()
	alice := users.add(model.User{Handle: "alice", Email: "alice@example.com", IsActive: true})
	sessions := newFakeSessionStore()
	sessions.tokens[alice.ID] = "tok"
	svc := newTestUserService(users, newFakeFollowStore(), newFakeMailer(), sessions)

	require.NoError(t, svc.Deactivate(alice.ID, "alice"))
	assert.True(t, users.users[alice.ID].DeletedAt.Valid)
	assert.Empty(t, sessions.tokens)

	require.NoError(t, svc.Deactivate(alice.ID, "alice"))
}

func TestActivateWithCode(t *testing.T) {
	users := newFakeUserStore()
	alice := users.add(model.User{Handle: "alice", Email: "alice@example.com", IsActive: false})
	mailer := newFakeMailer()
	mailer.codes[ScopeRegister+"|alice@example.com"] = "123456"
	sessions := newFakeSessionStore()
	svc := newTestUserService(users, newFakeFollowStore(), mailer, sessions)

	pair, profile, err := svc.ActivateWithCode("alice@example.com", "123456")
	require.NoError(t, err)
	assert.True(t, users.users[alice.ID].IsActive)
	assert.Equal(t, pair.AccessToken, sessions.tokens[alice.ID])
	assert.Equal(t, "alice", profile.UserID)

	// 码是一次性的，重放拿不到 token
	_, _, err = svc.ActivateWithCode("alice@example.com", "123456")
	assert.ErrorIs(t, err, ErrWrongCode)
}

func TestActivateWithCodeWrongCode(t *testing.T) {
	users := newFakeUserStore()
	users.add(model.User{Handle: "alice", Email: "alice@example.com", IsActive: false})
	mailer := newFakeMailer()
	mailer.codes[ScopeRegister+"|alice@example.com"] = "123456"
	svc := newTestUserService(users, newFakeFollowStore(), mailer, newFakeSessionStore())

	_, _, err := svc.ActivateWithCode("alice@example.com", "654321")
	assert.ErrorIs(t, err, ErrWrongCode)
	assert.False(t, users.users[1].IsActive)
}

func TestChangePasswordSocialRejected(t *testing.T) {
	users := newFakeUserStore()
	alice := users.add(model.User{Handle: "alice", Email: "alice@example.com", Password: hashOf(t, "old"), IsActive: true, IsSocial: true})
	svc := newTestUserService(users, newFakeFollowStore(), newFakeMailer(), newFakeSessionStore())

	err := svc.ChangePassword(alice.ID, "old", "newpass123")
	assert.ErrorIs(t, err, ErrSocialPassword)
}
