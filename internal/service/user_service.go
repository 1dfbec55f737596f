package service

import (
	"context"
	"errors"
	"strings"

	"recordmusic/internal/model"
	"recordmusic/internal/pkg"
	"recordmusic/internal/repository/mysql"
	"recordmusic/internal/repository/redis"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserStore 账号仓储，mysql 实现，测试里可替换（同 MapStore）
type UserStore interface {
	Create(user *model.User) error
	FindByHandle(handle string) (*model.User, error)
	FindByHandleAny(handle string) (*model.User, error)
	FindByID(id uint64) (*model.User, error)
	FindByIDAny(id uint64) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindByEmailAny(email string) (*model.User, error)
	UpdatePassword(user *model.User, newPassword string) error
	Activate(user *model.User) error
	UpdateFields(user *model.User, fields map[string]any) error
	SoftDelete(user *model.User) error
	SetProfileImage(userID uint64, imageID *uint64) error
	Explore(n int) ([]model.User, error)
	SearchByPrefix(handlePrefix, namePrefix string) ([]model.User, error)
}

// SessionStore 单点登录会话，redis 实现
type SessionStore interface {
	AddSessionToken(usrID uint64, token string) error
	DeleteSessionToken(usrID uint64) error
}

// VerificationMailer 激活邮件和验证码的收发口
type VerificationMailer interface {
	SendActivationEmail(user *model.User) error
	CheckActivation(user *model.User, token string) error
	VerifyCode(scope, email, code string) (bool, error)
}

// AvatarSource 画像组装时取当前头像地址
type AvatarSource interface {
	ActiveImageURL(ctx context.Context, user *model.User) (string, error)
}

type UserService struct {
	repo     UserStore
	follows  FollowStore
	rUser    SessionStore
	emailSvc VerificationMailer
	imageSvc AvatarSource
}

func NewUserService(emailSvc *EmailService, imageSvc *ProfileImageService) *UserService {
	return &UserService{
		repo:     &mysql.UserRepository{DB: mysql.DB},
		follows:  &mysql.FollowRepository{DB: mysql.DB},
		rUser:    &redis.UserRepository{},
		emailSvc: emailSvc,
		imageSvc: imageSvc,
	}
}

// Register 注册新账号，邮箱验证前 is_active=false 不能登录。
// 撞上已存在但未验证的账号时补发激活邮件，不新建行。
func (s *UserService) Register(handle, name, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &model.User{
		Handle:   handle,
		Name:     name,
		Email:    email,
		Password: string(hash),
		IsActive: false,
	}
	if err := s.repo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.registerConflict(handle, email)
		}
		return err
	}

	return s.emailSvc.SendActivationEmail(user)
}

// 注册冲突：未验证的旧账号补发邮件，已验证的按已存在处理
func (s *UserService) registerConflict(handle, email string) error {
	existing, err := s.repo.FindByHandleAny(handle)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		existing, err = s.repo.FindByEmailAny(email)
	}
	if err != nil {
		return ErrUserExists
	}
	if !existing.IsActive && !existing.DeletedAt.Valid {
		if err := s.emailSvc.SendActivationEmail(existing); err != nil {
			return err
		}
		return ErrUnverifiedExists
	}
	return ErrUserExists
}

// Activate 激活链接回跳，成功后直接发 token 登录
func (s *UserService) Activate(uidb64, token string) (*pkg.Pair, *model.Profile, error) {
	pk, err := pkg.DecodeUID(uidb64)
	if err != nil {
		return nil, nil, ErrWrongActivation
	}
	user, err := s.repo.FindByIDAny(pk)
	if err != nil {
		return nil, nil, ErrWrongActivation
	}
	if err := s.emailSvc.CheckActivation(user, token); err != nil {
		return nil, nil, ErrWrongActivation
	}
	if err := s.repo.Activate(user); err != nil {
		return nil, nil, err
	}
	return s.issueTokens(user)
}

// ActivateWithCode 验证码激活，激活链接之外的另一条路。码单次有效。
func (s *UserService) ActivateWithCode(email, code string) (*pkg.Pair, *model.Profile, error) {
	ok, err := s.emailSvc.VerifyCode(ScopeRegister, email, code)
	if err != nil || !ok {
		return nil, nil, ErrWrongCode
	}
	user, err := s.repo.FindByEmailAny(email)
	if err != nil {
		return nil, nil, ErrUserNotFound
	}
	if user.DeletedAt.Valid {
		return nil, nil, ErrWithdrawn
	}
	if !user.IsActive {
		if err := s.repo.Activate(user); err != nil {
			return nil, nil, err
		}
	}
	return s.issueTokens(user)
}

// Login 邮箱+密码。密码对但账号未验证时补发激活邮件并拒绝发 token。
func (s *UserService) Login(email, password string) (*pkg.Pair, *model.Profile, error) {
	user, err := s.repo.FindByEmailAny(email)
	if err != nil {
		return nil, nil, ErrUserNotFound
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, nil, ErrWrongPassword
	}
	if user.DeletedAt.Valid {
		return nil, nil, ErrWithdrawn
	}
	if !user.IsActive {
		if err := s.emailSvc.SendActivationEmail(user); err != nil {
			return nil, nil, err
		}
		return nil, nil, ErrNotVerified
	}

	return s.issueTokens(user)
}

// VerifyToken 用 token 续登录态，返回同一个 token 和用户画像
func (s *UserService) VerifyToken(tokenStr string) (*model.Profile, error) {
	claims, err := pkg.ParseAccess(tokenStr)
	if err != nil {
		return nil, ErrUserNotFound
	}
	user, err := s.repo.FindByIDAny(claims.UserPK)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if user.DeletedAt.Valid {
		return nil, ErrWithdrawn
	}
	if !user.IsActive {
		return nil, ErrNotVerified
	}
	return s.buildProfile(user, false)
}

// Refresh 换新 token 对，并同步单点登录会话
func (s *UserService) Refresh(refreshToken string) (*pkg.Pair, error) {
	pair, err := pkg.Refresh(refreshToken)
	if err != nil {
		return nil, err
	}
	claims, err := pkg.ParseAccess(pair.AccessToken)
	if err != nil {
		return nil, err
	}
	if err := s.rUser.AddSessionToken(claims.UserPK, pair.AccessToken); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *UserService) Logout(usrID uint64) error {
	return s.rUser.DeleteSessionToken(usrID)
}

// SocialLogin 社交账号登录：老账号直接发 token，新账号随机密码直接激活
func (s *UserService) SocialLogin(email, name string) (*pkg.Pair, *model.Profile, bool, error) {
	if email == "" {
		return nil, nil, false, ErrSocialNoEmail
	}

	user, err := s.repo.FindByEmailAny(email)
	if err == nil {
		if user.DeletedAt.Valid {
			return nil, nil, false, ErrWithdrawn
		}
		pair, profile, err := s.issueTokens(user)
		return pair, profile, false, err
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, false, err
	}

	// 随机密码，本人也不知道，社交账号只能走社交登录
	password, err := pkg.RandPassword(24)
	if err != nil {
		return nil, nil, false, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, false, err
	}

	handle := strings.SplitN(email, "@", 2)[0]
	user = &model.User{
		Handle:   handle,
		Name:     name,
		Email:    email,
		Password: string(hash),
		IsActive: true,
		IsSocial: true,
	}
	if err := s.repo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 昵称被占了就补个随机后缀再试一次
			suffix, randErr := pkg.RandDigits(4)
			if randErr != nil {
				return nil, nil, false, randErr
			}
			user.Handle = handle + suffix
			if err = s.repo.Create(user); err != nil {
				return nil, nil, false, err
			}
		} else {
			return nil, nil, false, err
		}
	}

	pair, profile, err := s.issueTokens(user)
	return pair, profile, true, err
}

// GetProfile 取用户画像。注销/未激活账号只有本人可见，且只给最小字段。
func (s *UserService) GetProfile(requesterID uint64, handle string) (*model.Profile, error) {
	user, err := s.repo.FindByHandleAny(handle)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.Live() {
		if user.ID != requesterID {
			return nil, ErrWithdrawn
		}
		return s.buildProfile(user, true)
	}
	return s.buildProfile(user, false)
}

// UpdateProfileParams 部分更新，nil 字段不动
type UpdateProfileParams struct {
	Handle   *string
	Name     *string
	Email    *string
	Password *string
}

// UpdateProfile 只有本人能改。社交账号不能改密码，昵称和邮箱不能撞已有的。
func (s *UserService) UpdateProfile(requesterID uint64, handle string, p UpdateProfileParams) (*model.Profile, error) {
	user, err := s.repo.FindByHandleAny(handle)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if user.ID != requesterID {
		return nil, ErrNotOwner
	}
	if p.Password != nil && user.IsSocial {
		return nil, ErrSocialPassword
	}

	fields := map[string]any{}
	if p.Handle != nil && *p.Handle != user.Handle {
		fields["handle"] = *p.Handle
	}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Email != nil {
		fields["email"] = *p.Email
	}
	if p.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*p.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		fields["password"] = string(hash)
	}
	if len(fields) > 0 {
		if err := s.repo.UpdateFields(user, fields); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// 分辨撞的是邮箱还是昵称
				if p.Email != nil {
					if other, err2 := s.repo.FindByEmailAny(*p.Email); err2 == nil && other.ID != user.ID {
						return nil, ErrEmailTaken
					}
				}
				return nil, ErrHandleTaken
			}
			return nil, err
		}
	}
	return s.buildProfile(user, !user.Live())
}

// Deactivate 注销账号：软删除 + 踢掉会话，重复调用无副作用
func (s *UserService) Deactivate(requesterID uint64, handle string) error {
	user, err := s.repo.FindByHandleAny(handle)
	if err != nil {
		return ErrUserNotFound
	}
	if user.ID != requesterID {
		return ErrNotOwner
	}
	if user.DeletedAt.Valid {
		return nil
	}
	if err := s.repo.SoftDelete(user); err != nil {
		return err
	}
	return s.rUser.DeleteSessionToken(user.ID)
}

// Explore 最新注册的 5 个账号
func (s *UserService) Explore() ([]model.Profile, error) {
	users, err := s.repo.Explore(5)
	if err != nil {
		return nil, err
	}
	return s.buildProfiles(users)
}

// Search 按昵称/显示名前缀搜索
func (s *UserService) Search(handlePrefix, namePrefix string) ([]model.Profile, error) {
	users, err := s.repo.SearchByPrefix(handlePrefix, namePrefix)
	if err != nil {
		return nil, err
	}
	return s.buildProfiles(users)
}

// ChangePassword 登录态修改密码，改完踢掉会话重新登录
func (s *UserService) ChangePassword(usrID uint64, oldPassword, newPassword string) error {
	user, err := s.repo.FindByID(usrID)
	if err != nil {
		return ErrUserNotFound
	}
	if user.IsSocial {
		return ErrSocialPassword
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err = s.repo.UpdatePassword(user, string(hash)); err != nil {
		return err
	}
	return s.Logout(usrID)
}

// ResetPassword 忘记密码：邮箱验证码一次性兑换
func (s *UserService) ResetPassword(email, code, newPassword string) error {
	ok, err := s.emailSvc.VerifyCode(ScopeReset, email, code)
	if err != nil || !ok {
		return ErrWrongCode
	}

	user, err := s.repo.FindByEmail(email)
	if err != nil {
		return ErrUserNotFound
	}
	if user.IsSocial {
		return ErrSocialPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err = s.repo.UpdatePassword(user, string(hash)); err != nil {
		return err
	}
	return s.rUser.DeleteSessionToken(user.ID)
}

func (s *UserService) issueTokens(user *model.User) (*pkg.Pair, *model.Profile, error) {
	pair, err := pkg.GeneratePair(user.ID, user.Handle)
	if err != nil {
		return nil, nil, err
	}
	if err = s.rUser.AddSessionToken(user.ID, pair.AccessToken); err != nil {
		return nil, nil, err
	}
	profile, err := s.buildProfile(user, false)
	if err != nil {
		return nil, nil, err
	}
	return pair, profile, nil
}

// buildProfile 组装画像，关注数读取时从 follow 表统计。minimal 时只给身份字段。
func (s *UserService) buildProfile(user *model.User, minimal bool) (*model.Profile, error) {
	p := &model.Profile{
		UserID:   user.Handle,
		Username: user.Name,
		Email:    user.Email,
	}
	if minimal {
		return p, nil
	}

	ctx := context.Background()
	followers, err := s.follows.CountFollowers(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.CountFollowing(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	p.FollowersCount = followers
	p.FollowingCount = following

	if url, err := s.imageSvc.ActiveImageURL(ctx, user); err == nil && url != "" {
		p.ProfileImage = &url
	}
	return p, nil
}

func (s *UserService) buildProfiles(users []model.User) ([]model.Profile, error) {
	out := make([]model.Profile, 0, len(users))
	for i := range users {
		p, err := s.buildProfile(&users[i], false)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}
