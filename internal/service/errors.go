package service

import "errors"

// handler 按这些哨兵错误决定响应码
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrWrongPassword    = errors.New("invalid password")
	ErrNotVerified      = errors.New("account not verified")
	ErrWithdrawn        = errors.New("account withdrawn")
	ErrUserExists       = errors.New("user exist")
	ErrUnverifiedExists = errors.New("unverified user exist")
	ErrNotOwner         = errors.New("not profile owner")
	ErrHandleTaken      = errors.New("handle already taken")
	ErrEmailTaken       = errors.New("email already taken")
	ErrSocialPassword   = errors.New("social account cannot change password")
	ErrWrongCode        = errors.New("verification failed")
	ErrWrongActivation  = errors.New("wrong verification")
	ErrSocialNoEmail    = errors.New("social account email not visible")

	ErrCannotFollowSelf = errors.New("cannot follow myself")
	ErrTargetGone       = errors.New("target account unavailable")

	ErrImageNotFound = errors.New("profile image not found")
	ErrCommentsOff   = errors.New("comments are off")
	ErrNotAuthor     = errors.New("not the author")
	ErrBadComment    = errors.New("comment index out of range")
)
