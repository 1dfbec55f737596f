package handler

import (
	"errors"
	"net/http"

	"recordmusic/internal/middleware"
	"recordmusic/internal/model"
	"recordmusic/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc *service.UserService
}

// RegisterReq 注册请求体
type RegisterReq struct {
	UserID   string `json:"user_id" binding:"required,max=30"`
	Username string `json:"username"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type VerifyReq struct {
	Token string `json:"token" binding:"required"`
}

// ResetReq 忘记密码请求体
type ResetReq struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

type ChangePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// UpdateProfileReq 部分更新，没传的字段不动
type UpdateProfileReq struct {
	UserID   *string `json:"user_id"`
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Register 注册接口，成功后发激活邮件
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	err := h.svc.Register(req.UserID, req.Username, req.Email, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"detail": "Verification Email Sent."})
	case errors.Is(err, service.ErrUnverifiedExists):
		c.JSON(http.StatusForbidden, gin.H{"detail": "You have not verify this account. Verification Email Sent."})
	case errors.Is(err, service.ErrUserExists):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "User exist."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
	}
}

// Activate 激活链接回跳，成功直接发 token
func (h *UserHandler) Activate(c *gin.Context) {
	uidb64 := c.Param("uidb64")
	token := c.Param("token")

	pair, profile, err := h.svc.Activate(uidb64, token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Wrong verification."})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"AccessToken":  pair.AccessToken,
		"RefreshToken": pair.RefreshToken,
		"user":         userSummary(profile),
	})
}

// ActivateCodeReq 验证码激活请求体
type ActivateCodeReq struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

// ActivateByCode 验证码激活，激活链接打不开时的备用路
func (h *UserHandler) ActivateByCode(c *gin.Context) {
	var req ActivateCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	pair, profile, err := h.svc.ActivateWithCode(req.Email, req.Code)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"AccessToken":  pair.AccessToken,
			"RefreshToken": pair.RefreshToken,
			"user":         userSummary(profile),
		})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Email is not found."})
	case errors.Is(err, service.ErrWithdrawn):
		c.JSON(http.StatusForbidden, gin.H{"detail": "This account has been withdrawn."})
	case errors.Is(err, service.ErrWrongCode):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Wrong verification."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
	}
}

// Login 登录接口。密码对但没验证邮箱时补发激活邮件，不发 token。
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	pair, profile, err := h.svc.Login(req.Email, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"AccessToken":  pair.AccessToken,
			"RefreshToken": pair.RefreshToken,
			"user":         userSummary(profile),
		})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Email is not found."})
	case errors.Is(err, service.ErrWrongPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Wrong password."})
	case errors.Is(err, service.ErrNotVerified):
		c.JSON(http.StatusForbidden, gin.H{"detail": "Please verify this account. Verification Email Sent."})
	case errors.Is(err, service.ErrWithdrawn):
		c.JSON(http.StatusForbidden, gin.H{"detail": "This account has been withdrawn."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
	}
}

// Verify 用 token 换用户信息，保持登录态
func (h *UserHandler) Verify(c *gin.Context) {
	var req VerifyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	profile, err := h.svc.VerifyToken(req.Token)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"token": req.Token, "user": userSummary(profile)})
	case errors.Is(err, service.ErrWithdrawn), errors.Is(err, service.ErrNotVerified):
		c.JSON(http.StatusForbidden, gin.H{"detail": "User account is disabled."})
	default:
		c.JSON(http.StatusNotFound, gin.H{"detail": "No user found, cannot verify token."})
	}
}

// TokenRefresh 用 refresh 换新的 access
func (h *UserHandler) TokenRefresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	pair, err := h.svc.Refresh(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"AccessToken": pair.AccessToken, "RefreshToken": pair.RefreshToken})
}

func (h *UserHandler) Logout(c *gin.Context) {
	userID := userIDFromCtx(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "unauthorized"})
		return
	}
	if err := h.svc.Logout(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// Explore 最新注册的用户
func (h *UserHandler) Explore(c *gin.Context) {
	profiles, err := h.svc.Explore()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// Search 按昵称/显示名前缀搜索用户
func (h *UserHandler) Search(c *gin.Context) {
	handlePrefix := c.Param("id")
	namePrefix := c.Query("username")
	if handlePrefix == "" {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	profiles, err := h.svc.Search(handlePrefix, namePrefix)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// GetProfile 用户画像。注销账号只有本人能看。
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.svc.GetProfile(userIDFromCtx(c), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, profile)
	case errors.Is(err, service.ErrUserNotFound):
		c.Status(http.StatusNotFound)
	case errors.Is(err, service.ErrWithdrawn):
		c.Status(http.StatusForbidden)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
	}
}

// UpdateProfile 只有本人能改自己的资料
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	profile, err := h.svc.UpdateProfile(userIDFromCtx(c), c.Param("id"), service.UpdateProfileParams{
		Handle:   req.UserID,
		Name:     req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, profile)
	case errors.Is(err, service.ErrUserNotFound):
		c.Status(http.StatusNotFound)
	case errors.Is(err, service.ErrNotOwner):
		c.Status(http.StatusUnauthorized)
	case errors.Is(err, service.ErrHandleTaken), errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrSocialPassword):
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
	}
}

// DeleteProfile 注销账号（软删除），幂等
func (h *UserHandler) DeleteProfile(c *gin.Context) {
	err := h.svc.Deactivate(userIDFromCtx(c), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"msg": "ok"})
	case errors.Is(err, service.ErrUserNotFound):
		c.Status(http.StatusNotFound)
	case errors.Is(err, service.ErrNotOwner):
		c.Status(http.StatusUnauthorized)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
	}
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req ResetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	if err := h.svc.ResetPassword(req.Email, req.Code, req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "reset password successfully"})
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	userID := userIDFromCtx(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "unauthorized"})
		return
	}

	if err := h.svc.ChangePassword(userID, req.OldPassword, req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "change password successfully"})
}

func userSummary(p *model.Profile) gin.H {
	return gin.H{
		"profile_image": p.ProfileImage,
		"user_id":       p.UserID,
		"email":         p.Email,
	}
}

func userIDFromCtx(c *gin.Context) uint64 {
	if v, ok := c.Get(middleware.ContextUserIDKey); ok {
		if id, ok2 := v.(uint64); ok2 {
			return id
		}
	}
	return 0
}
