package handler

import (
	"errors"
	"net/http"
	"strconv"

	"recordmusic/internal/service"

	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	svc *service.FollowService
}

func NewFollowHandler(svc *service.FollowService) *FollowHandler {
	return &FollowHandler{svc: svc}
}

// Follow 关注。重复关注不报错，isSuccess 返回 false。
func (h *FollowHandler) Follow(c *gin.Context) {
	changed, err := h.svc.Follow(c.Request.Context(), userIDFromCtx(c), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"isSuccess": changed})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"isSuccess": false})
	case errors.Is(err, service.ErrCannotFollowSelf), errors.Is(err, service.ErrTargetGone):
		c.JSON(http.StatusBadRequest, gin.H{"isSuccess": false})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"isSuccess": false})
	}
}

// Unfollow 取关，幂等
func (h *FollowHandler) Unfollow(c *gin.Context) {
	changed, err := h.svc.Unfollow(c.Request.Context(), userIDFromCtx(c), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"isSuccess": changed})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"isSuccess": false})
	case errors.Is(err, service.ErrCannotFollowSelf), errors.Is(err, service.ErrTargetGone):
		c.JSON(http.StatusBadRequest, gin.H{"isSuccess": false})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"isSuccess": false})
	}
}

// Followers 粉丝列表，按关注关系 id 升序翻页
func (h *FollowHandler) Followers(c *gin.Context) {
	cursor, limit := pageParams(c)
	profiles, next, err := h.svc.ListFollowers(c.Request.Context(), c.Param("id"), cursor, limit)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"results": profiles, "next_cursor": next})
	case errors.Is(err, service.ErrUserNotFound):
		c.Status(http.StatusNotFound)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
	}
}

func (h *FollowHandler) Following(c *gin.Context) {
	cursor, limit := pageParams(c)
	profiles, next, err := h.svc.ListFollowing(c.Request.Context(), c.Param("id"), cursor, limit)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"results": profiles, "next_cursor": next})
	case errors.Is(err, service.ErrUserNotFound):
		c.Status(http.StatusNotFound)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
	}
}

func pageParams(c *gin.Context) (uint64, int) {
	cursor, _ := strconv.ParseUint(c.Query("cursor"), 10, 64)
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	return cursor, limit
}
