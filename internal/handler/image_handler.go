package handler

import (
	"errors"
	"net/http"
	"strconv"

	"recordmusic/internal/service"

	"github.com/gin-gonic/gin"
)

// 头像文件大小上限 8MB
const maxImageSize = 8 << 20

type ImageHandler struct {
	svc *service.ProfileImageService
}

func NewImageHandler(svc *service.ProfileImageService) *ImageHandler {
	return &ImageHandler{svc: svc}
}

// Upload 上传头像，multipart 字段名 image，传完即设为当前头像
func (h *ImageHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "image file required"})
		return
	}
	if fh.Size > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "image too large"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "open upload failed"})
		return
	}
	defer f.Close()

	img, err := h.svc.Upload(c.Request.Context(), userIDFromCtx(c), c.Param("id"),
		f, fh.Size, fh.Header.Get("Content-Type"))
	if err != nil {
		imageError(c, err)
		return
	}
	c.JSON(http.StatusCreated, img)
}

// GetActive 当前头像的临时下载地址
func (h *ImageHandler) GetActive(c *gin.Context) {
	url, err := h.svc.ActiveURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		imageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile_image": url})
}

// SetActive 在历史头像里切换
func (h *ImageHandler) SetActive(c *gin.Context) {
	var req struct {
		ImageID uint64 `json:"image_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	if err := h.svc.SetActive(userIDFromCtx(c), c.Param("id"), req.ImageID); err != nil {
		imageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *ImageHandler) List(c *gin.Context) {
	list, err := h.svc.List(userIDFromCtx(c), c.Param("id"))
	if err != nil {
		imageError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Delete 删除一张头像，删的是当前头像时顺带清掉引用
func (h *ImageHandler) Delete(c *gin.Context) {
	imageID, err := strconv.ParseUint(c.Query("image_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid image_id"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userIDFromCtx(c), c.Param("id"), imageID); err != nil {
		imageError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func imageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.Status(http.StatusNotFound)
	case errors.Is(err, service.ErrNotOwner):
		c.Status(http.StatusUnauthorized)
	case errors.Is(err, service.ErrImageNotFound):
		c.Status(http.StatusNotFound)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
	}
}
