package handler

import (
	"errors"
	"net/http"
	"strconv"

	"recordmusic/internal/service"

	"github.com/gin-gonic/gin"
)

type MusicHandler struct {
	svc *service.MusicService
}

// CreateMusicReq yt_song_id 是去重键，同一首歌不重复入库
type CreateMusicReq struct {
	Artists    string `json:"artists" binding:"required"`
	Name       string `json:"name" binding:"required"`
	YtSongID   string `json:"yt_song_id" binding:"required"`
	CoverImage string `json:"cover_image"`
}

type UpdateMusicReq struct {
	Artists    *string `json:"artists"`
	Name       *string `json:"name"`
	YtSongID   *string `json:"yt_song_id"`
	CoverImage *string `json:"cover_image"`
}

func NewMusicHandler(svc *service.MusicService) *MusicHandler {
	return &MusicHandler{svc: svc}
}

func (h *MusicHandler) Create(c *gin.Context) {
	var req CreateMusicReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	music, err := h.svc.Create(req.Artists, req.Name, req.YtSongID, req.CoverImage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, music)
}

func (h *MusicHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	music, err := h.svc.Get(id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, music)
	case errors.Is(err, service.ErrMusicNotFound):
		c.Status(http.StatusNotFound)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
	}
}

func (h *MusicHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req UpdateMusicReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	music, err := h.svc.Update(id, service.UpdateMusicParams{
		Artists:    req.Artists,
		Name:       req.Name,
		YtSongID:   req.YtSongID,
		CoverImage: req.CoverImage,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, music)
	case errors.Is(err, service.ErrMusicNotFound):
		c.Status(http.StatusNotFound)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
	}
}

func (h *MusicHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	err := h.svc.Delete(id)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, service.ErrMusicNotFound):
		c.Status(http.StatusNotFound)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
	}
}

// Search 按歌名前缀找歌
func (h *MusicHandler) Search(c *gin.Context) {
	prefix := c.Query("name")
	if prefix == "" {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	list, err := h.svc.Search(prefix, 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func idParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid id"})
		return 0, false
	}
	return id, true
}
