package handler

import (
	"errors"
	"net/http"
	"strconv"

	"recordmusic/internal/model"
	"recordmusic/internal/repository/mongo"
	"recordmusic/internal/service"

	"github.com/gin-gonic/gin"
)

type MusicMapHandler struct {
	svc *service.MusicMapService
}

type mapTrackReq struct {
	Artists  string `json:"artists" binding:"required"`
	Name     string `json:"name" binding:"required"`
	YtSongID string `json:"yt_song_id" binding:"required"`
}

// MusicMapReq 建图和改图共用请求体
type MusicMapReq struct {
	Content        string        `json:"content"`
	OpenRange      int           `json:"open_range" binding:"oneof=0 1 2 4"`
	CommentsOn     bool          `json:"comments_on"`
	Images         []string      `json:"images"`
	Playlist       []mapTrackReq `json:"playlist"`
	Lon            float64       `json:"lon" binding:"min=-180,max=180"`
	Lat            float64       `json:"lat" binding:"min=-90,max=90"`
	StreetAddress  string        `json:"street_address"`
	BuildingNumber string        `json:"building_number"`
}

type CommentReq struct {
	Content string `json:"content" binding:"required"`
}

func NewMusicMapHandler(svc *service.MusicMapService) *MusicMapHandler {
	return &MusicMapHandler{svc: svc}
}

func (h *MusicMapHandler) Create(c *gin.Context) {
	var req MusicMapReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	m, err := h.svc.Create(c.Request.Context(), userIDFromCtx(c), mapParams(req))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, mapView(m))
}

func (h *MusicMapHandler) Get(c *gin.Context) {
	m, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapView(m))
}

func (h *MusicMapHandler) Update(c *gin.Context) {
	var req MusicMapReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	m, err := h.svc.Update(c.Request.Context(), userIDFromCtx(c), c.Param("id"), mapParams(req))
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapView(m))
}

func (h *MusicMapHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), userIDFromCtx(c), c.Param("id")); err != nil {
		mapError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Geo 找附近的音乐地图，半径单位米，缺省 1000
func (h *MusicMapHandler) Geo(c *gin.Context) {
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	if errLon != nil || errLat != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid coordinates"})
		return
	}
	meters, _ := strconv.ParseFloat(c.Query("distance"), 64)

	list, err := h.svc.Geo(c.Request.Context(), lon, lat, meters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
		return
	}
	if len(list) == 0 {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, mapViews(list))
}

// Search kind 取 location / music，留空就两边都搜
func (h *MusicMapHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	list, err := h.svc.Search(c.Request.Context(), c.Query("kind"), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
		return
	}
	if len(list) == 0 {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, mapViews(list))
}

func (h *MusicMapHandler) AddComment(c *gin.Context) {
	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	if err := h.svc.AddComment(c.Request.Context(), userIDFromCtx(c), c.Param("id"), req.Content); err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"msg": "ok"})
}

func (h *MusicMapHandler) UpdateComment(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid index"})
		return
	}

	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	if err := h.svc.UpdateComment(c.Request.Context(), userIDFromCtx(c), c.Param("id"), index, req.Content); err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *MusicMapHandler) DeleteComment(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid index"})
		return
	}

	if err := h.svc.DeleteComment(c.Request.Context(), userIDFromCtx(c), c.Param("id"), index); err != nil {
		mapError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Memorize 收藏。isSuccess 为 false 表示早就收藏过了。
func (h *MusicMapHandler) Memorize(c *gin.Context) {
	changed, err := h.svc.Memorize(c.Request.Context(), userIDFromCtx(c), c.Param("id"))
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isSuccess": changed})
}

func (h *MusicMapHandler) Unmemorize(c *gin.Context) {
	changed, err := h.svc.Unmemorize(c.Request.Context(), userIDFromCtx(c), c.Param("id"))
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isSuccess": changed})
}

func mapParams(req MusicMapReq) service.MusicMapParams {
	tracks := make([]model.MapTrack, 0, len(req.Playlist))
	for _, t := range req.Playlist {
		tracks = append(tracks, model.MapTrack{Artists: t.Artists, Name: t.Name, YtSongID: t.YtSongID})
	}
	return service.MusicMapParams{
		Content:        req.Content,
		OpenRange:      req.OpenRange,
		CommentsOn:     req.CommentsOn,
		Images:         req.Images,
		Playlist:       tracks,
		Lon:            req.Lon,
		Lat:            req.Lat,
		StreetAddress:  req.StreetAddress,
		BuildingNumber: req.BuildingNumber,
	}
}

// mapView 输出时带上收藏数和评论数
func mapView(m *model.MusicMap) gin.H {
	return gin.H{
		"music_map":      m,
		"memorize_count": m.MemorizeCount(),
		"comments_count": m.CommentsCount(),
	}
}

func mapViews(list []model.MusicMap) []gin.H {
	out := make([]gin.H, 0, len(list))
	for i := range list {
		out = append(out, mapView(&list[i]))
	}
	return out
}

func mapError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, mongo.ErrNotFound):
		c.Status(http.StatusNotFound)
	case errors.Is(err, service.ErrNotAuthor):
		c.Status(http.StatusForbidden)
	case errors.Is(err, service.ErrCommentsOff), errors.Is(err, service.ErrBadComment):
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
	}
}
