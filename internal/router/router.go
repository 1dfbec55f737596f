package router

import (
	"recordmusic/internal/handler"
	"recordmusic/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers 路由用到的全部处理器，main 里组装好传进来
type Handlers struct {
	User     *handler.UserHandler
	Follow   *handler.FollowHandler
	Email    *handler.EmailHandler
	Social   *handler.SocialHandler
	Music    *handler.MusicHandler
	MusicMap *handler.MusicMapHandler
	Image    *handler.ImageHandler
}

func InitRouter(h Handlers) *gin.Engine {
	r := gin.Default()

	// 邮件相关接口
	emailGroup := r.Group("/api/email")
	{
		emailGroup.POST("/:scope/code", h.Email.SendCode)
	}

	// 用户相关接口，注册登录不用登录态
	userGroup := r.Group("/api/user")
	{
		userGroup.POST("/register", h.User.Register)
		userGroup.GET("/register/activate/:uidb64/:token", h.User.Activate)
		userGroup.POST("/activate", h.User.ActivateByCode)
		userGroup.POST("/login", h.User.Login)
		userGroup.POST("/verify", h.User.Verify)
		userGroup.POST("/reset", h.User.ResetPassword)
	}

	// 用户登录态接口
	userAuthGroup := r.Group("/api/user")
	userAuthGroup.Use(middleware.AuthMiddleware())
	{
		userAuthGroup.POST("/logout", h.User.Logout)
		userAuthGroup.GET("/explore", h.User.Explore)
		userAuthGroup.GET("/search/:id", h.User.Search)

		userAuthGroup.GET("/:id/profile", h.User.GetProfile)
		userAuthGroup.PUT("/:id/profile", h.User.UpdateProfile)
		userAuthGroup.DELETE("/:id/profile", h.User.DeleteProfile)

		userAuthGroup.GET("/:id/profileimage", h.Image.GetActive)
		userAuthGroup.POST("/:id/profileimage", h.Image.Upload)
		userAuthGroup.PUT("/:id/profileimage", h.Image.SetActive)
		userAuthGroup.DELETE("/:id/profileimage", h.Image.Delete)
		userAuthGroup.GET("/:id/profileimage/list", h.Image.List)

		userAuthGroup.POST("/:id/follow", h.Follow.Follow)
		userAuthGroup.PUT("/:id/unfollow", h.Follow.Unfollow)
		userAuthGroup.GET("/:id/followers", h.Follow.Followers)
		userAuthGroup.GET("/:id/following", h.Follow.Following)
	}

	// token相关接口
	tokenGroup := r.Group("/api/token")
	{
		tokenGroup.POST("/refresh", h.User.TokenRefresh)
	}

	// 登录态接口
	authGroup := r.Group("/api/auth")
	authGroup.Use(middleware.AuthMiddleware())
	{
		authGroup.POST("/change-password", h.User.ChangePassword)
	}

	// 第三方登录
	oauthGroup := r.Group("/api/oauth")
	{
		oauthGroup.GET("/:provider", h.Social.Redirect)
		oauthGroup.GET("/:provider/redirect", h.Social.Callback)
	}

	// 音乐库
	musicGroup := r.Group("/api/music")
	musicGroup.Use(middleware.AuthMiddleware())
	{
		musicGroup.POST("", h.Music.Create)
		musicGroup.GET("/search", h.Music.Search)
		musicGroup.GET("/:id", h.Music.Get)
		musicGroup.PUT("/:id", h.Music.Update)
		musicGroup.DELETE("/:id", h.Music.Delete)
	}

	// 音乐地图
	mapGroup := r.Group("/api/musicmaps")
	mapGroup.Use(middleware.AuthMiddleware())
	{
		mapGroup.POST("", h.MusicMap.Create)
		mapGroup.GET("/geo", h.MusicMap.Geo)
		mapGroup.GET("/search", h.MusicMap.Search)
		mapGroup.GET("/:id", h.MusicMap.Get)
		mapGroup.PUT("/:id", h.MusicMap.Update)
		mapGroup.DELETE("/:id", h.MusicMap.Delete)
		mapGroup.POST("/:id/comments", h.MusicMap.AddComment)
		mapGroup.PUT("/:id/comments/:index", h.MusicMap.UpdateComment)
		mapGroup.DELETE("/:id/comments/:index", h.MusicMap.DeleteComment)
		mapGroup.POST("/:id/memorize", h.MusicMap.Memorize)
		mapGroup.POST("/:id/unmemorize", h.MusicMap.Unmemorize)
	}

	return r
}
