package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"recordmusic/internal/config"
	"recordmusic/internal/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	googleUserInfoURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
	facebookUserInfoURL = "https://graph.facebook.com/me?fields=id,name,email"
)

type SocialHandler struct {
	svc     *service.UserService
	configs map[string]*oauth2.Config
}

func NewSocialHandler(svc *service.UserService, cfg *config.Config) *SocialHandler {
	return &SocialHandler{
		svc: svc,
		configs: map[string]*oauth2.Config{
			"google": {
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     endpoints.Google,
				RedirectURL:  cfg.OAuthRedirectBase + "/api/oauth/google/redirect",
				Scopes:       []string{"openid", "email", "profile"},
			},
			"facebook": {
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				Endpoint:     endpoints.Facebook,
				RedirectURL:  cfg.OAuthRedirectBase + "/api/oauth/facebook/redirect",
				Scopes:       []string{"email", "public_profile"},
			},
		},
	}
}

// Redirect 跳到第三方授权页
func (h *SocialHandler) Redirect(c *gin.Context) {
	conf, ok := h.configs[c.Param("provider")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"msg": "unknown provider"})
		return
	}
	c.Redirect(http.StatusFound, conf.AuthCodeURL(c.Query("state")))
}

// Callback 授权码换 token，拉用户信息后登录或建号。
// 第三方没给邮箱时无法建号，直接拒绝。
func (h *SocialHandler) Callback(c *gin.Context) {
	provider := c.Param("provider")
	conf, ok := h.configs[provider]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"msg": "unknown provider"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "code required"})
		return
	}

	token, err := conf.Exchange(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "oauth exchange failed"})
		return
	}

	email, name, err := fetchIdentity(c.Request.Context(), conf, token, provider)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"msg": "fetch userinfo failed"})
		return
	}

	pair, profile, created, err := h.svc.SocialLogin(email, name)
	switch {
	case err == nil:
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		c.JSON(status, gin.H{
			"AccessToken":  pair.AccessToken,
			"RefreshToken": pair.RefreshToken,
			"user":         userSummary(profile),
		})
	case errors.Is(err, service.ErrSocialNoEmail):
		c.JSON(http.StatusForbidden, gin.H{"detail": "Email is not provided by the provider."})
	case errors.Is(err, service.ErrWithdrawn):
		c.JSON(http.StatusForbidden, gin.H{"detail": "This account has been withdrawn."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
	}
}

func fetchIdentity(ctx context.Context, conf *oauth2.Config, token *oauth2.Token, provider string) (email, name string, err error) {
	url := googleUserInfoURL
	if provider == "facebook" {
		url = facebookUserInfoURL
	}

	resp, err := conf.Client(ctx, token).Get(url)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", "", err
	}

	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return "", "", err
	}
	return info.Email, info.Name, nil
}
