package handler

import (
	"net/http"

	"recordmusic/internal/service"

	"github.com/gin-gonic/gin"
)

type EmailHandler struct {
	svc *service.EmailService
}

type SendCodeReq struct {
	Email string `json:"email" binding:"required,email"`
}

func NewEmailHandler(svc *service.EmailService) *EmailHandler {
	return &EmailHandler{svc: svc}
}

// SendCode 发验证码邮件。scope 区分注册和找回密码，两边的码互不通用。
func (h *EmailHandler) SendCode(c *gin.Context) {
	scope := c.Param("scope")
	if scope != service.ScopeRegister && scope != service.ScopeReset {
		c.JSON(http.StatusNotFound, gin.H{"msg": "unknown scope"})
		return
	}

	var req SendCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	if err := h.svc.SendCode(scope, req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "send email failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "email sent"})
}
