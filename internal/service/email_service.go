package service

import (
	"fmt"

	"recordmusic/internal/model"
	"recordmusic/internal/pkg"
	"recordmusic/internal/repository/redis"
)

const (
	ScopeRegister = "register"
	ScopeReset    = "reset"
)

type EmailService struct {
	emailCfg       pkg.SMTPConfig
	activationBase string
	secret         []byte
	rds            *redis.EmailRepository
}

func NewEmailService(cfg pkg.SMTPConfig, activationBase string, secret []byte) *EmailService {
	return &EmailService{
		emailCfg:       cfg,
		activationBase: activationBase,
		secret:         secret,
		rds:            &redis.EmailRepository{},
	}
}

// SendCode 发送验证码：先写 pending 键，邮件发出去后转 confirmed，
// 发送失败时清掉 pending，避免校验到没人收到过的验证码
func (s *EmailService) SendCode(scope, email string) error {
	code, err := pkg.RandDigits(6)
	if err != nil {
		return err
	}
	if err = s.rds.PutPending(scope, email, code); err != nil {
		return err
	}

	subject := "注册验证码"
	action := "注册验证"
	if scope == ScopeReset {
		subject = "密码重置验证码"
		action = "重置密码"
	}
	html := pkg.EmailCodeHTML(action, code, redis.DefaultEmailCodeTTL)
	if err = pkg.SendEmail(s.emailCfg, email, subject, html); err != nil {
		return err
	}

	if err = s.rds.Confirm(scope, email); err != nil {
		_ = s.rds.DeletePending(scope, email)
		return err
	}
	return nil
}

// VerifyCode 校验验证码并一次性删除
func (s *EmailService) VerifyCode(scope, email, code string) (bool, error) {
	val, err := s.rds.GetConfirmed(scope, email)
	if err != nil {
		// 不存在或已过期
		return false, err
	}
	if val != code {
		return false, nil
	}
	if err = s.rds.DeleteConfirmed(scope, email); err != nil {
		return false, err
	}
	return true, nil
}

// SendActivationEmail 注册激活链接邮件，token 按天滚动过期
func (s *EmailService) SendActivationEmail(user *model.User) error {
	uidb64 := pkg.EncodeUID(user.ID)
	token := pkg.MakeActivationToken(user.ID, user.Password, user.IsActive, s.secret)
	link := fmt.Sprintf("%s/%s/%s", s.activationBase, uidb64, token)
	return pkg.SendEmail(s.emailCfg, user.Email, "[RecordMusic] 账号验证", pkg.ActivationHTML(link))
}

// CheckActivation 校验激活链接里的 token
func (s *EmailService) CheckActivation(user *model.User, token string) error {
	return pkg.CheckActivationToken(token, user.ID, user.Password, user.IsActive, s.secret)
}
