package pkg

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrActivationExpired = errors.New("activation token expired")
	ErrActivationInvalid = errors.New("activation token invalid")
)

// ActivationWindowDays 激活链接有效天数，按天粒度滚动
const ActivationWindowDays = 3

// EncodeUID 把用户主键编码进激活链接
func EncodeUID(userPK uint64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(userPK, 10)))
}

// DecodeUID 从激活链接还原用户主键
func DecodeUID(uidb64 string) (uint64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uidb64)
	if err != nil {
		return 0, ErrActivationInvalid
	}
	pk, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, ErrActivationInvalid
	}
	return pk, nil
}

// MakeActivationToken 生成一次性激活 token。
// 摘要里掺入密码哈希，激活后密码状态变化会让旧链接自然失效。
func MakeActivationToken(userPK uint64, passwordHash string, isActive bool, secret []byte) string {
	days := time.Now().Unix() / 86400
	return makeTokenForDay(userPK, passwordHash, isActive, secret, days)
}

// CheckActivationToken 校验激活 token 是否属于该用户且仍在有效期内
func CheckActivationToken(token string, userPK uint64, passwordHash string, isActive bool, secret []byte) error {
	i := strings.IndexByte(token, '-')
	if i <= 0 {
		return ErrActivationInvalid
	}
	days, err := strconv.ParseInt(token[:i], 36, 64)
	if err != nil {
		return ErrActivationInvalid
	}
	want := makeTokenForDay(userPK, passwordHash, isActive, secret, days)
	if !hmac.Equal([]byte(token), []byte(want)) {
		return ErrActivationInvalid
	}
	now := time.Now().Unix() / 86400
	if now-days > ActivationWindowDays {
		return ErrActivationExpired
	}
	return nil
}

func makeTokenForDay(userPK uint64, passwordHash string, isActive bool, secret []byte, days int64) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d:%s:%t:%d", userPK, passwordHash, isActive, days)
	sig := hex.EncodeToString(mac.Sum(nil))[:32]
	return strconv.FormatInt(days, 36) + "-" + sig
}
