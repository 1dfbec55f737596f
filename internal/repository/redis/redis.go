package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// 会话 token 和邮箱验证码都是短 key 小 value，超时收紧一点
const (
	dialTimeout = 5 * time.Second
	opTimeout   = 2 * time.Second
)

var Client *redis.Client

// Init 建立 Redis 连接，Ping 不通直接报错让进程启动失败。
func Init(addr, password string, db int) error {
	Client = redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  dialTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return Client.Ping(ctx).Err()
}

// Close 进程退出时释放连接池。
func Close() error {
	if Client == nil {
		return nil
	}
	return Client.Close()
}
