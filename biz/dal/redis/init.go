package redis

import (
	"context"

	"portfolio-ledger/conf"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

// Init connects to Redis, an empty address leaves Client nil and the quote cache off.
func Init() {
	c := conf.GetConf().Redis
	if c.Address == "" {
		hlog.Infof("redis address not configured, quote cache disabled")
		return
	}
	Client = redis.NewClient(&redis.Options{
		Addr:     c.Address,
		Username: c.Username,
		Password: c.Password,
		DB:       c.DB,
	})
	if err := Client.Ping(context.Background()).Err(); err != nil {
		panic(err)
	}
}

func Close() {
	if Client != nil {
		_ = Client.Close()
	}
}
