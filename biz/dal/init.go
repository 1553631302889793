package dal

import (
	"portfolio-ledger/biz/dal/kafka"
	"portfolio-ledger/biz/dal/pg"
	"portfolio-ledger/biz/dal/redis"
)

func Init() {
	pg.Init()
	redis.Init()
	kafka.Init()
}

func Close() {
	kafka.CloseAllWriters()
	redis.Close()
	pg.Close()
}
