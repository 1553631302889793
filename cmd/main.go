package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"portfolio-ledger/biz/dal"
	"portfolio-ledger/biz/dal/kafka"
	"portfolio-ledger/biz/dal/market"
	"portfolio-ledger/biz/dal/pg"
	"portfolio-ledger/biz/dal/redis"
	"portfolio-ledger/biz/handler"
	"portfolio-ledger/biz/router"
	"portfolio-ledger/biz/service"
	"portfolio-ledger/biz/util"
	"portfolio-ledger/conf"

	"github.com/cloudwego/hertz/pkg/app/middlewares/server/recovery"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/hertz-contrib/cors"
	"github.com/hertz-contrib/gzip"
	"github.com/hertz-contrib/logger/accesslog"
	"github.com/hertz-contrib/pprof"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	_ = godotenv.Load()
	cfg := conf.GetConf()

	h := server.New(server.WithHostPorts(cfg.Hertz.Address))
	registerMiddleware(h, cfg)

	dal.Init()

	var shutdown []func()

	var publisher service.EventPublisher = service.NopPublisher{}
	if topic := cfg.EventsTopic(); topic != "" {
		p := kafka.NewPublisher(kafka.GetWriter(topic), cfg.Ledger.EventQueueSize)
		publisher = p
		shutdown = append(shutdown, p.Close)
		hlog.Infof("ledger events go to kafka topic %s", topic)
	}

	var oracle service.PriceOracle
	if cfg.Market.BaseURL != "" {
		mc, err := market.NewClient(cfg.Market.BaseURL, cfg.Market.Timeout)
		if err != nil {
			panic(fmt.Sprintf("failed to build market client: %v", err))
		}
		oracle = mc
		if redis.Client != nil {
			oracle = service.NewCachedOracle(mc, redis.NewQuoteCache(redis.Client), cfg.Ledger.PriceCacheTTL)
		}
	}

	opts := []service.Option{
		service.WithPublisher(publisher),
		service.WithLockTimeout(cfg.Postgres.LockTimeout),
		service.WithCommissionRate(decimal.NewFromFloat(cfg.Ledger.CommissionRate)),
	}
	db := pg.GormDB
	txLog := service.NewTransactionLog(db, cfg.Ledger.DefaultTxLimit, cfg.Ledger.MaxTxLimit)
	cash := service.NewCashLedger(db, txLog, opts...)
	book := service.NewPositionBook(db, txLog, opts...)
	summaryOpts := opts
	if oracle != nil {
		summaryOpts = append(summaryOpts, service.WithPriceOracle(oracle))
	}
	ledgerHandler := &handler.LedgerHandler{
		Cash:      cash,
		Positions: book,
		Summary:   service.NewSummaryCalculator(cash, book, txLog, summaryOpts...),
		TxLog:     txLog,
		Ping:      pg.Ping,
	}

	taskCtx, stopTask := context.WithCancel(context.Background())
	var consul *service.ConsulHelper
	if len(cfg.Registry.RegistryAddress) > 0 {
		c, err := service.NewConsulHelperWithAddrs(cfg.Registry.RegistryAddress)
		if err != nil {
			hlog.Warnf("consul unavailable, running unregistered: %v", err)
		} else {
			consul = c
		}
	}

	if oracle != nil {
		refresher, err := service.NewPriceRefresher(db, oracle, cfg.Ledger.PriceWorkers, cfg.Ledger.PriceBatchSize)
		if err != nil {
			panic(fmt.Sprintf("failed to build price refresher: %v", err))
		}
		ledgerHandler.Refresher = refresher
		var locker service.Locker
		if consul != nil {
			locker = consul
		}
		service.StartPriceRefreshTask(taskCtx, refresher, locker, cfg.Ledger.RefreshLockKey, cfg.Ledger.PriceRefreshInterval)
		shutdown = append(shutdown, refresher.Release)
	}
	shutdown = append(shutdown, stopTask)

	router.Register(h, ledgerHandler)

	if consul != nil {
		serviceID, host, port := serviceIdentity(cfg)
		if err := consul.Register(serviceID, cfg.Hertz.Service, host, port); err != nil {
			hlog.Warnf("consul register %s failed: %v", serviceID, err)
		} else {
			shutdown = append(shutdown, func() {
				if err := consul.Deregister(serviceID); err != nil {
					hlog.Warnf("consul deregister %s failed: %v", serviceID, err)
				}
			})
		}
	}

	// hertz runs shutdown hooks concurrently, the ledger teardown has to stay ordered
	h.OnShutdown = append(h.OnShutdown, func(ctx context.Context) {
		for i := len(shutdown) - 1; i >= 0; i-- {
			shutdown[i]()
		}
		dal.Close()
	})

	h.Spin()
}

func serviceIdentity(cfg *conf.Config) (string, string, int) {
	host, portStr, err := net.SplitHostPort(cfg.Hertz.Address)
	if err != nil {
		panic(fmt.Sprintf("bad hertz address %q: %v", cfg.Hertz.Address, err))
	}
	port, _ := strconv.Atoi(portStr)
	if host == "" || host == "0.0.0.0" {
		host = util.GetLocalIP()
	}
	name, _ := os.Hostname()
	return fmt.Sprintf("%s-%s-%d", cfg.Hertz.Service, name, port), host, port
}

func registerMiddleware(h *server.Hertz, cfg *conf.Config) {
	// log
	hlog.SetLevel(conf.LogLevel())
	if cfg.Hertz.LogFileName != "" {
		asyncWriter := &zapcore.BufferedWriteSyncer{
			WS: zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.Hertz.LogFileName,
				MaxSize:    cfg.Hertz.LogMaxSize,
				MaxBackups: cfg.Hertz.LogMaxBackups,
				MaxAge:     cfg.Hertz.LogMaxAge,
			}),
			FlushInterval: time.Minute,
		}
		hlog.SetOutput(asyncWriter)
		h.OnShutdown = append(h.OnShutdown, func(ctx context.Context) {
			_ = asyncWriter.Sync()
		})
	}

	// pprof
	if cfg.Hertz.EnablePprof {
		pprof.Register(h)
	}

	// gzip
	if cfg.Hertz.EnableGzip {
		h.Use(gzip.Gzip(gzip.DefaultCompression))
	}

	// access log
	if cfg.Hertz.EnableAccessLog {
		h.Use(accesslog.New())
	}

	// recovery
	h.Use(recovery.Recovery())

	// cors
	h.Use(cors.Default())
}
