package pg

import (
	"context"
	"fmt"
	"time"

	"portfolio-ledger/biz/model"
	"portfolio-ledger/conf"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var PostgresClient *pgxpool.Pool
var GormDB *gorm.DB

func Init() {
	pgConf := conf.GetConf().Postgres
	pool, err := NewPool(context.Background(), pgConf)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to postgres: %v", err))
	}
	PostgresClient = pool

	if err := InitGorm(pool); err != nil {
		panic(fmt.Sprintf("failed to init gorm: %v", err))
	}
	if err := AutoMigrate(GormDB); err != nil {
		panic(fmt.Sprintf("failed to auto migrate: %v", err))
	}
	hlog.Infof("postgres ready, max_conns=%d", pool.Config().MaxConns)
}

// NewPool opens and pings a pgx pool.
func NewPool(ctx context.Context, c conf.Postgres) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, err
	}
	if c.MaxOpenConns > 0 {
		cfg.MaxConns = c.MaxOpenConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// InitGorm builds GormDB on top of the pgx pool so both share one set of connections.
func InitGorm(pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return err
	}
	GormDB = db
	return nil
}

func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return gorm.ErrInvalidDB
	}
	return db.AutoMigrate(&model.UserCapital{}, &model.Position{}, &model.Transaction{})
}

func GetPool() *pgxpool.Pool {
	if PostgresClient == nil {
		panic("PostgresClient is not initialized, call pg.Init() first")
	}
	return PostgresClient
}

// Ping checks the pool, used by the health endpoint.
func Ping(ctx context.Context) error {
	if PostgresClient == nil {
		return fmt.Errorf("postgres not initialized")
	}
	return PostgresClient.Ping(ctx)
}

func Close() {
	if PostgresClient != nil {
		PostgresClient.Close()
	}
}

// SetLockTimeout bounds how long the surrounding transaction waits on row locks.
// SQLite has no row locks, so it is a no-op there.
func SetLockTimeout(tx *gorm.DB, d time.Duration) error {
	if d <= 0 || tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = %d", d.Milliseconds())).Error
}
