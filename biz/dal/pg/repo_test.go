package pg

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"portfolio-ledger/biz/errno"
	"portfolio-ledger/biz/model"

	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, AutoMigrate(db))
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestInsertCapitalIfAbsent(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()

	created, err := InsertCapitalIfAbsent(db, "u1", dec("100"), now)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = InsertCapitalIfAbsent(db, "u1", dec("999"), now)
	require.NoError(t, err)
	assert.False(t, created, "second insert must not overwrite")

	c, err := GetCapital(db, "u1")
	require.NoError(t, err)
	assert.True(t, c.CurrentCapital.Equal(dec("100")))
	assert.True(t, c.InitialCapital.Equal(dec("100")))
	assert.True(t, c.Initialized())
}

func TestLockCapitalNotFound(t *testing.T) {
	db := setupTestDB(t)
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := LockCapital(tx, "nobody")
		return err
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateCapital(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()
	_, err := InsertCapitalIfAbsent(db, "u1", dec("100"), now)
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		c, err := LockCapital(tx, "u1")
		if err != nil {
			return err
		}
		c.CurrentCapital = c.CurrentCapital.Add(dec("50.5"))
		c.UpdatedAt = now.Add(time.Second)
		return UpdateCapital(tx, c)
	})
	require.NoError(t, err)

	c, err := GetCapital(db, "u1")
	require.NoError(t, err)
	assert.True(t, c.CurrentCapital.Equal(dec("150.5")), c.CurrentCapital.String())
	assert.True(t, c.InitialCapital.Equal(dec("100")))
}

func seedPosition(t *testing.T, db *gorm.DB, user, symbol, qty, avg, value string) *model.Position {
	now := time.Now().UTC()
	p := &model.Position{
		UserID:       user,
		Symbol:       symbol,
		AssetType:    model.AssetStock,
		Quantity:     dec(qty),
		AveragePrice: dec(avg),
		CurrentPrice: dec(avg),
		TotalValue:   dec(value),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, CreatePosition(db, p))
	return p
}

func TestListPositionsOrderedByValue(t *testing.T) {
	db := setupTestDB(t)
	seedPosition(t, db, "u1", "SBER", "10", "250", "2500")
	seedPosition(t, db, "u1", "GAZP", "1", "100", "100")
	seedPosition(t, db, "u1", "LKOH", "2", "5000", "10000")
	seedPosition(t, db, "u2", "SBER", "1", "250", "250")

	positions, err := ListPositions(db, "u1")
	require.NoError(t, err)
	require.Len(t, positions, 3)
	assert.Equal(t, "LKOH", positions[0].Symbol)
	assert.Equal(t, "SBER", positions[1].Symbol)
	assert.Equal(t, "GAZP", positions[2].Symbol)

	sum, err := SumPositionValue(db, "u1")
	require.NoError(t, err)
	assert.True(t, sum.Equal(dec("12600")), sum.String())

	sum, err = SumPositionValue(db, "nobody")
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}

func TestUniquePositionPerUserSymbol(t *testing.T) {
	db := setupTestDB(t)
	seedPosition(t, db, "u1", "SBER", "10", "250", "2500")
	dup := &model.Position{UserID: "u1", Symbol: "SBER", AssetType: model.AssetStock, Quantity: dec("1"), AveragePrice: dec("1")}
	assert.Error(t, CreatePosition(db, dup))
}

func TestLockSaveDeletePosition(t *testing.T) {
	db := setupTestDB(t)
	seeded := seedPosition(t, db, "u1", "SBER", "10", "250", "2500")

	p, err := LockPosition(db, "u1", "SBER")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, p.ID)

	p.Quantity = dec("4")
	p.Revalue(dec("300"))
	require.NoError(t, SavePosition(db, p))

	p, err = LockPosition(db, "u1", "SBER")
	require.NoError(t, err)
	assert.True(t, p.Quantity.Equal(dec("4")))
	assert.True(t, p.TotalValue.Equal(dec("1200")))
	assert.True(t, p.AveragePrice.Equal(dec("250")))

	require.NoError(t, DeletePosition(db, p.ID))
	_, err = LockPosition(db, "u1", "SBER")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRevalueSymbol(t *testing.T) {
	db := setupTestDB(t)
	seedPosition(t, db, "u1", "SBER", "10", "250", "2500")
	seedPosition(t, db, "u2", "SBER", "4", "300", "1200")
	seedPosition(t, db, "u1", "GAZP", "1", "100", "100")

	symbols, err := ListOpenSymbols(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"GAZP", "SBER"}, symbols)

	n, err := RevalueSymbol(db, "SBER", dec("275"), time.Now().UTC())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	p, err := LockPosition(db, "u1", "SBER")
	require.NoError(t, err)
	assert.True(t, p.CurrentPrice.Equal(dec("275")))
	assert.InDelta(t, 2750, p.TotalValue.InexactFloat64(), 1e-6)
	assert.InDelta(t, 250, p.ProfitLoss.InexactFloat64(), 1e-6)
	assert.InDelta(t, 10, p.ProfitLossPercent.InexactFloat64(), 1e-6)

	p, err = LockPosition(db, "u2", "SBER")
	require.NoError(t, err)
	assert.InDelta(t, -100, p.ProfitLoss.InexactFloat64(), 1e-6)
	assert.InDelta(t, -8.333333, p.ProfitLossPercent.InexactFloat64(), 1e-4)

	p, err = LockPosition(db, "u1", "GAZP")
	require.NoError(t, err)
	assert.True(t, p.TotalValue.Equal(dec("100")), "other symbols untouched")
}

func TestListTransactionsAndTrades(t *testing.T) {
	db := setupTestDB(t)
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	rows := []model.Transaction{
		{UserID: "u1", Symbol: model.CashSymbol, AssetType: model.AssetCurrency, Type: model.TxDeposit, Quantity: dec("1000"), Price: dec("1"), TotalAmount: dec("1000"), Status: model.TxStatusCompleted, Timestamp: base},
		{UserID: "u1", Symbol: "SBER", AssetType: model.AssetStock, Type: model.TxBuy, Quantity: dec("10"), Price: dec("250"), TotalAmount: dec("2500"), Status: model.TxStatusCompleted, Timestamp: base.Add(time.Minute)},
		{UserID: "u1", Symbol: "SBER", AssetType: model.AssetStock, Type: model.TxSell, Quantity: dec("5"), Price: dec("260"), TotalAmount: dec("1300"), Status: model.TxStatusCompleted, Timestamp: base.Add(2 * time.Minute)},
		{UserID: "u2", Symbol: "SBER", AssetType: model.AssetStock, Type: model.TxBuy, Quantity: dec("1"), Price: dec("250"), TotalAmount: dec("250"), Status: model.TxStatusCompleted, Timestamp: base},
	}
	for i := range rows {
		require.NoError(t, InsertTransaction(db, &rows[i]))
	}

	latest, err := ListTransactions(db, "u1", 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, model.TxSell, latest[0].Type)
	assert.Equal(t, model.TxBuy, latest[1].Type)

	trades, err := ListTrades(db, "u1")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, model.TxBuy, trades[0].Type)
	assert.Equal(t, model.TxSell, trades[1].Type)
	assert.True(t, trades[0].Timestamp.Equal(base.Add(time.Minute)))
}

func TestSetLockTimeoutNoopOnSQLite(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, SetLockTimeout(db, time.Second))
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, TranslateError(nil))

	plain := errors.New("boom")
	assert.Same(t, plain, TranslateError(plain))

	for _, code := range []string{"40001", "40P01", "55P03", "23505"} {
		err := TranslateError(fmt.Errorf("exec: %w", &pgconn.PgError{Code: code, Message: "x"}))
		assert.ErrorIs(t, err, errno.ErrTransactionConflict, code)
		var pgErr *pgconn.PgError
		assert.True(t, errors.As(err, &pgErr), "original error stays reachable")
	}

	assert.NotErrorIs(t, TranslateError(&pgconn.PgError{Code: "22003"}), errno.ErrTransactionConflict)
	assert.ErrorIs(t, TranslateError(gorm.ErrDuplicatedKey), errno.ErrTransactionConflict)

	assert.ErrorIs(t, TranslateError(&pgconn.PgError{Code: "22001"}), errno.ErrInvalidArgument)
	assert.ErrorIs(t, TranslateError(&pgconn.PgError{Code: "22003"}), errno.ErrInvalidAmount)
	assert.Equal(t, consts.StatusBadRequest, errno.HTTPStatus(TranslateError(&pgconn.PgError{Code: "22003"})))
}
