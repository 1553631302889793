package pg

import (
	"time"

	"portfolio-ledger/biz/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListPositions returns a user's open positions, largest total value first.
func ListPositions(db *gorm.DB, userID string) ([]model.Position, error) {
	var positions []model.Position
	err := db.Where("user_id = ?", userID).
		Order("total_value desc").
		Order("id asc").
		Find(&positions).Error
	return positions, err
}

// LockPosition reads one position FOR UPDATE. Returns gorm.ErrRecordNotFound when absent.
func LockPosition(tx *gorm.DB, userID, symbol string) (*model.Position, error) {
	var p model.Position
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND symbol = ?", userID, symbol).
		Take(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func CreatePosition(tx *gorm.DB, p *model.Position) error {
	return tx.Create(p).Error
}

// SavePosition writes quantity, cost basis and valuation fields of an existing row.
func SavePosition(tx *gorm.DB, p *model.Position) error {
	return tx.Model(&model.Position{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"quantity":            p.Quantity,
			"average_price":       p.AveragePrice,
			"current_price":       p.CurrentPrice,
			"total_value":         p.TotalValue,
			"profit_loss":         p.ProfitLoss,
			"profit_loss_percent": p.ProfitLossPercent,
			"updated_at":          p.UpdatedAt,
		}).Error
}

func DeletePosition(tx *gorm.DB, id uint64) error {
	return tx.Delete(&model.Position{}, id).Error
}

// SumPositionValue returns the sum of total_value over a user's positions.
func SumPositionValue(db *gorm.DB, userID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := db.Model(&model.Position{}).
		Select("COALESCE(SUM(total_value), 0)").
		Where("user_id = ?", userID).
		Row().
		Scan(&sum)
	return sum, err
}

// ListOpenSymbols returns every symbol held by any user.
func ListOpenSymbols(db *gorm.DB) ([]string, error) {
	var symbols []string
	err := db.Model(&model.Position{}).
		Distinct().
		Where("quantity > 0").
		Order("symbol").
		Pluck("symbol", &symbols).Error
	return symbols, err
}

// RevalueSymbol refreshes the valuation fields of every position in symbol against price.
// Quantity and average_price are read from the row itself, so a racing trade never gets overwritten.
func RevalueSymbol(db *gorm.DB, symbol string, price decimal.Decimal, now time.Time) (int64, error) {
	res := db.Model(&model.Position{}).
		Where("symbol = ? AND quantity > 0", symbol).
		Updates(map[string]interface{}{
			"current_price": price,
			"total_value":   gorm.Expr("quantity * ?", price),
			"profit_loss":   gorm.Expr("quantity * ? - quantity * average_price", price),
			"profit_loss_percent": gorm.Expr(
				"CASE WHEN quantity * average_price > 0 THEN (quantity * ? - quantity * average_price) * 100.0 / (quantity * average_price) ELSE 0 END",
				price,
			),
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}
