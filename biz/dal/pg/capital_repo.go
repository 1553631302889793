package pg

import (
	"time"

	"portfolio-ledger/biz/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetCapital reads a capital row without locking. Returns gorm.ErrRecordNotFound when absent.
func GetCapital(db *gorm.DB, userID string) (*model.UserCapital, error) {
	var c model.UserCapital
	if err := db.Where("user_id = ?", userID).Take(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// LockCapital reads a capital row FOR UPDATE, the lock is held until the transaction ends.
func LockCapital(tx *gorm.DB, userID string) (*model.UserCapital, error) {
	var c model.UserCapital
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Take(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertCapitalIfAbsent creates the row with initial = current = amount.
// A concurrent insert for the same user blocks on the primary key and then does nothing, so exactly one
// caller sees created == true.
func InsertCapitalIfAbsent(tx *gorm.DB, userID string, amount decimal.Decimal, now time.Time) (bool, error) {
	c := &model.UserCapital{
		UserID:         userID,
		InitialCapital: amount,
		CurrentCapital: amount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(c)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateCapital writes both amounts of a locked row.
func UpdateCapital(tx *gorm.DB, c *model.UserCapital) error {
	return tx.Model(&model.UserCapital{}).
		Where("user_id = ?", c.UserID).
		Updates(map[string]interface{}{
			"initial_capital": c.InitialCapital,
			"current_capital": c.CurrentCapital,
			"updated_at":      c.UpdatedAt,
		}).Error
}
