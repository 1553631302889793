package pg

import (
	"portfolio-ledger/biz/model"

	"gorm.io/gorm"
)

func InsertTransaction(tx *gorm.DB, t *model.Transaction) error {
	return tx.Create(t).Error
}

// ListTransactions returns a user's newest transactions first.
func ListTransactions(db *gorm.DB, userID string, limit int) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := db.Where("user_id = ?", userID).
		Order("timestamp desc").
		Order("id desc").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

// ListTrades returns a user's buy and sell rows in ledger order.
func ListTrades(db *gorm.DB, userID string) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := db.Where("user_id = ? AND transaction_type IN ?", userID, []string{string(model.TxBuy), string(model.TxSell)}).
		Order("timestamp asc").
		Order("id asc").
		Find(&txs).Error
	return txs, err
}
