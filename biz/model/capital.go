package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserCapital is the per-user cash row. It is locked FOR UPDATE by every cash mutation.
type UserCapital struct {
	UserID         string          `gorm:"primaryKey;column:user_id;size:64" json:"user_id"`
	InitialCapital decimal.Decimal `gorm:"column:initial_capital;type:numeric(30,10);not null;default:0" json:"initial_capital"`
	CurrentCapital decimal.Decimal `gorm:"column:current_capital;type:numeric(30,10);not null;default:0" json:"current_capital"`
	CreatedAt      time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (UserCapital) TableName() string {
	return "user_capital"
}

// Initialized reports whether the row exists in the store.
func (c *UserCapital) Initialized() bool {
	return !c.CreatedAt.IsZero()
}
