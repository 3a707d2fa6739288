package domain

import (
	"time"

	"stockfolio-backend/internal/pkg/constants"

	"gorm.io/gorm"
)

// Holding is one tracked position per ticker.
type Holding struct {
	ID               uint       `gorm:"column:id;primaryKey" json:"id"`
	Ticker           string     `gorm:"column:ticker;type:varchar(32);uniqueIndex;not null" json:"ticker"`
	Name             *string    `gorm:"column:name" json:"name"`
	Quantity         int64      `gorm:"column:quantity;not null;default:0" json:"quantity"`
	AcquisitionPrice float64    `gorm:"column:acquisition_price;not null;default:0" json:"acquisition_price"`
	Category         string     `gorm:"column:category;not null;default:'uncategorized'" json:"category"`
	Strategies       []Strategy `gorm:"many2many:holding_strategies;constraint:OnDelete:CASCADE" json:"strategies"`
	CreatedAt        time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Holding) TableName() string {
	return "holdings"
}

// BeforeCreate fills the default category for rows created outside the ledger.
func (h *Holding) BeforeCreate(tx *gorm.DB) error {
	if h.Category == "" {
		h.Category = constants.DefaultCategory
	}
	return nil
}

// StrategyIDs returns the ids of the attached strategies.
func (h *Holding) StrategyIDs() []uint {
	ids := make([]uint, 0, len(h.Strategies))
	for _, s := range h.Strategies {
		ids = append(ids, s.ID)
	}
	return ids
}
