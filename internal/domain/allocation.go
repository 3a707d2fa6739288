package domain

import "time"

// AllocationTarget is the desired share of portfolio value for a category.
type AllocationTarget struct {
	Category   string    `gorm:"column:category;primaryKey" json:"category"`
	Percentage float64   `gorm:"column:percentage;not null" json:"percentage"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (AllocationTarget) TableName() string {
	return "allocations"
}
