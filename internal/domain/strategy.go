package domain

import "time"

// Strategy is an investment-thesis label. The hierarchy is at most two
// levels deep: a strategy with a parent never has children of its own.
type Strategy struct {
	ID          uint      `gorm:"column:id;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Description *string   `gorm:"column:description" json:"description"`
	ParentID    *uint     `gorm:"column:parent_id;index" json:"parent_id"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Strategy) TableName() string {
	return "strategies"
}

// IsRoot reports whether the strategy has no parent.
func (s *Strategy) IsRoot() bool {
	return s.ParentID == nil
}
