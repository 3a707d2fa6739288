package allocations

import (
	"context"
	"errors"
	"strings"
	"time"

	"stockfolio-backend/internal/domain"
	"stockfolio-backend/internal/pkg/apperr"
	"stockfolio-backend/internal/pkg/validation"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service stores target percentages per category.
type Service struct {
	DB *gorm.DB
}

// Summary totals the configured targets.
type Summary struct {
	Targets     []domain.AllocationTarget `json:"targets"`
	Total       float64                   `json:"total"`
	Unallocated float64                   `json:"unallocated"`
}

// Upsert overwrites the target for category or inserts it. The bool reports
// whether a new row was created.
func (s *Service) Upsert(ctx context.Context, category string, percentage float64) (*domain.AllocationTarget, bool, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, false, apperr.Validation("category is required")
	}
	if !validation.IsValidPercentage(percentage) {
		return nil, false, apperr.Validation("percentage must be greater than 0 and at most 100")
	}

	var (
		target  domain.AllocationTarget
		created bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("category = ?", category).First(&target).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
		case err != nil:
			return err
		}
		target = domain.AllocationTarget{Category: category, Percentage: percentage, UpdatedAt: time.Now().UTC()}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category"}},
			DoUpdates: clause.AssignmentColumns([]string{"percentage", "updated_at"}),
		}).Create(&target).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &target, created, nil
}

func (s *Service) Delete(ctx context.Context, category string) (*domain.AllocationTarget, error) {
	category = strings.TrimSpace(category)
	var target domain.AllocationTarget
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category = ?", category).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Allocation for category '%s' not found", category)
			}
			return err
		}
		return tx.Where("category = ?", category).Delete(&domain.AllocationTarget{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &target, nil
}

// List returns a page of targets ordered by category.
func (s *Service) List(ctx context.Context, skip, limit int) ([]domain.AllocationTarget, error) {
	skip, limit = validation.Page(skip, limit)
	var out []domain.AllocationTarget
	if err := s.DB.WithContext(ctx).Order("category ASC").Offset(skip).Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Summary reports the targets, their total and the remainder to 100.
// Unallocated goes negative when targets are over-allocated.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	var targets []domain.AllocationTarget
	if err := s.DB.WithContext(ctx).Order("category ASC").Find(&targets).Error; err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, t := range targets {
		total = total.Add(decimal.NewFromFloat(t.Percentage))
	}
	return &Summary{
		Targets:     targets,
		Total:       total.InexactFloat64(),
		Unallocated: decimal.NewFromInt(100).Sub(total).InexactFloat64(),
	}, nil
}
