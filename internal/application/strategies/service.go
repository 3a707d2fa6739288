package strategies

import (
	"context"
	"errors"
	"sort"
	"strings"

	"stockfolio-backend/internal/domain"
	"stockfolio-backend/internal/pkg/apperr"
	"stockfolio-backend/internal/pkg/validation"

	"gorm.io/gorm"
)

// Service manages the two-level strategy hierarchy.
type Service struct {
	DB *gorm.DB
}

// Input is the full set of writable strategy fields.
type Input struct {
	Name        string
	Description *string
	ParentID    *uint
}

// ListFilter narrows List results. Zero value lists every strategy.
type ListFilter struct {
	RootsOnly bool
	ParentID  *uint
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.Strategy, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}

	var created *domain.Strategy
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNameFree(tx, name, 0); err != nil {
			return err
		}
		if err := validateParent(tx, 0, in.ParentID); err != nil {
			return err
		}
		created = &domain.Strategy{Name: name, Description: in.Description, ParentID: in.ParentID}
		return tx.Create(created).Error
	})
	if err != nil {
		return nil, translate(err, name)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*domain.Strategy, error) {
	return find(s.DB.WithContext(ctx), id)
}

// Update overwrites name, description and parent, re-checking the depth
// invariant against the new parent.
func (s *Service) Update(ctx context.Context, id uint, in Input) (*domain.Strategy, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}

	var updated *domain.Strategy
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := find(tx, id)
		if err != nil {
			return err
		}
		if err := ensureNameFree(tx, name, id); err != nil {
			return err
		}
		if err := validateParent(tx, id, in.ParentID); err != nil {
			return err
		}
		if err := tx.Model(st).Updates(map[string]interface{}{
			"name":        name,
			"description": in.Description,
			"parent_id":   in.ParentID,
		}).Error; err != nil {
			return err
		}
		updated, err = find(tx, id)
		return err
	})
	if err != nil {
		return nil, translate(err, name)
	}
	return updated, nil
}

// ValidateSelection rejects a selection that contains a child strategy
// without its parent. Ids that do not resolve are ignored.
func (s *Service) ValidateSelection(ctx context.Context, ids []uint) error {
	return ValidateSelection(s.DB.WithContext(ctx), ids)
}

// ValidateSelection is the transaction-friendly form of Service.ValidateSelection.
func ValidateSelection(db *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var selected []domain.Strategy
	if err := db.Where("id IN ?", ids).Order("id ASC").Find(&selected).Error; err != nil {
		return err
	}
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	for _, st := range selected {
		if st.ParentID == nil {
			continue
		}
		if _, ok := set[*st.ParentID]; !ok {
			return apperr.Validation("Child strategy '%s' (ID: %d) requires its parent (ID: %d) to also be selected", st.Name, st.ID, *st.ParentID)
		}
	}
	return nil
}

// Resolve loads the strategies for ids in id order and reports the ids that
// matched nothing.
func Resolve(db *gorm.DB, ids []uint) ([]domain.Strategy, []uint, error) {
	if len(ids) == 0 {
		return []domain.Strategy{}, nil, nil
	}
	var found []domain.Strategy
	if err := db.Where("id IN ?", ids).Order("id ASC").Find(&found).Error; err != nil {
		return nil, nil, err
	}
	seen := make(map[uint]bool, len(found))
	for _, st := range found {
		seen[st.ID] = true
	}
	var missing []uint
	for _, id := range dedupe(ids) {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	return found, missing, nil
}

func (s *Service) List(ctx context.Context, skip, limit int, f ListFilter) ([]domain.Strategy, error) {
	skip, limit = validation.Page(skip, limit)
	q := s.DB.WithContext(ctx).Model(&domain.Strategy{})
	switch {
	case f.ParentID != nil:
		q = q.Where("parent_id = ?", *f.ParentID)
	case f.RootsOnly:
		q = q.Where("parent_id IS NULL")
	}
	var out []domain.Strategy
	if err := q.Order("id ASC").Offset(skip).Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a strategy that has no children and detaches it from every
// holding. Strategies with children are rejected with a Conflict.
func (s *Service) Delete(ctx context.Context, id uint) (*domain.Strategy, error) {
	var removed *domain.Strategy
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := find(tx, id)
		if err != nil {
			return err
		}
		var children int64
		if err := tx.Model(&domain.Strategy{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
			return err
		}
		if children > 0 {
			return apperr.Conflict("Strategy '%s' has %d child strategies; delete or re-parent them first", st.Name, children)
		}
		if err := tx.Exec("DELETE FROM "+JoinTable+" WHERE strategy_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(st).Error; err != nil {
			return err
		}
		removed = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// JoinTable is the holding/strategy association table.
const JoinTable = "holding_strategies"

func find(db *gorm.DB, id uint) (*domain.Strategy, error) {
	var st domain.Strategy
	if err := db.Where("id = ?", id).First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Strategy not found")
		}
		return nil, err
	}
	return &st, nil
}

func ensureNameFree(db *gorm.DB, name string, selfID uint) error {
	var existing domain.Strategy
	err := db.Where("name = ?", name).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return apperr.Conflict("Strategy with name '%s' already registered", name)
	}
	return nil
}

// validateParent enforces the two-generation limit for strategy selfID
// (0 when creating) attached under parentID.
func validateParent(db *gorm.DB, selfID uint, parentID *uint) error {
	if parentID == nil {
		return nil
	}
	if selfID != 0 && *parentID == selfID {
		return apperr.Validation("A strategy cannot be its own parent")
	}
	parent, err := find(db, *parentID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.NotFound("Parent strategy %d not found", *parentID)
		}
		return err
	}
	if !parent.IsRoot() {
		return apperr.Validation("Child strategies can only be one generation deep. The parent strategy itself is already a child.")
	}
	if selfID != 0 {
		var children int64
		if err := db.Model(&domain.Strategy{}).Where("parent_id = ?", selfID).Count(&children).Error; err != nil {
			return err
		}
		if children > 0 {
			return apperr.Validation("Strategy %d has child strategies and cannot itself become a child", selfID)
		}
	}
	return nil
}

// translate turns a unique-index race on name into a Conflict.
func translate(err error, name string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("Strategy with name '%s' already registered", name)
	}
	return err
}

func dedupe(ids []uint) []uint {
	out := append([]uint(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i, id := range out {
		if i == 0 || id != out[n-1] {
			out[n] = id
			n++
		}
	}
	return out[:n]
}
