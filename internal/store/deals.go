package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dealdesk/dealdesk/internal/live"
	"github.com/dealdesk/dealdesk/internal/model"
	"gorm.io/gorm"
)

// ListDeals returns every deal in the organization, newest first. Archived
// deals are included; filtering them out is a presentation concern.
func (s *Store) ListDeals(ctx context.Context, orgID string) ([]model.Deal, error) {
	var deals []model.Deal
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&deals).Error
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	return deals, nil
}

// GetDeal fetches one deal by id within the organization.
func (s *Store) GetDeal(ctx context.Context, orgID, id string) (*model.Deal, error) {
	var d model.Deal
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get deal: %w", err)
	}
	return &d, nil
}

// CreateDeal inserts a new deal and publishes the refreshed deal snapshot.
func (s *Store) CreateDeal(ctx context.Context, d *model.Deal) error {
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("create deal: %w", err)
	}
	s.publishDeals(ctx, d.OrganizationID)
	return nil
}

// SaveDeal persists the full state of an already-loaded deal and publishes
// the refreshed snapshot. Whole-row writes keep serialized columns (contact,
// custom fields, stage history) consistent with what the caller mutated.
func (s *Store) SaveDeal(ctx context.Context, d *model.Deal) error {
	if err := s.db.WithContext(ctx).Save(d).Error; err != nil {
		return fmt.Errorf("save deal: %w", err)
	}
	s.publishDeals(ctx, d.OrganizationID)
	return nil
}

// DeleteDeal removes a deal and its notes, then publishes the refreshed
// snapshot.
func (s *Store) DeleteDeal(ctx context.Context, orgID, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Deal{}, "organization_id = ? AND id = ?", orgID, id)
		if res.Error != nil {
			return fmt.Errorf("delete deal: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Delete(&model.Note{}, "organization_id = ? AND deal_id = ?", orgID, id).Error; err != nil {
			return fmt.Errorf("delete deal notes: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publishDeals(ctx, orgID)
	return nil
}

func (s *Store) publishDeals(ctx context.Context, orgID string) {
	deals, err := s.ListDeals(ctx, orgID)
	if err != nil {
		s.logger.Warn("snapshot publish skipped", "collection", live.CollectionDeals, "error", err)
		return
	}
	s.publish(ctx, orgID, live.CollectionDeals, deals)
}
