package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dealdesk/dealdesk/internal/live"
	"github.com/dealdesk/dealdesk/internal/model"
	"gorm.io/gorm"
)

// ListCustomFields returns the organization's field definitions, oldest first
// so columns render in creation order.
func (s *Store) ListCustomFields(ctx context.Context, orgID string) ([]model.CustomField, error) {
	var fields []model.CustomField
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&fields).Error
	if err != nil {
		return nil, fmt.Errorf("list custom fields: %w", err)
	}
	return fields, nil
}

// GetCustomField fetches one field definition within the organization.
func (s *Store) GetCustomField(ctx context.Context, orgID, id string) (*model.CustomField, error) {
	var f model.CustomField
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get custom field: %w", err)
	}
	return &f, nil
}

// CreateCustomField inserts a definition and publishes the refreshed snapshot.
func (s *Store) CreateCustomField(ctx context.Context, f *model.CustomField) error {
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("create custom field: %w", err)
	}
	s.publishFields(ctx, f.OrganizationID)
	return nil
}

// SaveCustomField persists an edited definition. Values already recorded on
// deals are left untouched; a narrowed select or changed type only affects
// future writes.
func (s *Store) SaveCustomField(ctx context.Context, f *model.CustomField) error {
	if err := s.db.WithContext(ctx).Save(f).Error; err != nil {
		return fmt.Errorf("save custom field: %w", err)
	}
	s.publishFields(ctx, f.OrganizationID)
	return nil
}

// DeleteCustomField removes a definition. Deal documents keep any values
// recorded under the deleted field id; they become unrendered orphans.
func (s *Store) DeleteCustomField(ctx context.Context, orgID, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.CustomField{}, "organization_id = ? AND id = ?", orgID, id)
	if res.Error != nil {
		return fmt.Errorf("delete custom field: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.publishFields(ctx, orgID)
	return nil
}

func (s *Store) publishFields(ctx context.Context, orgID string) {
	fields, err := s.ListCustomFields(ctx, orgID)
	if err != nil {
		s.logger.Warn("snapshot publish skipped", "collection", live.CollectionFields, "error", err)
		return
	}
	s.publish(ctx, orgID, live.CollectionFields, fields)
}
