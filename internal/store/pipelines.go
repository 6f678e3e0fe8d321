package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dealdesk/dealdesk/internal/live"
	"github.com/dealdesk/dealdesk/internal/model"
	"github.com/dealdesk/dealdesk/internal/pipeline"
	"gorm.io/gorm"
)

// GetPipeline returns the organization's pipeline, creating the default
// six-stage one on first access.
func (s *Store) GetPipeline(ctx context.Context, orgID string) (*model.Pipeline, error) {
	var p model.Pipeline
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p = model.Pipeline{
			OrganizationID: orgID,
			Stages:         pipeline.Default(),
			UpdatedAt:      time.Now(),
		}
		if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
			return nil, fmt.Errorf("seed default pipeline: %w", err)
		}
		return &p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pipeline: %w", err)
	}
	return &p, nil
}

// PutPipeline overwrites the organization's stage list wholesale and
// publishes the refreshed snapshot. Last writer wins.
func (s *Store) PutPipeline(ctx context.Context, orgID string, stages model.Stages) (*model.Pipeline, error) {
	p := model.Pipeline{
		OrganizationID: orgID,
		Stages:         stages,
		UpdatedAt:      time.Now(),
	}
	if err := s.db.WithContext(ctx).Save(&p).Error; err != nil {
		return nil, fmt.Errorf("save pipeline: %w", err)
	}
	s.publish(ctx, orgID, live.CollectionStages, &p)
	return &p, nil
}
