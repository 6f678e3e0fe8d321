package store

import (
	"context"
	"fmt"

	"github.com/dealdesk/dealdesk/internal/live"
	"github.com/dealdesk/dealdesk/internal/model"
)

// ListNotes returns a deal's notes and activity entries, newest first.
func (s *Store) ListNotes(ctx context.Context, orgID, dealID string) ([]model.Note, error) {
	var notes []model.Note
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND deal_id = ?", orgID, dealID).
		Order("created_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// CreateNote appends a note to a deal's timeline. Notes are immutable once
// written; there is no update or delete path.
func (s *Store) CreateNote(ctx context.Context, n *model.Note) error {
	if _, err := s.GetDeal(ctx, n.OrganizationID, n.DealID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	s.publishNotes(ctx, n.OrganizationID, n.DealID)
	return nil
}

func (s *Store) publishNotes(ctx context.Context, orgID, dealID string) {
	notes, err := s.ListNotes(ctx, orgID, dealID)
	if err != nil {
		s.logger.Warn("snapshot publish skipped", "collection", live.NotesCollection(dealID), "error", err)
		return
	}
	s.publish(ctx, orgID, live.NotesCollection(dealID), notes)
}
