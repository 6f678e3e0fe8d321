package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dealdesk/dealdesk/internal/live"
	"github.com/dealdesk/dealdesk/internal/model"
	"gorm.io/gorm"
)

// ErrEmailTaken is returned when an account already exists for an email.
var ErrEmailTaken = errors.New("an account with this email already exists")

// GetUser fetches a user by id regardless of organization. Auth middleware
// re-scopes everything downstream via the token's org claim.
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail fetches a user by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a new account and publishes the member snapshot for its
// organization. Email uniqueness is global, not per tenant.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return ErrEmailTaken
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	s.publishMembers(ctx, u.OrganizationID)
	return nil
}

// SaveUser persists profile edits and publishes the member snapshot.
func (s *Store) SaveUser(ctx context.Context, u *model.User) error {
	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	s.publishMembers(ctx, u.OrganizationID)
	return nil
}

// ListMembers returns every user in the organization, owners first, then by
// display name.
func (s *Store) ListMembers(ctx context.Context, orgID string) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return users, nil
}

// CountUsers reports the total number of accounts across all tenants. The
// seeder uses it to decide whether a fresh install needs a first owner.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// CreateOrganization inserts a new tenant.
func (s *Store) CreateOrganization(ctx context.Context, org *model.Organization) error {
	if err := s.db.WithContext(ctx).Create(org).Error; err != nil {
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}

// GetOrganization fetches a tenant by id.
func (s *Store) GetOrganization(ctx context.Context, id string) (*model.Organization, error) {
	var org model.Organization
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &org, nil
}

// SetOrganizationOwner records the owning user on a tenant. Used once, right
// after signup creates the organization and then its first account.
func (s *Store) SetOrganizationOwner(ctx context.Context, orgID, userID string) error {
	err := s.db.WithContext(ctx).Model(&model.Organization{}).
		Where("id = ?", orgID).
		Update("owner_id", userID).Error
	if err != nil {
		return fmt.Errorf("set organization owner: %w", err)
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) publishMembers(ctx context.Context, orgID string) {
	members, err := s.ListMembers(ctx, orgID)
	if err != nil {
		s.logger.Warn("snapshot publish skipped", "collection", live.CollectionMembers, "error", err)
		return
	}
	s.publish(ctx, orgID, live.CollectionMembers, members)
}
