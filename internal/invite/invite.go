// Package invite manages organization invite codes. Codes are short-lived,
// single-use, and always grant the member role.
package invite

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dealdesk/dealdesk/internal/model"
	"gorm.io/gorm"
)

const (
	codeLength   = 8
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	// ErrForbidden is returned when a non-admin user tries to generate a code.
	ErrForbidden = errors.New("only owners and admins can generate invite codes")
	// ErrInvalid is returned when a code does not exist.
	ErrInvalid = errors.New("invalid invite code")
	// ErrExpired is returned when a code exists but is past its expiry.
	ErrExpired = errors.New("invite code has expired")
)

// Service creates and consumes invite codes.
type Service struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewService creates a Service. ttl is how long generated codes stay valid.
func NewService(db *gorm.DB, ttl time.Duration) *Service {
	return &Service{db: db, ttl: ttl}
}

// Generate creates a new single-use code for the caller's organization.
// Only owners and admins may generate codes. Invited users always join as
// members regardless of who generated the code.
func (s *Service) Generate(ctx context.Context, orgID, createdBy, callerRole string) (*model.InviteCode, error) {
	if callerRole != model.RoleOwner && callerRole != model.RoleAdmin {
		return nil, ErrForbidden
	}

	code, err := randomCode()
	if err != nil {
		return nil, fmt.Errorf("generate invite code: %w", err)
	}

	now := time.Now()
	inv := &model.InviteCode{
		Code:           code,
		OrganizationID: orgID,
		Role:           model.RoleMember,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Create(inv).Error; err != nil {
		return nil, fmt.Errorf("store invite code: %w", err)
	}
	return inv, nil
}

// Validate consumes the given code and returns the invite it granted. Codes
// are matched case-insensitively. Expired codes are deleted on sight. A valid
// code is deleted in the same transaction that reads it, so two concurrent
// signups with one code cannot both succeed.
func (s *Service) Validate(ctx context.Context, code string) (*model.InviteCode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, ErrInvalid
	}

	var inv model.InviteCode
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("code = ?", normalized).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalid
			}
			return fmt.Errorf("look up invite code: %w", err)
		}

		if !time.Now().Before(inv.ExpiresAt) {
			if err := tx.Delete(&model.InviteCode{}, "code = ?", normalized).Error; err != nil {
				return fmt.Errorf("delete expired invite code: %w", err)
			}
			return ErrExpired
		}

		res := tx.Delete(&model.InviteCode{}, "code = ?", normalized)
		if res.Error != nil {
			return fmt.Errorf("consume invite code: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Someone else consumed it between our read and delete.
			return ErrInvalid
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// DeleteExpired removes all codes past their expiry and reports how many
// were deleted. The background sweep calls this periodically.
func (s *Service) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Delete(&model.InviteCode{}, "expires_at <= ?", now)
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired invite codes: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// List returns all outstanding codes for an organization, newest first.
func (s *Service) List(ctx context.Context, orgID string) ([]model.InviteCode, error) {
	var codes []model.InviteCode
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&codes).Error
	if err != nil {
		return nil, fmt.Errorf("list invite codes: %w", err)
	}
	return codes, nil
}

func randomCode() (string, error) {
	b := make([]byte, codeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b), nil
}
