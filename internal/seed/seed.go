// Package seed creates a first organization and owner account on boot when
// the users table is empty.
package seed

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/dealdesk/dealdesk/internal/model"
	"github.com/dealdesk/dealdesk/internal/pipeline"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// OwnerOptions configures the seed owner account.
type OwnerOptions struct {
	Email    string
	Password string // if empty, a random password is generated
	OrgName  string
}

// EnsureOwner creates a seed organization, its owner, and the default
// pipeline if no users exist. A generated password is printed to stdout
// exactly once. The function is idempotent; it is safe to call on every
// startup.
func EnsureOwner(_ context.Context, db *gorm.DB, opts OwnerOptions, log *slog.Logger) error {
	var count int64
	if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		log.Info("seed owner already exists")
		return nil
	}

	password := opts.Password
	if password == "" {
		var err error
		password, err = generatePassword()
		if err != nil {
			return fmt.Errorf("generate seed password: %w", err)
		}
		fmt.Printf("[dealdesk] seed owner password: %s\n", password)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	orgName := opts.OrgName
	if orgName == "" {
		orgName = "DealDesk"
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		org := &model.Organization{Name: orgName}
		if err := tx.Create(org).Error; err != nil {
			return fmt.Errorf("insert seed organization: %w", err)
		}

		u := &model.User{
			OrganizationID: org.ID,
			Email:          opts.Email,
			Role:           model.RoleOwner,
			DisplayName:    "Seed Owner",
			PasswordHash:   string(hash),
		}
		if err := tx.Create(u).Error; err != nil {
			return fmt.Errorf("insert seed owner: %w", err)
		}

		if err := tx.Model(org).Update("owner_id", u.ID).Error; err != nil {
			return fmt.Errorf("set organization owner: %w", err)
		}

		p := &model.Pipeline{
			OrganizationID: org.ID,
			Stages:         pipeline.Default(),
			UpdatedAt:      time.Now(),
		}
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("insert seed pipeline: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("seed owner created", "email", opts.Email, "organization", orgName)
	return nil
}

func generatePassword() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
