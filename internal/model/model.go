// Package model contains GORM model definitions shared across packages.
// All models are driver-agnostic: they work with both PostgreSQL and SQLite.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role values a user can hold within an organization.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Organization represents a tenant. Every other entity belongs to exactly one.
type Organization struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	OwnerID   string    `gorm:"type:text;not null" json:"ownerId"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

// BeforeCreate generates a UUID primary key if not set.
func (o *Organization) BeforeCreate(_ *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}

// StringSlice is a []string that GORM serialises as JSON into a TEXT column
// on both SQLite and PostgreSQL.
type StringSlice []string

// User is the GORM model for the users table. A user belongs to exactly one
// organization and holds one role there.
type User struct {
	ID             string    `gorm:"type:text;primaryKey" json:"id"`
	OrganizationID string    `gorm:"type:text;not null;index" json:"organizationId"`
	Email          string    `gorm:"type:text;not null;uniqueIndex" json:"email"`
	Role           string    `gorm:"type:text;not null;default:'member'" json:"role"`
	DisplayName    string    `gorm:"type:text;not null;default:''" json:"displayName"`
	PhotoURL       string    `gorm:"type:text;not null;default:''" json:"photoURL"`
	PhoneNumber    string    `gorm:"type:text;not null;default:''" json:"phoneNumber"`
	JobTitle       string    `gorm:"type:text;not null;default:''" json:"jobTitle"`
	PasswordHash   string    `gorm:"type:text;not null;default:''" json:"-"`
	CreatedAt      time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"not null" json:"updatedAt"`
}

// BeforeCreate generates a UUID primary key if not set.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// StageChange is one entry in a deal's append-only stage history.
// From is empty on the entry synthesized at deal creation.
type StageChange struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// StageHistory is the ordered, append-only audit log of stage transitions.
type StageHistory []StageChange

// Contact holds the person attached to a deal.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// FieldValue carries one typed scalar for a custom field. Value is a string
// or a float64 depending on the field's declared type.
type FieldValue struct {
	FieldID string `json:"fieldId"`
	Value   any    `json:"value"`
}

// FieldValues is a set keyed by FieldID: at most one value per field id.
type FieldValues []FieldValue

// Deal is one sales opportunity moving through pipeline stages.
//
// Stage is best-effort display data, not a foreign key: renaming or deleting
// a pipeline stage never rewrites stages already recorded on deals or in
// their histories.
type Deal struct {
	ID             string       `gorm:"type:text;primaryKey" json:"id"`
	OrganizationID string       `gorm:"type:text;not null;index" json:"organizationId"`
	Title          string       `gorm:"type:text;not null" json:"title"`
	Value          float64      `gorm:"not null;default:0" json:"value"`
	Company        string       `gorm:"type:text;not null;default:''" json:"company"`
	Contact        Contact      `gorm:"type:text;serializer:json" json:"contact"`
	Stage          string       `gorm:"type:text;not null" json:"stage"`
	Notes          string       `gorm:"type:text;not null;default:''" json:"notes"`
	CustomFields   FieldValues  `gorm:"type:text;serializer:json" json:"customFields"`
	StageHistory   StageHistory `gorm:"type:text;serializer:json" json:"stageHistory"`
	OwnerID        string       `gorm:"type:text;not null" json:"ownerId"`
	OwnerName      string       `gorm:"type:text;not null;default:''" json:"ownerName"`
	OwnerPhotoURL  string       `gorm:"type:text;not null;default:''" json:"ownerPhotoURL"`
	Archived       bool         `gorm:"not null;default:false" json:"archived"`
	CreatedAt      time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time    `gorm:"not null" json:"updatedAt"`
}

// BeforeCreate generates a UUID primary key if not set.
func (d *Deal) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// Stage is one named, colored position in an organization's pipeline.
type Stage struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Stages is the ordered stage list persisted per organization.
type Stages []Stage

// Pipeline holds the ordered stage list for one organization. Commits
// overwrite the whole list at once; there is no per-stage diffing.
type Pipeline struct {
	OrganizationID string    `gorm:"type:text;primaryKey" json:"organizationId"`
	Stages         Stages    `gorm:"type:text;serializer:json" json:"stages"`
	UpdatedAt      time.Time `gorm:"not null" json:"updatedAt"`
}

// Custom field types an organization can define.
const (
	FieldTypeText   = "text"
	FieldTypeNumber = "number"
	FieldTypeDate   = "date"
	FieldTypeSelect = "select"
)

// CustomField is an organization-scoped schema definition for an extra deal
// attribute. Options is only populated for select fields.
type CustomField struct {
	ID             string      `gorm:"type:text;primaryKey" json:"id"`
	OrganizationID string      `gorm:"type:text;not null;index" json:"organizationId"`
	Name           string      `gorm:"type:text;not null" json:"name"`
	Type           string      `gorm:"type:text;not null" json:"type"`
	Required       bool        `gorm:"not null;default:false" json:"required"`
	Options        StringSlice `gorm:"type:text;serializer:json" json:"options,omitempty"`
	CreatedAt      time.Time   `gorm:"not null" json:"createdAt"`
}

// BeforeCreate generates a UUID primary key if not set.
func (f *CustomField) BeforeCreate(_ *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

// Note is an immutable-after-creation record attached to a deal.
type Note struct {
	ID             string      `gorm:"type:text;primaryKey" json:"id"`
	OrganizationID string      `gorm:"type:text;not null;index" json:"organizationId"`
	DealID         string      `gorm:"type:text;not null;index" json:"dealId"`
	Content        string      `gorm:"type:text;not null" json:"content"`
	Type           string      `gorm:"type:text;not null;default:'note'" json:"type"`
	Images         StringSlice `gorm:"type:text;serializer:json" json:"images,omitempty"`
	CreatedBy      string      `gorm:"type:text;not null" json:"createdBy"`
	CreatedAt      time.Time   `gorm:"not null" json:"createdAt"`
}

// BeforeCreate generates a UUID primary key if not set.
func (n *Note) BeforeCreate(_ *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

// InviteCode is a single-use, time-boxed onboarding token. The code itself
// is the primary key and is always stored uppercase.
type InviteCode struct {
	Code           string    `gorm:"type:text;primaryKey" json:"code"`
	OrganizationID string    `gorm:"type:text;not null;index" json:"organizationId"`
	Role           string    `gorm:"type:text;not null;default:'member'" json:"role"`
	CreatedBy      string    `gorm:"type:text;not null" json:"createdBy"`
	CreatedAt      time.Time `gorm:"not null" json:"createdAt"`
	ExpiresAt      time.Time `gorm:"not null" json:"expiresAt"`
}

// RefreshToken is the GORM model for the refresh_tokens table.
type RefreshToken struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	UserID    string    `gorm:"type:text;not null;index" json:"userId"`
	TokenHash string    `gorm:"type:text;not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

// BeforeCreate generates a UUID primary key if not set.
func (rt *RefreshToken) BeforeCreate(_ *gorm.DB) error {
	if rt.ID == "" {
		rt.ID = uuid.New().String()
	}
	return nil
}
