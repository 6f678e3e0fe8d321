package invite_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dealdesk/dealdesk/internal/invite"
	"github.com/dealdesk/dealdesk/internal/model"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.InviteCode{}))
	return db
}

func TestGenerate(t *testing.T) {
	svc := invite.NewService(testDB(t), 7*24*time.Hour)

	inv, err := svc.Generate(context.Background(), "org-1", "user-1", model.RoleOwner)
	require.NoError(t, err)

	assert.Len(t, inv.Code, 8)
	assert.Equal(t, inv.Code, strings.ToUpper(inv.Code))
	assert.Equal(t, "org-1", inv.OrganizationID)
	assert.Equal(t, model.RoleMember, inv.Role, "invites always grant the member role")
	assert.Equal(t, "user-1", inv.CreatedBy)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), inv.ExpiresAt, 5*time.Second)
}

func TestGenerate_MemberForbidden(t *testing.T) {
	svc := invite.NewService(testDB(t), 7*24*time.Hour)

	_, err := svc.Generate(context.Background(), "org-1", "user-1", model.RoleMember)
	assert.ErrorIs(t, err, invite.ErrForbidden)
}

func TestValidate_ConsumesCode(t *testing.T) {
	svc := invite.NewService(testDB(t), 7*24*time.Hour)
	ctx := context.Background()

	inv, err := svc.Generate(ctx, "org-1", "user-1", model.RoleAdmin)
	require.NoError(t, err)

	got, err := svc.Validate(ctx, inv.Code)
	require.NoError(t, err)
	assert.Equal(t, "org-1", got.OrganizationID)
	assert.Equal(t, model.RoleMember, got.Role)

	// Single use: a second validation of the same code fails.
	_, err = svc.Validate(ctx, inv.Code)
	assert.ErrorIs(t, err, invite.ErrInvalid)
}

func TestValidate_CaseInsensitive(t *testing.T) {
	svc := invite.NewService(testDB(t), 7*24*time.Hour)
	ctx := context.Background()

	inv, err := svc.Generate(ctx, "org-1", "user-1", model.RoleOwner)
	require.NoError(t, err)

	got, err := svc.Validate(ctx, "  "+strings.ToLower(inv.Code)+" ")
	require.NoError(t, err)
	assert.Equal(t, inv.Code, got.Code)
}

func TestValidate_Unknown(t *testing.T) {
	svc := invite.NewService(testDB(t), 7*24*time.Hour)

	_, err := svc.Validate(context.Background(), "NOPE1234")
	assert.ErrorIs(t, err, invite.ErrInvalid)

	_, err = svc.Validate(context.Background(), "")
	assert.ErrorIs(t, err, invite.ErrInvalid)
}

func TestValidate_ExpiredIsDeleted(t *testing.T) {
	db := testDB(t)
	svc := invite.NewService(db, 7*24*time.Hour)
	ctx := context.Background()

	expired := &model.InviteCode{
		Code:           "OLDCODE1",
		OrganizationID: "org-1",
		Role:           model.RoleMember,
		CreatedBy:      "user-1",
		CreatedAt:      time.Now().Add(-8 * 24 * time.Hour),
		ExpiresAt:      time.Now().Add(-24 * time.Hour),
	}
	require.NoError(t, db.Create(expired).Error)

	_, err := svc.Validate(ctx, "OLDCODE1")
	assert.ErrorIs(t, err, invite.ErrExpired)

	// The expired code was removed, so retrying reports invalid, not expired.
	_, err = svc.Validate(ctx, "OLDCODE1")
	assert.ErrorIs(t, err, invite.ErrInvalid)
}

// A code expires at its expiry instant, not one tick after it.
func TestValidate_ExpiryBoundary(t *testing.T) {
	db := testDB(t)
	svc := invite.NewService(db, 7*24*time.Hour)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.InviteCode{
		Code:           "ONEDGE00",
		OrganizationID: "org-1",
		Role:           model.RoleMember,
		CreatedBy:      "user-1",
		CreatedAt:      time.Now().Add(-7 * 24 * time.Hour),
		ExpiresAt:      time.Now(),
	}).Error)

	_, err := svc.Validate(ctx, "ONEDGE00")
	assert.ErrorIs(t, err, invite.ErrExpired)
}

func TestDeleteExpired_Boundary(t *testing.T) {
	db := testDB(t)
	svc := invite.NewService(db, 7*24*time.Hour)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, db.Create(&model.InviteCode{
		Code:           "ONEDGE01",
		OrganizationID: "org-1",
		Role:           model.RoleMember,
		CreatedBy:      "user-1",
		CreatedAt:      now.Add(-7 * 24 * time.Hour),
		ExpiresAt:      now,
	}).Error)

	deleted, err := svc.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestDeleteExpired(t *testing.T) {
	db := testDB(t)
	svc := invite.NewService(db, 7*24*time.Hour)
	ctx := context.Background()

	_, err := svc.Generate(ctx, "org-1", "user-1", model.RoleOwner)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.InviteCode{
		Code:           "STALE001",
		OrganizationID: "org-1",
		Role:           model.RoleMember,
		CreatedBy:      "user-1",
		CreatedAt:      time.Now().Add(-8 * 24 * time.Hour),
		ExpiresAt:      time.Now().Add(-time.Hour),
	}).Error)

	deleted, err := svc.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	codes, err := svc.List(ctx, "org-1")
	require.NoError(t, err)
	assert.Len(t, codes, 1)
}
