package service

import (
	"context"
	"testing"

	"agora/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_PromoteDemote(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := NewAdminService(e.store)
	root := e.user(t, "root", models.RoleSuperAdmin, false)
	admin := e.user(t, "admin", models.RoleAdmin, false)
	student := e.user(t, "student", models.RoleStudent, false)

	_, err := svc.Promote(ctx, admin, student.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.Promote(ctx, root, admin.ID)
	assert.EqualError(t, err, "User already has elevated privileges")

	_, err = svc.Promote(ctx, root, 999)
	assert.ErrorIs(t, err, models.ErrNotFound)

	promoted, err := svc.Promote(ctx, root, student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	admins, err := svc.ListAdmins(ctx, root)
	require.NoError(t, err)
	assert.Len(t, admins, 3)

	_, err = svc.Demote(ctx, root, root.ID)
	assert.EqualError(t, err, "Admin Not Found")

	demoted, err := svc.Demote(ctx, root, student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, demoted.Role)

	logs, err := svc.ListAdminLogs(ctx, root, 10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	actions := []models.AdminAction{logs[0].Action, logs[1].Action}
	assert.ElementsMatch(t, []models.AdminAction{models.AdminActionPromote, models.AdminActionDemote}, actions)
	for _, l := range logs {
		assert.Equal(t, root.ID, l.PerformedBy)
		assert.Equal(t, student.ID, l.TargetID)
	}

	_, err = svc.ListAdminLogs(ctx, admin, 10, 0)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestAdminService_SetMembership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := NewAdminService(e.store)
	admin := e.user(t, "admin", models.RoleAdmin, false)
	student := e.user(t, "student", models.RoleStudent, false)
	c := e.channel(t, "college", models.ChannelRestricted)

	_, err := svc.SetMembership(ctx, student, student.ID, true)
	assert.ErrorIs(t, err, models.ErrForbidden)

	updated, err := svc.SetMembership(ctx, admin, student.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.PrivateMember)

	// the refreshed actor passes the gate
	e.post(t, updated.Actor(), c.ID, "finally inside")
}
