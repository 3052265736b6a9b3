package service

import (
	"context"
	"errors"

	"agora/internal/models"
	"agora/internal/policy"
	"agora/internal/repository"
)

// AdminService manages roles and restricted-channel membership.
type AdminService struct {
	store *repository.Store
}

func NewAdminService(store *repository.Store) *AdminService {
	return &AdminService{store: store}
}

func requireSuperAdmin(actor models.Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !policy.CanPromote(actor) {
		return models.NewForbiddenError("Super admin privileges required")
	}
	return nil
}

// Promote turns a student into an admin and logs it.
func (s *AdminService) Promote(ctx context.Context, actor models.Actor, targetID uint) (*models.User, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}
	if targetID == 0 {
		return nil, models.NewMissingFieldsError()
	}

	var user *models.User
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if user, err = tx.Users.GetByID(ctx, targetID); err != nil {
			return err
		}
		if user.Role != models.RoleStudent {
			return models.NewValidationError("User already has elevated privileges")
		}
		if err := tx.Users.UpdateRole(ctx, targetID, models.RoleAdmin); err != nil {
			return err
		}
		user.Role = models.RoleAdmin
		return tx.AdminLogs.Create(ctx, &models.AdminLog{
			Action:      models.AdminActionPromote,
			PerformedBy: actor.ID,
			TargetID:    targetID,
		})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Demote turns an admin back into a student and logs it.
func (s *AdminService) Demote(ctx context.Context, actor models.Actor, targetID uint) (*models.User, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}
	if targetID == 0 {
		return nil, models.NewMissingFieldsError()
	}

	var user *models.User
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		user, err = tx.Users.GetByID(ctx, targetID)
		if errors.Is(err, models.ErrNotFound) || (err == nil && user.Role != models.RoleAdmin) {
			return models.NewNotFoundMessage("Admin Not Found")
		}
		if err != nil {
			return err
		}
		if err := tx.Users.UpdateRole(ctx, targetID, models.RoleStudent); err != nil {
			return err
		}
		user.Role = models.RoleStudent
		return tx.AdminLogs.Create(ctx, &models.AdminLog{
			Action:      models.AdminActionDemote,
			PerformedBy: actor.ID,
			TargetID:    targetID,
		})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AdminService) ListAdmins(ctx context.Context, actor models.Actor) ([]models.User, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}
	return s.store.Users.ListByRoles(ctx, models.RoleAdmin, models.RoleSuperAdmin)
}

func (s *AdminService) ListAdminLogs(ctx context.Context, actor models.Actor, limit, offset int) ([]models.AdminLog, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}
	return s.store.AdminLogs.List(ctx, limit, offset)
}

// SetMembership grants or revokes restricted-channel membership.
func (s *AdminService) SetMembership(ctx context.Context, actor models.Actor, targetID uint, private bool) (*models.User, error) {
	if err := requireModerator(actor); err != nil {
		return nil, err
	}
	if targetID == 0 {
		return nil, models.NewMissingFieldsError()
	}
	if err := s.store.Users.SetMembership(ctx, targetID, private); err != nil {
		return nil, err
	}
	return s.store.Users.GetByID(ctx, targetID)
}
