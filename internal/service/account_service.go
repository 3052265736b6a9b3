package service

import (
	"context"

	"agora/internal/models"
	"agora/internal/policy"
	"agora/internal/repository"
)

// AccountService deletes user accounts together with their content.
type AccountService struct {
	store   *repository.Store
	cascade *CascadeService
}

func NewAccountService(store *repository.Store, cascade *CascadeService) *AccountService {
	return &AccountService{store: store, cascade: cascade}
}

// DeleteAccount is allowed for the owner and for admins. Only a super_admin
// may remove another super_admin.
func (s *AccountService) DeleteAccount(ctx context.Context, actor models.Actor, targetUserID uint) (CascadeReport, error) {
	if targetUserID == 0 {
		return CascadeReport{}, models.NewMissingFieldsError()
	}
	if err := requireActor(actor); err != nil {
		return CascadeReport{}, err
	}
	target, err := s.store.Users.GetByID(ctx, targetUserID)
	if err != nil {
		return CascadeReport{}, err
	}
	if !policy.CanDeleteAccount(actor, targetUserID) {
		return CascadeReport{}, models.NewUnauthorizedError("Not authorized to delete this account")
	}
	if target.Role == models.RoleSuperAdmin && actor.ID != target.ID && actor.Role != models.RoleSuperAdmin {
		return CascadeReport{}, models.NewForbiddenError("Super admin privileges required")
	}
	return s.cascade.DeleteAccountTree(ctx, targetUserID)
}
