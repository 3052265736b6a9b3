package server

import (
	"agora/internal/models"

	"github.com/gofiber/fiber/v2"
)

type adminTargetRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

type membershipRequest struct {
	PrivateMember *bool `json:"private_member" validate:"required"`
}

// DeleteAccount handles DELETE /api/v1/users/:id
// @Summary Delete an account and all of its content
// @Description Users may delete themselves; admins may delete students.
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{success=bool,message=string,deleted=service.CascadeReport}
// @Failure 403 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /v1/users/{id} [delete]
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	report, err := s.accountService.DeleteAccount(c.UserContext(), currentActor(c), id)
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "User and all associated content deleted successfully",
		fiber.Map{"deleted": report})
}

// PromoteToAdmin handles POST /api/v1/admin/promote
// @Summary Promote a student to admin (super admin)
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body adminTargetRequest true "Target user"
// @Success 200 {object} object{success=bool,message=string,user=models.User}
// @Failure 403 {object} models.Envelope
// @Router /v1/admin/promote [post]
func (s *Server) PromoteToAdmin(c *fiber.Ctx) error {
	var req adminTargetRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.adminService.Promote(c.UserContext(), currentActor(c), req.UserID)
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "User Promoted To Admin", fiber.Map{"user": user})
}

// DemoteFromAdmin handles POST /api/v1/admin/demote
// @Summary Demote an admin to student (super admin)
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body adminTargetRequest true "Target user"
// @Success 200 {object} object{success=bool,message=string,user=models.User}
// @Failure 404 {object} models.Envelope
// @Router /v1/admin/demote [post]
func (s *Server) DemoteFromAdmin(c *fiber.Ctx) error {
	var req adminTargetRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.adminService.Demote(c.UserContext(), currentActor(c), req.UserID)
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Admin Demoted To Student", fiber.Map{"user": user})
}

// ListAdmins handles GET /api/v1/admin/admins
// @Summary List admins and super admins (super admin)
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{success=bool,message=string,admins=[]models.User}
// @Router /v1/admin/admins [get]
func (s *Server) ListAdmins(c *fiber.Ctx) error {
	admins, err := s.adminService.ListAdmins(c.UserContext(), currentActor(c))
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Admins Fetched", fiber.Map{"admins": admins})
}

// ListAdminLogs handles GET /api/v1/admin/logs
// @Summary Promotion and demotion audit trail (super admin)
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{success=bool,message=string,logs=[]models.AdminLog}
// @Router /v1/admin/logs [get]
func (s *Server) ListAdminLogs(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	logs, err := s.adminService.ListAdminLogs(c.UserContext(), currentActor(c), page.Limit, page.Offset)
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Admin Logs Fetched", fiber.Map{"logs": logs})
}

// SetMembership handles PUT /api/v1/admin/users/:id/membership
// @Summary Grant or revoke restricted-channel membership
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body membershipRequest true "Membership"
// @Success 200 {object} object{success=bool,message=string,user=models.User}
// @Router /v1/admin/users/{id}/membership [put]
func (s *Server) SetMembership(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req membershipRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.adminService.SetMembership(c.UserContext(), currentActor(c), id, *req.PrivateMember)
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Membership Updated", fiber.Map{"user": user})
}

// GetFeatureFlags handles GET /api/v1/admin/feature-flags
// @Summary Configured feature flags and their evaluation for the caller
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{success=bool,message=string,raw=map[string]string,evaluated=map[string]bool}
// @Router /v1/admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	actor := currentActor(c)
	return models.RespondOK(c, fiber.StatusOK, "Feature Flags", fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(actor.ID),
	})
}
