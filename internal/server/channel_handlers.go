package server

import (
	"agora/internal/models"
	"agora/internal/notifications"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createChannelRequest struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type"`
}

type updateChannelRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ListChannels handles GET /api/v1/channels
// @Summary List channels
// @Tags channels
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} object{success=bool,message=string,channels=[]models.Channel}
// @Router /v1/channels [get]
func (s *Server) ListChannels(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	channels, err := s.channelService.ListChannels(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Channels Fetched", fiber.Map{"channels": channels})
}

// GetChannel handles GET /api/v1/channels/:id
// @Summary Get a channel
// @Tags channels
// @Security BearerAuth
// @Produce json
// @Param id path int true "Channel ID"
// @Success 200 {object} object{success=bool,message=string,channel=models.Channel}
// @Failure 404 {object} models.Envelope
// @Router /v1/channels/{id} [get]
func (s *Server) GetChannel(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	channel, err := s.channelService.GetChannel(c.UserContext(), id)
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Channel Fetched", fiber.Map{"channel": channel})
}

// GetChannelPosts handles GET /api/v1/channels/:id/posts
// @Summary List a channel's posts, newest first
// @Tags channels
// @Security BearerAuth
// @Produce json
// @Param id path int true "Channel ID"
// @Success 200 {object} object{success=bool,message=string,posts=[]models.Post}
// @Failure 403 {object} models.Envelope
// @Router /v1/channels/{id}/posts [get]
func (s *Server) GetChannelPosts(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)
	posts, err := s.contentService.ListChannelPosts(c.UserContext(), currentActor(c), id, page.Limit, page.Offset)
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Posts Fetched", fiber.Map{"posts": posts})
}

// CreateChannel handles POST /api/v1/channels
// @Summary Create a channel (admin)
// @Tags channels
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body createChannelRequest true "Channel"
// @Success 201 {object} object{success=bool,message=string,channel=models.Channel}
// @Failure 403 {object} models.Envelope
// @Failure 409 {object} models.Envelope
// @Router /v1/channels [post]
func (s *Server) CreateChannel(c *fiber.Ctx) error {
	var req createChannelRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	channel, err := s.channelService.CreateChannel(c.UserContext(), service.CreateChannelInput{
		Actor: currentActor(c),
		Name:  req.Name,
		Type:  req.Type,
	})
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusCreated, "Channel Created Successfully", fiber.Map{"channel": channel})
}

// UpdateChannel handles PUT /api/v1/channels/:id
// @Summary Rename or retype a channel (admin)
// @Tags channels
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Channel ID"
// @Param request body updateChannelRequest true "Channel changes"
// @Success 200 {object} object{success=bool,message=string,channel=models.Channel}
// @Router /v1/channels/{id} [put]
func (s *Server) UpdateChannel(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updateChannelRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	channel, err := s.channelService.EditChannel(c.UserContext(), service.EditChannelInput{
		Actor:     currentActor(c),
		ChannelID: id,
		Name:      req.Name,
		Type:      req.Type,
	})
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Channel Updated Successfully", fiber.Map{"channel": channel})
}

// DeleteChannel handles DELETE /api/v1/channels/:id
// @Summary Delete a channel and everything in it (admin)
// @Tags channels
// @Security BearerAuth
// @Produce json
// @Param id path int true "Channel ID"
// @Success 200 {object} object{success=bool,message=string,deleted=service.CascadeReport}
// @Router /v1/channels/{id} [delete]
func (s *Server) DeleteChannel(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	report, err := s.channelService.DeleteChannel(c.UserContext(), currentActor(c), id)
	if err != nil {
		return models.RespondFromError(c, err)
	}
	s.publishEvent(c.UserContext(), notifications.EventChannelDeleted, notifications.AudienceEveryone, fiber.Map{"channel_id": id})
	return models.RespondOK(c, fiber.StatusOK, "Channel Deleted Successfully", fiber.Map{"deleted": report})
}
