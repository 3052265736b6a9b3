package server

import (
	"agora/internal/models"
	"agora/internal/notifications"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	ChannelID uint   `json:"channel_id" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Body      string `json:"body" validate:"required"`
}

type editPostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body" validate:"required"`
}

// CreatePost handles POST /api/v1/posts
// @Summary Create a post in a channel
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body createPostRequest true "Post"
// @Success 201 {object} object{success=bool,message=string,post=models.Post}
// @Failure 400 {object} models.Envelope
// @Failure 403 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /v1/posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.contentService.CreatePost(c.UserContext(), service.CreatePostInput{
		Actor:     currentActor(c),
		ChannelID: req.ChannelID,
		Title:     req.Title,
		Body:      req.Body,
	})
	if err != nil {
		return models.RespondFromError(c, err)
	}

	s.publishEvent(c.UserContext(), notifications.EventPostCreated, s.channelAudience(c.UserContext(), post.ChannelID), fiber.Map{
		"post_id":    post.ID,
		"channel_id": post.ChannelID,
		"author_id":  post.UserID,
	})
	return models.RespondOK(c, fiber.StatusCreated, "Post Created Successfully", fiber.Map{"post": post})
}

// GetPost handles GET /api/v1/posts/:id
// @Summary Get a post
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{success=bool,message=string,post=models.Post}
// @Failure 404 {object} models.Envelope
// @Router /v1/posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.contentService.GetPost(c.UserContext(), currentActor(c), id)
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Post Fetched", fiber.Map{"post": post})
}

// UpdatePost handles PUT /api/v1/posts/:id
// @Summary Edit a post (author only)
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body editPostRequest true "Post changes"
// @Success 200 {object} object{success=bool,message=string,post=models.Post}
// @Router /v1/posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req editPostRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.contentService.EditPost(c.UserContext(), service.EditInput{
		Actor: currentActor(c),
		ID:    id,
		Title: req.Title,
		Body:  req.Body,
	})
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Post Updated Successfully", fiber.Map{"post": post})
}

// DeletePost handles DELETE /api/v1/posts/:id
// @Summary Delete a post and its comments, replies and reactions
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{success=bool,message=string,deleted=service.CascadeReport}
// @Router /v1/posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	audience := s.contentAudience(c.UserContext(), models.TargetPost, id)
	report, err := s.contentService.DeletePost(c.UserContext(), service.DeleteInput{Actor: currentActor(c), ID: id})
	if err != nil {
		return models.RespondFromError(c, err)
	}
	s.publishEvent(c.UserContext(), notifications.EventPostDeleted, audience, fiber.Map{"post_id": id})
	return models.RespondOK(c, fiber.StatusOK, "Post Deleted Successfully", fiber.Map{"deleted": report})
}

// GetComments handles GET /api/v1/posts/:id/comments
// @Summary List a post's comments, oldest first
// @Tags comments
// @Security BearerAuth
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{success=bool,message=string,comments=[]models.Comment}
// @Router /v1/posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)
	comments, err := s.contentService.ListComments(c.UserContext(), currentActor(c), id, page.Limit, page.Offset)
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Comments Fetched", fiber.Map{"comments": comments})
}
