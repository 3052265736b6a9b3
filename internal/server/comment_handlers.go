package server

import (
	"agora/internal/models"
	"agora/internal/notifications"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createCommentRequest struct {
	PostID uint   `json:"post_id" validate:"required"`
	Body   string `json:"body" validate:"required"`
}

type createReplyRequest struct {
	CommentID uint   `json:"comment_id" validate:"required"`
	Body      string `json:"body" validate:"required"`
}

type editBodyRequest struct {
	Body string `json:"body" validate:"required"`
}

// CreateComment handles POST /api/v1/comments
// @Summary Comment on a post
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body createCommentRequest true "Comment"
// @Success 201 {object} object{success=bool,message=string,comment=models.Comment}
// @Failure 400 {object} models.Envelope
// @Router /v1/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req createCommentRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.contentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		Actor:  currentActor(c),
		PostID: req.PostID,
		Body:   req.Body,
	})
	if err != nil {
		return models.RespondFromError(c, err)
	}

	s.publishEvent(c.UserContext(), notifications.EventCommentCreated, s.contentAudience(c.UserContext(), models.TargetPost, comment.PostID), fiber.Map{
		"comment_id": comment.ID,
		"post_id":    comment.PostID,
		"author_id":  comment.UserID,
	})
	return models.RespondOK(c, fiber.StatusCreated, "Comment Added Successfully", fiber.Map{"comment": comment})
}

// UpdateComment handles PUT /api/v1/comments/:id
// @Summary Edit a comment (author only)
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param request body editBodyRequest true "New body"
// @Success 200 {object} object{success=bool,message=string,comment=models.Comment}
// @Router /v1/comments/{id} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req editBodyRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.contentService.EditComment(c.UserContext(), service.EditInput{
		Actor: currentActor(c),
		ID:    id,
		Body:  req.Body,
	})
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Comment Updated Successfully", fiber.Map{"comment": comment})
}

// DeleteComment handles DELETE /api/v1/comments/:id
// @Summary Delete a comment and its replies
// @Tags comments
// @Security BearerAuth
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} object{success=bool,message=string,deleted=service.CascadeReport}
// @Router /v1/comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	audience := s.contentAudience(c.UserContext(), models.TargetComment, id)
	report, err := s.contentService.DeleteComment(c.UserContext(), service.DeleteInput{Actor: currentActor(c), ID: id})
	if err != nil {
		return models.RespondFromError(c, err)
	}
	s.publishEvent(c.UserContext(), notifications.EventCommentDeleted, audience, fiber.Map{"comment_id": id})
	return models.RespondOK(c, fiber.StatusOK, "Comment Deleted Successfully", fiber.Map{"deleted": report})
}

// GetReplies handles GET /api/v1/comments/:id/replies
// @Summary List a comment's replies, oldest first
// @Tags replies
// @Security BearerAuth
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} object{success=bool,message=string,replies=[]models.Reply}
// @Router /v1/comments/{id}/replies [get]
func (s *Server) GetReplies(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)
	replies, err := s.contentService.ListReplies(c.UserContext(), currentActor(c), id, page.Limit, page.Offset)
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Replies Fetched", fiber.Map{"replies": replies})
}

// CreateReply handles POST /api/v1/replies
// @Summary Reply to a comment
// @Tags replies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body createReplyRequest true "Reply"
// @Success 201 {object} object{success=bool,message=string,reply=models.Reply}
// @Router /v1/replies [post]
func (s *Server) CreateReply(c *fiber.Ctx) error {
	var req createReplyRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	reply, err := s.contentService.CreateReply(c.UserContext(), service.CreateReplyInput{
		Actor:     currentActor(c),
		CommentID: req.CommentID,
		Body:      req.Body,
	})
	if err != nil {
		return models.RespondFromError(c, err)
	}

	s.publishEvent(c.UserContext(), notifications.EventReplyCreated, s.contentAudience(c.UserContext(), models.TargetPost, reply.PostID), fiber.Map{
		"reply_id":   reply.ID,
		"comment_id": reply.CommentID,
		"post_id":    reply.PostID,
		"author_id":  reply.UserID,
	})
	return models.RespondOK(c, fiber.StatusCreated, "Reply Added Successfully", fiber.Map{"reply": reply})
}

// UpdateReply handles PUT /api/v1/replies/:id
// @Summary Edit a reply (author only)
// @Tags replies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Reply ID"
// @Param request body editBodyRequest true "New body"
// @Success 200 {object} object{success=bool,message=string,reply=models.Reply}
// @Router /v1/replies/{id} [put]
func (s *Server) UpdateReply(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req editBodyRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	reply, err := s.contentService.EditReply(c.UserContext(), service.EditInput{
		Actor: currentActor(c),
		ID:    id,
		Body:  req.Body,
	})
	if err != nil {
		return models.RespondFromError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Reply Updated Successfully", fiber.Map{"reply": reply})
}

// DeleteReply handles DELETE /api/v1/replies/:id
// @Summary Delete a reply
// @Tags replies
// @Security BearerAuth
// @Produce json
// @Param id path int true "Reply ID"
// @Success 200 {object} object{success=bool,message=string,deleted=service.CascadeReport}
// @Router /v1/replies/{id} [delete]
func (s *Server) DeleteReply(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	audience := s.contentAudience(c.UserContext(), models.TargetReply, id)
	report, err := s.contentService.DeleteReply(c.UserContext(), service.DeleteInput{Actor: currentActor(c), ID: id})
	if err != nil {
		return models.RespondFromError(c, err)
	}
	s.publishEvent(c.UserContext(), notifications.EventReplyDeleted, audience, fiber.Map{"reply_id": id})
	return models.RespondOK(c, fiber.StatusOK, "Reply Deleted Successfully", fiber.Map{"deleted": report})
}
