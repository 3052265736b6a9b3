package server

import (
	"agora/internal/models"
	"agora/internal/notifications"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

// reactionRequest is shared by POST/DELETE on /likes and /dislikes.
type reactionRequest struct {
	TargetID   uint   `json:"target_id" validate:"required"`
	TargetKind string `json:"target_kind" validate:"required"`
	ChannelID  uint   `json:"channel_id" validate:"required"`
}

// Like handles POST /api/v1/likes
// @Summary Like a post, comment or reply
// @Description Replaces an existing dislike by the same user.
// @Tags reactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body reactionRequest true "Target"
// @Success 200 {object} object{success=bool,message=string,like_count=int,dislike_count=int}
// @Failure 400 {object} models.Envelope
// @Router /v1/likes [post]
func (s *Server) Like(c *fiber.Ctx) error {
	return s.react(c, models.PolarityLike, true)
}

// Unlike handles DELETE /api/v1/likes
// @Summary Remove a like
// @Tags reactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body reactionRequest true "Target"
// @Success 200 {object} object{success=bool,message=string,like_count=int,dislike_count=int}
// @Router /v1/likes [delete]
func (s *Server) Unlike(c *fiber.Ctx) error {
	return s.react(c, models.PolarityLike, false)
}

// Dislike handles POST /api/v1/dislikes
// @Summary Dislike a post, comment or reply
// @Description Replaces an existing like by the same user.
// @Tags reactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body reactionRequest true "Target"
// @Success 200 {object} object{success=bool,message=string,like_count=int,dislike_count=int}
// @Router /v1/dislikes [post]
func (s *Server) Dislike(c *fiber.Ctx) error {
	return s.react(c, models.PolarityDislike, true)
}

// Undislike handles DELETE /api/v1/dislikes
// @Summary Remove a dislike
// @Tags reactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body reactionRequest true "Target"
// @Success 200 {object} object{success=bool,message=string,like_count=int,dislike_count=int}
// @Router /v1/dislikes [delete]
func (s *Server) Undislike(c *fiber.Ctx) error {
	return s.react(c, models.PolarityDislike, false)
}

func (s *Server) react(c *fiber.Ctx, polarity models.Polarity, add bool) error {
	var req reactionRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	kind, ok := models.ParseTargetKind(req.TargetKind)
	if !ok {
		return models.RespondFromError(c, models.NewValidationError("Invalid target kind"))
	}

	in := service.ReactionInput{
		Actor:     currentActor(c),
		Target:    models.Target{Kind: kind, ID: req.TargetID},
		Polarity:  polarity,
		ChannelID: req.ChannelID,
	}

	var (
		result service.ReactionResult
		err    error
	)
	if add {
		result, err = s.reactionService.AddReaction(c.UserContext(), in)
	} else {
		result, err = s.reactionService.RemoveReaction(c.UserContext(), in)
	}
	if err != nil {
		return models.RespondFromError(c, err)
	}

	s.publishEvent(c.UserContext(), notifications.EventReactionUpdated, s.channelAudience(c.UserContext(), req.ChannelID), fiber.Map{
		"target_kind":   kind,
		"target_id":     req.TargetID,
		"like_count":    result.LikeCount,
		"dislike_count": result.DislikeCount,
	})
	return models.RespondOK(c, fiber.StatusOK, reactionMessage(polarity, add), fiber.Map{
		"like_count":    result.LikeCount,
		"dislike_count": result.DislikeCount,
	})
}

func reactionMessage(polarity models.Polarity, add bool) string {
	switch {
	case polarity == models.PolarityLike && add:
		return "Liked Successfully"
	case polarity == models.PolarityLike:
		return "Like Removed Successfully"
	case add:
		return "Disliked Successfully"
	default:
		return "Dislike Removed Successfully"
	}
}
