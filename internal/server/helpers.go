package server

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"unicode"

	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/notifications"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "userId" -> "Invalid user ID", "commentId" -> "Invalid comment ID").
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		prefix := param[:len(param)-2]
		words := splitCamel(prefix)
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// newValidator reports struct fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseBody decodes and validates a JSON request body. Like parseID it writes
// the 400 itself and returns errResponseWritten.
func (s *Server) parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	if s.validate == nil {
		s.validate = newValidator()
	}
	if err := s.validate.Struct(dest); err != nil {
		_ = models.RespondFromError(c, validationError(err))
		return errResponseWritten
	}
	return nil
}

// validationError maps validator failures onto the API's error codes: a
// missing required field is MISSING_FIELDS, anything else VALIDATION_ERROR.
func validationError(err error) *models.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return models.NewValidationError("Invalid request body")
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return models.NewMissingFieldsError()
		}
	}
	return models.NewValidationError("Invalid " + verrs[0].Field())
}

// currentActor returns the caller resolved by AuthRequired; handlers behind
// the auth middleware always have one.
func currentActor(c *fiber.Ctx) models.Actor {
	actor, _ := middleware.ActorFrom(c)
	return actor
}

// publishEvent fans a realtime event out. Best effort: failures are logged
// and never reach the caller.
func (s *Server) publishEvent(ctx context.Context, eventType string, audience notifications.Audience, payload fiber.Map) {
	if s.notifier == nil {
		return
	}
	// detach from the request; fasthttp recycles its context after the response
	ctx = context.WithoutCancel(ctx)
	ev := notifications.Event{Type: eventType, Payload: payload}
	if err := s.notifier.PublishEvent(ctx, ev, audience); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish event",
			slog.String("type", eventType), slog.String("error", err.Error()))
	}
}

// channelAudience scopes events from a restricted channel to members. An
// unresolvable channel is treated as restricted.
func (s *Server) channelAudience(ctx context.Context, channelID uint) notifications.Audience {
	channel, err := s.store.Channels.GetByID(ctx, channelID)
	if err != nil || channel.Restricted() {
		return notifications.AudienceMembers
	}
	return notifications.AudienceEveryone
}

// contentAudience resolves the channel holding a post, comment or reply.
// Deletes call it before the row is gone.
func (s *Server) contentAudience(ctx context.Context, kind models.TargetKind, id uint) notifications.Audience {
	postID := id
	switch kind {
	case models.TargetComment:
		comment, err := s.store.Comments.GetByID(ctx, id)
		if err != nil {
			return notifications.AudienceMembers
		}
		postID = comment.PostID
	case models.TargetReply:
		reply, err := s.store.Replies.GetByID(ctx, id)
		if err != nil {
			return notifications.AudienceMembers
		}
		postID = reply.PostID
	}
	channelID, err := s.store.Posts.ChannelOf(ctx, postID)
	if err != nil {
		return notifications.AudienceMembers
	}
	return s.channelAudience(ctx, channelID)
}
