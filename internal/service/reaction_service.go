package service

import (
	"context"
	"errors"

	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/repository"
)

// ReactionInput identifies one like or dislike action. ChannelID is the
// channel the client believes the target lives in; it must match.
type ReactionInput struct {
	Actor     models.Actor
	Target    models.Target
	Polarity  models.Polarity
	ChannelID uint
}

// ReactionResult carries the target's counters after the operation.
type ReactionResult struct {
	LikeCount    int `json:"like_count"`
	DislikeCount int `json:"dislike_count"`
}

type targetHandler struct {
	table     string
	channelOf func(ctx context.Context, tx *repository.Store, id uint) (uint, error)
}

var targetHandlers = map[models.TargetKind]targetHandler{
	models.TargetPost: {
		table: "posts",
		channelOf: func(ctx context.Context, tx *repository.Store, id uint) (uint, error) {
			return tx.Posts.ChannelOf(ctx, id)
		},
	},
	models.TargetComment: {
		table: "comments",
		channelOf: func(ctx context.Context, tx *repository.Store, id uint) (uint, error) {
			return tx.Comments.ChannelOf(ctx, id)
		},
	},
	models.TargetReply: {
		table: "replies",
		channelOf: func(ctx context.Context, tx *repository.Store, id uint) (uint, error) {
			return tx.Replies.ChannelOf(ctx, id)
		},
	},
}

// ReactionService maintains the reaction ledger: at most one reaction per
// (user, target), mirrored in the target's like/dislike counters.
type ReactionService struct {
	store *repository.Store
}

func NewReactionService(store *repository.Store) *ReactionService {
	return &ReactionService{store: store}
}

func (in ReactionInput) validate() (targetHandler, error) {
	h, ok := targetHandlers[in.Target.Kind]
	if !ok || in.Target.ID == 0 || in.ChannelID == 0 || in.Polarity == "" {
		return targetHandler{}, models.NewMissingFieldsError()
	}
	if in.Polarity != models.PolarityLike && in.Polarity != models.PolarityDislike {
		return targetHandler{}, models.NewValidationError("Invalid reaction type")
	}
	if err := requireActor(in.Actor); err != nil {
		return targetHandler{}, err
	}
	return h, nil
}

// locate checks that the target exists inside the claimed channel.
func (h targetHandler) locate(ctx context.Context, tx *repository.Store, in ReactionInput) error {
	channelID, err := h.channelOf(ctx, tx, in.Target.ID)
	if err != nil {
		return err
	}
	if channelID != in.ChannelID {
		return models.NewNotFoundError(string(in.Target.Kind), in.Target.ID)
	}
	return nil
}

// AddReaction records a like or dislike. An existing reaction of the other
// polarity is cleared in the same transaction, so switching is one call.
func (s *ReactionService) AddReaction(ctx context.Context, in ReactionInput) (ReactionResult, error) {
	h, err := in.validate()
	if err != nil {
		return ReactionResult{}, err
	}

	var result ReactionResult
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := enterChannel(ctx, tx, in.Actor, in.ChannelID); err != nil {
			return err
		}
		already, err := tx.Reactions.Exists(ctx, in.Actor.ID, in.Target, in.Polarity)
		if err != nil {
			return err
		}
		if already {
			return models.NewAlreadyReactedError(in.Polarity)
		}
		if err := h.locate(ctx, tx, in); err != nil {
			return err
		}

		found, err := tx.Counters.Increment(ctx, h.table, in.Target.ID, in.Polarity.CounterColumn(), 1)
		if err != nil {
			return err
		}
		if !found {
			return models.NewNotFoundError(string(in.Target.Kind), in.Target.ID)
		}
		if err := tx.Reactions.Create(ctx, &models.Reaction{
			UserID:     in.Actor.ID,
			TargetKind: in.Target.Kind,
			TargetID:   in.Target.ID,
			Polarity:   in.Polarity,
		}); err != nil {
			return err
		}

		opposite := in.Polarity.Opposite()
		cleared, err := tx.Reactions.Delete(ctx, in.Actor.ID, in.Target, opposite)
		if err != nil {
			return err
		}
		if cleared {
			if _, err := tx.Counters.Increment(ctx, h.table, in.Target.ID, opposite.CounterColumn(), -1); err != nil {
				return err
			}
		}

		result.LikeCount, result.DislikeCount, err = tx.Counters.Snapshot(ctx, in.Target)
		return err
	})
	recordReaction("add", in, err)
	if err != nil {
		return ReactionResult{}, err
	}
	return result, nil
}

// RemoveReaction deletes the actor's reaction of the given polarity.
func (s *ReactionService) RemoveReaction(ctx context.Context, in ReactionInput) (ReactionResult, error) {
	h, err := in.validate()
	if err != nil {
		return ReactionResult{}, err
	}

	var result ReactionResult
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := enterChannel(ctx, tx, in.Actor, in.ChannelID); err != nil {
			return err
		}
		if err := h.locate(ctx, tx, in); err != nil {
			return err
		}
		removed, err := tx.Reactions.Delete(ctx, in.Actor.ID, in.Target, in.Polarity)
		if err != nil {
			return err
		}
		if !removed {
			return models.NewNotReactedError(in.Polarity)
		}
		if _, err := tx.Counters.Increment(ctx, h.table, in.Target.ID, in.Polarity.CounterColumn(), -1); err != nil {
			return err
		}

		result.LikeCount, result.DislikeCount, err = tx.Counters.Snapshot(ctx, in.Target)
		return err
	})
	recordReaction("remove", in, err)
	if err != nil {
		return ReactionResult{}, err
	}
	return result, nil
}

func recordReaction(action string, in ReactionInput, err error) {
	outcome := "ok"
	var appErr *models.AppError
	switch {
	case err == nil:
	case errors.As(err, &appErr):
		outcome = appErr.Code
	default:
		outcome = models.CodeInternal
	}
	observability.ReactionOps.WithLabelValues(action, string(in.Polarity), string(in.Target.Kind), outcome).Inc()
}
