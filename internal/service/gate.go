// Package service holds the moderation engine: every mutation of the content
// hierarchy and the reaction ledger is sequenced here.
package service

import (
	"context"

	"agora/internal/models"
	"agora/internal/policy"
	"agora/internal/repository"
	"agora/internal/validation"
)

func errNotMember() error {
	return models.NewUnauthorizedError("Not authorized to participate in this channel")
}

func errNotAuthor() error {
	return models.NewUnauthorizedError("Not authorized to modify this content")
}

func requireActor(actor models.Actor) error {
	if actor.ID == 0 {
		return models.NewUnauthenticatedError("Authentication required")
	}
	return nil
}

// enterChannel loads a channel and applies the strict membership gate.
func enterChannel(ctx context.Context, tx *repository.Store, actor models.Actor, channelID uint) (*models.Channel, error) {
	channel, err := tx.Channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessChannel(actor, channel) {
		return nil, errNotMember()
	}
	return channel, nil
}

// checkBody turns a content verdict into an INVALID_CONTENT error.
func checkBody(filter *validation.ContentFilter, body string) error {
	if verdict := filter.CheckBody(body); verdict != validation.Valid {
		return models.NewInvalidContentError(string(verdict))
	}
	return nil
}
