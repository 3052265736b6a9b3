package service

import (
	"context"

	"agora/internal/models"
)

// Reads apply the same membership gate as writes: restricted channel content
// is visible to members only.

func (s *ContentService) readableChannel(ctx context.Context, actor models.Actor, channelID uint) error {
	channel, err := s.store.Channels.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if !s.policy.CanAccessChannel(actor, channel) {
		return errNotMember()
	}
	return nil
}

func (s *ContentService) GetPost(ctx context.Context, actor models.Actor, id uint) (*models.Post, error) {
	post, err := s.store.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.readableChannel(ctx, actor, post.ChannelID); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *ContentService) ListChannelPosts(ctx context.Context, actor models.Actor, channelID uint, limit, offset int) ([]models.Post, error) {
	if err := s.readableChannel(ctx, actor, channelID); err != nil {
		return nil, err
	}
	return s.store.Posts.ListByChannel(ctx, channelID, limit, offset)
}

func (s *ContentService) ListComments(ctx context.Context, actor models.Actor, postID uint, limit, offset int) ([]models.Comment, error) {
	channelID, err := s.store.Posts.ChannelOf(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.readableChannel(ctx, actor, channelID); err != nil {
		return nil, err
	}
	return s.store.Comments.ListByPost(ctx, postID, limit, offset)
}

func (s *ContentService) ListReplies(ctx context.Context, actor models.Actor, commentID uint, limit, offset int) ([]models.Reply, error) {
	channelID, err := s.store.Comments.ChannelOf(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.readableChannel(ctx, actor, channelID); err != nil {
		return nil, err
	}
	return s.store.Replies.ListByComment(ctx, commentID, limit, offset)
}
