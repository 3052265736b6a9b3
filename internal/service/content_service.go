package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/policy"
	"agora/internal/repository"
	"agora/internal/validation"
)

const maxTitleLen = 300

// ContentService creates, edits and deletes posts, comments and replies.
type ContentService struct {
	store   *repository.Store
	filter  *validation.ContentFilter
	policy  policy.Policy
	cascade *CascadeService
}

type CreatePostInput struct {
	Actor     models.Actor
	ChannelID uint
	Title     string
	Body      string
}

type CreateCommentInput struct {
	Actor  models.Actor
	PostID uint
	Body   string
}

type CreateReplyInput struct {
	Actor     models.Actor
	CommentID uint
	Body      string
}

// EditInput edits a node's body. Title is only read for posts; an empty
// title keeps the stored one.
type EditInput struct {
	Actor models.Actor
	ID    uint
	Title string
	Body  string
}

type DeleteInput struct {
	Actor models.Actor
	ID    uint
}

func NewContentService(store *repository.Store, filter *validation.ContentFilter, p policy.Policy, cascade *CascadeService) *ContentService {
	if filter == nil {
		filter = validation.NewContentFilter()
	}
	return &ContentService{store: store, filter: filter, policy: p, cascade: cascade}
}

func (s *ContentService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	body := strings.TrimSpace(in.Body)
	if in.ChannelID == 0 || title == "" || body == "" {
		return nil, models.NewMissingFieldsError()
	}
	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}

	post := &models.Post{Title: title, Body: body, UserID: in.Actor.ID, ChannelID: in.ChannelID}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := enterChannel(ctx, tx, in.Actor, in.ChannelID); err != nil {
			return err
		}
		if err := s.checkTitle(title); err != nil {
			return err
		}
		if err := checkBody(s.filter, body); err != nil {
			return err
		}
		if err := tx.Posts.Create(ctx, post); err != nil {
			return err
		}
		found, err := tx.Counters.Increment(ctx, "channels", in.ChannelID, "post_count", 1)
		if err != nil {
			return err
		}
		if !found {
			return models.NewNotFoundError("Channel", in.ChannelID)
		}
		_, err = tx.Counters.Increment(ctx, "users", in.Actor.ID, "post_count", 1)
		return err
	})
	if err != nil {
		return nil, err
	}
	observability.ContentCreated.WithLabelValues("post").Inc()
	return post, nil
}

func (s *ContentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	body := strings.TrimSpace(in.Body)
	if in.PostID == 0 || body == "" {
		return nil, models.NewMissingFieldsError()
	}
	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}

	comment := &models.Comment{Body: body, UserID: in.Actor.ID, PostID: in.PostID}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		channelID, err := tx.Posts.ChannelOf(ctx, in.PostID)
		if err != nil {
			return err
		}
		if _, err := enterChannel(ctx, tx, in.Actor, channelID); err != nil {
			return err
		}
		if err := checkBody(s.filter, body); err != nil {
			return err
		}
		dup, err := tx.Comments.ExistsDuplicate(ctx, in.PostID, in.Actor.ID, body)
		if err != nil {
			return err
		}
		if dup {
			return models.NewDuplicateError("Duplicate comment")
		}
		if err := tx.Comments.Create(ctx, comment); err != nil {
			return err
		}
		found, err := tx.Counters.Increment(ctx, "posts", in.PostID, "comment_count", 1)
		if err != nil {
			return err
		}
		if !found {
			return models.NewNotFoundError("Post", in.PostID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.ContentCreated.WithLabelValues("comment").Inc()
	return comment, nil
}

func (s *ContentService) CreateReply(ctx context.Context, in CreateReplyInput) (*models.Reply, error) {
	body := strings.TrimSpace(in.Body)
	if in.CommentID == 0 || body == "" {
		return nil, models.NewMissingFieldsError()
	}
	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}

	reply := &models.Reply{Body: body, UserID: in.Actor.ID, CommentID: in.CommentID}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		parent, err := tx.Comments.GetByID(ctx, in.CommentID)
		if err != nil {
			return err
		}
		channelID, err := tx.Posts.ChannelOf(ctx, parent.PostID)
		if err != nil {
			return err
		}
		if _, err := enterChannel(ctx, tx, in.Actor, channelID); err != nil {
			return err
		}
		if err := checkBody(s.filter, body); err != nil {
			return err
		}
		dup, err := tx.Replies.ExistsDuplicate(ctx, in.CommentID, in.Actor.ID, body)
		if err != nil {
			return err
		}
		if dup {
			return models.NewDuplicateError("Duplicate reply")
		}
		reply.PostID = parent.PostID
		if err := tx.Replies.Create(ctx, reply); err != nil {
			return err
		}
		found, err := tx.Counters.Increment(ctx, "comments", in.CommentID, "reply_count", 1)
		if err != nil {
			return err
		}
		if !found {
			return models.NewNotFoundError("Comment", in.CommentID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.ContentCreated.WithLabelValues("reply").Inc()
	return reply, nil
}

// EditPost rewrites title and body. Authorization is settled before the new
// content is inspected, so a non-author never learns whether it was valid.
func (s *ContentService) EditPost(ctx context.Context, in EditInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	body := strings.TrimSpace(in.Body)
	if in.ID == 0 || body == "" {
		return nil, models.NewMissingFieldsError()
	}
	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}

	var post *models.Post
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if post, err = tx.Posts.GetByID(ctx, in.ID); err != nil {
			return err
		}
		if err := s.authorizeEdit(ctx, tx, in.Actor, post.ChannelID, post.UserID); err != nil {
			return err
		}
		if title == "" {
			title = post.Title
		}
		if err := s.checkTitle(title); err != nil {
			return err
		}
		if err := checkBody(s.filter, body); err != nil {
			return err
		}
		if title == post.Title && body == post.Body {
			return models.NewUnchangedError()
		}
		post.Title, post.Body = title, body
		if err := tx.Posts.UpdateContent(ctx, post); err != nil {
			return err
		}
		post, err = tx.Posts.GetByID(ctx, in.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *ContentService) EditComment(ctx context.Context, in EditInput) (*models.Comment, error) {
	body := strings.TrimSpace(in.Body)
	if in.ID == 0 || body == "" {
		return nil, models.NewMissingFieldsError()
	}
	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}

	var comment *models.Comment
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if comment, err = tx.Comments.GetByID(ctx, in.ID); err != nil {
			return err
		}
		channelID, err := tx.Posts.ChannelOf(ctx, comment.PostID)
		if err != nil {
			return err
		}
		if err := s.authorizeEdit(ctx, tx, in.Actor, channelID, comment.UserID); err != nil {
			return err
		}
		if err := checkBody(s.filter, body); err != nil {
			return err
		}
		if body == comment.Body {
			return models.NewUnchangedError()
		}
		comment.Body = body
		if err := tx.Comments.UpdateBody(ctx, comment); err != nil {
			return err
		}
		comment, err = tx.Comments.GetByID(ctx, in.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *ContentService) EditReply(ctx context.Context, in EditInput) (*models.Reply, error) {
	body := strings.TrimSpace(in.Body)
	if in.ID == 0 || body == "" {
		return nil, models.NewMissingFieldsError()
	}
	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}

	var reply *models.Reply
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if reply, err = tx.Replies.GetByID(ctx, in.ID); err != nil {
			return err
		}
		channelID, err := tx.Posts.ChannelOf(ctx, reply.PostID)
		if err != nil {
			return err
		}
		if err := s.authorizeEdit(ctx, tx, in.Actor, channelID, reply.UserID); err != nil {
			return err
		}
		if err := checkBody(s.filter, body); err != nil {
			return err
		}
		if body == reply.Body {
			return models.NewUnchangedError()
		}
		reply.Body = body
		if err := tx.Replies.UpdateBody(ctx, reply); err != nil {
			return err
		}
		reply, err = tx.Replies.GetByID(ctx, in.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *ContentService) DeletePost(ctx context.Context, in DeleteInput) (CascadeReport, error) {
	if in.ID == 0 {
		return CascadeReport{}, models.NewMissingFieldsError()
	}
	if err := requireActor(in.Actor); err != nil {
		return CascadeReport{}, err
	}
	post, err := s.store.Posts.GetByID(ctx, in.ID)
	if err != nil {
		return CascadeReport{}, err
	}
	if err := s.authorizeDelete(ctx, in.Actor, post.ChannelID, post.UserID); err != nil {
		return CascadeReport{}, err
	}
	return s.cascade.DeletePostTree(ctx, in.ID)
}

func (s *ContentService) DeleteComment(ctx context.Context, in DeleteInput) (CascadeReport, error) {
	if in.ID == 0 {
		return CascadeReport{}, models.NewMissingFieldsError()
	}
	if err := requireActor(in.Actor); err != nil {
		return CascadeReport{}, err
	}
	comment, err := s.store.Comments.GetByID(ctx, in.ID)
	if err != nil {
		return CascadeReport{}, err
	}
	channelID, err := s.store.Posts.ChannelOf(ctx, comment.PostID)
	if err != nil {
		return CascadeReport{}, err
	}
	if err := s.authorizeDelete(ctx, in.Actor, channelID, comment.UserID); err != nil {
		return CascadeReport{}, err
	}
	return s.cascade.DeleteCommentTree(ctx, in.ID)
}

func (s *ContentService) DeleteReply(ctx context.Context, in DeleteInput) (CascadeReport, error) {
	if in.ID == 0 {
		return CascadeReport{}, models.NewMissingFieldsError()
	}
	if err := requireActor(in.Actor); err != nil {
		return CascadeReport{}, err
	}
	reply, err := s.store.Replies.GetByID(ctx, in.ID)
	if err != nil {
		return CascadeReport{}, err
	}
	channelID, err := s.store.Posts.ChannelOf(ctx, reply.PostID)
	if err != nil {
		return CascadeReport{}, err
	}
	if err := s.authorizeDelete(ctx, in.Actor, channelID, reply.UserID); err != nil {
		return CascadeReport{}, err
	}
	return s.cascade.DeleteReplyTree(ctx, in.ID)
}

// authorizeEdit: membership, then strict authorship. Admins never edit
// content they did not write.
func (s *ContentService) authorizeEdit(ctx context.Context, tx *repository.Store, actor models.Actor, channelID, authorID uint) error {
	if _, err := enterChannel(ctx, tx, actor, channelID); err != nil {
		return err
	}
	if !policy.CanActOnContent(actor, authorID) {
		return errNotAuthor()
	}
	return nil
}

func (s *ContentService) authorizeDelete(ctx context.Context, actor models.Actor, channelID, authorID uint) error {
	channel, err := s.store.Channels.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if !s.policy.CanAccessChannel(actor, channel) {
		return errNotMember()
	}
	if !s.policy.CanDeleteContent(actor, authorID) {
		return errNotAuthor()
	}
	return nil
}

func (s *ContentService) checkTitle(title string) error {
	if utf8.RuneCountInString(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 300 characters)")
	}
	if s.filter.IsProfane(title) {
		return models.NewInvalidContentError(string(validation.Inappropriate))
	}
	return nil
}
