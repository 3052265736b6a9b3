package service

import (
	"context"
	"testing"

	"agora/internal/models"
	"agora/internal/policy"
	"agora/internal/repository"
	"agora/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type env struct {
	db        *gorm.DB
	store     *repository.Store
	cascade   *CascadeService
	content   *ContentService
	reactions *ReactionService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithPolicy(t, policy.Strict)
}

func newEnvWithPolicy(t *testing.T, p policy.Policy) *env {
	t.Helper()
	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	cascade := NewCascadeService(store, 0)
	return &env{
		db:        db,
		store:     store,
		cascade:   cascade,
		content:   NewContentService(store, nil, p, cascade),
		reactions: NewReactionService(store),
	}
}

func (e *env) user(t *testing.T, name string, role models.Role, private bool) models.Actor {
	t.Helper()
	return testutil.MakeUser(t, e.db, name, role, private).Actor()
}

func (e *env) channel(t *testing.T, name string, typ models.ChannelType) *models.Channel {
	t.Helper()
	return testutil.MakeChannel(t, e.db, name, typ)
}

func (e *env) post(t *testing.T, actor models.Actor, channelID uint, body string) *models.Post {
	t.Helper()
	p, err := e.content.CreatePost(context.Background(), CreatePostInput{
		Actor: actor, ChannelID: channelID, Title: "A title", Body: body,
	})
	require.NoError(t, err)
	return p
}

func (e *env) comment(t *testing.T, actor models.Actor, postID uint, body string) *models.Comment {
	t.Helper()
	c, err := e.content.CreateComment(context.Background(), CreateCommentInput{
		Actor: actor, PostID: postID, Body: body,
	})
	require.NoError(t, err)
	return c
}

func (e *env) reply(t *testing.T, actor models.Actor, commentID uint, body string) *models.Reply {
	t.Helper()
	r, err := e.content.CreateReply(context.Background(), CreateReplyInput{
		Actor: actor, CommentID: commentID, Body: body,
	})
	require.NoError(t, err)
	return r
}

func (e *env) like(t *testing.T, actor models.Actor, kind models.TargetKind, id, channelID uint) ReactionResult {
	t.Helper()
	res, err := e.reactions.AddReaction(context.Background(), ReactionInput{
		Actor:     actor,
		Target:    models.Target{Kind: kind, ID: id},
		Polarity:  models.PolarityLike,
		ChannelID: channelID,
	})
	require.NoError(t, err)
	return res
}

func (e *env) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	return testutil.Count(t, e.db, model, query, args...)
}

func (e *env) reload(t *testing.T, dest interface{}) {
	t.Helper()
	testutil.Reload(t, e.db, dest)
}
