package service

import (
	"context"
	"testing"

	"agora/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postTree struct {
	channel  *models.Channel
	post     *models.Post
	comments []*models.Comment
	replies  []*models.Reply
}

// seedTree builds a post with two comments, one reply each, and one like on
// every node.
func seedTree(t *testing.T, e *env, author, liker models.Actor, channel *models.Channel) postTree {
	t.Helper()
	tr := postTree{channel: channel, post: e.post(t, author, channel.ID, "root post body")}
	e.like(t, liker, models.TargetPost, tr.post.ID, channel.ID)
	for _, body := range []string{"first comment", "second comment"} {
		cm := e.comment(t, author, tr.post.ID, body)
		r := e.reply(t, author, cm.ID, "reply to "+body)
		e.like(t, liker, models.TargetComment, cm.ID, channel.ID)
		e.like(t, liker, models.TargetReply, r.ID, channel.ID)
		tr.comments = append(tr.comments, cm)
		tr.replies = append(tr.replies, r)
	}
	return tr
}

func (tr postTree) nodeIDs() (commentIDs, replyIDs []uint) {
	for _, c := range tr.comments {
		commentIDs = append(commentIDs, c.ID)
	}
	for _, r := range tr.replies {
		replyIDs = append(replyIDs, r.ID)
	}
	return commentIDs, replyIDs
}

func assertTreeGone(t *testing.T, e *env, tr postTree) {
	t.Helper()
	commentIDs, replyIDs := tr.nodeIDs()
	assert.Zero(t, e.count(t, &models.Post{}, "id = ?", tr.post.ID))
	assert.Zero(t, e.count(t, &models.Comment{}, "post_id = ?", tr.post.ID))
	assert.Zero(t, e.count(t, &models.Reply{}, "post_id = ?", tr.post.ID))
	assert.Zero(t, e.count(t, &models.Reaction{}, "target_kind = ? AND target_id = ?", models.TargetPost, tr.post.ID))
	assert.Zero(t, e.count(t, &models.Reaction{}, "target_kind = ? AND target_id IN ?", models.TargetComment, commentIDs))
	assert.Zero(t, e.count(t, &models.Reaction{}, "target_kind = ? AND target_id IN ?", models.TargetReply, replyIDs))
}

func TestCascade_DeletePost(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.user(t, "alice", models.RoleStudent, false)
	liker := e.user(t, "bob", models.RoleStudent, false)
	c := e.channel(t, "general", models.ChannelOpen)
	keep := e.post(t, author, c.ID, "unrelated post")
	tr := seedTree(t, e, author, liker, c)

	report, err := e.content.DeletePost(ctx, DeleteInput{Actor: author, ID: tr.post.ID})
	require.NoError(t, err)
	assert.Equal(t, CascadeReport{Posts: 1, Comments: 2, Replies: 2, Reactions: 5}, report)

	assertTreeGone(t, e, tr)
	e.reload(t, c)
	assert.Equal(t, 1, c.PostCount)
	authorRow := &models.User{ID: author.ID}
	e.reload(t, authorRow)
	assert.Equal(t, 1, authorRow.PostCount)
	assert.Equal(t, int64(1), e.count(t, &models.Post{}, "id = ?", keep.ID))
}

func TestCascade_DeleteComment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.user(t, "alice", models.RoleStudent, false)
	liker := e.user(t, "bob", models.RoleStudent, false)
	c := e.channel(t, "general", models.ChannelOpen)
	tr := seedTree(t, e, author, liker, c)

	report, err := e.content.DeleteComment(ctx, DeleteInput{Actor: author, ID: tr.comments[0].ID})
	require.NoError(t, err)
	assert.Equal(t, CascadeReport{Comments: 1, Replies: 1, Reactions: 2}, report)

	e.reload(t, tr.post)
	assert.Equal(t, 1, tr.post.CommentCount)
	assert.Equal(t, 1, tr.post.LikeCount)
	assert.Zero(t, e.count(t, &models.Reply{}, "comment_id = ?", tr.comments[0].ID))
	assert.Equal(t, int64(1), e.count(t, &models.Reply{}, "comment_id = ?", tr.comments[1].ID))
}

func TestCascade_RerunOnPartiallyDeletedTree(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.user(t, "alice", models.RoleStudent, false)
	liker := e.user(t, "bob", models.RoleStudent, false)
	c := e.channel(t, "general", models.ChannelOpen)
	tr := seedTree(t, e, author, liker, c)

	// simulate an interrupted cascade: reactions and replies went, the rest stayed
	_, replyIDs := tr.nodeIDs()
	require.NoError(t, e.db.Where("target_kind = ?", models.TargetReply).Delete(&models.Reaction{}).Error)
	require.NoError(t, e.db.Where("id IN ?", replyIDs).Delete(&models.Reply{}).Error)

	_, err := e.cascade.DeletePostTree(ctx, tr.post.ID)
	require.NoError(t, err)
	assertTreeGone(t, e, tr)

	report, err := e.cascade.DeletePostTree(ctx, tr.post.ID)
	require.NoError(t, err)
	assert.Equal(t, CascadeReport{}, report)

	e.reload(t, c)
	assert.Equal(t, 0, c.PostCount)
}

func TestCascade_DeleteChannel(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", models.RoleStudent, false)
	bob := e.user(t, "bob", models.RoleStudent, false)
	c := e.channel(t, "general", models.ChannelOpen)
	other := e.channel(t, "other", models.ChannelOpen)

	seedTree(t, e, alice, bob, c)
	seedTree(t, e, alice, bob, c)
	seedTree(t, e, bob, alice, c)
	survivor := e.post(t, alice, other.ID, "elsewhere post")

	report, err := e.cascade.DeleteChannelTree(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Channels)
	assert.Equal(t, int64(3), report.Posts)
	assert.Equal(t, int64(6), report.Comments)
	assert.Equal(t, int64(6), report.Replies)
	assert.Equal(t, int64(15), report.Reactions)

	assert.Zero(t, e.count(t, &models.Channel{}, "id = ?", c.ID))
	assert.Equal(t, int64(1), e.count(t, &models.Post{}, ""))
	assert.Zero(t, e.count(t, &models.Reaction{}, ""))

	a, b := &models.User{ID: alice.ID}, &models.User{ID: bob.ID}
	e.reload(t, a)
	e.reload(t, b)
	assert.Equal(t, 1, a.PostCount)
	assert.Equal(t, 0, b.PostCount)
	e.reload(t, survivor)
	assert.Equal(t, other.ID, survivor.ChannelID)
}

func TestCascade_DeleteAccount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", models.RoleStudent, false)
	bob := e.user(t, "bob", models.RoleStudent, false)
	c := e.channel(t, "general", models.ChannelOpen)
	other := e.channel(t, "other", models.ChannelOpen)

	mine := seedTree(t, e, alice, bob, c)
	theirs := e.post(t, bob, other.ID, "bob's post")
	e.like(t, alice, models.TargetPost, theirs.ID, other.ID)
	aliceComment := e.comment(t, alice, theirs.ID, "alice was here")
	e.reply(t, bob, aliceComment.ID, "bob answers alice")

	accounts := NewAccountService(e.store, e.cascade)
	report, err := accounts.DeleteAccount(ctx, alice, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Users)

	assertTreeGone(t, e, mine)
	assert.Zero(t, e.count(t, &models.User{}, "id = ?", alice.ID))
	assert.Zero(t, e.count(t, &models.Reaction{}, "user_id = ?", alice.ID))
	assert.Zero(t, e.count(t, &models.Comment{}, "id = ?", aliceComment.ID))
	assert.Zero(t, e.count(t, &models.Reply{}, "comment_id = ?", aliceComment.ID))

	e.reload(t, theirs)
	assert.Equal(t, 0, theirs.LikeCount)
	assert.Equal(t, 0, theirs.CommentCount)
	e.reload(t, c)
	assert.Equal(t, 0, c.PostCount)
	e.reload(t, other)
	assert.Equal(t, 1, other.PostCount)
}

func TestAccountService_Authorization(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	student := e.user(t, "student", models.RoleStudent, false)
	victim := e.user(t, "victim", models.RoleStudent, false)
	admin := e.user(t, "admin", models.RoleAdmin, false)
	root := e.user(t, "root", models.RoleSuperAdmin, false)
	accounts := NewAccountService(e.store, e.cascade)

	_, err := accounts.DeleteAccount(ctx, student, 0)
	assert.ErrorIs(t, err, models.ErrMissingFields)
	_, err = accounts.DeleteAccount(ctx, student, 999)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = accounts.DeleteAccount(ctx, student, victim.ID)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = accounts.DeleteAccount(ctx, admin, root.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = accounts.DeleteAccount(ctx, admin, victim.ID)
	require.NoError(t, err)
	assert.Zero(t, e.count(t, &models.User{}, "id = ?", victim.ID))
}
