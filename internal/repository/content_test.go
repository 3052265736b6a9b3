package repository

import (
	"context"
	"testing"
	"time"

	"agora/internal/models"
	"agora/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tree struct {
	channel  *models.Channel
	post     *models.Post
	comments []*models.Comment
	replies  []*models.Reply
}

func buildTree(t *testing.T, s *Store, author *models.User, channelName string) tree {
	t.Helper()
	ctx := context.Background()
	tr := tree{channel: &models.Channel{Name: channelName, Type: models.ChannelOpen}}
	require.NoError(t, s.Channels.Create(ctx, tr.channel))

	tr.post = &models.Post{Title: "title", Body: "post body", UserID: author.ID, ChannelID: tr.channel.ID}
	require.NoError(t, s.Posts.Create(ctx, tr.post))
	for i := 0; i < 2; i++ {
		c := &models.Comment{Body: "comment body", UserID: author.ID, PostID: tr.post.ID}
		require.NoError(t, s.Comments.Create(ctx, c))
		tr.comments = append(tr.comments, c)
		r := &models.Reply{Body: "reply body", UserID: author.ID, CommentID: c.ID, PostID: tr.post.ID}
		require.NoError(t, s.Replies.Create(ctx, r))
		tr.replies = append(tr.replies, r)
	}
	return tr
}

func TestStore_ParentLookups(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewStore(db)
	ctx := context.Background()
	author := testutil.MakeUser(t, db, "author", models.RoleStudent, false)
	tr := buildTree(t, s, author, "general")
	other := buildTree(t, s, author, "other")

	postIDs, err := s.Posts.IDsByChannel(ctx, []uint{tr.channel.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{tr.post.ID}, postIDs)

	commentIDs, err := s.Comments.IDsByPosts(ctx, postIDs)
	require.NoError(t, err)
	assert.Equal(t, []uint{tr.comments[0].ID, tr.comments[1].ID}, commentIDs)

	replyIDs, err := s.Replies.IDsByComments(ctx, commentIDs)
	require.NoError(t, err)
	assert.Len(t, replyIDs, 2)

	authored, err := s.Comments.IDsByAuthor(ctx, author.ID)
	require.NoError(t, err)
	assert.Len(t, authored, 4)

	byPost, err := s.Comments.CountByPost(ctx, authored)
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{tr.post.ID: 2, other.post.ID: 2}, byPost)

	none, err := s.Posts.IDsByChannel(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_ChannelOf(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewStore(db)
	ctx := context.Background()
	author := testutil.MakeUser(t, db, "author", models.RoleStudent, false)
	tr := buildTree(t, s, author, "general")

	got, err := s.Posts.ChannelOf(ctx, tr.post.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.channel.ID, got)

	got, err = s.Comments.ChannelOf(ctx, tr.comments[1].ID)
	require.NoError(t, err)
	assert.Equal(t, tr.channel.ID, got)

	got, err = s.Replies.ChannelOf(ctx, tr.replies[0].ID)
	require.NoError(t, err)
	assert.Equal(t, tr.channel.ID, got)

	_, err = s.Replies.ChannelOf(ctx, 9999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStore_DeleteByIDsIgnoresAbsent(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewStore(db)
	ctx := context.Background()
	author := testutil.MakeUser(t, db, "author", models.RoleStudent, false)
	tr := buildTree(t, s, author, "general")

	n, err := s.Replies.DeleteByIDs(ctx, []uint{tr.replies[0].ID, 12345})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Replies.DeleteByIDs(ctx, []uint{tr.replies[0].ID})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_TransactionRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewStore(db)
	ctx := context.Background()

	err := s.Transaction(ctx, func(tx *Store) error {
		require.NoError(t, tx.Channels.Create(ctx, &models.Channel{Name: "temp", Type: models.ChannelOpen}))
		return models.NewConflictError("abort")
	})
	require.Error(t, err)
	assert.Zero(t, testutil.Count(t, db, &models.Channel{}, ""))
}

func TestChannelRepository_DuplicateName(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewChannelRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Channel{Name: "general", Type: models.ChannelOpen}))
	err := repo.Create(ctx, &models.Channel{Name: "general", Type: models.ChannelRestricted})
	assert.ErrorIs(t, err, models.ErrConflict)

	got, err := repo.GetByName(ctx, "  GENERAL ")
	require.NoError(t, err)
	assert.Equal(t, models.ChannelOpen, got.Type)
}

func TestReactionRepository_UniqueRow(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewReactionRepository(db)
	ctx := context.Background()
	target := models.Target{Kind: models.TargetComment, ID: 3}

	require.NoError(t, repo.Create(ctx, &models.Reaction{UserID: 1, TargetKind: target.Kind, TargetID: target.ID, Polarity: models.PolarityLike}))
	err := repo.Create(ctx, &models.Reaction{UserID: 1, TargetKind: target.Kind, TargetID: target.ID, Polarity: models.PolarityLike})
	assert.ErrorIs(t, err, models.ErrAlreadyReacted)

	exists, err := repo.Exists(ctx, 1, target, models.PolarityDislike)
	require.NoError(t, err)
	assert.False(t, exists)

	removed, err := repo.Delete(ctx, 1, target, models.PolarityLike)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.Delete(ctx, 1, target, models.PolarityLike)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRefreshTokenRepository_Rotate(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()
	exp := timeNowPlusHour()

	require.NoError(t, repo.Replace(ctx, 1, "a", exp))
	require.NoError(t, repo.Replace(ctx, 1, "b", exp))
	assert.Equal(t, int64(1), testutil.Count(t, db, &models.RefreshToken{}, "user_id = ?", 1))

	ok, err := repo.Rotate(ctx, 1, "a", "c", exp)
	require.NoError(t, err)
	assert.False(t, ok, "superseded token must not rotate")

	ok, err = repo.Rotate(ctx, 1, "b", "c", exp)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Rotate(ctx, 1, "b", "d", exp)
	require.NoError(t, err)
	assert.False(t, ok, "a rotated token is single use")
}

func timeNowPlusHour() time.Time {
	return time.Now().Add(time.Hour)
}
