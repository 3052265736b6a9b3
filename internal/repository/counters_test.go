package repository

import (
	"context"
	"errors"
	"testing"

	"agora/internal/models"
	"agora/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters_Increment_IssuesSingleUpdate(t *testing.T) {
	db, mock := setupMockDB(t)
	counters := NewCounters(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "posts" SET "like_count"=CASE WHEN like_count \+ \$1 < 0 THEN 0 ELSE like_count \+ \$2 END WHERE id = \$3`).
		WithArgs(1, 1, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	found, err := counters.Increment(context.Background(), "posts", 7, "like_count", 1)
	require.NoError(t, err)
	assert.True(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCounters_Increment_ReportsMissingRow(t *testing.T) {
	db, mock := setupMockDB(t)
	counters := NewCounters(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "comments" SET "reply_count"=`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	found, err := counters.Increment(context.Background(), "comments", 3, "reply_count", -1)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCounters_RejectsUnknownColumn(t *testing.T) {
	db, mock := setupMockDB(t)
	counters := NewCounters(db)

	_, err := counters.Increment(context.Background(), "posts", 1, "password", 1)
	assert.ErrorIs(t, err, models.ErrInternal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCounters_FloorAtZero(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	user := testutil.MakeUser(t, db, "author", models.RoleStudent, false)
	channel := testutil.MakeChannel(t, db, "general", models.ChannelOpen)
	post := &models.Post{Title: "t", Body: "body", UserID: user.ID, ChannelID: channel.ID}
	require.NoError(t, db.Create(post).Error)

	counters := NewCounters(db)
	found, err := counters.Increment(ctx, "posts", post.ID, "dislike_count", -3)
	require.NoError(t, err)
	assert.True(t, found)

	testutil.Reload(t, db, post)
	assert.Equal(t, 0, post.DislikeCount)

	_, err = counters.Increment(ctx, "posts", post.ID, "like_count", 2)
	require.NoError(t, err)
	likes, dislikes, err := counters.Snapshot(ctx, models.Target{Kind: models.TargetPost, ID: post.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, likes)
	assert.Equal(t, 0, dislikes)

	_, _, err = counters.Snapshot(ctx, models.Target{Kind: models.TargetReply, ID: 404})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestCounters_Recount(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	user := testutil.MakeUser(t, db, "author", models.RoleStudent, false)
	channel := testutil.MakeChannel(t, db, "general", models.ChannelOpen)
	post := &models.Post{Title: "t", Body: "body", UserID: user.ID, ChannelID: channel.ID, LikeCount: 5}
	require.NoError(t, db.Create(post).Error)
	require.NoError(t, db.Create(&models.Reaction{UserID: user.ID, TargetKind: models.TargetPost, TargetID: post.ID, Polarity: models.PolarityLike}).Error)

	spec := RecountSpec{
		Table:  "posts",
		Column: "like_count",
		Source: "SELECT COUNT(*) FROM reactions WHERE reactions.target_kind = ? AND reactions.target_id = posts.id AND reactions.polarity = ?",
		Args:   []interface{}{models.TargetPost, models.PolarityLike},
	}
	drift, err := NewCounters(db).Recount(ctx, spec)
	require.NoError(t, err)
	assert.Equal(t, int64(1), drift)

	testutil.Reload(t, db, post)
	assert.Equal(t, 1, post.LikeCount)

	drift, err = NewCounters(db).Recount(ctx, spec)
	require.NoError(t, err)
	assert.Zero(t, drift)
}
