package service

import (
	"context"
	"testing"

	"agora/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileService_FixesDrift(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "alice", models.RoleStudent, false)
	c := e.channel(t, "general", models.ChannelOpen)
	p := e.post(t, u, c.ID, "hello everyone")
	cm := e.comment(t, u, p.ID, "a comment")
	e.like(t, u, models.TargetComment, cm.ID, c.ID)

	svc := NewReconcileService(e.store)
	report, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Total())

	require.NoError(t, e.db.Model(&models.Post{}).Where("id = ?", p.ID).UpdateColumn("comment_count", 7).Error)
	require.NoError(t, e.db.Model(&models.Comment{}).Where("id = ?", cm.ID).UpdateColumn("like_count", 0).Error)
	require.NoError(t, e.db.Model(&models.Channel{}).Where("id = ?", c.ID).UpdateColumn("post_count", 3).Error)

	report, err = svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), report.Total())
	assert.Equal(t, int64(1), report["posts.comment_count"])
	assert.Equal(t, int64(1), report["comments.like_count"])
	assert.Equal(t, int64(1), report["channels.post_count"])

	e.reload(t, p)
	e.reload(t, cm)
	e.reload(t, c)
	assert.Equal(t, 1, p.CommentCount)
	assert.Equal(t, 1, cm.LikeCount)
	assert.Equal(t, 1, c.PostCount)
}
