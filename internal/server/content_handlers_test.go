package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"agora/internal/config"
	"agora/internal/models"
	"agora/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type forum struct {
	*testServer
	admin, alice, bob string
	aliceID           uint
	channelID         uint
}

func newForum(t *testing.T) *forum {
	t.Helper()
	ts := newTestServer(t)
	f := &forum{testServer: ts}
	f.admin, _ = ts.signup(t, "admin", models.RoleAdmin, false)
	f.alice, f.aliceID = ts.signup(t, "alice", models.RoleStudent, false)
	f.bob, _ = ts.signup(t, "bob", models.RoleStudent, false)

	status, body := ts.do(t, http.MethodPost, "/api/v1/channels", f.admin, fiber.Map{"name": "General", "type": "open"})
	require.Equal(t, http.StatusCreated, status, body)
	f.channelID = idOf(t, body, "channel")
	return f
}

func (f *forum) createPost(t *testing.T, token, title, body string) uint {
	t.Helper()
	status, resp := f.do(t, http.MethodPost, "/api/v1/posts", token, fiber.Map{
		"channel_id": f.channelID, "title": title, "body": body,
	})
	require.Equal(t, http.StatusCreated, status, resp)
	return idOf(t, resp, "post")
}

func (f *forum) createComment(t *testing.T, token string, postID uint, body string) uint {
	t.Helper()
	status, resp := f.do(t, http.MethodPost, "/api/v1/comments", token, fiber.Map{"post_id": postID, "body": body})
	require.Equal(t, http.StatusCreated, status, resp)
	return idOf(t, resp, "comment")
}

func (f *forum) createReply(t *testing.T, token string, commentID uint, body string) uint {
	t.Helper()
	status, resp := f.do(t, http.MethodPost, "/api/v1/replies", token, fiber.Map{"comment_id": commentID, "body": body})
	require.Equal(t, http.StatusCreated, status, resp)
	return idOf(t, resp, "reply")
}

func TestContentLifecycle(t *testing.T) {
	f := newForum(t)

	postID := f.createPost(t, f.alice, "Welcome", "First post in the channel")
	commentID := f.createComment(t, f.bob, postID, "Nice to meet you")
	f.createReply(t, f.alice, commentID, "Likewise, thanks")

	status, body := f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", postID), f.bob, nil)
	require.Equal(t, http.StatusOK, status)
	post := body["post"].(map[string]any)
	assert.Equal(t, float64(1), post["comment_count"])

	status, body = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/channels/%d/posts", f.channelID), f.bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["posts"], 1)

	status, body = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d/comments", postID), f.bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["comments"], 1)

	status, body = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/comments/%d/replies", commentID), f.bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["replies"], 1)

	status, body = f.do(t, http.MethodPut, fmt.Sprintf("/api/v1/posts/%d", postID), f.bob, fiber.Map{"body": "hijacked body"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, models.CodeUnauthorized, body["code"])

	status, body = f.do(t, http.MethodPut, fmt.Sprintf("/api/v1/posts/%d", postID), f.alice, fiber.Map{"body": "First post in the channel"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeUnchanged, body["code"])

	status, body = f.do(t, http.MethodPut, fmt.Sprintf("/api/v1/posts/%d", postID), f.alice, fiber.Map{"body": "Edited first post"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Welcome", body["post"].(map[string]any)["title"])

	status, body = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", postID), f.alice, nil)
	require.Equal(t, http.StatusOK, status, body)
	deleted := body["deleted"].(map[string]any)
	assert.Equal(t, float64(1), deleted["posts"])
	assert.Equal(t, float64(1), deleted["comments"])
	assert.Equal(t, float64(1), deleted["replies"])

	status, _ = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", postID), f.bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	var channel models.Channel
	require.NoError(t, f.db.First(&channel, f.channelID).Error)
	assert.Zero(t, channel.PostCount)
}

func TestContentAuthorsArePublic(t *testing.T) {
	f := newForum(t)
	postID := f.createPost(t, f.alice, "Hello", "Who can see my email?")
	commentID := f.createComment(t, f.alice, postID, "Nobody, hopefully")
	f.createReply(t, f.alice, commentID, "Good to know")

	assertAuthor := func(t *testing.T, item any) {
		t.Helper()
		author, ok := item.(map[string]any)["author"].(map[string]any)
		require.True(t, ok, "author is embedded")
		assert.Equal(t, float64(f.aliceID), author["id"])
		assert.Equal(t, "alice", author["username"])
		assert.NotContains(t, author, "email")
		assert.NotContains(t, author, "role")
		assert.NotContains(t, author, "private_member")
	}

	status, body := f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", postID), f.bob, nil)
	require.Equal(t, http.StatusOK, status)
	assertAuthor(t, body["post"])

	status, body = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/channels/%d/posts", f.channelID), f.bob, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["posts"], 1)
	assertAuthor(t, body["posts"].([]any)[0])

	status, body = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d/comments", postID), f.bob, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["comments"], 1)
	assertAuthor(t, body["comments"].([]any)[0])

	status, body = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/comments/%d/replies", commentID), f.bob, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["replies"], 1)
	assertAuthor(t, body["replies"].([]any)[0])
}

func TestChannelPostCountThroughCache(t *testing.T) {
	f := newForum(t)
	path := fmt.Sprintf("/api/v1/channels/%d", f.channelID)

	status, body := f.do(t, http.MethodGet, path, f.bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["channel"].(map[string]any)["post_count"])

	postID := f.createPost(t, f.alice, "Counted", "This one should show up")

	status, body = f.do(t, http.MethodGet, path, f.bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["channel"].(map[string]any)["post_count"])

	status, _ = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", postID), f.alice, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = f.do(t, http.MethodGet, "/api/v1/channels", f.bob, nil)
	require.Equal(t, http.StatusOK, status)
	channels := body["channels"].([]any)
	require.Len(t, channels, 1)
	assert.Equal(t, float64(0), channels[0].(map[string]any)["post_count"])
}

func TestCreateFailures(t *testing.T) {
	f := newForum(t)
	postID := f.createPost(t, f.alice, "Topic", "Something to discuss")
	f.createComment(t, f.bob, postID, "A thought")

	tests := []struct {
		name           string
		path           string
		body           fiber.Map
		expectedStatus int
		expectedCode   string
	}{
		{"missing title", "/api/v1/posts", fiber.Map{"channel_id": f.channelID, "body": "text here"}, http.StatusBadRequest, models.CodeMissingFields},
		{"blank body", "/api/v1/posts", fiber.Map{"channel_id": f.channelID, "title": "t", "body": "   "}, http.StatusBadRequest, models.CodeMissingFields},
		{"short body", "/api/v1/comments", fiber.Map{"post_id": postID, "body": "hi"}, http.StatusBadRequest, models.CodeInvalidContent},
		{"unknown channel", "/api/v1/posts", fiber.Map{"channel_id": 999, "title": "t", "body": "text here"}, http.StatusNotFound, models.CodeNotFound},
		{"unknown post", "/api/v1/comments", fiber.Map{"post_id": 999, "body": "text here"}, http.StatusNotFound, models.CodeNotFound},
		{"duplicate comment", "/api/v1/comments", fiber.Map{"post_id": postID, "body": "A thought"}, http.StatusBadRequest, models.CodeDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := f.do(t, http.MethodPost, tt.path, f.bob, tt.body)
			assert.Equal(t, tt.expectedStatus, status, body)
			assert.Equal(t, tt.expectedCode, body["code"])
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestRestrictedChannel(t *testing.T) {
	f := newForum(t)
	member, _ := f.signup(t, "member", models.RoleStudent, true)

	status, body := f.do(t, http.MethodPost, "/api/v1/channels", f.admin, fiber.Map{"name": "Faculty", "type": "college"})
	require.Equal(t, http.StatusCreated, status, body)
	restricted := idOf(t, body, "channel")
	assert.Equal(t, string(models.ChannelRestricted), body["channel"].(map[string]any)["type"])

	post := fiber.Map{"channel_id": restricted, "title": "Members only", "body": "Private discussion"}

	status, body = f.do(t, http.MethodPost, "/api/v1/posts", f.bob, post)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, models.CodeUnauthorized, body["code"])

	status, _ = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/channels/%d/posts", restricted), f.bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = f.do(t, http.MethodPost, "/api/v1/posts", member, post)
	assert.Equal(t, http.StatusCreated, status, body)
}

func TestReactions(t *testing.T) {
	f := newForum(t)
	postID := f.createPost(t, f.alice, "Vote", "Please react to this")
	target := fiber.Map{"target_id": postID, "target_kind": "Post", "channel_id": f.channelID}

	status, body := f.do(t, http.MethodPost, "/api/v1/likes", f.bob, target)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(1), body["like_count"])
	assert.Equal(t, float64(0), body["dislike_count"])

	status, body = f.do(t, http.MethodPost, "/api/v1/likes", f.bob, target)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Already Liked", body["message"])

	status, body = f.do(t, http.MethodPost, "/api/v1/dislikes", f.bob, target)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(0), body["like_count"])
	assert.Equal(t, float64(1), body["dislike_count"])

	status, body = f.do(t, http.MethodDelete, "/api/v1/likes", f.bob, target)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeNotReacted, body["code"])

	status, body = f.do(t, http.MethodDelete, "/api/v1/dislikes", f.bob, target)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(0), body["dislike_count"])

	status, body = f.do(t, http.MethodPost, "/api/v1/likes", f.bob, fiber.Map{
		"target_id": postID, "target_kind": "Thread", "channel_id": f.channelID,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, body["code"])

	status, body = f.do(t, http.MethodPost, "/api/v1/likes", f.bob, fiber.Map{"target_id": postID, "target_kind": "Post"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeMissingFields, body["code"])
}

func TestAdminContentOverride(t *testing.T) {
	for _, enabled := range []bool{false, true} {
		t.Run(fmt.Sprintf("override=%v", enabled), func(t *testing.T) {
			ts := newTestServer(t, func(c *config.Config) {
				if enabled {
					c.FeatureFlags = "admin_content_override=on"
				}
			})
			f := &forum{testServer: ts}
			f.admin, _ = ts.signup(t, "admin", models.RoleAdmin, false)
			f.alice, _ = ts.signup(t, "alice", models.RoleStudent, false)
			status, body := ts.do(t, http.MethodPost, "/api/v1/channels", f.admin, fiber.Map{"name": "general"})
			require.Equal(t, http.StatusCreated, status, body)
			f.channelID = idOf(t, body, "channel")

			postID := f.createPost(t, f.alice, "Mine", "Written by alice")

			status, _ = f.do(t, http.MethodPut, fmt.Sprintf("/api/v1/posts/%d", postID), f.admin, fiber.Map{"body": "Rewritten by admin"})
			assert.Equal(t, http.StatusForbidden, status, "admins never edit other users' content")

			status, _ = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", postID), f.admin, nil)
			if enabled {
				assert.Equal(t, http.StatusOK, status)
			} else {
				assert.Equal(t, http.StatusForbidden, status)
			}
		})
	}
}

func TestEventsArePublished(t *testing.T) {
	f := newForum(t)
	ctx := context.Background()

	sub := f.rdb.Subscribe(ctx, notifications.BroadcastChannel)
	defer func() { _ = sub.Close() }()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	postID := f.createPost(t, f.alice, "Live", "Broadcast this post")

	raw, err := sub.ReceiveTimeout(ctx, 2*time.Second)
	require.NoError(t, err)
	msg, ok := raw.(*redis.Message)
	require.True(t, ok, "unexpected %T", raw)
	var ev struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
	assert.Equal(t, notifications.EventPostCreated, ev.Type)
	assert.Equal(t, float64(postID), ev.Payload["post_id"])
}

func TestRestrictedChannelEventsReachMembersOnly(t *testing.T) {
	f := newForum(t)
	ctx := context.Background()
	member, _ := f.signup(t, "member", models.RoleStudent, true)

	status, body := f.do(t, http.MethodPost, "/api/v1/channels", f.admin, fiber.Map{"name": "Faculty", "type": "restricted"})
	require.Equal(t, http.StatusCreated, status, body)
	restricted := idOf(t, body, "channel")

	sub := f.rdb.Subscribe(ctx, notifications.BroadcastChannel, notifications.MembersChannel)
	defer func() { _ = sub.Close() }()
	for i := 0; i < 2; i++ {
		_, err := sub.Receive(ctx)
		require.NoError(t, err)
	}

	next := func(t *testing.T) (string, string) {
		t.Helper()
		raw, err := sub.ReceiveTimeout(ctx, 2*time.Second)
		require.NoError(t, err)
		msg, ok := raw.(*redis.Message)
		require.True(t, ok, "unexpected %T", raw)
		var ev struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		return msg.Channel, ev.Type
	}

	status, body = f.do(t, http.MethodPost, "/api/v1/posts", member, fiber.Map{
		"channel_id": restricted, "title": "Members only", "body": "Private discussion",
	})
	require.Equal(t, http.StatusCreated, status, body)
	postID := idOf(t, body, "post")
	channel, typ := next(t)
	assert.Equal(t, notifications.MembersChannel, channel)
	assert.Equal(t, notifications.EventPostCreated, typ)

	status, body = f.do(t, http.MethodPost, "/api/v1/comments", member, fiber.Map{"post_id": postID, "body": "Quiet reply"})
	require.Equal(t, http.StatusCreated, status, body)
	channel, typ = next(t)
	assert.Equal(t, notifications.MembersChannel, channel)
	assert.Equal(t, notifications.EventCommentCreated, typ)

	status, _ = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", postID), member, nil)
	require.Equal(t, http.StatusOK, status)
	channel, typ = next(t)
	assert.Equal(t, notifications.MembersChannel, channel)
	assert.Equal(t, notifications.EventPostDeleted, typ)

	f.createPost(t, f.alice, "Public", "Open channel news")
	channel, typ = next(t)
	assert.Equal(t, notifications.BroadcastChannel, channel)
	assert.Equal(t, notifications.EventPostCreated, typ)
}

func TestEventsDoNotAffectResponses(t *testing.T) {
	f := newForum(t)
	f.mr.Close()

	// redis is gone: publication fails, caching and revocation fail open
	status, body := f.do(t, http.MethodPost, "/api/v1/posts", f.alice, fiber.Map{
		"channel_id": f.channelID, "title": "Offline", "body": "Redis is unavailable",
	})
	assert.Equal(t, http.StatusCreated, status, body)
}

func TestChannelAdministration(t *testing.T) {
	f := newForum(t)
	postID := f.createPost(t, f.alice, "Doomed", "This channel goes away")
	f.createComment(t, f.bob, postID, "Goodbye channel")

	status, body := f.do(t, http.MethodPost, "/api/v1/channels", f.admin, fiber.Map{"name": "  GENERAL "})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, models.CodeConflict, body["code"])

	status, body = f.do(t, http.MethodPut, fmt.Sprintf("/api/v1/channels/%d", f.channelID), f.admin, fiber.Map{"type": "restricted"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, string(models.ChannelRestricted), body["channel"].(map[string]any)["type"])

	status, _ = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/channels/%d", f.channelID), f.alice, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/channels/%d", f.channelID), f.admin, nil)
	require.Equal(t, http.StatusOK, status, body)
	deleted := body["deleted"].(map[string]any)
	assert.Equal(t, float64(1), deleted["channels"])
	assert.Equal(t, float64(1), deleted["posts"])
	assert.Equal(t, float64(1), deleted["comments"])

	status, _ = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/channels/%d", f.channelID), f.alice, nil)
	assert.Equal(t, http.StatusNotFound, status)

	var alice models.User
	require.NoError(t, f.db.First(&alice, f.aliceID).Error)
	assert.Zero(t, alice.PostCount)
}
