package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg := <-c.Send:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return ""
	}
}

func TestHub_RegisterLimits(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(1, false, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(1, false, nil)
	assert.ErrorIs(t, err, ErrUserFull)
	assert.Equal(t, maxConnsPerUser, hub.ConnectionCount())

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Zero(t, hub.ConnectionCount())
	_, err = hub.Register(2, false, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestHub_BroadcastTargets(t *testing.T) {
	hub := NewHub()
	alice, err := hub.Register(1, false, nil)
	require.NoError(t, err)
	bob, err := hub.Register(2, false, nil)
	require.NoError(t, err)

	hub.Broadcast(1, "for alice")
	assert.Equal(t, "for alice", receive(t, alice))
	assert.Empty(t, bob.Send)

	hub.BroadcastAll("for everyone")
	assert.Equal(t, "for everyone", receive(t, alice))
	assert.Equal(t, "for everyone", receive(t, bob))

	carol, err := hub.Register(3, true, nil)
	require.NoError(t, err)
	hub.BroadcastMembers("members only")
	assert.Equal(t, "members only", receive(t, carol))
	assert.Empty(t, alice.Send)
	assert.Empty(t, bob.Send)
}

func TestHub_UnregisterClosesQueue(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, false, nil)
	require.NoError(t, err)

	hub.UnregisterClient(c)
	hub.UnregisterClient(c)
	_, open := <-c.Send
	assert.False(t, open)

	// sending to a closed client is swallowed
	c.TrySend([]byte("late"))
	assert.Zero(t, hub.ConnectionCount())
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, false, nil)
	require.NoError(t, err)
	for i := 0; i < sendBuffer; i++ {
		c.TrySend([]byte("x"))
	}
	c.TrySend([]byte("overflow"))
	assert.Len(t, c.Send, sendBuffer)
}

func TestHub_WiringDeliversPublishedEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hub := NewHub()
	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	alice, err := hub.Register(7, false, nil)
	require.NoError(t, err)

	require.NoError(t, n.PublishEvent(ctx, Event{Type: EventPostCreated, Payload: map[string]uint{"id": 3}}, AudienceEveryone))
	assert.JSONEq(t, `{"type":"post_created","payload":{"id":3}}`, receive(t, alice))

	require.NoError(t, n.PublishUser(ctx, 7, "direct"))
	assert.Equal(t, "direct", receive(t, alice))
}

func TestHub_MemberEventsSkipOutsiders(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hub := NewHub()
	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	member, err := hub.Register(1, true, nil)
	require.NoError(t, err)
	outsider, err := hub.Register(2, false, nil)
	require.NoError(t, err)

	require.NoError(t, n.PublishEvent(ctx, Event{Type: EventCommentCreated}, AudienceMembers))
	assert.JSONEq(t, `{"type":"comment_created","payload":null}`, receive(t, member))

	require.NoError(t, n.PublishEvent(ctx, Event{Type: EventChannelDeleted}, AudienceEveryone))
	assert.JSONEq(t, `{"type":"channel_deleted","payload":null}`, receive(t, member))
	assert.JSONEq(t, `{"type":"channel_deleted","payload":null}`, receive(t, outsider))
	assert.Empty(t, outsider.Send, "outsider never saw the member event")
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, "payload"))
	assert.NoError(t, n.PublishEvent(context.Background(), Event{Type: EventPostDeleted}, AudienceMembers))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), func(string, string) {}))

	var nilNotifier *Notifier
	assert.NoError(t, nilNotifier.PublishBroadcast(context.Background(), "x"))
}

func TestParseUserChannel(t *testing.T) {
	id, ok := parseUserChannel(UserChannel(42))
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"notifications:user:", "notifications:user:abc", "chat:conv:1", "notifications:user:0"} {
		_, ok := parseUserChannel(bad)
		assert.False(t, ok, bad)
	}
}
