// Package notifications provides real-time engagement events over Redis
// pub/sub and the websocket hub that fans them out.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"

	"agora/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	BroadcastChannel  = "notifications:broadcast"
	MembersChannel    = "notifications:members"
	userChannelPrefix = "notifications:user:"
)

// Audience selects which websocket clients receive an event.
type Audience int

const (
	// AudienceEveryone reaches every connected client.
	AudienceEveryone Audience = iota
	// AudienceMembers reaches only clients allowed into restricted channels.
	AudienceMembers
)

// Event types published after successful mutations.
const (
	EventPostCreated     = "post_created"
	EventPostDeleted     = "post_deleted"
	EventCommentCreated  = "comment_created"
	EventCommentDeleted  = "comment_deleted"
	EventReplyCreated    = "reply_created"
	EventReplyDeleted    = "reply_deleted"
	EventReactionUpdated = "reaction_updated"
	EventChannelDeleted  = "channel_deleted"
)

// Event is the JSON frame delivered to websocket clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishBroadcast sends a notification payload to all connected users.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, BroadcastChannel, payload).Err()
}

// PublishEvent encodes ev and publishes it to the channel serving audience.
func (n *Notifier) PublishEvent(ctx context.Context, ev Event, audience Audience) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	channel := BroadcastChannel
	if audience == AudienceMembers {
		channel = MembersChannel
	}
	return n.rdb.Publish(ctx, channel, string(raw)).Err()
}

// StartPatternSubscriber subscribes to the user and broadcast channels and
// calls onMessage for each incoming message until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, onMessage func(channel string, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*", BroadcastChannel, MembersChannel)
	// wait for the subscription to be confirmed so no early publish is lost
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// parseUserChannel is the inverse of UserChannel.
func parseUserChannel(channel string) (uint, bool) {
	rest, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
