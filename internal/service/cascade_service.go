package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"agora/internal/database"
	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/repository"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
)

// CascadeReport counts the rows a cascade removed.
type CascadeReport struct {
	Channels  int64 `json:"channels,omitempty"`
	Posts     int64 `json:"posts"`
	Comments  int64 `json:"comments"`
	Replies   int64 `json:"replies"`
	Reactions int64 `json:"reactions"`
	Users     int64 `json:"users,omitempty"`
}

// levelOrder is the hierarchy below a channel, root first.
var levelOrder = []models.TargetKind{models.TargetPost, models.TargetComment, models.TargetReply}

// CascadeService deletes subtrees of the content hierarchy. Every step is a
// delete-by-id or a counter decrement derived from rows still present, so a
// cascade can be re-run on a partially deleted tree and converges.
type CascadeService struct {
	store       *repository.Store
	retryBudget time.Duration
}

// NewCascadeService returns a CascadeService that retries transient store
// failures for up to retryBudget. Zero disables retries.
func NewCascadeService(store *repository.Store, retryBudget time.Duration) *CascadeService {
	return &CascadeService{store: store, retryBudget: retryBudget}
}

func (s *CascadeService) DeletePostTree(ctx context.Context, postID uint) (CascadeReport, error) {
	return s.run(ctx, "post", func(tx *repository.Store) (CascadeReport, error) {
		return s.purge(ctx, tx, map[models.TargetKind][]uint{models.TargetPost: {postID}})
	})
}

func (s *CascadeService) DeleteCommentTree(ctx context.Context, commentID uint) (CascadeReport, error) {
	return s.run(ctx, "comment", func(tx *repository.Store) (CascadeReport, error) {
		return s.purge(ctx, tx, map[models.TargetKind][]uint{models.TargetComment: {commentID}})
	})
}

func (s *CascadeService) DeleteReplyTree(ctx context.Context, replyID uint) (CascadeReport, error) {
	return s.run(ctx, "reply", func(tx *repository.Store) (CascadeReport, error) {
		return s.purge(ctx, tx, map[models.TargetKind][]uint{models.TargetReply: {replyID}})
	})
}

func (s *CascadeService) DeleteChannelTree(ctx context.Context, channelID uint) (CascadeReport, error) {
	return s.run(ctx, "channel", func(tx *repository.Store) (CascadeReport, error) {
		postIDs, err := tx.Posts.IDsByChannel(ctx, []uint{channelID})
		if err != nil {
			return CascadeReport{}, err
		}
		report, err := s.purge(ctx, tx, map[models.TargetKind][]uint{models.TargetPost: postIDs})
		if err != nil {
			return report, err
		}
		deleted, err := tx.Channels.Delete(ctx, channelID)
		if deleted {
			report.Channels = 1
		}
		return report, err
	})
}

// DeleteAccountTree removes everything a user authored, everything beneath
// it, and every reaction the user left on content that survives.
func (s *CascadeService) DeleteAccountTree(ctx context.Context, userID uint) (CascadeReport, error) {
	return s.run(ctx, "account", func(tx *repository.Store) (CascadeReport, error) {
		seeds := make(map[models.TargetKind][]uint, len(levelOrder))
		var err error
		if seeds[models.TargetPost], err = tx.Posts.IDsByAuthor(ctx, userID); err != nil {
			return CascadeReport{}, err
		}
		if seeds[models.TargetComment], err = tx.Comments.IDsByAuthor(ctx, userID); err != nil {
			return CascadeReport{}, err
		}
		if seeds[models.TargetReply], err = tx.Replies.IDsByAuthor(ctx, userID); err != nil {
			return CascadeReport{}, err
		}

		levels, err := collect(ctx, tx, seeds)
		if err != nil {
			return CascadeReport{}, err
		}
		if err := retractUserReactions(ctx, tx, userID, levels); err != nil {
			return CascadeReport{}, err
		}
		report, err := s.purgeLevels(ctx, tx, levels)
		if err != nil {
			return report, err
		}
		n, err := tx.Reactions.DeleteByUser(ctx, userID)
		if err != nil {
			return report, err
		}
		report.Reactions += n

		if err := tx.RefreshTokens.DeleteByUser(ctx, userID); err != nil {
			return report, err
		}
		deleted, err := tx.Users.Delete(ctx, userID)
		if deleted {
			report.Users = 1
		}
		return report, err
	})
}

// collect walks the hierarchy breadth first. Each level is its seeds plus
// the children of the level above, one query per level.
func collect(ctx context.Context, tx *repository.Store, seeds map[models.TargetKind][]uint) (map[models.TargetKind][]uint, error) {
	levels := make(map[models.TargetKind][]uint, len(levelOrder))
	var above []uint
	for _, kind := range levelOrder {
		ids := slices.Clone(seeds[kind])
		if len(above) > 0 {
			var children []uint
			var err error
			switch kind {
			case models.TargetComment:
				children, err = tx.Comments.IDsByPosts(ctx, above)
			case models.TargetReply:
				children, err = tx.Replies.IDsByComments(ctx, above)
			}
			if err != nil {
				return nil, err
			}
			ids = append(ids, children...)
		}
		slices.Sort(ids)
		ids = slices.Compact(ids)
		levels[kind] = ids
		above = ids
	}
	return levels, nil
}

func (s *CascadeService) purge(ctx context.Context, tx *repository.Store, seeds map[models.TargetKind][]uint) (CascadeReport, error) {
	levels, err := collect(ctx, tx, seeds)
	if err != nil {
		return CascadeReport{}, err
	}
	return s.purgeLevels(ctx, tx, levels)
}

// purgeLevels settles counters on surviving ancestors and owners, then
// deletes reactions and nodes from the leaves up.
func (s *CascadeService) purgeLevels(ctx context.Context, tx *repository.Store, levels map[models.TargetKind][]uint) (CascadeReport, error) {
	var report CascadeReport
	posts, comments, replies := levels[models.TargetPost], levels[models.TargetComment], levels[models.TargetReply]

	byChannel, err := tx.Posts.CountByChannel(ctx, posts)
	if err != nil {
		return report, err
	}
	byAuthor, err := tx.Posts.CountByAuthor(ctx, posts)
	if err != nil {
		return report, err
	}
	byPost, err := tx.Comments.CountByPost(ctx, comments)
	if err != nil {
		return report, err
	}
	byComment, err := tx.Replies.CountByComment(ctx, replies)
	if err != nil {
		return report, err
	}
	// parents that are themselves going away need no decrement
	dropKeys(byPost, posts)
	dropKeys(byComment, comments)

	decrements := []struct {
		table, column string
		amounts       map[uint]int
	}{
		{"channels", "post_count", byChannel},
		{"users", "post_count", byAuthor},
		{"posts", "comment_count", byPost},
		{"comments", "reply_count", byComment},
	}
	for _, d := range decrements {
		if err := tx.Counters.Decrement(ctx, d.table, d.column, d.amounts); err != nil {
			return report, err
		}
	}

	for _, kind := range levelOrder {
		n, err := tx.Reactions.DeleteByTargets(ctx, kind, levels[kind])
		if err != nil {
			return report, err
		}
		report.Reactions += n
	}
	if report.Replies, err = tx.Replies.DeleteByIDs(ctx, replies); err != nil {
		return report, err
	}
	if report.Comments, err = tx.Comments.DeleteByIDs(ctx, comments); err != nil {
		return report, err
	}
	if report.Posts, err = tx.Posts.DeleteByIDs(ctx, posts); err != nil {
		return report, err
	}
	return report, nil
}

// retractUserReactions decrements like/dislike counters on surviving targets
// the user reacted to. The rows themselves are deleted afterwards.
func retractUserReactions(ctx context.Context, tx *repository.Store, userID uint, levels map[models.TargetKind][]uint) error {
	reactions, err := tx.Reactions.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, r := range reactions {
		if _, doomed := slices.BinarySearch(levels[r.TargetKind], r.TargetID); doomed {
			continue
		}
		table, ok := repository.TableFor(r.TargetKind)
		if !ok {
			continue
		}
		if _, err := tx.Counters.Increment(ctx, table, r.TargetID, r.Polarity.CounterColumn(), -1); err != nil {
			return err
		}
	}
	return nil
}

func dropKeys(m map[uint]int, ids []uint) {
	for _, id := range ids {
		delete(m, id)
	}
}

// run executes fn in a transaction, retrying the whole transaction on
// serialization failures and deadlocks.
func (s *CascadeService) run(ctx context.Context, root string, fn func(tx *repository.Store) (CascadeReport, error)) (CascadeReport, error) {
	span, ctx := observability.NewSpan(ctx, "cascade."+root, attribute.String("cascade.root", root))
	start := time.Now()

	var report CascadeReport
	op := func() error {
		err := s.store.Transaction(ctx, func(tx *repository.Store) error {
			var err error
			report, err = fn(tx)
			return err
		})
		if err != nil && !database.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxElapsedTime = s.retryBudget
	var bo backoff.BackOff = b
	if s.retryBudget <= 0 {
		bo = &backoff.StopBackOff{}
	}

	err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), func(err error, wait time.Duration) {
		observability.CascadeRetries.WithLabelValues(root).Inc()
		middleware.Logger.WarnContext(ctx, "cascade retry",
			slog.String("root", root),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)
	})
	observability.CascadeDuration.WithLabelValues(root).Observe(time.Since(start).Seconds())
	span.AddAttributes(
		attribute.Int64("cascade.posts", report.Posts),
		attribute.Int64("cascade.comments", report.Comments),
		attribute.Int64("cascade.replies", report.Replies),
		attribute.Int64("cascade.reactions", report.Reactions),
	)
	span.End(err)
	if err != nil {
		return CascadeReport{}, err
	}

	for level, n := range map[string]int64{
		"post": report.Posts, "comment": report.Comments, "reply": report.Replies, "reaction": report.Reactions,
	} {
		if n > 0 {
			observability.CascadeNodesDeleted.WithLabelValues(root, level).Add(float64(n))
		}
	}
	middleware.Logger.InfoContext(ctx, "cascade completed",
		slog.String("root", root),
		slog.Duration("duration", time.Since(start)),
		slog.Int64("posts", report.Posts),
		slog.Int64("comments", report.Comments),
		slog.Int64("replies", report.Replies),
		slog.Int64("reactions", report.Reactions),
	)
	return report, nil
}
