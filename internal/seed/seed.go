package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/policy"
	"agora/internal/repository"
	"agora/internal/service"
	"agora/internal/validation"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	Users             int
	Channels          int
	PostsPerChannel   int
	CommentsPerPost   int
	RepliesPerComment int
	ReactionsPerPost  int
	// every Nth user is a restricted-channel member, every Nth channel restricted
	RestrictedEvery int
	ShouldClean     bool
	DryRun          bool
	SkipBcrypt      bool
	RandSeed        int64
}

// DefaultOptions is a small forum suitable for local development.
func DefaultOptions() Options {
	return Options{
		Users:             20,
		Channels:          4,
		PostsPerChannel:   10,
		CommentsPerPost:   3,
		RepliesPerComment: 1,
		ReactionsPerPost:  5,
		RestrictedEvery:   4,
	}
}

// Report counts what a run created.
type Report struct {
	Users     int `json:"users"`
	Channels  int `json:"channels"`
	Posts     int `json:"posts"`
	Comments  int `json:"comments"`
	Replies   int `json:"replies"`
	Reactions int `json:"reactions"`
}

// cleanOrder lists tables children first.
var cleanOrder = []string{"reactions", "replies", "comments", "posts", "channels", "admin_logs", "refresh_tokens", "users"}

// Seed populates the database. Users and channels are inserted directly;
// content and reactions go through the services.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (Report, error) {
	var report Report
	log := middleware.Logger

	log.Info("Starting database seeding",
		slog.Int("users", opts.Users), slog.Int("channels", opts.Channels), slog.Bool("dry_run", opts.DryRun))

	if opts.ShouldClean && !opts.DryRun {
		if err := clearData(ctx, db); err != nil {
			return report, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	store := repository.NewStore(db)
	factory, err := NewFactory(store, opts)
	if err != nil {
		return report, err
	}

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		user, err := factory.CreateUser(ctx, i, func(u *models.User) {
			u.PrivateMember = every(opts.RestrictedEvery, i)
		})
		if err != nil {
			return report, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}
	report.Users = len(users)

	channels := make([]*models.Channel, 0, opts.Channels)
	for i := 0; i < opts.Channels; i++ {
		typ := models.ChannelOpen
		if every(opts.RestrictedEvery, i) {
			typ = models.ChannelRestricted
		}
		channel, err := factory.CreateChannel(ctx, i, typ)
		if err != nil {
			return report, fmt.Errorf("failed to create channel: %w", err)
		}
		channels = append(channels, channel)
	}
	report.Channels = len(channels)

	if opts.DryRun || len(users) == 0 {
		log.Info("Seeding finished without content", slog.Int("users", report.Users), slog.Int("channels", report.Channels))
		return report, nil
	}

	cascade := service.NewCascadeService(store, 0)
	content := service.NewContentService(store, validation.NewContentFilter(), policy.Strict, cascade)
	reactions := service.NewReactionService(store)

	for _, channel := range channels {
		members := participants(users, channel)
		if len(members) == 0 {
			continue
		}
		for p := 0; p < opts.PostsPerChannel; p++ {
			author := members[factory.Pick(len(members))]
			post, err := content.CreatePost(ctx, service.CreatePostInput{
				Actor:     author.Actor(),
				ChannelID: channel.ID,
				Title:     factory.PostTitle(),
				Body:      factory.PostBody(),
			})
			if err != nil {
				return report, fmt.Errorf("failed to create post: %w", err)
			}
			report.Posts++

			for c := 0; c < opts.CommentsPerPost; c++ {
				comment, err := content.CreateComment(ctx, service.CreateCommentInput{
					Actor:  members[factory.Pick(len(members))].Actor(),
					PostID: post.ID,
					Body:   factory.CommentBody(c),
				})
				if err != nil {
					return report, fmt.Errorf("failed to create comment: %w", err)
				}
				report.Comments++

				for r := 0; r < opts.RepliesPerComment; r++ {
					if _, err := content.CreateReply(ctx, service.CreateReplyInput{
						Actor:     members[factory.Pick(len(members))].Actor(),
						CommentID: comment.ID,
						Body:      factory.CommentBody(r),
					}); err != nil {
						return report, fmt.Errorf("failed to create reply: %w", err)
					}
					report.Replies++
				}
			}

			for r := 0; r < opts.ReactionsPerPost; r++ {
				_, err := reactions.AddReaction(ctx, service.ReactionInput{
					Actor:     members[factory.Pick(len(members))].Actor(),
					Target:    models.Target{Kind: models.TargetPost, ID: post.ID},
					Polarity:  factory.Polarity(),
					ChannelID: channel.ID,
				})
				switch {
				case err == nil:
					report.Reactions++
				case errors.Is(err, models.ErrAlreadyReacted):
					// the same user drawn twice
				default:
					return report, fmt.Errorf("failed to react: %w", err)
				}
			}
		}
	}

	log.Info("Database seeding completed",
		slog.Int("posts", report.Posts), slog.Int("comments", report.Comments),
		slog.Int("replies", report.Replies), slog.Int("reactions", report.Reactions))
	return report, nil
}

func clearData(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.Info("Clearing existing data")
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range cleanOrder {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

func every(n, i int) bool {
	return n > 0 && i%n == 0
}

func participants(users []*models.User, channel *models.Channel) []*models.User {
	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		if policy.CanAccessChannel(u.Actor(), channel) {
			out = append(out, u)
		}
	}
	return out
}
