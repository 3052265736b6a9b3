// Command main runs the database seeder for Agora.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/middleware"
	"agora/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	opts := defaults

	flag.IntVar(&opts.Users, "users", defaults.Users, "Number of users to create")
	flag.IntVar(&opts.Channels, "channels", defaults.Channels, "Number of channels to create")
	flag.IntVar(&opts.PostsPerChannel, "posts", defaults.PostsPerChannel, "Posts per channel")
	flag.IntVar(&opts.CommentsPerPost, "comments", defaults.CommentsPerPost, "Comments per post")
	flag.IntVar(&opts.RepliesPerComment, "replies", defaults.RepliesPerComment, "Replies per comment")
	flag.IntVar(&opts.ReactionsPerPost, "reactions", defaults.ReactionsPerPost, "Reaction attempts per post")
	flag.IntVar(&opts.RestrictedEvery, "restricted-every", defaults.RestrictedEvery, "Every Nth channel is restricted and every Nth user a member (0 = none)")
	flag.BoolVar(&opts.ShouldClean, "clean", true, "Clean database before seeding")
	flag.BoolVar(&opts.DryRun, "dry-run", false, "Build users and channels without writing")
	flag.BoolVar(&opts.SkipBcrypt, "fast", false, "Hash passwords with the minimum bcrypt cost")
	flag.Int64Var(&opts.RandSeed, "seed", 0, "Random seed (0 = random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}
	middleware.SetLogger(middleware.NewLogger(os.Stdout, cfg.Env))

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	report, err := seed.Seed(context.Background(), db, opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d channels, %d posts, %d comments, %d replies, %d reactions",
		report.Users, report.Channels, report.Posts, report.Comments, report.Replies, report.Reactions)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
