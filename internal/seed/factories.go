// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"strings"

	"agora/internal/models"
	"agora/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the login password of every seeded user.
const DefaultPassword = "Password123!"

// Factory builds domain entities and persists them through the store.
// Content is not built here: it goes through the services so counters and
// access rules hold for seeded data too.
type Factory struct {
	store *repository.Store
	faker *gofakeit.Faker
	opts  Options
	hash  string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a Factory. A zero opts.RandSeed seeds from the clock.
func NewFactory(store *repository.Store, opts Options) (*Factory, error) {
	cost := bcrypt.DefaultCost
	if opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	return &Factory{
		store:  store,
		faker:  gofakeit.New(opts.RandSeed),
		opts:   opts,
		hash:   string(hashed),
		nextID: 1000,
	}, nil
}

// CreateUser persists a student with a fake identity. n keeps usernames unique.
func (f *Factory) CreateUser(ctx context.Context, n int, overrides ...func(*models.User)) (*models.User, error) {
	base := strings.ToLower(f.faker.FirstName())
	user := &models.User{
		Username: fmt.Sprintf("%s_%d", base, n),
		Email:    fmt.Sprintf("%s.%d@%s", base, n, f.faker.DomainName()),
		Password: f.hash,
		Role:     models.RoleStudent,
	}
	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		return user, nil
	}
	if err := f.store.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateChannel persists a channel named after a hobby.
func (f *Factory) CreateChannel(ctx context.Context, n int, typ models.ChannelType) (*models.Channel, error) {
	channel := &models.Channel{
		Name: models.NormalizeChannelName(fmt.Sprintf("%s-%d", f.faker.Hobby(), n)),
		Type: typ,
	}
	if f.opts.DryRun {
		f.nextID++
		channel.ID = f.nextID
		return channel, nil
	}
	if err := f.store.Channels.Create(ctx, channel); err != nil {
		return nil, err
	}
	return channel, nil
}

// PostTitle is a short headline.
func (f *Factory) PostTitle() string {
	return strings.TrimSuffix(f.faker.Sentence(6), ".")
}

// PostBody is a few sentences of filler text.
func (f *Factory) PostBody() string {
	return f.faker.Paragraph(1, 3, 12, " ")
}

// CommentBody is a single sentence; n keeps it unique per author and parent.
func (f *Factory) CommentBody(n int) string {
	return fmt.Sprintf("%s (#%d)", f.faker.Sentence(8), n)
}

// Pick returns a pseudo-random index below n.
func (f *Factory) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.IntRange(0, n-1)
}

// Polarity picks like three times out of four.
func (f *Factory) Polarity() models.Polarity {
	if f.faker.IntRange(0, 3) == 0 {
		return models.PolarityDislike
	}
	return models.PolarityLike
}
