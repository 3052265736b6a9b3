package service

import (
	"context"
	"errors"
	"unicode/utf8"

	"agora/internal/cache"
	"agora/internal/models"
	"agora/internal/policy"
	"agora/internal/repository"
)

const maxChannelNameLen = 120

// ChannelService manages channels. Mutations are admin-only.
type ChannelService struct {
	store   *repository.Store
	cache   *cache.Cache
	cascade *CascadeService
}

type CreateChannelInput struct {
	Actor models.Actor
	Name  string
	Type  string
}

type EditChannelInput struct {
	Actor     models.Actor
	ChannelID uint
	Name      string
	Type      string
}

func NewChannelService(store *repository.Store, c *cache.Cache, cascade *CascadeService) *ChannelService {
	return &ChannelService{store: store, cache: c, cascade: cascade}
}

func requireModerator(actor models.Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !policy.CanModerateChannel(actor) {
		return models.NewForbiddenError("Admin privileges required")
	}
	return nil
}

func parseChannelName(raw string) (string, error) {
	name := models.NormalizeChannelName(raw)
	if utf8.RuneCountInString(name) > maxChannelNameLen {
		return "", models.NewValidationError("Channel name too long (max 120 characters)")
	}
	return name, nil
}

func (s *ChannelService) CreateChannel(ctx context.Context, in CreateChannelInput) (*models.Channel, error) {
	if err := requireModerator(in.Actor); err != nil {
		return nil, err
	}
	name, err := parseChannelName(in.Name)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, models.NewMissingFieldsError()
	}
	typ := models.ChannelOpen
	if in.Type != "" {
		var ok bool
		if typ, ok = models.ParseChannelType(in.Type); !ok {
			return nil, models.NewValidationError("Invalid channel type")
		}
	}

	if _, err := s.store.Channels.GetByName(ctx, name); err == nil {
		return nil, models.NewConflictError("Channel already exists")
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	channel := &models.Channel{Name: name, Type: typ}
	if err := s.store.Channels.Create(ctx, channel); err != nil {
		return nil, err
	}
	s.cache.InvalidateChannel(ctx, channel.ID)
	return channel, nil
}

// EditChannel renames or retypes a channel. Empty fields are left as is.
func (s *ChannelService) EditChannel(ctx context.Context, in EditChannelInput) (*models.Channel, error) {
	if err := requireModerator(in.Actor); err != nil {
		return nil, err
	}
	if in.ChannelID == 0 || (in.Name == "" && in.Type == "") {
		return nil, models.NewMissingFieldsError()
	}
	name, err := parseChannelName(in.Name)
	if err != nil {
		return nil, err
	}

	channel, err := s.store.Channels.GetByID(ctx, in.ChannelID)
	if err != nil {
		return nil, err
	}
	next := *channel
	if name != "" {
		next.Name = name
	}
	if in.Type != "" {
		typ, ok := models.ParseChannelType(in.Type)
		if !ok {
			return nil, models.NewValidationError("Invalid channel type")
		}
		next.Type = typ
	}
	if next.Name == channel.Name && next.Type == channel.Type {
		return nil, models.NewUnchangedError()
	}
	if next.Name != channel.Name {
		if existing, err := s.store.Channels.GetByName(ctx, next.Name); err == nil && existing.ID != channel.ID {
			return nil, models.NewConflictError("Channel already exists")
		} else if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
	}

	if err := s.store.Channels.Update(ctx, &next); err != nil {
		return nil, err
	}
	s.cache.InvalidateChannel(ctx, channel.ID)
	return &next, nil
}

func (s *ChannelService) DeleteChannel(ctx context.Context, actor models.Actor, channelID uint) (CascadeReport, error) {
	if err := requireModerator(actor); err != nil {
		return CascadeReport{}, err
	}
	if channelID == 0 {
		return CascadeReport{}, models.NewMissingFieldsError()
	}
	if _, err := s.store.Channels.GetByID(ctx, channelID); err != nil {
		return CascadeReport{}, err
	}
	report, err := s.cascade.DeleteChannelTree(ctx, channelID)
	if err != nil {
		return CascadeReport{}, err
	}
	s.cache.InvalidateChannel(ctx, channelID)
	return report, nil
}

func (s *ChannelService) GetChannel(ctx context.Context, channelID uint) (*models.Channel, error) {
	var channel models.Channel
	err := s.cache.Aside(ctx, cache.ChannelKey(channelID), &channel, cache.ChannelTTL, func() error {
		found, err := s.store.Channels.GetByID(ctx, channelID)
		if err != nil {
			return err
		}
		channel = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	live, err := s.withLiveCounts(ctx, []models.Channel{channel})
	if err != nil {
		return nil, err
	}
	if len(live) == 0 {
		return nil, models.NewNotFoundError("Channel", channelID)
	}
	return &live[0], nil
}

func (s *ChannelService) ListChannels(ctx context.Context, limit, offset int) ([]models.Channel, error) {
	var channels []models.Channel
	err := s.cache.Aside(ctx, cache.ChannelListKey(limit, offset), &channels, cache.ChannelListTTL, func() error {
		var err error
		channels, err = s.store.Channels.List(ctx, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.withLiveCounts(ctx, channels)
}

// withLiveCounts replaces cached post counts with stored ones, since posts
// change the counter without touching the channel cache. Channels deleted
// since they were cached are dropped.
func (s *ChannelService) withLiveCounts(ctx context.Context, channels []models.Channel) ([]models.Channel, error) {
	if len(channels) == 0 {
		return channels, nil
	}
	ids := make([]uint, len(channels))
	for i := range channels {
		ids[i] = channels[i].ID
	}
	counts, err := s.store.Channels.PostCounts(ctx, ids...)
	if err != nil {
		return nil, err
	}
	live := channels[:0]
	for _, ch := range channels {
		n, ok := counts[ch.ID]
		if !ok {
			continue
		}
		ch.PostCount = n
		live = append(live, ch)
	}
	return live, nil
}
