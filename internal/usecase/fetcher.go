package usecase

import (
	"context"
	"time"

	"auto_repost_youtube/config"
	"auto_repost_youtube/internal/domain"
	"auto_repost_youtube/internal/logger"
)

// ChannelLister reads a source channel's latest uploads as unsaved drafts.
type ChannelLister interface {
	ChannelUploads(ctx context.Context, channelID string, maxResults int64) ([]*domain.Video, error)
}

// Fetcher discovers new uploads on the tracked source channels and stores
// them as pending videos. Videos already known by external ID are skipped.
type Fetcher struct {
	channels   domain.SourceChannelRepository
	videos     domain.VideoRepository
	lister     ChannelLister
	maxResults int64
	now        func() time.Time
}

// NewFetcher creates a new Fetcher.
func NewFetcher(cfg *config.Config, channels domain.SourceChannelRepository, videos domain.VideoRepository, lister ChannelLister) *Fetcher {
	return &Fetcher{
		channels:   channels,
		videos:     videos,
		lister:     lister,
		maxResults: int64(cfg.FetchMaxResults),
		now:        time.Now,
	}
}

// FetchAll runs one discovery pass over every tracked source channel. A
// failure on one channel is logged and never aborts the rest.
func (f *Fetcher) FetchAll(ctx context.Context) {
	channels, err := f.channels.GetAll()
	if err != nil {
		logger.Errorf("Fetch: load source channels: %v", err)
		return
	}

	logger.Infof("Fetch started: %d source channel(s)", len(channels))
	for _, channel := range channels {
		if ctx.Err() != nil {
			logger.Warnf("Fetch cancelled")
			return
		}
		if err := f.fetchChannel(ctx, channel); err != nil {
			logger.Errorf("Fetch: channel %s (%s): %v", channel.ChannelID, channel.ChannelName, err)
		}
	}
	logger.Infof("Fetch finished")
}

func (f *Fetcher) fetchChannel(ctx context.Context, channel *domain.SourceChannel) error {
	drafts, err := f.lister.ChannelUploads(ctx, channel.ChannelID, f.maxResults)
	if err != nil {
		return err
	}

	added := 0
	for _, draft := range drafts {
		existing, err := f.videos.GetByVideoID(draft.VideoID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		draft.UserID = channel.UserID
		draft.SourceChannelID = channel.ID
		if err := f.videos.Save(draft); err != nil {
			return err
		}
		added++
	}

	if err := f.channels.UpdateLastFetched(channel.ID, f.now()); err != nil {
		logger.Warnf("Fetch: update last fetched for channel %s: %v", channel.ChannelID, err)
	}

	logger.Infof("Fetch: channel %s yielded %d new video(s) of %d listed", channel.ChannelID, added, len(drafts))
	return nil
}
