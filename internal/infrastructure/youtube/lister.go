package youtube

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"auto_repost_youtube/config"
	"auto_repost_youtube/internal/domain"
)

// Lister reads public channel data through the Data API with an API key.
// It never touches user credentials.
type Lister struct {
	apiKey string
}

// NewLister creates a new Lister.
func NewLister(cfg *config.Config) *Lister {
	return &Lister{apiKey: cfg.YouTubeAPIKey}
}

// ChannelUploads lists the latest uploads of a channel with full metadata,
// newest first, as unsaved video drafts.
func (l *Lister) ChannelUploads(ctx context.Context, channelID string, maxResults int64) ([]*domain.Video, error) {
	service, err := ytapi.NewService(ctx, option.WithAPIKey(l.apiKey))
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	channelResp, err := service.Channels.List([]string{"contentDetails"}).Id(channelID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list channel %s: %w", channelID, err)
	}
	if len(channelResp.Items) == 0 {
		return nil, fmt.Errorf("channel %s: %w", channelID, domain.ErrNotFound)
	}

	playlistID := channelResp.Items[0].ContentDetails.RelatedPlaylists.Uploads
	if playlistID == "" {
		return nil, fmt.Errorf("channel %s has no uploads playlist", channelID)
	}

	itemsResp, err := service.PlaylistItems.List([]string{"contentDetails"}).
		PlaylistId(playlistID).MaxResults(maxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list playlist %s: %w", playlistID, err)
	}

	var videoIDs []string
	for _, item := range itemsResp.Items {
		if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
			videoIDs = append(videoIDs, item.ContentDetails.VideoId)
		}
	}
	if len(videoIDs) == 0 {
		return nil, nil
	}

	detailsResp, err := service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(videoIDs...).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	videos := make([]*domain.Video, 0, len(detailsResp.Items))
	for _, item := range detailsResp.Items {
		videos = append(videos, videoFromAPI(item))
	}
	return videos, nil
}

func videoFromAPI(item *ytapi.Video) *domain.Video {
	video := &domain.Video{
		VideoID: item.Id,
		Status:  domain.VideoStatusPending,
	}

	if item.Snippet != nil {
		video.Title = item.Snippet.Title
		video.Description = item.Snippet.Description
		video.Tags = item.Snippet.Tags
		video.ThumbnailURL = bestThumbnail(item.Snippet.Thumbnails)
	}
	if item.ContentDetails != nil {
		video.DurationSeconds = parseISODuration(item.ContentDetails.Duration)
	}
	if item.Statistics != nil {
		video.ViewCount = int64(item.Statistics.ViewCount)
		video.LikeCount = int64(item.Statistics.LikeCount)
		video.CommentCount = int64(item.Statistics.CommentCount)
	}
	return video
}

func bestThumbnail(details *ytapi.ThumbnailDetails) string {
	if details == nil {
		return ""
	}
	for _, t := range []*ytapi.Thumbnail{details.Maxres, details.High, details.Medium, details.Default} {
		if t != nil && t.Url != "" {
			return t.Url
		}
	}
	return ""
}

// parseISODuration converts an ISO-8601 duration like "PT1H2M3S" to seconds.
// Malformed input yields 0.
func parseISODuration(s string) int64 {
	s = strings.TrimPrefix(s, "P")
	var total int64

	dayPart, timePart, hasTime := strings.Cut(s, "T")
	if !hasTime {
		timePart = ""
	}
	if d, ok := strings.CutSuffix(dayPart, "D"); ok && d != "" {
		if n, err := strconv.ParseInt(d, 10, 64); err == nil {
			total += n * 86400
		}
	}

	units := []struct {
		suffix  byte
		seconds int64
	}{
		{'H', 3600},
		{'M', 60},
		{'S', 1},
	}
	for _, unit := range units {
		idx := strings.IndexByte(timePart, unit.suffix)
		if idx < 0 {
			continue
		}
		if n, err := strconv.ParseInt(timePart[:idx], 10, 64); err == nil {
			total += n * unit.seconds
		}
		timePart = timePart[idx+1:]
	}
	return total
}
