// Package youtube talks to the YouTube Data API v3: uploading videos to the
// destination channel and listing source channel uploads for the fetcher.
package youtube

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"auto_repost_youtube/internal/domain"
	"auto_repost_youtube/internal/logger"
)

// API limits on video metadata.
const (
	maxTitleLength       = 100
	maxDescriptionLength = 5000
	maxTagCount          = 30

	// categoryPeopleBlogs is the default category for re-published videos
	categoryPeopleBlogs = "22"
)

// UploadRequest describes one video upload.
type UploadRequest struct {
	FilePath      string
	Title         string
	Description   string
	Tags          []string
	AccessToken   string
	PrivacyStatus string // defaults to "private" when empty
}

// Uploader publishes local video files to YouTube on behalf of a user.
type Uploader struct{}

// NewUploader creates a new Uploader.
func NewUploader() *Uploader {
	return &Uploader{}
}

// Upload submits the video resource with the request metadata, authenticated
// by the supplied access token. On success the local file is deleted
// best-effort and the new external video ID is returned. On failure the file
// is retained for inspection and the error wraps domain.ErrUpload.
func (u *Uploader) Upload(ctx context.Context, req UploadRequest) (string, error) {
	privacy := req.PrivacyStatus
	if privacy == "" {
		privacy = "private"
	}

	file, err := os.Open(req.FilePath)
	if err != nil {
		return "", fmt.Errorf("%w: open video file: %v", domain.ErrUpload, err)
	}
	defer file.Close()

	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: req.AccessToken})
	service, err := ytapi.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return "", fmt.Errorf("%w: create service: %v", domain.ErrUpload, err)
	}

	video := &ytapi.Video{
		Snippet: &ytapi.VideoSnippet{
			Title:       truncate(req.Title, maxTitleLength),
			Description: truncate(req.Description, maxDescriptionLength),
			Tags:        capTags(req.Tags, maxTagCount),
			CategoryId:  categoryPeopleBlogs,
		},
		Status: &ytapi.VideoStatus{
			PrivacyStatus:           privacy,
			SelfDeclaredMadeForKids: false,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}

	call := service.Videos.Insert([]string{"snippet", "status"}, video).Media(file).Context(ctx)
	resp, err := call.Do()
	if err != nil {
		return "", fmt.Errorf("%w: insert video: %v", domain.ErrUpload, err)
	}

	file.Close()
	if err := os.Remove(req.FilePath); err != nil {
		logger.Warnf("Failed to delete temp file %s: %v", req.FilePath, err)
	}

	return resp.Id, nil
}

// truncate cuts s to at most max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// capTags limits the tag list to at most max entries.
func capTags(tags []string, max int) []string {
	if len(tags) <= max {
		return tags
	}
	return tags[:max]
}
