package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	ytstream "github.com/kkdai/youtube/v2"
)

// StreamStrategy is the last-resort downloader: it pulls a progressive
// (audio+video) stream through the YouTube player API instead of shelling
// out, so it works even when no yt-dlp binary is installed.
type StreamStrategy struct {
	client     *ytstream.Client
	bufferSize int
}

// NewStreamStrategy creates a streaming strategy backed by the shared HTTP client.
func NewStreamStrategy(httpClient *http.Client, bufferSize int) *StreamStrategy {
	client := &ytstream.Client{}
	if httpClient != nil {
		client.HTTPClient = httpClient
	}
	if bufferSize <= 0 {
		bufferSize = 1024 * 1024
	}
	return &StreamStrategy{client: client, bufferSize: bufferSize}
}

func (s *StreamStrategy) Name() string { return "stream" }

func (s *StreamStrategy) Attempt(ctx context.Context, videoID, destPath string) error {
	video, err := s.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return fmt.Errorf("resolve video: %w", err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return fmt.Errorf("no progressive format with audio available")
	}
	formats.Sort()

	stream, _, err := s.client.GetStreamContext(ctx, video, &formats[0])
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	file, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	buffer := make([]byte, s.bufferSize)
	if _, err := io.CopyBuffer(file, stream, buffer); err != nil {
		file.Close()
		return fmt.Errorf("copy stream: %w", err)
	}
	return file.Close()
}
