package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"auto_repost_youtube/config"
	"auto_repost_youtube/internal/domain"
	httpclient "auto_repost_youtube/internal/infrastructure/http"
	"auto_repost_youtube/internal/logger"
)

// Strategy is one way of fetching a source video to a local file. Strategies
// are independent; the service tries them in order until one produces a
// valid file.
type Strategy interface {
	// Name identifies the strategy in logs and error messages
	Name() string

	// Attempt downloads the video to destPath. It must respect ctx
	// cancellation; a partial or empty file on error is tolerated, the
	// service cleans it up before the next attempt.
	Attempt(ctx context.Context, videoID, destPath string) error
}

// Service downloads source videos by trying an ordered list of strategies.
type Service struct {
	strategies     []Strategy
	downloadDir    string
	attemptTimeout time.Duration
}

// NewService creates a download service with the default strategy order:
// plain yt-dlp, yt-dlp with browser cookies, then the streaming library.
func NewService(cfg *config.Config, httpClient *httpclient.HTTPClient) (*Service, error) {
	if err := os.MkdirAll(cfg.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	binPath := cfg.YtDlpPath
	if binPath == "" {
		binPath = "yt-dlp"
	}

	strategies := []Strategy{
		&YtDlpStrategy{BinPath: binPath},
		&YtDlpCookiesStrategy{BinPath: binPath, Browsers: cfg.CookiesBrowsers, CookiesFile: cfg.CookiesFile},
		NewStreamStrategy(httpClient.GetStreamingClient(), cfg.DownloadBufferSize),
	}

	return &Service{
		strategies:     strategies,
		downloadDir:    cfg.DownloadDir,
		attemptTimeout: cfg.DownloadTimeout,
	}, nil
}

// NewServiceWithStrategies builds a service from an explicit strategy list.
func NewServiceWithStrategies(downloadDir string, attemptTimeout time.Duration, strategies ...Strategy) *Service {
	return &Service{
		strategies:     strategies,
		downloadDir:    downloadDir,
		attemptTimeout: attemptTimeout,
	}
}

// Download fetches the video to the service's download directory, first
// strategy to produce a non-empty file wins. Each attempt is bounded by the
// configured timeout. When every strategy fails no partial file is left
// behind and the error wraps domain.ErrDownload.
func (s *Service) Download(ctx context.Context, videoID string) (string, error) {
	destPath := filepath.Join(s.downloadDir, videoID+".mp4")

	// A stale file from an earlier aborted attempt must not masquerade as a
	// successful download
	if err := removeIfExists(destPath); err != nil {
		return "", fmt.Errorf("clear previous download: %w", err)
	}

	var failures []string
	for _, strategy := range s.strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		err := strategy.Attempt(attemptCtx, videoID, destPath)
		cancel()

		if err == nil {
			if valid, verr := validFile(destPath); verr == nil && valid {
				logger.Infof("Download succeeded for video %s via %s", videoID, strategy.Name())
				return destPath, nil
			}
			err = fmt.Errorf("strategy reported success but file is missing or empty")
		}

		logger.Warnf("Download strategy %s failed for video %s: %v", strategy.Name(), videoID, err)
		failures = append(failures, fmt.Sprintf("%s: %v", strategy.Name(), err))

		if rmErr := removeIfExists(destPath); rmErr != nil {
			logger.Warnf("Failed to clean up partial file %s: %v", destPath, rmErr)
		}
	}

	return "", fmt.Errorf("%w for video %s: %s", domain.ErrDownload, videoID, strings.Join(failures, "; "))
}

func validFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Size() > 0, nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
