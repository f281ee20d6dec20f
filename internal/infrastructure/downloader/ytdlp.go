package downloader

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const ytFormatSpec = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"

// YtDlpStrategy downloads via a plain yt-dlp invocation.
type YtDlpStrategy struct {
	BinPath string
}

func (s *YtDlpStrategy) Name() string { return "yt-dlp" }

func (s *YtDlpStrategy) Attempt(ctx context.Context, videoID, destPath string) error {
	args := []string{
		"-f", ytFormatSpec,
		"-o", destPath,
		"--no-playlist",
		"--no-warnings",
		watchURL(videoID),
	}
	return runYtDlp(ctx, s.BinPath, args)
}

// YtDlpCookiesStrategy downloads via yt-dlp using saved browser session
// credentials, which gets past age gates and bot checks the plain invocation
// trips over. A cookies file takes precedence; otherwise each configured
// browser's cookie store is tried in turn.
type YtDlpCookiesStrategy struct {
	BinPath     string
	Browsers    []string
	CookiesFile string
}

func (s *YtDlpCookiesStrategy) Name() string { return "yt-dlp-cookies" }

func (s *YtDlpCookiesStrategy) Attempt(ctx context.Context, videoID, destPath string) error {
	base := []string{
		"-f", ytFormatSpec,
		"-o", destPath,
		"--no-playlist",
		"--no-warnings",
	}

	if s.CookiesFile != "" {
		args := append(append([]string{}, base...), "--cookies", s.CookiesFile, watchURL(videoID))
		return runYtDlp(ctx, s.BinPath, args)
	}

	if len(s.Browsers) == 0 {
		return fmt.Errorf("no cookies file or browsers configured")
	}

	var lastErr error
	for _, browser := range s.Browsers {
		if err := ctx.Err(); err != nil {
			return err
		}
		args := append(append([]string{}, base...), "--cookies-from-browser", browser, watchURL(videoID))
		if err := runYtDlp(ctx, s.BinPath, args); err != nil {
			lastErr = fmt.Errorf("browser %s: %w", browser, err)
			continue
		}
		if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
			return nil
		}
		lastErr = fmt.Errorf("browser %s: produced no file", browser)
	}
	return lastErr
}

func runYtDlp(ctx context.Context, binPath string, args []string) error {
	if binPath == "" {
		binPath = "yt-dlp"
	}

	cmd := exec.CommandContext(ctx, binPath, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("yt-dlp killed: %w", ctxErr)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("yt-dlp failed: %w: %s", err, msg)
		}
		return fmt.Errorf("yt-dlp failed: %w", err)
	}
	return nil
}

func watchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
