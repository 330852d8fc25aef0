package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"

	"github.com/frederico-apolonia/switch-downloader/internal/models"
	"github.com/frederico-apolonia/switch-downloader/internal/transfer"
)

// TriggerHashtag marks a tweet as eligible for media extraction. Matching is
// exact and case sensitive.
const TriggerHashtag = "NintendoSwitch"

// ErrTagConvention means the tweet carries the trigger hashtag but not the
// leading game hashtag the filename convention needs.
var ErrTagConvention = errors.New("tweet does not follow the game/trigger hashtag convention")

type ExtractService interface {
	Extract(ctx context.Context, tweet *transfer.Tweet, stageDir string) (*models.Extraction, error)
}

type extractService struct {
	client *http.Client
	now    func() time.Time
}

func NewExtractService() ExtractService {
	return &extractService{
		client: &http.Client{Timeout: 5 * time.Minute},
		now:    time.Now,
	}
}

// Extract downloads every photo/video attached to a qualifying tweet into
// stageDir. Non-qualifying tweets return an empty result without touching
// the network or the filesystem.
func (s *extractService) Extract(ctx context.Context, tweet *transfer.Tweet, stageDir string) (*models.Extraction, error) {
	hashtags := tweet.HashtagTexts()
	if !containsTrigger(hashtags) {
		return &models.Extraction{}, nil
	}

	gameName, err := gameNameFromHashtags(hashtags)
	if err != nil {
		return nil, err
	}

	result := &models.Extraction{GameName: gameName}

	// All media in one tweet share the same timestamp.
	timestamp := s.now().Format("02-01-2006-150405")

	sequence := 1
	for _, media := range tweet.ExtendedEntities.Media {
		mediaURL := resolveMediaURL(media)
		if mediaURL == "" {
			result.Skipped++
			continue
		}

		fileName := fmt.Sprintf("%s-%s-%d.%s", gameName, timestamp, sequence, fileExtension(mediaURL))

		staged, err := s.download(ctx, mediaURL, stageDir, fileName)
		if err != nil {
			return nil, err
		}
		if staged == nil {
			// Non-2xx response: skipped, consumes no sequence number.
			result.Skipped++
			continue
		}

		result.Staged = append(result.Staged, *staged)
		sequence++
	}

	return result, nil
}

func (s *extractService) download(ctx context.Context, mediaURL, stageDir, fileName string) (*models.StagedFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("downloading media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		slog.Info("skipping media download", "url", mediaURL, "status", resp.StatusCode)
		return nil, nil
	}

	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	localPath := filepath.Join(stageDir, fileName)
	out, err := os.Create(localPath)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		slog.Info(err.Error())
		return nil, fmt.Errorf("writing staged file: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		if kind, err := filetype.MatchFile(localPath); err == nil && kind != filetype.Unknown {
			contentType = kind.MIME.Value
		}
	}

	return &models.StagedFile{
		FileName:    fileName,
		ContentType: contentType,
		LocalPath:   localPath,
	}, nil
}

func containsTrigger(hashtags []string) bool {
	for _, tag := range hashtags {
		if tag == TriggerHashtag {
			return true
		}
	}
	return false
}

// gameNameFromHashtags picks the second-to-last hashtag, per the convention
// that the trigger and category hashtags trail the game hashtag.
func gameNameFromHashtags(hashtags []string) (string, error) {
	if len(hashtags) < 2 {
		return "", ErrTagConvention
	}
	return hashtags[len(hashtags)-2], nil
}

func resolveMediaURL(media transfer.Media) string {
	if media.Type == transfer.MediaTypeVideo {
		if media.VideoInfo == nil || len(media.VideoInfo.Variants) == 0 {
			return ""
		}
		return media.VideoInfo.Variants[0].URL
	}
	return media.MediaURLHTTPS
}

// fileExtension guesses the extension from the URL's last path segment,
// truncated to 3 characters so video variant URLs with query-style suffixes
// still produce something usable.
func fileExtension(mediaURL string) string {
	segments := strings.Split(mediaURL, "/")
	last := segments[len(segments)-1]
	parts := strings.Split(last, ".")
	ext := parts[len(parts)-1]
	if len(ext) > 3 {
		ext = ext[:3]
	}
	return ext
}
