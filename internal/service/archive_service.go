package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	gonanoid "github.com/matoous/go-nanoid/v2"

	config "github.com/frederico-apolonia/switch-downloader/configs"
	"github.com/frederico-apolonia/switch-downloader/internal/models"
)

// recentTweetCount is how many timeline entries each run inspects.
const recentTweetCount = 3

const loginRequiredMessage = "Google Drive login required, visit /authorize to connect an account"

type ArchiveService interface {
	Run(ctx context.Context, deleteAfter bool) (*models.Report, error)
}

type archiveService struct {
	cfg         config.Config
	twitter     TwitterService
	drive       DriveService
	extract     ExtractService
	stagingRoot string
}

func NewArchiveService(
	cfg config.Config,
	twitter TwitterService,
	drive DriveService,
	extract ExtractService,
	stagingRoot string) ArchiveService {
	return &archiveService{
		cfg:         cfg,
		twitter:     twitter,
		drive:       drive,
		extract:     extract,
		stagingRoot: stagingRoot,
	}
}

// Run performs one full archive cycle: fetch recent tweets, extract media
// from the qualifying ones into a run-private staging directory, upload the
// staged files to the configured Drive folder, and remove the staging
// directory whatever the outcome.
func (s *archiveService) Run(ctx context.Context, deleteAfter bool) (*models.Report, error) {
	// Each run stages into its own directory so concurrent triggers cannot
	// clobber each other's files.
	runID, err := gonanoid.New(8)
	if err != nil {
		return nil, err
	}
	stageDir := filepath.Join(s.stagingRoot, "run-"+runID)
	defer func() {
		if err := os.RemoveAll(stageDir); err != nil {
			slog.Info(err.Error())
		}
	}()

	tweets, err := s.twitter.RecentTweets(ctx, recentTweetCount)
	if err != nil {
		return nil, fmt.Errorf("fetching recent tweets: %w", err)
	}

	report := &models.Report{}

	var staged []models.StagedFile
	skipped := 0
	for i := range tweets {
		tweet := &tweets[i]

		extraction, err := s.extract.Extract(ctx, tweet, stageDir)
		if err != nil {
			// A malformed tweet fails alone, its siblings still process.
			report.Add(fmt.Sprintf("tweet %s: %v", tweet.IDStr, err))
			continue
		}

		staged = append(staged, extraction.Staged...)
		skipped += extraction.Skipped

		if deleteAfter && extraction.GameName != "" {
			if err := s.twitter.DeleteTweet(ctx, tweet.IDStr); err != nil {
				report.Add(fmt.Sprintf("failed to delete tweet %s: %v", tweet.IDStr, err))
			}
		}
	}

	driveSvc, err := s.drive.Ready(ctx)
	if err != nil {
		if errors.Is(err, ErrLoginRequired) {
			report.Add(loginRequiredMessage)
			return report, nil
		}
		return nil, err
	}

	folderID, err := s.drive.EnsureFolder(ctx, driveSvc, s.cfg.DriveFolderName)
	if err != nil {
		return nil, err
	}

	for _, file := range staged {
		if err := s.drive.Upload(ctx, driveSvc, folderID, file); err != nil {
			slog.Info(err.Error())
			report.Add(fmt.Sprintf("failed to upload %s: %v", file.FileName, err))
			continue
		}
		report.Add(fmt.Sprintf("uploaded %s", file.FileName))
	}

	if skipped > 0 {
		report.Add(fmt.Sprintf("skipped %d media download(s)", skipped))
	}

	return report, nil
}
