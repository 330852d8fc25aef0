package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/dghubble/oauth1"

	config "github.com/frederico-apolonia/switch-downloader/configs"
	"github.com/frederico-apolonia/switch-downloader/internal/transfer"
)

const twitterAPIBaseURL = "https://api.twitter.com/1.1"

type TwitterService interface {
	RecentTweets(ctx context.Context, count int) ([]transfer.Tweet, error)
	DeleteTweet(ctx context.Context, tweetID string) error
}

type twitterService struct {
	client  *http.Client
	baseURL string
}

// NewTwitterService builds a client signing requests with the account's
// OAuth1 user context, which the v1.1 timeline and destroy endpoints
// require.
func NewTwitterService(cfg config.Config) TwitterService {
	oauthConfig := oauth1.NewConfig(cfg.Twitter.APIKey, cfg.Twitter.APISecretKey)
	token := oauth1.NewToken(cfg.Twitter.AccessToken, cfg.Twitter.AccessTokenSecret)

	return &twitterService{
		client:  oauthConfig.Client(oauth1.NoContext, token),
		baseURL: twitterAPIBaseURL,
	}
}

func (s *twitterService) RecentTweets(ctx context.Context, count int) ([]transfer.Tweet, error) {
	params := url.Values{}
	params.Add("count", fmt.Sprintf("%d", count))
	params.Add("include_entities", "true")

	endpoint := fmt.Sprintf("%s/statuses/user_timeline.json?%s", s.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("fetching user timeline: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, twitterError(resp)
	}

	var tweets []transfer.Tweet
	if err := json.NewDecoder(resp.Body).Decode(&tweets); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("decoding user timeline: %w", err)
	}

	return tweets, nil
}

func (s *twitterService) DeleteTweet(ctx context.Context, tweetID string) error {
	endpoint := fmt.Sprintf("%s/statuses/destroy/%s.json", s.baseURL, tweetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("destroying tweet %s: %w", tweetID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return twitterError(resp)
	}

	return nil
}

func twitterError(resp *http.Response) error {
	var errResp transfer.TwitterErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && len(errResp.Errors) > 0 {
		return fmt.Errorf("twitter API error %d: %s", errResp.Errors[0].Code, errResp.Errors[0].Message)
	}
	return errors.New("twitter API returned status " + resp.Status)
}
