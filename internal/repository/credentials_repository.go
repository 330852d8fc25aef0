package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"

	"github.com/frederico-apolonia/switch-downloader/pkg/utils"
)

// RedisCredentialsKey is the fixed key the token blob is mirrored under when
// a redis backend is configured.
const RedisCredentialsKey = "gdrive_credentials"

// ErrNoCredentials is returned when no configured backend holds a token.
var ErrNoCredentials = errors.New("no stored credentials")

// CredentialsBackend persists the Drive OAuth token bundle. Backends store
// the same AES-GCM encrypted JSON blob so either one can restore state after
// a restart.
type CredentialsBackend interface {
	Save(ctx context.Context, token *oauth2.Token) error
	Load(ctx context.Context) (*oauth2.Token, error)
}

// CredentialsStore fans writes out to every configured backend and reads
// from them in priority order (local file first, redis as fallback).
type CredentialsStore struct {
	backends []CredentialsBackend
}

func NewCredentialsStore(backends ...CredentialsBackend) *CredentialsStore {
	return &CredentialsStore{backends: backends}
}

func (s *CredentialsStore) Save(ctx context.Context, token *oauth2.Token) error {
	var firstErr error
	for _, b := range s.backends {
		if err := b.Save(ctx, token); err != nil {
			slog.Info(err.Error())
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *CredentialsStore) Load(ctx context.Context) (*oauth2.Token, error) {
	for _, b := range s.backends {
		token, err := b.Load(ctx)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, ErrNoCredentials) {
			slog.Info(err.Error())
		}
	}
	return nil, ErrNoCredentials
}

type fileBackend struct {
	path      string
	secretKey string
}

func NewFileBackend(path, secretKey string) CredentialsBackend {
	return &fileBackend{path: path, secretKey: secretKey}
}

func (b *fileBackend) Save(ctx context.Context, token *oauth2.Token) error {
	sealed, err := sealToken(token, b.secretKey)
	if err != nil {
		return err
	}
	return os.WriteFile(b.path, []byte(sealed), 0o600)
}

func (b *fileBackend) Load(ctx context.Context) (*oauth2.Token, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		slog.Info(err.Error())
		return nil, err
	}
	return openToken(string(data), b.secretKey)
}

type redisBackend struct {
	client    *redis.Client
	secretKey string
}

func NewRedisBackend(client *redis.Client, secretKey string) CredentialsBackend {
	return &redisBackend{client: client, secretKey: secretKey}
}

func (b *redisBackend) Save(ctx context.Context, token *oauth2.Token) error {
	sealed, err := sealToken(token, b.secretKey)
	if err != nil {
		return err
	}
	return b.client.Set(ctx, RedisCredentialsKey, sealed, 0).Err()
}

func (b *redisBackend) Load(ctx context.Context) (*oauth2.Token, error) {
	data, err := b.client.Get(ctx, RedisCredentialsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoCredentials
		}
		slog.Info(err.Error())
		return nil, err
	}
	return openToken(data, b.secretKey)
}

func sealToken(token *oauth2.Token, secretKey string) (string, error) {
	plain, err := json.Marshal(token)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return utils.Encrypt(plain, secretKey)
}

func openToken(sealed, secretKey string) (*oauth2.Token, error) {
	plain, err := utils.Decrypt(sealed, secretKey)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(plain, &token); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &token, nil
}
