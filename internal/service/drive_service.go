package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/frederico-apolonia/switch-downloader/internal/models"
	"github.com/frederico-apolonia/switch-downloader/internal/repository"
	"github.com/frederico-apolonia/switch-downloader/pkg/utils"
)

const folderMimeType = "application/vnd.google-apps.folder"

// stateTokenTTL bounds how long an OAuth consent round trip may take.
const stateTokenTTL = 10 * time.Minute

// ErrLoginRequired means no stored credentials are usable and the caller has
// to go through /authorize before uploads can work.
var ErrLoginRequired = errors.New("google drive login required")

type DriveService interface {
	AuthCodeURL(redirectURI string) (authURL string, state string, err error)
	Exchange(ctx context.Context, state, redirectURI, code string) error
	Ready(ctx context.Context) (*drive.Service, error)
	RefreshIfExpiring(ctx context.Context, within time.Duration) error
	EnsureFolder(ctx context.Context, svc *drive.Service, name string) (string, error)
	Upload(ctx context.Context, svc *drive.Service, folderID string, file models.StagedFile) error
}

type driveService struct {
	oauthConfig *oauth2.Config
	secretKey   string
	creds       *repository.CredentialsStore
}

// NewDriveService parses the OAuth client secret blob and wraps the Drive v3
// API behind the credential store.
func NewDriveService(clientSecretJSON, secretKey string, creds *repository.CredentialsStore) (DriveService, error) {
	oauthConfig, err := google.ConfigFromJSON([]byte(clientSecretJSON),
		drive.DriveMetadataReadonlyScope,
		drive.DriveFileScope,
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("parsing drive client secret: %w", err)
	}

	return &driveService{
		oauthConfig: oauthConfig,
		secretKey:   secretKey,
		creds:       creds,
	}, nil
}

func (s *driveService) AuthCodeURL(redirectURI string) (string, string, error) {
	state, err := utils.GenerateStateToken(s.secretKey, stateTokenTTL)
	if err != nil {
		return "", "", err
	}

	conf := s.configFor(redirectURI)
	authURL := conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
	return authURL, state, nil
}

func (s *driveService) Exchange(ctx context.Context, state, redirectURI, code string) error {
	if code == "" {
		err := errors.New("code or state is empty")
		slog.Info(err.Error())
		return err
	}

	if err := utils.ValidateStateToken(s.secretKey, state); err != nil {
		return fmt.Errorf("validating oauth state: %w", err)
	}

	conf := s.configFor(redirectURI)
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("exchanging authorization code: %w", err)
	}

	return s.creds.Save(ctx, token)
}

func (s *driveService) Ready(ctx context.Context) (*drive.Service, error) {
	token, err := s.usableToken(ctx)
	if err != nil {
		return nil, err
	}

	client := s.oauthConfig.Client(ctx, token)
	svc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return svc, nil
}

func (s *driveService) RefreshIfExpiring(ctx context.Context, within time.Duration) error {
	token, err := s.creds.Load(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoCredentials) {
			return nil
		}
		return err
	}

	if token.Expiry.IsZero() || time.Until(token.Expiry) > within || token.RefreshToken == "" {
		return nil
	}

	_, err = s.refresh(ctx, token)
	return err
}

// usableToken loads stored credentials and refreshes them when expired. A
// missing or unrefreshable token surfaces as ErrLoginRequired rather than an
// interactive prompt.
func (s *driveService) usableToken(ctx context.Context) (*oauth2.Token, error) {
	token, err := s.creds.Load(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoCredentials) {
			return nil, ErrLoginRequired
		}
		return nil, err
	}

	if token.Valid() {
		return token, nil
	}

	if token.RefreshToken == "" {
		return nil, ErrLoginRequired
	}

	return s.refresh(ctx, token)
}

func (s *driveService) refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	refreshed, err := s.oauthConfig.TokenSource(ctx, token).Token()
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("refreshing drive token: %w", err)
	}

	if refreshed.AccessToken != token.AccessToken {
		if err := s.creds.Save(ctx, refreshed); err != nil {
			return nil, err
		}
	}
	return refreshed, nil
}

func (s *driveService) EnsureFolder(ctx context.Context, svc *drive.Service, name string) (string, error) {
	query := fmt.Sprintf("mimeType='%s' and name = '%s'", folderMimeType, name)
	list, err := svc.Files.List().
		Q(query).
		Spaces("drive").
		Fields("nextPageToken, files(id, name)").
		Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("querying drive folder %q: %w", name, err)
	}

	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	folder, err := svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMimeType,
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("creating drive folder %q: %w", name, err)
	}

	return folder.Id, nil
}

func (s *driveService) Upload(ctx context.Context, svc *drive.Service, folderID string, file models.StagedFile) error {
	f, err := os.Open(file.LocalPath)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer f.Close()

	meta := &drive.File{
		Name:    file.FileName,
		Parents: []string{folderID},
	}

	_, err = svc.Files.Create(meta).
		Media(f, googleapi.ContentType(file.ContentType)).
		Fields("id").
		Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("uploading %s: %w", file.FileName, err)
	}

	return nil
}

// configFor returns a copy of the OAuth config bound to the redirect URI of
// the current request.
func (s *driveService) configFor(redirectURI string) *oauth2.Config {
	conf := *s.oauthConfig
	conf.RedirectURL = redirectURI
	return &conf
}
