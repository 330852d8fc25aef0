package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"google.golang.org/api/drive/v3"

	config "github.com/frederico-apolonia/switch-downloader/configs"
	"github.com/frederico-apolonia/switch-downloader/internal/models"
)

type fakeDrive struct {
	authURL     string
	state       string
	exchangeErr error
	exchanged   bool
	gotState    string
	gotRedirect string
	gotCode     string
}

func (f *fakeDrive) AuthCodeURL(redirectURI string) (string, string, error) {
	f.gotRedirect = redirectURI
	return f.authURL, f.state, nil
}

func (f *fakeDrive) Exchange(ctx context.Context, state, redirectURI, code string) error {
	f.exchanged = true
	f.gotState = state
	f.gotRedirect = redirectURI
	f.gotCode = code
	return f.exchangeErr
}

func (f *fakeDrive) Ready(ctx context.Context) (*drive.Service, error) { return nil, nil }

func (f *fakeDrive) RefreshIfExpiring(ctx context.Context, within time.Duration) error { return nil }

func (f *fakeDrive) EnsureFolder(ctx context.Context, svc *drive.Service, name string) (string, error) {
	return "", nil
}

func (f *fakeDrive) Upload(ctx context.Context, svc *drive.Service, folderID string, file models.StagedFile) error {
	return nil
}

func newOAuthApp(ds *fakeDrive) *fiber.App {
	cfg := config.Config{HostURL: "example.com:3000"}
	app := fiber.New()
	h := NewOAuthHandler(cfg, ds)
	app.Get("/authorize", h.Authorize)
	app.Get("/oauth2callback", h.Callback)
	return app
}

func TestAuthorizeRedirects(t *testing.T) {
	ds := &fakeDrive{authURL: "https://accounts.google.com/o/oauth2/v2/auth?state=abc", state: "abc"}
	app := newOAuthApp(ds)

	resp, err := app.Test(httptest.NewRequest("GET", "/authorize", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != fiber.StatusFound {
		t.Errorf("status = %d, want 302", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != ds.authURL {
		t.Errorf("Location = %q, want %q", got, ds.authURL)
	}
	if ds.gotRedirect != "http://example.com:3000/oauth2callback" {
		t.Errorf("redirect URI = %q", ds.gotRedirect)
	}

	cookieSet := false
	for _, cookie := range resp.Cookies() {
		if cookie.Name == stateCookieName && cookie.Value == "abc" {
			cookieSet = true
		}
	}
	if !cookieSet {
		t.Error("state cookie not set")
	}
}

func TestCallbackExchanges(t *testing.T) {
	ds := &fakeDrive{}
	app := newOAuthApp(ds)

	resp, err := app.Test(httptest.NewRequest("GET", "/oauth2callback?state=abc&code=4%2Fcode", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if !ds.exchanged {
		t.Fatal("Exchange was not called")
	}
	if ds.gotState != "abc" || ds.gotCode != "4/code" {
		t.Errorf("Exchange got state=%q code=%q", ds.gotState, ds.gotCode)
	}
}

func TestCallbackStateMismatch(t *testing.T) {
	ds := &fakeDrive{}
	app := newOAuthApp(ds)

	req := httptest.NewRequest("GET", "/oauth2callback?state=tampered&code=abc", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "original"})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if ds.exchanged {
		t.Error("Exchange must not run on state mismatch")
	}
}

func TestCallbackExchangeFailure(t *testing.T) {
	ds := &fakeDrive{exchangeErr: errors.New("invalid grant")}
	app := newOAuthApp(ds)

	resp, err := app.Test(httptest.NewRequest("GET", "/oauth2callback?state=abc&code=bad", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
