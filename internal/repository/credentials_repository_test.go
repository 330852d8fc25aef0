package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func testToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		TokenType:    "Bearer",
		Expiry:       time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFileBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token.json")

	backend := NewFileBackend(path, "secret")
	if err := backend.Save(ctx, testToken()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// A fresh backend simulates a process restart.
	loaded, err := NewFileBackend(path, "secret").Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := testToken()
	if loaded.AccessToken != want.AccessToken ||
		loaded.RefreshToken != want.RefreshToken ||
		!loaded.Expiry.Equal(want.Expiry) {
		t.Errorf("Load() = %+v, want %+v", loaded, want)
	}
}

func TestFileBackendMissingFile(t *testing.T) {
	backend := NewFileBackend(filepath.Join(t.TempDir(), "absent.json"), "secret")

	_, err := backend.Load(context.Background())
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Load() error = %v, want ErrNoCredentials", err)
	}
}

type stubBackend struct {
	token   *oauth2.Token
	saveErr error
	saves   int
}

func (b *stubBackend) Save(ctx context.Context, token *oauth2.Token) error {
	b.saves++
	if b.saveErr != nil {
		return b.saveErr
	}
	b.token = token
	return nil
}

func (b *stubBackend) Load(ctx context.Context) (*oauth2.Token, error) {
	if b.token == nil {
		return nil, ErrNoCredentials
	}
	return b.token, nil
}

func TestStoreFansOutWrites(t *testing.T) {
	primary := &stubBackend{}
	secondary := &stubBackend{}
	store := NewCredentialsStore(primary, secondary)

	if err := store.Save(context.Background(), testToken()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if primary.saves != 1 || secondary.saves != 1 {
		t.Errorf("saves = (%d, %d), want (1, 1)", primary.saves, secondary.saves)
	}
}

func TestStoreLoadPrecedence(t *testing.T) {
	primary := &stubBackend{token: &oauth2.Token{AccessToken: "from-file"}}
	secondary := &stubBackend{token: &oauth2.Token{AccessToken: "from-redis"}}
	store := NewCredentialsStore(primary, secondary)

	token, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if token.AccessToken != "from-file" {
		t.Errorf("Load() picked %q, want the first backend's token", token.AccessToken)
	}
}

func TestStoreLoadFallsBack(t *testing.T) {
	primary := &stubBackend{}
	secondary := &stubBackend{token: &oauth2.Token{AccessToken: "from-redis"}}
	store := NewCredentialsStore(primary, secondary)

	token, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if token.AccessToken != "from-redis" {
		t.Errorf("Load() = %q, want fallback backend's token", token.AccessToken)
	}
}

func TestStoreLoadEmpty(t *testing.T) {
	store := NewCredentialsStore(&stubBackend{}, &stubBackend{})

	if _, err := store.Load(context.Background()); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Load() error = %v, want ErrNoCredentials", err)
	}
}

func TestStoreSaveReportsFirstError(t *testing.T) {
	failing := &stubBackend{saveErr: errors.New("disk full")}
	healthy := &stubBackend{}
	store := NewCredentialsStore(failing, healthy)

	err := store.Save(context.Background(), testToken())
	if err == nil {
		t.Fatal("Save() expected error from failing backend")
	}
	if healthy.saves != 1 {
		t.Error("Save() should still write to the healthy backend")
	}
}
