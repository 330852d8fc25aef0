package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/frederico-apolonia/switch-downloader/internal/service"
)

// refreshWindow is how close to expiry a token must be before the job
// refreshes it ahead of time.
const refreshWindow = 1 * time.Hour

// TokenRefreshJob proactively refreshes the stored Drive token so webhook
// runs rarely pay the refresh round trip themselves.
type TokenRefreshJob struct {
	ds service.DriveService
}

func NewTokenRefreshJob(ds service.DriveService) *TokenRefreshJob {
	return &TokenRefreshJob{ds: ds}
}

func (j *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	if err := j.ds.RefreshIfExpiring(ctx, refreshWindow); err != nil {
		slog.Info(err.Error())
	}
}
