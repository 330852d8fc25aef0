package handlers

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	config "github.com/frederico-apolonia/switch-downloader/configs"
	"github.com/frederico-apolonia/switch-downloader/internal/service"
)

const stateCookieName = "oauth_state"

type OAuthHandler struct {
	s   service.DriveService
	cfg config.Config
}

func NewOAuthHandler(cfg config.Config, s service.DriveService) *OAuthHandler {
	return &OAuthHandler{s: s, cfg: cfg}
}

// Authorize redirects the caller to the Google consent screen. The signed
// state token rides along as the OAuth state parameter and is mirrored into
// a cookie so the callback can cross-check it.
func (h *OAuthHandler) Authorize(c *fiber.Ctx) error {
	authURL, state, err := h.s.AuthCodeURL(h.redirectURI())
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "unable to start authorization",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     stateCookieName,
		Value:    state,
		HTTPOnly: true,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
	})

	return c.Redirect(authURL)
}

// Callback completes the OAuth exchange and persists the credentials.
func (h *OAuthHandler) Callback(c *fiber.Ctx) error {
	state := c.Query("state")
	code := c.Query("code")

	if cookie := c.Cookies(stateCookieName); cookie != "" && cookie != state {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "oauth state mismatch",
		})
	}

	if err := h.s.Exchange(c.Context(), state, h.redirectURI(), code); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to complete authorization",
		})
	}

	return c.SendString("The auth flow is complete; you may close this window.")
}

func (h *OAuthHandler) redirectURI() string {
	host := h.cfg.HostURL
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return fmt.Sprintf("%s/oauth2callback", host)
}
