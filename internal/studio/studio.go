// Package studio is the client-side command layer: it drives token
// operations through the active transport and records the results in
// the local state stores.
package studio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/entrastudio/token-studio/internal/models"
	"github.com/entrastudio/token-studio/internal/state"
	"github.com/entrastudio/token-studio/internal/transport"
)

// Studio binds a transport to the local state database.
type Studio struct {
	transport transport.Transport
	state     *state.State
	logger    *slog.Logger
	now       func() time.Time
}

// New creates the command layer.
func New(t transport.Transport, st *state.State, logger *slog.Logger) *Studio {
	return &Studio{
		transport: t,
		state:     st,
		logger:    logger,
		now:       time.Now,
	}
}

// AcquireForApp issues an app-only token for a registered app and
// records the acquisition: app last-used is touched and a history
// entry appended. Recording failures are logged, not fatal; the token
// is already held.
func (s *Studio) AcquireForApp(ctx context.Context, appID, resource string) (*models.TokenResponse, error) {
	app, err := s.state.GetApp(appID)
	if err != nil {
		return nil, err
	}

	token, err := s.transport.AcquireAppToken(ctx, *app, resource)
	if err != nil {
		return nil, err
	}

	if err := s.state.TouchApp(app.ID, s.now()); err != nil {
		s.logger.Warn("recording app use failed", slog.String("appID", app.ID), slog.String("error", err.Error()))
	}

	s.record(models.HistoryItem{
		AppID:      app.ID,
		Resource:   resource,
		Scope:      transport.NormalizeScope(resource),
		AuthMethod: token.AuthMethod,
		AuthSource: token.AuthSource,
		ExpiresOn:  token.ExpiresOn,
	})

	return token, nil
}

// Acquire issues a token for an ad-hoc app config without touching the
// registry, still recording history.
func (s *Studio) Acquire(ctx context.Context, cfg models.AppConfig, resource string) (*models.TokenResponse, error) {
	token, err := s.transport.AcquireAppToken(ctx, cfg, resource)
	if err != nil {
		return nil, err
	}

	s.record(models.HistoryItem{
		Resource:   resource,
		Scope:      transport.NormalizeScope(resource),
		AuthMethod: token.AuthMethod,
		AuthSource: token.AuthSource,
		ExpiresOn:  token.ExpiresOn,
	})

	return token, nil
}

// UseFavorite re-acquires the token a favorite points at and bumps its
// use count.
func (s *Studio) UseFavorite(ctx context.Context, favoriteID string) (*models.TokenResponse, error) {
	fav, err := s.state.GetFavorite(favoriteID)
	if err != nil {
		return nil, err
	}

	if fav.Type != "app" {
		return nil, fmt.Errorf("favorite type %q cannot be re-acquired", fav.Type)
	}

	token, err := s.AcquireForApp(ctx, fav.Target, favoriteResource(fav))
	if err != nil {
		return nil, err
	}

	if err := s.state.RecordFavoriteUse(fav.ID); err != nil {
		s.logger.Warn("recording favorite use failed", slog.String("id", fav.ID), slog.String("error", err.Error()))
	}

	return token, nil
}

func favoriteResource(fav *models.FavoriteItem) string {
	if fav.TokenData != nil && fav.TokenData.Scope != "" {
		return fav.TokenData.Scope
	}

	return fav.Target
}

// SaveFavorite stores a token target as a favorite. The access token
// itself is never persisted; the store clears it on write.
func (s *Studio) SaveFavorite(appID, resource string, token *models.TokenResponse) (*models.FavoriteItem, error) {
	fav := models.FavoriteItem{
		Type:      "app",
		Target:    appID,
		TokenData: token,
	}
	if token != nil && token.Scope == "" {
		tokenCopy := *token
		tokenCopy.Scope = transport.NormalizeScope(resource)
		fav.TokenData = &tokenCopy
	}

	return s.state.CreateFavorite(fav)
}

func (s *Studio) record(item models.HistoryItem) {
	if _, err := s.state.AppendHistory(item); err != nil {
		s.logger.Warn("appending history failed", slog.String("error", err.Error()))
	}
}

// CredentialStatus reports the backend's credential chain snapshot.
func (s *Studio) CredentialStatus(ctx context.Context) (*models.HealthStatus, error) {
	return s.transport.CredentialStatus(ctx)
}

// ValidateApp checks an app's Key Vault reference through the
// transport before it is saved to the registry.
func (s *Studio) ValidateApp(ctx context.Context, app models.AppConfig) (*models.ValidationResult, error) {
	if app.KeyVault.URI == "" {
		return &models.ValidationResult{Valid: true}, nil
	}

	return s.transport.ValidateKeyVault(ctx, app.KeyVault)
}
