// Package server exposes the studio REST API consumed by the web-mode
// transport: token issuance, Key Vault validation, credential health,
// and Azure CLI-backed listings.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/entrastudio/token-studio/internal/models"
)

// AzureLister provides the az-backed discovery listings. Satisfied by
// *azurecli.CLI.
type AzureLister interface {
	Subscriptions(ctx context.Context) ([]models.Subscription, error)
	Apps(ctx context.Context, search string) ([]models.AppRegistration, error)
	KeyVaults(ctx context.Context, subscriptionID string) ([]models.KeyVault, error)
	Secrets(ctx context.Context, vaultName, subscriptionID string) ([]models.VaultItem, error)
	Certificates(ctx context.Context, vaultName, subscriptionID string) ([]models.VaultItem, error)
}

// CredentialService reports and validates credential configuration.
// Satisfied by *resolver.Resolver.
type CredentialService interface {
	Snapshot() models.HealthStatus
	Validate(ctx context.Context, kv models.KeyVaultConfig) models.ValidationResult
	Subscribe() (<-chan models.HealthStatus, func())
}

// TokenIssuer acquires app-only tokens, honoring the app's own Key
// Vault reference when set. Satisfied by *issuer.Issuer.
type TokenIssuer interface {
	Acquire(ctx context.Context, app models.AppConfig, scopes []string) (*models.TokenResponse, error)
}

// Server is the studio HTTP API.
type Server struct {
	azure  AzureLister
	creds  CredentialService
	issuer TokenIssuer
	logger *slog.Logger
}

// New constructs the API server.
func New(azure AzureLister, creds CredentialService, issuer TokenIssuer, logger *slog.Logger) *Server {
	return &Server{
		azure:  azure,
		creds:  creds,
		issuer: issuer,
		logger: logger,
	}
}

// Routes constructs the HTTP router with all studio endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(recoverer(s.logger))
	r.Use(requestLogger(s.logger))

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/events", s.handleEvents)

	r.Post("/api/token/app", s.handleAppToken)
	r.Post("/api/apps/validate", s.handleValidate)

	r.Route("/api/azure-cli", func(r chi.Router) {
		r.Get("/subscriptions", s.handleSubscriptions)
		r.Get("/apps", s.handleApps)
		r.Get("/keyvaults", s.handleKeyVaults)
		r.Get("/keyvaults/secrets", s.handleVaultSecrets)
		r.Get("/keyvaults/certificates", s.handleVaultCertificates)
	})

	return r
}
