// Package transport presents one async operation set for the studio
// regardless of execution environment. The native implementation talks
// JSON-RPC to the sidecar process; the HTTP implementation talks to a
// studio server. Callers receive structurally identical results from
// both paths and never branch on the runtime themselves.
package transport

import (
	"context"

	"github.com/entrastudio/token-studio/internal/models"
)

// UserTokenRequest describes a delegated token acquisition. Delegated
// flows need the system browser and the native token cache, so they
// are native-only.
type UserTokenRequest struct {
	ClientID             string   `json:"clientId"`
	TenantID             string   `json:"tenantId"`
	Scopes               []string `json:"scopes"`
	Prompt               string   `json:"prompt,omitempty"`
	AccountHomeAccountID string   `json:"accountHomeAccountId,omitempty"`
	SilentOnly           bool     `json:"silentOnly,omitempty"`
}

//go:generate mockgen -source=transport.go -destination=mocks/transport_mock.go -package=mocks Transport

// Transport is the runtime dispatcher: one method per logical
// operation. No method retries; retry policy belongs to the caller.
// Timeouts are the underlying transport's defaults.
type Transport interface {
	// AcquireAppToken issues a client-credentials token for the app's
	// resolved credential. The resource is normalized to its /.default
	// scope before dispatch.
	AcquireAppToken(ctx context.Context, cfg models.AppConfig, resource string) (*models.TokenResponse, error)

	// ValidateKeyVault checks connectivity and access to the configured
	// Key Vault credential.
	ValidateKeyVault(ctx context.Context, kv models.KeyVaultConfig) (*models.ValidationResult, error)

	// CredentialStatus returns the current credential resolution snapshot.
	CredentialStatus(ctx context.Context) (*models.HealthStatus, error)

	// Health checks that the backend (sidecar or server) is reachable.
	Health(ctx context.Context) error

	ListSubscriptions(ctx context.Context) ([]models.Subscription, error)
	ListApps(ctx context.Context, search string) ([]models.AppRegistration, error)
	ListKeyVaults(ctx context.Context, subscriptionID string) ([]models.KeyVault, error)
	ListKeyVaultSecrets(ctx context.Context, vaultName, subscriptionID string) ([]models.VaultItem, error)
	ListKeyVaultCertificates(ctx context.Context, vaultName, subscriptionID string) ([]models.VaultItem, error)

	// Native-only operations. These require OS-level browser or IPC
	// capabilities and fail with an environment-mismatch error on the
	// HTTP transport.
	AcquireUserToken(ctx context.Context, req UserTokenRequest) (*models.TokenResponse, error)
	UserAccounts(ctx context.Context, clientID, tenantID string) ([]models.Account, error)
	ClearUserCache(ctx context.Context, clientID, tenantID string) error
	AuthStorageStatus(ctx context.Context) (*models.StorageStatus, error)
	Exit(ctx context.Context) error
}
