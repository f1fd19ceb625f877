// Package models defines types shared across internal packages.
package models

import "time"

// Credential method and source identifiers, as reported by the
// credential resolver and carried on issued tokens.
const (
	MethodSecret      = "secret"
	MethodCertificate = "certificate"

	SourceKeyVault = "keyvault"
	SourceLocal    = "local"
)

// TokenResponse is an issued access token, produced by either
// transport path. It is immutable once returned.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresOn   time.Time `json:"expiresOn,omitempty"`
	TokenType   string    `json:"tokenType"`
	Scope       string    `json:"scope,omitempty"`
	Scopes      []string  `json:"scopes,omitempty"`
	AuthMethod  string    `json:"authMethod,omitempty"`
	AuthSource  string    `json:"authSource,omitempty"`
	Account     *Account  `json:"account,omitempty"`
}

// Account identifies the signed-in user for delegated tokens.
type Account struct {
	HomeAccountID string `json:"homeAccountId"`
	Username      string `json:"username"`
	Name          string `json:"name,omitempty"`
	TenantID      string `json:"tenantId,omitempty"`
}

// KeyVaultConfig points at the credential material for an app.
// Exactly one of SecretName/CertName is set, matching CredentialType.
type KeyVaultConfig struct {
	URI            string `json:"uri" yaml:"uri"`
	CredentialType string `json:"credentialType" yaml:"credentialType"`
	SecretName     string `json:"secretName,omitempty" yaml:"secretName,omitempty"`
	CertName       string `json:"certName,omitempty" yaml:"certName,omitempty"`
}

// AppConfig is a registered client application.
type AppConfig struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	ClientID    string         `json:"clientId" yaml:"clientId"`
	TenantID    string         `json:"tenantId" yaml:"tenantId"`
	RedirectURI string         `json:"redirectUri,omitempty" yaml:"redirectUri,omitempty"`
	KeyVault    KeyVaultConfig `json:"keyVault" yaml:"keyVault"`
	Color       string         `json:"color,omitempty" yaml:"color,omitempty"`
	Tags        []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   time.Time      `json:"createdAt" yaml:"createdAt"`
	LastUsedAt  *time.Time     `json:"lastUsedAt,omitempty" yaml:"lastUsedAt,omitempty"`
}

// HealthChecks holds the per-field boolean checks backing setup status.
type HealthChecks struct {
	TenantID       bool `json:"tenantId"`
	ClientID       bool `json:"clientId"`
	ClientSecret   bool `json:"clientSecret"`
	RedirectURI    bool `json:"redirectUri"`
	KeyVaultCert   bool `json:"keyVaultCertificate"`
	LocalCert      bool `json:"localCertificate"`
	KeyVaultSecret bool `json:"keyVaultSecret"`
	LocalSecret    bool `json:"localSecret"`
}

// HealthStatus is a read-only snapshot of which credential path is
// currently active plus the individual configuration checks.
// Recomputed on demand, never mutated directly.
type HealthStatus struct {
	Status     string       `json:"status"`
	AuthMethod string       `json:"authMethod,omitempty"`
	AuthSource string       `json:"authSource,omitempty"`
	Checks     HealthChecks `json:"checks"`
	Message    string       `json:"message,omitempty"`
}

// ValidationResult is the outcome of a Key Vault connectivity check.
type ValidationResult struct {
	Valid          bool   `json:"valid"`
	CredentialType string `json:"credentialType,omitempty"`
	Message        string `json:"message,omitempty"`
	Details        string `json:"details,omitempty"`
}

// FavoriteItem is a saved token target. TokenData holds only display
// metadata; the raw access token is cleared before persistence.
type FavoriteItem struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Target    string         `json:"target"`
	TokenData *TokenResponse `json:"tokenData,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	Color     string         `json:"color,omitempty"`
	IsPinned  bool           `json:"isPinned,omitempty"`
	PinnedAt  *time.Time     `json:"pinnedAt,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UseCount  int            `json:"useCount"`
}

// HistoryItem records a past token acquisition.
type HistoryItem struct {
	ID         string    `json:"id"`
	AppID      string    `json:"appId,omitempty"`
	Resource   string    `json:"resource"`
	Scope      string    `json:"scope"`
	AuthMethod string    `json:"authMethod,omitempty"`
	AuthSource string    `json:"authSource,omitempty"`
	ExpiresOn  time.Time `json:"expiresOn,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// StorageStatus reports whether the native token cache is backed by
// encrypted storage and which key source protects it.
type StorageStatus struct {
	Available bool   `json:"available"`
	Source    string `json:"source,omitempty"`
	Message   string `json:"message,omitempty"`
}

// AzureResult is the envelope returned by Azure CLI backed listings.
type AzureResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Subscription is an Azure subscription visible to the CLI login.
type Subscription struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TenantID  string `json:"tenantId"`
	State     string `json:"state,omitempty"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

// AppRegistration is an Entra app registration summary.
type AppRegistration struct {
	AppID       string `json:"appId"`
	DisplayName string `json:"displayName"`
	CreatedAt   string `json:"createdDateTime,omitempty"`
}

// KeyVault is a Key Vault instance summary.
type KeyVault struct {
	Name          string `json:"name"`
	URI           string `json:"uri"`
	Location      string `json:"location,omitempty"`
	ResourceGroup string `json:"resourceGroup,omitempty"`
}

// VaultItem is a secret or certificate listed from a Key Vault.
type VaultItem struct {
	Name    string     `json:"name"`
	ID      string     `json:"id,omitempty"`
	Enabled bool       `json:"enabled"`
	Expires *time.Time `json:"expires,omitempty"`
}
