// Package credchain orders and displays the credential-resolution
// fallback chain. Resolution happens on the server or sidecar side;
// this package renders its outcome and drives the setup guidance the
// client shows per path.
package credchain

import "github.com/entrastudio/token-studio/internal/models"

// Path identifies one (method, source) credential pair.
type Path struct {
	Method string `json:"method"`
	Source string `json:"source"`
}

// Chain is the fixed resolution priority, highest first. The order
// reflects a security posture: prefer Key Vault over local files, and
// prefer certificates over shared secrets.
var Chain = []Path{
	{Method: models.MethodCertificate, Source: models.SourceKeyVault},
	{Method: models.MethodCertificate, Source: models.SourceLocal},
	{Method: models.MethodSecret, Source: models.SourceKeyVault},
	{Method: models.MethodSecret, Source: models.SourceLocal},
}

// PathStatus is the display tuple for one path. Active is true only
// for the single path matching the snapshot's authMethod+authSource.
type PathStatus struct {
	Path
	Configured bool `json:"configured"`
	Active     bool `json:"active"`
}

// configured maps a path to its boolean check in the snapshot.
func configured(checks models.HealthChecks, p Path) bool {
	switch p {
	case Path{Method: models.MethodCertificate, Source: models.SourceKeyVault}:
		return checks.KeyVaultCert
	case Path{Method: models.MethodCertificate, Source: models.SourceLocal}:
		return checks.LocalCert
	case Path{Method: models.MethodSecret, Source: models.SourceKeyVault}:
		return checks.KeyVaultSecret
	case Path{Method: models.MethodSecret, Source: models.SourceLocal}:
		return checks.LocalSecret
	}

	return false
}

// Display derives the per-path status tuples from a health snapshot,
// in chain priority order.
func Display(hs models.HealthStatus) []PathStatus {
	out := make([]PathStatus, 0, len(Chain))

	for _, p := range Chain {
		out = append(out, PathStatus{
			Path:       p,
			Configured: configured(hs.Checks, p),
			Active:     hs.AuthMethod == p.Method && hs.AuthSource == p.Source,
		})
	}

	return out
}

// ActivePath returns the path currently in use, or false when the
// snapshot reports no active credential.
func ActivePath(hs models.HealthStatus) (Path, bool) {
	if hs.AuthMethod == "" {
		return Path{}, false
	}

	for _, p := range Chain {
		if hs.AuthMethod == p.Method && hs.AuthSource == p.Source {
			return p, true
		}
	}

	return Path{}, false
}

// SetupState classifies overall configuration progress.
type SetupState string

const (
	NotConfigured       SetupState = "not_configured"
	PartiallyConfigured SetupState = "partially_configured"
	Configured          SetupState = "configured"
)

// SetupStateOf computes the setup state from the snapshot checks.
// Configured requires tenant, client, and at least one credential
// source; the state moves backward if any required check regresses.
func SetupStateOf(checks models.HealthChecks) SetupState {
	anyCredential := checks.KeyVaultCert || checks.LocalCert || checks.KeyVaultSecret || checks.LocalSecret

	if checks.TenantID && checks.ClientID && anyCredential {
		return Configured
	}

	if checks.TenantID || checks.ClientID || anyCredential {
		return PartiallyConfigured
	}

	return NotConfigured
}

// Guidance returns actionable setup text for a path, including the
// RBAC role names Key Vault access needs.
func Guidance(p Path) string {
	switch p {
	case Path{Method: models.MethodCertificate, Source: models.SourceKeyVault}:
		return "Store the client certificate in Key Vault and grant the app the Key Vault Certificates User role (Key Vault Secrets User is also required to read the private key)."
	case Path{Method: models.MethodCertificate, Source: models.SourceLocal}:
		return "Point STUDIO_CLIENT_CERT_FILE at a PEM or PFX certificate with its private key."
	case Path{Method: models.MethodSecret, Source: models.SourceKeyVault}:
		return "Store the client secret in Key Vault and grant the app the Key Vault Secrets User role."
	case Path{Method: models.MethodSecret, Source: models.SourceLocal}:
		return "Set AZURE_CLIENT_SECRET in the environment."
	}

	return ""
}
