// Package resolver performs the server-side credential resolution the
// chain display renders: an ordered fallback search across Key Vault
// and local credential sources. It also produces the HealthStatus
// snapshot exposed at /api/health.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/entrastudio/token-studio/internal/credchain"
	apperrors "github.com/entrastudio/token-studio/internal/errors"
	"github.com/entrastudio/token-studio/internal/models"
)

// SecretFetcher reads secret values from a Key Vault. Satisfied by
// *azurecli.CLI.
type SecretFetcher interface {
	SecretValue(ctx context.Context, vaultName, name string) (string, error)
}

// Options are the credential source settings, typically taken from
// the environment config.
type Options struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	RedirectURI  string

	KeyVaultURI        string
	KeyVaultSecretName string
	KeyVaultCertName   string

	LocalCertFile     string
	LocalCertPassword string
}

// Resolver evaluates the credential chain and notifies subscribers
// when the local certificate file changes.
type Resolver struct {
	opts   Options
	cli    SecretFetcher
	logger *slog.Logger

	mu   sync.Mutex
	subs map[int]chan models.HealthStatus
	next int
}

// New creates a resolver. cli is used for Key Vault access and may be
// shared with the listing handlers.
func New(opts Options, cli SecretFetcher, logger *slog.Logger) *Resolver {
	return &Resolver{
		opts:   opts,
		cli:    cli,
		logger: logger,
		subs:   make(map[int]chan models.HealthStatus),
	}
}

// checks computes the per-source configuration booleans. Key Vault
// sources count as configured when fully referenced; reachability is
// only proven by Resolve or ValidateKeyVault, keeping the snapshot
// cheap enough to recompute on demand.
func (r *Resolver) checks() models.HealthChecks {
	return models.HealthChecks{
		TenantID:       r.opts.TenantID != "",
		ClientID:       r.opts.ClientID != "",
		ClientSecret:   r.opts.ClientSecret != "" || (r.opts.KeyVaultURI != "" && r.opts.KeyVaultSecretName != ""),
		RedirectURI:    r.opts.RedirectURI != "",
		KeyVaultCert:   r.opts.KeyVaultURI != "" && r.opts.KeyVaultCertName != "",
		LocalCert:      r.localCertUsable(),
		KeyVaultSecret: r.opts.KeyVaultURI != "" && r.opts.KeyVaultSecretName != "",
		LocalSecret:    r.opts.ClientSecret != "",
	}
}

// localCertUsable reports whether the local certificate file exists
// and parses with its key. Expired certificates regress the check so
// the setup state machine moves backward.
func (r *Resolver) localCertUsable() bool {
	if r.opts.LocalCertFile == "" {
		return false
	}

	_, cert, err := loadCertificateFile(r.opts.LocalCertFile, r.opts.LocalCertPassword)
	if err != nil {
		return false
	}

	return time.Now().Before(cert.NotAfter)
}

// Snapshot returns the current health snapshot. The active path is the
// highest-priority configured source; when nothing is configured the
// auth method is reported absent rather than defaulted.
func (r *Resolver) Snapshot() models.HealthStatus {
	checks := r.checks()

	hs := models.HealthStatus{
		Checks: checks,
		Status: string(credchain.SetupStateOf(checks)),
	}

	for _, p := range credchain.Chain {
		if pathConfigured(checks, p) {
			hs.AuthMethod = p.Method
			hs.AuthSource = p.Source
			break
		}
	}

	if hs.AuthMethod == "" {
		hs.Message = "no credential source configured"
	}

	return hs
}

func pathConfigured(checks models.HealthChecks, p credchain.Path) bool {
	switch p {
	case credchain.Path{Method: models.MethodCertificate, Source: models.SourceKeyVault}:
		return checks.KeyVaultCert
	case credchain.Path{Method: models.MethodCertificate, Source: models.SourceLocal}:
		return checks.LocalCert
	case credchain.Path{Method: models.MethodSecret, Source: models.SourceKeyVault}:
		return checks.KeyVaultSecret
	case credchain.Path{Method: models.MethodSecret, Source: models.SourceLocal}:
		return checks.LocalSecret
	}

	return false
}

// Resolve materializes the highest-priority usable credential, walking
// the chain in order. Sources that are configured but fail to load
// fall through to the next source; the last error is reported when
// nothing succeeds.
func (r *Resolver) Resolve(ctx context.Context) (*Credential, error) {
	var lastErr error

	for _, p := range credchain.Chain {
		if !pathConfigured(r.checks(), p) {
			continue
		}

		cred, err := r.materialize(ctx, p)
		if err != nil {
			r.logger.Warn("credential source failed, falling back",
				slog.String("method", p.Method),
				slog.String("source", p.Source),
				slog.String("error", err.Error()),
			)

			lastErr = err

			continue
		}

		return cred, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all configured credential sources failed: %w", lastErr)
	}

	return nil, apperrors.ErrNotConfigured
}

func (r *Resolver) materialize(ctx context.Context, p credchain.Path) (*Credential, error) {
	switch p {
	case credchain.Path{Method: models.MethodCertificate, Source: models.SourceKeyVault}:
		// Key Vault stores certificates with private keys as base64
		// PFX secrets addressable by the certificate name.
		b64, err := r.cli.SecretValue(ctx, vaultName(r.opts.KeyVaultURI), r.opts.KeyVaultCertName)
		if err != nil {
			return nil, err
		}

		key, cert, err := parsePFXBase64(b64, "")
		if err != nil {
			return nil, err
		}

		return &Credential{Method: p.Method, Source: p.Source, PrivateKey: key, Certificate: cert}, nil

	case credchain.Path{Method: models.MethodCertificate, Source: models.SourceLocal}:
		key, cert, err := loadCertificateFile(r.opts.LocalCertFile, r.opts.LocalCertPassword)
		if err != nil {
			return nil, err
		}

		return &Credential{Method: p.Method, Source: p.Source, PrivateKey: key, Certificate: cert}, nil

	case credchain.Path{Method: models.MethodSecret, Source: models.SourceKeyVault}:
		secret, err := r.cli.SecretValue(ctx, vaultName(r.opts.KeyVaultURI), r.opts.KeyVaultSecretName)
		if err != nil {
			return nil, err
		}

		return &Credential{Method: p.Method, Source: p.Source, Secret: secret}, nil

	case credchain.Path{Method: models.MethodSecret, Source: models.SourceLocal}:
		return &Credential{Method: p.Method, Source: p.Source, Secret: r.opts.ClientSecret}, nil
	}

	return nil, fmt.Errorf("unknown credential path %s/%s", p.Method, p.Source)
}

// ResolveKeyVault materializes a credential from an explicit Key Vault
// reference, bypassing the configured chain. Apps registered with
// their own vault are issued with this credential instead of the
// server's.
func (r *Resolver) ResolveKeyVault(ctx context.Context, kv models.KeyVaultConfig) (*Credential, error) {
	name := kv.SecretName
	if kv.CredentialType == models.MethodCertificate {
		name = kv.CertName
	}

	if kv.URI == "" || name == "" {
		return nil, fmt.Errorf("vault URI and credential name are required")
	}

	value, err := r.cli.SecretValue(ctx, vaultName(kv.URI), name)
	if err != nil {
		return nil, fmt.Errorf("fetching %s from %s: %w", name, kv.URI, err)
	}

	if kv.CredentialType == models.MethodCertificate {
		key, cert, err := parsePFXBase64(value, "")
		if err != nil {
			return nil, err
		}

		return &Credential{
			Method:      models.MethodCertificate,
			Source:      models.SourceKeyVault,
			PrivateKey:  key,
			Certificate: cert,
		}, nil
	}

	return &Credential{Method: models.MethodSecret, Source: models.SourceKeyVault, Secret: value}, nil
}

// Validate checks a Key Vault credential reference by fetching it.
func (r *Resolver) Validate(ctx context.Context, kv models.KeyVaultConfig) models.ValidationResult {
	name := kv.SecretName
	if kv.CredentialType == models.MethodCertificate {
		name = kv.CertName
	}

	if kv.URI == "" || name == "" {
		return models.ValidationResult{
			Valid:          false,
			CredentialType: kv.CredentialType,
			Message:        "vault URI and credential name are required",
		}
	}

	value, err := r.cli.SecretValue(ctx, vaultName(kv.URI), name)
	if err != nil {
		return models.ValidationResult{
			Valid:          false,
			CredentialType: kv.CredentialType,
			Message:        err.Error(),
			Details:        fmt.Sprintf("vault=%s name=%s", kv.URI, name),
		}
	}

	if kv.CredentialType == models.MethodCertificate {
		if _, _, err := parsePFXBase64(value, ""); err != nil {
			return models.ValidationResult{
				Valid:          false,
				CredentialType: kv.CredentialType,
				Message:        "certificate could not be decoded",
				Details:        err.Error(),
			}
		}
	}

	return models.ValidationResult{Valid: true, CredentialType: kv.CredentialType}
}

// vaultName extracts the vault name from a vault URI, accepting bare
// names as-is so both forms work in config.
func vaultName(uri string) string {
	name := strings.TrimPrefix(strings.TrimPrefix(uri, "https://"), "http://")

	if idx := strings.IndexAny(name, "./"); idx >= 0 {
		name = name[:idx]
	}

	return name
}

// Subscribe registers for health snapshots pushed on local credential
// changes. The returned cancel func must be called to release the
// subscription.
func (r *Resolver) Subscribe() (<-chan models.HealthStatus, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.next
	r.next++

	ch := make(chan models.HealthStatus, 1)
	r.subs[id] = ch

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if _, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(ch)
		}
	}

	return ch, cancel
}

// notify pushes the current snapshot to all subscribers, dropping for
// slow receivers rather than blocking the watcher.
func (r *Resolver) notify() {
	hs := r.Snapshot()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ch := range r.subs {
		select {
		case ch <- hs:
		default:
		}
	}
}
