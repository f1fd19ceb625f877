// Package issuer acquires app-only access tokens from Entra ID using
// the client credentials grant, signing a client assertion when the
// resolved credential is a certificate.
package issuer

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/entrastudio/token-studio/internal/models"
	"github.com/entrastudio/token-studio/internal/resolver"
)

const defaultAuthorityBase = "https://login.microsoftonline.com"

const assertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

// assertionLifetime bounds the validity of a signed client assertion.
// Entra rejects assertions valid for more than ten minutes.
const assertionLifetime = 5 * time.Minute

// CredentialResolver supplies the credential material for a token
// request: Resolve walks the configured chain, ResolveKeyVault fetches
// an app's own vault reference. Satisfied by *resolver.Resolver.
type CredentialResolver interface {
	Resolve(ctx context.Context) (*resolver.Credential, error)
	ResolveKeyVault(ctx context.Context, kv models.KeyVaultConfig) (*resolver.Credential, error)
}

// Issuer exchanges resolved credentials for access tokens.
type Issuer struct {
	creds      CredentialResolver
	logger     *slog.Logger
	authority  string
	httpClient *http.Client
	now        func() time.Time
}

// Option customizes an Issuer.
type Option func(*Issuer)

// WithAuthority overrides the Entra authority base URL.
func WithAuthority(base string) Option {
	return func(i *Issuer) { i.authority = base }
}

// WithHTTPClient sets the HTTP client used for token requests.
func WithHTTPClient(c *http.Client) Option {
	return func(i *Issuer) { i.httpClient = c }
}

// New creates an issuer backed by the given credential resolver.
func New(creds CredentialResolver, logger *slog.Logger, opts ...Option) *Issuer {
	i := &Issuer{
		creds:     creds,
		logger:    logger,
		authority: defaultAuthorityBase,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

func (i *Issuer) tokenURL(tenantID string) string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", i.authority, url.PathEscape(tenantID))
}

// Acquire requests an app-only token for the given scopes. An app
// carrying its own Key Vault reference is issued with that credential;
// otherwise the configured chain is walked. The credential is resolved
// fresh on every call so Key Vault rotations and certificate
// replacements take effect without a restart.
func (i *Issuer) Acquire(ctx context.Context, app models.AppConfig, scopes []string) (*models.TokenResponse, error) {
	if app.TenantID == "" || app.ClientID == "" {
		return nil, fmt.Errorf("tenant ID and client ID are required")
	}

	var (
		cred *resolver.Credential
		err  error
	)

	if app.KeyVault.URI != "" {
		cred, err = i.creds.ResolveKeyVault(ctx, app.KeyVault)
		if err != nil {
			return nil, fmt.Errorf("resolving app Key Vault credential: %w", err)
		}
	} else {
		cred, err = i.creds.Resolve(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolving credential: %w", err)
		}
	}

	cfg := clientcredentials.Config{
		ClientID:  app.ClientID,
		TokenURL:  i.tokenURL(app.TenantID),
		Scopes:    scopes,
		AuthStyle: oauth2.AuthStyleInParams,
	}

	switch cred.Method {
	case models.MethodSecret:
		cfg.ClientSecret = cred.Secret
	case models.MethodCertificate:
		assertion, err := i.signAssertion(cred, app.ClientID, cfg.TokenURL)
		if err != nil {
			return nil, fmt.Errorf("signing client assertion: %w", err)
		}

		cfg.EndpointParams = url.Values{
			"client_assertion_type": {assertionType},
			"client_assertion":      {assertion},
		}
	default:
		return nil, fmt.Errorf("unsupported credential method %q", cred.Method)
	}

	if i.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, i.httpClient)
	}

	tok, err := cfg.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("requesting token: %w", err)
	}

	i.logger.Info("token acquired",
		slog.String("clientID", app.ClientID),
		slog.String("authMethod", cred.Method),
		slog.String("authSource", cred.Source),
	)

	return &models.TokenResponse{
		AccessToken: tok.AccessToken,
		ExpiresOn:   tok.Expiry,
		TokenType:   tok.TokenType,
		Scopes:      scopes,
		AuthMethod:  cred.Method,
		AuthSource:  cred.Source,
	}, nil
}

// signAssertion builds the RS256 client assertion Entra expects for
// certificate credentials, with the certificate thumbprint in the x5t
// header.
func (i *Issuer) signAssertion(cred *resolver.Credential, clientID, audience string) (string, error) {
	if cred.PrivateKey == nil || cred.Certificate == nil {
		return "", fmt.Errorf("certificate credential is missing key material")
	}

	now := i.now()

	claims := jwt.MapClaims{
		"aud": audience,
		"iss": clientID,
		"sub": clientID,
		"jti": uuid.NewString(),
		"nbf": now.Unix(),
		"iat": now.Unix(),
		"exp": now.Add(assertionLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)

	thumb := sha1.Sum(cred.Certificate.Raw)
	token.Header["x5t"] = base64.RawURLEncoding.EncodeToString(thumb[:])

	return token.SignedString(cred.PrivateKey)
}
