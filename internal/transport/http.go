package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/entrastudio/token-studio/internal/models"
)

const (
	// httpClientTimeout is the timeout for the default HTTP client used
	// when no custom client is provided.
	httpClientTimeout = 30 * time.Second

	// maxAPIResponseBytes caps response body reads to prevent a
	// misbehaving server from consuming unbounded memory.
	maxAPIResponseBytes = 1024 * 1024
)

// apiError is the JSON error payload returned by the studio server.
type apiError struct {
	Error         string `json:"error"`
	Code          string `json:"code,omitempty"`
	Details       string `json:"details,omitempty"`
	SetupRequired bool   `json:"setupRequired,omitempty"`
}

// HTTP dispatches operations to a studio server over REST. It is the
// web-mode transport; native-only operations fail immediately without
// issuing a request.
type HTTP struct {
	httpClient *http.Client
	baseURL    string
}

var _ Transport = (*HTTP)(nil)

// NewHTTP creates the web transport against baseURL. If httpClient is
// nil, a client with a 30-second timeout is used.
func NewHTTP(baseURL string, httpClient *http.Client) *HTTP {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: httpClientTimeout}
	}

	return &HTTP{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// sanitizeResponseBody truncates and sanitizes a response body for
// inclusion in error messages. Limits to 256 bytes and replaces
// non-printable characters to prevent log injection.
func sanitizeResponseBody(body []byte) string {
	const maxLen = 256
	if len(body) > maxLen {
		body = body[:maxLen]
	}

	var clean []byte

	for len(body) > 0 {
		r, size := utf8.DecodeRune(body)
		if r == utf8.RuneError && size <= 1 {
			clean = append(clean, '?')
			body = body[1:]

			continue
		}

		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			clean = append(clean, '?')
		} else {
			clean = append(clean, body[:size]...)
		}

		body = body[size:]
	}

	return string(clean)
}

// do sends a request and decodes a 2xx JSON response into result.
// Non-2xx responses become a *Error carrying code/details/setupRequired
// from the body when present.
func (h *HTTP) do(ctx context.Context, method, endpoint string, query url.Values, body, result any) error {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshalling request body: %w", err)
		}

		reader = bytes.NewReader(payload)
	}

	target := h.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Message: fmt.Sprintf("request to %s failed: %v", endpoint, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return &Error{Kind: KindTransport, Message: fmt.Sprintf("reading response from %s: %v", endpoint, err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
		return newStatusError(endpoint, resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &Error{Kind: KindTransport, Message: fmt.Sprintf("decoding response from %s: %v", endpoint, err)}
		}
	}

	return nil
}

// newStatusError constructs the normalized error for a non-2xx status.
// The message is derived from the body's error/details fields when the
// payload parses; otherwise the sanitized raw body is used.
func newStatusError(endpoint string, status int, body []byte) *Error {
	kind := KindTransport
	if status == http.StatusBadRequest || status == http.StatusUnprocessableEntity {
		kind = KindValidation
	}

	var payload apiError
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg := payload.Error
		if payload.Details != "" {
			msg = fmt.Sprintf("%s: %s", payload.Error, payload.Details)
		}

		return &Error{
			Kind:          kind,
			Message:       msg,
			Code:          payload.Code,
			Details:       payload.Details,
			SetupRequired: payload.SetupRequired,
		}
	}

	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf("%s returned status %d: %s", endpoint, status, sanitizeResponseBody(body)),
	}
}

func (h *HTTP) AcquireAppToken(ctx context.Context, cfg models.AppConfig, resource string) (*models.TokenResponse, error) {
	body := map[string]any{
		"config":   cfg,
		"resource": resource,
		"scope":    NormalizeScope(resource),
	}

	var token models.TokenResponse
	if err := h.do(ctx, http.MethodPost, "/api/token/app", nil, body, &token); err != nil {
		return nil, err
	}

	return &token, nil
}

func (h *HTTP) ValidateKeyVault(ctx context.Context, kv models.KeyVaultConfig) (*models.ValidationResult, error) {
	var result models.ValidationResult
	if err := h.do(ctx, http.MethodPost, "/api/apps/validate", nil, kv, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (h *HTTP) CredentialStatus(ctx context.Context) (*models.HealthStatus, error) {
	var status models.HealthStatus
	if err := h.do(ctx, http.MethodGet, "/api/health", nil, nil, &status); err != nil {
		return nil, err
	}

	return &status, nil
}

func (h *HTTP) Health(ctx context.Context) error {
	return h.do(ctx, http.MethodGet, "/api/health", nil, nil, nil)
}

func (h *HTTP) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := h.do(ctx, http.MethodGet, "/api/azure-cli/subscriptions", nil, nil, &subs); err != nil {
		return nil, err
	}

	return subs, nil
}

func (h *HTTP) ListApps(ctx context.Context, search string) ([]models.AppRegistration, error) {
	query := url.Values{}
	if search != "" {
		query.Set("search", search)
	}

	var apps []models.AppRegistration
	if err := h.do(ctx, http.MethodGet, "/api/azure-cli/apps", query, nil, &apps); err != nil {
		return nil, err
	}

	return apps, nil
}

func (h *HTTP) ListKeyVaults(ctx context.Context, subscriptionID string) ([]models.KeyVault, error) {
	query := url.Values{}
	if subscriptionID != "" {
		query.Set("subscriptionId", subscriptionID)
	}

	var vaults []models.KeyVault
	if err := h.do(ctx, http.MethodGet, "/api/azure-cli/keyvaults", query, nil, &vaults); err != nil {
		return nil, err
	}

	return vaults, nil
}

func (h *HTTP) ListKeyVaultSecrets(ctx context.Context, vaultName, subscriptionID string) ([]models.VaultItem, error) {
	return h.listVaultItems(ctx, "/api/azure-cli/keyvaults/secrets", vaultName, subscriptionID)
}

func (h *HTTP) ListKeyVaultCertificates(ctx context.Context, vaultName, subscriptionID string) ([]models.VaultItem, error) {
	return h.listVaultItems(ctx, "/api/azure-cli/keyvaults/certificates", vaultName, subscriptionID)
}

func (h *HTTP) listVaultItems(ctx context.Context, endpoint, vaultName, subscriptionID string) ([]models.VaultItem, error) {
	query := url.Values{}
	query.Set("vaultName", vaultName)

	if subscriptionID != "" {
		query.Set("subscriptionId", subscriptionID)
	}

	var items []models.VaultItem
	if err := h.do(ctx, http.MethodGet, endpoint, query, nil, &items); err != nil {
		return nil, err
	}

	return items, nil
}

// Native-only operations: no HTTP fallback exists for these, since
// they need OS-level browser and IPC capabilities absent from a web
// sandbox.

func (h *HTTP) AcquireUserToken(ctx context.Context, req UserTokenRequest) (*models.TokenResponse, error) {
	return nil, notAvailable("interactive sign-in")
}

func (h *HTTP) UserAccounts(ctx context.Context, clientID, tenantID string) ([]models.Account, error) {
	return nil, notAvailable("reading cached accounts")
}

func (h *HTTP) ClearUserCache(ctx context.Context, clientID, tenantID string) error {
	return notAvailable("clearing the token cache")
}

func (h *HTTP) AuthStorageStatus(ctx context.Context) (*models.StorageStatus, error) {
	return nil, notAvailable("auth storage status")
}

func (h *HTTP) Exit(ctx context.Context) error {
	return notAvailable("process exit")
}
