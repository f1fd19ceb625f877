package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/entrastudio/token-studio/internal/errors"
	"github.com/entrastudio/token-studio/internal/models"
)

func testAppConfig() models.AppConfig {
	return models.AppConfig{
		ID:       "app-1",
		Name:     "Graph Explorer",
		ClientID: "11111111-2222-3333-4444-555555555555",
		TenantID: "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		KeyVault: models.KeyVaultConfig{
			URI:            "https://myvault.vault.azure.net",
			CredentialType: models.MethodSecret,
			SecretName:     "graph-secret",
		},
	}
}

func TestAcquireAppToken_Success(t *testing.T) {
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/token/app", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(models.TokenResponse{
			AccessToken: "eyJ0.token",
			TokenType:   "Bearer",
			Scope:       "https://graph.microsoft.com/.default",
			ExpiresOn:   time.Now().Add(time.Hour).UTC().Truncate(time.Second),
			AuthMethod:  models.MethodSecret,
			AuthSource:  models.SourceKeyVault,
		})
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, nil)

	token, err := h.AcquireAppToken(context.Background(), testAppConfig(), "https://graph.microsoft.com/")
	require.NoError(t, err)
	assert.Equal(t, "eyJ0.token", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, models.SourceKeyVault, token.AuthSource)

	// The dispatcher normalizes the resource before dispatch.
	assert.Equal(t, "https://graph.microsoft.com/.default", gotBody["scope"])
	assert.Equal(t, "https://graph.microsoft.com/", gotBody["resource"])
}

func TestAcquireAppToken_ErrorBodyFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"error":         "keyvault access denied",
			"code":          "keyvault_forbidden",
			"details":       "Key Vault Secrets User role required",
			"setupRequired": true,
		})
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, nil)

	_, err := h.AcquireAppToken(context.Background(), testAppConfig(), "https://graph.microsoft.com")
	require.Error(t, err)

	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, KindTransport, terr.Kind)
	assert.Contains(t, terr.Message, "keyvault access denied")
	assert.Contains(t, terr.Message, "Key Vault Secrets User role required")
	assert.Equal(t, "keyvault_forbidden", terr.Code)
	assert.True(t, terr.SetupRequired)
}

func TestDo_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream \x01 exploded"))
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, nil)

	err := h.Health(context.Background())
	require.Error(t, err)

	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.NotEmpty(t, terr.Message)
	assert.Contains(t, terr.Message, "502")
	// Control characters are replaced before inclusion in the message.
	assert.NotContains(t, terr.Message, "\x01")
}

func TestDo_ValidationStatusMapsToValidationKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"error": "vault uri is not a vault.azure.net host"})
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, nil)

	_, err := h.ValidateKeyVault(context.Background(), models.KeyVaultConfig{URI: "https://evil.example.com"})
	require.Error(t, err)

	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, KindValidation, terr.Kind)
}

func TestListings_QueryParameters(t *testing.T) {
	var gotPath, gotQuery string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, nil)
	ctx := context.Background()

	_, err := h.ListApps(ctx, "graph")
	require.NoError(t, err)
	assert.Equal(t, "/api/azure-cli/apps", gotPath)
	assert.Equal(t, "search=graph", gotQuery)

	_, err = h.ListKeyVaults(ctx, "sub-123")
	require.NoError(t, err)
	assert.Equal(t, "/api/azure-cli/keyvaults", gotPath)
	assert.Equal(t, "subscriptionId=sub-123", gotQuery)

	_, err = h.ListKeyVaultSecrets(ctx, "myvault", "")
	require.NoError(t, err)
	assert.Equal(t, "/api/azure-cli/keyvaults/secrets", gotPath)
	assert.Equal(t, "vaultName=myvault", gotQuery)

	_, err = h.ListKeyVaultCertificates(ctx, "myvault", "sub-123")
	require.NoError(t, err)
	assert.Equal(t, "/api/azure-cli/keyvaults/certificates", gotPath)
	assert.Contains(t, gotQuery, "vaultName=myvault")
	assert.Contains(t, gotQuery, "subscriptionId=sub-123")
}

// countingTransport fails the test if any request is issued.
type countingTransport struct {
	t     *testing.T
	calls int
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls++
	c.t.Error("native-only operation issued an HTTP request")

	return nil, errors.New("unexpected request")
}

func TestNativeOnly_RejectWithoutRequest(t *testing.T) {
	counter := &countingTransport{t: t}
	h := NewHTTP("http://studio.invalid", &http.Client{Transport: counter})
	ctx := context.Background()

	_, err := h.AcquireUserToken(ctx, UserTokenRequest{ClientID: "c", TenantID: "t"})
	assertNativeOnly(t, err)

	_, err = h.UserAccounts(ctx, "c", "t")
	assertNativeOnly(t, err)

	err = h.ClearUserCache(ctx, "c", "t")
	assertNativeOnly(t, err)

	_, err = h.AuthStorageStatus(ctx)
	assertNativeOnly(t, err)

	err = h.Exit(ctx)
	assertNativeOnly(t, err)

	assert.Zero(t, counter.calls)
}

func assertNativeOnly(t *testing.T, err error) {
	t.Helper()

	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, KindEnvironment, terr.Kind)
	assert.Equal(t, "native_only", terr.Code)
	assert.Contains(t, terr.Message, "native desktop runtime")
	assert.ErrorIs(t, err, apperrors.ErrNativeOnly)
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "boom (az_not_found)", (&Error{Message: "boom", Code: "az_not_found"}).Error())
	assert.Equal(t, "boom", (&Error{Message: "boom"}).Error())
}
