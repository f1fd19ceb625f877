package resolver

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrastudio/token-studio/internal/credchain"
	apperrors "github.com/entrastudio/token-studio/internal/errors"
	"github.com/entrastudio/token-studio/internal/models"
)

type fakeFetcher struct {
	values map[string]string
	err    error
	calls  []string
}

func (f *fakeFetcher) SecretValue(_ context.Context, vaultName, name string) (string, error) {
	f.calls = append(f.calls, vaultName+"/"+name)

	if f.err != nil {
		return "", f.err
	}

	return f.values[name], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeCertPEM writes a self-signed RSA certificate and key as a PEM
// bundle and returns its path.
func writeCertPEM(t *testing.T, notAfter time.Time) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "token-studio-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     notAfter,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "client.pem")

	f, err := os.Create(path)
	require.NoError(t, err)

	require.NoError(t, pem.Encode(f, &pem.Block{Type: "CERTIFICATE", Bytes: der}))
	require.NoError(t, pem.Encode(f, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}))
	require.NoError(t, f.Close())

	return path
}

func TestSnapshotNotConfigured(t *testing.T) {
	r := New(Options{}, &fakeFetcher{}, testLogger())

	hs := r.Snapshot()

	assert.Equal(t, string(credchain.NotConfigured), hs.Status)
	assert.Empty(t, hs.AuthMethod)
	assert.Equal(t, "no credential source configured", hs.Message)
}

func TestSnapshotPartiallyConfigured(t *testing.T) {
	r := New(Options{TenantID: "tid", ClientSecret: "s3cret"}, &fakeFetcher{}, testLogger())

	hs := r.Snapshot()

	assert.Equal(t, string(credchain.PartiallyConfigured), hs.Status)
	assert.Equal(t, models.MethodSecret, hs.AuthMethod)
	assert.Equal(t, models.SourceLocal, hs.AuthSource)
}

func TestSnapshotActivePathPrefersKeyVaultCert(t *testing.T) {
	opts := Options{
		TenantID:           "tid",
		ClientID:           "cid",
		ClientSecret:       "s3cret",
		KeyVaultURI:        "https://vault1.vault.azure.net/",
		KeyVaultSecretName: "app-secret",
		KeyVaultCertName:   "app-cert",
	}

	hs := New(opts, &fakeFetcher{}, testLogger()).Snapshot()

	assert.Equal(t, string(credchain.Configured), hs.Status)
	assert.Equal(t, models.MethodCertificate, hs.AuthMethod)
	assert.Equal(t, models.SourceKeyVault, hs.AuthSource)
}

func TestLocalCertCheckRegressesWhenExpired(t *testing.T) {
	expired := writeCertPEM(t, time.Now().Add(-time.Minute))

	r := New(Options{LocalCertFile: expired}, &fakeFetcher{}, testLogger())
	assert.False(t, r.checks().LocalCert)

	valid := writeCertPEM(t, time.Now().Add(time.Hour))

	r = New(Options{LocalCertFile: valid}, &fakeFetcher{}, testLogger())
	assert.True(t, r.checks().LocalCert)
}

func TestResolveNotConfigured(t *testing.T) {
	r := New(Options{TenantID: "tid", ClientID: "cid"}, &fakeFetcher{}, testLogger())

	_, err := r.Resolve(context.Background())
	require.ErrorIs(t, err, apperrors.ErrNotConfigured)
}

func TestResolveLocalSecret(t *testing.T) {
	r := New(Options{ClientSecret: "s3cret"}, &fakeFetcher{}, testLogger())

	cred, err := r.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.MethodSecret, cred.Method)
	assert.Equal(t, models.SourceLocal, cred.Source)
	assert.Equal(t, "s3cret", cred.Secret)
}

func TestResolveLocalCertificateBeatsSecret(t *testing.T) {
	path := writeCertPEM(t, time.Now().Add(time.Hour))

	r := New(Options{ClientSecret: "s3cret", LocalCertFile: path}, &fakeFetcher{}, testLogger())

	cred, err := r.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.MethodCertificate, cred.Method)
	assert.Equal(t, models.SourceLocal, cred.Source)
	require.NotNil(t, cred.PrivateKey)
	require.NotNil(t, cred.Certificate)
	assert.Equal(t, "token-studio-test", cred.Certificate.Subject.CommonName)
}

func TestResolveKeyVaultSecret(t *testing.T) {
	fetcher := &fakeFetcher{values: map[string]string{"app-secret": "from-vault"}}

	opts := Options{
		KeyVaultURI:        "https://vault1.vault.azure.net/",
		KeyVaultSecretName: "app-secret",
	}

	cred, err := New(opts, fetcher, testLogger()).Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.MethodSecret, cred.Method)
	assert.Equal(t, models.SourceKeyVault, cred.Source)
	assert.Equal(t, "from-vault", cred.Secret)
	assert.Equal(t, []string{"vault1/app-secret"}, fetcher.calls)
}

func TestResolveFallsThroughFailedKeyVault(t *testing.T) {
	fetcher := &fakeFetcher{err: assert.AnError}

	opts := Options{
		ClientSecret:       "env-secret",
		KeyVaultURI:        "https://vault1.vault.azure.net/",
		KeyVaultSecretName: "app-secret",
	}

	cred, err := New(opts, fetcher, testLogger()).Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.SourceLocal, cred.Source)
	assert.Equal(t, "env-secret", cred.Secret)
}

func TestResolveAllConfiguredSourcesFailed(t *testing.T) {
	fetcher := &fakeFetcher{err: assert.AnError}

	opts := Options{
		KeyVaultURI:        "https://vault1.vault.azure.net/",
		KeyVaultSecretName: "app-secret",
	}

	_, err := New(opts, fetcher, testLogger()).Resolve(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "all configured credential sources failed")
}

func TestValidateMissingReference(t *testing.T) {
	r := New(Options{}, &fakeFetcher{}, testLogger())

	res := r.Validate(context.Background(), models.KeyVaultConfig{CredentialType: models.MethodSecret})

	assert.False(t, res.Valid)
	assert.Contains(t, res.Message, "required")
}

func TestValidateSecret(t *testing.T) {
	fetcher := &fakeFetcher{values: map[string]string{"app-secret": "v"}}
	r := New(Options{}, fetcher, testLogger())

	res := r.Validate(context.Background(), models.KeyVaultConfig{
		URI:            "https://vault1.vault.azure.net/",
		SecretName:     "app-secret",
		CredentialType: models.MethodSecret,
	})

	assert.True(t, res.Valid)
	assert.Equal(t, models.MethodSecret, res.CredentialType)
}

func TestValidateCertificateRejectsBadPFX(t *testing.T) {
	fetcher := &fakeFetcher{values: map[string]string{"app-cert": "bm90LWEtcGZ4"}}
	r := New(Options{}, fetcher, testLogger())

	res := r.Validate(context.Background(), models.KeyVaultConfig{
		URI:            "https://vault1.vault.azure.net/",
		CertName:       "app-cert",
		CredentialType: models.MethodCertificate,
	})

	assert.False(t, res.Valid)
	assert.Equal(t, "certificate could not be decoded", res.Message)
}

func TestVaultName(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"https://vault1.vault.azure.net/", "vault1"},
		{"https://vault1.vault.azure.net", "vault1"},
		{"http://vault1.vault.azure.net/", "vault1"},
		{"vault1", "vault1"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, vaultName(tt.uri), tt.uri)
	}
}

func TestLoadCertificateFilePEM(t *testing.T) {
	path := writeCertPEM(t, time.Now().Add(time.Hour))

	key, cert, err := loadCertificateFile(path, "")
	require.NoError(t, err)
	require.NotNil(t, key)
	require.NotNil(t, cert)
}

func TestLoadCertificateFileMissing(t *testing.T) {
	_, _, err := loadCertificateFile(filepath.Join(t.TempDir(), "nope.pem"), "")
	require.Error(t, err)
}

func TestSubscribeReceivesNotifications(t *testing.T) {
	r := New(Options{ClientSecret: "s3cret"}, &fakeFetcher{}, testLogger())

	ch, cancel := r.Subscribe()
	defer cancel()

	r.notify()

	select {
	case hs := <-ch:
		assert.Equal(t, models.MethodSecret, hs.AuthMethod)
	case <-time.After(time.Second):
		t.Fatal("no snapshot received")
	}
}

func TestSubscribeCancelStopsDelivery(t *testing.T) {
	r := New(Options{}, &fakeFetcher{}, testLogger())

	ch, cancel := r.Subscribe()
	cancel()
	cancel() // second cancel is a no-op

	_, open := <-ch
	assert.False(t, open)

	r.notify() // must not panic on closed channel
}

func TestResolveKeyVaultExplicitReference(t *testing.T) {
	fetcher := &fakeFetcher{values: map[string]string{"app-secret": "hush"}}
	r := New(Options{ClientSecret: "env-secret"}, fetcher, testLogger())

	cred, err := r.ResolveKeyVault(context.Background(), models.KeyVaultConfig{
		URI:            "https://appvault.vault.azure.net/",
		CredentialType: models.MethodSecret,
		SecretName:     "app-secret",
	})
	require.NoError(t, err)

	assert.Equal(t, models.SourceKeyVault, cred.Source)
	assert.Equal(t, "hush", cred.Secret)
	assert.Equal(t, []string{"appvault/app-secret"}, fetcher.calls)
}

func TestResolveKeyVaultMissingName(t *testing.T) {
	r := New(Options{}, &fakeFetcher{}, testLogger())

	_, err := r.ResolveKeyVault(context.Background(), models.KeyVaultConfig{URI: "https://v.vault.azure.net/"})
	require.ErrorContains(t, err, "credential name")
}

func TestResolveKeyVaultBadCertificate(t *testing.T) {
	fetcher := &fakeFetcher{values: map[string]string{"app-cert": "bm90IGEgcGZ4"}}
	r := New(Options{}, fetcher, testLogger())

	_, err := r.ResolveKeyVault(context.Background(), models.KeyVaultConfig{
		URI:            "https://v.vault.azure.net/",
		CredentialType: models.MethodCertificate,
		CertName:       "app-cert",
	})
	require.Error(t, err)
}
