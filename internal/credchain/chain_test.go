package credchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrastudio/token-studio/internal/models"
)

func TestChainOrder(t *testing.T) {
	require.Len(t, Chain, 4)

	// Key Vault before local, certificates before secrets.
	assert.Equal(t, Path{Method: models.MethodCertificate, Source: models.SourceKeyVault}, Chain[0])
	assert.Equal(t, Path{Method: models.MethodCertificate, Source: models.SourceLocal}, Chain[1])
	assert.Equal(t, Path{Method: models.MethodSecret, Source: models.SourceKeyVault}, Chain[2])
	assert.Equal(t, Path{Method: models.MethodSecret, Source: models.SourceLocal}, Chain[3])
}

func TestDisplay_ExactlyOneActive(t *testing.T) {
	hs := models.HealthStatus{
		AuthMethod: models.MethodCertificate,
		AuthSource: models.SourceKeyVault,
		Checks: models.HealthChecks{
			TenantID:       true,
			ClientID:       true,
			KeyVaultCert:   true,
			KeyVaultSecret: true,
			LocalSecret:    true,
		},
	}

	statuses := Display(hs)
	require.Len(t, statuses, 4)

	var active []PathStatus

	for _, s := range statuses {
		if s.Active {
			active = append(active, s)
		}
	}

	require.Len(t, active, 1)
	assert.Equal(t, models.MethodCertificate, active[0].Method)
	assert.Equal(t, models.SourceKeyVault, active[0].Source)
	assert.True(t, active[0].Configured)
}

func TestDisplay_ConfiguredReflectsChecks(t *testing.T) {
	hs := models.HealthStatus{
		Checks: models.HealthChecks{LocalCert: true, LocalSecret: true},
	}

	statuses := Display(hs)

	byPath := map[Path]PathStatus{}
	for _, s := range statuses {
		byPath[s.Path] = s
	}

	assert.False(t, byPath[Path{models.MethodCertificate, models.SourceKeyVault}].Configured)
	assert.True(t, byPath[Path{models.MethodCertificate, models.SourceLocal}].Configured)
	assert.False(t, byPath[Path{models.MethodSecret, models.SourceKeyVault}].Configured)
	assert.True(t, byPath[Path{models.MethodSecret, models.SourceLocal}].Configured)

	// No active auth method reported: nothing is active.
	for _, s := range statuses {
		assert.False(t, s.Active)
	}
}

func TestActivePath(t *testing.T) {
	hs := models.HealthStatus{AuthMethod: models.MethodSecret, AuthSource: models.SourceLocal}

	p, ok := ActivePath(hs)
	require.True(t, ok)
	assert.Equal(t, models.MethodSecret, p.Method)
	assert.Equal(t, models.SourceLocal, p.Source)

	_, ok = ActivePath(models.HealthStatus{})
	assert.False(t, ok)

	// Unknown combination is treated as absent rather than invented.
	_, ok = ActivePath(models.HealthStatus{AuthMethod: "managed_identity", AuthSource: "imds"})
	assert.False(t, ok)
}

func TestSetupStateOf_Transitions(t *testing.T) {
	checks := models.HealthChecks{}
	assert.Equal(t, NotConfigured, SetupStateOf(checks))

	checks.TenantID = true
	assert.Equal(t, PartiallyConfigured, SetupStateOf(checks))

	checks.ClientID = true
	assert.Equal(t, PartiallyConfigured, SetupStateOf(checks))

	checks.LocalSecret = true
	assert.Equal(t, Configured, SetupStateOf(checks))

	// Backward transition when a required check regresses, e.g. the
	// only credential expires.
	checks.LocalSecret = false
	assert.Equal(t, PartiallyConfigured, SetupStateOf(checks))
}

func TestGuidance_NamesRBACRoles(t *testing.T) {
	assert.Contains(t, Guidance(Chain[0]), "Key Vault Certificates User")
	assert.Contains(t, Guidance(Chain[2]), "Key Vault Secrets User")
	assert.Contains(t, Guidance(Chain[1]), "STUDIO_CLIENT_CERT_FILE")
	assert.Contains(t, Guidance(Chain[3]), "AZURE_CLIENT_SECRET")
	assert.Empty(t, Guidance(Path{Method: "x", Source: "y"}))
}
