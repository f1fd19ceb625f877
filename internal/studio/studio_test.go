package studio

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	apperrors "github.com/entrastudio/token-studio/internal/errors"
	"github.com/entrastudio/token-studio/internal/models"
	"github.com/entrastudio/token-studio/internal/state"
	"github.com/entrastudio/token-studio/internal/transport/mocks"
)

func testStudio(t *testing.T) (*Studio, *mocks.MockTransport, *state.State) {
	t.Helper()

	ctrl := gomock.NewController(t)

	st, err := state.LoadAt(filepath.Join(t.TempDir(), "studio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	mock := mocks.NewMockTransport(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return New(mock, st, logger), mock, st
}

func registeredApp(t *testing.T, st *state.State) *models.AppConfig {
	t.Helper()

	app, err := st.CreateApp(models.AppConfig{
		Name:     "Graph Explorer",
		ClientID: "11111111-2222-3333-4444-555555555555",
		TenantID: "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		KeyVault: models.KeyVaultConfig{
			URI:            "https://myvault.vault.azure.net",
			CredentialType: models.MethodSecret,
			SecretName:     "graph-secret",
		},
	})
	require.NoError(t, err)

	return app
}

func TestAcquireForAppRecordsHistory(t *testing.T) {
	s, mock, st := testStudio(t)
	app := registeredApp(t, st)

	issued := &models.TokenResponse{
		AccessToken: "tok",
		TokenType:   "Bearer",
		AuthMethod:  models.MethodSecret,
		AuthSource:  models.SourceKeyVault,
		ExpiresOn:   time.Now().Add(time.Hour),
	}

	mock.EXPECT().
		AcquireAppToken(gomock.Any(), gomock.Any(), "https://graph.microsoft.com").
		Return(issued, nil)

	token, err := s.AcquireForApp(context.Background(), app.ID, "https://graph.microsoft.com")
	require.NoError(t, err)
	assert.Equal(t, "tok", token.AccessToken)

	stored, err := st.GetApp(app.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastUsedAt)

	history, err := st.AllHistory()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, app.ID, history[0].AppID)
	assert.Equal(t, "https://graph.microsoft.com/.default", history[0].Scope)
	assert.Equal(t, models.MethodSecret, history[0].AuthMethod)
}

func TestAcquireForAppUnknownApp(t *testing.T) {
	s, _, _ := testStudio(t)

	_, err := s.AcquireForApp(context.Background(), "missing", "x")
	require.ErrorIs(t, err, apperrors.ErrAppNotFound)
}

func TestAcquireForAppTransportFailureSkipsHistory(t *testing.T) {
	s, mock, st := testStudio(t)
	app := registeredApp(t, st)

	mock.EXPECT().
		AcquireAppToken(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, assert.AnError)

	_, err := s.AcquireForApp(context.Background(), app.ID, "https://graph.microsoft.com")
	require.ErrorIs(t, err, assert.AnError)

	history, err := st.AllHistory()
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestUseFavoriteBumpsUseCount(t *testing.T) {
	s, mock, st := testStudio(t)
	app := registeredApp(t, st)

	fav, err := st.CreateFavorite(models.FavoriteItem{
		Type:   "app",
		Target: app.ID,
		TokenData: &models.TokenResponse{
			Scope: "https://graph.microsoft.com/.default",
		},
	})
	require.NoError(t, err)

	mock.EXPECT().
		AcquireAppToken(gomock.Any(), gomock.Any(), "https://graph.microsoft.com/.default").
		Return(&models.TokenResponse{AccessToken: "tok"}, nil)

	_, err = s.UseFavorite(context.Background(), fav.ID)
	require.NoError(t, err)

	stored, err := st.GetFavorite(fav.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UseCount)
}

func TestUseFavoriteUnknown(t *testing.T) {
	s, _, _ := testStudio(t)

	_, err := s.UseFavorite(context.Background(), "missing")
	require.ErrorIs(t, err, apperrors.ErrFavoriteNotFound)
}

func TestSaveFavoriteNormalizesScope(t *testing.T) {
	s, _, st := testStudio(t)
	app := registeredApp(t, st)

	fav, err := s.SaveFavorite(app.ID, "https://graph.microsoft.com/", &models.TokenResponse{
		AccessToken: "tok",
		TokenType:   "Bearer",
	})
	require.NoError(t, err)

	stored, err := st.GetFavorite(fav.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.TokenData)
	assert.Equal(t, "https://graph.microsoft.com/.default", stored.TokenData.Scope)
	assert.Empty(t, stored.TokenData.AccessToken)
}

func TestValidateAppSkipsWithoutVault(t *testing.T) {
	s, _, _ := testStudio(t)

	result, err := s.ValidateApp(context.Background(), models.AppConfig{Name: "adhoc"})
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidateAppDelegatesToTransport(t *testing.T) {
	s, mock, _ := testStudio(t)

	kv := models.KeyVaultConfig{
		URI:            "https://myvault.vault.azure.net",
		CredentialType: models.MethodSecret,
		SecretName:     "graph-secret",
	}

	mock.EXPECT().
		ValidateKeyVault(gomock.Any(), kv).
		Return(&models.ValidationResult{Valid: true, CredentialType: models.MethodSecret}, nil)

	result, err := s.ValidateApp(context.Background(), models.AppConfig{Name: "x", KeyVault: kv})
	require.NoError(t, err)
	assert.True(t, result.Valid)
}
