package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrastudio/token-studio/internal/models"
	"github.com/entrastudio/token-studio/internal/sidecar"
)

// fakeSidecar answers one JSON-RPC request per queued response over
// in-memory pipes.
type fakeSidecar struct {
	requests  *bufio.Reader
	responses io.Writer
}

func newNativeWithFake(t *testing.T) (*Native, *fakeSidecar) {
	t.Helper()

	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()

	t.Cleanup(func() {
		reqW.Close()
		respW.Close()
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n := NewNative(sidecar.NewWithIO(reqW, respR, logger))

	return n, &fakeSidecar{requests: bufio.NewReader(reqR), responses: respW}
}

func (f *fakeSidecar) reply(t *testing.T, resultJSON string, errJSON string) map[string]any {
	t.Helper()

	line, err := f.requests.ReadBytes('\n')
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(line, &req))

	resp := map[string]any{"jsonrpc": "2.0", "id": req["id"]}
	if errJSON != "" {
		resp["error"] = json.RawMessage(errJSON)
	} else {
		resp["result"] = json.RawMessage(resultJSON)
	}

	payload, err := json.Marshal(resp)
	require.NoError(t, err)

	_, err = f.responses.Write(append(payload, '\n'))
	require.NoError(t, err)

	return req
}

func TestNativeAcquireAppToken_NormalizesScope(t *testing.T) {
	n, fake := newNativeWithFake(t)

	reqCh := make(chan map[string]any, 1)

	go func() {
		reqCh <- fake.reply(t, `{"accessToken":"tok","tokenType":"Bearer"}`, "")
	}()

	token, err := n.AcquireAppToken(context.Background(), testAppConfig(), "https://graph.microsoft.com/")
	require.NoError(t, err)
	assert.Equal(t, "tok", token.AccessToken)

	req := <-reqCh
	assert.Equal(t, "acquire_app_token", req["method"])

	params := req["params"].(map[string]any)
	scopes := params["scopes"].([]any)
	require.Len(t, scopes, 1)
	assert.Equal(t, "https://graph.microsoft.com/.default", scopes[0])
}

func TestNativeCall_MapsRPCErrorData(t *testing.T) {
	n, fake := newNativeWithFake(t)

	go fake.reply(t, "", `{"code":-32000,"message":"az login required","data":{"code":"az_not_logged_in","details":"run az login","setupRequired":true}}`)

	_, err := n.ListSubscriptions(context.Background())
	require.Error(t, err)

	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, KindTransport, terr.Kind)
	assert.Equal(t, "az login required", terr.Message)
	assert.Equal(t, "az_not_logged_in", terr.Code)
	assert.Equal(t, "run az login", terr.Details)
	assert.True(t, terr.SetupRequired)
}

func TestNativeMethodNames(t *testing.T) {
	n, fake := newNativeWithFake(t)
	ctx := context.Background()

	calls := []struct {
		invoke     func() error
		wantMethod string
		result     string
	}{
		{func() error { _, err := n.ValidateKeyVault(ctx, models.KeyVaultConfig{}); return err }, "validate_keyvault", `{"valid":true}`},
		{func() error { _, err := n.CredentialStatus(ctx); return err }, "get_credential_status", `{"status":"ok"}`},
		{func() error { return n.Health(ctx) }, "check_sidecar_health", `{"ok":true}`},
		{func() error { _, err := n.ListApps(ctx, "x"); return err }, "list_azure_apps", `[]`},
		{func() error { _, err := n.ListKeyVaults(ctx, ""); return err }, "list_keyvaults", `[]`},
		{func() error { _, err := n.ListKeyVaultSecrets(ctx, "v", ""); return err }, "list_keyvault_secrets", `[]`},
		{func() error { _, err := n.ListKeyVaultCertificates(ctx, "v", ""); return err }, "list_keyvault_certificates", `[]`},
		{func() error { _, err := n.UserAccounts(ctx, "c", "t"); return err }, "get_user_accounts", `[]`},
		{func() error { return n.ClearUserCache(ctx, "c", "t") }, "clear_user_cache", `null`},
		{func() error { _, err := n.AuthStorageStatus(ctx); return err }, "get_auth_storage_status", `{"available":true}`},
		{func() error { return n.Exit(ctx) }, "exit_app", `null`},
	}

	for _, tc := range calls {
		reqCh := make(chan map[string]any, 1)

		go func() {
			reqCh <- fake.reply(t, tc.result, "")
		}()

		require.NoError(t, tc.invoke(), tc.wantMethod)
		assert.Equal(t, tc.wantMethod, (<-reqCh)["method"])
	}
}
