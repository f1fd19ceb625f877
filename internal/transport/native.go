package transport

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/entrastudio/token-studio/internal/models"
	"github.com/entrastudio/token-studio/internal/sidecar"
)

// Native dispatches operations to the sidecar process over JSON-RPC.
// It is the desktop-shell transport.
type Native struct {
	sc *sidecar.Manager
}

// NewNative creates the native transport over a sidecar manager.
func NewNative(sc *sidecar.Manager) *Native {
	return &Native{sc: sc}
}

var _ Transport = (*Native)(nil)

// call invokes a sidecar method and normalizes failures into *Error.
// RPC error data may carry code/details/setupRequired fields which are
// preserved on the returned error.
func (n *Native) call(ctx context.Context, method string, params, result any) error {
	err := n.sc.Call(ctx, method, params, result)
	if err == nil {
		return nil
	}

	terr := &Error{Kind: KindTransport, Message: err.Error()}

	var rpcErr *sidecar.RPCError
	if errors.As(err, &rpcErr) {
		terr.Message = rpcErr.Message

		if len(rpcErr.Data) > 0 {
			var data struct {
				Code          string `json:"code"`
				Details       string `json:"details"`
				SetupRequired bool   `json:"setupRequired"`
			}

			if json.Unmarshal(rpcErr.Data, &data) == nil {
				terr.Code = data.Code
				terr.Details = data.Details
				terr.SetupRequired = data.SetupRequired
			}
		}
	}

	return terr
}

func (n *Native) AcquireAppToken(ctx context.Context, cfg models.AppConfig, resource string) (*models.TokenResponse, error) {
	params := map[string]any{
		"config": map[string]any{
			"clientId": cfg.ClientID,
			"tenantId": cfg.TenantID,
			"keyVault": cfg.KeyVault,
		},
		"scopes": []string{NormalizeScope(resource)},
	}

	var token models.TokenResponse
	if err := n.call(ctx, "acquire_app_token", params, &token); err != nil {
		return nil, err
	}

	return &token, nil
}

func (n *Native) ValidateKeyVault(ctx context.Context, kv models.KeyVaultConfig) (*models.ValidationResult, error) {
	var result models.ValidationResult
	if err := n.call(ctx, "validate_keyvault", kv, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (n *Native) CredentialStatus(ctx context.Context) (*models.HealthStatus, error) {
	var status models.HealthStatus
	if err := n.call(ctx, "get_credential_status", map[string]any{}, &status); err != nil {
		return nil, err
	}

	return &status, nil
}

func (n *Native) Health(ctx context.Context) error {
	return n.call(ctx, "check_sidecar_health", map[string]any{}, nil)
}

func (n *Native) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := n.call(ctx, "list_azure_subscriptions", map[string]any{}, &subs); err != nil {
		return nil, err
	}

	return subs, nil
}

func (n *Native) ListApps(ctx context.Context, search string) ([]models.AppRegistration, error) {
	var apps []models.AppRegistration
	if err := n.call(ctx, "list_azure_apps", map[string]any{"search": search}, &apps); err != nil {
		return nil, err
	}

	return apps, nil
}

func (n *Native) ListKeyVaults(ctx context.Context, subscriptionID string) ([]models.KeyVault, error) {
	var vaults []models.KeyVault
	if err := n.call(ctx, "list_keyvaults", map[string]any{"subscriptionId": subscriptionID}, &vaults); err != nil {
		return nil, err
	}

	return vaults, nil
}

func (n *Native) ListKeyVaultSecrets(ctx context.Context, vaultName, subscriptionID string) ([]models.VaultItem, error) {
	params := map[string]any{"vaultName": vaultName, "subscriptionId": subscriptionID}

	var items []models.VaultItem
	if err := n.call(ctx, "list_keyvault_secrets", params, &items); err != nil {
		return nil, err
	}

	return items, nil
}

func (n *Native) ListKeyVaultCertificates(ctx context.Context, vaultName, subscriptionID string) ([]models.VaultItem, error) {
	params := map[string]any{"vaultName": vaultName, "subscriptionId": subscriptionID}

	var items []models.VaultItem
	if err := n.call(ctx, "list_keyvault_certificates", params, &items); err != nil {
		return nil, err
	}

	return items, nil
}

func (n *Native) AcquireUserToken(ctx context.Context, req UserTokenRequest) (*models.TokenResponse, error) {
	var token models.TokenResponse
	if err := n.call(ctx, "acquire_user_token", req, &token); err != nil {
		return nil, err
	}

	return &token, nil
}

func (n *Native) UserAccounts(ctx context.Context, clientID, tenantID string) ([]models.Account, error) {
	params := map[string]any{"clientId": clientID, "tenantId": tenantID}

	var accounts []models.Account
	if err := n.call(ctx, "get_user_accounts", params, &accounts); err != nil {
		return nil, err
	}

	return accounts, nil
}

func (n *Native) ClearUserCache(ctx context.Context, clientID, tenantID string) error {
	params := map[string]any{"clientId": clientID, "tenantId": tenantID}

	return n.call(ctx, "clear_user_cache", params, nil)
}

func (n *Native) AuthStorageStatus(ctx context.Context) (*models.StorageStatus, error) {
	var status models.StorageStatus
	if err := n.call(ctx, "get_auth_storage_status", map[string]any{}, &status); err != nil {
		return nil, err
	}

	return &status, nil
}

func (n *Native) Exit(ctx context.Context) error {
	return n.call(ctx, "exit_app", map[string]any{}, nil)
}
