// Package azurecli wraps the az command line for subscription, app
// registration, and Key Vault listings. Output is requested as JSON
// and picked apart with gjson, since az payloads are large and only a
// handful of fields matter here.
package azurecli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/entrastudio/token-studio/internal/models"
)

// Error codes surfaced to clients so setup guidance can be rendered.
const (
	CodeNotFound    = "az_not_found"
	CodeNotLoggedIn = "az_not_logged_in"
	CodeFailed      = "az_failed"
)

// CLIError describes an Azure CLI failure with setup context.
type CLIError struct {
	Code          string
	Message       string
	Details       string
	SetupRequired bool
}

func (e *CLIError) Error() string { return e.Message }

// runner executes a command and returns stdout. Swapped in tests.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// CLI shells out to az.
type CLI struct {
	azPath string
	logger *slog.Logger
	run    runner
}

// New creates a CLI wrapper using the az binary at azPath.
func New(azPath string, logger *slog.Logger) *CLI {
	c := &CLI{azPath: azPath, logger: logger}
	c.run = c.execRun

	return c
}

func (c *CLI) execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr strings.Builder
	cmd.Stderr = &stderr

	start := time.Now()
	out, err := cmd.Output()
	c.logger.Debug("az invoked",
		slog.String("args", strings.Join(args, " ")),
		slog.Duration("took", time.Since(start)),
		slog.Bool("ok", err == nil),
	)

	if err != nil {
		return nil, classify(err, stderr.String())
	}

	return out, nil
}

// classify maps exec failures to CLIError codes. A missing binary and
// a stale login are setup problems, not transient faults.
func classify(err error, stderr string) error {
	if errors.Is(err, exec.ErrNotFound) {
		return &CLIError{
			Code:          CodeNotFound,
			Message:       "Azure CLI (az) not found",
			Details:       "Install the Azure CLI and ensure az is on PATH",
			SetupRequired: true,
		}
	}

	lower := strings.ToLower(stderr)
	if strings.Contains(lower, "az login") || strings.Contains(lower, "aadsts") {
		return &CLIError{
			Code:          CodeNotLoggedIn,
			Message:       "Azure CLI is not logged in",
			Details:       "Run az login and retry",
			SetupRequired: true,
		}
	}

	detail := strings.TrimSpace(stderr)
	if len(detail) > 512 {
		detail = detail[:512]
	}

	return &CLIError{
		Code:    CodeFailed,
		Message: "Azure CLI invocation failed",
		Details: detail,
	}
}

// invoke runs az with the given args plus JSON output, validating that
// stdout is parseable JSON.
func (c *CLI) invoke(ctx context.Context, args ...string) (gjson.Result, error) {
	args = append(args, "--output", "json")

	out, err := c.run(ctx, c.azPath, args...)
	if err != nil {
		return gjson.Result{}, err
	}

	if !gjson.ValidBytes(out) {
		return gjson.Result{}, &CLIError{Code: CodeFailed, Message: "Azure CLI returned invalid JSON"}
	}

	return gjson.ParseBytes(out), nil
}

// Subscriptions lists subscriptions visible to the CLI login.
func (c *CLI) Subscriptions(ctx context.Context) ([]models.Subscription, error) {
	res, err := c.invoke(ctx, "account", "list")
	if err != nil {
		return nil, err
	}

	subs := []models.Subscription{}

	res.ForEach(func(_, v gjson.Result) bool {
		subs = append(subs, models.Subscription{
			ID:        v.Get("id").Str,
			Name:      v.Get("name").Str,
			TenantID:  v.Get("tenantId").Str,
			State:     v.Get("state").Str,
			IsDefault: v.Get("isDefault").Bool(),
		})

		return true
	})

	return subs, nil
}

// Apps lists Entra app registrations, optionally filtered by a
// case-insensitive display-name substring.
func (c *CLI) Apps(ctx context.Context, search string) ([]models.AppRegistration, error) {
	res, err := c.invoke(ctx, "ad", "app", "list", "--all")
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(search)
	apps := []models.AppRegistration{}

	res.ForEach(func(_, v gjson.Result) bool {
		name := v.Get("displayName").Str
		if needle != "" && !strings.Contains(strings.ToLower(name), needle) {
			return true
		}

		apps = append(apps, models.AppRegistration{
			AppID:       v.Get("appId").Str,
			DisplayName: name,
			CreatedAt:   v.Get("createdDateTime").Str,
		})

		return true
	})

	return apps, nil
}

// KeyVaults lists Key Vault instances, optionally scoped to one
// subscription.
func (c *CLI) KeyVaults(ctx context.Context, subscriptionID string) ([]models.KeyVault, error) {
	args := []string{"keyvault", "list"}
	if subscriptionID != "" {
		args = append(args, "--subscription", subscriptionID)
	}

	res, err := c.invoke(ctx, args...)
	if err != nil {
		return nil, err
	}

	vaults := []models.KeyVault{}

	res.ForEach(func(_, v gjson.Result) bool {
		name := v.Get("name").Str

		uri := v.Get("properties.vaultUri").Str
		if uri == "" && name != "" {
			uri = fmt.Sprintf("https://%s.vault.azure.net/", name)
		}

		vaults = append(vaults, models.KeyVault{
			Name:          name,
			URI:           uri,
			Location:      v.Get("location").Str,
			ResourceGroup: v.Get("resourceGroup").Str,
		})

		return true
	})

	return vaults, nil
}

// Secrets lists secret metadata in a vault. Values are never fetched
// by listings.
func (c *CLI) Secrets(ctx context.Context, vaultName, subscriptionID string) ([]models.VaultItem, error) {
	return c.vaultItems(ctx, "secret", vaultName, subscriptionID)
}

// Certificates lists certificate metadata in a vault.
func (c *CLI) Certificates(ctx context.Context, vaultName, subscriptionID string) ([]models.VaultItem, error) {
	return c.vaultItems(ctx, "certificate", vaultName, subscriptionID)
}

func (c *CLI) vaultItems(ctx context.Context, kind, vaultName, subscriptionID string) ([]models.VaultItem, error) {
	if vaultName == "" {
		return nil, &CLIError{Code: CodeFailed, Message: "vaultName is required"}
	}

	args := []string{"keyvault", kind, "list", "--vault-name", vaultName}
	if subscriptionID != "" {
		args = append(args, "--subscription", subscriptionID)
	}

	res, err := c.invoke(ctx, args...)
	if err != nil {
		return nil, err
	}

	items := []models.VaultItem{}

	res.ForEach(func(_, v gjson.Result) bool {
		item := models.VaultItem{
			Name:    v.Get("name").Str,
			ID:      v.Get("id").Str,
			Enabled: v.Get("attributes.enabled").Bool(),
		}

		if expires := v.Get("attributes.expires").Str; expires != "" {
			if ts, err := time.Parse(time.RFC3339, expires); err == nil {
				item.Expires = &ts
			}
		}

		items = append(items, item)

		return true
	})

	return items, nil
}

// SecretValue fetches one secret's value, used by the credential
// resolver for Key Vault backed secrets and certificates.
func (c *CLI) SecretValue(ctx context.Context, vaultName, name string) (string, error) {
	res, err := c.invoke(ctx, "keyvault", "secret", "show", "--vault-name", vaultName, "--name", name)
	if err != nil {
		return "", err
	}

	value := res.Get("value").Str
	if value == "" {
		return "", &CLIError{
			Code:    CodeFailed,
			Message: fmt.Sprintf("secret %s in vault %s has no value", name, vaultName),
		}
	}

	return value, nil
}

// Envelope wraps a result in the {success, data, error} shape the
// studio API uses for CLI-backed listings.
func Envelope(data any, err error) models.AzureResult {
	if err != nil {
		return models.AzureResult{Success: false, Error: err.Error()}
	}

	return models.AzureResult{Success: true, Data: data}
}
