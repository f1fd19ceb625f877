package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/entrastudio/token-studio/internal/config"
	"github.com/entrastudio/token-studio/internal/credchain"
	"github.com/entrastudio/token-studio/internal/inspect"
	"github.com/entrastudio/token-studio/internal/logging"
	"github.com/entrastudio/token-studio/internal/models"
	"github.com/entrastudio/token-studio/internal/sidecar"
	"github.com/entrastudio/token-studio/internal/state"
	"github.com/entrastudio/token-studio/internal/studio"
	"github.com/entrastudio/token-studio/internal/transport"
)

var Version = "dev"

const usage = `token-studio <command> [args]

Commands:
  acquire <app> <resource>     issue an app-only token for a registered app
  inspect [token]              decode a token's claims (reads stdin when omitted)
  status                       show the credential chain and setup state
  health                       check backend reachability
  apps                         list registered apps
  apps add <name> <clientId> <tenantId> [flags]
  apps rm <id>
  apps export                  write the app registry as YAML to stdout
  apps import <file>           import apps from a YAML registry
  favorites                    list favorites (pinned first)
  favorites use <id>           re-acquire the token a favorite points at
  favorites pin <id> | unpin <id> | rm <id>
  history                      list recent acquisitions
  history clear
  azure subscriptions          list Azure subscriptions
  azure apps [--search s]      list Entra app registrations
  azure keyvaults [--subscription id]
  azure secrets --vault name [--subscription id]
  azure certificates --vault name [--subscription id]
  user login <clientId> <tenantId> [--scope s] [--prompt p] [--account id] [--silent]
  user accounts <clientId> <tenantId>
  user logout <clientId> <tenantId>
  user storage                 report where user tokens are persisted
  shutdown                     ask the native backend to exit
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)

		return fmt.Errorf("no command given")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(cfg.Environment, cfg.LogLevel)
	logger.Debug("token-studio starting",
		slog.String("version", Version),
		slog.String("mode", cfg.Mode),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// inspect needs neither a transport nor the state database.
	if args[0] == "inspect" {
		return cmdInspect(args[1:])
	}

	st, err := state.Load(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	defer st.Close()

	t, cleanup, err := buildTransport(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	app := studio.New(t, st, logger)

	switch args[0] {
	case "acquire":
		return cmdAcquire(ctx, app, st, args[1:])
	case "status":
		return cmdStatus(ctx, app)
	case "health":
		return t.Health(ctx)
	case "apps":
		return cmdApps(ctx, app, st, args[1:])
	case "favorites":
		return cmdFavorites(ctx, app, st, args[1:])
	case "history":
		return cmdHistory(st, args[1:])
	case "azure":
		return cmdAzure(ctx, t, args[1:])
	case "user":
		return cmdUser(ctx, t, args[1:])
	case "shutdown":
		return t.Exit(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)

		return fmt.Errorf("unknown command %q", args[0])
	}
}

// buildTransport selects the runtime transport: a sidecar process in
// native mode, the studio server's REST API in web mode.
func buildTransport(cfg *config.Config, logger *slog.Logger) (transport.Transport, func(), error) {
	if cfg.IsNative() {
		path, err := sidecar.Discover(cfg.SidecarPath)
		if err != nil {
			return nil, nil, err
		}

		mgr := sidecar.New(path, logger)

		return transport.NewNative(mgr), func() { mgr.Stop() }, nil
	}

	return transport.NewHTTP(cfg.ServerURL, nil), func() {}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// findApp accepts either an app ID or a unique name.
func findApp(st *state.State, ref string) (*models.AppConfig, error) {
	if app, err := st.GetApp(ref); err == nil {
		return app, nil
	}

	apps, err := st.AllApps()
	if err != nil {
		return nil, err
	}

	var match *models.AppConfig

	for i := range apps {
		if strings.EqualFold(apps[i].Name, ref) {
			if match != nil {
				return nil, fmt.Errorf("app name %q is ambiguous, use the id", ref)
			}

			match = &apps[i]
		}
	}

	if match == nil {
		return nil, fmt.Errorf("no app named %q", ref)
	}

	return match, nil
}

func cmdAcquire(ctx context.Context, app *studio.Studio, st *state.State, args []string) error {
	fs := flag.NewFlagSet("acquire", flag.ContinueOnError)
	save := fs.Bool("save", false, "save the target as a favorite")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 2 {
		return fmt.Errorf("usage: acquire <app> <resource>")
	}

	target, err := findApp(st, fs.Arg(0))
	if err != nil {
		return err
	}

	token, err := app.AcquireForApp(ctx, target.ID, fs.Arg(1))
	if err != nil {
		return err
	}

	if *save {
		if _, err := app.SaveFavorite(target.ID, fs.Arg(1), token); err != nil {
			return fmt.Errorf("saving favorite: %w", err)
		}
	}

	return printJSON(token)
}

func cmdInspect(args []string) error {
	raw := ""

	if len(args) > 0 {
		raw = args[0]
	} else {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

		if scanner.Scan() {
			raw = scanner.Text()
		}
	}

	details, err := inspect.Decode(raw)
	if err != nil {
		return err
	}

	return printJSON(details)
}

func cmdStatus(ctx context.Context, app *studio.Studio) error {
	hs, err := app.CredentialStatus(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("setup state: %s\n", hs.Status)

	for _, ps := range credchain.Display(*hs) {
		marker := " "
		if ps.Active {
			marker = "*"
		}

		label := "not configured"
		if ps.Configured {
			label = "configured"
		}

		fmt.Printf("%s %-11s / %-8s %s\n", marker, ps.Path.Method, ps.Path.Source, label)

		if !ps.Configured {
			fmt.Printf("    %s\n", credchain.Guidance(ps.Path))
		}
	}

	if hs.Message != "" {
		fmt.Println(hs.Message)
	}

	return nil
}

func cmdApps(ctx context.Context, app *studio.Studio, st *state.State, args []string) error {
	if len(args) == 0 {
		apps, err := st.AllApps()
		if err != nil {
			return err
		}

		return printJSON(apps)
	}

	switch args[0] {
	case "add":
		return cmdAppsAdd(ctx, app, st, args[1:])
	case "rm":
		if len(args) != 2 {
			return fmt.Errorf("usage: apps rm <id>")
		}

		return st.DeleteApp(args[1])
	case "export":
		return st.ExportApps(os.Stdout)
	case "import":
		if len(args) != 2 {
			return fmt.Errorf("usage: apps import <file>")
		}

		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		n, err := st.ImportApps(f)
		if err != nil {
			return err
		}

		fmt.Printf("imported %d apps\n", n)

		return nil
	default:
		return fmt.Errorf("unknown apps subcommand %q", args[0])
	}
}

func cmdAppsAdd(ctx context.Context, app *studio.Studio, st *state.State, args []string) error {
	fs := flag.NewFlagSet("apps add", flag.ContinueOnError)
	vaultURI := fs.String("vault", "", "Key Vault URI holding the credential")
	secretName := fs.String("secret", "", "Key Vault secret name")
	certName := fs.String("cert", "", "Key Vault certificate name")
	color := fs.String("color", "", "display color")
	skipValidate := fs.Bool("no-validate", false, "skip Key Vault validation")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 3 {
		return fmt.Errorf("usage: apps add <name> <clientId> <tenantId> [flags]")
	}

	cfg := models.AppConfig{
		Name:     fs.Arg(0),
		ClientID: fs.Arg(1),
		TenantID: fs.Arg(2),
		Color:    *color,
	}

	if *vaultURI != "" {
		cfg.KeyVault = models.KeyVaultConfig{
			URI:        *vaultURI,
			SecretName: *secretName,
			CertName:   *certName,
		}
		cfg.KeyVault.CredentialType = models.MethodSecret

		if *certName != "" {
			cfg.KeyVault.CredentialType = models.MethodCertificate
		}
	}

	if !*skipValidate {
		result, err := app.ValidateApp(ctx, cfg)
		if err != nil {
			return fmt.Errorf("validating Key Vault access: %w", err)
		}

		if !result.Valid {
			return fmt.Errorf("Key Vault validation failed: %s", result.Message)
		}
	}

	created, err := st.CreateApp(cfg)
	if err != nil {
		return err
	}

	return printJSON(created)
}

func cmdFavorites(ctx context.Context, app *studio.Studio, st *state.State, args []string) error {
	if len(args) == 0 {
		favs, err := st.AllFavorites()
		if err != nil {
			return err
		}

		return printJSON(favs)
	}

	if len(args) != 2 {
		return fmt.Errorf("usage: favorites <use|pin|unpin|rm> <id>")
	}

	id := args[1]

	switch args[0] {
	case "use":
		token, err := app.UseFavorite(ctx, id)
		if err != nil {
			return err
		}

		return printJSON(token)
	case "pin":
		return st.Pin(id, time.Now())
	case "unpin":
		return st.Unpin(id)
	case "rm":
		return st.DeleteFavorite(id)
	default:
		return fmt.Errorf("unknown favorites subcommand %q", args[0])
	}
}

func cmdHistory(st *state.State, args []string) error {
	if len(args) > 0 && args[0] == "clear" {
		return st.ClearHistory()
	}

	items, err := st.AllHistory()
	if err != nil {
		return err
	}

	return printJSON(items)
}

// Delegated-user operations go through the transport unchanged; in web
// mode they fail up front with the runtime-mismatch error instead of
// issuing a request.
func cmdUser(ctx context.Context, t transport.Transport, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: user <login|accounts|logout|storage>")
	}

	switch args[0] {
	case "login":
		return cmdUserLogin(ctx, t, args[1:])
	case "accounts":
		if len(args) != 3 {
			return fmt.Errorf("usage: user accounts <clientId> <tenantId>")
		}

		accounts, err := t.UserAccounts(ctx, args[1], args[2])
		if err != nil {
			return err
		}

		return printJSON(accounts)
	case "logout":
		if len(args) != 3 {
			return fmt.Errorf("usage: user logout <clientId> <tenantId>")
		}

		if err := t.ClearUserCache(ctx, args[1], args[2]); err != nil {
			return err
		}

		fmt.Println("token cache cleared")

		return nil
	case "storage":
		status, err := t.AuthStorageStatus(ctx)
		if err != nil {
			return err
		}

		return printJSON(status)
	default:
		return fmt.Errorf("unknown user subcommand %q", args[0])
	}
}

func cmdUserLogin(ctx context.Context, t transport.Transport, args []string) error {
	fs := flag.NewFlagSet("user login", flag.ContinueOnError)
	scope := fs.String("scope", "", "space-separated scopes to request")
	prompt := fs.String("prompt", "", "prompt behavior (login, consent, select_account)")
	account := fs.String("account", "", "home account id for silent acquisition")
	silent := fs.Bool("silent", false, "fail instead of opening an interactive prompt")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 2 {
		return fmt.Errorf("usage: user login <clientId> <tenantId> [flags]")
	}

	token, err := t.AcquireUserToken(ctx, transport.UserTokenRequest{
		ClientID:             fs.Arg(0),
		TenantID:             fs.Arg(1),
		Scopes:               strings.Fields(*scope),
		Prompt:               *prompt,
		AccountHomeAccountID: *account,
		SilentOnly:           *silent,
	})
	if err != nil {
		return err
	}

	return printJSON(token)
}

func cmdAzure(ctx context.Context, t transport.Transport, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: azure <subscriptions|apps|keyvaults|secrets|certificates>")
	}

	fs := flag.NewFlagSet("azure "+args[0], flag.ContinueOnError)
	search := fs.String("search", "", "filter app registrations by display name")
	subscription := fs.String("subscription", "", "subscription id")
	vault := fs.String("vault", "", "key vault name")

	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	switch args[0] {
	case "subscriptions":
		subs, err := t.ListSubscriptions(ctx)
		if err != nil {
			return err
		}

		return printJSON(subs)
	case "apps":
		apps, err := t.ListApps(ctx, *search)
		if err != nil {
			return err
		}

		return printJSON(apps)
	case "keyvaults":
		vaults, err := t.ListKeyVaults(ctx, *subscription)
		if err != nil {
			return err
		}

		return printJSON(vaults)
	case "secrets":
		items, err := t.ListKeyVaultSecrets(ctx, *vault, *subscription)
		if err != nil {
			return err
		}

		return printJSON(items)
	case "certificates":
		items, err := t.ListKeyVaultCertificates(ctx, *vault, *subscription)
		if err != nil {
			return err
		}

		return printJSON(items)
	default:
		return fmt.Errorf("unknown azure subcommand %q", args[0])
	}
}
