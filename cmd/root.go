package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/mise-en-place/cli/internal/config"
	"github.com/mise-en-place/cli/internal/credentials"
	"github.com/mise-en-place/cli/pkg/api"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// Metadata describes the build.
type Metadata struct {
	Version string
	Commit  string
	Date    string
}

var metadata = Metadata{Version: "dev"}

type appKey struct{}

// app is what every command runs against. It is built once in the root
// command's PersistentPreRunE and stored on the command context.
type app struct {
	cfg    config.Config
	log    *pterm.Logger
	client *api.Client
	store  credentials.Store
}

var rootCmd = &cobra.Command{
	Use:   "mep",
	Short: "Import recipes into Mise en Place from the terminal",
	Long: `mep imports recipes from web pages into your Mise en Place collection.

Preview a page to review and edit what was found, import a single page
directly, or bulk import many pages at once.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupApp,
}

func init() {
	rootCmd.PersistentFlags().String("base-url", "", "Mise en Place server URL (env MEP_BASE_URL)")
	rootCmd.PersistentFlags().String("log-level", "", "Diagnostic log level: debug, info, warn, error or disabled (env MEP_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (env MEP_CONFIG)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(quotaCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(bulkCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(upgradeCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute(m Metadata) {
	metadata = m
	// A missing .env is the common case.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := fang.Execute(ctx, rootCmd, fang.WithVersion(versionString(m))); err != nil {
		os.Exit(1)
	}
}

func versionString(m Metadata) string {
	if m.Commit == "" {
		return m.Version
	}
	return fmt.Sprintf("%s (%s)", m.Version, m.Commit)
}

func setupApp(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath, os.Getenv)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("base-url"); strings.TrimSpace(v) != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		if _, err := config.ParseLogLevel(v); err != nil {
			return err
		}
		cfg.LogLevel = v
	}

	log := cfg.Logger()
	store, err := credentials.Open(cfg.CredentialBackend, cfg.Dir)
	if err != nil {
		return err
	}
	a := &app{
		cfg:    cfg,
		log:    log,
		client: api.NewClient(cfg.BaseURL, api.WithLogger(log)),
		store:  store,
	}
	log.Debug("configuration loaded", log.Args("base_url", cfg.BaseURL, "credential_backend", cfg.CredentialBackend))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appKey{}, a))
	return nil
}

func getApp(cmd *cobra.Command) *app {
	if ctx := cmd.Context(); ctx != nil {
		if a, ok := ctx.Value(appKey{}).(*app); ok {
			return a
		}
	}
	// Commands run outside Execute, as in tests, get the defaults.
	cfg := config.Default()
	log := cfg.Logger()
	return &app{
		cfg:    cfg,
		log:    log,
		client: api.NewClient(cfg.BaseURL, api.WithLogger(log)),
		store:  credentials.NewKeyringStore(),
	}
}

var errNotLoggedIn = &api.ValidationError{Message: "Please log in first"}

// requireToken returns the stored bearer token.
func requireToken(store credentials.Store) (string, error) {
	cred, err := store.Load()
	if err != nil {
		return "", fmt.Errorf("failed to read credentials: %w", err)
	}
	if !cred.Valid() {
		return "", errNotLoggedIn
	}
	return cred.Token, nil
}

// reportUnauthorized adds a hint when the server no longer accepts the
// stored token.
func reportUnauthorized(err error) {
	if api.IsUnauthorized(err) {
		pterm.Info.Println("Run 'mep login' to sign in again.")
	}
}
