// Package cli implements the caddy command-line interface.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/caddy/internal/paths"
	"github.com/mesh-intelligence/caddy/pkg/caddy"
	"github.com/mesh-intelligence/caddy/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// app holds global flag values and the state PersistentPreRunE builds for
// every subcommand.
type app struct {
	configDir string
	dataDir   string
	backend   string
	jsonMode  bool
	verbose   bool

	// fs is where import reads its source file.
	fs afero.Fs

	cfg    *viper.Viper
	logger *slog.Logger
}

// NewRootCmd creates the top-level "caddy" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{fs: afero.NewOsFs()})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "caddy",
		Short: "A small store for tea records",
		Long: "Caddy keeps tea records (name, description, id) in a JSON file\n" +
			"and upserts them by name.",
		Version:           caddy.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/caddy)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "directory holding the store file (default: working directory)")
	root.PersistentFlags().StringVar(&a.backend, "backend", "", "storage backend: json or sqlite (default from config, else json)")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(a.newVersionCmd())
	root.AddCommand(a.newInitCmd())
	root.AddCommand(a.newAddCmd())
	root.AddCommand(a.newGetCmd())
	root.AddCommand(a.newListCmd())
	root.AddCommand(a.newNextIDCmd())
	root.AddCommand(a.newImportCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// setup loads .env, config.yaml and the logger. On first run it writes a
// default config.yaml; init writes its own.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	// A missing .env is normal.
	_ = godotenv.Load()

	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	a.configDir = configDir

	written := false
	if cmd.Name() != initCmdName {
		written, err = writeConfigIfMissing(configDir, configFile{Backend: types.BackendJSON})
		if err != nil {
			return sysError(err)
		}
	}

	cfg, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}
	a.cfg = cfg

	level, err := a.logLevel()
	if err != nil {
		return userError(err)
	}
	a.logger = newLogger(cmd.ErrOrStderr(), level)
	if written {
		a.logger.Debug("default config written", "config_dir", configDir)
	}
	a.logger.Debug("config loaded", "config_dir", configDir, "config_file", cfg.ConfigFileUsed())
	return nil
}

// storeConfig resolves the backend and data directory from flags, config
// and environment.
func (a *app) storeConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.dataDir, a.cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, sysError(fmt.Errorf("resolve data dir: %w", err))
	}

	backend := a.backend
	if backend == "" {
		backend = a.cfg.GetString(cfgKeyBackend)
	}

	cfg := types.Config{Backend: backend, DataDir: dataDir}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, userError(fmt.Errorf("backend %q: %w", backend, err))
	}
	return cfg, nil
}

// openStore opens the configured store. The caller must Close it.
func (a *app) openStore() (types.Store, error) {
	cfg, err := a.storeConfig()
	if err != nil {
		return nil, err
	}
	store, err := caddy.Open(cfg, caddy.WithLogger(a.logger))
	if err != nil {
		return nil, sysError(err)
	}
	a.logger.Debug("store opened", "backend", cfg.Backend, "path", cfg.DataPath())
	return store, nil
}

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }

func sysError(err error) error { return &exitError{code: exitSysError, err: err} }

// exitCode maps err to a process exit code. Errors without an explicit code,
// such as cobra's flag errors, are user errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}
