package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// initializer is implemented by stores that can create an empty store file.
type initializer interface {
	Init() error
}

const initCmdName = "init"

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   initCmdName,
		Short: "Initialize caddy configuration and storage",
		Long:  "Write config.yaml if it is missing, then create an empty store.",
		Args:  cobra.NoArgs,
		RunE:  a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	cfg, err := a.storeConfig()
	if err != nil {
		return err
	}

	// Record data_dir only when it was chosen explicitly.
	dataDir := ""
	if a.dataDir != "" {
		dataDir = cfg.DataDir
	}
	written, err := writeConfigIfMissing(a.configDir, configFile{
		Backend: cfg.Backend,
		DataDir: dataDir,
	})
	if err != nil {
		return sysError(err)
	}
	if written {
		a.logger.Info("config written", "dir", a.configDir)
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if in, ok := store.(initializer); ok {
		if err := in.Init(); err != nil {
			return sysError(fmt.Errorf("initialize storage: %w", err))
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Caddy initialized at %s\n", cfg.DataPath())
	return nil
}
