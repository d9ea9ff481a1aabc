package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "mediafold",
	Short:   "Media gallery gateway over WebDAV-style storage",
	Long: `Mediafold is a media gallery gateway. It fronts a primary media
store and a derived thumbnail cache, keeps a file registry in step with
both, and serves signed readonly URLs alongside a credential-protected
management API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		setupLogging(cfg)
		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path(s), later files override earlier ones")
	rootCmd.PersistentFlags().Int("port", 0, "HTTP server port (env: MEDIAFOLD_SERVER_PORT)")
	rootCmd.PersistentFlags().String("public-base-url", "", "base URL issued capability URLs are anchored to (env: MEDIAFOLD_SERVER_PUBLIC_BASE_URL)")
	rootCmd.PersistentFlags().String("db-type", "", "registry backend: sqlite, postgres (env: MEDIAFOLD_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "registry connection string (env: MEDIAFOLD_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("db-table", "", "registry table name (env: MEDIAFOLD_DATABASE_TABLE)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: MEDIAFOLD_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
