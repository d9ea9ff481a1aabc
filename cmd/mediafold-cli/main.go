package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/mediafold/mediafold/clientcli"
)

var (
	version = "dev"

	cfgFile     string
	profileName string
	endpoint    string
	username    string
	password    string
	jsonOutput  bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:     "mediafold-cli",
	Version: version,
	Short:   "Client for mediafold gallery servers",
	Long: `Mediafold CLI - Client for the mediafold gallery gateway.

Management commands (list, upload, move, copy, delete, urls, info,
populate, sweep) authenticate against the server's write API.
Downloads go through freshly issued capability URLs and need no
credentials on the read path.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.mediafold/config.yaml, env: MEDIAFOLD_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "profile name (env: MEDIAFOLD_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:8080, env: MEDIAFOLD_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "API username (env: MEDIAFOLD_USERNAME)")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "API password (env: MEDIAFOLD_PASSWORD)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(urlsCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(populateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// getConfigPath resolves the config file path from the flag, the
// environment, and the default location, in that order.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if envPath := clientcli.ConfigPathFromEnv(); envPath != "" {
		return envPath
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges config from the selected profile, env vars, and
// flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	// 1. Load from the selected profile
	configPath := getConfigPath()
	if configPath != "" {
		configFile, err := clientcli.LoadConfigFile(configPath)
		if err != nil {
			// Only error if user explicitly specified a config file
			if cfgFile != "" {
				return nil, err
			}
		} else {
			name := profileName
			if name == "" {
				name = clientcli.ProfileFromEnv()
			}
			p, profileErr := configFile.GetProfile(name)
			if profileErr != nil {
				// A named profile must exist; the default one is optional
				if name != "" || !errors.Is(profileErr, clientcli.ErrNoProfiles) {
					return nil, profileErr
				}
			} else {
				configs = append(configs, clientcli.ConfigFromProfile(p))
			}
		}
	}

	// 2. Load from environment variables
	configs = append(configs, clientcli.ConfigFromEnv())

	// 3. Load from flags
	configs = append(configs, &clientcli.Config{
		Endpoint: endpoint,
		Username: username,
		Password: password,
	})

	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateWithAuth(); err != nil {
		return nil, err
	}

	return clientcli.New(cfg)
}

// exitError is returned when we want to exit with a specific code
// but don't want cobra to print an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return ""
}
