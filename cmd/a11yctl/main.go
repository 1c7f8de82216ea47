// Command a11yctl is the operator CLI for delivery tokens, access
// credentials and domain rules.
package main

import (
	"encoding/json"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"a11yhub/internal/config"
	"a11yhub/internal/utils/logger"
)

var log = logger.New("a11yctl")

type app struct {
	envFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "a11yctl",
		Short:         "Operator tooling for a11yhub",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading configuration")

	root.AddCommand(newTokenCmd(a), newCredentialCmd(a), newDomainCmd())
	return root
}

// loadConfig loads the configuration once, honouring --env-file when present.
func (a *app) loadConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	if _, err := os.Stat(a.envFile); err == nil {
		if err := godotenv.Load(a.envFile); err != nil {
			return nil, log.Error("failed to load "+a.envFile, err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Warn("%v", err)
		os.Exit(1)
	}
}
