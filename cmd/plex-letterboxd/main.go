package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harrietfigueroa/plex-to-letterboxd/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd(viper.New()).ExecuteContext(ctx)
	_ = config.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Flags are bound to keys on v so that
// flag > env > config file > default.
func newRootCmd(v *viper.Viper) *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "plex-letterboxd",
		Short:         "Export Plex watch history as a Letterboxd import CSV",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			config.Configure(cfg)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Path to a config file (default: config.yaml in . or ./config)")
	flags.String("plex-url", "", "Plex Media Server base URL")
	flags.String("plex-token", "", "Plex authentication token")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	bindFlags(v, flags, map[string]string{
		"plex.url":   "plex-url",
		"plex.token": "plex-token",
		"log_level":  "log-level",
	})

	root.AddCommand(newExportCmd(v))
	root.AddCommand(newSectionsCmd())

	return root
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}
