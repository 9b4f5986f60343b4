package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"pkt.systems/pslog"

	"github.com/rbxkit/playerstore/internal/config"
	"github.com/rbxkit/playerstore/internal/playerdata"
	"github.com/rbxkit/playerstore/internal/version"
	"github.com/rbxkit/playerstore/pkg/opencloud"
)

func newRootCommand(logger pslog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "playerstore",
		Short:         "HTTP admin service for per-player Roblox Data Store entries",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromViper()
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, logger)
		},
	}

	flags := cmd.Flags()
	flags.String("listen", config.DefaultListen, "HTTP listen address")
	flags.String("metrics-listen", "", "Prometheus metrics listen address (empty disables)")
	flags.String("mode", config.ModeAuto, "runtime mode: auto, http, or mock")
	flags.Int64("universe-id", 0, "Open Cloud universe id")
	flags.String("datastore", "", "Data Store name")
	flags.String("scope", opencloud.DefaultScope, "Data Store scope")
	flags.String("entry-prefix", opencloud.DefaultKeyPrefix, "entry key prefix (<prefix>_<userId>)")
	flags.String("mutable-root", playerdata.DefaultMutableRoot, "reserved top-level key clients may patch under")
	flags.String("api-key", "", "Open Cloud API key")
	flags.String("admin-token", "", "admin token gating /api (empty disables the gate)")
	flags.String("opencloud-url", config.DefaultOpenCloudBaseURL, "Open Cloud base URL")
	flags.String("users-url", config.DefaultUsersBaseURL, "users API base URL")
	flags.String("seed", "", "seed file for the mock universe (mock mode only)")
	bindFlags(flags)

	cmd.AddCommand(newVersionCommand())
	return cmd
}

func bindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		if err := viper.BindPFlag(f.Name, f); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", f.Name, err))
		}
	})
	viper.SetEnvPrefix("PLAYERSTORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func configFromViper() (*config.Config, error) {
	cfg := &config.Config{
		Listen:           viper.GetString("listen"),
		MetricsListen:    viper.GetString("metrics-listen"),
		Mode:             viper.GetString("mode"),
		UniverseID:       viper.GetInt64("universe-id"),
		DataStore:        viper.GetString("datastore"),
		Scope:            viper.GetString("scope"),
		EntryKeyPrefix:   viper.GetString("entry-prefix"),
		MutableRoot:      viper.GetString("mutable-root"),
		APIKey:           viper.GetString("api-key"),
		AdminToken:       viper.GetString("admin-token"),
		OpenCloudBaseURL: viper.GetString("opencloud-url"),
		UsersBaseURL:     viper.GetString("users-url"),
		SeedFile:         viper.GetString("seed"),
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
