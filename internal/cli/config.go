package cli

import (
	"annotate-cli/internal/store"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change ~/.annotate/config.json",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigSetCmd(app))
	return cmd
}

func redacted(cfg *store.Config) store.Config {
	out := *cfg
	if out.Token != "" {
		out.Token = "********"
	}
	return out
}

func newConfigShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the config (token redacted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			path, _ := store.ConfigPath()
			return writeOut(cmd, app, map[string]any{"path": path, "config": redacted(cfg)})
		},
	}
	return cmd
}

func newConfigSetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Set one config key",
		Long:      "Known keys: " + joinKeys(),
		Args:      cobra.ExactArgs(2),
		ValidArgs: store.ConfigKeys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, redacted(cfg))
		},
	}
	return cmd
}

func joinKeys() string {
	out := ""
	for i, k := range store.ConfigKeys() {
		if i > 0 {
			out += ", "
		}
		out += k
	}
	return out
}
