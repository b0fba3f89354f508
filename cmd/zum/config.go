package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/j-veylop/zai-usage-monitor/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the persisted configuration",
	}

	cmd.AddCommand(newConfigShowCommand(), newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the configuration with the token masked",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, cfg, logCloser, err := loadRuntime(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = logCloser.Close() }()

			token := cfg.MaskedToken()
			if token == "" {
				token = "(not set)"
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "config file\t%s\n", rt.ConfigPath)
			fmt.Fprintf(w, "auth token\t%s\n", token)
			fmt.Fprintf(w, "base url\t%s\n", cfg.BaseURL)
			fmt.Fprintf(w, "refresh interval\t%d min\n", cfg.RefreshIntervalMinutes)
			fmt.Fprintf(w, "history database\t%s\n", rt.DatabasePath)
			return w.Flush()
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	var (
		token    string
		baseURL  string
		interval int
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update configuration values",
		Long:  "Update one or more configuration values. Flags that are not given keep their current value.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, cfg, logCloser, err := loadRuntime(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = logCloser.Close() }()

			flags := cmd.Flags()
			if !flags.Changed("token") && !flags.Changed("base-url") && !flags.Changed("interval") {
				return fmt.Errorf("nothing to set: use --token, --base-url or --interval")
			}

			cfg = applyConfigFlags(cfg, flags.Changed("token"), token, flags.Changed("base-url"), baseURL,
				flags.Changed("interval"), interval)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(rt.ConfigPath, cfg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", rt.ConfigPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "API auth token")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "API base URL")
	cmd.Flags().IntVar(&interval, "interval", 0, "refresh interval in minutes")

	return cmd
}

// applyConfigFlags overwrites the fields whose flags were given.
func applyConfigFlags(cfg config.Config, setToken bool, token string, setURL bool, baseURL string,
	setInterval bool, interval int,
) config.Config {
	if setToken {
		cfg.AuthToken = token
	}
	if setURL {
		cfg.BaseURL = baseURL
	}
	if setInterval {
		cfg.RefreshIntervalMinutes = interval
	}
	return cfg
}
