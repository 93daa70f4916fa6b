package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eisenvault/evshare/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage evshare configuration",
		Long: `Configuration management commands for evshare.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration and login state
  path  - Show configuration file paths`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for evshare: proxy, upload and
logging settings. Press Enter to keep the value shown in brackets.

Use --force to overwrite an existing configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Configuration already exists at: %s\n", path)
					fmt.Fprintln(cmd.OutOrStdout(), "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			cfg, err := config.LoadConfig(path)
			if err != nil {
				// Start over from defaults when the old file is unreadable
				cfg = config.NewConfig()
			}

			if err := promptConfig(stdinReader, cmd.OutOrStdout(), cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := config.SaveConfig(cfg, path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Configuration saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

// promptConfig asks for each setting, keeping the current value on empty input.
func promptConfig(r *bufio.Reader, w io.Writer, cfg *config.Config) error {
	fmt.Fprintln(w, "evshare Configuration Setup")
	fmt.Fprintln(w, "===========================")

	ask := func(label, current string) (string, error) {
		value, err := readLine(r, w, fmt.Sprintf("%s [%s]: ", label, current))
		if err != nil {
			return "", err
		}
		if value == "" {
			return current, nil
		}
		return value, nil
	}
	askInt := func(label string, current int) (int, error) {
		value, err := ask(label, strconv.Itoa(current))
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a number", label, value)
		}
		return n, nil
	}
	askBool := func(label string, current bool) (bool, error) {
		value, err := ask(label, strconv.FormatBool(current))
		if err != nil {
			return false, err
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("%s: %q is not true or false", label, value)
		}
		return b, nil
	}

	var err error
	fmt.Fprintln(w, "\nNetwork:")
	if cfg.ProxyMode, err = ask("Proxy mode (no-proxy, system, basic, ntlm)", cfg.ProxyMode); err != nil {
		return err
	}
	mode := strings.ToLower(cfg.ProxyMode)
	if mode == "basic" || mode == "ntlm" {
		if cfg.ProxyHost, err = ask("Proxy host", cfg.ProxyHost); err != nil {
			return err
		}
		if cfg.ProxyPort, err = askInt("Proxy port", cfg.ProxyPort); err != nil {
			return err
		}
		if cfg.ProxyUser, err = ask("Proxy user", cfg.ProxyUser); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "\nUpload:")
	if cfg.MaxConcurrent, err = askInt("Max concurrent uploads (0 = all at once)", cfg.MaxConcurrent); err != nil {
		return err
	}
	if cfg.CheckCreatePermission, err = askBool("Check permission before creating folders", cfg.CheckCreatePermission); err != nil {
		return err
	}
	if cfg.Notify, err = askBool("Desktop notification when an upload finishes", cfg.Notify); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nLogging:")
	if cfg.LogLevel, err = ask("Log level (debug, info, warn, error)", cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration settings and whether DMS
credentials are stored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Current Configuration")
			fmt.Fprintln(out, "=====================")
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Login:")
			creds, err := openStore().LoadCredentials()
			if err != nil {
				fmt.Fprintf(out, "  %v\n", err)
			} else {
				fmt.Fprintf(out, "  DMS URL:  %s\n", creds.BaseURL)
				fmt.Fprintf(out, "  Instance: %s\n", creds.InstanceType)
				// Never display any portion of the token
				fmt.Fprintf(out, "  Token:    <set (%d chars)>\n", len(creds.AuthToken))
				if creds.CustomerHostname != "" {
					fmt.Fprintf(out, "  Customer: %s\n", creds.CustomerHostname)
				}
			}
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Proxy Settings:")
			fmt.Fprintf(out, "  Proxy Mode: %s\n", cfg.ProxyMode)
			if cfg.ProxyHost != "" {
				fmt.Fprintf(out, "  Proxy Host: %s\n", cfg.ProxyHost)
				fmt.Fprintf(out, "  Proxy Port: %d\n", cfg.ProxyPort)
			}
			if cfg.NoProxy != "" {
				fmt.Fprintf(out, "  No Proxy:   %s\n", cfg.NoProxy)
			}
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Upload Settings:")
			fmt.Fprintf(out, "  Max Concurrent:          %d\n", cfg.MaxConcurrent)
			fmt.Fprintf(out, "  Check Create Permission: %t\n", cfg.CheckCreatePermission)
			fmt.Fprintf(out, "  Notify:                  %t\n", cfg.Notify)
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Logging:")
			fmt.Fprintf(out, "  Level: %s\n", cfg.LogLevel)
			if cfg.LogFile != "" {
				fmt.Fprintf(out, "  File:  %s\n", cfg.LogFile)
			}
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Long:  `Display the paths of the configuration file and the shared credential store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, p := range []struct{ label, path string }{
				{"Configuration", configPath()},
				{"Shared store", openStore().Path()},
			} {
				status := "not found"
				if _, err := os.Stat(p.path); err == nil {
					status = "✓ exists"
				}
				fmt.Fprintf(out, "%-14s %s (%s)\n", p.label+":", p.path, status)
			}
			return nil
		},
	}
}
