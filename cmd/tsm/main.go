package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tsm-go/internal/app"
	"tsm-go/internal/config"
	"tsm-go/internal/tsm"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies any policy flags set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if cfg.BaseDir == "" {
		cfg.SetBaseDir(defaults.BaseDir)
	}

	if err := applyOverrides(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp reads the config and creates an App. The caller must defer a.Close().
func newApp(ctx context.Context, cmd *cobra.Command, dryRun bool) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, cfg, app.Options{DryRun: dryRun, Out: cmd.OutOrStdout()})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// addPolicyFlags registers the flags that override the policy and store
// sections of the config file.
func addPolicyFlags(cmd *cobra.Command) {
	cmd.Flags().String("archive-name", "", "Base name for archives")
	cmd.Flags().String("weekday", "", "Anchor weekday for weekly and monthly archives, 0=Monday .. 6=Sunday or a day name")
	cmd.Flags().Int("num-days", config.DefaultNumDays, "Number of daily archives to keep")
	cmd.Flags().Int("num-weeks", config.DefaultNumWeeks, "Number of weekly archives to keep")
	cmd.Flags().Int("num-months", config.DefaultNumMonths, "Number of monthly archives to keep")
	cmd.Flags().String("key-file", "", "Tarsnap key file")
	cmd.Flags().String("cache-dir", "", "Tarsnap cache directory")
}

// applyOverrides copies policy flags onto cfg. Only flags given on the
// command line override the file.
func applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Lookup("archive-name") == nil {
		return nil
	}

	if flags.Changed("archive-name") {
		cfg.Policy.ArchiveName, _ = flags.GetString("archive-name")
	}
	if flags.Changed("weekday") {
		raw, _ := flags.GetString("weekday")
		wd, err := tsm.ParseWeekday(raw)
		if err != nil {
			return &tsm.ConfigError{Field: "weekday", Reason: err.Error()}
		}
		cfg.Policy.Weekday = int(wd)
	}
	if flags.Changed("num-days") {
		cfg.Policy.NumDays, _ = flags.GetInt("num-days")
	}
	if flags.Changed("num-weeks") {
		cfg.Policy.NumWeeks, _ = flags.GetInt("num-weeks")
	}
	if flags.Changed("num-months") {
		cfg.Policy.NumMonths, _ = flags.GetInt("num-months")
	}
	if flags.Changed("key-file") {
		cfg.Store.KeyFile, _ = flags.GetString("key-file")
	}
	if flags.Changed("cache-dir") {
		cfg.Store.CacheDir, _ = flags.GetString("cache-dir")
	}
	return nil
}

// runDate returns the --date flag, or today when it is not set.
func runDate(cmd *cobra.Command, a *app.App) (tsm.Date, error) {
	raw, _ := cmd.Flags().GetString("date")
	if raw == "" {
		return a.Today(), nil
	}
	return tsm.ParseDate(raw)
}

// readPassphrase reads a passphrase without echo when stdin is a terminal,
// and a single line otherwise.
func readPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

var rootCmd = &cobra.Command{
	Use:          "tsm",
	Short:        "Rotate tarsnap archives on a daily, weekly and monthly schedule",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults.BaseDir)
		cfg.Policy.ArchiveName, _ = cmd.Flags().GetString("archive-name")
		cfg.Store.KeyFile, _ = cmd.Flags().GetString("key-file")

		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Fprintf(cmd.OutOrStdout(), "Base Dir: %s\n", defaults.BaseDir)
		if cfg.Policy.ArchiveName == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "Set policy.archive_name and paths before the first backup.")
		}
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Fprintf(cmd.OutOrStdout(), "Base Dir:     %s\n", cfg.BaseDir)
		fmt.Fprintf(cmd.OutOrStdout(), "Log Dir:      %s\n", cfg.LogDir)
		fmt.Fprintf(cmd.OutOrStdout(), "Schedule:     %s\n", cfg.Schedule)
		fmt.Fprintf(cmd.OutOrStdout(), "Paths:        %s\n", strings.Join(cfg.Paths, " "))
		fmt.Fprintf(cmd.OutOrStdout(), "Archive Name: %s\n", cfg.Policy.ArchiveName)
		fmt.Fprintf(cmd.OutOrStdout(), "Weekday:      %s\n", tsm.Weekday(cfg.Policy.Weekday))
		fmt.Fprintf(cmd.OutOrStdout(), "Retention:    %d days, %d weeks, %d months\n", cfg.Policy.NumDays, cfg.Policy.NumWeeks, cfg.Policy.NumMonths)
		fmt.Fprintf(cmd.OutOrStdout(), "Store:        %s\n", cfg.Store.Type)
		fmt.Fprintf(cmd.OutOrStdout(), "Database:     %s\n", cfg.Database.Type)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the archive encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}
		if term.IsTerminal(int(os.Stdin.Fd())) {
			confirm, err := readPassphrase("Confirm passphrase: ")
			if err != nil {
				return err
			}
			if confirm != passphrase {
				return fmt.Errorf("passphrases do not match")
			}
		}

		if err := app.InitKeys(cfg, passphrase); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Public key:  %s\n", cfg.Encryption.PublicKeyPath)
		fmt.Fprintf(cmd.OutOrStdout(), "Private key: %s\n", cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

// plan command
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what a backup would create and expire",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		policy, err := app.PolicyFromConfig(cfg.Policy)
		if err != nil {
			return fmt.Errorf("invalid policy: %w", err)
		}

		date := tsm.Today(tsm.RealClock{})
		if raw, _ := cmd.Flags().GetString("date"); raw != "" {
			if date, err = tsm.ParseDate(raw); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Plan for %s (%s):\n", date, date.Weekday())
		return app.WritePlan(cmd.OutOrStdout(), tsm.Evaluate(policy, date))
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup [PATH...]",
	Short: "Create today's archives and expire old ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cmd, dryRun)
		if err != nil {
			return err
		}
		defer a.Close()

		date, err := runDate(cmd, a)
		if err != nil {
			return err
		}

		report, err := a.Backup(ctx, date, args)
		if report != nil {
			for _, r := range report.Results {
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-6s %-7s %s\n", r.Tier, r.Kind, r.Status, r.Archive)
			}
		}
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archives in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		names, err := a.ListArchives(cmd.Context())
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No archives.")
			return nil
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View rotation run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		verbose, _ := cmd.Flags().GetBool("verbose")

		a, err := newApp(cmd.Context(), cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
			return nil
		}

		for _, run := range runs {
			duration := ""
			if run.FinishedAt.Valid {
				d := run.FinishedAt.Time.Sub(run.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			dry := ""
			if run.DryRun {
				dry = "  [dry-run]"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "#%d  %-8s  %s  %s  %-8s  %s%s\n",
				run.ID,
				run.Operation,
				run.RunDate,
				run.StartedAt.Format("2006-01-02 15:04:05"),
				run.Status,
				duration,
				dry,
			)

			if !verbose {
				continue
			}
			actions, err := a.RunActions(run.ID)
			if err != nil {
				return err
			}
			for _, act := range actions {
				line := fmt.Sprintf("      %-8s %-6s %-7s %s", act.Tier, act.Kind, act.Status, act.Archive)
				if act.Error != "" {
					line += "  " + act.Error
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
		}
		return nil
	},
}

// daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the rotation on the configured schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Daemon(ctx)
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configInitCmd.Flags().String("archive-name", "", "Base name for archives")
	configInitCmd.Flags().String("key-file", "", "Tarsnap key file")

	// keys subcommands
	keysCmd.AddCommand(keysInitCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(planCmd)
	addPolicyFlags(planCmd)
	planCmd.Flags().String("date", "", "Evaluate for this date (YYYY-MM-DD) instead of today")
	rootCmd.AddCommand(backupCmd)
	addPolicyFlags(backupCmd)
	backupCmd.Flags().Bool("dry-run", false, "Print the store commands instead of running them")
	backupCmd.Flags().String("date", "", "Rotate as if today were this date (YYYY-MM-DD)")
	rootCmd.AddCommand(listCmd)
	addPolicyFlags(listCmd)
	rootCmd.AddCommand(historyCmd)
	addPolicyFlags(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
	historyCmd.Flags().BoolP("verbose", "v", false, "Show the actions of each run")
	rootCmd.AddCommand(daemonCmd)
	addPolicyFlags(daemonCmd)
}
