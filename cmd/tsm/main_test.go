package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tsm-go/internal/config"
	"tsm-go/internal/tsm"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func policyCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addPolicyFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v) error = %v", args, err)
	}
	return cmd
}

func TestApplyOverrides(t *testing.T) {
	t.Run("unset flags keep the file values", func(t *testing.T) {
		cfg := config.NewConfig(t.TempDir())
		cfg.Policy.ArchiveName = "foo"
		cfg.Policy.NumWeeks = 8

		if err := applyOverrides(policyCmd(t), cfg); err != nil {
			t.Fatalf("applyOverrides() error = %v", err)
		}
		if cfg.Policy.ArchiveName != "foo" || cfg.Policy.NumWeeks != 8 {
			t.Errorf("Policy = %+v, want file values kept", cfg.Policy)
		}
	})

	t.Run("set flags win", func(t *testing.T) {
		cfg := config.NewConfig(t.TempDir())
		cmd := policyCmd(t,
			"--archive-name", "bar",
			"--weekday", "friday",
			"--num-days", "7",
			"--num-weeks", "0",
			"--num-months", "12",
			"--key-file", "/root/tarsnap.key",
			"--cache-dir", "/var/cache/tarsnap",
		)

		if err := applyOverrides(cmd, cfg); err != nil {
			t.Fatalf("applyOverrides() error = %v", err)
		}
		want := config.PolicyConfig{ArchiveName: "bar", Weekday: int(tsm.Friday), NumDays: 7, NumWeeks: 0, NumMonths: 12}
		if cfg.Policy != want {
			t.Errorf("Policy = %+v, want %+v", cfg.Policy, want)
		}
		if cfg.Store.KeyFile != "/root/tarsnap.key" || cfg.Store.CacheDir != "/var/cache/tarsnap" {
			t.Errorf("Store = %+v, want flag values", cfg.Store)
		}
	})

	t.Run("bad weekday", func(t *testing.T) {
		cfg := config.NewConfig(t.TempDir())
		err := applyOverrides(policyCmd(t, "--weekday", "7"), cfg)
		var cfgErr *tsm.ConfigError
		if !errors.As(err, &cfgErr) || cfgErr.Field != "weekday" {
			t.Fatalf("applyOverrides() error = %v, want weekday ConfigError", err)
		}
	})

	t.Run("commands without policy flags", func(t *testing.T) {
		cfg := config.NewConfig(t.TempDir())
		if err := applyOverrides(&cobra.Command{Use: "history"}, cfg); err != nil {
			t.Fatalf("applyOverrides() error = %v", err)
		}
	})
}

// writeTestConfig points the CLI at a fresh config with no archive name, a
// memory store and a sqlite ledger.
func writeTestConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tsm.toml")
	t.Setenv("TSM_CONFIG_PATH", path)
	t.Setenv("TSM_HOME", dir)

	cfg := config.NewConfig(dir)
	cfg.LogLevel = "error"
	cfg.Paths = []string{"/etc"}
	cfg.Store.Type = "memory"
	cfg.Encryption.Type = "none"
	if err := config.Init(path, cfg); err != nil {
		t.Fatalf("config.Init() error = %v", err)
	}
}

// resetFlags clears flag values left behind by an earlier Execute.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("tsm %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestPolicyFlagsRegistered(t *testing.T) {
	for _, cmd := range []*cobra.Command{planCmd, backupCmd, listCmd, historyCmd, daemonCmd} {
		if cmd.Flags().Lookup("archive-name") == nil {
			t.Errorf("%s has no --archive-name flag", cmd.Name())
		}
	}
}

func TestHistory_ArchiveNameFlag(t *testing.T) {
	writeTestConfig(t)

	out := execute(t, "backup", "--archive-name", "foo", "--date", "2012-02-03")
	if !strings.Contains(out, "foo_daily_2012-02-03") {
		t.Errorf("backup output = %q, want the daily archive", out)
	}

	out = execute(t, "history", "--archive-name", "foo")
	if !strings.Contains(out, "Backup") || !strings.Contains(out, "2012-02-03") {
		t.Errorf("history output = %q, want the Backup run for 2012-02-03", out)
	}
}

func TestPlan_WritesToCommandOutput(t *testing.T) {
	writeTestConfig(t)

	out := execute(t, "plan", "--archive-name", "foo", "--weekday", "friday", "--date", "2012-02-03")
	if !strings.HasPrefix(out, "Plan for 2012-02-03 (Friday):\n") {
		t.Errorf("plan output = %q, want the plan header first", out)
	}
	if !strings.Contains(out, "daily    create foo_daily_2012-02-03") {
		t.Errorf("plan output = %q, want the daily create", out)
	}
}

func TestMinimalConfigUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tsm.toml")
	t.Setenv("TSM_CONFIG_PATH", path)
	t.Setenv("TSM_HOME", dir)

	const doc = `paths = ["/etc"]
log_level = "error"

[policy]
archive_name = "foo"
num_days = 3

[store]
type = "memory"

[encryption]
type = "none"
`
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}

	out := execute(t, "plan", "--date", "2012-02-06")
	for _, want := range []string{
		"weekly   create foo_weekly_2012-02-06, expire foo_weekly_2012-01-23",
		"monthly  create foo_monthly_2012-02-06, expire foo_monthly_2012-01-02",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("plan output = %q, want %q", out, want)
		}
	}

	execute(t, "backup", "--date", "2012-02-06")
	if _, err := os.Stat(filepath.Join(dir, "db", "foo.db")); err != nil {
		t.Errorf("ledger not created under TSM_HOME: %v", err)
	}
}
