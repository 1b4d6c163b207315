package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"tsm-go/internal/archive"
	"tsm-go/internal/config"
	"tsm-go/internal/database"
	"tsm-go/internal/encryption"
	"tsm-go/internal/fs"
	"tsm-go/internal/model"
	"tsm-go/internal/scheduler"
	"tsm-go/internal/tsm"
)

// Options tune how an App is wired. The zero value is what the CLI uses.
type Options struct {
	DryRun bool
	Out    io.Writer        // dry-run descriptions, defaults to os.Stdout
	Stderr io.Writer        // log mirror, defaults to os.Stderr
	Clock  tsm.Clock        // defaults to the system clock
	IDs    tsm.IDGenerator  // run IDs, defaults to random UUIDs
	Store  tsm.ArchiveStore // replaces the configured store when set
}

// App is the application layer between the CLI and the rotation engine.
// It constructs all dependencies from config, exposes high-level
// operations and manages the ledger lifecycle on Close.
type App struct {
	cfg     *config.Config
	policy  tsm.RetentionPolicy
	store   tsm.ArchiveStore
	db      *database.SQLiteDatabase
	clock   tsm.Clock
	ids     tsm.IDGenerator
	dryRun  bool
	slog    *slog.Logger
	log     tsm.Logger
	logFile *os.File
}

// New creates a fully wired App from the given config.
// The caller must call Close when done.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	policy, err := PolicyFromConfig(cfg.Policy)
	if err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}

	if opts.Clock == nil {
		opts.Clock = tsm.RealClock{}
	}
	if opts.IDs == nil {
		opts.IDs = tsm.UUIDGenerator{}
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	logger, logFile, err := newLogger(cfg.LogDir, opts.IDs.New(), cfg.LogLevel, opts.Stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	a := &App{
		cfg:     cfg,
		policy:  policy,
		clock:   opts.Clock,
		ids:     opts.IDs,
		dryRun:  opts.DryRun,
		slog:    logger,
		log:     log,
		logFile: logFile,
	}

	store := opts.Store
	if store == nil {
		fsmgr := fs.NewOSFilesystemManager(cfg.Filesystem.Ignore)
		enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("creating encryptor: %w", err)
		}
		store, err = archive.NewStoreFromConfig(ctx, cfg.Store, fsmgr, enc, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("creating archive store: %w", err)
		}
	}
	if opts.DryRun {
		store = archive.NewDryRunStore(store, opts.Out)
	}
	a.store = store

	db, err := database.NewDatabaseFromConfig(cfg.Database, policy.ArchiveName(), opts.Clock)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating database: %w", err)
	}
	a.db = db

	if err := db.CheckMigrations(); err != nil {
		a.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	return a, nil
}

// PolicyFromConfig validates the policy section of the config.
func PolicyFromConfig(pc config.PolicyConfig) (tsm.RetentionPolicy, error) {
	return tsm.NewRetentionPolicy(tsm.PolicyOptions{
		ArchiveName:      pc.ArchiveName,
		AnchorWeekday:    tsm.Weekday(pc.Weekday),
		DailyRetention:   pc.NumDays,
		WeeklyRetention:  pc.NumWeeks,
		MonthlyRetention: pc.NumMonths,
		DailyExpiry:      pc.DailyExpiry,
	})
}

// Policy returns the validated retention policy.
func (a *App) Policy() tsm.RetentionPolicy { return a.policy }

// Today returns the current date according to the app's clock.
func (a *App) Today() tsm.Date { return tsm.Today(a.clock) }

// Plan evaluates the policy for date without touching the store.
func (a *App) Plan(date tsm.Date) tsm.Plan {
	return tsm.Evaluate(a.policy, date)
}

// Backup runs the rotation for date. When paths is empty the configured
// paths are archived. The report is returned even when some store calls
// failed.
func (a *App) Backup(ctx context.Context, date tsm.Date, paths []string) (*tsm.RunReport, error) {
	return a.rotate(ctx, "Backup", date, paths)
}

func (a *App) rotate(ctx context.Context, operation string, date tsm.Date, paths []string) (*tsm.RunReport, error) {
	if len(paths) == 0 {
		paths = a.cfg.Paths
	}
	if len(paths) == 0 {
		return nil, &tsm.ConfigError{Field: "paths", Reason: "no files or directories to archive"}
	}

	op := NewRunOperation(a.ids.New(), operation, date, a.dryRun)
	if err := op.persist(a.db); err != nil {
		return nil, err
	}

	runLog := &slogAdapter{l: a.slog.With("run", op.UUID)}
	rotator := tsm.NewRotator(a.policy, a.store, a.db, runLog, a.clock)

	report, runErr := rotator.Run(ctx, op.ID, date, paths)
	if runErr != nil {
		op.Fail()
	}
	if err := op.finish(a.db); err != nil {
		runErr = errors.Join(runErr, err)
	}
	return report, runErr
}

// ListArchives returns the archives currently in the store.
func (a *App) ListArchives(ctx context.Context) ([]string, error) {
	lister, ok := a.store.(tsm.ArchiveLister)
	if !ok {
		return nil, fmt.Errorf("store does not support listing archives")
	}
	return lister.List(ctx)
}

// History returns the most recent runs from the ledger.
func (a *App) History(limit int) ([]*model.Run, error) {
	return a.db.ListRuns(limit)
}

// RunActions returns the actions recorded for a run.
func (a *App) RunActions(runID int64) ([]*model.Action, error) {
	return a.db.ListActions(runID)
}

// Daemon runs the rotation on the configured cron schedule until ctx is
// cancelled. Each tick rotates for the clock's current date.
func (a *App) Daemon(ctx context.Context) error {
	s := scheduler.New(a.cfg.Schedule, func(ctx context.Context) error {
		_, err := a.rotate(ctx, "Daemon", a.Today(), nil)
		return err
	}, a.log)

	if err := s.Start(ctx); err != nil {
		return err
	}
	a.log.Info("waiting for next run", "at", s.NextRun().Format(time.RFC3339))

	<-ctx.Done()
	s.Stop()
	return nil
}

// Close closes the ledger and the log file.
func (a *App) Close() error {
	var err error
	if a.db != nil {
		if cerr := a.db.Close(); cerr != nil {
			err = fmt.Errorf("closing database: %w", cerr)
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return err
}

// InitKeys generates the encryption key pair named in cfg, protecting the
// private key with passphrase.
func InitKeys(cfg *config.Config, passphrase string) error {
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if enc == nil {
		return fmt.Errorf("encryption is disabled, no keys to create")
	}
	if enc.IsConfigured() {
		return fmt.Errorf("encryption keys already exist")
	}
	if err := enc.Setup(passphrase); err != nil {
		return fmt.Errorf("creating keys: %w", err)
	}
	return nil
}

// WritePlan prints plan as one line per tier.
func WritePlan(w io.Writer, plan tsm.Plan) error {
	for _, d := range plan {
		var line string
		switch {
		case !d.ShouldCreate:
			line = fmt.Sprintf("%-8s no action", d.Tier)
		case d.Expire == nil:
			line = fmt.Sprintf("%-8s create %s", d.Tier, d.Create)
		default:
			line = fmt.Sprintf("%-8s create %s, expire %s", d.Tier, d.Create, d.Expire)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
