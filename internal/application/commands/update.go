package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"intelstack/internal/domain"
	"intelstack/internal/ports"
)

// UpdaterStatus is the run state of an Updater
type UpdaterStatus int

const (
	StatusIdle UpdaterStatus = iota
	StatusRunning
)

// String returns the string representation of an UpdaterStatus
func (s UpdaterStatus) String() string {
	if s == StatusRunning {
		return "running"
	}
	return "idle"
}

// Target outcomes reported to metrics
const (
	outcomeInstalled = "installed"
	outcomeUpToDate  = "up_to_date"
	outcomeMissing   = "missing"
	outcomeFailed    = "failed"
)

// UpdaterDeps groups the ports an Updater drives
type UpdaterDeps struct {
	Catalog   ports.Catalog
	Storage   ports.ScriptStorage
	Folder    ports.ExternalFolder
	Installer ports.Installer
	Fetcher   ports.Fetcher
	Metrics   ports.Metrics
	Logger    *slog.Logger

	// Claims is shared with other writers of the external folder. A fresh
	// set is used when nil.
	Claims *Claims
}

// UpdaterOptions configures update runs
type UpdaterOptions struct {
	Remote          domain.Remote
	InternalPlugins []string

	// KeepGoing lets remaining targets finish after one fails. The first
	// failure is still returned.
	KeepGoing bool
}

// Updater refreshes the main script, the manifest plugins and every external
// plugin with a remote URL. At most one run is active per Updater. External
// identifiers are claimed in a set shared with the add commands, so an
// identifier being installed elsewhere is left for the next run.
type Updater struct {
	deps    UpdaterDeps
	opts    UpdaterOptions
	checker *UpdateChecker
	logger  *slog.Logger
	claims  *Claims

	running  atomic.Bool
	progress *Progress
}

// NewUpdater creates an idle Updater
func NewUpdater(deps UpdaterDeps, opts UpdaterOptions) *Updater {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = ports.NoopMetrics{}
	}
	if deps.Claims == nil {
		deps.Claims = NewClaims()
	}
	return &Updater{
		deps:     deps,
		opts:     opts,
		checker:  NewUpdateChecker(deps.Fetcher, deps.Logger),
		logger:   deps.Logger,
		claims:   deps.Claims,
		progress: NewProgress(),
	}
}

// Claims returns the identifier claim set of the Updater
func (u *Updater) Claims() *Claims {
	if u == nil {
		return nil
	}
	return u.claims
}

// Status reports whether a run is in progress
func (u *Updater) Status() UpdaterStatus {
	if u.running.Load() {
		return StatusRunning
	}
	return StatusIdle
}

// Progress returns the progress of the current run
func (u *Updater) Progress() *Progress {
	return u.progress
}

// RunUpdate performs one update run. A call made while another run is active
// returns immediately with a skipped report. Catalog changes from targets
// that succeeded are committed even when the run fails. No catalog
// transaction is open while targets download.
func (u *Updater) RunUpdate(ctx context.Context) (*domain.RunReport, error) {
	if !u.running.CompareAndSwap(false, true) {
		u.logger.Info("update already running, skipping")
		u.deps.Metrics.IncRuns("skipped")
		return &domain.RunReport{Skipped: true}, nil
	}
	defer func() {
		u.progress.Reset()
		u.running.Store(false)
	}()

	start := time.Now()
	report, err := u.run(ctx)
	if report == nil {
		report = &domain.RunReport{}
	}
	report.Duration = time.Since(start)

	status := "success"
	if err != nil {
		status = "failure"
	}
	u.deps.Metrics.IncRuns(status)
	u.deps.Metrics.ObserveRunDuration(report.Duration.Seconds())

	u.logger.Info("update run finished",
		"status", status,
		"targets", report.Targets,
		"installed", report.Installed,
		"up_to_date", report.UpToDate,
		"missing", report.Missing,
		"failed", report.Failed,
		"duration", report.Duration)
	return report, err
}

func (u *Updater) run(ctx context.Context) (*domain.RunReport, error) {
	if err := u.deps.Storage.EnsureDirs(); err != nil {
		return nil, err
	}

	targets, claimed, err := u.buildTargets(ctx)
	if err != nil {
		return nil, err
	}
	defer u.claims.Release(claimed...)

	report := &domain.RunReport{Targets: len(targets)}
	u.progress.Start(len(targets))
	queue := &UpsertQueue{}

	var (
		mu       sync.Mutex
		firstErr error
	)
	record := func(t domain.UpdateTarget, outcome string) {
		mu.Lock()
		defer mu.Unlock()
		switch outcome {
		case outcomeInstalled:
			report.Installed++
		case outcomeUpToDate:
			report.UpToDate++
		case outcomeMissing:
			report.Missing++
		case outcomeFailed:
			report.Failed++
		}
		u.deps.Metrics.IncTargets(t.Kind.String(), outcome)
	}

	var g *errgroup.Group
	taskCtx := ctx
	if u.opts.KeepGoing {
		g = &errgroup.Group{}
	} else {
		g, taskCtx = errgroup.WithContext(ctx)
	}

	for _, t := range targets {
		g.Go(func() error {
			outcome, err := u.runTarget(taskCtx, t, queue)
			if err != nil {
				outcome = outcomeFailed
				u.logger.Error("update target failed", "kind", t.Kind, "target", t.Key(), "error", err)
			} else {
				u.progress.Increment()
				u.logger.Debug("update target done", "kind", t.Kind, "target", t.Key(), "outcome", outcome)
			}
			record(t, outcome)

			if err == nil {
				return nil
			}
			err = fmt.Errorf("%s %s: %w", t.Kind, t.Key(), err)
			if u.opts.KeepGoing {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			return err
		})
	}

	runErr := g.Wait()
	if runErr == nil {
		runErr = firstErr
	}

	if err := u.persist(ctx, queue, report); err != nil {
		if runErr == nil {
			return report, err
		}
		u.logger.Error("persist after failed run", "error", err)
	}
	return report, runErr
}

// persist applies the queued upserts in one short transaction. Each upsert
// finds the current record inside that transaction, so writes committed by
// others during the run are kept. Cancellation is ignored so results of
// finished targets are not lost.
func (u *Updater) persist(ctx context.Context, queue *UpsertQueue, report *domain.RunReport) error {
	tx, err := u.deps.Catalog.BeginTx(context.WithoutCancel(ctx))
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	writer := NewCatalogWriter(tx)
	defer writer.Rollback()

	failed := queue.Apply(NewReconciler(writer, u.logger))
	for _, err := range failed {
		u.logger.Error("failed to record plugin", "error", err)
	}
	report.Installed -= len(failed)
	report.Failed += len(failed)

	if err := writer.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to record %d plugins: %w", len(failed), errors.Join(failed...))
	}
	return nil
}

// buildTargets lists the work of one run from the committed catalog.
// External identifiers held by another writer are skipped.
func (u *Updater) buildTargets(ctx context.Context) ([]domain.UpdateTarget, []string, error) {
	targets := []domain.UpdateTarget{domain.MainScriptTarget(u.mainScriptVersion())}

	internal, err := u.deps.Catalog.List(ctx, domain.Filter{Internal: domain.BoolPtr(true)})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build targets: %w", err)
	}
	versions := make(map[string]string, len(internal))
	for _, p := range internal {
		versions[p.Filename] = p.Version
	}
	for _, filename := range u.opts.InternalPlugins {
		targets = append(targets, domain.InternalTarget(filename, versions[filename]))
	}

	if !u.deps.Folder.Configured() {
		return targets, nil, nil
	}
	external, err := u.deps.Catalog.List(ctx, domain.Filter{Internal: domain.BoolPtr(false)})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build targets: %w", err)
	}

	var claimed []string
	for _, p := range external {
		t, ok := domain.ExternalTarget(p, u.deps.Folder.PluginPath(p.Filename))
		if !ok {
			continue
		}
		if !u.claims.TryClaim(t.Identifier) {
			u.logger.Debug("external plugin busy, skipping", "id", t.Identifier)
			continue
		}
		claimed = append(claimed, t.Identifier)
		targets = append(targets, t)
	}
	return targets, claimed, nil
}

// mainScriptVersion reads the version of the installed main script. Any
// failure means the version is unknown.
func (u *Updater) mainScriptVersion() string {
	content, err := u.deps.Storage.ReadMainScript()
	if err != nil {
		return ""
	}
	meta, err := domain.ParseMainScript(string(content))
	if err != nil {
		u.logger.Warn("installed main script unreadable", "error", err)
		return ""
	}
	return meta.Version
}

func (u *Updater) runTarget(ctx context.Context, t domain.UpdateTarget, queue *UpsertQueue) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch t.Kind {
	case domain.TargetMainScript:
		return u.updateMainScript(ctx, t)
	case domain.TargetInternalPlugin:
		return u.updateInternal(ctx, t, queue)
	case domain.TargetExternalPlugin:
		return u.updateExternal(ctx, t, queue)
	default:
		return "", fmt.Errorf("unknown target kind %d", t.Kind)
	}
}

func (u *Updater) updateMainScript(ctx context.Context, t domain.UpdateTarget) (string, error) {
	remote := u.opts.Remote
	if !u.checker.HasUpdate(ctx, remote.MainScriptProbeURL(), t.CurrentVersion) {
		return outcomeUpToDate, nil
	}

	validate := func(content []byte) error {
		_, err := domain.ParseMainScript(string(content))
		return err
	}
	if _, err := u.deps.Installer.Install(ctx, remote.MainScriptURL(), u.deps.Storage.MainScriptPath(), validate, ports.InstallOptions{}); err != nil {
		return "", err
	}
	return outcomeInstalled, nil
}

func (u *Updater) updateInternal(ctx context.Context, t domain.UpdateTarget, queue *UpsertQueue) (string, error) {
	remote := u.opts.Remote
	if !u.checker.HasUpdate(ctx, remote.PluginProbeURL(t.Filename), t.CurrentVersion) {
		return outcomeUpToDate, nil
	}

	var meta domain.PluginMetadata
	validate := pluginValidator(&meta)
	if _, err := u.deps.Installer.Install(ctx, remote.PluginURL(t.Filename), u.deps.Storage.PluginPath(t.Filename), validate, ports.InstallOptions{}); err != nil {
		return "", err
	}
	queue.Add(domain.PartitionInternal, t.Filename, t.Filename, meta)
	return outcomeInstalled, nil
}

func (u *Updater) updateExternal(ctx context.Context, t domain.UpdateTarget, queue *UpsertQueue) (string, error) {
	_, release, err := u.deps.Folder.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	if t.UpdateURL != "" && !u.checker.HasUpdate(ctx, t.UpdateURL, t.CurrentVersion) {
		return outcomeUpToDate, nil
	}

	var meta domain.PluginMetadata
	validate := pluginValidator(&meta)
	res, err := u.deps.Installer.Install(ctx, t.DownloadURL, t.DestinationPath, validate, ports.InstallOptions{RequireExisting: true})
	if err != nil {
		return "", err
	}
	if res.Skipped {
		return outcomeMissing, nil
	}
	queue.Add(domain.PartitionExternal, t.Identifier, t.Filename, meta)
	return outcomeInstalled, nil
}

// ErrNotPlugin is returned when a script header lacks the plugin keys
var ErrNotPlugin = errors.New("script is not an IITC plugin")

// pluginValidator returns a ValidateFunc that accepts plugin-eligible content
// and stores the decoded metadata in meta
func pluginValidator(meta *domain.PluginMetadata) ports.ValidateFunc {
	return func(content []byte) error {
		h, err := domain.ParseHeader(string(content))
		if err != nil {
			return err
		}
		if !h.PluginEligible() {
			return ErrNotPlugin
		}
		m, err := domain.DecodePlugin(h)
		if err != nil {
			return err
		}
		*meta = m
		return nil
	}
}
