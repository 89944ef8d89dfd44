// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/slscore/slscore/lib/diag"
	"github.com/slscore/slscore/lib/dlc"
	"github.com/slscore/slscore/lib/filewatch"
	"github.com/slscore/slscore/lib/policy"
	"github.com/slscore/slscore/lib/settings"
	"github.com/slscore/slscore/lib/ticket"
)

// ErrBlocked is returned by [Engine.EncryptedTicket] when
// BlockEncryptedAppTickets is set.
var ErrBlocked = errors.New("encrypted app tickets are blocked by configuration")

// Options configures an engine.
type Options struct {
	// ConfigPath is the configuration document. Required.
	ConfigPath string

	// CacheDir is the ticket cache directory. Required.
	CacheDir string

	// Logger receives every diagnostic. Defaults to a discarding
	// logger.
	Logger *slog.Logger

	// Level is the LevelVar behind Logger. Reloads set it from the
	// LogLevel key. Optional; without it verbosity is left alone.
	Level *slog.LevelVar

	// Registerer receives the engine's metrics. Defaults to a private
	// registry, so several engines can coexist in one process.
	Registerer prometheus.Registerer

	// OnReload is called after every load, including the first, with
	// the load's report. Called on the reloading goroutine.
	OnReload func(*settings.Report)
}

// Engine is the assembled decision and ticket engine. Safe for
// concurrent use.
type Engine struct {
	configPath string
	logger     *slog.Logger
	level      *slog.LevelVar
	onReload   func(*settings.Report)
	metrics    *metrics

	once      *diag.Once
	store     *settings.Store
	evaluator *policy.Evaluator
	resolver  *dlc.Resolver
	cache     *ticket.Cache

	// reloadMu serializes reloads so reports and the level are applied
	// in the order snapshots are published.
	reloadMu sync.Mutex

	mu      sync.Mutex
	watcher *filewatch.Watcher
	digests map[uint32]ticket.Digest
}

// New assembles an engine and performs the first load.
func New(options Options) (*Engine, error) {
	if options.ConfigPath == "" {
		return nil, errors.New("engine: ConfigPath is required")
	}
	if options.CacheDir == "" {
		return nil, errors.New("engine: CacheDir is required")
	}
	logger := options.Logger
	if logger == nil {
		logger = diag.Discard()
	}
	registerer := options.Registerer
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	m, err := newMetrics(registerer)
	if err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	once := diag.NewOnce(logger)
	store := settings.NewStore(nil)
	evaluator := policy.New(store, once)
	engine := &Engine{
		configPath: options.ConfigPath,
		logger:     logger,
		level:      options.Level,
		onReload:   options.OnReload,
		metrics:    m,
		once:       once,
		store:      store,
		evaluator:  evaluator,
		resolver:   dlc.New(evaluator),
		cache:      ticket.New(options.CacheDir, logger, once),
		digests:    make(map[uint32]ticket.Digest),
	}
	engine.Reload()
	return engine, nil
}

// Reload reads the configuration file, publishes the resulting
// snapshot and returns the load report. Never fails: an unusable file
// yields the default snapshot.
func (engine *Engine) Reload() *settings.Report {
	engine.reloadMu.Lock()
	defer engine.reloadMu.Unlock()

	snapshot, report := settings.LoadFile(engine.configPath)
	engine.applyLevel(snapshot)
	engine.store.Replace(snapshot)
	report.Log(engine.logger)
	engine.metrics.observeReport(report)
	engine.logger.Debug("configuration loaded",
		"path", engine.configPath,
		"fallbacks", len(report.Fallbacks()),
	)
	if engine.onReload != nil {
		engine.onReload(report)
	}
	return report
}

// applyLevel maps LogLevel onto the shared LevelVar. ExtendedLogging
// lowers the threshold to DEBUG regardless of LogLevel.
func (engine *Engine) applyLevel(snapshot *settings.Settings) {
	if engine.level == nil {
		return
	}
	level := diag.LevelFromVerbosity(snapshot.LogLevel)
	if snapshot.ExtendedLogging && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	engine.level.Set(level)
}

// Start watches the configuration file and reloads on every change.
// Calling Start on a started engine is a no-op.
func (engine *Engine) Start() error {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.watcher != nil {
		return nil
	}

	watcher, err := filewatch.Watch(engine.configPath, func() { engine.Reload() }, engine.logger)
	if err != nil {
		return fmt.Errorf("watching %s: %w", engine.configPath, err)
	}
	engine.watcher = watcher

	if engine.store.Load().NotifyInit {
		engine.logger.Log(context.Background(), diag.LevelNotify, "slscore loaded",
			"config", engine.configPath,
			"cache", engine.cache.Dir(),
		)
	}
	return nil
}

// Close stops the watcher, if any, and waits for an in-flight reload
// to finish.
func (engine *Engine) Close() {
	engine.mu.Lock()
	watcher := engine.watcher
	engine.watcher = nil
	engine.mu.Unlock()

	if watcher != nil {
		watcher.Stop()
	}
}

// ConfigPath returns the configuration file the engine loads.
func (engine *Engine) ConfigPath() string { return engine.configPath }

// Settings returns the current snapshot.
func (engine *Engine) Settings() *settings.Settings { return engine.store.Load() }

// Policy returns the evaluator.
func (engine *Engine) Policy() *policy.Evaluator { return engine.evaluator }

// DLC returns the DLC resolver.
func (engine *Engine) DLC() *dlc.Resolver { return engine.resolver }

// Cache returns the ticket cache.
func (engine *Engine) Cache() *ticket.Cache { return engine.cache }

// Decide evaluates appID and counts the decision.
func (engine *Engine) Decide(appID uint32) policy.Decision {
	decision := engine.evaluator.Decide(appID)
	engine.metrics.observeDecision(string(decision.Rule), decision.Exclude)
	return decision
}

// ShouldExclude is Decide(appID).Exclude.
func (engine *Engine) ShouldExclude(appID uint32) bool {
	return engine.Decide(appID).Exclude
}

// Force marks appID owned for the rest of the process lifetime.
func (engine *Engine) Force(appID uint32) bool {
	added := engine.evaluator.Force(appID)
	engine.metrics.forcedApps.Set(float64(len(engine.evaluator.Forced())))
	return added
}

// Ticket resolves the ticket to present for appID. See
// [ticket.Cache.ResolveIdentity]. A live ticket that differs from the
// last live ticket seen for the app in this process is counted, and
// reported when WarnHashMissmatch is set. Live resolution never reads
// the cache.
func (engine *Engine) Ticket(appID uint32, live []byte, offsets ticket.Offsets) (ticket.Identity, error) {
	identity, err := engine.cache.ResolveIdentity(appID, live, offsets)
	if err != nil {
		engine.metrics.ticketLookups.WithLabelValues(sourceNone).Inc()
		return identity, err
	}

	if identity.Spoofed {
		engine.metrics.ticketLookups.WithLabelValues(sourceCache).Inc()
		engine.logger.Debug("presenting cached ticket",
			"app_id", appID,
			"owner_id", identity.OwnerID,
			"digest", identity.Digest.Short(),
		)
		return identity, nil
	}

	engine.metrics.ticketLookups.WithLabelValues(sourceLive).Inc()
	engine.mu.Lock()
	previous, known := engine.digests[appID]
	engine.digests[appID] = identity.Digest
	engine.mu.Unlock()

	if known && previous != identity.Digest {
		engine.metrics.ticketMismatches.Inc()
		warn := settings.Value(engine.store, func(s *settings.Settings) bool { return s.WarnHashMismatch }, false)
		if warn {
			engine.logger.Warn("ticket changed",
				"app_id", appID,
				"previous", previous.Short(),
				"current", identity.Digest.Short(),
			)
		}
	}
	return identity, nil
}

// EncryptedTicket gates requests for encrypted app tickets. Returns
// ErrBlocked when BlockEncryptedAppTickets is set; otherwise resolves
// the ticket like [Engine.Ticket].
func (engine *Engine) EncryptedTicket(appID uint32, live []byte, offsets ticket.Offsets) (ticket.Identity, error) {
	blocked := settings.Value(engine.store, func(s *settings.Settings) bool { return s.BlockEncryptedAppTickets }, false)
	if blocked {
		engine.once.Info("blocked encrypted app ticket", "app_id", appID)
		return ticket.Identity{}, fmt.Errorf("app %d: %w", appID, ErrBlocked)
	}
	return engine.Ticket(appID, live, offsets)
}
