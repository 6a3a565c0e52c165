package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"logreader/internal/config"
	"logreader/internal/logging"
	"logreader/internal/resolver"
	"logreader/internal/search"
	"logreader/internal/store"
)

// app is the wiring shared by every command.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	searcher *search.Searcher
	// resolver is nil when neither the service nor the cache is usable.
	resolver resolver.Resolver
	// store is nil when the cache is disabled or could not be opened.
	store    *store.SQLiteStore
	closeLog func() error
}

// newApp loads configuration, applies the persistent flags and opens the
// cache. Logs go to logOut unless a log file is configured; a nil logOut
// discards them.
func newApp(logOut io.Writer) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg)

	log, closeLog, err := logging.New(cfg.Log, logOut)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		closeLog: closeLog,
		searcher: search.New(search.OptionsFrom(cfg.Search), search.WithLogger(log)),
	}

	if cfg.Cache.Enabled && cfg.Cache.Path != "" {
		st, err := store.Open(cfg.Cache.Path)
		if err != nil {
			log.Warn("cache disabled", zap.String("path", cfg.Cache.Path), zap.Error(err))
		} else {
			a.store = st
		}
	}

	a.resolver = a.buildResolver()
	return a, nil
}

func applyFlags(cfg *config.Config) {
	if len(flagPaths) > 0 {
		cfg.Search.Roots = append([]string(nil), flagPaths...)
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagLogFile != "" {
		cfg.Log.File = flagLogFile
	}
}

// buildResolver wraps the HTTP resolver with the cache. Without an
// endpoint the cache alone still answers for known serial numbers.
func (a *app) buildResolver() resolver.Resolver {
	var next resolver.Resolver
	httpRes, err := resolver.FromConfig(a.cfg.Resolver)
	if err != nil {
		a.log.Info("product resolver unavailable", zap.Error(err))
		if a.store == nil {
			return nil
		}
		next = resolver.Func(func(context.Context, string) (string, error) { return "", err })
	} else {
		a.log.Debug("product resolver", zap.String("url", httpRes.URL()))
		next = httpRes
	}

	if a.store == nil {
		return next
	}
	return resolver.NewCached(next, a.store, a.cfg.Cache.TTL, a.log)
}

// productCode returns --pn when given, otherwise the resolved code.
func (a *app) productCode(ctx context.Context, sn string) (string, error) {
	if pn := strings.TrimSpace(flagPN); pn != "" {
		return pn, nil
	}
	if a.resolver == nil {
		return "", fmt.Errorf("%w: pass --pn or configure resolver.url", resolver.ErrUnavailable)
	}
	pn, err := a.resolver.Resolve(ctx, sn)
	if err != nil {
		return "", fmt.Errorf("resolve product code for %s: %w", sn, err)
	}
	return pn, nil
}

// recordSearch appends to the history when the cache is open.
func (a *app) recordSearch(sn, pn string, results int) {
	if a.store == nil {
		return
	}
	if err := a.store.RecordSearch(sn, pn, results); err != nil {
		a.log.Warn("record search failed", zap.String("sn", sn), zap.Error(err))
	}
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
	a.closeLog()
}
