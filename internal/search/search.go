// Package search finds the log files recorded for a serial number across a
// set of archive roots.
//
// Each root holds one directory per product code. Under it, period
// directories appear either nested (YYYY/MM) or flat (YYYYMM). A period is
// considered only when one of its index files mentions the serial number;
// its matching log files are then listed from the period directory and its
// DEBUG subdirectory, deduplicated, tagged and paired with index lines.
//
// The search only reads the filesystem. Faults on individual files and
// directories are logged at debug level and otherwise ignored.
package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"logreader/internal/config"
	"logreader/internal/index"
	"logreader/internal/walker"
)

var (
	// ErrMissingQuery is returned when the product code or serial number is empty.
	ErrMissingQuery = errors.New("product code and serial number are required")
	// ErrInvalidProduct is returned for product codes that are not a single path element.
	ErrInvalidProduct = errors.New("invalid product code")
)

// Options are the matching constants of the archive layout.
type Options struct {
	// IndexExtension is the extension of <PN>.<ext> index files.
	IndexExtension string
	// ExcludeMarkers are case-sensitive substrings that disqualify a file name.
	ExcludeMarkers []string
	// DebugMarker is the path segment identifying a debug-build tree.
	DebugMarker string
	// DebugDir is the per-period subdirectory holding most logs.
	DebugDir string
}

// DefaultOptions returns the layout used by the production archive.
func DefaultOptions() Options {
	return OptionsFrom(config.Default().Search)
}

// OptionsFrom converts the search section of the configuration.
func OptionsFrom(c config.SearchConfig) Options {
	return Options{
		IndexExtension: c.IndexExtension,
		ExcludeMarkers: append([]string(nil), c.ExcludeMarkers...),
		DebugMarker:    c.DebugMarker,
		DebugDir:       c.DebugDir,
	}
}

// Searcher runs searches with a fixed set of options.
type Searcher struct {
	opts Options
	log  *zap.Logger
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithLogger sets the logger used for absorbed faults and summaries.
func WithLogger(l *zap.Logger) Option {
	return func(s *Searcher) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a Searcher.
func New(opts Options, options ...Option) *Searcher {
	s := &Searcher{opts: opts, log: zap.NewNop()}
	for _, o := range options {
		o(s)
	}
	return s
}

// Options returns the searcher's options.
func (s *Searcher) Options() Options { return s.opts }

// Search returns the candidates for sn under every root's product directory
// in traversal order. Roots without a pn directory contribute nothing. The
// only error besides invalid input is ctx's, returned together with the
// candidates collected before cancellation.
func (s *Searcher) Search(ctx context.Context, roots []string, pn, sn string) ([]Candidate, error) {
	pn = strings.TrimSpace(pn)
	sn = strings.TrimSpace(sn)
	if pn == "" || sn == "" {
		return nil, ErrMissingQuery
	}
	if pn == "." || pn == ".." || strings.ContainsAny(pn, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProduct, pn)
	}

	var out []Candidate
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		found, err := s.searchRoot(ctx, root, pn, sn)
		out = append(out, found...)
		if err != nil {
			return out, err
		}
	}

	s.log.Debug("search finished",
		zap.String("pn", pn),
		zap.String("sn", sn),
		zap.Int("roots", len(roots)),
		zap.Int("candidates", len(out)))
	return out, nil
}

func (s *Searcher) searchRoot(ctx context.Context, root, pn, sn string) ([]Candidate, error) {
	productDir, err := filepath.Abs(filepath.Join(root, pn))
	if err != nil {
		s.absorb(root, err)
		return nil, nil
	}
	info, err := os.Stat(productDir)
	if err != nil || !info.IsDir() {
		s.log.Debug("no product directory", zap.String("path", productDir))
		return nil, nil
	}

	var out []Candidate
	for _, period := range walker.Periods(productDir, s.absorb) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out = append(out, s.SearchPeriod(period, pn, sn)...)
	}
	return out, nil
}

// SearchPeriod returns the candidates of a single period directory, sorted
// oldest first with descriptions attached. It returns nothing when no index
// line in the period mentions sn.
func (s *Searcher) SearchPeriod(period, pn, sn string) []Candidate {
	descs := index.Scan(period, pn, sn, s.opts.IndexExtension, s.absorb)
	if len(descs) == 0 {
		return nil
	}

	debug := walker.ListCandidates(filepath.Join(period, s.opts.DebugDir), sn, s.opts.ExcludeMarkers, s.absorb)
	top := walker.ListCandidates(period, sn, s.opts.ExcludeMarkers, s.absorb)

	cands := mergePeriod(period, debug, top)
	tags := Tags(period, s.opts.DebugMarker)
	for i := range cands {
		cands[i].Tags = append([]string(nil), tags...)
	}
	Correlate(cands, descs)

	s.log.Debug("period scanned",
		zap.String("period", period),
		zap.Int("descriptions", len(descs)),
		zap.Int("candidates", len(cands)))
	return cands
}

func (s *Searcher) absorb(path string, err error) {
	s.log.Debug("skipping unreadable path", zap.String("path", path), zap.Error(err))
}
