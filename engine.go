package pysubclasses

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/jward/pysubclasses/internal/graph"
	"github.com/jward/pysubclasses/internal/pyfacts"
	"github.com/jward/pysubclasses/internal/registry"
	"github.com/jward/pysubclasses/internal/store"
)

// Engine orchestrates the pipeline: file discovery, cached fact extraction,
// registry merge, and inheritance graph construction. Build one with New,
// run Analyze once, then query.
type Engine struct {
	root         string
	log          *slog.Logger
	workers      int
	cacheEnabled bool
	cachePath    string

	excludePatterns []string
	excludes        []glob.Glob

	store *store.Store

	registry    *registry.Registry
	graph       *graph.Graph
	parseErrors []*pyfacts.ParseError
	cacheStats  CacheStats
}

// Option configures an Engine.
type Option func(*Engine)

// WithExcludes adds glob patterns for paths to skip, matched against
// slash-separated paths relative to the root.
func WithExcludes(patterns ...string) Option {
	return func(e *Engine) {
		e.excludePatterns = append(e.excludePatterns, patterns...)
	}
}

// WithCache toggles the extraction cache. Enabled by default.
func WithCache(enabled bool) Option {
	return func(e *Engine) {
		e.cacheEnabled = enabled
	}
}

// WithCachePath overrides the cache database location. The default is
// .pysubclasses.cache.db under the analysis root.
func WithCachePath(path string) Option {
	return func(e *Engine) {
		e.cachePath = path
	}
}

// WithWorkers caps the extraction worker pool. The default is NumCPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the diagnostics logger. The default is slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// New creates an Engine rooted at rootDir. Settings from the root's
// optional .pysubclasses.toml apply first; Options override them. An
// unreadable root or an invalid exclude pattern fails construction.
func New(rootDir string, opts ...Option) (*Engine, error) {
	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, fmt.Errorf("reading root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("reading root directory: %s is not a directory", rootDir)
	}

	e := &Engine{
		root:         rootDir,
		log:          slog.Default(),
		workers:      runtime.NumCPU(),
		cacheEnabled: true,
		cachePath:    filepath.Join(rootDir, ".pysubclasses.cache.db"),
	}

	cfg, err := loadConfig(rootDir)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		e.excludePatterns = append(e.excludePatterns, cfg.Exclude...)
		if cfg.Cache != nil {
			e.cacheEnabled = *cfg.Cache
		}
		if cfg.Workers > 0 {
			e.workers = cfg.Workers
		}
	}

	for _, opt := range opts {
		opt(e)
	}

	for _, pattern := range e.excludePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		e.excludes = append(e.excludes, g)
	}

	if e.cacheEnabled {
		s, err := store.Open(e.cachePath, e.log)
		if err != nil {
			// The cache is an optimization; run without it.
			e.log.Warn("cache unavailable, continuing without it", "path", e.cachePath, "error", err)
		} else {
			e.store = s
		}
	}
	return e, nil
}

// Close releases the Engine's cache resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Analyze runs the full pipeline: discover .py files, extract facts (served
// from the cache where fingerprints match), merge them into the registry,
// and build the inheritance graph. Per-file parse failures are collected,
// not fatal; see ParseErrors.
func (e *Engine) Analyze(ctx context.Context) error {
	paths, err := e.discover()
	if err != nil {
		return err
	}

	allFacts, err := e.extractAll(ctx, paths)
	if err != nil {
		return err
	}
	e.log.Debug("extraction complete",
		"files", len(paths),
		"cache_hits", e.cacheStats.Hits,
		"cache_misses", e.cacheStats.Misses)

	reg, err := registry.Build(allFacts)
	if err != nil {
		return err
	}
	e.registry = reg
	e.graph = graph.Build(reg)
	return nil
}

// skipDirs are directory names never worth descending into.
var skipDirs = map[string]bool{
	"__pycache__":  true,
	"node_modules": true,
	"venv":         true,
	".venv":        true,
	"env":          true,
}

// discover walks the root collecting .py files as sorted root-relative
// slash paths. Hidden files and directories, well-known junk directories,
// and paths matching an exclude pattern are skipped. A walk error on the root itself
// is fatal; everything under it that can be read is analyzed.
func (e *Engine) discover() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(e.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == e.root {
				return err
			}
			e.log.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(e.root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] || e.excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !strings.HasSuffix(rel, ".py") || e.excluded(rel) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", e.root, err)
	}
	paths = e.dropShadowedModules(paths)
	sort.Strings(paths)
	return paths, nil
}

// dropShadowedModules removes module files shadowed by a same-named package
// (pkg.py next to pkg/__init__.py). Python's import system prefers the
// package, and analyzing both would make two files claim one module path.
func (e *Engine) dropShadowedModules(paths []string) []string {
	packages := make(map[string]bool)
	for _, p := range paths {
		if dir, ok := strings.CutSuffix(p, "/__init__.py"); ok {
			packages[dir] = true
		}
	}
	if len(packages) == 0 {
		return paths
	}

	kept := paths[:0]
	for _, p := range paths {
		if base, ok := strings.CutSuffix(p, ".py"); ok && packages[base] {
			e.log.Warn("module shadowed by same-named package, skipping", "path", p)
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func (e *Engine) excluded(rel string) bool {
	for _, g := range e.excludes {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// ParseErrors returns the per-file extraction failures from the last
// Analyze, sorted by file path.
func (e *Engine) ParseErrors() []*ParseError {
	out := make([]*ParseError, len(e.parseErrors))
	copy(out, e.parseErrors)
	return out
}

// CacheStats returns cache hit/miss counts from the last Analyze.
func (e *Engine) CacheStats() CacheStats {
	return e.cacheStats
}
