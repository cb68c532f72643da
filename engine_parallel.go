package pysubclasses

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jward/pysubclasses/internal/pyfacts"
	"github.com/jward/pysubclasses/internal/store"
)

// extractAll runs cached fact extraction over the discovered paths:
//
//	Phase A (serial):   paths arrive sorted from discovery.
//	Phase B (parallel): per-file read, fingerprint, cache lookup or extract.
//	Phase C (serial):   merge results in path order.
//
// Workers share nothing mutable except the results slice, where each worker
// owns exactly one index, and the stats/diagnostics accumulators behind a
// mutex. Cache rows are per-file, so concurrent store access touches
// distinct rows.
func (e *Engine) extractAll(ctx context.Context, paths []string) ([]*pyfacts.FileFacts, error) {
	e.parseErrors = nil
	e.cacheStats = CacheStats{}

	results := make([]*pyfacts.FileFacts, len(paths))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, relPath := range paths {
		i, relPath := i, relPath
		g.Go(func() error {
			facts, hit, perr := e.extractOne(ctx, relPath)
			mu.Lock()
			defer mu.Unlock()
			if hit {
				e.cacheStats.Hits++
			} else if facts != nil || perr != nil {
				e.cacheStats.Misses++
			}
			if perr != nil {
				e.parseErrors = append(e.parseErrors, perr)
			}
			results[i] = facts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(e.parseErrors, func(i, j int) bool {
		return e.parseErrors[i].FilePath < e.parseErrors[j].FilePath
	})

	merged := make([]*pyfacts.FileFacts, 0, len(results))
	for _, facts := range results {
		if facts != nil {
			merged = append(merged, facts)
		}
	}
	return merged, nil
}

// extractOne produces the facts for a single file, serving from the cache
// when the content fingerprint matches. Unreadable and unparsable files
// yield a ParseError diagnostic; partial facts from an unparsable file are
// still used but never cached, so the diagnostic recurs until the file is
// fixed.
func (e *Engine) extractOne(ctx context.Context, relPath string) (*pyfacts.FileFacts, bool, *pyfacts.ParseError) {
	module, isPackage, ok := pyfacts.ModulePath(relPath)
	if !ok {
		return nil, false, nil
	}

	content, err := os.ReadFile(filepath.Join(e.root, relPath))
	if err != nil {
		return nil, false, &pyfacts.ParseError{FilePath: relPath, Message: err.Error()}
	}
	fingerprint := store.Fingerprint(content)

	if facts, hit := e.store.Lookup(relPath, fingerprint); hit {
		return facts, true, nil
	}

	facts, err := pyfacts.Extract(ctx, content, relPath, module, isPackage)
	if err != nil {
		var perr *pyfacts.ParseError
		if errors.As(err, &perr) {
			return facts, false, perr
		}
		return facts, false, &pyfacts.ParseError{FilePath: relPath, Message: err.Error()}
	}

	if putErr := e.store.Put(relPath, fingerprint, facts); putErr != nil {
		e.log.Warn("cache write failed", "path", relPath, "error", putErr)
	}
	return facts, false, nil
}
