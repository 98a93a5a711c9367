// Package driver fans the checker out over many files. Each file gets
// its own parse and its own analysis; the shared catalog is immutable,
// so workers never touch common mutable state.
package driver

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"lockwalk/pkg/analyzer"
	"lockwalk/pkg/cc/parser"
	"lockwalk/pkg/cc/prefilter"
)

// Result is the outcome of analyzing one file. Err is set when the
// file could not be read or parsed; Diags is the checker's findings
// otherwise.
type Result struct {
	File  string
	Diags []analyzer.Diagnostic
	Err   error
}

// Run analyzes the given files with up to jobs workers. Results come
// back in argument order regardless of completion order.
func Run(ctx context.Context, files []string, cat *analyzer.Catalog, jobs int) []Result {
	if jobs < 1 {
		jobs = 1
	}
	results := make([]Result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{File: path, Err: err}
				return nil
			}
			results[i] = checkOne(path, cat)
			return nil
		})
	}
	g.Wait()
	return results
}

func checkOne(path string, cat *analyzer.Catalog) Result {
	src, err := os.ReadFile(path)
	if err != nil {
		return Result{File: path, Err: err}
	}
	f, err := parser.ParseFile(path, prefilter.Filter(string(src)))
	if err != nil {
		return Result{File: path, Err: err}
	}
	diags := analyzer.New(cat).CheckFile(f)
	log.WithFields(log.Fields{
		"file":        path,
		"functions":   len(f.Funcs),
		"diagnostics": len(diags),
	}).Debug("checked")
	return Result{File: path, Diags: diags}
}
