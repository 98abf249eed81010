package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"qir/internal/diag"
	"qir/internal/source"
	"qir/internal/trace"
)

// Ext is the extension of textual IR files.
const Ext = ".qir"

// ListFiles returns every .qir file under dir, sorted.
func ListFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, Ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// AnalyzeDir analyzes every .qir file under dir in parallel. All files share
// one FileSet, loaded up front; each file gets its own analysis state.
func AnalyzeDir(ctx context.Context, dir string, opts Options) (*source.FileSet, []*Result, error) {
	files, err := ListFiles(dir)
	if err != nil {
		return nil, nil, err
	}
	fileSet := source.NewFileSetWithBase(dir)
	if len(files) == 0 {
		return fileSet, nil, nil
	}

	fileIDs := make(map[string]source.FileID, len(files))
	loadErrors := make(map[string]error, len(files))
	for _, path := range files {
		id, err := fileSet.Load(path)
		if err != nil {
			// An empty placeholder gives the diagnostic a file to point at.
			id = fileSet.AddVirtual(path, nil)
			loadErrors[path] = err
		}
		fileIDs[path] = id
		opts.emit(path, StageQueued, StatusQueued)
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "dir", trace.ParentFromContext(ctx)).
		WithExtra("path", dir)
	defer span.End("")
	ctx = trace.WithParent(ctx, span)

	// Each goroutine writes only its own index.
	results := make([]*Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if loadErr, failed := loadErrors[path]; failed {
				bag := diag.NewBag(opts.maxDiagnostics())
				bag.Add(&diag.Diagnostic{
					Severity: diag.SevError,
					Code:     diag.IOLoadFileError,
					Message:  "failed to load file: " + loadErr.Error(),
					Primary:  source.Span{File: fileIDs[path]},
				})
				results[i] = &Result{Path: path, FileID: fileIDs[path], Bag: bag}
				results[i].Summary.Path = path
				results[i].Summary.Errors = 1
				opts.emit(path, StageQueued, StatusError)
				return nil
			}
			res, err := Analyze(gctx, fileSet, fileIDs[path], opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}
