// Package importer drives the conversion of a directory of assignment CSV
// files. Each file is processed on its own: a file that fails to parse or
// convert is reported and the remaining files still run.
package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"schedule-importer/errors"
	"schedule-importer/logger"
	"schedule-importer/metrics"
	"schedule-importer/models"
	"schedule-importer/parser"
	"schedule-importer/scheduler"
	"sort"
)

// Sink receives the converted schedules of one source file.
type Sink interface {
	Write(ctx context.Context, name string, levels []models.LevelVariants) error
}

// FileResult is the outcome of importing one file.
type FileResult struct {
	Path    string
	Name    string
	Levels  []models.LevelVariants
	Skipped []models.SkippedRow
	Err     error
}

// Report collects the results of a run in input order.
type Report struct {
	Files []FileResult
}

// Failed returns the results whose processing was aborted.
func (r *Report) Failed() []FileResult {
	var failed []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}

// Importer converts files and hands the results to its sinks.
type Importer struct {
	Logger logger.Logger
	Sinks  []Sink
}

// New returns an Importer writing to the given sinks.
func New(log logger.Logger, sinks ...Sink) *Importer {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Importer{Logger: log, Sinks: sinks}
}

// Discover returns the files in dir matching pattern, sorted by name.
func Discover(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

var namePattern = regexp.MustCompile(`^(.*?)(\.[^.]*)?$`)

// ScheduleName derives the base schedule name from a file path by dropping
// the directory and the last extension.
func ScheduleName(path string) string {
	base := filepath.Base(path)
	m := namePattern.FindStringSubmatch(base)
	if m == nil || m[1] == "" {
		return base
	}
	return m[1]
}

// Run imports files sequentially. It stops early only when ctx is cancelled.
func (im *Importer) Run(ctx context.Context, files []string) *Report {
	report := &Report{Files: make([]FileResult, 0, len(files))}
	for _, path := range files {
		if ctx.Err() != nil {
			im.Logger.Warnf("import cancelled before %s", path)
			break
		}
		res := im.importFile(ctx, path)
		if res.Err != nil {
			metrics.ImporterFilesTotal.WithLabelValues("failed").Inc()
			im.Logger.Errorf("import %s failed: %v", path, res.Err)
		} else {
			metrics.ImporterFilesTotal.WithLabelValues("ok").Inc()
			im.Logger.Infof("imported %s as %q: %d level(s)", path, res.Name, len(res.Levels))
		}
		report.Files = append(report.Files, res)
	}
	return report
}

func (im *Importer) importFile(ctx context.Context, path string) FileResult {
	res := FileResult{Path: path, Name: ScheduleName(path)}
	fail := func(err error) FileResult {
		res.Err = &errors.FileError{Path: path, Err: err}
		return res
	}

	f, err := os.Open(path)
	if err != nil {
		return fail(err)
	}
	defer f.Close()

	parsed, err := parser.Parse(f)
	if err != nil {
		return fail(err)
	}
	res.Skipped = parsed.Skipped
	for _, s := range parsed.Skipped {
		im.Logger.Warnw(errors.ErrInvalidDayOfWeek.Error(), map[string]any{
			"file":        path,
			"line":        s.Line,
			"assignee":    s.AssigneeID,
			"day_of_week": s.Value,
		})
	}

	levels, err := scheduler.Build(res.Name, parsed.Days)
	if err != nil {
		return fail(err)
	}
	res.Levels = levels
	im.Logger.Debugw("schedules built", map[string]any{
		"file":    path,
		"rows":    parsed.Rows(),
		"skipped": len(parsed.Skipped),
		"levels":  len(levels),
	})

	for _, sink := range im.Sinks {
		if err := sink.Write(ctx, res.Name, levels); err != nil {
			return fail(fmt.Errorf("write output: %w", err))
		}
	}
	return res
}
