package formatter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"schedule-importer/errors"
	"schedule-importer/models"
)

var extensions = map[string]string{
	FormatNameText: ".txt",
	FormatNameJSON: ".json",
	FormatNameCSV:  ".csv",
	FormatNameYAML: ".yaml",
}

// Writer renders converted schedules either to Out or, when Dir is set, to
// one "<name>.<ext>" file per source inside Dir.
type Writer struct {
	Format string
	Dir    string
	Out    io.Writer

	sources map[string]struct{}
}

// NewWriter validates the format and prepares the output directory.
func NewWriter(format, dir string, out io.Writer) (*Writer, error) {
	if !Valid(format) {
		return nil, fmt.Errorf("format must be one of %v (got: %s)", Names(), format)
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	return &Writer{Format: format, Dir: dir, Out: out}, nil
}

// Protect marks paths the writer must never replace, typically the input
// files of the current run.
func (w *Writer) Protect(paths ...string) {
	if w.sources == nil {
		w.sources = make(map[string]struct{}, len(paths))
	}
	for _, p := range paths {
		w.sources[cleanPath(p)] = struct{}{}
	}
}

func cleanPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// Write renders the schedules of one source.
func (w *Writer) Write(_ context.Context, name string, levels []models.LevelVariants) error {
	out, err := Format(w.Format, levels)
	if err != nil {
		return err
	}
	if w.Dir == "" {
		_, err := io.WriteString(w.Out, out)
		return err
	}
	path := filepath.Join(w.Dir, name+extensions[w.Format])
	if _, ok := w.sources[cleanPath(path)]; ok {
		return fmt.Errorf("%w: %s", errors.ErrOverwriteSource, path)
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
