// Package pdfgen turns rendered receipt HTML into PDF files via the
// wkhtmltopdf binary.
package pdfgen

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Options describes the engine binary and page geometry for a receipt-tape
// style document.
type Options struct {
	Bin        string // wkhtmltopdf executable, looked up on PATH if bare
	PageWidth  string // e.g. "80mm"
	PageHeight string // e.g. "200mm"
	Margin     string // uniform margin, e.g. "5mm"
}

// Converter writes PDFs into a media directory under collision-free names.
type Converter struct {
	mediaDir string
	opts     Options
	runner   Runner
}

// NewConverter builds a Converter. A nil runner selects the real engine;
// tests pass a stub.
func NewConverter(mediaDir string, opts Options, r Runner) *Converter {
	if r == nil {
		r = execRunner{}
	}
	return &Converter{mediaDir: mediaDir, opts: opts, runner: r}
}

// Stamp formats a generation time the way artifact names embed it.
func Stamp(t time.Time) string {
	return t.Format("02_01_2006_15_04")
}

// reserve claims the next free check_<stamp>_<n>.pdf name with an exclusive
// create, so two requests in the same minute can never pick the same name.
func (c *Converter) reserve(stamp string) (string, error) {
	for n := 1; ; n++ {
		name := fmt.Sprintf("check_%s_%d.pdf", stamp, n)
		f, err := os.OpenFile(filepath.Join(c.mediaDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			f.Close()
			return name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("reserve artifact name: %w", err)
		}
	}
}

// Convert renders html to a PDF named after generatedAt and returns the file
// name within the media directory. On engine failure the reserved file is
// removed and the error returned; nothing is retried.
func (c *Converter) Convert(ctx context.Context, html []byte, generatedAt time.Time) (string, error) {
	if err := os.MkdirAll(c.mediaDir, 0755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	name, err := c.reserve(Stamp(generatedAt))
	if err != nil {
		return "", err
	}
	out := filepath.Join(c.mediaDir, name)

	args := []string{
		"-q",
		"--page-width", c.opts.PageWidth,
		"--page-height", c.opts.PageHeight,
		"-T", c.opts.Margin,
		"-B", c.opts.Margin,
		"-L", c.opts.Margin,
		"-R", c.opts.Margin,
		"-", // HTML on stdin
		out,
	}
	if _, stderr, err := c.runner.Run(ctx, html, c.opts.Bin, args...); err != nil {
		_ = os.Remove(out)
		return "", fmt.Errorf("wkhtmltopdf: %w: %s", err, truncate(strings.TrimSpace(string(stderr)), 512))
	}
	return name, nil
}
