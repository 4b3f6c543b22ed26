// Package ocr recovers text from scanned pages by shelling out to poppler's
// pdftoppm and tesseract.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Pdftoppm  string // binary name or path, default "pdftoppm"
	Tesseract string // binary name or path, default "tesseract"
	Lang      string // tesseract language, default "fra"
	DPI       int    // rasterization resolution, default 300
	MaxPages  int    // 0 = no limit
	PSM       int    // page segmentation mode, default 6 (uniform block)
	OEM       int    // engine mode, default 3
}

// Runner executes an external command; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type Engine struct {
	cfg    Config
	runner Runner
	log    *slog.Logger
}

func New(cfg Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "fra"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 6
	}
	if cfg.OEM <= 0 {
		cfg.OEM = 3
	}
	return &Engine{cfg: cfg, runner: execRunner{log: log}, log: log}
}

// WithRunner replaces the command runner.
func (e *Engine) WithRunner(r Runner) *Engine {
	e.runner = r
	return e
}

var boxNoiseRe = regexp.MustCompile(`[|¦]{2,}|_{4,}`)

// ImageToText runs tesseract on one image. An empty lang uses the configured one.
func (e *Engine) ImageToText(ctx context.Context, imagePath, lang string) (string, error) {
	if lang == "" {
		lang = e.cfg.Lang
	}
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract,
		imagePath, "stdout",
		"-l", lang,
		"--oem", strconv.Itoa(e.cfg.OEM),
		"--psm", strconv.Itoa(e.cfg.PSM),
	)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 200))
	}
	return strings.TrimSpace(boxNoiseRe.ReplaceAllString(string(out), "")), nil
}

// PDFToText rasterizes every page and OCRs them in order. Pages that fail are
// skipped; it errors only when no page could be rendered.
func (e *Engine) PDFToText(ctx context.Context, pdfPath, lang string) (string, int, error) {
	tmpDir, err := os.MkdirTemp("", "docsift-ocr-*")
	if err != nil {
		return "", 0, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	if _, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", strconv.Itoa(e.cfg.DPI), "-png", pdfPath, prefix); err != nil {
		return "", 0, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 200))
	}

	pages, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(pages)
	if len(pages) == 0 {
		return "", 0, fmt.Errorf("pdftoppm rendered no pages")
	}
	if e.cfg.MaxPages > 0 && len(pages) > e.cfg.MaxPages {
		pages = pages[:e.cfg.MaxPages]
	}

	var sb strings.Builder
	for i, img := range pages {
		if ctx.Err() != nil {
			return "", 0, ctx.Err()
		}
		txt, err := e.ImageToText(ctx, img, lang)
		if err != nil {
			e.log.Warn("page ocr failed", "page", i+1, "error", err)
			continue
		}
		if txt == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(txt)
	}
	return sb.String(), len(pages), nil
}

type execRunner struct {
	log *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	if err != nil {
		r.log.Error("exec failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
	} else {
		r.log.Debug("exec ok", "cmd", name, "duration_ms", time.Since(start).Milliseconds(), "stdout_bytes", out.Len())
	}
	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
