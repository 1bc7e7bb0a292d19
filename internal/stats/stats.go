// SPDX-License-Identifier: MPL-2.0

// Package stats computes artifact size statistics after pipeline runs:
// raw byte size versus gzip-compressed size, and the percentage change.
//
// The pass walks a pipeline's steps in order and measures each declared
// artifact. Steps without an artifact are skipped with a warning; a
// measurement failure (missing file, unreadable content) stops the pass.
package stats

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"taskpipe/internal/checksum"
	"taskpipe/internal/fsutil"
	"taskpipe/pkg/pipefile"
)

type (
	// Options controls the stats pass.
	Options struct {
		// Enabled gates the whole pass; when false no file is touched and
		// the pass reports success immediately.
		Enabled bool
		// Checksum, when non-empty, adds a content digest per artifact.
		Checksum checksum.Algorithm
		// BaseDir is the directory relative artifact paths resolve against,
		// normally the pipefile directory.
		BaseDir string
	}

	// FileStats are the measurements for one artifact.
	FileStats struct {
		// Path is the artifact path as declared.
		Path string
		// RawSize is the uncompressed size in bytes.
		RawSize int64
		// GzipSize is the gzip-compressed size in bytes.
		GzipSize int64
		// Percent is the size change: -(1 - gzip/raw) * 100. Negative when
		// compression shrinks the artifact.
		Percent float64
		// Checksum is the optional content digest, empty unless requested.
		Checksum string
	}

	// Summary aggregates one stats pass.
	Summary struct {
		// Files counts measured artifacts.
		Files int
		// Skipped counts steps without an artifact.
		Skipped int
		// TotalRaw is the sum of raw sizes in bytes.
		TotalRaw int64
		// TotalGzip is the sum of gzip sizes in bytes.
		TotalGzip int64
		// Results holds the per-artifact measurements in step order.
		Results []FileStats
	}
)

// Run measures the artifacts of the given steps in order. A step without an
// artifact is skipped with a warning and counted, never stalling the pass.
// The first measurement failure aborts the pass and is returned alongside
// the partial summary.
func Run(steps []pipefile.Step, opts Options, logger *log.Logger) (*Summary, error) {
	summary := &Summary{}

	if !opts.Enabled {
		return summary, nil
	}
	if logger == nil {
		logger = log.Default()
	}

	for _, step := range steps {
		if step.Artifact == "" {
			summary.Skipped++
			logger.Warn("step has no artifact, skipping stats",
				"cmd", step.Run)
			continue
		}

		path := step.Artifact
		if !filepath.IsAbs(path) && opts.BaseDir != "" {
			path = filepath.Join(opts.BaseDir, step.Artifact)
		}

		fs, err := Compute(path, opts.Checksum)
		if err != nil {
			return summary, fmt.Errorf("stats for %s: %w", step.Artifact, err)
		}
		fs.Path = step.Artifact

		logResult(logger, fs)

		summary.Files++
		summary.TotalRaw += fs.RawSize
		summary.TotalGzip += fs.GzipSize
		summary.Results = append(summary.Results, *fs)
	}

	logSummary(logger, summary)
	return summary, nil
}

// Compute measures one file: raw size, gzip size, percent change, and an
// optional digest.
func Compute(path string, algo checksum.Algorithm) (*FileStats, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	gzipSize, err := fsutil.GzipSize(path)
	if err != nil {
		return nil, err
	}

	fs := &FileStats{
		Path:     path,
		RawSize:  int64(len(content)),
		GzipSize: gzipSize,
	}
	if fs.RawSize > 0 {
		fs.Percent = -(1 - float64(fs.GzipSize)/float64(fs.RawSize)) * 100
	}

	if algo != "" {
		digest, err := checksum.File(path, algo)
		if err != nil {
			return nil, err
		}
		fs.Checksum = digest
	}

	return fs, nil
}

// FormatSize renders a byte count as "N bytes (X.XX KiB)".
func FormatSize(n int64) string {
	return fmt.Sprintf("%d bytes (%.2f KiB)", n, float64(n)/1024)
}

// FormatPercent renders the percent change with an explicit leading sign and
// two decimals, e.g. "-61.20%".
func FormatPercent(p float64) string {
	return fmt.Sprintf("%+.2f%%", p)
}

func logResult(logger *log.Logger, fs *FileStats) {
	fields := []any{
		"file", fs.Path,
		"raw", FormatSize(fs.RawSize),
		"gzip", FormatSize(fs.GzipSize),
		"change", FormatPercent(fs.Percent),
	}
	if fs.Checksum != "" {
		fields = append(fields, "checksum", fs.Checksum)
	}
	logger.Info("artifact stats", fields...)
}

func logSummary(logger *log.Logger, s *Summary) {
	if s.Files == 0 && s.Skipped == 0 {
		return
	}
	logger.Info("stats summary",
		"files", s.Files,
		"skipped", s.Skipped,
		"raw", humanize.IBytes(uint64(s.TotalRaw)),
		"gzip", humanize.IBytes(uint64(s.TotalGzip)))
}
