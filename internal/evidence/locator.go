// Package evidence resolves artifact files (screenshot, video, trace
// capture) for a test by best-effort name matching against the directories
// the UI-interaction layer writes into.
package evidence

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bugrelay/internal/logging"
	"bugrelay/internal/report"
)

// Screenshot files are written by the teardown hook under this prefix.
const screenshotPrefix = "TEARDOWN_FINAL_STATE_"

// Locator finds the newest artifact of each category for a test display
// name. Absence of a category is normal — videos only exist when recording
// is on, traces only when tracing is on.
type Locator struct {
	ScreenshotDir string
	VideoDir      string
	TraceDir      string

	logger *slog.Logger
}

// NewLocator returns a Locator over the three artifact directories.
func NewLocator(screenshotDir, videoDir, traceDir string, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Locator{
		ScreenshotDir: screenshotDir,
		VideoDir:      videoDir,
		TraceDir:      traceDir,
		logger:        logger,
	}
}

// SafeName normalizes a test display name into the filesystem-safe token
// the UI layer uses when naming artifact files: every rune that is not
// alphanumeric, space, dash, or underscore becomes an underscore.
func SafeName(testDisplayName string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, testDisplayName)
}

// Locate returns the evidence set for a test. Each category matches
// independently; when several files match, the most recently modified wins.
func (l *Locator) Locate(testDisplayName string) report.EvidenceSet {
	safe := SafeName(testDisplayName)
	set := report.EvidenceSet{
		Screenshot: l.newest(l.ScreenshotDir, screenshotPrefix+safe, ".png", false),
		Video:      l.newest(l.VideoDir, safe, ".webm", false),
		Trace:      l.newest(l.TraceDir, safe, ".zip", true),
	}
	l.logger.Debug("evidence lookup finished",
		"test", testDisplayName, "found", len(set.Paths()))
	return set
}

// Video returns only the newest run recording for a test, or "" if none
// exists. The success path attaches the video without the other artifacts.
func (l *Locator) Video(testDisplayName string) string {
	return l.newest(l.VideoDir, SafeName(testDisplayName), ".webm", false)
}

// newest scans dir for files with the given extension whose name contains
// (substring=true) or starts with (substring=false) the token, and returns
// the path of the most recently modified match.
func (l *Locator) newest(dir, token, ext string, substring bool) string {
	if dir == "" {
		return ""
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		l.logger.Debug("artifact directory unreadable", "dir", dir, "err", err)
		return ""
	}

	var (
		best     string
		bestTime int64 = -1
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		if substring {
			if !strings.Contains(name, token) {
				continue
			}
		} else if !strings.HasPrefix(name, token) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if mt := info.ModTime().UnixNano(); mt > bestTime {
			bestTime = mt
			best = filepath.Join(dir, name)
		}
	}
	if best == "" {
		l.logger.Debug("no artifact matched", "dir", dir, "token", token, "ext", ext)
	}
	return best
}
