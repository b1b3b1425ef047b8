// Package archive keeps full-page screenshots on disk for later review.
package archive

import (
	"bytes"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/corona10/goimagehash"
)

const timeLayout = "20060102_150405"

// Archive writes PNGs as <dir>/YYYYmmdd_HHMMSS_round-<id>_<tag>.png.
// An empty dir disables it.
type Archive struct {
	dir string
	now func() time.Time

	mu       sync.Mutex
	lastTick *goimagehash.ImageHash
}

func New(dir string) *Archive {
	return &Archive{dir: dir, now: time.Now}
}

func (a *Archive) Enabled() bool {
	return a != nil && a.dir != ""
}

// Save writes the image unconditionally.
func (a *Archive) Save(data []byte, roundID, tag string) (string, error) {
	if !a.Enabled() {
		return "", nil
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot dir: %w", err)
	}
	path := filepath.Join(a.dir, a.fileName(roundID, tag))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}
	slog.Debug("Screenshot saved", "path", path)
	return path, nil
}

// SaveTick saves a periodic frame unless it looks the same as the previous tick frame.
func (a *Archive) SaveTick(data []byte, roundID string) (string, bool, error) {
	if !a.Enabled() {
		return "", false, nil
	}

	hash, err := frameHash(data)
	if err != nil {
		// undecodable frames are still archived
		slog.Debug("Failed to hash screenshot", "error", err)
	}

	a.mu.Lock()
	if hash != nil && a.lastTick != nil {
		if dist, err := hash.Distance(a.lastTick); err == nil && dist == 0 {
			a.mu.Unlock()
			return "", false, nil
		}
	}
	a.lastTick = hash
	a.mu.Unlock()

	path, err := a.Save(data, roundID, "tick")
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

func (a *Archive) fileName(roundID, tag string) string {
	return fmt.Sprintf("%s_round-%s_%s.png", a.now().Format(timeLayout), sanitize(roundID), sanitize(tag))
}

func frameHash(data []byte) (*goimagehash.ImageHash, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return goimagehash.DifferenceHash(img)
}

func sanitize(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}
