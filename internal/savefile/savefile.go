// Package savefile manages a per-title directory of timestamped
// savestate blobs on disk: one file per save, named by Unix
// timestamp, written atomically via a temp file and rename so a crash
// mid-write never corrupts the previous save.
//
// Grounded on the teacher's (never-wired) pkg/emu/saves.go, adapted
// from managing raw cartridge RAM dumps to managing whole encoded
// savestate.Encode blobs, and from a single mutable Save handle to a
// stateless Write/LoadLatest pair matching how internal/emulator's
// request/reply protocol produces a complete blob at once rather than
// incrementally.
package savefile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const ext = ".state"

// dirFor returns (and creates) the save directory for a cartridge
// title under root.
func dirFor(root, title string) (string, error) {
	dir := filepath.Join(root, sanitize(title))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("savefile: %w", err)
	}
	return dir, nil
}

// Write saves blob as a new timestamped save for title under root,
// returning the path written. The write goes to a temp file in the
// same directory first, then an atomic rename, so a half-written save
// is never visible under its final name.
func Write(root, title string, blob []byte) (string, error) {
	dir, err := dirFor(root, title)
	if err != nil {
		return "", err
	}

	final := filepath.Join(dir, fmt.Sprintf("%d%s", time.Now().Unix(), ext))

	tmp, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return "", fmt.Errorf("savefile: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return "", fmt.Errorf("savefile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("savefile: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("savefile: %w", err)
	}
	return final, nil
}

// List returns every save path for title under root, newest first.
func List(root, title string) ([]string, error) {
	dir := filepath.Join(root, sanitize(title))
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("savefile: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ext) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] > paths[j] })
	return paths, nil
}

// LoadLatest reads the newest save for title under root. It returns
// nil, nil if no saves exist yet.
func LoadLatest(root, title string) ([]byte, error) {
	paths, err := List(root, title)
	if err != nil || len(paths) == 0 {
		return nil, err
	}
	return os.ReadFile(paths[0])
}

func sanitize(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "untitled"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, title)
}
