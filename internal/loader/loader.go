// Package loader handles getting a ROM image off disk and into memory
// for a host binary: picking a file interactively, decompressing
// whatever archive format it arrived in, and copying a rendered frame
// to the system clipboard.
//
// Grounded on the teacher's pkg/utils/files.go, pkg/utils/dialog.go
// and pkg/utils/clipboard.go, consolidated into one package since this
// module has no fyne-era split between a "utils" grab-bag and the
// display backends that called it.
package loader

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/sqweek/dialog"
	"golang.design/x/clipboard"
)

// AskForROM opens a native file picker rooted at startingDir and
// returns the chosen path, or an empty string if the user cancelled.
func AskForROM(startingDir string) (string, error) {
	path, err := dialog.File().
		Filter("Game Boy ROM", "gb", "gbc", "zip", "7z", "gz").
		SetStartDir(startingDir).
		Title("Select a ROM").
		Load()
	if err != nil {
		if err == dialog.ErrCancelled {
			return "", nil
		}
		return "", err
	}
	return path, nil
}

// LoadROM reads filename and, if it names a recognized archive
// format, decompresses and returns the first entry inside it rather
// than the archive bytes themselves. Plain .gb/.gbc files and raw
// boot ROM dumps are returned as-is without inspecting their
// extension further.
func LoadROM(filename string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".gb", ".gbc", ".bin":
		return data, nil
	case ".gz":
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("loader: gzip: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case ".zip":
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("loader: zip: %w", err)
		}
		if len(zr.File) == 0 {
			return nil, fmt.Errorf("loader: zip archive is empty")
		}
		rc, err := zr.File[0].Open()
		if err != nil {
			return nil, fmt.Errorf("loader: zip: %w", err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	case ".7z":
		zr, err := sevenzip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("loader: 7z: %w", err)
		}
		if len(zr.File) == 0 {
			return nil, fmt.Errorf("loader: 7z archive is empty")
		}
		rc, err := zr.File[0].Open()
		if err != nil {
			return nil, fmt.Errorf("loader: 7z: %w", err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	default:
		return data, nil
	}
}

// CopyFrame PNG-encodes img and places it on the system clipboard, for
// a host's "copy screenshot" hotkey.
func CopyFrame(img image.Image) error {
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("loader: clipboard: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("loader: png encode: %w", err)
	}

	clipboard.Write(clipboard.FmtImage, buf.Bytes())
	return nil
}
