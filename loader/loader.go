// loader.go - Program image loading with decompression by file extension

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

// Package loader reads program images from disk, transparently unpacking
// compressed files and single-file archives.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// MaxImageSize caps decompressed output. Vector and test files run to a
// few megabytes; anything much larger is not a Z80 image.
const MaxImageSize = 256 << 20

var (
	// ErrEmptyArchive is returned for .zip/.7z files without a regular file.
	ErrEmptyArchive = errors.New("loader: archive has no regular file")

	// ErrTooLarge is returned when decompressed data exceeds MaxImageSize.
	ErrTooLarge = errors.New("loader: decompressed image too large")
)

// Load reads path and decompresses it according to its extension. Files
// with an unknown extension are returned as is.
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	out, err := Decode(filepath.Base(path), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// Decode unpacks data by the extension of name.
func Decode(name string, data []byte) ([]byte, error) {
	src := bytes.NewReader(data)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".gz":
		zr, err := gzip.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("loader: gzip: %w", err)
		}
		defer zr.Close()
		return readLimited(zr, "gzip")
	case ".zst":
		dec, err := zstd.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("loader: zstd: %w", err)
		}
		defer dec.Close()
		return readLimited(dec, "zstd")
	case ".xz":
		xr, err := xz.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("loader: xz: %w", err)
		}
		return readLimited(xr, "xz")
	case ".br":
		return readLimited(brotli.NewReader(src), "brotli")
	case ".lz4":
		return readLimited(lz4.NewReader(src), "lz4")
	case ".zip":
		zr, err := zip.NewReader(src, int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("loader: zip: %w", err)
		}
		for _, f := range zr.File {
			if f.Mode().IsRegular() {
				return readArchived(f.Open, "zip")
			}
		}
		return nil, ErrEmptyArchive
	case ".7z":
		return decodeSevenZip(src, int64(len(data)))
	}
	return data, nil
}

// decodeSevenZip turns header parser panics on malformed archives into
// errors so a bad file on the command line cannot take the process down.
func decodeSevenZip(src io.ReaderAt, size int64) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("loader: 7z: malformed archive: %v", r)
		}
	}()
	sr, err := sevenzip.NewReader(src, size)
	if err != nil {
		return nil, fmt.Errorf("loader: 7z: %w", err)
	}
	for _, f := range sr.File {
		if f.FileInfo().Mode().IsRegular() {
			return readArchived(f.Open, "7z")
		}
	}
	return nil, ErrEmptyArchive
}

func readArchived(open func() (io.ReadCloser, error), kind string) ([]byte, error) {
	rc, err := open()
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", kind, err)
	}
	defer rc.Close()
	return readLimited(rc, kind)
}

func readLimited(r io.Reader, kind string) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", kind, err)
	}
	if len(out) > MaxImageSize {
		return nil, ErrTooLarge
	}
	return out, nil
}
