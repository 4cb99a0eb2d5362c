// Package cart loads Game Boy cartridge images from disk, unpacking gzip and
// zip archives, and parses the cartridge header.
package cart

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// BankSize is the size of one switchable ROM bank.
const BankSize = 0x4000

// romExtensions are preferred when picking a file out of a zip archive.
var romExtensions = []string{".gb", ".gbc", ".sgb"}

// Image is a loaded cartridge image.
type Image struct {
	Path   string
	Data   []byte
	Header *Header // nil when the image is too short to carry one
}

// Open reads path, unpacking it when it is a gzip stream or zip archive.
func Open(path string) (*Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rom: %w", err)
	}
	data, err := Decompress(raw, path)
	if err != nil {
		return nil, fmt.Errorf("unpack rom: %w", err)
	}
	return New(path, data), nil
}

// New wraps data already in memory.
func New(path string, data []byte) *Image {
	im := &Image{Path: path, Data: data}
	h, err := ParseHeader(data)
	if err != nil {
		slog.Debug("No cartridge header", "file", path, "error", err)
		return im
	}
	im.Header = h
	return im
}

// Digest returns the hex SHA-256 of the unpacked image.
func (im *Image) Digest() string {
	return fmt.Sprintf("%x", sha256.Sum256(im.Data))
}

// Banks returns the number of 16 KiB banks present in the file.
func (im *Image) Banks() int {
	return (len(im.Data) + BankSize - 1) / BankSize
}

// Decompress unpacks gzip streams and zip archives, and returns anything
// else unchanged. From a zip archive it takes the first ROM-looking entry,
// or the first entry when none has a ROM extension.
func Decompress(data []byte, filename string) ([]byte, error) {
	if len(data) < 2 {
		return data, nil
	}

	// gzip magic 0x1F 0x8B
	if data[0] == 0x1f && data[1] == 0x8b {
		slog.Debug("Detected gzip compression", "file", filename)
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip reader creation failed: %w", err)
		}
		defer reader.Close()

		out, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip decompression failed: %w", err)
		}
		slog.Debug("Gzip decompression successful", "file", filename,
			"original_size", len(data), "decompressed_size", len(out))
		return out, nil
	}

	// zip local file header "PK\x03\x04"
	if len(data) >= 4 && data[0] == 0x50 && data[1] == 0x4B && data[2] == 0x03 && data[3] == 0x04 {
		slog.Debug("Detected ZIP archive", "file", filename)
		reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("zip reader creation failed: %w", err)
		}
		file := pickZipEntry(reader.File)
		if file == nil {
			return nil, errors.New("zip archive is empty")
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s in zip: %w", file.Name, err)
		}
		defer rc.Close()

		out, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from zip: %w", file.Name, err)
		}
		slog.Debug("ZIP decompression successful", "file", filename,
			"archive_file", file.Name,
			"original_size", len(data), "decompressed_size", len(out))
		return out, nil
	}

	return data, nil
}

func pickZipEntry(files []*zip.File) *zip.File {
	var first *zip.File
	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		if first == nil {
			first = f
		}
		ext := strings.ToLower(filepath.Ext(f.Name))
		for _, want := range romExtensions {
			if ext == want {
				return f
			}
		}
	}
	return first
}
