// Copyright (c) 2024 Akxen Labs
// File helpers for casefile and solution documents. Casefiles are large
// (several MB of JSON per interval) and are kept zstd-compressed on disk;
// a ".zst"/".zstd" suffix selects compression, "-" selects stdio.

package nemde

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

///////////////////////////////////////////////////////////////////////////////

func hasZstdSuffix(filename string) bool {
	return strings.HasSuffix(filename, ".zst") || strings.HasSuffix(filename, ".zstd")
}

// ReadDocumentFile reads a casefile or solution document from filename, or
// from stdin when filename is "-". Files with a zstd suffix decompress
// transparently; forceZstd covers compressed stdin.
func ReadDocumentFile(filename string, forceZstd bool) ([]byte, error) {
	var reader io.Reader = os.Stdin
	if filename != "-" {
		file, err := os.Open(filename)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		reader = file
	}

	if forceZstd || hasZstdSuffix(filename) {
		zr, err := zstd.NewReader(reader)
		if err != nil {
			return nil, fmt.Errorf("decompressing %s: %w", filename, err)
		}
		defer zr.Close()
		reader = zr
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return data, nil
}

// ReadCasefileFile reads and parses a casefile document.
func ReadCasefileFile(filename string, forceZstd bool) (*Casefile, error) {
	data, err := ReadDocumentFile(filename, forceZstd)
	if err != nil {
		return nil, err
	}
	return ParseCasefile(data)
}

// WriteDocumentFile writes a document to filename, or to stdout when
// filename is "-". A zstd suffix selects compression; missing parent
// directories are created.
func WriteDocumentFile(filename string, data []byte) error {
	var writer io.Writer = os.Stdout
	if filename != "-" {
		if dir := filepath.Dir(filename); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.Create(filename)
		if err != nil {
			return err
		}
		defer file.Close()
		writer = file
	}

	if hasZstdSuffix(filename) {
		zw, err := zstd.NewWriter(writer)
		if err != nil {
			return fmt.Errorf("compressing %s: %w", filename, err)
		}
		if _, err := zw.Write(data); err != nil {
			zw.Close()
			return fmt.Errorf("writing %s: %w", filename, err)
		}
		return zw.Close()
	}

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	return nil
}
