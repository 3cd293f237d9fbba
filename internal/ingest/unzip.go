package ingest

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Unzipper extracts an uploaded archive into a flat list of log files.
type Unzipper interface {
	Flatten(ctx context.Context, archivePath, destDir string) ([]string, error)
}

// ZipUnzipper extracts zip archives. Directory structure inside the
// archive is flattened; nested paths become underscore-joined file names
// so every extracted file lands directly in destDir.
type ZipUnzipper struct{}

func NewZipUnzipper() *ZipUnzipper { return &ZipUnzipper{} }

func (z *ZipUnzipper) Flatten(ctx context.Context, archivePath, destDir string) ([]string, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create extraction dir: %w", err)
	}

	var files []string
	for _, entry := range reader.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.FileInfo().IsDir() {
			continue
		}

		name := flattenName(entry.Name)
		if name == "" {
			continue
		}
		dest := filepath.Join(destDir, name)

		if err := extractFile(entry, dest); err != nil {
			return nil, fmt.Errorf("extract %s: %w", entry.Name, err)
		}
		files = append(files, dest)
	}
	return files, nil
}

func extractFile(entry *zip.File, dest string) error {
	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return err
	}
	return out.Close()
}

// flattenName turns a possibly nested archive path into a flat file name.
// Path traversal components are discarded.
func flattenName(name string) string {
	name = filepath.ToSlash(name)
	parts := strings.Split(name, "/")
	kept := parts[:0]
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, "_")
}
