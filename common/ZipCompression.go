package common

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archiver/v4"
)

// ExtractZip unpacks zipFile into extractDir, overwriting existing files.
func ExtractZip(ctx context.Context, zipFile, extractDir string) (int, error) {
	f, err := os.Open(zipFile)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return extract(ctx, archiver.Zip{}, f, extractDir)
}

// ExtractTarGz unpacks a gzip-compressed tarball read from r into extractDir.
func ExtractTarGz(ctx context.Context, r io.Reader, extractDir string) (int, error) {
	format := archiver.CompressedArchive{
		Compression: archiver.Gz{},
		Archival:    archiver.Tar{},
	}
	return extract(ctx, format, r, extractDir)
}

func extract(ctx context.Context, format archiver.Extractor, r io.Reader, extractDir string) (int, error) {
	if err := os.MkdirAll(extractDir, os.ModePerm); err != nil {
		return 0, err
	}

	root, err := filepath.Abs(extractDir)
	if err != nil {
		return 0, err
	}

	files := 0
	err = format.Extract(ctx, r, nil, func(ctx context.Context, f archiver.File) error {
		path, err := safeJoin(root, f.NameInArchive)
		if err != nil {
			return err
		}

		if f.IsDir() {
			return os.MkdirAll(path, os.ModePerm)
		}
		if !f.Mode().IsRegular() {
			// Links and devices have no place in a Python runtime.
			return nil
		}

		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return err
		}

		if err := writeArchiveFile(f, path); err != nil {
			return fmt.Errorf("extracting %s: %w", f.NameInArchive, err)
		}
		files++
		return nil
	})

	return files, err
}

func writeArchiveFile(f archiver.File, path string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}

	outFile, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(outFile, rc); err != nil {
		outFile.Close()
		return err
	}
	return outFile.Close()
}

// safeJoin joins an archive member name onto root and rejects names that
// would escape it.
func safeJoin(root, name string) (string, error) {
	path := filepath.Join(root, filepath.FromSlash(name))
	if path != root && !strings.HasPrefix(path, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes %s", name, root)
	}
	return path, nil
}

// ArchiveDir writes a gzip-compressed tarball of dir to w. Paths inside the
// archive are relative to dir.
func ArchiveDir(ctx context.Context, dir string, w io.Writer) error {
	files, err := archiver.FilesFromDisk(&archiver.FromDiskOptions{
		FollowSymlinks:  true,
		ClearAttributes: true,
	}, map[string]string{
		dir + string(os.PathSeparator): "",
	})
	if err != nil {
		return fmt.Errorf("listing %s: %w", dir, err)
	}

	format := archiver.CompressedArchive{
		Compression: archiver.Gz{},
		Archival:    archiver.Tar{},
	}
	return format.Archive(ctx, w, files)
}
