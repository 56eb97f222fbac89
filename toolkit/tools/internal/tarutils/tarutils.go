// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package tarutils

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
)

var (
	ErrUnsupportedArchiveCompression = errors.New("unsupported archive compression")
	ErrUnsafeArchiveEntry            = errors.New("archive entry escapes the extraction root")

	gzipMagic  = []byte{0x1f, 0x8b}
	zstdMagic  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	xzMagic    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	bzip2Magic = []byte("BZh")
)

// ArchiveSummary describes the contents of a rootfs archive.
type ArchiveSummary struct {
	Entries      int
	HasOsRelease bool
	HasModules   bool
}

// CreateTarGzArchive packs sourceDir into a gzip compressed tarball.
func CreateTarGzArchive(sourceDir, outputArchivePath string) error {
	outFile, err := os.Create(outputArchivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive (%s):\n%w", outputArchivePath, err)
	}
	defer outFile.Close()

	gw := pgzip.NewWriter(outFile)
	tw := tar.NewWriter(gw)

	err = filepath.Walk(sourceDir, func(file string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		var link string
		if info.Mode()&os.ModeSymlink != 0 {
			link, err = os.Readlink(file)
			if err != nil {
				return err
			}
		}

		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(sourceDir, file)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relPath)

		if err := tw.WriteHeader(header); err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create archive (%s):\n%w", outputArchivePath, err)
	}

	err = tw.Close()
	if err != nil {
		return fmt.Errorf("failed to finalize archive (%s):\n%w", outputArchivePath, err)
	}

	err = gw.Close()
	if err != nil {
		return fmt.Errorf("failed to finalize archive (%s):\n%w", outputArchivePath, err)
	}

	return nil
}

// InspectArchive reads every header of a (optionally gzip or zstd compressed)
// tarball. It fails if any entry would be extracted outside the destination.
func InspectArchive(archivePath string) (ArchiveSummary, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return ArchiveSummary{}, fmt.Errorf("failed to open archive (%s):\n%w", archivePath, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	magic, err := br.Peek(len(xzMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return ArchiveSummary{}, fmt.Errorf("failed to read archive (%s):\n%w", archivePath, err)
	}

	var r io.Reader
	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		gzr, err := pgzip.NewReader(br)
		if err != nil {
			return ArchiveSummary{}, fmt.Errorf("failed to create gzip reader for (%s):\n%w", archivePath, err)
		}
		defer gzr.Close()
		r = gzr

	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return ArchiveSummary{}, fmt.Errorf("failed to create zstd reader for (%s):\n%w", archivePath, err)
		}
		defer zr.Close()
		r = zr

	case bytes.HasPrefix(magic, xzMagic), bytes.HasPrefix(magic, bzip2Magic):
		return ArchiveSummary{}, fmt.Errorf("%w (%s)", ErrUnsupportedArchiveCompression, archivePath)

	default:
		r = br
	}

	summary := ArchiveSummary{}
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ArchiveSummary{}, fmt.Errorf("failed to read header from archive (%s):\n%w", archivePath, err)
		}

		name, err := cleanEntryName(header.Name)
		if err != nil {
			return ArchiveSummary{}, fmt.Errorf("%w: (%s) in (%s)", err, header.Name, archivePath)
		}

		summary.Entries++
		switch {
		case name == "etc/os-release" || name == "usr/lib/os-release":
			summary.HasOsRelease = true
		case strings.HasPrefix(name, "usr/lib/modules/") || strings.HasPrefix(name, "lib/modules/"):
			summary.HasModules = true
		}
	}

	return summary, nil
}

// cleanEntryName normalizes a tar entry name relative to the extraction root.
func cleanEntryName(name string) (string, error) {
	if path.IsAbs(name) {
		return "", ErrUnsafeArchiveEntry
	}

	cleanName := path.Clean(name)
	if cleanName == ".." || strings.HasPrefix(cleanName, "../") {
		return "", ErrUnsafeArchiveEntry
	}

	return strings.TrimPrefix(cleanName, "./"), nil
}
