// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package initrdutils

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/cavaliercoder/go-cpio"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
)

var (
	ErrUnsupportedInitrdFormat = errors.New("unsupported initrd compression format")

	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	// SVR4 ("newc") cpio, with and without checksums.
	cpioNewcMagic = []byte("07070")
)

type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// CreateInitrdImageFromFolder packs inputDir into a gzip compressed cpio archive.
func CreateInitrdImageFromFolder(inputDir, outputInitrdImagePath string) (err error) {
	// The `inputDir` permissions will become the `/` permissions when the initrd
	// is mounted. This needs to be 0755 or some processes will fail to function
	// correctly.
	err = os.Chmod(inputDir, 0o755)
	if err != nil {
		return fmt.Errorf("failed to change folder permissions for (%s):\n%w", inputDir, err)
	}

	outputFile, err := os.Create(outputInitrdImagePath)
	if err != nil {
		return fmt.Errorf("failed to create image file (%s):\n%w", outputInitrdImagePath, err)
	}
	defer outputFile.Close()

	gzipWriter := pgzip.NewWriter(outputFile)
	cpioWriter := cpio.NewWriter(gzipWriter)

	err = filepath.Walk(inputDir, func(path string, info os.FileInfo, fileErr error) error {
		if fileErr != nil {
			return fmt.Errorf("encountered a file walk error on path (%s):\n%w", path, fileErr)
		}

		err := addFileToCpioArchive(inputDir, path, info, cpioWriter)
		if err != nil {
			return fmt.Errorf("failed to add (%s) to archive (%s):\n%w", path, outputInitrdImagePath, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = cpioWriter.Close()
	if err != nil {
		return fmt.Errorf("failed to finalize cpio archive (%s):\n%w", outputInitrdImagePath, err)
	}

	err = gzipWriter.Close()
	if err != nil {
		return fmt.Errorf("failed to finalize gzip stream (%s):\n%w", outputInitrdImagePath, err)
	}

	return nil
}

func buildCpioHeader(inputDir, path string, info os.FileInfo, link string) (*cpio.Header, error) {
	cpioHeader, err := cpio.FileInfoHeader(info, link)
	if err != nil {
		return nil, fmt.Errorf("failed to convert OS file info into a cpio header for (%s)\n%w", path, err)
	}

	relPath, err := filepath.Rel(inputDir, path)
	if err != nil {
		return nil, fmt.Errorf("failed to get relative path of (%s) using root (%s):\n%w", path, inputDir, err)
	}
	cpioHeader.Name = relPath

	// cpio.FileInfoHeader() does not set the owners.
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil, fmt.Errorf("failed to get file stat of (%s)", path)
	}
	cpioHeader.UID = int(stat.Uid)
	cpioHeader.GID = int(stat.Gid)

	return cpioHeader, nil
}

func addFileToCpioArchive(inputDir, path string, info os.FileInfo, cpioWriter *cpio.Writer) error {
	var link string
	var err error
	if info.Mode()&os.ModeSymlink != 0 {
		link, err = os.Readlink(path)
		if err != nil {
			return fmt.Errorf("failed to read link information of (%s):\n%w", path, err)
		}
	}

	cpioHeader, err := buildCpioHeader(inputDir, path, info, link)
	if err != nil {
		return err
	}

	err = cpioWriter.WriteHeader(cpioHeader)
	if err != nil {
		return fmt.Errorf("failed to write cpio header for (%s)\n%w", path, err)
	}

	switch {
	case info.Mode().IsRegular():
		fileToAdd, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open (%s)\n%w", path, err)
		}
		defer fileToAdd.Close()

		_, err = io.Copy(cpioWriter, fileToAdd)
		if err != nil {
			return fmt.Errorf("failed to write (%s) to cpio archive\n%w", path, err)
		}

	case info.Mode()&os.ModeSymlink != 0:
		_, err = cpioWriter.Write([]byte(link))
		if err != nil {
			return fmt.Errorf("failed to write link (%s)\n%w", path, err)
		}
	}

	// All other special files only contain the header.
	return nil
}

// DetectCompression inspects the magic bytes at the start of an initrd image.
func DetectCompression(header []byte) (Compression, error) {
	switch {
	case bytes.HasPrefix(header, gzipMagic):
		return CompressionGzip, nil
	case bytes.HasPrefix(header, zstdMagic):
		return CompressionZstd, nil
	case bytes.HasPrefix(header, cpioNewcMagic):
		return CompressionNone, nil
	default:
		return "", ErrUnsupportedInitrdFormat
	}
}

// ListInitrdImageFiles returns the paths of every entry in an initrd image.
func ListInitrdImageFiles(initrdImagePath string) ([]string, error) {
	initrdFile, err := os.Open(initrdImagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file (%s):\n%w", initrdImagePath, err)
	}
	defer initrdFile.Close()

	bufferedReader := bufio.NewReader(initrdFile)
	header, err := bufferedReader.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read header of (%s):\n%w", initrdImagePath, err)
	}

	compression, err := DetectCompression(header)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, initrdImagePath)
	}

	var archiveReader io.Reader
	switch compression {
	case CompressionGzip:
		gzipReader, err := pgzip.NewReader(bufferedReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create a pgzip reader for (%s):\n%w", initrdImagePath, err)
		}
		defer gzipReader.Close()
		archiveReader = gzipReader

	case CompressionZstd:
		zstdReader, err := zstd.NewReader(bufferedReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create a zstd reader for (%s):\n%w", initrdImagePath, err)
		}
		defer zstdReader.Close()
		archiveReader = zstdReader

	default:
		archiveReader = bufferedReader
	}

	names := []string(nil)
	cpioReader := cpio.NewReader(archiveReader)
	for {
		cpioHeader, err := cpioReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read cpio header from (%s):\n%w", initrdImagePath, err)
		}

		names = append(names, cpioHeader.Name)
	}

	return names, nil
}
