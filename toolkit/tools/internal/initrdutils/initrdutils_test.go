// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package initrdutils

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/cavaliercoder/go-cpio"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createInitrdFolder(t *testing.T) string {
	inputDir := filepath.Join(t.TempDir(), "initrd")
	scriptPath := filepath.Join(inputDir, "usr/sbin/dmsquash-live-root")
	require.NoError(t, os.MkdirAll(filepath.Dir(scriptPath), 0o755))
	require.NoError(t, os.WriteFile(scriptPath, []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.Symlink("usr/sbin", filepath.Join(inputDir, "sbin")))
	return inputDir
}

func writeCpio(t *testing.T, path string, names []string, wrap func(f *os.File) io.WriteCloser) {
	outputFile, err := os.Create(path)
	require.NoError(t, err)
	defer outputFile.Close()

	stream := wrap(outputFile)
	cpioWriter := cpio.NewWriter(stream)
	for _, name := range names {
		content := []byte(name)
		require.NoError(t, cpioWriter.WriteHeader(&cpio.Header{
			Name: name,
			Mode: cpio.ModeRegular | 0o644,
			Size: int64(len(content)),
		}))
		_, err = cpioWriter.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, cpioWriter.Close())
	require.NoError(t, stream.Close())
}

type nopCloser struct {
	*os.File
}

func (nopCloser) Close() error {
	return nil
}

func TestCreateAndListGzipInitrd(t *testing.T) {
	inputDir := createInitrdFolder(t)
	initrdPath := filepath.Join(t.TempDir(), "initrd.img")

	err := CreateInitrdImageFromFolder(inputDir, initrdPath)
	require.NoError(t, err)

	names, err := ListInitrdImageFiles(initrdPath)
	require.NoError(t, err)
	assert.Contains(t, names, "usr/sbin/dmsquash-live-root")
	assert.Contains(t, names, "sbin")
}

func TestCreateInitrdMissingFolder(t *testing.T) {
	err := CreateInitrdImageFromFolder(filepath.Join(t.TempDir(), "missing"), filepath.Join(t.TempDir(), "initrd.img"))
	assert.ErrorContains(t, err, "failed to change folder permissions")
}

func TestListZstdInitrd(t *testing.T) {
	initrdPath := filepath.Join(t.TempDir(), "initrd.img")
	writeCpio(t, initrdPath, []string{"init", "usr/lib/dracut/modules.txt"}, func(f *os.File) io.WriteCloser {
		encoder, err := zstd.NewWriter(f)
		require.NoError(t, err)
		return encoder
	})

	names, err := ListInitrdImageFiles(initrdPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"init", "usr/lib/dracut/modules.txt"}, names)
}

func TestListUncompressedInitrd(t *testing.T) {
	initrdPath := filepath.Join(t.TempDir(), "initrd.img")
	writeCpio(t, initrdPath, []string{"init"}, func(f *os.File) io.WriteCloser {
		return nopCloser{f}
	})

	names, err := ListInitrdImageFiles(initrdPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"init"}, names)
}

func TestListUnsupportedInitrd(t *testing.T) {
	initrdPath := filepath.Join(t.TempDir(), "initrd.img")
	require.NoError(t, os.WriteFile(initrdPath, []byte("BZh91AY&SY"), 0o644))

	_, err := ListInitrdImageFiles(initrdPath)
	assert.ErrorIs(t, err, ErrUnsupportedInitrdFormat)
}

func TestListMissingInitrd(t *testing.T) {
	_, err := ListInitrdImageFiles(filepath.Join(t.TempDir(), "missing.img"))
	assert.ErrorContains(t, err, "failed to open file")
}

func TestDetectCompression(t *testing.T) {
	compression, err := DetectCompression([]byte{0x1f, 0x8b, 0x08, 0x00})
	require.NoError(t, err)
	assert.Equal(t, CompressionGzip, compression)

	compression, err = DetectCompression([]byte{0x28, 0xb5, 0x2f, 0xfd})
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, compression)

	compression, err = DetectCompression([]byte("070701"))
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, compression)

	_, err = DetectCompression(nil)
	assert.ErrorIs(t, err, ErrUnsupportedInitrdFormat)
}
