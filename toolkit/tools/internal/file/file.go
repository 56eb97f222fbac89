// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Write creates or truncates the file at dstFile and writes the data to it.
// Missing parent directories are created first; if that fails nothing is
// written.
func Write(data string, dstFile string) error {
	err := CreateDestinationDir(dstFile, os.ModePerm)
	if err != nil {
		return err
	}

	err = os.WriteFile(dstFile, []byte(data), 0o644)
	if err != nil {
		return fmt.Errorf("failed to write file (%s):\n%w", dstFile, err)
	}

	return nil
}

// WriteLines writes each line followed by a newline.
func WriteLines(lines []string, dstFile string) error {
	var builder strings.Builder
	for _, line := range lines {
		builder.WriteString(line)
		builder.WriteString("\n")
	}

	return Write(builder.String(), dstFile)
}

func Read(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// CreateDestinationDir creates the parent directory of dst.
func CreateDestinationDir(dst string, dirFileMode os.FileMode) error {
	destDir := filepath.Dir(dst)
	err := os.MkdirAll(destDir, dirFileMode)
	if err != nil {
		return fmt.Errorf("failed to create directory (%s):\n%w", destDir, err)
	}
	return nil
}

func PathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func IsDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func IsFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}
