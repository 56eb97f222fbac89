// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package isogenerator

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/kdomanski/iso9660"
	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/shell"
)

const (
	DefaultMkrescueTool = "grub2-mkrescue"
	DefaultVolumeId     = "Fedora-LiveOS"
	IsoFileName         = "live.iso"

	// ISO9660 level 1 limits the volume identifier to 32 characters.
	maxVolumeIdLength = 32
)

var ErrIsoMissingFiles = errors.New("ISO is missing required files")

type IsoGenConfig struct {
	// Command prefix used to invoke grub2-mkrescue.
	Tool []string
	// Directory whose contents become the ISO root.
	StagingDirPath string
	// The path where the ISO file will be written.
	OutputFilePath string
	// Volume identifier. Only passed to xorriso when SetVolumeId is true.
	VolumeId    string
	SetVolumeId bool
}

// BuildMkrescueCommand formats the grub2-mkrescue invocation for config.
func BuildMkrescueCommand(config IsoGenConfig) (shell.Command, error) {
	tool := config.Tool
	if len(tool) == 0 {
		tool = []string{DefaultMkrescueTool}
	}

	if config.StagingDirPath == "" {
		return shell.Command{}, fmt.Errorf("ISO staging directory must not be empty")
	}

	if config.OutputFilePath == "" {
		return shell.Command{}, fmt.Errorf("ISO output path must not be empty")
	}

	args := append([]string(nil), tool[1:]...)
	args = append(args, "-o", config.OutputFilePath, config.StagingDirPath)

	if config.SetVolumeId {
		err := ValidateVolumeId(config.VolumeId)
		if err != nil {
			return shell.Command{}, err
		}

		// Arguments after "--" are forwarded to xorriso.
		args = append(args, "--", "-volid", config.VolumeId)
	}

	return shell.NewCommand(tool[0], args...), nil
}

// ValidateVolumeId checks that volumeId can be used as an ISO volume identifier.
func ValidateVolumeId(volumeId string) error {
	if volumeId == "" {
		return fmt.Errorf("volume id must not be empty")
	}

	if len(volumeId) > maxVolumeIdLength {
		return fmt.Errorf("volume id (%s) is longer than %d characters", volumeId, maxVolumeIdLength)
	}

	if strings.ContainsAny(volumeId, "'\" \t\n") {
		return fmt.Errorf("volume id (%s) must not contain quotes or whitespace", volumeId)
	}

	return nil
}

// ListIsoFiles returns the path of every regular file in the ISO image.
func ListIsoFiles(isoPath string) ([]string, error) {
	isoFile, err := os.Open(isoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ISO (%s):\n%w", isoPath, err)
	}
	defer isoFile.Close()

	image, err := iso9660.OpenImage(isoFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read ISO (%s):\n%w", isoPath, err)
	}

	rootDir, err := image.RootDir()
	if err != nil {
		return nil, fmt.Errorf("failed to read root directory of ISO (%s):\n%w", isoPath, err)
	}

	files := []string(nil)
	err = walkIsoDir(rootDir, "", &files)
	if err != nil {
		return nil, fmt.Errorf("failed to list files of ISO (%s):\n%w", isoPath, err)
	}

	sort.Strings(files)
	return files, nil
}

func walkIsoDir(dir *iso9660.File, dirPath string, files *[]string) error {
	children, err := dir.GetChildren()
	if err != nil {
		return err
	}

	for _, child := range children {
		name := child.Name()
		// Self and parent entries.
		if name == "\x00" || name == "\x01" {
			continue
		}

		childPath := path.Join(dirPath, normalizeIsoName(name))
		if child.IsDir() {
			err = walkIsoDir(child, childPath, files)
			if err != nil {
				return err
			}
			continue
		}

		*files = append(*files, childPath)
	}

	return nil
}

// normalizeIsoName drops the ";1" version suffix and the empty extension
// separator of plain ISO9660 file identifiers.
func normalizeIsoName(name string) string {
	name, _, _ = strings.Cut(name, ";")
	return strings.TrimSuffix(name, ".")
}

// VerifyIsoContents checks that every path in requiredFiles exists in the ISO.
// Names are compared case-insensitively since plain ISO9660 upper-cases them.
func VerifyIsoContents(isoPath string, requiredFiles []string) error {
	files, err := ListIsoFiles(isoPath)
	if err != nil {
		return err
	}

	present := make(map[string]bool, len(files))
	for _, file := range files {
		present[strings.ToLower(file)] = true
	}

	missing := []string(nil)
	for _, requiredFile := range requiredFiles {
		normalized := strings.ToLower(strings.TrimPrefix(path.Clean(requiredFile), "/"))
		if !present[normalized] {
			missing = append(missing, requiredFile)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w (%s): %s", ErrIsoMissingFiles, isoPath, strings.Join(missing, ", "))
	}

	return nil
}
