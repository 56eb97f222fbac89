// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package kernelversion

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/file"
	"golang.org/x/sys/unix"
)

var (
	// Parses the kernel version from "uname -r" or subdirectories of /lib/modules.
	//
	// Examples:
	//   OS               Version
	//   Fedora 40        6.11.6-200.fc40.x86_64
	//   Ubuntu 22.04     6.8.0-48-generic
	//   Azure Linux 3.0  6.6.47.1-1.azl3
	kernelVersionRegex = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)([.\-][a-zA-Z0-9_.\-+]*)?$`)

	modulesDirs = []string{
		"usr/lib/modules",
		"lib/modules",
	}
)

// InstalledKernel is a kernel found inside a root filesystem.
type InstalledKernel struct {
	// Full release string, as reported by "uname -r".
	Release string
	Version Version
	// Absolute path of the kernel image.
	ImagePath string
}

// GetBuildHostKernelRelease returns the release string of the running kernel.
func GetBuildHostKernelRelease() (string, error) {
	utsName := unix.Utsname{}
	err := unix.Uname(&utsName)
	if err != nil {
		return "", fmt.Errorf("failed to query uname:\n%w", err)
	}

	releaseBuf := utsName.Release[:]
	releaseLen := bytes.IndexByte(releaseBuf, 0)
	if releaseLen < 0 {
		releaseLen = len(releaseBuf)
	}

	return string(releaseBuf[:releaseLen]), nil
}

func ParseKernelVersion(release string) (Version, error) {
	match := kernelVersionRegex.FindStringSubmatch(release)
	if match == nil {
		return nil, fmt.Errorf("failed to parse kernel version (%s)", release)
	}

	major, _ := strconv.Atoi(match[1])
	minor, _ := strconv.Atoi(match[2])
	patch, _ := strconv.Atoi(match[3])

	return Version{major, minor, patch}, nil
}

// FindInstalledKernels lists the kernels under rootDir that have both a
// modules directory and a kernel image, newest first.
func FindInstalledKernels(rootDir string) ([]InstalledKernel, error) {
	seen := make(map[string]bool)
	kernels := []InstalledKernel(nil)

	for _, modulesDir := range modulesDirs {
		modulesPath := filepath.Join(rootDir, modulesDir)

		entries, err := os.ReadDir(modulesPath)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read kernel modules directory (%s):\n%w", modulesPath, err)
		}

		for _, entry := range entries {
			release := entry.Name()
			if !entry.IsDir() || seen[release] {
				continue
			}

			version, err := ParseKernelVersion(release)
			if err != nil {
				continue
			}

			imagePath, err := findKernelImage(rootDir, modulesPath, release)
			if err != nil {
				return nil, err
			}
			if imagePath == "" {
				continue
			}

			seen[release] = true
			kernels = append(kernels, InstalledKernel{
				Release:   release,
				Version:   version,
				ImagePath: imagePath,
			})
		}
	}

	sort.SliceStable(kernels, func(i, j int) bool {
		cmp := kernels[i].Version.Cmp(kernels[j].Version)
		if cmp != 0 {
			return cmp > 0
		}
		return kernels[i].Release > kernels[j].Release
	})

	return kernels, nil
}

// FindNewestKernel returns the newest kernel installed under rootDir.
func FindNewestKernel(rootDir string) (InstalledKernel, error) {
	kernels, err := FindInstalledKernels(rootDir)
	if err != nil {
		return InstalledKernel{}, err
	}

	if len(kernels) == 0 {
		return InstalledKernel{}, fmt.Errorf("no kernel found in (%s)", rootDir)
	}

	return kernels[0], nil
}

func findKernelImage(rootDir string, modulesPath string, release string) (string, error) {
	// Fedora ships the image next to the modules. /boot holds a copy that the
	// kernel-install scripts create.
	candidates := []string{
		filepath.Join(modulesPath, release, "vmlinuz"),
		filepath.Join(rootDir, "boot", "vmlinuz-"+release),
	}

	for _, candidate := range candidates {
		exists, err := file.PathExists(candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check if kernel image (%s) exists:\n%w", candidate, err)
		}
		if exists {
			return candidate, nil
		}
	}

	return "", nil
}
