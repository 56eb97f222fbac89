// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mountutils

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/moby/sys/mountinfo"
	"golang.org/x/sys/unix"
)

// GetMountsUnder returns the mount points located at or below dir, sorted.
func GetMountsUnder(dir string) ([]string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path of (%s):\n%w", dir, err)
	}

	mounts, err := mountinfo.GetMounts(mountinfo.PrefixFilter(absDir))
	if err != nil {
		return nil, fmt.Errorf("failed to read mount info:\n%w", err)
	}

	mountPoints := make([]string, 0, len(mounts))
	for _, mount := range mounts {
		mountPoints = append(mountPoints, mount.Mountpoint)
	}

	sort.Strings(mountPoints)
	return mountPoints, nil
}

// GetFreeSpace returns the number of bytes available to unprivileged users on
// the filesystem holding path.
func GetFreeSpace(path string) (uint64, error) {
	var stat unix.Statfs_t
	err := unix.Statfs(path, &stat)
	if err != nil {
		return 0, fmt.Errorf("failed to stat filesystem of (%s):\n%w", path, err)
	}

	return stat.Bavail * uint64(stat.Bsize), nil
}
