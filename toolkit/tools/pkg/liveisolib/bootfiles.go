// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisolib

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/initrdutils"
	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/kernelversion"
	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/shell"
	"github.com/sirupsen/logrus"
)

// The dmsquash-live dracut module installs this script. Without it the
// initramfs cannot mount the live root.
const dmsquashLiveRootScript = "dmsquash-live-root"

// selectKernel picks the kernel in squashfsDir matching kernelVersion, or the
// newest one when kernelVersion is empty.
func selectKernel(squashfsDir string, kernelVersion string) (kernelversion.InstalledKernel, error) {
	kernels, err := kernelversion.FindInstalledKernels(squashfsDir)
	if err != nil {
		return kernelversion.InstalledKernel{}, NewLiveIsoErrorWithCause(ErrTypeFilesystemOperation,
			"failed to search for kernels", err)
	}

	for _, kernel := range kernels {
		if kernelVersion == "" || kernel.Release == kernelVersion {
			return kernel, nil
		}
	}

	message := ErrNoKernelInRootfs.Error()
	if kernelVersion != "" {
		message = fmt.Sprintf("%s (version %s)", message, kernelVersion)
	}
	return kernelversion.InstalledKernel{}, NewLiveIsoError(ErrTypeInvalidInput, message)
}

// resolveInitramfsKernelVersion returns the kernel release dracut should build
// for. An empty result means dracut falls back to the build host's kernel.
func resolveInitramfsKernelVersion(log *logrus.Entry, squashfsDir string, configured string) string {
	if configured != "" {
		return configured
	}

	kernel, err := kernelversion.FindNewestKernel(squashfsDir)
	if err == nil {
		log.Infof("Building initramfs for kernel (%s)", kernel.Release)
		return kernel.Release
	}

	hostRelease, hostErr := kernelversion.GetBuildHostKernelRelease()
	if hostErr != nil {
		hostRelease = "unknown"
	}
	log.Warnf("No kernel found in the squashfs tree, dracut will use the build host kernel (%s)", hostRelease)
	return ""
}

// inspectInitramfs checks that the generated initramfs carries the live root
// module. Problems are only reported.
func inspectInitramfs(log *logrus.Entry, initramfsPath string) {
	names, err := initrdutils.ListInitrdImageFiles(initramfsPath)
	if err != nil {
		log.Warnf("Could not inspect initramfs (%s): %v", initramfsPath, err)
		return
	}

	for _, name := range names {
		if path.Base(name) == dmsquashLiveRootScript {
			log.Debugf("Initramfs (%s) contains the dmsquash-live module", initramfsPath)
			return
		}
	}

	log.Warnf("Initramfs (%s) does not contain the dmsquash-live module, the ISO may not boot", initramfsPath)
}

// stageBootFiles copies the kernel and the initramfs to images/pxeboot in the
// ISO tree.
func stageBootFiles(ctx context.Context, log *logrus.Entry, runner shell.Runner, tool []string,
	paths BuildPaths, kernelVersion string,
) error {
	log = log.WithField("component", "boot-files")

	kernel, err := selectKernel(paths.SquashfsDir, kernelVersion)
	if err != nil {
		log.Errorf("Failed to find kernel: %v", err)
		return err
	}

	pxebootPath := filepath.Join(paths.IsoDir, pxebootDir)
	err = os.MkdirAll(pxebootPath, os.ModePerm)
	if err != nil {
		return NewLiveIsoErrorWithCause(ErrTypeFilesystemOperation,
			fmt.Sprintf("failed to create directory (%s)", pxebootPath), err)
	}

	copies := []struct {
		src string
		dst string
	}{
		{kernel.ImagePath, paths.IsoKernelPath()},
		{paths.InitramfsPath(), paths.IsoInitrdPath()},
	}

	for _, c := range copies {
		command, err := toolCommand(tool, c.src, c.dst)
		if err != nil {
			return NewLiveIsoErrorWithCause(ErrTypeConfigValidation, "invalid cp command", err)
		}

		err = runTool(ctx, log, runner, command)
		if err != nil {
			return err
		}
	}

	log.Infof("Staged kernel (%s) and initramfs in (%s)", kernel.Release, pxebootPath)
	return nil
}
