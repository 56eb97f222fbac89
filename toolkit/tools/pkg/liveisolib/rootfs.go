// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisolib

import (
	"context"
	"errors"
	"fmt"

	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/osinfo"
	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/shell"
	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/internal/tarutils"
	"github.com/sirupsen/logrus"
)

// extractRootfs unpacks archivePath into squashfsDir with tar. The archive
// headers are checked first so that nothing lands outside squashfsDir.
func extractRootfs(ctx context.Context, log *logrus.Entry, runner shell.Runner, tool []string,
	archivePath string, squashfsDir string,
) error {
	log = log.WithField("component", "rootfs")

	summary, err := tarutils.InspectArchive(archivePath)
	switch {
	case errors.Is(err, tarutils.ErrUnsafeArchiveEntry):
		return NewLiveIsoErrorWithCause(ErrTypeInvalidInput, ErrUnsafeRootfsArchive.Error(), err)

	case errors.Is(err, tarutils.ErrUnsupportedArchiveCompression):
		log.Warnf("Skipping inspection of rootfs archive (%s): %v", archivePath, err)

	case err != nil:
		return NewLiveIsoErrorWithCause(ErrTypeInvalidInput,
			fmt.Sprintf("failed to read rootfs archive (%s)", archivePath), err)

	default:
		log.Debugf("Rootfs archive (%s) has %d entries", archivePath, summary.Entries)
		if !summary.HasOsRelease {
			log.Warnf("Rootfs archive (%s) has no os-release file", archivePath)
		}
		if !summary.HasModules {
			log.Warnf("Rootfs archive (%s) has no kernel modules", archivePath)
		}
	}

	command, err := toolCommand(tool, "-xf", archivePath, "-C", squashfsDir)
	if err != nil {
		return NewLiveIsoErrorWithCause(ErrTypeConfigValidation, "invalid tar command", err)
	}

	err = runTool(ctx, log, runner, command)
	if err != nil {
		return err
	}

	log.Infof("Extracted rootfs archive (%s) to (%s)", archivePath, squashfsDir)
	return nil
}

// logRootfsRelease reports which distribution is being turned into a live ISO.
func logRootfsRelease(log *logrus.Entry, squashfsDir string) {
	release, err := osinfo.ReadOsRelease(squashfsDir)
	if err != nil {
		log.Debugf("Could not identify the rootfs distribution: %v", err)
		return
	}

	name := release.PrettyName
	if name == "" {
		name = release.Id + " " + release.VersionId
	}
	log.Infof("Building live ISO for (%s)", name)
}

// runTool runs a helper command that is not tracked as an image builder.
func runTool(ctx context.Context, log *logrus.Entry, runner shell.Runner, command shell.Command) error {
	log.Debugf("Running (%s)", command)

	result, err := runner.Run(ctx, command)
	if err != nil {
		log.Errorf("Could not start (%s): %v", command.Name, err)
		return NewLiveIsoErrorWithCause(ErrTypeExternalTool, fmt.Sprintf("failed to run (%s)", command.Name), err)
	}

	if !result.Succeeded() {
		exitErr := shell.NewExitCodeError(command, result, shell.DefaultErrorStderrLines)
		log.Errorf("Command failed: %v", exitErr)
		return NewLiveIsoErrorWithCause(ErrTypeExternalTool, fmt.Sprintf("(%s) failed", command.Name), exitErr)
	}

	return nil
}
