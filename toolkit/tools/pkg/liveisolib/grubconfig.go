// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package liveisolib

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/liveos-tools/rawimg2liveiso/toolkit/tools/liveisoapi"
	"github.com/sirupsen/logrus"
)

var defaultLiveKernelArgs = []string{
	"rd.live.image", "quiet", "rhgb", "rd.luks=0", "rd.md=0", "rd.dm=0",
}

// GrubKernelCommandLine returns the kernel arguments of the live boot entry.
func GrubKernelCommandLine(config liveisoapi.Grub) string {
	args := []string{"root=live:CDLABEL=" + config.VolumeLabel}
	args = append(args, defaultLiveKernelArgs...)
	args = append(args, config.ExtraKernelArgs...)
	return strings.Join(args, " ")
}

// GrubConfigContent renders the grub.cfg placed in the ISO.
func GrubConfigContent(config liveisoapi.Grub) string {
	kernelPath := "/" + pxebootDir + "/" + isoKernelFile
	initrdPath := "/" + pxebootDir + "/" + isoInitrdFile

	lines := []string{
		fmt.Sprintf("search --no-floppy --set=root -l '%s'", config.VolumeLabel),
		`set default="0"`,
		fmt.Sprintf("set timeout=%d", config.Timeout),
		"",
		fmt.Sprintf("menuentry '%s' {", config.MenuTitle),
		"    echo 'Loading kernel ...'",
		fmt.Sprintf("    linux %s %s", kernelPath, GrubKernelCommandLine(config)),
		"    echo 'Loading initrd ...'",
		fmt.Sprintf("    initrd %s", initrdPath),
		"}",
	}

	return strings.Join(lines, "\n") + "\n"
}

// ConfigureGrub writes <isoDir>/EFI/BOOT/grub.cfg, replacing any existing file.
func ConfigureGrub(log *logrus.Entry, isoDir string, config liveisoapi.Grub) error {
	log = log.WithField("component", "grub-config")

	configPath := grubConfigPath(isoDir)

	err := writeConfigFile(filepath.Dir(configPath), configPath, GrubConfigContent(config))
	if err != nil {
		log.Errorf("Failed to create grub configuration: %v", err)
		return err
	}

	log.Infof("Grub configuration created at (%s)", configPath)
	return nil
}
